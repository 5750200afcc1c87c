// Package mqtt carries the coordinator's broker traffic: round
// lifecycle announcements, model publication events and participant
// heartbeats. Payloads are JSON objects; the broker is advisory and
// the coordinator stays correct when it is absent.
package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	connectTimeout    = 10 * time.Second
	reconnectInterval = time.Minute
	disconnectQuiesce = 250 // milliseconds, paho's own unit
)

var (
	errEmptyID          = errors.New("empty client ID")
	errEmptyTopic       = errors.New("empty topic")
	errTokenTimeout     = errors.New("broker operation timed out")
	errConnectFailed    = errors.New("failed to connect to MQTT broker")
	statusTopicTemplate = "fl/%s/coordinator/status"
)

// statusPayload announces coordinator liveness on the status topic. The
// offline variant rides the broker's last-will so observers learn about
// crashes, not only clean shutdowns.
type statusPayload struct {
	Status        string `json:"status"`
	CoordinatorID string `json:"coordinator_id"`
}

// Handler consumes one decoded broker message.
type Handler func(topic string, msg map[string]any) error

type PubSub interface {
	Publish(ctx context.Context, topic string, msg any) error
	Subscribe(ctx context.Context, topic string, handler Handler) error
	Unsubscribe(ctx context.Context, topic string) error
	Disconnect(ctx context.Context) error
}

type pubsub struct {
	client  mqtt.Client
	qos     byte
	timeout time.Duration
	logger  *slog.Logger
}

// NewPubSub connects to the broker and registers the coordinator's
// online/offline status pair: a retained "online" message once the
// session is up and an "offline" last-will for when it is not.
func NewPubSub(address string, qos byte, id, username, password, domain string, timeout time.Duration, logger *slog.Logger) (PubSub, error) {
	if id == "" {
		return nil, errEmptyID
	}

	statusTopic := fmt.Sprintf(statusTopicTemplate, domain)

	opts := mqtt.NewClientOptions().
		AddBroker(address).
		SetClientID(id).
		SetUsername(username).
		SetPassword(password).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectTimeout(connectTimeout).
		SetMaxReconnectInterval(reconnectInterval)

	if domain != "" {
		will, err := json.Marshal(statusPayload{Status: "offline", CoordinatorID: id})
		if err != nil {
			return nil, err
		}
		opts.SetWill(statusTopic, string(will), qos, true)
	}

	opts.SetOnConnectHandler(func(c mqtt.Client) {
		logger.Info("Connected to MQTT broker", slog.String("address", address))
		if domain == "" {
			return
		}
		online, err := json.Marshal(statusPayload{Status: "online", CoordinatorID: id})
		if err != nil {
			return
		}
		c.Publish(statusTopic, qos, true, online)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("MQTT connection lost", slog.Any("error", err))
	})
	opts.SetReconnectingHandler(func(_ mqtt.Client, o *mqtt.ClientOptions) {
		logger.Info("Reconnecting to MQTT broker", slog.String("client_id", o.ClientID))
	})

	client := mqtt.NewClient(opts)
	if err := wait(context.Background(), client.Connect(), timeout); err != nil {
		return nil, errors.Join(errConnectFailed, err)
	}

	return &pubsub{
		client:  client,
		qos:     qos,
		timeout: timeout,
		logger:  logger,
	}, nil
}

func (ps *pubsub) Publish(ctx context.Context, topic string, msg any) error {
	if topic == "" {
		return errEmptyTopic
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	return wait(ctx, ps.client.Publish(topic, ps.qos, false, data), ps.timeout)
}

func (ps *pubsub) Subscribe(ctx context.Context, topic string, handler Handler) error {
	if topic == "" {
		return errEmptyTopic
	}

	callback := func(_ mqtt.Client, m mqtt.Message) {
		var msg map[string]any
		if err := json.Unmarshal(m.Payload(), &msg); err != nil {
			ps.logger.Warn("Dropping malformed broker message",
				slog.String("topic", m.Topic()),
				slog.Any("error", err),
			)

			return
		}

		if err := handler(m.Topic(), msg); err != nil {
			ps.logger.Warn("Broker message handler failed",
				slog.String("topic", m.Topic()),
				slog.Any("error", err),
			)
		}

		m.Ack()
	}

	return wait(ctx, ps.client.Subscribe(topic, ps.qos, callback), ps.timeout)
}

func (ps *pubsub) Unsubscribe(ctx context.Context, topic string) error {
	if topic == "" {
		return errEmptyTopic
	}

	return wait(ctx, ps.client.Unsubscribe(topic), ps.timeout)
}

func (ps *pubsub) Disconnect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ps.client.Disconnect(disconnectQuiesce)

	return nil
}

// wait blocks on a paho token, bounded by both the deadline and the
// caller's context.
func wait(ctx context.Context, token mqtt.Token, timeout time.Duration) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		if ok := token.WaitTimeout(timeout); !ok {
			return
		}
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
	}

	if err := token.Error(); err != nil {
		return err
	}
	if !token.WaitTimeout(0) {
		return errTokenTimeout
	}

	return nil
}
