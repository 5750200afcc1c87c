package mosaic

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml"
)

const configFilePermission = 0o644

type Config struct {
	Coordinator CoordinatorConfig `toml:"coordinator"`
	Participant ParticipantConfig `toml:"participant"`
}

type CoordinatorConfig struct {
	URL       string `toml:"url"`
	ClientID  string `toml:"client_id"`
	ClientKey string `toml:"client_key"`
	Domain    string `toml:"domain"`
}

type ParticipantConfig struct {
	ID          string `toml:"id"`
	Name        string `toml:"name"`
	PublicKey   string `toml:"public_key"`
	PrivateKey  string `toml:"private_key"`
	DatasetSize uint64 `toml:"dataset_size"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	tree, err := toml.Load(string(data))
	if err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	var cfg Config
	if err := tree.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &cfg, nil
}

func SaveConfig(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, configFilePermission); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}
