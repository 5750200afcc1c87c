package registry_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rodneyosodo/mosaic/participant"
	pkgerrors "github.com/rodneyosodo/mosaic/pkg/errors"
	"github.com/rodneyosodo/mosaic/pkg/storage"
	"github.com/rodneyosodo/mosaic/registry"
)

const freshness = time.Minute

func newService() registry.Service {
	return registry.NewService(storage.NewInMemoryStorage[participant.Participant](), freshness)
}

func TestHeartbeatRegisters(t *testing.T) {
	t.Parallel()

	svc := newService()

	p, err := svc.Heartbeat(context.Background(), participant.Participant{
		ID:          "participant-1",
		Name:        "worker",
		DatasetSize: 100,
	})
	require.NoError(t, err)
	assert.True(t, p.Eligible)
	assert.True(t, p.Alive)
	assert.False(t, p.LastSeen.IsZero())

	got, err := svc.Get(context.Background(), "participant-1")
	require.NoError(t, err)
	assert.Equal(t, uint64(100), got.DatasetSize)
}

func TestHeartbeatRequiresID(t *testing.T) {
	t.Parallel()

	svc := newService()

	_, err := svc.Heartbeat(context.Background(), participant.Participant{})
	assert.ErrorIs(t, err, pkgerrors.ErrEmptyKey)
}

func TestHeartbeatRefreshesExisting(t *testing.T) {
	t.Parallel()

	svc := newService()

	_, err := svc.Heartbeat(context.Background(), participant.Participant{
		ID:          "participant-1",
		Name:        "worker",
		DatasetSize: 100,
		PublicKey:   []byte("key-1"),
	})
	require.NoError(t, err)

	// A bare heartbeat keeps the registered metadata.
	p, err := svc.Heartbeat(context.Background(), participant.Participant{ID: "participant-1"})
	require.NoError(t, err)
	assert.Equal(t, "worker", p.Name)
	assert.Equal(t, uint64(100), p.DatasetSize)
	assert.Equal(t, []byte("key-1"), p.PublicKey)

	// A heartbeat with new metadata replaces it.
	p, err = svc.Heartbeat(context.Background(), participant.Participant{
		ID:          "participant-1",
		DatasetSize: 250,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(250), p.DatasetSize)
}

func TestGetMissing(t *testing.T) {
	t.Parallel()

	svc := newService()

	_, err := svc.Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)
}

func TestListPages(t *testing.T) {
	t.Parallel()

	svc := newService()
	for i := range 5 {
		_, err := svc.Heartbeat(context.Background(), participant.Participant{
			ID: fmt.Sprintf("participant-%d", i),
		})
		require.NoError(t, err)
	}

	page, err := svc.List(context.Background(), 0, 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), page.Total)
	assert.Len(t, page.Participants, 3)

	page, err = svc.List(context.Background(), 3, 3)
	require.NoError(t, err)
	assert.Len(t, page.Participants, 2)
}

func TestEligibleSnapshotSkipsAdmitted(t *testing.T) {
	t.Parallel()

	svc := newService()
	for _, id := range []string{"a", "b", "c"} {
		_, err := svc.Heartbeat(context.Background(), participant.Participant{ID: id})
		require.NoError(t, err)
	}

	require.NoError(t, svc.MarkAdmitted(context.Background(), "b", 7))

	snapshot, err := svc.EligibleSnapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, snapshot, 2)
	for _, p := range snapshot {
		assert.NotEqual(t, "b", p.ID)
	}

	require.NoError(t, svc.Release(context.Background(), "b"))

	snapshot, err = svc.EligibleSnapshot(context.Background())
	require.NoError(t, err)
	assert.Len(t, snapshot, 3)
}

func TestMarkAdmittedMissing(t *testing.T) {
	t.Parallel()

	svc := newService()

	assert.ErrorIs(t, svc.MarkAdmitted(context.Background(), "ghost", 1), pkgerrors.ErrNotFound)
	assert.ErrorIs(t, svc.Release(context.Background(), "ghost"), pkgerrors.ErrNotFound)
}

func TestDelete(t *testing.T) {
	t.Parallel()

	svc := newService()
	_, err := svc.Heartbeat(context.Background(), participant.Participant{ID: "participant-1"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), "participant-1"))
	_, err = svc.Get(context.Background(), "participant-1")
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)
}
