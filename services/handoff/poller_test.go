package handoff

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	queueRepo "careai/database/repository/queue"
	"careai/models"
)

func TestPollerPublishesChangedSnapshots(t *testing.T) {
	repo := queueRepo.NewMemoryRepo()
	p := NewPoller(repo, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	seedPending(t, repo, "req-1")
	select {
	case snap := <-p.Snapshots():
		require.Len(t, snap, 1)
		assert.Equal(t, "req-1", snap[0].ID)
	case <-time.After(time.Second):
		t.Fatal("no snapshot delivered")
	}

	latest := p.Latest()
	require.Len(t, latest, 1)
	assert.Equal(t, "req-1", latest[0].ID)
}

func TestPollerSkipsUnchangedQueue(t *testing.T) {
	repo := queueRepo.NewMemoryRepo()
	seedPending(t, repo, "req-1")
	p := NewPoller(repo, time.Minute)

	p.poll(context.Background())
	<-p.Snapshots()

	// Same state again: no new snapshot.
	p.poll(context.Background())
	select {
	case <-p.Snapshots():
		t.Fatal("unchanged queue must not publish a snapshot")
	default:
	}
}

func TestPollerDetectsConversationGrowth(t *testing.T) {
	repo := queueRepo.NewMemoryRepo()
	seedPending(t, repo, "req-1")
	p := NewPoller(repo, time.Minute)

	p.poll(context.Background())
	<-p.Snapshots()

	_, err := repo.CompareAndSwap(context.Background(), "req-1", models.HandoffPending, func(req *models.HandoffRequest) error {
		req.CurrentConversation = append(req.CurrentConversation, models.ChatMessage{ID: "m1", Text: "hi"})
		return nil
	})
	require.NoError(t, err)

	p.poll(context.Background())
	select {
	case snap := <-p.Snapshots():
		require.Len(t, snap, 1)
		assert.Len(t, snap[0].CurrentConversation, 1)
	default:
		t.Fatal("conversation growth must publish a snapshot")
	}
}

func TestPollerKeepsLastSnapshotOnReadFailure(t *testing.T) {
	repo := queueRepo.NewMemoryRepo()
	seedPending(t, repo, "req-1")
	p := NewPoller(repo, time.Minute)

	p.poll(context.Background())
	repo.FailReads = errors.New("store down")
	p.poll(context.Background())

	latest := p.Latest()
	require.Len(t, latest, 1)
	assert.Equal(t, "req-1", latest[0].ID)
}

func TestPollerSlowConsumerSeesNewestOnly(t *testing.T) {
	repo := queueRepo.NewMemoryRepo()
	p := NewPoller(repo, time.Minute)

	seedPending(t, repo, "req-1")
	p.poll(context.Background())
	seedPending(t, repo, "req-2")
	p.poll(context.Background())

	snap := <-p.Snapshots()
	assert.Len(t, snap, 2)
	select {
	case <-p.Snapshots():
		t.Fatal("stale snapshot should have been replaced, not queued")
	default:
	}
}
