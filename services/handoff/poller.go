// File: services/handoff/poller.go
package handoff

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	queueRepo "careai/database/repository/queue"
	"careai/models"
	"careai/utils"
)

// Poller periodically reloads the shared queue and publishes snapshots when
// the collection changed. Both processes run one; consumers that miss a
// snapshot just catch up on the next tick.
type Poller struct {
	repo     queueRepo.Repository
	interval time.Duration

	mu     sync.RWMutex
	latest []models.HandoffRequest

	snapshots chan []models.HandoffRequest
}

func NewPoller(repo queueRepo.Repository, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Poller{
		repo:      repo,
		interval:  interval,
		snapshots: make(chan []models.HandoffRequest, 1),
	}
}

// Snapshots delivers changed queue snapshots. The channel holds at most one
// pending snapshot; a slow consumer only ever sees the newest state.
func (p *Poller) Snapshots() <-chan []models.HandoffRequest {
	return p.snapshots
}

// Latest returns the most recent snapshot without blocking.
func (p *Poller) Latest() []models.HandoffRequest {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]models.HandoffRequest(nil), p.latest...)
}

// Run polls until the context is cancelled. Fetch errors are logged and the
// previous snapshot stands.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	reqs, err := p.repo.Load(ctx)
	if err != nil {
		utils.GetLogger().Warn("Handoff queue poll failed", zap.Error(err))
		return
	}

	p.mu.Lock()
	changed := !snapshotsEqual(p.latest, reqs)
	if changed {
		p.latest = reqs
	}
	p.mu.Unlock()

	if !changed {
		return
	}

	// Replace any undelivered snapshot with the fresh one.
	select {
	case <-p.snapshots:
	default:
	}
	select {
	case p.snapshots <- append([]models.HandoffRequest(nil), reqs...):
	default:
	}
}

func snapshotsEqual(a, b []models.HandoffRequest) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID ||
			a[i].Status != b[i].Status ||
			a[i].AgentID != b[i].AgentID ||
			a[i].AgentRole != b[i].AgentRole ||
			len(a[i].CurrentConversation) != len(b[i].CurrentConversation) {
			return false
		}
	}
	return true
}
