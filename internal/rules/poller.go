package rules

import (
	"context"
	"time"

	"github.com/kjannette/maichez-backend/internal/logger"
	"github.com/kjannette/maichez-backend/internal/models"
)

type FingerprintStore interface {
	Fingerprint(ctx context.Context, userID string) (models.RuleFingerprint, error)
}

// Poller is the change source used when LISTEN/NOTIFY is unavailable. Every
// interval it fingerprints each watched user's rules and emits an update for
// those whose fingerprint moved.
type Poller struct {
	store    FingerprintStore
	users    func() []string
	interval time.Duration

	last map[string]models.RuleFingerprint
}

// NewPoller watches the users returned by users, typically Cache.Users.
func NewPoller(store FingerprintStore, users func() []string, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Poller{
		store:    store,
		users:    users,
		interval: interval,
		last:     make(map[string]models.RuleFingerprint),
	}
}

func (p *Poller) Changes(ctx context.Context) (<-chan Change, error) {
	out := make(chan Change)
	go func() {
		defer close(out)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				for _, ch := range p.Poll(ctx) {
					select {
					case out <- ch:
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()
	logger.Info(ctx, "Rule change poller started", "interval", p.interval.String())
	return out, nil
}

// Poll runs one round. The first round for a user only records a baseline.
func (p *Poller) Poll(ctx context.Context) []Change {
	var changes []Change
	seen := make(map[string]bool)
	for _, userID := range p.users() {
		seen[userID] = true
		fp, err := p.store.Fingerprint(ctx, userID)
		if err != nil {
			logger.Warn(ctx, "Rule fingerprint failed", "user_id", userID, "error", err)
			continue
		}
		prev, ok := p.last[userID]
		p.last[userID] = fp
		if ok && !prev.Equal(fp) {
			changes = append(changes, Change{Op: OpUpdate, UserID: userID})
		}
	}
	for userID := range p.last {
		if !seen[userID] {
			delete(p.last, userID)
		}
	}
	return changes
}
