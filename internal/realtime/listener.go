// Package realtime turns Postgres NOTIFY events on the rule table into rule
// change events.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/kjannette/maichez-backend/internal/logger"
	"github.com/kjannette/maichez-backend/internal/rules"
)

const pingInterval = 90 * time.Second

// Listener is a rules.ChangeSource backed by LISTEN on one channel. It
// reconnects on its own; every reconnect is reported as a resync because
// notifications sent while disconnected are lost.
type Listener struct {
	dsn     string
	channel string

	minReconnect time.Duration
	maxReconnect time.Duration
}

func NewListener(dsn, channel string) *Listener {
	return &Listener{
		dsn:          dsn,
		channel:      channel,
		minReconnect: time.Second,
		maxReconnect: time.Minute,
	}
}

func (l *Listener) Changes(ctx context.Context) (<-chan rules.Change, error) {
	resync := newResyncSignal()
	pl := pq.NewListener(l.dsn, l.minReconnect, l.maxReconnect, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			logger.Warn(ctx, "Rule listener connection event", "event", eventName(ev), "error", err)
		}
		resync.observe(ev)
	})
	if err := pl.Listen(l.channel); err != nil {
		pl.Close()
		return nil, fmt.Errorf("listen %s: %w", l.channel, err)
	}
	logger.Info(ctx, "Listening for rule changes", "channel", l.channel)

	out := make(chan rules.Change)
	go func() {
		defer close(out)
		defer pl.Close()

		ping := time.NewTicker(pingInterval)
		defer ping.Stop()

		send := func(ch rules.Change) bool {
			select {
			case out <- ch:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case <-resync:
				logger.Info(ctx, "Rule listener reconnected, resyncing")
				if !send(rules.Change{Op: rules.OpResync}) {
					return
				}
			case n := <-pl.Notify:
				if n == nil {
					// pq sends nil after a reconnect; handled via the event above
					continue
				}
				ch, err := ParsePayload(n.Extra)
				if err != nil {
					logger.Warn(ctx, "Bad rule change payload", "payload", n.Extra, "error", err)
					ch = rules.Change{Op: rules.OpResync}
				}
				if !send(ch) {
					return
				}
			case <-ping.C:
				go func() {
					if err := pl.Ping(); err != nil {
						logger.Warn(ctx, "Rule listener ping failed", "error", err)
					}
				}()
			}
		}
	}()
	return out, nil
}

// resyncSignal holds at most one pending resync. Reconnects that arrive
// while one is pending fold into it, so none is lost and the pq callback
// never blocks.
type resyncSignal chan struct{}

func newResyncSignal() resyncSignal { return make(resyncSignal, 1) }

func (r resyncSignal) observe(ev pq.ListenerEventType) {
	if ev != pq.ListenerEventReconnected {
		return
	}
	select {
	case r <- struct{}{}:
	default:
	}
}

// ParsePayload decodes the trigger's JSON payload {op, id, user_id}.
func ParsePayload(payload string) (rules.Change, error) {
	var ch rules.Change
	if err := json.Unmarshal([]byte(payload), &ch); err != nil {
		return rules.Change{}, fmt.Errorf("decode rule change: %w", err)
	}
	ch.Op = rules.Op(strings.ToUpper(string(ch.Op)))
	switch ch.Op {
	case rules.OpInsert, rules.OpUpdate, rules.OpDelete:
	default:
		return rules.Change{}, fmt.Errorf("unknown rule change op %q", ch.Op)
	}
	return ch, nil
}

func eventName(ev pq.ListenerEventType) string {
	switch ev {
	case pq.ListenerEventConnected:
		return "connected"
	case pq.ListenerEventDisconnected:
		return "disconnected"
	case pq.ListenerEventReconnected:
		return "reconnected"
	case pq.ListenerEventConnectionAttemptFailed:
		return "connection_attempt_failed"
	default:
		return fmt.Sprintf("event_%d", ev)
	}
}
