package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kjannette/maichez-backend/internal/db"
	"github.com/kjannette/maichez-backend/internal/models"
	"github.com/kjannette/maichez-backend/internal/repository"
	"github.com/kjannette/maichez-backend/internal/rules"
	"github.com/kjannette/maichez-backend/internal/testutil"
)

func TestResyncSignal_CoalescesReconnects(t *testing.T) {
	r := newResyncSignal()
	r.observe(pq.ListenerEventConnected)
	r.observe(pq.ListenerEventDisconnected)
	assert.Len(t, r, 0)

	for i := 0; i < 10; i++ {
		r.observe(pq.ListenerEventReconnected)
	}
	require.Len(t, r, 1)
	<-r
	assert.Len(t, r, 0)

	r.observe(pq.ListenerEventReconnected)
	assert.Len(t, r, 1, "a reconnect after the drain is reported again")
}

func TestParsePayload(t *testing.T) {
	ch, err := ParsePayload(`{"op":"INSERT","id":"r1","user_id":"u1"}`)
	require.NoError(t, err)
	assert.Equal(t, rules.Change{Op: rules.OpInsert, RuleID: "r1", UserID: "u1"}, ch)

	ch, err = ParsePayload(`{"op":"delete","id":"r1","user_id":"u1"}`)
	require.NoError(t, err)
	assert.Equal(t, rules.OpDelete, ch.Op)

	_, err = ParsePayload(`{"op":"TRUNCATE"}`)
	assert.Error(t, err)
	_, err = ParsePayload(`not json`)
	assert.Error(t, err)
}

func TestEventName(t *testing.T) {
	assert.Equal(t, "reconnected", eventName(pq.ListenerEventReconnected))
	assert.Equal(t, "event_42", eventName(pq.ListenerEventType(42)))
}

func TestListener_ReceivesTriggerEvents(t *testing.T) {
	pool := testutil.SetupPool(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	l := NewListener(testutil.TestDSN(), db.RuleChangesChannel)
	changes, err := l.Changes(ctx)
	require.NoError(t, err)

	user := testutil.NewUserID()
	t.Cleanup(func() { _, _ = pool.Exec(context.Background(), `DELETE FROM trade_rules WHERE user_id = $1`, user) })

	rule, err := repository.NewRuleRepo(pool).Create(ctx, &models.TradeRule{UserID: user, Text: "No trading during news"})
	require.NoError(t, err)

	for {
		select {
		case ch := <-changes:
			if ch.UserID != user {
				continue
			}
			assert.Equal(t, rules.OpInsert, ch.Op)
			assert.Equal(t, rule.ID, ch.RuleID)
			return
		case <-ctx.Done():
			t.Fatal("no notification received")
		}
	}
}
