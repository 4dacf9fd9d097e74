package reminder

import (
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclaw/openclaw/internal/channel"
	"github.com/openclaw/openclaw/internal/scheduler"
)

type fakeAdapter struct {
	typ channel.Type

	mu   sync.Mutex
	sent []channel.Outbound
}

func (a *fakeAdapter) Type() channel.Type { return a.typ }

func (a *fakeAdapter) Send(out channel.Outbound) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sent = append(a.sent, out)
	return nil
}

func (a *fakeAdapter) Sent() []channel.Outbound {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]channel.Outbound(nil), a.sent...)
}

func newTestEngine(t *testing.T) (*Engine, *fakeAdapter, *Store) {
	t.Helper()
	sched := scheduler.New(2)
	t.Cleanup(sched.Stop)

	store, err := NewStore(filepath.Join(t.TempDir(), "reminders.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	adapters := channel.NewAdapterRegistry()
	adapter := &fakeAdapter{typ: channel.TypeWhatsApp}
	adapters.Register(adapter)

	return NewEngine(sched, adapters, store), adapter, store
}

func TestCreateFiresNotificationWithPrefix(t *testing.T) {
	engine, adapter, store := newTestEngine(t)

	id, err := engine.Create("U1", "C1", "", channel.TypeWhatsApp, "check the PRs", time.Now().Add(30*time.Millisecond))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "reminder-"))
	assert.False(t, strings.HasPrefix(id, "reminder-cron-"))

	require.Eventually(t, func() bool {
		return len(adapter.Sent()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	sent := adapter.Sent()[0]
	assert.Equal(t, "🔔 **Reminder:** check the PRs", sent.Content)
	assert.Equal(t, "C1", sent.ChannelID)

	// fired one-shots are removed from the store
	assert.Eventually(t, func() bool {
		records, err := store.List()
		return err == nil && len(records) == 0
	}, time.Second, 10*time.Millisecond)
}

func TestCreateCronInvalidExpressionRollsBack(t *testing.T) {
	engine, _, store := newTestEngine(t)

	_, err := engine.CreateCron("U1", "C1", "", channel.TypeWhatsApp, "standup", "bogus")
	assert.Error(t, err)

	records, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestCreateCronIDFormat(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	id, err := engine.CreateCron("U1", "C1", "", channel.TypeWhatsApp, "standup", "0 0 9 * * MON")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "reminder-cron-"))

	engine.Cancel(id)
}

func TestCancelRemovesFromStore(t *testing.T) {
	engine, adapter, store := newTestEngine(t)

	id, err := engine.Create("U1", "C1", "", channel.TypeWhatsApp, "later", time.Now().Add(time.Hour))
	require.NoError(t, err)

	engine.Cancel(id)

	records, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Empty(t, adapter.Sent())
}

func TestStartRearmsPendingAndDropsPastDue(t *testing.T) {
	sched := scheduler.New(2)
	t.Cleanup(sched.Stop)

	dbPath := filepath.Join(t.TempDir(), "reminders.db")
	store, err := NewStore(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.Put(Record{
		ID: "reminder-aaaa1111", UserID: "U1", ChannelID: "C1",
		Source: channel.TypeWhatsApp, Content: "already late",
		RemindAt: time.Now().Add(-time.Hour), CreatedAt: time.Now().Add(-2 * time.Hour),
	}))
	require.NoError(t, store.Put(Record{
		ID: "reminder-bbbb2222", UserID: "U1", ChannelID: "C1",
		Source: channel.TypeWhatsApp, Content: "still pending",
		RemindAt: time.Now().Add(time.Hour), CreatedAt: time.Now(),
	}))

	adapters := channel.NewAdapterRegistry()
	adapter := &fakeAdapter{typ: channel.TypeWhatsApp}
	adapters.Register(adapter)

	engine := NewEngine(sched, adapters, store)
	require.NoError(t, engine.Start())

	records, err := store.List()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "reminder-bbbb2222", records[0].ID)
	assert.Empty(t, adapter.Sent())
}

func TestStartRearmedReminderDeliversImmediately(t *testing.T) {
	// a persisted reminder coming due right after Start must find its
	// delivery channel, so adapters register before the engine starts
	sched := scheduler.New(2)
	t.Cleanup(sched.Stop)

	store, err := NewStore(filepath.Join(t.TempDir(), "reminders.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.Put(Record{
		ID: "reminder-cccc3333", UserID: "U1", ChannelID: "C1",
		Source: channel.TypeWhatsApp, Content: "due any second",
		RemindAt: time.Now().Add(30 * time.Millisecond), CreatedAt: time.Now(),
	}))

	adapters := channel.NewAdapterRegistry()
	adapter := &fakeAdapter{typ: channel.TypeWhatsApp}
	adapters.Register(adapter)

	engine := NewEngine(sched, adapters, store)
	require.NoError(t, engine.Start())

	require.Eventually(t, func() bool {
		return len(adapter.Sent()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "🔔 **Reminder:** due any second", adapter.Sent()[0].Content)
}

func TestStoreRoundTrip(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "reminders.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	at := time.Date(2026, 2, 19, 21, 35, 0, 0, time.FixedZone("CST", -6*3600))
	rec := Record{
		ID: "reminder-cafe0123", UserID: "U1", ChannelID: "C1", ThreadID: "T1",
		Source: channel.TypeSlack, Content: "check PRs", RemindAt: at, CreatedAt: time.Now(),
	}
	require.NoError(t, store.Put(rec))

	records, err := store.List()
	require.NoError(t, err)
	require.Len(t, records, 1)

	got := records[0]
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, rec.ThreadID, got.ThreadID)
	assert.Equal(t, rec.Source, got.Source)
	assert.True(t, got.RemindAt.Equal(at))
	assert.False(t, got.Recurring())
}
