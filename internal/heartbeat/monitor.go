// Package heartbeat runs the periodic housekeeping tick and keeps its state
// on disk. New periodic checks hang off this monitor instead of growing
// their own timers.
package heartbeat

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/openclaw/openclaw/internal/scheduler"
)

// DefaultIntervalMinutes is the tick rate when config does not override it.
const DefaultIntervalMinutes = 15

// Check is one named sub-check result inside the heartbeat state.
type Check struct {
	Name    string    `json:"name"`
	LastRun time.Time `json:"lastRun"`
	Status  string    `json:"status"`
}

// State is the durable heartbeat record, rewritten in full on every tick.
type State struct {
	LastCheck       time.Time `json:"lastCheck"`
	IntervalMinutes int       `json:"intervalMinutes"`
	Checks          []Check   `json:"checks"`
}

// Event is published to subscribers after each successful tick.
type Event struct {
	Timestamp time.Time
	State     State
}

// Monitor owns the heartbeat task and its state file.
type Monitor struct {
	sched     *scheduler.Scheduler
	statePath string
	interval  int

	mu   sync.Mutex
	subs []chan Event
}

func NewMonitor(sched *scheduler.Scheduler, statePath string, intervalMinutes int) *Monitor {
	if intervalMinutes <= 0 {
		intervalMinutes = DefaultIntervalMinutes
	}
	return &Monitor{
		sched:     sched,
		statePath: statePath,
		interval:  intervalMinutes,
	}
}

// Start registers the recurring tick with the scheduler.
func (m *Monitor) Start() error {
	if err := os.MkdirAll(filepath.Dir(m.statePath), 0o755); err != nil {
		return fmt.Errorf("create heartbeat state directory: %w", err)
	}
	expr := fmt.Sprintf("@every %dm", m.interval)
	return m.sched.ScheduleRecurring("heartbeat", m.Tick, expr)
}

// Subscribe returns a channel receiving an Event after each tick. Slow
// subscribers miss events rather than blocking the monitor.
func (m *Monitor) Subscribe() <-chan Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan Event, 4)
	m.subs = append(m.subs, ch)
	return ch
}

// Tick performs one heartbeat: load state, refresh the monitor's own checks
// while preserving anyone else's entries, persist atomically, and notify
// subscribers.
func (m *Monitor) Tick() {
	slog.Debug("updating heartbeat state")

	state := m.loadState()
	now := time.Now()

	state.LastCheck = now
	state.IntervalMinutes = m.interval
	state.Checks = mergeChecks(state.Checks, []Check{
		{Name: "pending_reminders", LastRun: now, Status: "OK"},
		{Name: "memory_compaction", LastRun: now, Status: "IDLE"},
		{Name: "rag_reindex", LastRun: now, Status: "OK"},
	})

	if err := m.saveState(state); err != nil {
		slog.Error("failed to save heartbeat state", "error", err)
		return
	}

	m.publish(Event{Timestamp: now, State: state})
	slog.Info("heartbeat updated", "at", now)
}

// mergeChecks replaces entries owned by this tick by name and keeps all
// other entries untouched, preserving their original order.
func mergeChecks(existing, updates []Check) []Check {
	updated := make(map[string]Check, len(updates))
	for _, c := range updates {
		updated[c.Name] = c
	}

	var merged []Check
	seen := make(map[string]bool)
	for _, c := range existing {
		if u, ok := updated[c.Name]; ok {
			merged = append(merged, u)
		} else {
			merged = append(merged, c)
		}
		seen[c.Name] = true
	}
	for _, c := range updates {
		if !seen[c.Name] {
			merged = append(merged, c)
		}
	}
	return merged
}

// loadState reads the persisted state. A missing or corrupt file yields a
// fresh state; corruption never takes the monitor down.
func (m *Monitor) loadState() State {
	data, err := os.ReadFile(m.statePath)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("could not read heartbeat state, starting fresh", "error", err)
		}
		return State{}
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		slog.Warn("heartbeat state corrupt, starting fresh", "error", err)
		return State{}
	}
	return state
}

func (m *Monitor) saveState(state State) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal heartbeat state: %w", err)
	}
	tmp := m.statePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write heartbeat state: %w", err)
	}
	return os.Rename(tmp, m.statePath)
}

func (m *Monitor) publish(ev Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range m.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
