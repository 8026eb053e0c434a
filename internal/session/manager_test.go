package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/kalambet/chartdeck/internal/chart"
	"github.com/kalambet/chartdeck/internal/dataset"
)

type mockClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *mockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *mockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newClock() *mockClock {
	return &mockClock{now: time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)}
}

func TestGet_DefaultAndReuse(t *testing.T) {
	m := NewManager(Options{})

	a, err := m.Get("")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if a.ID != DefaultID {
		t.Errorf("ID = %q, want %q", a.ID, DefaultID)
	}
	b, _ := m.Get(DefaultID)
	if a != b {
		t.Error("second Get returned a different session")
	}
}

func TestGet_InvalidID(t *testing.T) {
	m := NewManager(Options{})
	for _, id := range []string{"has space", "../etc", string(make([]byte, 65))} {
		if _, err := m.Get(id); err != ErrInvalidID {
			t.Errorf("Get(%q) error = %v, want ErrInvalidID", id, err)
		}
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	m := NewManager(Options{})
	a, _ := m.Get("a")
	b, _ := m.Get("b")

	rec := dataset.NewRecord()
	rec.Set("Month", dataset.String("Jan"))
	rec.Set("Sales", dataset.Number(1))
	a.Store.SetDataset(dataset.Keywords, []dataset.Record{rec})
	if _, err := a.Builder.Create(chart.Selection{Slot: dataset.Keywords, X: 0, Y: 1, Kind: chart.Bar}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, ok := b.Store.Dataset(dataset.Keywords); ok {
		t.Error("dataset leaked into another session")
	}
	if len(b.Registry.Nodes()) != 0 {
		t.Error("chart view leaked into another session")
	}
	if len(a.Registry.Nodes()) != 1 {
		t.Errorf("session a registry has %d nodes, want 1", len(a.Registry.Nodes()))
	}
}

func TestSweep_ExpiresIdleSessions(t *testing.T) {
	clock := newClock()
	m := NewManagerWithClock(Options{TTL: time.Hour}, clock)

	m.Get("old")
	clock.Advance(50 * time.Minute)
	m.Get("fresh")
	clock.Advance(20 * time.Minute)

	if n := m.Sweep(); n != 1 {
		t.Errorf("Sweep removed %d, want 1", n)
	}
	list := m.List()
	if len(list) != 1 || list[0].ID != "fresh" {
		t.Errorf("List() = %+v, want [fresh]", list)
	}

	again, _ := m.Get("old")
	if len(again.Store.Uploaded()) != 0 {
		t.Error("recreated session carried old state")
	}
}

func TestSweep_NoTTLKeepsEverything(t *testing.T) {
	clock := newClock()
	m := NewManagerWithClock(Options{}, clock)
	m.Get("a")
	clock.Advance(1000 * time.Hour)
	if n := m.Sweep(); n != 0 {
		t.Errorf("Sweep removed %d with TTL disabled", n)
	}
}

func TestStoreUsesManagerClock(t *testing.T) {
	m := NewManagerWithClock(Options{}, newClock())
	s, _ := m.Get("a")
	if got := s.Store.Report().Date; got != "2026-05-01" {
		t.Errorf("default report date = %q, want 2026-05-01", got)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	m := NewManager(Options{TTL: time.Minute})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx, 10*time.Millisecond) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
