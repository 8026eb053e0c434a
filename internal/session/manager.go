// Package session hands out isolated report-building state per client.
package session

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/kalambet/chartdeck/internal/chart"
	"github.com/kalambet/chartdeck/internal/export"
	"github.com/kalambet/chartdeck/internal/render"
	"github.com/kalambet/chartdeck/internal/store"
	"github.com/kalambet/chartdeck/internal/upload"
)

// DefaultID is used when a client does not name its session.
const DefaultID = "default"

// ErrInvalidID is returned for session ids outside [A-Za-z0-9_-]{1,64}.
var ErrInvalidID = errors.New("invalid session id")

var validID = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Session bundles the state and services of one client.
type Session struct {
	ID       string
	Store    *store.Store
	Registry *render.Registry
	Builder  *chart.Builder
	Uploader *upload.Uploader
	Exporter *export.Exporter

	detach   func()
	lastSeen time.Time
}

// Info summarises a live session.
type Info struct {
	ID       string    `json:"id"`
	LastSeen time.Time `json:"lastSeen"`
	Datasets int       `json:"datasets"`
	Charts   int       `json:"charts"`
}

// Options configures new sessions.
type Options struct {
	// TTL is the idle time after which a session is dropped. Zero keeps
	// sessions forever.
	TTL    time.Duration
	Render render.Options
}

// Manager creates sessions lazily and expires idle ones.
type Manager struct {
	opts   Options
	clock  Clock
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager returns a Manager using the wall clock.
func NewManager(opts Options) *Manager {
	return NewManagerWithClock(opts, realClock{})
}

// NewManagerWithClock returns a Manager with a custom clock (for testing).
func NewManagerWithClock(opts Options, clock Clock) *Manager {
	return &Manager{
		opts:     opts,
		clock:    clock,
		logger:   slog.Default().With("component", "session"),
		sessions: make(map[string]*Session),
	}
}

// Get returns the session for id, creating it on first use. An empty id
// selects DefaultID.
func (m *Manager) Get(id string) (*Session, error) {
	if id == "" {
		id = DefaultID
	}
	if !validID.MatchString(id) {
		return nil, ErrInvalidID
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		s = m.newSession(id)
		m.sessions[id] = s
		m.logger.Debug("session created", "session", id)
	}
	s.lastSeen = m.clock.Now()
	return s, nil
}

func (m *Manager) newSession(id string) *Session {
	st := store.NewWithClock(m.clock)
	reg := render.NewRegistry(m.opts.Render)
	return &Session{
		ID:       id,
		Store:    st,
		Registry: reg,
		Builder:  chart.NewBuilder(st),
		Uploader: upload.New(st),
		Exporter: export.New(reg),
		detach:   reg.Attach(st),
	}
}

// List describes live sessions ordered by id.
func (m *Manager) List() []Info {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Info, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, Info{
			ID:       s.ID,
			LastSeen: s.lastSeen,
			Datasets: len(s.Store.Uploaded()),
			Charts:   len(s.Store.Charts()),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Sweep drops sessions idle for longer than the TTL, except ones with an
// export running. It returns the number removed.
func (m *Manager) Sweep() int {
	if m.opts.TTL <= 0 {
		return 0
	}
	now := m.clock.Now()

	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, s := range m.sessions {
		if now.Sub(s.lastSeen) <= m.opts.TTL {
			continue
		}
		if s.Exporter.Tracker().Status().State == export.StateExporting {
			continue
		}
		s.detach()
		delete(m.sessions, id)
		removed++
		m.logger.Info("session expired", "session", id, "idle", now.Sub(s.lastSeen).Round(time.Second))
	}
	return removed
}

// Run sweeps every interval until ctx is cancelled.
func (m *Manager) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.Sweep()
		}
	}
}
