package render

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/kalambet/chartdeck/internal/chart"
	"github.com/kalambet/chartdeck/internal/store"
)

// ErrNodeNotFound is returned when no chart view is registered under a node id.
var ErrNodeNotFound = errors.New("chart node not found")

// NodeID is the stable identifier of the rendered view of chart id.
func NodeID(chartID string) string { return "chart-" + chartID }

// Handle is a registered chart view that can be rasterized on demand.
type Handle struct {
	def  chart.Definition
	opts Options
}

// Definition returns the chart bound to this view.
func (h *Handle) Definition() chart.Definition { return h.def }

// Rasterize renders the bound chart.
func (h *Handle) Rasterize(ctx context.Context) (Image, error) {
	return Render(ctx, h.def, h.opts)
}

// Registry maps node ids to chart views.
type Registry struct {
	opts Options

	mu      sync.RWMutex
	seq     uint64
	handles map[string]*Handle
	order   []string
}

// NewRegistry returns an empty registry rendering at opts.
func NewRegistry(opts Options) *Registry {
	return &Registry{opts: opts.normalized(), handles: make(map[string]*Handle)}
}

// Sync replaces the registered views with one per definition of snap. A
// snapshot older than the last one applied is ignored.
func (r *Registry) Sync(snap store.Snapshot) {
	defs := snap.Report.Charts
	handles := make(map[string]*Handle, len(defs))
	order := make([]string, 0, len(defs))
	for _, d := range defs {
		id := NodeID(d.ID)
		if _, dup := handles[id]; !dup {
			order = append(order, id)
		}
		handles[id] = &Handle{def: d, opts: r.opts}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if snap.Seq < r.seq {
		return
	}
	r.seq = snap.Seq
	r.handles = handles
	r.order = order
}

// Attach keeps the registry in step with the chart list of s. The returned
// function stops following the store.
func (r *Registry) Attach(s *store.Store) (cancel func()) {
	cancel = s.Subscribe(r.Sync)
	r.Sync(s.Snapshot())
	return cancel
}

// Lookup returns the view registered under nodeID.
func (r *Registry) Lookup(nodeID string) (*Handle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handles[nodeID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, nodeID)
	}
	return h, nil
}

// Nodes lists registered node ids in chart order.
func (r *Registry) Nodes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}
