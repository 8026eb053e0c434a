// Package store is the single source of truth for one session: uploaded
// datasets per slot, the report being assembled and upload status.
package store

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/kalambet/chartdeck/internal/chart"
	"github.com/kalambet/chartdeck/internal/dataset"
)

// DefaultTitle is the report title before the user edits it.
const DefaultTitle = "Data Visualization Report"

// Status is the per-slot upload state shown next to the upload control.
type Status string

const (
	StatusEmpty   Status = "empty"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// UploadStatus is transient upload-form feedback; it is not part of the report.
type UploadStatus struct {
	FileName string `json:"fileName"`
	Status   Status `json:"status"`
}

// Report is the aggregate consumed by the exporters.
type Report struct {
	Title  string             `json:"title"`
	Date   string             `json:"date"`
	Charts []chart.Definition `json:"charts"`
}

// ReportPatch is a shallow update of the report metadata. Nil fields are left
// unchanged; charts are managed by AddChartDefinitions.
type ReportPatch struct {
	Title *string `json:"title,omitempty"`
	Date  *string `json:"date,omitempty"`
}

// Snapshot is a consistent copy of the whole store.
type Snapshot struct {
	// Seq numbers commits; a later commit has a larger Seq.
	Seq      uint64
	Datasets map[dataset.Slot][]dataset.Record
	Uploads  map[dataset.Slot]UploadStatus
	Uploaded []dataset.Slot
	Report   Report
}

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Store holds session state. Mutations are serialised and applied
// synchronously. Observers run after each commit, outside the state lock, and
// see commits in order: a snapshot older than one already delivered is
// skipped. Observers must not mutate the store.
type Store struct {
	clock  Clock
	logger *slog.Logger

	mu       sync.RWMutex
	seq      uint64
	datasets map[dataset.Slot][]dataset.Record
	uploads  map[dataset.Slot]UploadStatus
	uploaded []dataset.Slot
	report   Report

	subMu  sync.Mutex
	nextID int
	subs   map[int]func(Snapshot)

	pubMu     sync.Mutex
	delivered uint64
}

// New returns a Store in its default state.
func New() *Store {
	return NewWithClock(realClock{})
}

// NewWithClock returns a Store whose default report date comes from clock.
func NewWithClock(clock Clock) *Store {
	s := &Store{
		clock:  clock,
		logger: slog.Default().With("component", "store"),
		subs:   make(map[int]func(Snapshot)),
	}
	s.reset()
	return s
}

func (s *Store) defaultReport() Report {
	return Report{
		Title:  DefaultTitle,
		Date:   s.clock.Now().Format("2006-01-02"),
		Charts: []chart.Definition{},
	}
}

// reset must be called with mu held (or before the store is shared).
func (s *Store) reset() {
	s.datasets = make(map[dataset.Slot][]dataset.Record, len(dataset.Slots))
	s.uploads = make(map[dataset.Slot]UploadStatus, len(dataset.Slots))
	for _, slot := range dataset.Slots {
		s.datasets[slot] = nil
		s.uploads[slot] = UploadStatus{Status: StatusEmpty}
	}
	s.uploaded = nil
	s.report = s.defaultReport()
}

// SetDataset replaces the dataset stored under slot. Unknown slots are
// logged and ignored.
func (s *Store) SetDataset(slot dataset.Slot, rows []dataset.Record) {
	if !slot.Valid() {
		s.logger.Warn("ignoring dataset for unknown slot", "slot", string(slot))
		return
	}
	s.mu.Lock()
	s.datasets[slot] = dataset.CloneRows(rows)
	if s.datasets[slot] == nil {
		s.datasets[slot] = []dataset.Record{}
	}
	if !containsSlot(s.uploaded, slot) {
		s.uploaded = append(s.uploaded, slot)
	}
	s.commitLocked()
}

// SetUploadStatus records upload feedback for slot.
func (s *Store) SetUploadStatus(slot dataset.Slot, fileName string, status Status) {
	if !slot.Valid() {
		s.logger.Warn("ignoring upload status for unknown slot", "slot", string(slot))
		return
	}
	s.mu.Lock()
	s.uploads[slot] = UploadStatus{FileName: fileName, Status: status}
	s.commitLocked()
}

// AppendChartDefinitions adds defs to the end of the report's chart list,
// reading and replacing the list under one lock.
func (s *Store) AppendChartDefinitions(defs ...chart.Definition) {
	s.mu.Lock()
	list := make([]chart.Definition, 0, len(s.report.Charts)+len(defs))
	list = append(list, s.report.Charts...)
	s.report.Charts = append(list, defs...)
	s.commitLocked()
}

// AddChartDefinitions replaces the report's chart list with list.
func (s *Store) AddChartDefinitions(list []chart.Definition) {
	s.mu.Lock()
	s.report.Charts = append([]chart.Definition{}, list...)
	s.commitLocked()
}

// UpdateReportMetadata merges the non-nil fields of p into the report.
func (s *Store) UpdateReportMetadata(p ReportPatch) {
	s.mu.Lock()
	if p.Title != nil {
		s.report.Title = *p.Title
	}
	if p.Date != nil {
		s.report.Date = *p.Date
	}
	s.commitLocked()
}

// ClearAll resets datasets, report metadata, charts and upload status.
func (s *Store) ClearAll() {
	s.mu.Lock()
	s.reset()
	s.commitLocked()
}

// Dataset returns a copy of the rows in slot; ok is false when the slot has
// not been uploaded.
func (s *Store) Dataset(slot dataset.Slot) ([]dataset.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := s.datasets[slot]
	if rows == nil {
		return nil, false
	}
	return dataset.CloneRows(rows), true
}

// Charts returns the current chart list.
func (s *Store) Charts() []chart.Definition {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]chart.Definition{}, s.report.Charts...)
}

// Report returns a copy of the report.
func (s *Store) Report() Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r := s.report
	r.Charts = append([]chart.Definition{}, s.report.Charts...)
	return r
}

// Uploaded lists populated slots in upload order.
func (s *Store) Uploaded() []dataset.Slot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]dataset.Slot(nil), s.uploaded...)
}

// UploadStatus returns the feedback for slot.
func (s *Store) UploadStatus(slot dataset.Slot) UploadStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.uploads[slot]
}

// ReadyForCharts reports whether every slot holds a dataset.
func (s *Store) ReadyForCharts() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, slot := range dataset.Slots {
		if s.datasets[slot] == nil {
			return false
		}
	}
	return true
}

// Snapshot returns a consistent copy of the whole store.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// commitLocked numbers the mutation just applied, releases mu and
// publishes the new state. mu must be held for writing.
func (s *Store) commitLocked() {
	s.seq++
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.publish(snap)
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{
		Seq:      s.seq,
		Datasets: make(map[dataset.Slot][]dataset.Record, len(s.datasets)),
		Uploads:  make(map[dataset.Slot]UploadStatus, len(s.uploads)),
		Uploaded: append([]dataset.Slot(nil), s.uploaded...),
		Report:   s.report,
	}
	for k, v := range s.datasets {
		snap.Datasets[k] = v
	}
	for k, v := range s.uploads {
		snap.Uploads[k] = v
	}
	snap.Report.Charts = append([]chart.Definition{}, s.report.Charts...)
	return snap
}

// Subscribe registers fn to be called with the new state after every
// mutation. The returned function removes the subscription.
func (s *Store) Subscribe(fn func(Snapshot)) (cancel func()) {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()
	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

// publish delivers snap to observers in subscription order unless a newer
// snapshot has already been delivered.
func (s *Store) publish(snap Snapshot) {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	if snap.Seq <= s.delivered {
		return
	}
	s.delivered = snap.Seq

	s.subMu.Lock()
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(Snapshot), len(ids))
	for i, id := range ids {
		fns[i] = s.subs[id]
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

func containsSlot(list []dataset.Slot, slot dataset.Slot) bool {
	for _, s := range list {
		if s == slot {
			return true
		}
	}
	return false
}
