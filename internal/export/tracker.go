package export

import (
	"sync"
	"time"
)

// State of the export control.
type State string

const (
	StateIdle      State = "idle"
	StateExporting State = "exporting"
	StateSuccess   State = "success"
	StateError     State = "error"
)

// Status is the observable export state of a session.
type Status struct {
	State     State     `json:"state"`
	Format    Format    `json:"format,omitempty"`
	FileName  string    `json:"fileName,omitempty"`
	Message   string    `json:"message,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Tracker serialises exports and records their outcome. At most one export
// runs at a time.
type Tracker struct {
	now func() time.Time

	mu     sync.Mutex
	status Status
}

// NewTracker returns an idle tracker.
func NewTracker() *Tracker {
	t := &Tracker{now: time.Now}
	t.status = Status{State: StateIdle, UpdatedAt: t.now()}
	return t
}

// Status returns the current state.
func (t *Tracker) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// begin enters the exporting state. The returned finish function must be
// called exactly once to leave it.
func (t *Tracker) begin(format Format) (finish func(fileName string, err error), err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status.State == StateExporting {
		return nil, ErrExportInProgress
	}
	t.status = Status{State: StateExporting, Format: format, UpdatedAt: t.now()}

	var once sync.Once
	return func(fileName string, err error) {
		once.Do(func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			st := Status{State: StateSuccess, Format: format, FileName: fileName, UpdatedAt: t.now()}
			if err != nil {
				st.State = StateError
				st.FileName = ""
				st.Message = failureMessage(format)
			}
			t.status = st
		})
	}, nil
}
