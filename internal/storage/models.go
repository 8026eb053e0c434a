package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Export statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ExportRecord is one entry of the export audit trail.
type ExportRecord struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"createdAt"`
	SessionID  string    `json:"sessionId"`
	Kind       string    `json:"kind"` // "pdf" or "pptx"
	FileName   string    `json:"fileName"`
	Title      string    `json:"title"`
	ChartCount int       `json:"chartCount"`
	SizeBytes  int       `json:"sizeBytes"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
}
