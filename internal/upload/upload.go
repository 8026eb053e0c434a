// Package upload validates, decodes and stores a single uploaded file.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/kalambet/chartdeck/internal/dataset"
	"github.com/kalambet/chartdeck/internal/decode"
	"github.com/kalambet/chartdeck/internal/store"
)

var (
	// ErrInsufficientData is returned when a file decodes to fewer than two
	// rows: at least a header row and one data row are required.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrDecode is returned when the file content cannot be parsed.
	ErrDecode = errors.New("failed to process file")
)

// User-facing messages, shown next to the upload control.
const (
	MsgExtension    = "Please upload a valid Excel file (.xlsx, .xls, or .csv)"
	MsgInsufficient = "The Excel file contains insufficient data. Please ensure it has headers and at least one data row."
	MsgDecode       = "Failed to process the Excel file. Please check the file format and try again."
	MsgUnknownSlot  = "Unknown dataset slot."
)

// Error is an upload failure with the message to show the user.
type Error struct {
	Slot    dataset.Slot
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upload to %s: %v: %v", e.Slot, e.Kind, e.Err)
	}
	return fmt.Sprintf("upload to %s: %v", e.Slot, e.Kind)
}

// Is matches the failure class sentinel (ErrInsufficientData, ErrDecode, …).
func (e *Error) Is(target error) bool { return target == e.Kind }

func (e *Error) Unwrap() error { return e.Err }

// Store is the subset of the dataset store the uploader writes to.
type Store interface {
	SetDataset(slot dataset.Slot, rows []dataset.Record)
	SetUploadStatus(slot dataset.Slot, fileName string, status store.Status)
}

// Decoder turns file bytes into a sheet.
type Decoder func(ctx context.Context, fileName string, r io.Reader) (decode.Sheet, error)

// Result describes a stored upload.
type Result struct {
	Slot     dataset.Slot `json:"slot"`
	FileName string       `json:"fileName"`
	Rows     int          `json:"rows"`
	Columns  []string     `json:"columns"`
}

// Uploader runs the upload pipeline against a store.
type Uploader struct {
	store  Store
	decode Decoder
	logger *slog.Logger
}

// New returns an Uploader using the spreadsheet decoder.
func New(s Store) *Uploader {
	return NewWithDecoder(s, decode.Decode)
}

// NewWithDecoder returns an Uploader with a custom decoder (for testing).
func NewWithDecoder(s Store, d Decoder) *Uploader {
	return &Uploader{store: s, decode: d, logger: slog.Default().With("component", "upload")}
}

// Upload validates fileName, decodes r and stores the rows under slot.
// Nothing is written to the store unless every check passes; a decode
// failure leaves the slot's previous dataset in place.
func (u *Uploader) Upload(ctx context.Context, slot dataset.Slot, fileName string, r io.Reader) (Result, error) {
	if !slot.Valid() {
		u.logger.Warn("upload to unknown slot", "slot", string(slot))
		return Result{}, &Error{Slot: slot, Kind: dataset.ErrUnknownSlot, Message: MsgUnknownSlot}
	}
	if err := decode.CheckExtension(fileName); err != nil {
		return Result{}, &Error{Slot: slot, Kind: decode.ErrUnsupportedExtension, Message: MsgExtension, Err: err}
	}

	sheet, err := u.decode(ctx, fileName, r)
	if err != nil {
		u.logger.Error("decoding upload failed", "slot", string(slot), "file", fileName, "error", err)
		return Result{}, &Error{Slot: slot, Kind: ErrDecode, Message: MsgDecode, Err: err}
	}
	if len(sheet.Rows) < 2 {
		u.logger.Warn("upload has no data rows", "slot", string(slot), "file", fileName, "rows", len(sheet.Rows))
		return Result{}, &Error{Slot: slot, Kind: ErrInsufficientData, Message: MsgInsufficient,
			Err: fmt.Errorf("%d row(s) decoded", len(sheet.Rows))}
	}

	rows := sheet.Records()
	u.store.SetDataset(slot, rows)
	u.store.SetUploadStatus(slot, fileName, store.StatusSuccess)
	u.logger.Info("dataset uploaded", "slot", string(slot), "file", fileName, "rows", len(rows))

	return Result{
		Slot:     slot,
		FileName: fileName,
		Rows:     len(rows),
		Columns:  dataset.Columns(rows),
	}, nil
}

// Message returns the user-facing text for an upload error, or a generic
// decode message for anything else.
func Message(err error) string {
	var ue *Error
	if errors.As(err, &ue) {
		return ue.Message
	}
	return MsgDecode
}
