// Package dataset holds the row model shared by every stage of the report
// pipeline: typed cell values, ordered row records and the named slots
// uploaded files are stored under.
package dataset

import (
	"errors"
	"fmt"
)

// ErrUnknownSlot is returned for a slot name outside the recognised set.
var ErrUnknownSlot = errors.New("unknown dataset slot")

// Slot is a fixed logical name under which one uploaded dataset is stored.
type Slot string

const (
	CombinedSources   Slot = "combinedSources"
	OfficialFacebook  Slot = "officialFacebook"
	OfficialInstagram Slot = "officialInstagram"
	Keywords          Slot = "keywords"
)

// Slots lists every recognised slot in display order.
var Slots = []Slot{CombinedSources, OfficialFacebook, OfficialInstagram, Keywords}

var labels = map[Slot]string{
	CombinedSources:   "Combined Sources",
	OfficialFacebook:  "Official Facebook",
	OfficialInstagram: "Official Instagram",
	Keywords:          "Keywords",
}

func (s Slot) Valid() bool {
	_, ok := labels[s]
	return ok
}

// Label is the human-readable name of the slot.
func (s Slot) Label() string {
	if l, ok := labels[s]; ok {
		return l
	}
	return string(s)
}

// ParseSlot validates a slot name.
func ParseSlot(name string) (Slot, error) {
	s := Slot(name)
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownSlot, name)
	}
	return s, nil
}
