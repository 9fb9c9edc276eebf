// Package session holds the state of one upload batch: the documents, the
// record store addressed by document position, and the current position.
//
// State is a value. Every operation returns a new State and leaves the
// receiver untouched, so callers can hand snapshots to other goroutines.
package session

import (
	"errors"
	"fmt"
	"slices"

	"github.com/joseph-ayodele/offerscan/internal/core/fields"
	"github.com/joseph-ayodele/offerscan/internal/ingest"
)

var (
	ErrNoDocuments = errors.New("no documents loaded")
	ErrOutOfRange  = errors.New("document position out of range")
)

// State is one batch. The zero value is an empty batch.
type State struct {
	docs    []ingest.Document
	records []*fields.Record // nil entry = not processed yet
	current int
}

// New starts a batch with every record absent and the cursor on the first document.
func New(docs []ingest.Document) State {
	return State{
		docs:    slices.Clone(docs),
		records: make([]*fields.Record, len(docs)),
	}
}

func (s State) Len() int { return len(s.docs) }

func (s State) Empty() bool { return len(s.docs) == 0 }

// Current is the cursor; meaningful only when the batch is not empty.
func (s State) Current() int { return s.current }

func (s State) Document(i int) (ingest.Document, error) {
	if err := s.check(i); err != nil {
		return ingest.Document{}, err
	}
	return s.docs[i], nil
}

func (s State) CurrentDocument() (ingest.Document, error) {
	return s.Document(s.current)
}

// Record returns a copy of the record at i, or nil when absent.
func (s State) Record(i int) *fields.Record {
	if i < 0 || i >= len(s.records) || s.records[i] == nil {
		return nil
	}
	r := *s.records[i]
	return &r
}

// Records returns copies of all entries in store order; absent entries are nil.
func (s State) Records() []*fields.Record {
	out := make([]*fields.Record, len(s.records))
	for i := range s.records {
		out[i] = s.Record(i)
	}
	return out
}

// WithRecord replaces the entry at i wholesale.
func (s State) WithRecord(i int, r fields.Record) (State, error) {
	if err := s.check(i); err != nil {
		return s, err
	}
	s.records = slices.Clone(s.records)
	s.records[i] = &r
	return s, nil
}

func (s State) CanPrev() bool { return !s.Empty() && s.current > 0 }

func (s State) CanNext() bool { return !s.Empty() && s.current < len(s.docs)-1 }

// Prev moves the cursor back; ok is false at the first document.
func (s State) Prev() (next State, ok bool) {
	if !s.CanPrev() {
		return s, false
	}
	s.current--
	return s, true
}

// Next moves the cursor forward; ok is false at the last document.
func (s State) Next() (next State, ok bool) {
	if !s.CanNext() {
		return s, false
	}
	s.current++
	return s, true
}

func (s State) check(i int) error {
	if s.Empty() {
		return ErrNoDocuments
	}
	if i < 0 || i >= len(s.docs) {
		return fmt.Errorf("%w: %d not in [0,%d]", ErrOutOfRange, i, len(s.docs)-1)
	}
	return nil
}
