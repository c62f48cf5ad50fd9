// Package period models the fixed reporting-period enumeration.
//
// Periods are ordered newest first. The predecessor of a period is the next
// entry in the sequence, never the result of calendar arithmetic.
package period

import (
	"errors"
	"fmt"
	"strings"
)

// Default labels, newest first: the current quarter plus five previous ones.
var defaultLabels = []string{"Q3 '25", "Q2 '25", "Q1 '25", "Q4 '24", "Q3 '24", "Q2 '24"}

// Sentinel errors for sequence construction.
var (
	ErrEmptySequence  = errors.New("period sequence is empty")
	ErrDuplicateLabel = errors.New("duplicate period label")
)

// Sequence is an immutable, ordered list of period labels.
type Sequence struct {
	labels []string
	index  map[string]int
}

// Default returns the built-in six-quarter sequence.
func Default() Sequence {
	seq, _ := NewSequence(defaultLabels)
	return seq
}

// DefaultLabels returns a copy of the built-in labels.
func DefaultLabels() []string {
	return append([]string(nil), defaultLabels...)
}

// NewSequence builds a sequence from labels ordered newest first.
func NewSequence(labels []string) (Sequence, error) {
	if len(labels) == 0 {
		return Sequence{}, ErrEmptySequence
	}
	s := Sequence{
		labels: make([]string, 0, len(labels)),
		index:  make(map[string]int, len(labels)),
	}
	for _, l := range labels {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		if _, dup := s.index[l]; dup {
			return Sequence{}, fmt.Errorf("%w: %q", ErrDuplicateLabel, l)
		}
		s.index[l] = len(s.labels)
		s.labels = append(s.labels, l)
	}
	if len(s.labels) == 0 {
		return Sequence{}, ErrEmptySequence
	}
	return s, nil
}

// Labels returns the labels newest first.
func (s Sequence) Labels() []string {
	return append([]string(nil), s.labels...)
}

// Len returns the number of labels.
func (s Sequence) Len() int { return len(s.labels) }

// Current returns the newest label, or "" for an empty sequence.
func (s Sequence) Current() string {
	if len(s.labels) == 0 {
		return ""
	}
	return s.labels[0]
}

// Contains reports whether p is part of the sequence.
func (s Sequence) Contains(p string) bool {
	_, ok := s.index[p]
	return ok
}

// Index returns the position of p (0 = newest) or -1.
func (s Sequence) Index(p string) int {
	if i, ok := s.index[p]; ok {
		return i
	}
	return -1
}

// Previous returns the period preceding p. Labels outside the sequence and
// the oldest label have no predecessor.
func (s Sequence) Previous(p string) (string, bool) {
	i, ok := s.index[p]
	if !ok || i+1 >= len(s.labels) {
		return "", false
	}
	return s.labels[i+1], true
}

// Next returns the period following p, if any.
func (s Sequence) Next(p string) (string, bool) {
	i, ok := s.index[p]
	if !ok || i == 0 {
		return "", false
	}
	return s.labels[i-1], true
}
