// Package notes stores free-text notes per employee, period and KPI.
package notes

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidKey is returned when any part of a Key is empty.
var ErrInvalidKey = errors.New("invalid note key")

// Key addresses one note.
type Key struct {
	Employee string
	Period   string
	KPI      string
}

func (k Key) validate() error {
	if strings.TrimSpace(k.Employee) == "" || strings.TrimSpace(k.Period) == "" || strings.TrimSpace(k.KPI) == "" {
		return fmt.Errorf("%w: %+v", ErrInvalidKey, k)
	}
	return nil
}

// Store gets and sets notes. A missing note reads as the empty string and
// setting the empty string removes it.
type Store interface {
	Get(ctx context.Context, key Key) (string, error)
	Set(ctx context.Context, key Key, text string) error
	// List returns the notes of one employee and period keyed by KPI id.
	List(ctx context.Context, employee, period string) (map[string]string, error)
	Close() error
}

// Open returns an in-memory store for an empty dsn and a SQLite store
// otherwise.
func Open(dsn string) (Store, error) {
	if dsn == "" {
		return NewMemory(), nil
	}
	return NewSQLite(dsn)
}
