package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNoDataset = errors.New("no dataset imported")
	ErrNilGraph  = errors.New("nil graph")
)
