package normalize

import "errors"

// Structural import errors. Any of them aborts the import; row-level
// defects never surface as errors.
var (
	// ErrNoRecognizedSheet means none of the seed sources (Teams, KPIs,
	// Employees) produced a single row.
	ErrNoRecognizedSheet = errors.New("no recognized sheet with rows")
	// ErrEmptyDataset means the seed sources hold no usable data.
	ErrEmptyDataset = errors.New("empty dataset")
	// ErrNoTeamsResolved means seed rows exist but no team name survives
	// trimming.
	ErrNoTeamsResolved = errors.New("no teams resolved")
)
