package planner

import "errors"

var (
	// ErrNoPlotSelected is returned by cell edits when no plot is selected.
	ErrNoPlotSelected = errors.New("no plot selected")
	// ErrNoCropSelected is returned when an empty cell is edited without a crop.
	ErrNoCropSelected = errors.New("no crop selected")
	// ErrCancelled is returned when the user dismisses the version name prompt.
	ErrCancelled = errors.New("cancelled")
	// ErrMalformedDocument wraps every version import decoding failure.
	ErrMalformedDocument = errors.New("malformed version document")
	ErrUnknownVersion    = errors.New("unknown version")
	ErrUnknownPlot       = errors.New("unknown plot")
	ErrUnknownCrop       = errors.New("unknown crop")
	// ErrNoPlotAtCell is returned when a garden cell is not covered by a plot.
	ErrNoPlotAtCell   = errors.New("no plot at cell")
	ErrCellOutOfRange = errors.New("cell out of range")
)
