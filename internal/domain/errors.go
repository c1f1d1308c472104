package domain

import (
	"errors"
	"fmt"
	"strings"
)

// The pipeline reports failures as a closed set of typed errors so the
// orchestrator can handle every path exhaustively instead of matching on
// strings. Only PartialCoverageError is non-fatal: it is recorded in the
// package metadata as a warning and the run continues.

// InvalidRegionError reports a degenerate region of interest or a
// resolution that would produce an oversized grid.
type InvalidRegionError struct {
	Reason string
}

func (e *InvalidRegionError) Error() string {
	return "invalid region: " + e.Reason
}

// SourceUnavailableError reports an upstream data source that could not be
// reached after the adapter's retry budget was exhausted.
type SourceUnavailableError struct {
	Source   string
	Attempts int
	Err      error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("source %s unavailable after %d attempts: %v", e.Source, e.Attempts, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error { return e.Err }

// PartialCoverageError reports an elevation grid with less valid data than
// the configured minimum fraction. The grid is still usable.
type PartialCoverageError struct {
	ValidFraction float64
	MinFraction   float64
}

func (e *PartialCoverageError) Error() string {
	return fmt.Sprintf("partial elevation coverage: %.1f%% valid, %.1f%% required",
		e.ValidFraction*100, e.MinFraction*100)
}

// UnknownLandCoverCodeError reports a source classification code with no
// entry in the legend. The downstream solver depends on a closed class set,
// so unmapped codes are never silently dropped.
type UnknownLandCoverCodeError struct {
	Code int32
}

func (e *UnknownLandCoverCodeError) Error() string {
	return fmt.Sprintf("unknown land cover code %d", e.Code)
}

// NoStationsAvailableError reports that no catalog candidate met the
// completeness threshold. Fatal: the solver needs at least one forcing
// station.
type NoStationsAvailableError struct {
	Candidates      int
	MinCompleteness float64
}

func (e *NoStationsAvailableError) Error() string {
	return fmt.Sprintf("no stations available: %d candidates, none with completeness >= %.2f",
		e.Candidates, e.MinCompleteness)
}

// PackageValidationError reports cross-consistency violations detected
// before the package is written.
type PackageValidationError struct {
	Violations []string
}

func (e *PackageValidationError) Error() string {
	return "package validation failed: " + strings.Join(e.Violations, "; ")
}

// IsWarning reports whether err is non-fatal and should be recorded rather
// than aborting the run.
func IsWarning(err error) bool {
	var pc *PartialCoverageError
	return errors.As(err, &pc)
}

// IsFatal reports whether err must abort the pipeline.
func IsFatal(err error) bool {
	return err != nil && !IsWarning(err)
}
