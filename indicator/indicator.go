// Package indicator provides pure, stateless technical indicator computations
// over ordered price series. All functions validate their inputs up front and
// fail with ErrInsufficientData instead of returning partially valid output,
// so callers can branch on readiness with ordinary error checks.
package indicator

import "errors"

// ErrInsufficientData is returned when a series is too short for the
// requested computation.
var ErrInsufficientData = errors.New("insufficient data for indicator")
