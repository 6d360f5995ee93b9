// Package validation provides the checks used when building pools,
// limiters and schedulers from user-supplied configuration.
//
// Every failure is a *errors.ValidationError, so callers can match the whole
// family with errors.Is(err, errors.ErrInvalidConfiguration).
package validation
