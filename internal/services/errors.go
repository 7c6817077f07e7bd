package services

import (
	"errors"

	apierrors "ecorecovery/internal/errors"
	"ecorecovery/internal/loader"
)

// Dashboard service errors
var (
	ErrUnknownChart      = errors.New("unknown chart")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrServiceNotReady   = errors.New("dataset has not been loaded")
)

// translateLoadError maps loader failures onto the application error
// taxonomy so handlers can tell an unreachable source from a broken file.
func translateLoadError(err error) error {
	if err == nil {
		return nil
	}
	var fe *loader.FetchError
	if errors.As(err, &fe) {
		appErr := apierrors.NewNetworkError("failed to fetch dataset", err)
		if fe.StatusCode != 0 {
			appErr.WithContext("upstream_status", fe.StatusCode)
		}
		return appErr
	}
	var pe *loader.ParseError
	if errors.As(err, &pe) {
		appErr := apierrors.NewParsingError("failed to parse dataset", err)
		if pe.Line > 0 {
			appErr.WithContext("line", pe.Line)
		}
		if len(pe.Missing) > 0 {
			appErr.WithContext("missing_columns", pe.Missing)
		}
		return appErr
	}
	return err
}
