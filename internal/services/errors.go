package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrCatalog           = errors.New("catalog error")
	ErrInsufficientSpace = errors.New("insufficient space")
	ErrNoMatchingTrack   = errors.New("no matching track")
	ErrToolInvocation    = errors.New("tool invocation error")
	ErrEmptyOutput       = errors.New("empty output")
	ErrStateStoreIO      = errors.New("state store io error")
	ErrSelectionCanceled = errors.New("selection canceled")
	ErrEmptyInput        = errors.New("empty input")
	ErrConfiguration     = errors.New("configuration error")
)

// Wrap builds an error message that includes step context while tagging it with
// the provided marker for later classification. The marker should be one of
// the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrToolInvocation
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind returns the taxonomy label for err, or "error" when no marker matches.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrCatalog):
		return "CatalogError"
	case errors.Is(err, ErrInsufficientSpace):
		return "InsufficientSpace"
	case errors.Is(err, ErrNoMatchingTrack):
		return "NoMatchingTrack"
	case errors.Is(err, ErrToolInvocation):
		return "ToolInvocationError"
	case errors.Is(err, ErrEmptyOutput):
		return "EmptyOutput"
	case errors.Is(err, ErrStateStoreIO):
		return "StateStoreIOError"
	case errors.Is(err, ErrSelectionCanceled):
		return "SelectionCanceled"
	case errors.Is(err, ErrEmptyInput):
		return "EmptyInput"
	case errors.Is(err, ErrConfiguration):
		return "ConfigurationError"
	default:
		return "error"
	}
}

// IsBatchFatal reports whether err ends the whole run rather than one file.
func IsBatchFatal(err error) bool {
	return errors.Is(err, ErrSelectionCanceled) ||
		errors.Is(err, ErrEmptyInput) ||
		errors.Is(err, ErrConfiguration)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
