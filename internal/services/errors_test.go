package services_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"mkvkeep/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("unsupported codec")
	err := services.Wrap(services.ErrToolInvocation, "mkvmerge", "mux", "exit status 2", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrToolInvocation) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"mkvmerge", "mux", "exit status 2", "unsupported codec"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestKindMapping(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{services.Wrap(services.ErrCatalog, "catalog", "identify", "invalid json", nil), "CatalogError"},
		{services.Wrap(services.ErrInsufficientSpace, "job", "space", "", nil), "InsufficientSpace"},
		{services.Wrap(services.ErrNoMatchingTrack, "job", "match", "audio", nil), "NoMatchingTrack"},
		{fmt.Errorf("outer: %w", services.Wrap(services.ErrToolInvocation, "", "", "", nil)), "ToolInvocationError"},
		{services.Wrap(services.ErrEmptyOutput, "job", "validate", "", nil), "EmptyOutput"},
		{services.Wrap(services.ErrStateStoreIO, "state", "save", "", errors.New("disk full")), "StateStoreIOError"},
		{services.ErrSelectionCanceled, "SelectionCanceled"},
		{errors.New("plain"), "error"},
	}
	for _, tt := range tests {
		if got := services.Kind(tt.err); got != tt.want {
			t.Fatalf("Kind(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestIsBatchFatal(t *testing.T) {
	if !services.IsBatchFatal(services.Wrap(services.ErrEmptyInput, "batch", "list", "no files", nil)) {
		t.Fatal("empty input should end the run")
	}
	if services.IsBatchFatal(services.Wrap(services.ErrToolInvocation, "mkvmerge", "mux", "", nil)) {
		t.Fatal("tool failures are file-level")
	}
}
