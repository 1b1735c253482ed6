package services

import (
	"errors"
	"fmt"
	"strings"
)

// Markers classify failures. Wrap attaches one; errors.Is recovers it.
var (
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrContract      = errors.New("contract violation")
	ErrTransient     = errors.New("transient failure")
)

type markerInfo struct {
	marker error
	kind   string
	exit   int
}

// markerTable is checked in order; the first match wins.
var markerTable = []markerInfo{
	{ErrValidation, "validation", 2},
	{ErrConflict, "conflict", 2},
	{ErrNotFound, "not_found", 3},
	{ErrConfiguration, "configuration", 4},
	{ErrContract, "contract", 70},
	{ErrTransient, "transient", 1},
}

// Wrap tags err with marker and prefixes "component: operation: message".
// A nil marker means ErrTransient; a nil err yields a fresh error.
func Wrap(marker error, component, operation, message string, err error) error {
	if marker == nil {
		marker = ErrTransient
	}
	detail := joinNonEmpty(component, operation, message)
	if detail == "" {
		detail = "service failure"
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind names the marker carried by err, or "internal" when there is none.
func Kind(err error) string {
	if info, ok := lookup(err); ok {
		return info.kind
	}
	return "internal"
}

// ExitCode maps err onto the CLI exit status: 0 on success, 1 for unmarked
// and transient failures.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if info, ok := lookup(err); ok {
		return info.exit
	}
	return 1
}

func lookup(err error) (markerInfo, bool) {
	if err == nil {
		return markerInfo{}, false
	}
	for _, info := range markerTable {
		if errors.Is(err, info.marker) {
			return info, true
		}
	}
	return markerInfo{}, false
}

func joinNonEmpty(parts ...string) string {
	kept := parts[:0:0]
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, ": ")
}
