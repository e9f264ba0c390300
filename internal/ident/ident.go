// Package ident generates the opaque identifiers used by the offline core.
package ident

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Queue and temp ids are time-prefixed so insertion order is recoverable
// from the id alone: <unix-millis>-<uuid-v4>.
var idPattern = regexp.MustCompile(`^\d+-[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-4[0-9a-fA-F]{3}-[89abAB][0-9a-fA-F]{3}-[0-9a-fA-F]{12}$`)

// NewRequestID generates an id for a queued request.
func NewRequestID() string {
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), uuid.New().String())
}

// NewTempID generates an id for an optimistic placeholder record.
func NewTempID() string {
	return fmt.Sprintf("temp-%d-%s", time.Now().UnixMilli(), uuid.New().String())
}

// IsValid checks whether a string is a well-formed request id.
func IsValid(s string) bool {
	return idPattern.MatchString(s)
}

// IsTempID reports whether an id belongs to a placeholder record.
func IsTempID(s string) bool {
	return strings.HasPrefix(s, "temp-")
}

// CreatedAt extracts the creation time encoded in a request id.
func CreatedAt(s string) (time.Time, error) {
	trimmed := strings.TrimPrefix(s, "temp-")
	head, _, ok := strings.Cut(trimmed, "-")
	if !ok {
		return time.Time{}, fmt.Errorf("malformed id: %q", s)
	}
	millis, err := strconv.ParseInt(head, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed id timestamp: %q", s)
	}
	return time.UnixMilli(millis), nil
}
