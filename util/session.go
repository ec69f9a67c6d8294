package util

import (
	"strings"

	"github.com/google/uuid"
)

// NewSessionId returns a random 32 character hex id.
func NewSessionId() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}
