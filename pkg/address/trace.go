package address

import (
	"strings"

	"github.com/google/uuid"
)

// NewTraceID returns a 16-hex-character trace identifier, the leading 16
// hex digits of a random UUIDv4.
func NewTraceID() string {
	hex := strings.ReplaceAll(uuid.New().String(), "-", "")
	return hex[:16]
}
