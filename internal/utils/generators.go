package utils

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// ControlCode is the code printed on a receipt: SC-<sale id>-<last six
// digits of the unix millisecond timestamp>.
func ControlCode(saleID int64, at time.Time) string {
	ms := strconv.FormatInt(at.UnixMilli(), 10)
	if len(ms) > 6 {
		ms = ms[len(ms)-6:]
	}
	return fmt.Sprintf("SC-%d-%s", saleID, ms)
}

// GenerateUUID creates a random UUID v4.
func GenerateUUID() string {
	return uuid.NewString()
}

// ValidIdempotencyKey accepts UUIDs and short opaque tokens.
func ValidIdempotencyKey(key string) bool {
	if _, err := uuid.Parse(key); err == nil {
		return true
	}
	return len(key) >= 8 && len(key) <= 64
}
