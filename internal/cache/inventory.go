package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	ResidentKeyPrefix    = "resident:%d"
	PendingHintKeyPrefix = "pending_request:%d"
)

const (
	ResidentTTL = 5 * time.Minute
	// PendingHintTTL bounds the staleness of the pending-request hint. The
	// hint only disables the submit affordance; the authoritative check runs
	// against the database on every submit.
	PendingHintTTL = 10 * time.Minute
)

func ResidentKey(residentID uint) string {
	return fmt.Sprintf(ResidentKeyPrefix, residentID)
}

func PendingHintKey(residentID uint) string {
	return fmt.Sprintf(PendingHintKeyPrefix, residentID)
}

func InvalidateResident(ctx context.Context, residentID uint) {
	Invalidate(ctx, ResidentKey(residentID))
}

// SetPendingHint records (best-effort) that a resident has a pending update
// request, so views can disable re-submission without a round trip.
func SetPendingHint(ctx context.Context, residentID uint, requestID string) {
	if client != nil {
		client.Set(ctx, PendingHintKey(residentID), requestID, PendingHintTTL)
	}
}

// GetPendingHint returns the cached pending request id for a resident, or ""
// when no hint is present. Callers must treat this as a hint, never as
// authority for conflict detection.
func GetPendingHint(ctx context.Context, residentID uint) string {
	if client == nil {
		return ""
	}
	val, err := client.Get(ctx, PendingHintKey(residentID)).Result()
	if err != nil {
		return ""
	}
	return val
}

// ClearPendingHint removes the pending hint after a request is resolved.
func ClearPendingHint(ctx context.Context, residentID uint) {
	Invalidate(ctx, PendingHintKey(residentID))
}
