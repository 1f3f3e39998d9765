package enums

import "fmt"

// EntitlementStatus tracks the pickup lifecycle of an entitlement.
type EntitlementStatus string

const (
	EntitlementStatusNotReady       EntitlementStatus = "NOT_READY"
	EntitlementStatusReadyForPickup EntitlementStatus = "READY_FOR_PICKUP"
	EntitlementStatusPickedUp       EntitlementStatus = "PICKED_UP"
	// EntitlementStatusExpired is declared for future use; no transition
	// currently reaches it.
	EntitlementStatusExpired EntitlementStatus = "EXPIRED"
)

var validEntitlementStatuses = []EntitlementStatus{
	EntitlementStatusNotReady,
	EntitlementStatusReadyForPickup,
	EntitlementStatusPickedUp,
	EntitlementStatusExpired,
}

// String implements fmt.Stringer.
func (e EntitlementStatus) String() string {
	return string(e)
}

// IsValid reports whether the value is a known EntitlementStatus.
func (e EntitlementStatus) IsValid() bool {
	for _, candidate := range validEntitlementStatuses {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseEntitlementStatus converts raw input into an EntitlementStatus.
func ParseEntitlementStatus(value string) (EntitlementStatus, error) {
	for _, candidate := range validEntitlementStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid entitlement status %q", value)
}
