package enums

import "fmt"

// EntitlementSource records the origin of an entitlement.
type EntitlementSource string

const (
	EntitlementSourceAllocation EntitlementSource = "ALLOCATION"
	EntitlementSourcePreorder   EntitlementSource = "PREORDER"
	EntitlementSourceOrder      EntitlementSource = "ORDER"
)

var validEntitlementSources = []EntitlementSource{
	EntitlementSourceAllocation,
	EntitlementSourcePreorder,
	EntitlementSourceOrder,
}

// String implements fmt.Stringer.
func (e EntitlementSource) String() string {
	return string(e)
}

// IsValid reports whether the value is a known EntitlementSource.
func (e EntitlementSource) IsValid() bool {
	for _, candidate := range validEntitlementSources {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseEntitlementSource converts raw input into an EntitlementSource.
func ParseEntitlementSource(value string) (EntitlementSource, error) {
	for _, candidate := range validEntitlementSources {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid entitlement source %q", value)
}
