package enums

import "fmt"

// AllocationTargetType distinguishes club-wide grants from explicit member lists.
type AllocationTargetType string

const (
	AllocationTargetClub    AllocationTargetType = "club"
	AllocationTargetMembers AllocationTargetType = "members"
)

var validAllocationTargetTypes = []AllocationTargetType{
	AllocationTargetClub,
	AllocationTargetMembers,
}

// String implements fmt.Stringer.
func (a AllocationTargetType) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AllocationTargetType.
func (a AllocationTargetType) IsValid() bool {
	for _, candidate := range validAllocationTargetTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAllocationTargetType converts raw input into an AllocationTargetType.
func ParseAllocationTargetType(value string) (AllocationTargetType, error) {
	for _, candidate := range validAllocationTargetTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid allocation target type %q", value)
}
