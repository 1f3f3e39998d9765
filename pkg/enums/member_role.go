package enums

import "fmt"

// MemberRole distinguishes members from staff operating pickup stations.
type MemberRole string

const (
	MemberRoleMember MemberRole = "member"
	MemberRoleStaff  MemberRole = "staff"
	MemberRoleAdmin  MemberRole = "admin"
)

var validMemberRoles = []MemberRole{
	MemberRoleMember,
	MemberRoleStaff,
	MemberRoleAdmin,
}

// String implements fmt.Stringer.
func (m MemberRole) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MemberRole.
func (m MemberRole) IsValid() bool {
	for _, candidate := range validMemberRoles {
		if candidate == m {
			return true
		}
	}
	return false
}

// IsStaff reports whether the role may operate staff-only surfaces.
func (m MemberRole) IsStaff() bool {
	return m == MemberRoleStaff || m == MemberRoleAdmin
}

// ParseMemberRole converts raw input into a MemberRole.
func ParseMemberRole(value string) (MemberRole, error) {
	for _, candidate := range validMemberRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid member role %q", value)
}
