package enums

import "fmt"

// GroupRole identifies a user's standing within a group.
type GroupRole string

const (
	GroupRoleOwner  GroupRole = "owner"
	GroupRoleMember GroupRole = "member"
)

var validGroupRoles = []GroupRole{
	GroupRoleOwner,
	GroupRoleMember,
}

// String implements fmt.Stringer.
func (g GroupRole) String() string {
	return string(g)
}

// IsValid reports whether the value is a known GroupRole.
func (g GroupRole) IsValid() bool {
	for _, candidate := range validGroupRoles {
		if candidate == g {
			return true
		}
	}
	return false
}

// ParseGroupRole converts raw input into a GroupRole.
func ParseGroupRole(value string) (GroupRole, error) {
	for _, candidate := range validGroupRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid group role %q", value)
}
