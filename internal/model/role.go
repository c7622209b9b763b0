package model

// Role is the closed set of user roles. Authorization switches over Role
// must handle every constant here.
type Role string

const (
	RoleOwner        Role = "owner"
	RoleClient       Role = "client"
	RolePhotographer Role = "photographer"
)

// IsValid reports whether r is one of the known roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleOwner, RoleClient, RolePhotographer:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}
