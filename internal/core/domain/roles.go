package domain

// Role is the closed set of principal roles. There is no hierarchy:
// every protected operation lists every role it permits.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleVendor Role = "vendor"
	RoleUser   Role = "user"
)

// Valid reports whether r is a member of the role set.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleVendor, RoleUser:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}
