package rbac

// Role names. Keep these stable; they are part of auth/RBAC contracts.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleUser    = "user"
)

// DefaultHierarchy is the shipped role ordering: admin dominates manager,
// manager dominates user.
func DefaultHierarchy() Hierarchy {
	return Hierarchy{
		RoleAdmin:   {RoleManager},
		RoleManager: {RoleUser},
		RoleUser:    {},
	}
}
