package auth

const (
	RoleUser       = "user"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "superAdmin"
)

// HasRole reports whether roles satisfy required. superAdmin satisfies every
// requirement; otherwise membership is checked literally.
func HasRole(roles []string, required string) bool {
	for _, role := range roles {
		if role == required || role == RoleSuperAdmin {
			return true
		}
	}
	return false
}
