// Package auth owns the console's access control: the role hierarchy, the
// session lifecycle and the identity provider the sessions are backed by.
package auth

import "github.com/noah-isme/occ-console-api/internal/models"

// HasPermission reports whether profile meets at least one of the required
// minimum roles. A missing profile never has permission.
func HasPermission(profile *models.UserProfile, required ...models.Role) bool {
	if profile == nil {
		return false
	}

	level := profile.Role.Level()
	if level == 0 {
		return false
	}

	for _, role := range required {
		if !role.Valid() {
			continue
		}
		if level >= role.Level() {
			return true
		}
	}
	return false
}
