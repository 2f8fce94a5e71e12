package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasRole(t *testing.T) {
	tests := []struct {
		description string
		roles       []string
		required    string
		expected    bool
	}{
		{"user has user", []string{RoleUser}, RoleUser, true},
		{"user lacks admin", []string{RoleUser}, RoleAdmin, false},
		{"admin is not implicitly user", []string{RoleAdmin}, RoleUser, false},
		{"superAdmin overrides admin", []string{RoleSuperAdmin}, RoleAdmin, true},
		{"superAdmin overrides user", []string{RoleSuperAdmin}, RoleUser, true},
		{"no roles", nil, RoleUser, false},
		{"case sensitive", []string{"Admin"}, RoleAdmin, false},
	}

	for _, test := range tests {
		assert.Equalf(t, test.expected, HasRole(test.roles, test.required), test.description)
	}
}
