// Package model defines the core data types shared across the farmreg
// identity, credential, and card generation subsystems.
package model

import "strings"

// Role represents an application role carried by a principal and embedded in
// access tokens.
type Role string

const (
	// RoleAdmin grants unrestricted access to all records.
	RoleAdmin Role = "ADMIN"
	// RoleOperator grants access to farmer records inside assigned districts.
	RoleOperator Role = "OPERATOR"
	// RoleFarmer grants self-service access to the principal's own record.
	RoleFarmer Role = "FARMER"
)

// Valid returns true if the Role is one of the known application roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleOperator || r == RoleFarmer
}

// NormalizeRoles upper-cases and de-duplicates a role list, dropping unknown
// values. Legacy records stored lower-case role names.
func NormalizeRoles(raw []string) []Role {
	seen := make(map[Role]bool, len(raw))
	out := make([]Role, 0, len(raw))
	for _, s := range raw {
		r := Role(strings.ToUpper(strings.TrimSpace(s)))
		if r.Valid() && !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	return out
}

// RoleStrings converts a role list to plain strings for token claims.
func RoleStrings(roles []Role) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}

// HasRole reports whether roles contains r.
func HasRole(roles []Role, r Role) bool {
	for _, have := range roles {
		if have == r {
			return true
		}
	}
	return false
}
