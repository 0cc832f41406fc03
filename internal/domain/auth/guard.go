// Package auth contains the pure authorization predicates evaluated against a
// principal before any handler touches the datastore. It is free of transport
// and storage concerns; everything here is a function of the principal and the
// resource context.
package auth

import (
	"github.com/agrimanage/farmreg/internal/domain/model"
	apperrors "github.com/agrimanage/farmreg/internal/errors"
)

// RequireRoles passes when the principal carries at least one of the allowed
// roles. An empty allowed set denies everything.
func RequireRoles(p model.Principal, allowed ...model.Role) error {
	for _, want := range allowed {
		if p.HasRole(want) {
			return nil
		}
	}
	return apperrors.Forbidden("insufficient role")
}

// RequireOwnFarmer restricts farmer principals to their own record. Account
// principals (admin/operator) pass unconditionally; their reach is narrowed
// separately by district scope.
func RequireOwnFarmer(p model.Principal, farmerID string) error {
	if p.Kind != model.KindFarmer {
		return nil
	}
	if p.FarmerID == farmerID {
		return nil
	}
	return apperrors.Forbidden("farmers may only access their own record")
}

// Scope describes the record visibility granted to a principal.
type Scope struct {
	// Districts is the allowlist of district names the principal may see.
	// nil means unrestricted; an empty non-nil slice means no districts at
	// all. The empty case is deliberate: an operator with no assignment sees
	// nothing rather than silently widening to every record.
	Districts []string
	// OwnFarmerID restricts visibility to a single farmer record (farmer
	// self-service). Empty when not applicable.
	OwnFarmerID string
}

// Unrestricted reports whether the scope places no limit on visibility.
func (s Scope) Unrestricted() bool {
	return s.Districts == nil && s.OwnFarmerID == ""
}

// AllowsFarmer reports whether the scope admits the given farmer record.
func (s Scope) AllowsFarmer(f *model.Farmer) bool {
	if s.OwnFarmerID != "" {
		return s.OwnFarmerID == f.FarmerID
	}
	if s.Districts == nil {
		return true
	}
	for _, d := range s.Districts {
		if d == f.District {
			return true
		}
	}
	return false
}

// DistrictScope computes the visibility scope for a principal. Operators
// without the ADMIN role are confined to their assigned districts; farmers to
// their own record; admins are unrestricted.
func DistrictScope(p model.Principal, assignedDistricts []string) Scope {
	if p.IsAdmin() {
		return Scope{}
	}
	if p.Kind == model.KindFarmer {
		return Scope{OwnFarmerID: p.FarmerID}
	}
	if p.HasRole(model.RoleOperator) {
		if assignedDistricts == nil {
			assignedDistricts = []string{}
		}
		return Scope{Districts: assignedDistricts}
	}
	// No recognised role: empty district allowlist, sees nothing.
	return Scope{Districts: []string{}}
}
