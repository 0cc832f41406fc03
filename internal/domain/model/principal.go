package model

// PrincipalKind distinguishes the two identity populations that share one
// token model.
type PrincipalKind string

const (
	// KindAccount is a password-holding account (admin or operator).
	KindAccount PrincipalKind = "account"
	// KindFarmer is a farmer authenticated by NRC and date of birth.
	KindFarmer PrincipalKind = "farmer"
)

// Principal is the authenticated actor derived from a verified identity. It is
// rebuilt from datastore records on every request and never persisted itself.
//
// Invariants, enforced by the constructors:
//   - a farmer principal carries exactly the FARMER role and is bound to the
//     farmer record it resolved from;
//   - an account principal carries the roles stored on its record and has no
//     farmer binding.
type Principal struct {
	Kind    PrincipalKind
	Subject string
	Roles   []Role
	Active  bool
	// FarmerID is the bound farmer record for farmer principals; empty for
	// account principals.
	FarmerID string
}

// AccountPrincipal builds a principal for a password-holding account.
func AccountPrincipal(subject string, roles []Role, active bool) Principal {
	return Principal{
		Kind:    KindAccount,
		Subject: subject,
		Roles:   roles,
		Active:  active,
	}
}

// FarmerPrincipal builds a principal bound to a specific farmer record.
func FarmerPrincipal(farmerID string, active bool) Principal {
	return Principal{
		Kind:     KindFarmer,
		Subject:  farmerID,
		Roles:    []Role{RoleFarmer},
		Active:   active,
		FarmerID: farmerID,
	}
}

// HasRole reports whether the principal carries the given role.
func (p Principal) HasRole(r Role) bool {
	return HasRole(p.Roles, r)
}

// IsAdmin reports whether the principal carries the ADMIN role.
func (p Principal) IsAdmin() bool {
	return p.HasRole(RoleAdmin)
}
