// Package testutil provides test builders and in-memory fakes for the farmer
// registration system.
package testutil

import (
	"time"

	"github.com/google/uuid"

	"github.com/agrimanage/farmreg/internal/domain/model"
)

// FarmerBuilder provides a fluent interface for building Farmer records.
type FarmerBuilder struct {
	f *model.Farmer
}

// NewFarmer creates a FarmerBuilder with sensible defaults.
func NewFarmer() *FarmerBuilder {
	return &FarmerBuilder{
		f: &model.Farmer{
			FarmerID:    "FRM-" + uuid.NewString()[:8],
			NRC:         "123456/12/1",
			FirstName:   "Chileshe",
			LastName:    "Mwamba",
			DateOfBirth: "1990-01-15",
			Gender:      "F",
			Phone:       "+260971234567",
			Village:     "Kasisi",
			District:    "Chongwe",
			Province:    "Lusaka",
			Active:      true,
			CreatedBy:   "operator@example.org",
			CreatedAt:   time.Now().UTC(),
		},
	}
}

// WithID sets the farmer id.
func (b *FarmerBuilder) WithID(id string) *FarmerBuilder {
	b.f.FarmerID = id
	return b
}

// WithNRC sets the NRC.
func (b *FarmerBuilder) WithNRC(nrc string) *FarmerBuilder {
	b.f.NRC = nrc
	return b
}

// WithDateOfBirth sets the stored date of birth string.
func (b *FarmerBuilder) WithDateOfBirth(dob string) *FarmerBuilder {
	b.f.DateOfBirth = dob
	return b
}

// WithDistrict sets the district.
func (b *FarmerBuilder) WithDistrict(district string) *FarmerBuilder {
	b.f.District = district
	return b
}

// WithActive sets the active flag.
func (b *FarmerBuilder) WithActive(active bool) *FarmerBuilder {
	b.f.Active = active
	return b
}

// WithCardVersion sets the optimistic card version.
func (b *FarmerBuilder) WithCardVersion(v int64) *FarmerBuilder {
	b.f.CardVersion = v
	return b
}

// WithLegacyCardPath sets the pre-blob on-disk card path.
func (b *FarmerBuilder) WithLegacyCardPath(path string) *FarmerBuilder {
	b.f.LegacyCardPath = path
	return b
}

// WithPhotoBlobID sets the photo blob pointer.
func (b *FarmerBuilder) WithPhotoBlobID(id string) *FarmerBuilder {
	b.f.PhotoBlobID = id
	return b
}

// Build returns the farmer record.
func (b *FarmerBuilder) Build() *model.Farmer {
	clone := *b.f
	return &clone
}

// UserBuilder provides a fluent interface for building User records.
type UserBuilder struct {
	u *model.User
}

// NewUser creates a UserBuilder with sensible defaults. The password hash
// must be set explicitly by tests that exercise login.
func NewUser() *UserBuilder {
	return &UserBuilder{
		u: &model.User{
			ID:        uuid.NewString(),
			Email:     "operator@example.org",
			Roles:     []model.Role{model.RoleOperator},
			Active:    true,
			CreatedBy: "bootstrap",
			CreatedAt: time.Now().UTC(),
			UpdatedAt: time.Now().UTC(),
		},
	}
}

// WithEmail sets the email.
func (b *UserBuilder) WithEmail(email string) *UserBuilder {
	b.u.Email = email
	return b
}

// WithPasswordHash sets the stored bcrypt hash.
func (b *UserBuilder) WithPasswordHash(hash string) *UserBuilder {
	b.u.PasswordHash = hash
	return b
}

// WithRoles sets the role list.
func (b *UserBuilder) WithRoles(roles ...model.Role) *UserBuilder {
	b.u.Roles = roles
	return b
}

// WithActive sets the active flag.
func (b *UserBuilder) WithActive(active bool) *UserBuilder {
	b.u.Active = active
	return b
}

// WithDistricts sets the assigned district allowlist.
func (b *UserBuilder) WithDistricts(districts ...string) *UserBuilder {
	b.u.AssignedDistricts = districts
	return b
}

// Build returns the user record.
func (b *UserBuilder) Build() *model.User {
	clone := *b.u
	return &clone
}
