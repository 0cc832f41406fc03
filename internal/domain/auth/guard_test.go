package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agrimanage/farmreg/internal/domain/model"
	apperrors "github.com/agrimanage/farmreg/internal/errors"
)

func TestRequireRoles(t *testing.T) {
	admin := model.AccountPrincipal("admin@example.org", []model.Role{model.RoleAdmin}, true)
	operator := model.AccountPrincipal("op@example.org", []model.Role{model.RoleOperator}, true)
	farmer := model.FarmerPrincipal("FRM-001", true)

	tests := []struct {
		name    string
		p       model.Principal
		allowed []model.Role
		wantErr bool
	}{
		{name: "admin allowed", p: admin, allowed: []model.Role{model.RoleAdmin}, wantErr: false},
		{name: "one of several", p: operator, allowed: []model.Role{model.RoleAdmin, model.RoleOperator}, wantErr: false},
		{name: "farmer lacks operator", p: farmer, allowed: []model.Role{model.RoleOperator}, wantErr: true},
		{name: "empty allowed set denies", p: admin, allowed: nil, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := RequireRoles(tt.p, tt.allowed...)
			if tt.wantErr {
				assert.True(t, apperrors.IsForbidden(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestRequireOwnFarmer(t *testing.T) {
	farmer := model.FarmerPrincipal("FRM-001", true)
	operator := model.AccountPrincipal("op@example.org", []model.Role{model.RoleOperator}, true)

	assert.NoError(t, RequireOwnFarmer(farmer, "FRM-001"))
	assert.True(t, apperrors.IsForbidden(RequireOwnFarmer(farmer, "FRM-002")))
	// Account principals pass; district scope narrows them separately.
	assert.NoError(t, RequireOwnFarmer(operator, "FRM-002"))
}

func TestDistrictScope(t *testing.T) {
	chongwe := &model.Farmer{FarmerID: "FRM-001", District: "Chongwe"}
	kafue := &model.Farmer{FarmerID: "FRM-002", District: "Kafue"}

	t.Run("admin is unrestricted", func(t *testing.T) {
		p := model.AccountPrincipal("admin@example.org", []model.Role{model.RoleAdmin}, true)
		s := DistrictScope(p, nil)
		assert.True(t, s.Unrestricted())
		assert.True(t, s.AllowsFarmer(chongwe))
		assert.True(t, s.AllowsFarmer(kafue))
	})

	t.Run("operator confined to assignments", func(t *testing.T) {
		p := model.AccountPrincipal("op@example.org", []model.Role{model.RoleOperator}, true)
		s := DistrictScope(p, []string{"Chongwe"})
		assert.False(t, s.Unrestricted())
		assert.True(t, s.AllowsFarmer(chongwe))
		assert.False(t, s.AllowsFarmer(kafue))
	})

	t.Run("operator with no assignments sees nothing", func(t *testing.T) {
		p := model.AccountPrincipal("op@example.org", []model.Role{model.RoleOperator}, true)
		s := DistrictScope(p, nil)
		assert.False(t, s.Unrestricted(), "missing assignment list must not widen to everything")
		assert.False(t, s.AllowsFarmer(chongwe))
		assert.False(t, s.AllowsFarmer(kafue))
	})

	t.Run("farmer sees own record only", func(t *testing.T) {
		p := model.FarmerPrincipal("FRM-001", true)
		s := DistrictScope(p, nil)
		assert.True(t, s.AllowsFarmer(chongwe))
		assert.False(t, s.AllowsFarmer(kafue))
	})

	t.Run("roleless account sees nothing", func(t *testing.T) {
		p := model.AccountPrincipal("odd@example.org", nil, true)
		s := DistrictScope(p, []string{"Chongwe"})
		assert.False(t, s.AllowsFarmer(chongwe))
	})
}
