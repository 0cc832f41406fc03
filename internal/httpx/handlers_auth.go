package httpx

import (
	"net/http"

	"github.com/agrimanage/farmreg/internal/domain/model"
	apperrors "github.com/agrimanage/farmreg/internal/errors"
	"github.com/agrimanage/farmreg/internal/service"
)

// AuthHandlers provides authentication and account endpoints.
type AuthHandlers struct {
	Identity *service.IdentityService
}

type loginRequest struct {
	// Identifier is an email for staff accounts or an NRC for farmers.
	Identifier string `json:"identifier"`
	// Secret is the password (accounts) or date of birth (farmers).
	Secret string `json:"secret"`
}

type tokenResponse struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token,omitempty"`
	TokenType    string   `json:"token_type"`
	ExpiresIn    int      `json:"expires_in"`
	Subject      string   `json:"subject"`
	Roles        []string `json:"roles"`
}

func newTokenResponse(res *service.LoginResult) tokenResponse {
	return tokenResponse{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		TokenType:    "bearer",
		ExpiresIn:    res.ExpiresIn,
		Subject:      res.Principal.Subject,
		Roles:        model.RoleStrings(res.Principal.Roles),
	}
}

// Login authenticates an identifier/secret pair and returns a token pair.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	res, err := h.Identity.Login(r.Context(), req.Identifier, req.Secret)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, newTokenResponse(res))
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh exchanges a refresh token for a fresh access token.
func (h *AuthHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	res, err := h.Identity.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, newTokenResponse(res))
}

// Register creates a staff account. The route is mounted behind the admin
// role middleware.
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFrom(r.Context())
	if !ok {
		WriteError(w, apperrors.Unauthorized("missing bearer token"))
		return
	}

	var req model.CreateUserRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	user, err := h.Identity.Register(r.Context(), &req, p.Subject)
	if err != nil {
		WriteError(w, err)
		return
	}
	// Never echo the hash back.
	user.PasswordHash = ""
	WriteJSON(w, http.StatusCreated, user)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ChangePassword rotates the caller's own password. Accounts only.
func (h *AuthHandlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFrom(r.Context())
	if !ok {
		WriteError(w, apperrors.Unauthorized("missing bearer token"))
		return
	}

	var req changePasswordRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	if err := h.Identity.ChangePassword(r.Context(), p, req.CurrentPassword, req.NewPassword); err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"message": "password updated"})
}

type meResponse struct {
	Kind      model.PrincipalKind `json:"kind"`
	Subject   string              `json:"subject"`
	Roles     []string            `json:"roles"`
	FarmerID  string              `json:"farmer_id,omitempty"`
	Districts []string            `json:"assigned_districts,omitempty"`
}

// Me describes the authenticated principal.
func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFrom(r.Context())
	if !ok {
		WriteError(w, apperrors.Unauthorized("missing bearer token"))
		return
	}

	districts, err := h.Identity.AssignedDistricts(r.Context(), p)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, meResponse{
		Kind:      p.Kind,
		Subject:   p.Subject,
		Roles:     model.RoleStrings(p.Roles),
		FarmerID:  p.FarmerID,
		Districts: districts,
	})
}

// Logout acknowledges the client discarding its tokens. Tokens are stateless
// and remain formally valid until expiry.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}
