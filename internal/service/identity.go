package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/agrimanage/farmreg/internal/core"
	"github.com/agrimanage/farmreg/internal/domain/model"
	apperrors "github.com/agrimanage/farmreg/internal/errors"
)

// msgInvalidCredentials is returned for every login failure so callers cannot
// distinguish an unknown identity from a wrong secret.
const msgInvalidCredentials = "invalid credentials"

// IdentityServiceOptions groups dependencies for IdentityService.
type IdentityServiceOptions struct {
	Users    core.UserRepository   // Required
	Farmers  core.FarmerRepository // Required
	Tokens   *TokenService         // Required
	Hasher   *PasswordHasher       // Required
	Throttle core.LoginThrottle    // Optional: nil disables login throttling
	Logger   *slog.Logger          // Optional
	Clock    func() time.Time
}

// IdentityService resolves a login identifier plus secondary secret into a
// unified principal and manages the credential lifecycle around it.
//
// Two identity populations share one token model: accounts (email + bcrypt
// password) and farmers (NRC + date-of-birth string). The presence of "@" in
// the identifier selects the path.
type IdentityService struct {
	users    core.UserRepository
	farmers  core.FarmerRepository
	tokens   *TokenService
	hasher   *PasswordHasher
	throttle core.LoginThrottle
	logger   *slog.Logger
	clock    func() time.Time
}

// NewIdentityService constructs an IdentityService.
func NewIdentityService(opts IdentityServiceOptions) (*IdentityService, error) {
	if opts.Users == nil || opts.Farmers == nil {
		return nil, errors.New("user and farmer repositories are required")
	}
	if opts.Tokens == nil {
		return nil, errors.New("token service is required")
	}
	if opts.Hasher == nil {
		return nil, errors.New("password hasher is required")
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &IdentityService{
		users:    opts.Users,
		farmers:  opts.Farmers,
		tokens:   opts.Tokens,
		hasher:   opts.Hasher,
		throttle: opts.Throttle,
		logger:   logger.With("component", "identity_service"),
		clock:    clock,
	}, nil
}

// LoginResult carries the issued credentials and the resolved principal.
type LoginResult struct {
	Principal    model.Principal
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
}

// Login authenticates an identifier/secondary pair and issues a credential
// pair. Identifiers containing "@" take the account path (secondary is a
// password); all others take the farmer path (secondary is the stored
// date-of-birth string, compared verbatim).
func (s *IdentityService) Login(ctx context.Context, identifier, secondary string) (*LoginResult, error) {
	identifier = strings.ToLower(strings.TrimSpace(identifier))
	if identifier == "" || secondary == "" {
		return nil, apperrors.Unauthorized(msgInvalidCredentials)
	}

	if err := s.checkThrottle(ctx, identifier); err != nil {
		return nil, err
	}

	var (
		principal model.Principal
		err       error
	)
	if strings.Contains(identifier, "@") {
		principal, err = s.loginAccount(ctx, identifier, secondary)
	} else {
		principal, err = s.loginFarmer(ctx, identifier, secondary)
	}
	if err != nil {
		s.recordFailure(ctx, identifier, err)
		return nil, err
	}
	s.resetThrottle(ctx, identifier)

	access, err := s.tokens.IssueAccess(principal.Subject, principal.Roles)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "issue access token")
	}
	refresh, err := s.tokens.IssueRefresh(principal.Subject)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "issue refresh token")
	}

	s.logger.InfoContext(ctx, "login succeeded", "kind", principal.Kind, "subject", principal.Subject)

	return &LoginResult{
		Principal:    principal,
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    s.tokens.AccessExpirySeconds(),
	}, nil
}

func (s *IdentityService) loginAccount(ctx context.Context, email, password string) (model.Principal, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return model.Principal{}, apperrors.Unauthorized(msgInvalidCredentials)
		}
		return model.Principal{}, err
	}
	if !user.Active {
		return model.Principal{}, apperrors.Forbidden("account is disabled")
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return model.Principal{}, apperrors.Unauthorized(msgInvalidCredentials)
	}
	if err := s.users.UpdateLastLogin(ctx, email, s.clock()); err != nil {
		// Login still succeeds; the stamp is best effort.
		s.logger.WarnContext(ctx, "stamp last login", "email", email, "error", err)
	}
	return model.AccountPrincipal(email, user.Roles, user.Active), nil
}

func (s *IdentityService) loginFarmer(ctx context.Context, nrc, dob string) (model.Principal, error) {
	farmer, err := s.farmers.FindByNRC(ctx, nrc)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return model.Principal{}, apperrors.Unauthorized(msgInvalidCredentials)
		}
		return model.Principal{}, err
	}
	if !farmer.Active {
		return model.Principal{}, apperrors.Forbidden("account is disabled")
	}
	// Exact string equality against the stored date of birth. A deliberately
	// preserved contract: see the project notes on this credential's
	// weakness before changing it.
	if subtle.ConstantTimeCompare([]byte(dob), []byte(farmer.DateOfBirth)) != 1 {
		return model.Principal{}, apperrors.Unauthorized(msgInvalidCredentials)
	}
	return model.FarmerPrincipal(farmer.FarmerID, farmer.Active), nil
}

// Refresh exchanges a refresh token for a fresh access token. Current roles
// are re-read from the datastore, never taken from the presented token; this
// is the single point where a principal's role snapshot is updated.
func (s *IdentityService) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	claims, err := s.tokens.Decode(refreshToken)
	if err != nil {
		return nil, err
	}
	if claims.Type != TokenTypeRefresh {
		return nil, apperrors.Unauthorized("token is not a refresh token")
	}

	principal, err := s.resolveSubject(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}

	access, err := s.tokens.IssueAccess(principal.Subject, principal.Roles)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "issue access token")
	}
	return &LoginResult{
		Principal:   principal,
		AccessToken: access,
		ExpiresIn:   s.tokens.AccessExpirySeconds(),
	}, nil
}

// CurrentPrincipal decodes an access token and re-derives the principal from
// the datastore. The token's role snapshot authorizes the request; the record
// lookup supplies activity state and, for operators, district assignments.
func (s *IdentityService) CurrentPrincipal(ctx context.Context, accessToken string) (model.Principal, error) {
	claims, err := s.tokens.Decode(accessToken)
	if err != nil {
		return model.Principal{}, err
	}
	if claims.Type != TokenTypeAccess {
		return model.Principal{}, apperrors.Unauthorized("token is not an access token")
	}

	principal, err := s.resolveSubject(ctx, claims.Subject)
	if err != nil {
		return model.Principal{}, err
	}
	// Authorization uses the issuance-time snapshot; role changes take
	// effect at the next refresh, not mid-lifetime.
	if principal.Kind == model.KindAccount {
		principal.Roles = model.NormalizeRoles(claims.Roles)
	}
	return principal, nil
}

// resolveSubject maps a token subject back to a live record: emails resolve
// through the users repository, anything else is treated as a farmer id.
func (s *IdentityService) resolveSubject(ctx context.Context, subject string) (model.Principal, error) {
	if subject == "" {
		return model.Principal{}, apperrors.Unauthorized("invalid token subject")
	}
	if strings.Contains(subject, "@") {
		user, err := s.users.FindByEmail(ctx, subject)
		if err != nil {
			return model.Principal{}, err
		}
		if !user.Active {
			return model.Principal{}, apperrors.Forbidden("account is disabled")
		}
		return model.AccountPrincipal(user.Email, user.Roles, user.Active), nil
	}
	farmer, err := s.farmers.FindByID(ctx, subject)
	if err != nil {
		return model.Principal{}, err
	}
	if !farmer.Active {
		return model.Principal{}, apperrors.Forbidden("account is disabled")
	}
	return model.FarmerPrincipal(farmer.FarmerID, farmer.Active), nil
}

// AssignedDistricts returns the district allowlist stored on an operator's
// account record, for use with auth.DistrictScope.
func (s *IdentityService) AssignedDistricts(ctx context.Context, p model.Principal) ([]string, error) {
	if p.Kind != model.KindAccount {
		return nil, nil
	}
	user, err := s.users.FindByEmail(ctx, p.Subject)
	if err != nil {
		return nil, err
	}
	return user.AssignedDistricts, nil
}

// Register creates a new account. The transport layer enforces that only
// admins reach this; the service validates input and hashes the password.
func (s *IdentityService) Register(ctx context.Context, req *model.CreateUserRequest, createdBy string) (*model.User, error) {
	if req == nil {
		return nil, apperrors.Validation("request is required")
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperrors.ValidationField("email", "a valid email is required")
	}
	roles := model.NormalizeRoles(req.Roles)
	if len(roles) == 0 {
		return nil, apperrors.ValidationField("roles", "at least one valid role is required")
	}
	if err := ValidatePasswordStrength(req.Password); err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "hash password")
	}

	now := s.clock()
	user := &model.User{
		Email:             email,
		PasswordHash:      hash,
		Roles:             roles,
		Active:            true,
		AssignedDistricts: req.AssignedDistricts,
		CreatedBy:         createdBy,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	created, err := s.users.Create(ctx, user)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "account registered", "email", email, "roles", roles, "created_by", createdBy)
	return created, nil
}

// ChangePassword rotates an account's password after verifying the current
// one. Farmer principals have no password to change.
func (s *IdentityService) ChangePassword(ctx context.Context, p model.Principal, current, next string) error {
	if p.Kind != model.KindAccount {
		return apperrors.Forbidden("farmer logins have no password")
	}
	user, err := s.users.FindByEmail(ctx, p.Subject)
	if err != nil {
		return err
	}
	if !s.hasher.Verify(current, user.PasswordHash) {
		return apperrors.Unauthorized("current password is incorrect")
	}
	if current == next {
		return apperrors.ValidationField("password", "new password must be different from current password")
	}
	if err := ValidatePasswordStrength(next); err != nil {
		return err
	}
	hash, err := s.hasher.Hash(next)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "hash password")
	}
	return s.users.UpdatePassword(ctx, user.Email, hash)
}

func (s *IdentityService) checkThrottle(ctx context.Context, identifier string) error {
	if s.throttle == nil {
		return nil
	}
	blocked, err := s.throttle.Blocked(ctx, identifier)
	if err != nil {
		// Redis being down must not lock everyone out.
		s.logger.WarnContext(ctx, "login throttle check failed", "error", err)
		return nil
	}
	if blocked {
		return apperrors.Forbidden("too many failed login attempts, try again later")
	}
	return nil
}

func (s *IdentityService) recordFailure(ctx context.Context, identifier string, cause error) {
	if s.throttle == nil || !apperrors.IsUnauthorized(cause) {
		return
	}
	if err := s.throttle.RecordFailure(ctx, identifier); err != nil {
		s.logger.WarnContext(ctx, "record login failure", "error", err)
	}
}

func (s *IdentityService) resetThrottle(ctx context.Context, identifier string) {
	if s.throttle == nil {
		return
	}
	if err := s.throttle.Reset(ctx, identifier); err != nil {
		s.logger.WarnContext(ctx, "reset login throttle", "error", err)
	}
}
