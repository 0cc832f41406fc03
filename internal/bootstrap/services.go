package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/agrimanage/farmreg/config"
	"github.com/agrimanage/farmreg/internal/adapters/cardrender"
	"github.com/agrimanage/farmreg/internal/adapters/cardrunner"
	"github.com/agrimanage/farmreg/internal/adapters/redisx"
	"github.com/agrimanage/farmreg/internal/core"
	"github.com/agrimanage/farmreg/internal/data"
	"github.com/agrimanage/farmreg/internal/domain/model"
	apperrors "github.com/agrimanage/farmreg/internal/errors"
	"github.com/agrimanage/farmreg/internal/httpx"
	"github.com/agrimanage/farmreg/internal/service"
)

// ServiceDeps carries the shared infrastructure handed to NewServices.
type ServiceDeps struct {
	Config      *config.AppConfig
	Pool        *pgxpool.Pool
	RedisClient *redis.Client
	Logger      *slog.Logger
}

// Services holds the wired application graph.
type Services struct {
	Identity *service.IdentityService
	Cards    *service.CardService
	QR       *service.QRService
	Users    core.UserRepository
	Farmers  core.FarmerRepository
	Runner   *cardrunner.Runner
	Handler  http.Handler
}

// NewServices wires repositories, services, the HTTP router, and the card
// runner from configuration.
func NewServices(deps *ServiceDeps) (*Services, error) {
	cfg := deps.Config
	clock := data.RealTimeProvider{}

	users := data.NewUserRepo(deps.Pool, clock)
	farmers := data.NewFarmerRepo(deps.Pool)
	jobs := data.NewJobRepo(deps.Pool, clock)
	blobs := data.NewBlobRepo(deps.Pool, clock)

	tokens, err := service.NewTokenService(service.TokenServiceOptions{
		SigningKey: cfg.Auth.JWTSigningKey,
		Audience:   cfg.Auth.Audience,
		AccessTTL:  cfg.Auth.AccessTTL,
		RefreshTTL: cfg.Auth.RefreshTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("token service: %w", err)
	}

	var throttle core.LoginThrottle
	if deps.RedisClient != nil && cfg.Auth.Throttle.MaxAttempts > 0 {
		throttle = redisx.NewThrottle(deps.RedisClient,
			cfg.Auth.Throttle.MaxAttempts, cfg.Auth.Throttle.Window)
	}

	identity, err := service.NewIdentityService(service.IdentityServiceOptions{
		Users:    users,
		Farmers:  farmers,
		Tokens:   tokens,
		Hasher:   service.NewPasswordHasher(),
		Throttle: throttle,
		Logger:   deps.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("identity service: %w", err)
	}

	qr, err := service.NewQRService(service.QRServiceOptions{
		Secret:  cfg.Auth.QRSecretKey,
		Farmers: farmers,
	})
	if err != nil {
		return nil, fmt.Errorf("qr service: %w", err)
	}

	cards, err := service.NewCardService(service.CardServiceOptions{
		Farmers:    farmers,
		Jobs:       jobs,
		Blobs:      blobs,
		Renderer:   cardrender.New(cardrender.Options{}),
		QR:         qr,
		Logger:     deps.Logger,
		MaxRetries: cfg.Worker.MaxRetries,
	})
	if err != nil {
		return nil, fmt.Errorf("card service: %w", err)
	}

	var runner *cardrunner.Runner
	if cfg.Worker.Enabled {
		runner, err = cardrunner.NewRunner(cardrunner.RunnerOptions{
			Jobs:         jobs,
			Cards:        cards,
			Logger:       deps.Logger,
			Lease:        cfg.Worker.Lease,
			Concurrency:  cfg.Worker.Concurrency,
			PollInterval: cfg.Worker.PollInterval,
			RetryBackoff: cfg.Worker.RetryBackoff,
		})
		if err != nil {
			return nil, fmt.Errorf("card runner: %w", err)
		}
	}

	handler := httpx.NewRouter(httpx.RouterOptions{
		Identity: identity,
		Cards:    cards,
		QR:       qr,
		Farmers:  farmers,
		Logger:   deps.Logger,
	})

	return &Services{
		Identity: identity,
		Cards:    cards,
		QR:       qr,
		Users:    users,
		Farmers:  farmers,
		Runner:   runner,
		Handler:  handler,
	}, nil
}

// SeedAdmin creates the bootstrap admin account on first run. It is a no-op
// when seed credentials are not configured or the account already exists.
func SeedAdmin(ctx context.Context, svcs *Services, cfg config.SeedConfig, logger *slog.Logger) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	_, err := svcs.Identity.Register(ctx, &model.CreateUserRequest{
		Email:    cfg.AdminEmail,
		Password: cfg.AdminPassword,
		Roles:    []string{string(model.RoleAdmin)},
	}, "bootstrap")
	if err != nil {
		if apperrors.IsConflict(err) {
			logger.DebugContext(ctx, "seed admin already exists", "email", cfg.AdminEmail)
			return nil
		}
		return fmt.Errorf("seed admin account: %w", err)
	}

	logger.InfoContext(ctx, "seed admin account created", "email", cfg.AdminEmail)
	return nil
}
