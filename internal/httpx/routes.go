package httpx

import (
	"log/slog"
	"net/http"

	"github.com/agrimanage/farmreg/internal/core"
	"github.com/agrimanage/farmreg/internal/domain/model"
	"github.com/agrimanage/farmreg/internal/service"
)

// RouterOptions carries everything the HTTP surface needs.
type RouterOptions struct {
	Identity *service.IdentityService
	Cards    *service.CardService
	QR       *service.QRService
	Farmers  core.FarmerRepository
	Logger   *slog.Logger
}

// NewRouter builds the API mux with all routes and middleware mounted.
func NewRouter(opts RouterOptions) http.Handler {
	mux := http.NewServeMux()

	authed := RequireAuth(opts.Identity)

	authH := &AuthHandlers{Identity: opts.Identity}
	cardH := &CardHandlers{Cards: opts.Cards, Identity: opts.Identity, Farmers: opts.Farmers}
	qrH := &QRHandlers{QR: opts.QR}
	jobH := &JobHandlers{Cards: opts.Cards}

	mux.HandleFunc("GET /healthz", healthHandler)
	mux.HandleFunc("HEAD /healthz", healthHandler)

	mux.HandleFunc("POST /api/auth/login", authH.Login)
	mux.HandleFunc("POST /api/auth/refresh", authH.Refresh)
	adminOnly := RequireRoles(model.RoleAdmin)
	mux.Handle("POST /api/auth/register", authed(adminOnly(http.HandlerFunc(authH.Register))))
	mux.Handle("POST /api/auth/change-password", authed(http.HandlerFunc(authH.ChangePassword)))
	mux.Handle("GET /api/auth/me", authed(http.HandlerFunc(authH.Me)))
	mux.Handle("POST /api/auth/logout", authed(http.HandlerFunc(authH.Logout)))

	// QR verification is open: the code itself is the credential.
	mux.HandleFunc("POST /api/farmers/verify-qr", qrH.Verify)

	mux.Handle("POST /api/farmers/{farmerID}/idcard", authed(http.HandlerFunc(cardH.Generate)))
	mux.Handle("GET /api/farmers/{farmerID}/idcard", authed(http.HandlerFunc(cardH.DownloadCard)))
	mux.Handle("GET /api/farmers/{farmerID}/qr", authed(http.HandlerFunc(cardH.DownloadQR)))

	mux.Handle("GET /api/jobs/{jobID}", authed(http.HandlerFunc(jobH.GetStatus)))

	var handler http.Handler = mux
	if opts.Logger != nil {
		handler = RequestLogger(opts.Logger)(handler)
	}
	return handler
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
