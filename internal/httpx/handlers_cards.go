package httpx

import (
	"fmt"
	"net/http"

	"github.com/agrimanage/farmreg/internal/core"
	"github.com/agrimanage/farmreg/internal/domain/auth"
	"github.com/agrimanage/farmreg/internal/domain/model"
	apperrors "github.com/agrimanage/farmreg/internal/errors"
	"github.com/agrimanage/farmreg/internal/service"
)

// CardHandlers provides card generation and artifact download endpoints.
type CardHandlers struct {
	Cards    *service.CardService
	Identity *service.IdentityService
	Farmers  core.FarmerRepository
}

// authorizeFarmerAccess enforces ownership and district scope for the farmer
// the request targets.
func (h *CardHandlers) authorizeFarmerAccess(r *http.Request, farmerID string) (model.Principal, error) {
	p, ok := PrincipalFrom(r.Context())
	if !ok {
		return model.Principal{}, apperrors.Unauthorized("missing bearer token")
	}
	if err := auth.RequireOwnFarmer(p, farmerID); err != nil {
		return model.Principal{}, err
	}
	districts, err := h.Identity.AssignedDistricts(r.Context(), p)
	if err != nil {
		return model.Principal{}, err
	}
	scope := auth.DistrictScope(p, districts)
	if scope.Unrestricted() {
		return p, nil
	}
	farmer, err := h.Farmers.FindByID(r.Context(), farmerID)
	if err != nil {
		return model.Principal{}, err
	}
	if !scope.AllowsFarmer(farmer) {
		return model.Principal{}, apperrors.Forbidden("farmer is outside your assigned districts")
	}
	return p, nil
}

// Generate enqueues an ID card generation job and returns 202 with the job id.
func (h *CardHandlers) Generate(w http.ResponseWriter, r *http.Request) {
	farmerID := r.PathValue("farmerID")
	if _, err := h.authorizeFarmerAccess(r, farmerID); err != nil {
		WriteError(w, err)
		return
	}

	job, err := h.Cards.Enqueue(r.Context(), farmerID)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id":    job.ID,
		"farmer_id": job.FarmerID,
		"status":    string(job.Status),
	})
}

// DownloadCard streams the current ID card PDF.
func (h *CardHandlers) DownloadCard(w http.ResponseWriter, r *http.Request) {
	h.download(w, r, model.BlobKindPDF)
}

// DownloadQR streams the current QR code PNG.
func (h *CardHandlers) DownloadQR(w http.ResponseWriter, r *http.Request) {
	h.download(w, r, model.BlobKindQRImage)
}

func (h *CardHandlers) download(w http.ResponseWriter, r *http.Request, kind model.BlobKind) {
	farmerID := r.PathValue("farmerID")
	if _, err := h.authorizeFarmerAccess(r, farmerID); err != nil {
		WriteError(w, err)
		return
	}

	res, err := h.Cards.Download(r.Context(), farmerID, kind)
	if err != nil {
		WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", res.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Data)
}
