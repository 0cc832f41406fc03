package httpx

import (
	"net/http"

	"github.com/agrimanage/farmreg/internal/domain/model"
	"github.com/agrimanage/farmreg/internal/service"
)

// QRHandlers provides QR credential verification. Verification is open to any
// holder of a scanned code and does not require a bearer token.
type QRHandlers struct {
	QR *service.QRService
}

// Verify checks a scanned QR payload and, when authentic, returns the
// farmer's public display fields. A tampered signature is rejected with 401;
// a valid signature for a farmer no longer on record is a 404.
func (h *QRHandlers) Verify(w http.ResponseWriter, r *http.Request) {
	var token model.QRToken
	if !DecodeJSON(w, r, &token) {
		return
	}

	res, err := h.QR.VerifyAndDescribe(r.Context(), token)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, res)
}
