package httpx

import (
	"net/http"

	"github.com/agrimanage/farmreg/internal/service"
)

// JobHandlers provides card job status polling.
type JobHandlers struct {
	Cards *service.CardService
}

// GetStatus returns the polling view of a generation job.
func (h *JobHandlers) GetStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.Cards.JobStatus(r.Context(), r.PathValue("jobID"))
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, status)
}
