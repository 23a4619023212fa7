package httpapi

import "net/http"

func (h *Handler) RunExpireRequestsJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunExpireRequestsJob")
	defer span.End()

	result, err := h.maintenanceService.ExpireOpenRequests(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "expire requests job failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}
