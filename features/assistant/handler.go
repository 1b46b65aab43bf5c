package assistant

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"docgate/internal/apperrors"
	"docgate/internal/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req Spec
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(r.Context(), w, apperrors.Newf(apperrors.ErrInvalidArgument, "invalid JSON body: %v", err))
		return
	}

	if req.Name == "" {
		h.writeError(r.Context(), w, apperrors.New(apperrors.ErrInvalidArgument, "name is required"))
		return
	}

	id, err := h.service.Create(r.Context(), req)
	if err != nil {
		slog.ErrorContext(r.Context(), "assistant creation failed", "name", req.Name, "error", err)
		h.writeError(r.Context(), w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]string{"assistant_id": id}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apperrors.HTTPStatusCode(err))

	message := apperrors.Message(err)
	code := apperrors.Code(err)
	if code == "INTERNAL" {
		message = "Internal Server Error"
	}

	resp := map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
		"correlationId": middleware.GetCorrelationID(ctx),
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}
