package assistant

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"docgate/internal/apperrors"
	"docgate/internal/metrics"
)

// Spec describes a chat assistant to provision on the ingestion platform.
// Prompt stays raw JSON so platform-specific knobs (variables, opener,
// similarity thresholds) pass through byte-for-byte.
type Spec struct {
	Name       string          `json:"name"`
	DatasetIDs []string        `json:"dataset_ids"`
	Prompt     json.RawMessage `json:"prompt"`
}

type Provisioner interface {
	CreateChatAssistant(ctx context.Context, name string, datasetIDs []string, prompt json.RawMessage) (string, error)
}

type Service struct {
	provisioner Provisioner
	metrics     *metrics.Metrics
}

func NewService(provisioner Provisioner, m *metrics.Metrics) *Service {
	return &Service{provisioner: provisioner, metrics: m}
}

func (s *Service) Create(ctx context.Context, spec Spec) (id string, err error) {
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		s.metrics.AssistantsCreatedTotal.WithLabelValues(outcome).Inc()
	}()

	if err := validatePrompt(spec.Prompt); err != nil {
		return "", err
	}

	id, err = s.provisioner.CreateChatAssistant(ctx, spec.Name, spec.DatasetIDs, spec.Prompt)
	if err != nil {
		return "", err
	}
	slog.InfoContext(ctx, "chat assistant created", "assistant_id", id, "name", spec.Name, "datasets", len(spec.DatasetIDs))
	return id, nil
}

// validatePrompt probes only the mandatory field; everything else in the
// prompt object is forwarded untouched.
func validatePrompt(raw json.RawMessage) error {
	if len(raw) == 0 {
		return apperrors.New(apperrors.ErrInvalidArgument, "prompt is required")
	}
	var probe struct {
		Prompt string `json:"prompt"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return apperrors.Newf(apperrors.ErrInvalidArgument, "prompt must be a JSON object: %v", err)
	}
	if strings.TrimSpace(probe.Prompt) == "" {
		return apperrors.New(apperrors.ErrInvalidArgument, "prompt.prompt is required")
	}
	return nil
}
