package assistant_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docgate/features/assistant"
	"docgate/internal/apperrors"
	"docgate/internal/metrics"
)

// MockProv implements assistant.Provisioner
type MockProv struct {
	mock.Mock
}

func (m *MockProv) CreateChatAssistant(ctx context.Context, name string, datasetIDs []string, prompt json.RawMessage) (string, error) {
	args := m.Called(ctx, name, datasetIDs, prompt)
	return args.String(0), args.Error(1)
}

func newHandler(prov assistant.Provisioner) *assistant.Handler {
	svc := assistant.NewService(prov, metrics.New())
	return assistant.NewHandler(svc)
}

func TestHandler_Create(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockProv := new(MockProv)
		handler := newHandler(mockProv)

		mockProv.On("CreateChatAssistant", mock.Anything, "contract-qa", []string{"d94ab7"}, mock.MatchedBy(func(raw json.RawMessage) bool {
			var probe struct {
				Prompt string `json:"prompt"`
			}
			if err := json.Unmarshal(raw, &probe); err != nil {
				return false
			}
			return strings.Contains(probe.Prompt, "{knowledge}")
		})).Return("asst-7f2", nil)

		reqBody := `{
			"name": "contract-qa",
			"dataset_ids": ["d94ab7"],
			"prompt": {"prompt": "Answer strictly from the contract text. {knowledge}"}
		}`
		req := httptest.NewRequest("POST", "/create_chat_assistant/", strings.NewReader(reqBody))
		w := httptest.NewRecorder()

		handler.Create(w, req)

		assert.Equal(t, http.StatusOK, w.Result().StatusCode)
		assert.JSONEq(t, `{"assistant_id": "asst-7f2"}`, w.Body.String())
		mockProv.AssertExpectations(t)
	})

	t.Run("Missing name", func(t *testing.T) {
		mockProv := new(MockProv)
		handler := newHandler(mockProv)

		reqBody := `{"prompt": {"prompt": "Answer."}}`
		req := httptest.NewRequest("POST", "/create_chat_assistant/", strings.NewReader(reqBody))
		w := httptest.NewRecorder()

		handler.Create(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode)

		var env struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
			CorrelationID string `json:"correlationId"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
		assert.Equal(t, "INVALID_ARGUMENT", env.Error.Code)
		assert.Contains(t, env.Error.Message, "name")
		assert.NotEmpty(t, env.CorrelationID)
		mockProv.AssertNotCalled(t, "CreateChatAssistant", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Missing prompt", func(t *testing.T) {
		handler := newHandler(new(MockProv))

		reqBody := `{"name": "contract-qa", "dataset_ids": []}`
		req := httptest.NewRequest("POST", "/create_chat_assistant/", strings.NewReader(reqBody))
		w := httptest.NewRecorder()

		handler.Create(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode)
	})

	t.Run("Malformed JSON", func(t *testing.T) {
		handler := newHandler(new(MockProv))

		req := httptest.NewRequest("POST", "/create_chat_assistant/", strings.NewReader(`{"name": `))
		w := httptest.NewRecorder()

		handler.Create(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode)
	})

	t.Run("Upstream rejected", func(t *testing.T) {
		mockProv := new(MockProv)
		handler := newHandler(mockProv)

		mockProv.On("CreateChatAssistant", mock.Anything, "contract-qa", mock.Anything, mock.Anything).
			Return("", apperrors.New(apperrors.ErrUpstreamRejected, "ragflow returned code 102: name already exists"))

		reqBody := `{"name": "contract-qa", "prompt": {"prompt": "Answer."}}`
		req := httptest.NewRequest("POST", "/create_chat_assistant/", strings.NewReader(reqBody))
		w := httptest.NewRecorder()

		handler.Create(w, req)

		assert.Equal(t, http.StatusBadGateway, w.Result().StatusCode)

		var env struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
		assert.Equal(t, "UPSTREAM_REJECTED", env.Error.Code)
	})
}
