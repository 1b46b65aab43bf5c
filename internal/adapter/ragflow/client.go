package ragflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"docgate/features/document"
	"docgate/internal/apperrors"
)

// maxResponseBytes bounds how much of an upstream body we read back;
// RAGFlow error pages can be arbitrarily large.
const maxResponseBytes = 1 << 20

type Config struct {
	BaseURL         string
	APIKey          string
	ChunkMethod     string
	ChunkTokenCount int
	Timeout         time.Duration
}

type Client struct {
	cfg    Config
	client *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.ChunkMethod == "" {
		cfg.ChunkMethod = "naive"
	}
	if cfg.ChunkTokenCount == 0 {
		cfg.ChunkTokenCount = 128
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// envelope is RAGFlow's uniform response wrapper. Logical failures arrive
// as code != 0 inside an HTTP 200.
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) UploadDocument(ctx context.Context, datasetID string, doc *document.Payload) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(doc.Filename)))
	contentType := doc.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	hdr.Set("Content-Type", contentType)

	part, err := mw.CreatePart(hdr)
	if err != nil {
		return "", fmt.Errorf("build multipart body: %w", err)
	}
	if _, err := part.Write(doc.Data); err != nil {
		return "", fmt.Errorf("write multipart body: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close multipart body: %w", err)
	}

	url := fmt.Sprintf("%s/api/v1/datasets/%s/documents", c.base(), datasetID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	data, err := c.do(req)
	if err != nil {
		return "", err
	}

	var docs []struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &docs); err != nil {
		return "", apperrors.Newf(apperrors.ErrUpstreamRejected, "malformed upload response: %v", err)
	}
	if len(docs) == 0 || docs[0].ID == "" {
		return "", apperrors.New(apperrors.ErrUpstreamRejected, "upload response carried no document id")
	}
	return docs[0].ID, nil
}

func (c *Client) SetChunkMethod(ctx context.Context, datasetID, documentID string) error {
	payload := map[string]any{
		"chunk_method": c.cfg.ChunkMethod,
		"parser_config": map[string]any{
			"chunk_token_count": c.cfg.ChunkTokenCount,
		},
	}
	url := fmt.Sprintf("%s/api/v1/datasets/%s/documents/%s", c.base(), datasetID, documentID)
	req, err := c.newJSONRequest(ctx, http.MethodPut, url, payload)
	if err != nil {
		return err
	}
	_, err = c.do(req)
	return err
}

func (c *Client) TriggerChunking(ctx context.Context, datasetID, documentID string) error {
	payload := map[string][]string{
		"document_ids": {documentID},
	}
	url := fmt.Sprintf("%s/api/v1/datasets/%s/chunks", c.base(), datasetID)
	req, err := c.newJSONRequest(ctx, http.MethodPost, url, payload)
	if err != nil {
		return err
	}
	_, err = c.do(req)
	return err
}

func (c *Client) CreateChatAssistant(ctx context.Context, name string, datasetIDs []string, prompt json.RawMessage) (string, error) {
	if datasetIDs == nil {
		datasetIDs = []string{}
	}
	payload := struct {
		Name       string          `json:"name"`
		DatasetIDs []string        `json:"dataset_ids"`
		Prompt     json.RawMessage `json:"prompt"`
	}{
		Name:       name,
		DatasetIDs: datasetIDs,
		Prompt:     prompt,
	}
	req, err := c.newJSONRequest(ctx, http.MethodPost, c.base()+"/api/v1/chats", payload)
	if err != nil {
		return "", err
	}

	data, err := c.do(req)
	if err != nil {
		return "", err
	}

	var chat struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &chat); err != nil {
		return "", apperrors.Newf(apperrors.ErrUpstreamRejected, "malformed chat response: %v", err)
	}
	if chat.ID == "" {
		return "", apperrors.New(apperrors.ErrUpstreamRejected, "chat response carried no assistant id")
	}
	return chat.ID, nil
}

func (c *Client) newJSONRequest(ctx context.Context, method, url string, payload any) (*http.Request, error) {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	return req, nil
}

// do runs the request and peels RAGFlow's envelope, mapping transport
// failures to UpstreamUnavailable and everything the platform refused to
// UpstreamRejected.
func (c *Client) do(req *http.Request) (json.RawMessage, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, apperrors.Newf(apperrors.ErrUpstreamUnavailable, "ragflow request failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, apperrors.Newf(apperrors.ErrUpstreamUnavailable, "read ragflow response: %v", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.Newf(apperrors.ErrUpstreamRejected, "ragflow returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, apperrors.Newf(apperrors.ErrUpstreamRejected, "malformed ragflow response: %v", err)
	}
	if env.Code != 0 {
		return nil, apperrors.Newf(apperrors.ErrUpstreamRejected, "ragflow returned code %d: %s", env.Code, env.Message)
	}
	return env.Data, nil
}

func (c *Client) base() string {
	return strings.TrimRight(c.cfg.BaseURL, "/")
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
