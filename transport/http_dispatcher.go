package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/opsboard/otpgate/logger"
	"github.com/opsboard/otpgate/model"
	"go.uber.org/zap"
)

type Config struct {
	BaseUrl        string
	TimeoutSeconds int
}

// HttpDispatcher talks to the dashboard backend REST API. The backend signals
// failures in the response body more often than in the status code, so any
// reply that decodes as JSON is returned to the normalizer regardless of
// status.
type HttpDispatcher struct {
	baseUrl string
	client  *http.Client
}

func NewHttpDispatcher(conf Config) *HttpDispatcher {
	return &HttpDispatcher{
		baseUrl: strings.TrimSuffix(conf.BaseUrl, "/"),
		client: &http.Client{
			Timeout: time.Duration(conf.TimeoutSeconds) * time.Second,
		},
	}
}

func (d *HttpDispatcher) SubmitMutation(ctx context.Context, req *model.MutationRequest) (map[string]any, error) {
	endpoint := fmt.Sprintf("%s/api/entreprises/%s/mutations", d.baseUrl, url.PathEscape(req.ScopeId))
	body := map[string]any{
		"operation": req.Operation,
		"payload":   req.Payload,
	}
	if req.TargetId != "" {
		body["targetId"] = req.TargetId
	}
	return d.post(ctx, endpoint, body)
}

func (d *HttpDispatcher) ConfirmCode(ctx context.Context, challengeRef string, code string, scopeId string) (map[string]any, error) {
	endpoint := fmt.Sprintf("%s/api/entreprises/%s/pending-changes/%s/confirm",
		d.baseUrl, url.PathEscape(scopeId), url.PathEscape(challengeRef))
	return d.post(ctx, endpoint, map[string]any{"code": code})
}

func (d *HttpDispatcher) post(ctx context.Context, endpoint string, body map[string]any) (map[string]any, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := d.client.Do(httpReq)
	if err != nil {
		logger.Error("backend request failed", zap.String("endpoint", endpoint), zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	var raw map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		logger.Error("backend reply not decodable", zap.String("endpoint", endpoint), zap.Int("status", resp.StatusCode), zap.Error(err))
		return nil, fmt.Errorf("malformed backend reply, status %d", resp.StatusCode)
	}
	return raw, nil
}
