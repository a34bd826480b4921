// Package upstream fetches and reconciles student records from the external
// record provider.
package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Gateway is a fetch-with-fallback wrapper over the record provider. It never
// returns an error to its caller: network failures, non-2xx responses, and
// malformed bodies all yield an empty result, logged for observability. No
// retries are performed at this layer.
type Gateway struct {
	baseURL  string
	apiToken string
	client   *http.Client
	logger   *zap.Logger
}

// NewGateway creates a gateway for the provider at baseURL. An empty apiToken
// disables the auth header.
func NewGateway(baseURL, apiToken string, timeout time.Duration, logger *zap.Logger) *Gateway {
	return &Gateway{
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiToken: apiToken,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

// FetchJSON fetches the resource at path (relative to the base URL) and
// decodes it as JSON. The second return is false when the fetch failed for
// any reason; the first is then nil.
func (g *Gateway) FetchJSON(ctx context.Context, path string) (any, bool) {
	url := g.baseURL + "/" + strings.TrimLeft(path, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		g.logger.Warn("upstream request build failed", zap.String("url", url), zap.Error(err))
		return nil, false
	}
	if g.apiToken != "" {
		req.Header.Set("X-API-TOKEN", g.apiToken)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Warn("upstream fetch failed", zap.String("url", url), zap.Error(err))
		return nil, false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		g.logger.Warn("upstream returned non-2xx",
			zap.String("url", url), zap.Int("status", resp.StatusCode))
		return nil, false
	}

	var doc any
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		g.logger.Warn("upstream body decode failed", zap.String("url", url), zap.Error(err))
		return nil, false
	}
	return doc, true
}
