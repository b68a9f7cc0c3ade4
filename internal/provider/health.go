package provider

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// httpHealthCheck probes an HTTP endpoint that responds without consuming
// model tokens.
type httpHealthCheck struct {
	// url is the endpoint to probe.
	url string
	// header carries auth headers when the endpoint requires them.
	header http.Header
	// client is the shared HTTP client.
	client *http.Client
}

// HealthCheck issues a GET against the probe endpoint and treats any 2xx
// status as healthy.
func (h *httpHealthCheck) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	for k, vs := range h.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("probe %s: %w", h.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("probe %s: HTTP %d", h.url, resp.StatusCode)
	}
	return nil
}

// NewHealthCheck builds a zero-cost reachability probe for the configured
// backend. It returns nil when no token-free probe exists for the backend;
// callers should then skip the readiness check rather than burn tokens.
func NewHealthCheck(cfg *Config) HealthCheckConfig {
	client := &http.Client{Timeout: 5 * time.Second}

	switch cfg.Backend {
	case BackendOpenAI:
		base := cfg.BaseURL
		if base == "" {
			base = "https://api.openai.com/v1"
		}
		return &httpHealthCheck{
			url:    base + "/models",
			header: http.Header{"Authorization": {"Bearer " + cfg.APIKey}},
			client: client,
		}

	case BackendAzure:
		// The deployments listing endpoint answers with the management API
		// key and costs nothing.
		return &httpHealthCheck{
			url:    cfg.BaseURL + "/openai/models?api-version=" + cfg.AzureAPIVersion,
			header: http.Header{"api-key": {cfg.APIKey}},
			client: client,
		}

	case BackendOllama:
		return &httpHealthCheck{
			url:    cfg.BaseURL + "/api/tags",
			client: client,
		}

	case BackendGemini:
		return &httpHealthCheck{
			url:    "https://generativelanguage.googleapis.com/v1beta/models?key=" + cfg.APIKey,
			client: client,
		}

	default:
		// Ark exposes no token-free listing endpoint.
		return nil
	}
}
