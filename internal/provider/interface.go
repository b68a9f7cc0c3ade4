// Package provider selects and constructs the LLM chat backend at runtime.
// Supported backends: OpenAI, Azure OpenAI, Ollama, Volcano Ark, Google
// Gemini. It also builds the zero-cost health checks the readiness endpoint
// probes, so no tokens are spent answering /api/ready.
package provider

import "context"

// Backend enumerates the supported LLM inference providers.
type Backend string

const (
	// BackendOpenAI selects the OpenAI API.
	BackendOpenAI Backend = "openai"
	// BackendAzure selects Azure OpenAI Service.
	BackendAzure Backend = "azure"
	// BackendOllama selects a locally running Ollama instance.
	BackendOllama Backend = "ollama"
	// BackendArk selects the Volcano Engine Ark runtime.
	BackendArk Backend = "ark"
	// BackendGemini selects Google Gemini via AI Studio.
	BackendGemini Backend = "gemini"
)

// Config holds the provider configuration resolved from environment
// variables or explicit caller-supplied values.
type Config struct {
	// Backend identifies which inference provider to use.
	Backend Backend

	// Model is the model name or deployment ID (e.g. "gpt-4o-mini", "llama3.1").
	Model string

	// BaseURL overrides the default API endpoint. Required for Ollama and
	// Azure, optional elsewhere.
	BaseURL string

	// APIKey is the authentication credential for the selected provider.
	APIKey string

	// AzureDeployment is the Azure OpenAI deployment name (Azure only).
	AzureDeployment string

	// AzureAPIVersion is the Azure OpenAI REST API version (Azure only).
	AzureAPIVersion string

	// MaxTokens caps the number of tokens the model may generate per response.
	MaxTokens int

	// Temperature controls response randomness (0.0 to 1.0).
	Temperature float32
}

// Validate reports the first configuration error for the selected backend.
// Called from New so misconfiguration surfaces at startup, not on the first
// request.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendOpenAI:
		if c.APIKey == "" {
			return errMissing("OPENAI_API_KEY", c.Backend)
		}
	case BackendAzure:
		if c.APIKey == "" {
			return errMissing("AZURE_OPENAI_API_KEY", c.Backend)
		}
		if c.BaseURL == "" {
			return errMissing("AZURE_OPENAI_ENDPOINT", c.Backend)
		}
		if c.AzureDeployment == "" {
			return errMissing("AZURE_OPENAI_DEPLOYMENT", c.Backend)
		}
	case BackendArk:
		if c.APIKey == "" {
			return errMissing("ARK_API_KEY", c.Backend)
		}
	case BackendGemini:
		if c.APIKey == "" {
			return errMissing("GOOGLE_API_KEY", c.Backend)
		}
	case BackendOllama:
		// No credentials required.
	default:
		return errUnknownBackend(c.Backend)
	}
	return nil
}

// HealthCheckConfig is a zero-cost reachability probe for a chat backend.
// Implementations must not consume model tokens.
type HealthCheckConfig interface {
	// HealthCheck returns nil when the backend is reachable.
	HealthCheck(ctx context.Context) error
}
