package provider

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func Test_Config_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name: "openai requires api key",
			cfg:  Config{Backend: BackendOpenAI},

			wantErr: "OPENAI_API_KEY",
		},
		{
			name: "openai valid",
			cfg:  Config{Backend: BackendOpenAI, APIKey: "sk-test", Model: "gpt-4o-mini"},
		},
		{
			name:    "azure requires endpoint",
			cfg:     Config{Backend: BackendAzure, APIKey: "key", AzureDeployment: "dep"},
			wantErr: "AZURE_OPENAI_ENDPOINT",
		},
		{
			name:    "azure requires deployment",
			cfg:     Config{Backend: BackendAzure, APIKey: "key", BaseURL: "https://r.openai.azure.com"},
			wantErr: "AZURE_OPENAI_DEPLOYMENT",
		},
		{
			name: "ollama needs no credentials",
			cfg:  Config{Backend: BackendOllama, BaseURL: "http://localhost:11434", Model: "llama3.1"},
		},
		{
			name:    "ark requires api key",
			cfg:     Config{Backend: BackendArk, Model: "m"},
			wantErr: "ARK_API_KEY",
		},
		{
			name:    "gemini requires api key",
			cfg:     Config{Backend: BackendGemini, Model: "gemini-1.5-flash"},
			wantErr: "GOOGLE_API_KEY",
		},
		{
			name:    "unknown backend",
			cfg:     Config{Backend: "watson"},
			wantErr: "unknown backend",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("Validate = %v, want error containing %q", err, tc.wantErr)
			}
		})
	}
}

func Test_ConfigFromEnv_Defaults(t *testing.T) {
	t.Setenv("MODEL_PROVIDER", "")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_MODEL", "")
	t.Setenv("MODEL_MAX_TOKENS", "")
	t.Setenv("MODEL_TEMPERATURE", "")

	cfg := ConfigFromEnv()
	if cfg.Backend != BackendOpenAI {
		t.Errorf("backend = %q, want openai", cfg.Backend)
	}
	if cfg.Model != "gpt-4o-mini" {
		t.Errorf("model = %q", cfg.Model)
	}
	if cfg.MaxTokens != 4096 {
		t.Errorf("max tokens = %d", cfg.MaxTokens)
	}
	if cfg.Temperature != 0.7 {
		t.Errorf("temperature = %v", cfg.Temperature)
	}
}

func Test_ConfigFromEnv_Ollama(t *testing.T) {
	t.Setenv("MODEL_PROVIDER", "ollama")
	t.Setenv("OLLAMA_HOST", "")
	t.Setenv("OLLAMA_MODEL", "qwen2.5")

	cfg := ConfigFromEnv()
	if cfg.BaseURL != "http://localhost:11434" {
		t.Errorf("base url = %q", cfg.BaseURL)
	}
	if cfg.Model != "qwen2.5" {
		t.Errorf("model = %q", cfg.Model)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func Test_HealthCheck_Ollama(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	hc := NewHealthCheck(&Config{Backend: BackendOllama, BaseURL: srv.URL})
	if hc == nil {
		t.Fatal("no health check for ollama")
	}
	if err := hc.HealthCheck(t.Context()); err != nil {
		t.Errorf("HealthCheck: %v", err)
	}
}

func Test_HealthCheck_ReportsFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	hc := NewHealthCheck(&Config{Backend: BackendOpenAI, BaseURL: srv.URL, APIKey: "k"})
	if err := hc.HealthCheck(t.Context()); err == nil {
		t.Error("want error for HTTP 502")
	}
}

func Test_HealthCheck_ArkHasNone(t *testing.T) {
	t.Parallel()

	if hc := NewHealthCheck(&Config{Backend: BackendArk}); hc != nil {
		t.Errorf("want nil health check for ark, got %T", hc)
	}
}
