package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	setCoreEnvEmpty(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":8000", cfg.BindAddr)
	require.Equal(t, 20, cfg.MemoryLimit)
	require.Equal(t, 60*time.Second, cfg.CompletionTimeout)
	require.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	require.Equal(t, "openai", cfg.ProviderMode)
	require.False(t, cfg.SafetyFilter)
	require.Empty(t, cfg.Endpoint)
	require.Empty(t, cfg.APIKey)
	require.Empty(t, cfg.Model)
}

func TestLoadProviderSettingsFallBackToAzureKeys(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("AZURE_OPENAI_ENDPOINT", " https://example.test/openai/v1 ")
	t.Setenv("AZURE_OPENAI_API_KEY", "azure-key")
	t.Setenv("MODEL", "gpt-tutor")
	t.Setenv("AZURE_OPENAI_MODEL", "ignored")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "https://example.test/openai/v1", cfg.Endpoint)
	require.Equal(t, "azure-key", cfg.APIKey)
	require.Equal(t, "gpt-tutor", cfg.Model)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"MEMORY_LIMIT":           "1",
		"APP_COMPLETION_TIMEOUT": "soon",
		"APP_SAFETY_FILTER":      "maybe",
		"APP_PROVIDER_MODE":      "gateway",
		"APP_MAX_MESSAGE_LENGTH": "-5",
		"APP_LOG_FORMAT":         "xml",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			setCoreEnvEmpty(t)
			t.Setenv(key, value)
			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestProviderStatusReportsPresenceOnly(t *testing.T) {
	st := Config{Endpoint: "https://example.test", Model: " gpt "}.ProviderStatus()
	require.True(t, st.EndpointSet)
	require.False(t, st.APIKeySet)
	require.NotNil(t, st.Model)
	require.Equal(t, "gpt", *st.Model)

	require.Nil(t, Config{}.ProviderStatus().Model)
}

func setCoreEnvEmpty(t *testing.T) {
	t.Helper()
	keys := []string{
		"APP_BIND_ADDR",
		"APP_SHUTDOWN_TIMEOUT",
		"APP_COMPLETION_TIMEOUT",
		"APP_METRICS_NAMESPACE",
		"APP_ALLOWED_ORIGINS",
		"APP_LOG_LEVEL",
		"APP_LOG_FORMAT",
		"APP_MODES_FILE",
		"APP_PROVIDER_MODE",
		"APP_MAX_MESSAGE_LENGTH",
		"APP_SAFETY_FILTER",
		"ENDPOINT",
		"API_KEY",
		"MODEL",
		"AZURE_OPENAI_ENDPOINT",
		"AZURE_OPENAI_API_KEY",
		"AZURE_OPENAI_MODEL",
		"MEMORY_LIMIT",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}
