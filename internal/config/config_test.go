package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) (configDir, stateDir string) {
	t.Helper()
	configDir = t.TempDir()
	stateDir = t.TempDir()
	t.Setenv("CRMSYNC_CONFIG_DIR", configDir)
	t.Setenv("CRMSYNC_STATE_DIR", stateDir)
	t.Setenv("CRMSYNC_CONFIG_PATH", filepath.Join(configDir, "config.toml"))
	return configDir, stateDir
}

func TestLoadAndGet(t *testing.T) {
	isolate(t)
	Load()

	got := Get("missing", "default")
	require.Equal(t, "default", got)
}

func TestLoadDefaults(t *testing.T) {
	_, stateDir := isolate(t)
	Load()

	assert.Equal(t, "RUB", Get("default_currency", ""))
	assert.Equal(t, 3, GetInt("highlight_seconds", 0))
	assert.Equal(t, 20, GetInt("notification_log_limit", 0))
	assert.Equal(t, "table", Get("output_format", ""))
	assert.Equal(t, "", Get("crm_stream_url", "unset"))
	assert.False(t, GetBool("logging_enabled", true))
	assert.Equal(t, filepath.Join(stateDir, "crmsync.db"), Get("db_path", ""))
}

func TestLoadFromFileAndEnvPrecedence(t *testing.T) {
	configDir, _ := isolate(t)
	content := `
api_base_url = "https://crm.example.com/api/"
payments_stream_url = "wss://crm.example.com/stream/payments"
highlight_seconds = 5
logging_enabled = true
output_format = "json"
`
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.toml"), []byte(content), 0o644))
	t.Setenv("CRMSYNC_OUTPUT_FORMAT", "yaml")

	Load()

	assert.Equal(t, "https://crm.example.com/api", Get("api_base_url", ""))
	assert.Equal(t, "wss://crm.example.com/stream/payments", Get("payments_stream_url", ""))
	assert.Equal(t, 5, GetInt("highlight_seconds", 0))
	assert.True(t, GetBool("logging_enabled", false))
	assert.Equal(t, "yaml", Get("output_format", ""))
}

func TestLoadInvalidValuesFallBackToDefaults(t *testing.T) {
	isolate(t)
	t.Setenv("CRMSYNC_HIGHLIGHT_SECONDS", "-1")
	t.Setenv("CRMSYNC_OUTPUT_FORMAT", "xml")
	t.Setenv("CRMSYNC_DEFAULT_CURRENCY", "NOTACODE")
	t.Setenv("CRMSYNC_CRM_STREAM_URL", "ftp://example.com/events")
	t.Setenv("CRMSYNC_LOGGING_ENABLED", "maybe")

	Load()

	assert.Equal(t, 3, GetInt("highlight_seconds", 0))
	assert.Equal(t, "table", Get("output_format", ""))
	assert.Equal(t, "RUB", Get("default_currency", ""))
	assert.Equal(t, "", Get("crm_stream_url", "unset"))
	assert.Equal(t, "false", Get("logging_enabled", ""))
}

func TestLoadMockBaseURL(t *testing.T) {
	isolate(t)
	t.Setenv("CRMSYNC_API_BASE_URL", "MOCK")

	Load()

	assert.Equal(t, MockBaseURL, Get("api_base_url", ""))
	assert.True(t, IsMock())
}

func TestLoadDotEnvDoesNotOverrideEnvironment(t *testing.T) {
	isolate(t)
	envFile := filepath.Join(t.TempDir(), "crmsync.env")
	require.NoError(t, os.WriteFile(envFile, []byte("CRMSYNC_DEFAULT_CURRENCY=USD\nCRMSYNC_API_TOKEN=from-dotenv\n"), 0o600))
	t.Setenv("CRMSYNC_ENV_FILE", envFile)
	t.Setenv("CRMSYNC_API_TOKEN", "from-env")
	require.NoError(t, os.Unsetenv("CRMSYNC_DEFAULT_CURRENCY"))
	t.Cleanup(func() { _ = os.Unsetenv("CRMSYNC_DEFAULT_CURRENCY") })

	Load()

	assert.Equal(t, "USD", Get("default_currency", ""))
	assert.Equal(t, "from-env", Get("api_token", ""))
}

func TestCreateSampleConfigOmitsSecrets(t *testing.T) {
	configDir, _ := isolate(t)
	t.Setenv("CRMSYNC_API_TOKEN", "secret-token")

	Load()

	data, err := os.ReadFile(filepath.Join(configDir, "config.toml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "# crmsync configuration")
	assert.Contains(t, string(data), "default_currency")
	assert.NotContains(t, string(data), "api_token")
	assert.NotContains(t, string(data), "secret-token")
}

func TestSetOverridesKey(t *testing.T) {
	isolate(t)
	Load()

	Set("output_format", "json")

	assert.Equal(t, "json", Get("output_format", ""))
}

func TestValidators(t *testing.T) {
	tests := []struct {
		name      string
		validator Validator
		value     string
		want      string
	}{
		{name: "positive int keeps value", validator: PositiveIntValidator(), value: "7", want: "7"},
		{name: "positive int rejects zero", validator: PositiveIntValidator(), value: "0", want: "def"},
		{name: "enum lowercases", validator: EnumValidator(map[string]bool{"json": true}), value: "JSON", want: "json"},
		{name: "bool normalizes yes", validator: BoolValidator(), value: "yes", want: "true"},
		{name: "url trims trailing slash", validator: URLValidator(false), value: "http://localhost:8080/", want: "http://localhost:8080"},
		{name: "url keeps empty when allowed", validator: URLValidator(true), value: "", want: ""},
		{name: "url rejects relative", validator: URLValidator(false), value: "/events", want: "def"},
		{name: "url accepts literal", validator: URLValidator(false, "mock"), value: "Mock", want: "mock"},
		{name: "currency accepts iso code", validator: CurrencyValidator(), value: "EUR", want: "EUR"},
		{name: "currency rejects garbage", validator: CurrencyValidator(), value: "euros", want: "def"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.validator("key", tt.value, "def")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
