package mcpserver

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/ctschema/ctschema/merger"
	"github.com/ctschema/ctschema/schemas"
)

// serverConfig holds all configurable MCP server defaults.
// Loaded once at startup from environment variables via loadConfig().
type serverConfig struct {
	// SchemaRoot is the schema directory. Empty selects the built-in schemas.
	SchemaRoot string
	// MetaSchema is the meta-schema path relative to SchemaRoot, or
	// schemaset.MetaSchemaNone.
	MetaSchema string
	// DefaultSchema is used by tools called without a schema.
	DefaultSchema string

	// Merge tool defaults.
	IdentifierField string

	// Result limits.
	ResultLimit   int
	MaxLimit      int
	MaxInlineSize int64
}

// cfg is the active server configuration, initialized at package load time.
var cfg = loadConfig()

// loadConfig reads configuration from CTSCHEMA_* environment variables.
// Invalid values log a warning and fall back to the hardcoded default.
func loadConfig() *serverConfig {
	return &serverConfig{
		SchemaRoot:      os.Getenv("CTSCHEMA_SCHEMA_ROOT"),
		MetaSchema:      envString("CTSCHEMA_META_SCHEMA", schemas.MetaSchemaPath),
		DefaultSchema:   envString("CTSCHEMA_DEFAULT_SCHEMA", schemas.ClinicalTrialPath),
		IdentifierField: envString("CTSCHEMA_IDENTIFIER_FIELD", merger.DefaultIdentifierField),
		ResultLimit:     envInt("CTSCHEMA_RESULT_LIMIT", 100),
		MaxLimit:        envInt("CTSCHEMA_MAX_LIMIT", 1000),
		MaxInlineSize:   envInt64("CTSCHEMA_MAX_INLINE_SIZE", 10*1024*1024),
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		slog.Warn("invalid int env var, using default", "key", key, "value", v, "default", fallback) //nolint:gosec // G706: values are structured log fields, not format strings
		return fallback
	}
	return n
}

func envInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		slog.Warn("invalid int env var, using default", "key", key, "value", v, "default", fallback) //nolint:gosec // G706: values are structured log fields, not format strings
		return fallback
	}
	return n
}
