package mcpserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// clearCTSCHEMAEnv clears all CTSCHEMA_* env vars to isolate tests from the ambient environment.
func clearCTSCHEMAEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CTSCHEMA_SCHEMA_ROOT", "CTSCHEMA_META_SCHEMA", "CTSCHEMA_DEFAULT_SCHEMA",
		"CTSCHEMA_IDENTIFIER_FIELD", "CTSCHEMA_RESULT_LIMIT", "CTSCHEMA_MAX_LIMIT",
		"CTSCHEMA_MAX_INLINE_SIZE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearCTSCHEMAEnv(t)

	c := loadConfig()

	assert.Empty(t, c.SchemaRoot)
	assert.Equal(t, "meta/strict_meta_schema.json", c.MetaSchema)
	assert.Equal(t, "clinical_trial.json", c.DefaultSchema)
	assert.Equal(t, "protocol_identifier", c.IdentifierField)
	assert.Equal(t, 100, c.ResultLimit)
	assert.Equal(t, 1000, c.MaxLimit)
	assert.Equal(t, int64(10*1024*1024), c.MaxInlineSize)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	clearCTSCHEMAEnv(t)
	t.Setenv("CTSCHEMA_SCHEMA_ROOT", "/srv/schemas")
	t.Setenv("CTSCHEMA_META_SCHEMA", "none")
	t.Setenv("CTSCHEMA_DEFAULT_SCHEMA", "participant.json")
	t.Setenv("CTSCHEMA_IDENTIFIER_FIELD", "trial_id")
	t.Setenv("CTSCHEMA_RESULT_LIMIT", "20")
	t.Setenv("CTSCHEMA_MAX_LIMIT", "500")
	t.Setenv("CTSCHEMA_MAX_INLINE_SIZE", "5242880")

	c := loadConfig()

	assert.Equal(t, "/srv/schemas", c.SchemaRoot)
	assert.Equal(t, "none", c.MetaSchema)
	assert.Equal(t, "participant.json", c.DefaultSchema)
	assert.Equal(t, "trial_id", c.IdentifierField)
	assert.Equal(t, 20, c.ResultLimit)
	assert.Equal(t, 500, c.MaxLimit)
	assert.Equal(t, int64(5242880), c.MaxInlineSize)
}

func TestLoadConfig_InvalidValues_UseDefaults(t *testing.T) {
	clearCTSCHEMAEnv(t)
	t.Setenv("CTSCHEMA_RESULT_LIMIT", "-5")
	t.Setenv("CTSCHEMA_MAX_LIMIT", "0")
	t.Setenv("CTSCHEMA_MAX_INLINE_SIZE", "abc")

	c := loadConfig()

	assert.Equal(t, 100, c.ResultLimit)
	assert.Equal(t, 1000, c.MaxLimit)
	assert.Equal(t, int64(10*1024*1024), c.MaxInlineSize)
}
