package commands

import (
	"strings"
	"testing"

	"github.com/ctschema/ctschema/schemaerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleGet_ArgErrors(t *testing.T) {
	captureOutput(t)
	assert.Error(t, HandleGet([]string{"doc.json"}))
	assert.Error(t, HandleGet([]string{"--format", "text", "doc.json", "root"}))
	assert.Error(t, HandleGet([]string{"--skip-last", "-1", "doc.json", "root"}))
	assert.NoError(t, HandleGet([]string{"--help"}))
}

func TestHandleGet(t *testing.T) {
	path := writeFile(t, "trial.json", trialJSON)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "scalar",
			args: []string{path, "root['shipments'][0]['manifest_id']"},
			want: "M1",
		},
		{
			name: "skip last",
			args: []string{"--skip-last", "1", "--format", "json", path, "root['shipments'][0]['manifest_id']"},
			want: `{"manifest_id":"M1"}`,
		},
		{
			name: "pointer",
			args: []string{"--pointer", "--format", "json", path, "/arms/0/arm_code"},
			want: `"A1"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _ := captureOutput(t)
			require.NoError(t, HandleGet(tt.args))
			got := strings.TrimSpace(out.String())
			if strings.HasPrefix(tt.want, "{") {
				assert.JSONEq(t, tt.want, got)
			} else {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestHandleGet_Errors(t *testing.T) {
	captureOutput(t)
	path := writeFile(t, "trial.json", trialJSON)

	err := HandleGet([]string{path, "root['nope']"})
	require.ErrorIs(t, err, schemaerrors.ErrPathNotFound)

	err = HandleGet([]string{path, "root['arms"})
	require.Error(t, err)
}
