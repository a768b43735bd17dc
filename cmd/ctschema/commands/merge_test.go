package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ctschema/ctschema/internal/docutil"
	"github.com/ctschema/ctschema/schemaerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const patchYAML = `protocol_identifier: "10021"
trial_status: closed
participants:
  - cimac_participant_id: CTTTPP1
    samples:
      - cimac_id: CTTTPP1S2.00
        collection_event_name: Week_4
`

func TestSetupMergeFlags(t *testing.T) {
	captureOutput(t)
	fs, flags := SetupMergeFlags()

	assert.Equal(t, "protocol_identifier", flags.IdentifierField)
	assert.False(t, flags.Changes)

	require.NoError(t, fs.Parse([]string{"-o", "out.json", "--identifier-field", "", "--changes", "a.json", "b.json"}))
	assert.Equal(t, "out.json", flags.Output)
	assert.Empty(t, flags.IdentifierField)
	assert.True(t, flags.Changes)
	assert.Equal(t, 2, fs.NArg())
}

func TestHandleMerge_ArgErrors(t *testing.T) {
	captureOutput(t)
	assert.Error(t, HandleMerge([]string{"only-one.json"}))
	assert.Error(t, HandleMerge([]string{"-", "-"}))
	assert.Error(t, HandleMerge([]string{"--format", "xml", "a.json", "b.json"}))
	assert.NoError(t, HandleMerge([]string{"--help"}))
}

func TestHandleMerge_ToStdout(t *testing.T) {
	out, errOut := captureOutput(t)
	base := writeFile(t, "base.json", trialJSON)
	patch := writeFile(t, "patch.yaml", patchYAML)

	require.NoError(t, HandleMerge([]string{"--changes", base, patch}))
	merged, err := docutil.Decode(out.Bytes(), docutil.FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "closed", merged.(map[string]any)["trial_status"])
	assert.Contains(t, errOut.String(), `"trial_status":"closed"`)
	assert.Contains(t, errOut.String(), "✓ Merge succeeded")
}

func TestHandleMerge_ToFile(t *testing.T) {
	out, _ := captureOutput(t)
	base := writeFile(t, "base.json", trialJSON)
	patch := writeFile(t, "patch.yaml", patchYAML)
	target := filepath.Join(t.TempDir(), "merged.yaml")

	require.NoError(t, HandleMerge([]string{"-o", target, "--format", "json", base, patch}))
	assert.Contains(t, out.String(), `"merged": true`)
	assert.Contains(t, out.String(), `"written_to"`)

	merged, err := docutil.LoadMap(target)
	require.NoError(t, err)
	samples := merged["participants"].([]any)[0].(map[string]any)["samples"].([]any)
	assert.Len(t, samples, 2)
}

func TestHandleMerge_Conflict(t *testing.T) {
	_, errOut := captureOutput(t)
	base := writeFile(t, "base.json", trialJSON)
	patch := writeFile(t, "patch.json", `{
  "protocol_identifier": "10021",
  "participants": [{"cimac_participant_id": "CTTTPP1", "cohort_name": "Arm_Z"}]
}`)

	err := HandleMerge([]string{base, patch})
	require.ErrorIs(t, err, ErrFailed)
	assert.Contains(t, errOut.String(), "✗ Merge conflict")
	assert.Contains(t, errOut.String(), "cimac_participant_id=CTTTPP1")
}

func TestHandleMerge_IdentifierMismatch(t *testing.T) {
	captureOutput(t)
	base := writeFile(t, "base.json", trialJSON)
	patch := writeFile(t, "patch.json", `{"protocol_identifier": "99999"}`)

	err := HandleMerge([]string{base, patch})
	require.ErrorIs(t, err, schemaerrors.ErrInvalidMergeTarget)
}

func TestHandleMerge_InvalidResult(t *testing.T) {
	_, errOut := captureOutput(t)
	base := writeFile(t, "base.json", trialJSON)
	patch := writeFile(t, "patch.json", `{
  "protocol_identifier": "10021",
  "participants": [{"cimac_participant_id": "CTTTPP1", "arm_code": "A1", "samples": [{"cimac_id": "CTTTPP1S3.00", "collection_event_name": "Week_9"}]}]
}`)

	err := HandleMerge([]string{"-q", base, patch})
	require.ErrorIs(t, err, ErrFailed)
	assert.Empty(t, errOut.String())
}

func TestHandleMerge_RefusesSymlinkOutput(t *testing.T) {
	captureOutput(t)
	dir := t.TempDir()
	target := filepath.Join(dir, "target.json")
	require.NoError(t, os.WriteFile(target, []byte("{}"), 0o600))
	link := filepath.Join(dir, "link.json")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	base := writeFile(t, "base.json", trialJSON)
	patch := writeFile(t, "patch.yaml", patchYAML)

	require.Error(t, HandleMerge([]string{"-o", link, base, patch}))
}
