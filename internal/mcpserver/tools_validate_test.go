package mcpserver

import (
	"context"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateTool_ValidDocument(t *testing.T) {
	useBuiltinSession(t)

	input := validateInput{
		Document: documentInput{Content: trialJSON},
	}
	result, output, err := handleValidate(context.Background(), &mcp.CallToolRequest{}, input)
	require.NoError(t, err)
	require.Nil(t, result)
	assert.True(t, output.Valid)
	assert.Equal(t, "clinical_trial.json", output.Schema)
	assert.Empty(t, output.Errors)
}

func TestValidateTool_InvalidDocument(t *testing.T) {
	useBuiltinSession(t)

	content := strings.Replace(trialJSON, `"shipment_manifest_id": "M1"`, `"shipment_manifest_id": "M9"`, 1)
	content = strings.Replace(content, `"cohort_name": "Arm_A"`, `"cohort_name": "Arm_Q", "gender": "Unknown"`, 1)
	input := validateInput{
		Document: documentInput{Content: content},
	}
	_, output, err := handleValidate(context.Background(), &mcp.CallToolRequest{}, input)
	require.NoError(t, err)
	assert.False(t, output.Valid)
	assert.Equal(t, 1, output.StructuralCount)
	assert.Equal(t, 2, output.ReferentialCount)
	require.Len(t, output.Errors, 3)

	// Structural errors come first.
	assert.Equal(t, "/participants/0/gender", output.Errors[0].Path)
	assert.Equal(t, "enum", output.Errors[0].Keyword)

	var refPaths []string
	for _, e := range output.Errors[1:] {
		assert.Equal(t, "in_doc_ref_pattern", e.Keyword)
		refPaths = append(refPaths, e.Path)
	}
	assert.ElementsMatch(t, []string{
		"/participants/0/cohort_name",
		"/participants/0/samples/0/shipment_manifest_id",
	}, refPaths)
}

func TestValidateTool_Pagination(t *testing.T) {
	useBuiltinSession(t)

	content := strings.Replace(trialJSON, `"shipment_manifest_id": "M1"`, `"shipment_manifest_id": "M9"`, 1)
	content = strings.Replace(content, `"cohort_name": "Arm_A"`, `"cohort_name": "Arm_Q"`, 1)
	input := validateInput{
		Document: documentInput{Content: content},
		Offset:   1,
		Limit:    5,
	}
	_, output, err := handleValidate(context.Background(), &mcp.CallToolRequest{}, input)
	require.NoError(t, err)
	assert.Equal(t, 2, output.ErrorCount)
	assert.Equal(t, 1, output.Returned)
	assert.Len(t, output.Errors, 1)
}

func TestValidateTool_UnknownSchema(t *testing.T) {
	useBuiltinSession(t)

	input := validateInput{
		Document: documentInput{Content: trialJSON},
		Schema:   "nope.json",
	}
	result, _, err := handleValidate(context.Background(), &mcp.CallToolRequest{}, input)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.IsError)
}

func TestValidateTool_BadDocument(t *testing.T) {
	useBuiltinSession(t)

	result, _, err := handleValidate(context.Background(), &mcp.CallToolRequest{}, validateInput{})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.IsError)
}
