package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCommandTree() *cobra.Command {
	root := &cobra.Command{Use: "matchd", Short: "root"}
	AddHelpJSONFlag(root)

	score := &cobra.Command{Use: "score", Short: "Score a pair", RunE: func(*cobra.Command, []string) error { return nil }}
	score.Flags().String("candidate", "", "Candidate ID")
	score.Flags().StringP("output", "o", "text", "Output format")
	_ = score.MarkFlagRequired("candidate")

	hidden := &cobra.Command{Use: "internal", Hidden: true, Run: func(*cobra.Command, []string) {}}

	root.AddCommand(score, hidden)
	return root
}

func TestGenerateSchema(t *testing.T) {
	schema := GenerateSchema(testCommandTree())

	assert.Equal(t, "matchd", schema.Name)
	assert.Empty(t, schema.Flags, "persistent help-json flag is not listed")
	require.Len(t, schema.Subcommands, 1)

	score := schema.Subcommands[0]
	assert.Equal(t, "score", score.Name)
	assert.Equal(t, "Score a pair", score.Description)
	require.Len(t, score.Flags, 2)

	byName := map[string]FlagSchema{}
	for _, f := range score.Flags {
		byName[f.Name] = f
	}
	assert.True(t, byName["candidate"].Required)
	assert.False(t, byName["output"].Required)
	assert.Equal(t, "o", byName["output"].Shorthand)
	assert.Equal(t, "text", byName["output"].Default)
	assert.Equal(t, "string", byName["output"].Type)
}

func TestWriteSchema(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSchema(&buf, testCommandTree()))

	var decoded CommandSchema
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "matchd", decoded.Name)
}

func TestFindCommand(t *testing.T) {
	root := testCommandTree()

	assert.Equal(t, "score", FindCommand(root, []string{"score"}).Name())
	assert.Equal(t, "score", FindCommand(root, []string{"score", "extra"}).Name())
	assert.Equal(t, "matchd", FindCommand(root, []string{"unknown"}).Name())
	assert.Equal(t, "matchd", FindCommand(root, nil).Name())
}
