package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"whitelabel/apps/backend/internal/model"
)

func TestRootCommandTree(t *testing.T) {
	root := rootCmd()

	for _, name := range []string{"run", "once", "force", "stats"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}

	run, _, err := root.Find([]string{"run"})
	require.NoError(t, err)
	assert.NotNil(t, run.Flags().Lookup("interval"))
	assert.NotNil(t, root.PersistentFlags().Lookup("batch-size"))
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printJSON(&buf, model.PassResult{Candidates: 3, Resolved: 2, Pending: 1}))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, 3.0, decoded["candidates"])
	assert.Equal(t, 2.0, decoded["resolved"])
	assert.Equal(t, 1.0, decoded["pending"])
}

func TestCommandFailsWithoutConfig(t *testing.T) {
	t.Setenv("RPC_URL", "")
	t.Setenv("RPC_URL_TESTNET", "")
	t.Setenv("DB_URL", "")
	t.Setenv("NETWORK", "testnet")

	root := rootCmd()
	root.SetArgs([]string{"stats"})
	root.SetOut(&bytes.Buffer{})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_URL")
}
