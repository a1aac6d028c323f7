package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"serve", "import", "enrich", "migrate", "keys", "token"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "crm", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)

	require.NotNil(t, serveCmd.Flags().Lookup("migrate"))
}

func TestEnrichCommand_Subcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range enrichCmd.Commands() {
		names[c.Name()] = true
		assert.NotNil(t, c.Flags().Lookup("owner"), "%s should have --owner", c.Name())
		assert.NotNil(t, c.Flags().Lookup("provider"), "%s should have --provider", c.Name())
	}
	assert.True(t, names["person"])
	assert.True(t, names["company"])
	assert.True(t, names["bulk"])

	assert.NotNil(t, enrichPersonCmd.Flags().Lookup("id"))
	assert.NotNil(t, enrichBulkCmd.Flags().Lookup("ids"))
}

func TestPrintKeys(t *testing.T) {
	var buf bytes.Buffer
	printKeys(&buf, map[string]bool{"openai": true, "exa": false})
	assert.Equal(t, "exa          missing\nopenai       configured\n", buf.String())
}

func TestTokenCommand_Flags(t *testing.T) {
	flag := tokenCmd.Flags().Lookup("ttl")
	require.NotNil(t, flag)
	assert.Equal(t, "24h0m0s", flag.DefValue)
}
