package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Qubut/IP-Claim/internal/application/importer"
	"github.com/Qubut/IP-Claim/internal/intelligence/entity_extractor"
)

func newBufferedCommand() (*cobra.Command, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	cmd := &cobra.Command{Use: "test"}
	cmd.SetOut(buf)
	cmd.SetContext(context.Background())
	return cmd, buf
}

func TestVersionCommand(t *testing.T) {
	cmd := NewVersionCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)

	cmd.Run(cmd, nil)

	out := buf.String()
	assert.Contains(t, out, "ipclaim")
	assert.Contains(t, out, "commit:")
}

func TestGetCLIContextUninitialised(t *testing.T) {
	cmd, _ := newBufferedCommand()

	_, err := getCLIContext(cmd)
	require.Error(t, err)
}

func TestPrintMentionsJSON(t *testing.T) {
	cmd, buf := newBufferedCommand()

	mentions := []entity_extractor.Mention{
		{Text: "graphene", Label: "MATERIAL", Start: 0, End: 8},
	}
	require.NoError(t, printMentions(cmd, "json", mentions))
	assert.Contains(t, buf.String(), `"label": "MATERIAL"`)
}

func TestPrintMentionsTable(t *testing.T) {
	cmd, buf := newBufferedCommand()

	mentions := []entity_extractor.Mention{
		{Text: "graphene", Label: "MATERIAL", Start: 0, End: 8},
		{Text: "electrode", Label: "COMPONENT", Start: 12, End: 21},
	}
	require.NoError(t, printMentions(cmd, "table", mentions))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "LABEL")
	assert.Contains(t, lines[1], "graphene")
}

func TestPrintImportResult(t *testing.T) {
	cmd, buf := newBufferedCommand()

	result := &importer.Result{Scanned: 3, Inserted: 2, Skipped: 1}
	require.NoError(t, printImportResult(cmd, "table", result))
	assert.Contains(t, buf.String(), "inserted: 2")

	buf.Reset()
	require.NoError(t, printImportResult(cmd, "json", result))
	assert.Contains(t, buf.String(), `"Inserted": 2`)
}

func TestReadInputPrecedence(t *testing.T) {
	cmd, _ := newBufferedCommand()
	cmd.SetIn(strings.NewReader("from stdin"))

	text, err := readInput(cmd, &extractOptions{text: "from flag"})
	require.NoError(t, err)
	assert.Equal(t, "from flag", text)

	text, err = readInput(cmd, &extractOptions{})
	require.NoError(t, err)
	assert.Equal(t, "from stdin", text)
}

func TestReadInputEmptyStdin(t *testing.T) {
	cmd, _ := newBufferedCommand()
	cmd.SetIn(strings.NewReader(""))

	_, err := readInput(cmd, &extractOptions{})
	require.Error(t, err)
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := NewRootCommand()

	names := map[string]bool{}
	for _, sub := range root.Commands() {
		names[sub.Name()] = true
	}
	assert.True(t, names["import"])
	assert.True(t, names["extract"])
	assert.True(t, names["version"])
}
