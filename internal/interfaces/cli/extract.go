package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Qubut/IP-Claim/internal/intelligence/annotator"
	"github.com/Qubut/IP-Claim/internal/intelligence/entity_extractor"
)

type extractOptions struct {
	file string
	text string
}

// NewExtractCmd builds the ad-hoc extraction subcommand.  It annotates text
// from a file, the --text flag, or stdin, and prints the mentions.
func NewExtractCmd() *cobra.Command {
	opts := &extractOptions{}

	cmd := &cobra.Command{
		Use:   "extract [file]",
		Short: "Extract entity mentions from text",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.file = args[0]
			}
			return runExtract(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.text, "text", "", "text to extract from (overrides file/stdin)")

	return cmd
}

func runExtract(cmd *cobra.Command, opts *extractOptions) error {
	cliCtx, err := getCLIContext(cmd)
	if err != nil {
		return err
	}
	cfg := cliCtx.Config

	text, err := readInput(cmd, opts)
	if err != nil {
		return err
	}

	engine, err := annotator.NewClient(annotator.Config{
		BaseURL:        cfg.Annotator.BaseURL,
		RequestTimeout: cfg.Annotator.RequestTimeout,
		MaxRetries:     cfg.Annotator.MaxRetries,
		RetryBackoff:   cfg.Annotator.RetryBackoff,
	}, cliCtx.Logger)
	if err != nil {
		return err
	}

	extractor := entity_extractor.New(engine, entity_extractor.Config{
		MaxChunkSize:   cfg.Extraction.MaxChunkSize,
		BoundaryWindow: cfg.Extraction.BoundaryWindow,
	}, cliCtx.Logger)

	mentions, err := extractor.Extract(cmd.Context(), text)
	if err != nil {
		return err
	}
	return printMentions(cmd, cliCtx.Output, mentions)
}

func readInput(cmd *cobra.Command, opts *extractOptions) (string, error) {
	if opts.text != "" {
		return opts.text, nil
	}
	if opts.file != "" {
		data, err := os.ReadFile(opts.file)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", fmt.Errorf("no input: pass a file, --text, or pipe text on stdin")
	}
	return string(data), nil
}

func printMentions(cmd *cobra.Command, output string, mentions []entity_extractor.Mention) error {
	out := cmd.OutOrStdout()
	if output == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(mentions)
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TEXT\tLABEL\tSTART\tEND")
	for _, m := range mentions {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", m.Text, m.Label, m.Start, m.End)
	}
	return w.Flush()
}
