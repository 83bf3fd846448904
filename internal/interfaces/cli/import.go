package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Qubut/IP-Claim/internal/application/importer"
	"github.com/Qubut/IP-Claim/internal/infrastructure/database/postgres"
	"github.com/Qubut/IP-Claim/internal/infrastructure/database/postgres/repositories"
	"github.com/Qubut/IP-Claim/internal/infrastructure/messaging/kafka"
	"github.com/Qubut/IP-Claim/internal/infrastructure/search/opensearch"
	"github.com/Qubut/IP-Claim/internal/infrastructure/storage/minio"
)

type importOptions struct {
	dir        string
	fromBucket bool
	prefix     string
}

// NewImportCmd builds the bulk-import subcommand.
func NewImportCmd() *cobra.Command {
	opts := &importOptions{}

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Bulk-import HUPD patent JSON files",
		Long: "Imports HUPD patent application JSON files from a local directory or\n" +
			"an object-storage bucket: parse, deduplicate, persist, index, and\n" +
			"announce each import on the event bus.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runImport(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.dir, "dir", "", "directory of HUPD JSON files (default: importer.source_dir)")
	cmd.Flags().BoolVar(&opts.fromBucket, "from-bucket", false, "read documents from the configured MinIO bucket")
	cmd.Flags().StringVar(&opts.prefix, "prefix", "", "object key prefix when reading from the bucket")

	return cmd
}

func runImport(cmd *cobra.Command, opts *importOptions) error {
	cliCtx, err := getCLIContext(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	cfg := cliCtx.Config
	log := cliCtx.Logger

	conn, err := postgres.NewConnection(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer conn.Close()
	repo := repositories.NewPatentRepository(conn.Pool(), log)

	var indexer importer.Indexer
	if len(cfg.OpenSearch.Addresses) > 0 {
		osClient, err := opensearch.NewClient(ctx, cfg.OpenSearch, log)
		if err != nil {
			return err
		}
		patentIndexer := opensearch.NewPatentIndexer(osClient,
			cfg.OpenSearch.IndexPrefix, cfg.OpenSearch.BulkBatchSize, log)
		if err := patentIndexer.EnsureIndex(ctx); err != nil {
			return err
		}
		indexer = patentIndexer
	} else {
		log.Warn("OpenSearch not configured; skipping search indexing")
	}

	var publisher importer.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := kafka.NewProducer(cfg.Kafka, log)
		if err != nil {
			return err
		}
		defer producer.Close()
		publisher = producer
	} else {
		log.Warn("Kafka not configured; import events will not be published")
	}

	source, err := buildSource(cmd, opts, cliCtx)
	if err != nil {
		return err
	}

	service, err := importer.NewService(cfg.Importer, repo, indexer, publisher, nil, log)
	if err != nil {
		return err
	}

	result, err := service.Run(ctx, source)
	if err != nil {
		return err
	}
	return printImportResult(cmd, cliCtx.Output, result)
}

func buildSource(cmd *cobra.Command, opts *importOptions, cliCtx *CLIContext) (importer.Source, error) {
	if opts.fromBucket {
		client, err := minio.NewClient(cmd.Context(), cliCtx.Config.MinIO, cliCtx.Logger)
		if err != nil {
			return nil, err
		}
		store := minio.NewDocumentStore(client, cliCtx.Logger)
		return importer.NewBucketSource(store, opts.prefix), nil
	}

	dir := opts.dir
	if dir == "" {
		dir = cliCtx.Config.Importer.SourceDir
	}
	if dir == "" {
		return nil, fmt.Errorf("no source: pass --dir, set importer.source_dir, or use --from-bucket")
	}
	return importer.NewDirSource(dir)
}

func printImportResult(cmd *cobra.Command, output string, result *importer.Result) error {
	out := cmd.OutOrStdout()
	if output == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	fmt.Fprintf(out, "scanned:  %d\ninserted: %d\nskipped:  %d\nfailed:   %d\n",
		result.Scanned, result.Inserted, result.Skipped, result.Failed)
	return nil
}
