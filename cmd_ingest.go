package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/xiaot623/gogo/datachat/internal/adapter/llm"
	"github.com/xiaot623/gogo/datachat/internal/config"
	"github.com/xiaot623/gogo/datachat/internal/ingest"
	"github.com/xiaot623/gogo/datachat/internal/logging"
	"github.com/xiaot623/gogo/datachat/internal/prompt"
	"github.com/xiaot623/gogo/datachat/internal/schema"
)

var (
	ingestStore  string
	ingestTable  string
	ingestPrompt bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file.csv>",
	Short: "Load a CSV file into a store and print its schema",
	Long: `Load a CSV file into a SQLite store the same way an upload does and
print the resulting schema description.

With --prompt the system prompt is synthesized as well, using the
configured analyzer model (or the mock client when GOGO_MODE=MOCK).`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestStore, "store", "", "store path (default: <file>.db next to the CSV)")
	ingestCmd.Flags().StringVar(&ingestTable, "table", "", "table name (default: derived from the file name)")
	ingestCmd.Flags().BoolVar(&ingestPrompt, "prompt", false, "also synthesize and print the system prompt")
}

func runIngest(cmd *cobra.Command, args []string) error {
	path := args[0]
	storePath := ingestStore
	if storePath == "" {
		storePath = path[:len(path)-len(filepath.Ext(path))] + ".db"
	}
	table := ingestTable
	if table == "" {
		table = ingest.TableName(filepath.Base(path))
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	result, err := ingest.LoadCSV(ctx, f, storePath, ingest.Sanitize(table))
	if err != nil {
		return err
	}
	schemaText, err := schema.Describe(ctx, storePath)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Loaded %d rows into table %q (%s)\n\n", result.Rows, result.Table, storePath)
	fmt.Fprintln(out, schemaText)

	if !ingestPrompt {
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	client := llm.NewLLMClient(cfg.Mode, cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.LLMTimeout, logger)
	systemPrompt, fallback := prompt.NewSynthesizer(client, cfg.AnalyzerModel, logger).Synthesize(ctx, schemaText, result.Table)
	if fallback {
		fmt.Fprintln(out, "\n(analysis unavailable, using fallback prompt)")
	}
	fmt.Fprintf(out, "\n%s\n", systemPrompt)
	return nil
}
