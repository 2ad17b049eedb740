// Command datachat serves the CSV chat assistant and its companion tools.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "datachat",
	Short: "Chat with an uploaded CSV file through an LLM assistant",
	Long: `datachat loads CSV uploads into per-session SQLite stores and answers
questions about them through an assistant that may run read-only SQL.

Available commands:
  serve  - Run the HTTP server
  ingest - Load a CSV file into a store and print its schema
  chat   - Chat with a running server from the terminal`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, ingestCmd, chatCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
