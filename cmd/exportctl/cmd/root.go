package cmd

import (
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Rrens/nlsql/internal/client"
)

// CLI flags shared by every subcommand
var (
	serverURL      string
	token          string
	outputDir      string
	bom            string
	lineTerminator string
	escaping       string
	timeout        time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "exportctl",
	Short: "Download CSV exports from the export server",
	Long: `exportctl fetches table and result-set exports from a running export
server and saves them as CSV files, using the filename the server suggests.

Example:
  exportctl table users orders --out ./exports
  exportctl results query.json --server http://localhost:8080`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", envOr("EXPORT_SERVER", "http://localhost:8080"),
		"Base URL of the export server")
	rootCmd.PersistentFlags().StringVarP(&token, "token", "t", os.Getenv("EXPORT_TOKEN"),
		"Bearer token sent with each request")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "out", "o", ".",
		"Directory the CSV files are written to")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Minute,
		"Overall timeout for each download")

	// CSV overrides; empty keeps the server defaults
	rootCmd.PersistentFlags().StringVar(&bom, "bom", "",
		"Override the byte order mark (true, false)")
	rootCmd.PersistentFlags().StringVar(&lineTerminator, "line-terminator", "",
		"Override the line terminator (crlf, lf)")
	rootCmd.PersistentFlags().StringVar(&escaping, "escaping", "",
		"Override formula escaping (standard, defensive)")
}

func newClient() *client.Client {
	q := url.Values{}
	if bom != "" {
		q.Set("bom", bom)
	}
	if lineTerminator != "" {
		q.Set("line_terminator", lineTerminator)
	}
	if escaping != "" {
		q.Set("escaping", escaping)
	}

	return client.New(serverURL,
		client.WithHTTPClient(&http.Client{Timeout: timeout}),
		client.WithToken(token),
		client.WithQuery(q),
	)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
