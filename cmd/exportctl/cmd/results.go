package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Rrens/nlsql/internal/domain"
)

var resultsFilename string

var resultsCmd = &cobra.Command{
	Use:   "results <file.json|->",
	Short: "Convert a JSON result set to CSV on the server",
	Long: `Results posts a result set ({"columns": [...], "rows": [{...}]}) read
from a file, or stdin when the argument is "-", and saves the returned CSV.

Example:
  exportctl results query.json --filename monthly_report`,
	Args: cobra.ExactArgs(1),
	RunE: runResults,
}

func init() {
	resultsCmd.Flags().StringVar(&resultsFilename, "filename", "",
		"Filename hint for the export (sanitized by the server)")
	rootCmd.AddCommand(resultsCmd)
}

func runResults(cmd *cobra.Command, args []string) error {
	var r io.Reader = cmd.InOrStdin()
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open results: %w", err)
		}
		defer f.Close()
		r = f
	}

	var req domain.ResultExportRequest
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		return fmt.Errorf("failed to parse results: %w", err)
	}
	if resultsFilename != "" {
		req.Filename = resultsFilename
	}

	path, err := newClient().DownloadResults(cmd.Context(), req, outputDir)
	if err != nil {
		return err
	}

	cmd.Printf("%d rows -> %s\n", len(req.Rows), path)
	return nil
}
