package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/vibecheck/vibecheck/internal/output"
)

var (
	cacheListOutput   string
	cacheClearExpired bool
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the analysis cache",
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached analyses",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := output.ParseFormat(cacheListOutput)
		if err != nil {
			return err
		}
		if format != output.FormatJSON && format != output.FormatTable {
			return fmt.Errorf("unsupported output format: %s", format)
		}

		db, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		entries, err := db.ListCachedAnalyses(cmd.Context())
		if err != nil {
			return err
		}

		if format == output.FormatJSON {
			payload, err := json.MarshalIndent(entries, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(payload))
			return nil
		}

		t := table.NewWriter()
		t.SetStyle(table.StyleRounded)
		t.AppendHeader(table.Row{"Title", "Provider", "Model", "Tags", "Cached", "Expires"})
		now := time.Now()
		for _, entry := range entries {
			tags := ""
			if entry.Result != nil {
				tags = strings.Join(entry.Result.Analysis.VibeTags, ", ")
			}
			expires := entry.ExpiresAt.Format(time.RFC3339)
			if entry.ExpiresAt.Before(now) {
				expires += " (expired)"
			}
			t.AppendRow(table.Row{
				entry.Title,
				entry.Provider,
				entry.Model,
				tags,
				entry.CreatedAt.Format(time.RFC3339),
				expires,
			})
		}
		fmt.Println(t.Render())
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear cached analyses",
	Long:  "Clear cached analyses. By default all entries are removed; use --expired to remove only entries past their TTL.",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		removed, err := db.ClearCache(cmd.Context(), cacheClearExpired)
		if err != nil {
			return err
		}

		fmt.Printf("Removed %d cached analyses\n", removed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheClearCmd)

	cacheListCmd.Flags().StringVar(&cacheListOutput, "output", "table", "Output format: table, json")
	cacheClearCmd.Flags().BoolVar(&cacheClearExpired, "expired", false, "only remove expired entries")
}
