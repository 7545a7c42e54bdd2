package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vibecheck/vibecheck/internal/api"
	"github.com/vibecheck/vibecheck/internal/config"
	"github.com/vibecheck/vibecheck/internal/observability"
	"github.com/vibecheck/vibecheck/internal/output"
	"github.com/vibecheck/vibecheck/internal/query"
)

var checkCmd = &cobra.Command{
	Use:   "check <movie title>",
	Short: "Check the vibe of a movie",
	Long:  "Ask the analysis service for a movie's vibe: a sentiment summary, vibe tags, and an intensity score distilled from audience reviews.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().String("output", "table", "Output format: table, json, markdown")
	checkCmd.Flags().String("api-url", "", "Analysis service base URL (overrides config)")
	checkCmd.Flags().Duration("timeout", 60*time.Second, "Request timeout")
}

func runCheck(cmd *cobra.Command, args []string) error {
	title := strings.TrimSpace(strings.Join(args, " "))
	if title == "" {
		return errors.New("movie title is required")
	}

	formatValue, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	format, err := output.ParseFormat(formatValue)
	if err != nil {
		return err
	}

	apiURL, err := cmd.Flags().GetString("api-url")
	if err != nil {
		return err
	}
	timeout, err := cmd.Flags().GetDuration("timeout")
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if strings.TrimSpace(apiURL) == "" {
		apiURL = cfg.API.BaseURL
	}

	client := api.New(apiURL)
	client.Timeout = timeout

	controller := query.NewController(client)
	controller.SetQuery(title)

	startedAt := time.Now()
	controller.CheckVibe(cmd.Context())

	if msg := controller.Err(); msg != "" {
		return errors.New(msg)
	}

	result := controller.Result()
	if result == nil {
		return errors.New("no result returned")
	}

	formatter := output.NewFormatter(format)
	rendered, err := formatter.FormatResult(result)
	if err != nil {
		return err
	}
	if rendered != "" {
		fmt.Println(rendered)
	}

	if format != output.FormatJSON && observability.CLILogger != nil {
		observability.CLILogger.Debug("vibe check completed",
			zap.String("title", title),
			zap.Duration("elapsed", time.Since(startedAt)))
	}
	return nil
}
