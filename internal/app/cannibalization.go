package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/adalbafotos-dev/carrinhosbb-affiliate-platform-sub001/internal/cli"
)

func runCannibalization(args []string) int {
	fs := flag.NewFlagSet("cannibalization", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	siloID := fs.String("silo", "", "Silo UUID to analyze")
	withSerp := fs.Bool("serp", false, "Compare search results of each post keyword")
	timeout := fs.Duration("timeout", 2*time.Minute, "Command timeout")
	format := fs.String("format", outputFormatTable, "Output format: table or json")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if strings.TrimSpace(*siloID) == "" {
		fmt.Fprintln(os.Stderr, "--silo is required")
		return 2
	}
	outputFormat, err := parseOutputFormat(*format, outputFormatTable)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid format: %v\n", err)
		return 2
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	rt, err := openRuntime(ctx, envLoader, 0)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer rt.Close()

	if *withSerp && rt.searcher == nil {
		fmt.Fprintln(os.Stderr, "Warning: search is not configured; comparing content only")
	}

	report, err := rt.service().Cannibalization(ctx, strings.TrimSpace(*siloID), *withSerp)
	if err != nil {
		rt.logger.Error().Err(err).Str("silo_id", *siloID).Msg("cannibalization check failed")
		fmt.Fprintf(os.Stderr, "Cannibalization check failed: %v\n", err)
		return exitCodeFor(err)
	}
	if report.SerpError != "" {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", report.SerpError)
	}

	err = render(outputFormat, report, []string{"risk", "similarity", "serp", "post_a", "post_b", "shared"}, func() [][]string {
		rows := make([][]string, 0, len(report.Pairs))
		for _, pair := range report.Pairs {
			serp := "-"
			if pair.SerpOverlap != nil {
				serp = fmt.Sprintf("%.2f", *pair.SerpOverlap)
			}
			rows = append(rows, []string{
				string(pair.Risk),
				fmt.Sprintf("%.2f", pair.Similarity),
				serp,
				truncateForTable(pair.PostATitle, 40),
				truncateForTable(pair.PostBTitle, 40),
				strings.Join(pair.SharedTerms, " "),
			})
		}
		return rows
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render report: %v\n", err)
		return 1
	}
	return 0
}
