package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/adalbafotos-dev/carrinhosbb-affiliate-platform-sub001/internal/analysis"
	"github.com/adalbafotos-dev/carrinhosbb-affiliate-platform-sub001/internal/cli"
	"github.com/adalbafotos-dev/carrinhosbb-affiliate-platform-sub001/internal/reader"
)

func runDuplication(args []string) int {
	fs := flag.NewFlagSet("duplication", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	postID := fs.String("post", "", "Post UUID to analyze")
	timeout := fs.Duration("timeout", time.Minute, "Command timeout")
	format := fs.String("format", outputFormatTable, "Output format: table or json")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if strings.TrimSpace(*postID) == "" {
		fmt.Fprintln(os.Stderr, "--post is required")
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

	result, err := rt.service().RunDuplication(ctx, strings.TrimSpace(*postID))
	if err != nil {
		rt.logger.Error().Err(err).Str("post_id", *postID).Msg("duplication check failed")
		fmt.Fprintf(os.Stderr, "Duplication check failed: %v\n", err)
		return exitCodeFor(err)
	}
	return printReport(outputFormat, result)
}

func runUniqueness(args []string) int {
	fs := flag.NewFlagSet("uniqueness", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	postID := fs.String("post", "", "Post UUID to analyze")
	pageURL := fs.String("url", "", "Live page to fetch and analyze instead of a stored post")
	lang := fs.String("lang", "", "Language tag of the page (detected when empty)")
	timeout := fs.Duration("timeout", 3*time.Minute, "Command timeout")
	format := fs.String("format", outputFormatTable, "Output format: table or json")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	hasPost := strings.TrimSpace(*postID) != ""
	hasURL := strings.TrimSpace(*pageURL) != ""
	if hasPost == hasURL {
		fmt.Fprintln(os.Stderr, "exactly one of --post or --url is required")
		return 2
	}
	outputFormat, err := parseOutputFormat(*format, outputFormatTable)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid format: %v\n", err)
		return 2
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var rt *runtime
	if hasURL {
		rt, err = openSearchRuntime(ctx, envLoader)
	} else {
		rt, err = openRuntime(ctx, envLoader, 0)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer rt.Close()

	service := rt.service()
	var result analysis.ReportResult
	if hasURL {
		page, fetchErr := reader.FetchPage(ctx, strings.TrimSpace(*pageURL), reader.FetchOptions{})
		if fetchErr != nil {
			fmt.Fprintf(os.Stderr, "Failed to fetch page: %v\n", fetchErr)
			return 1
		}
		rt.logger.Info().Str("url", page.URL).Str("title", page.Title).Msg("page fetched")
		result, err = service.InspectText(ctx, page.Text, *lang)
	} else {
		result, err = service.RunUniqueness(ctx, strings.TrimSpace(*postID))
	}
	if err != nil {
		rt.logger.Error().Err(err).Msg("uniqueness check failed")
		fmt.Fprintf(os.Stderr, "Uniqueness check failed: %v\n", err)
		return exitCodeFor(err)
	}
	if result.Warning != "" {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", result.Warning)
	}
	return printReport(outputFormat, result)
}

func printReport(format string, result analysis.ReportResult) int {
	if format == outputFormatTable {
		report := result.Report
		fmt.Printf("uniqueness %d/100 (%s), %d of %d chunks suspect\n",
			report.UniquenessScore, report.Risk, report.SuspectChunks, report.CheckedChunks)
		fmt.Println(report.Summary)
		if len(report.Matches) == 0 {
			return 0
		}
		fmt.Println()
	}

	err := render(format, result, []string{"score", "risk", "source", "excerpt"}, func() [][]string {
		rows := make([][]string, 0, len(result.Report.Matches))
		for _, match := range result.Report.Matches {
			source := match.SourceSlug
			if source == "" {
				source = match.SourceURL
			}
			rows = append(rows, []string{
				fmt.Sprintf("%.2f", match.Score),
				string(match.Risk),
				truncateForTable(source, 48),
				truncateForTable(match.Excerpt, 72),
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

// exitCodeFor maps missing records to 3 so scripts can tell them apart from
// failures.
func exitCodeFor(err error) int {
	if errors.Is(err, analysis.ErrPostNotFound) || errors.Is(err, analysis.ErrSiloNotFound) {
		return 3
	}
	return 1
}
