package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/adalbafotos-dev/carrinhosbb-affiliate-platform-sub001/internal/cli"
)

func runLinks(args []string) int {
	fs := flag.NewFlagSet("links", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	postID := fs.String("post", "", "Post UUID")
	list := fs.Bool("list", false, "List stored occurrences instead of syncing")
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

	service := rt.service()
	id := strings.TrimSpace(*postID)

	if *list {
		occurrences, err := service.LinkReport(ctx, id)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to list links: %v\n", err)
			return exitCodeFor(err)
		}
		err = render(outputFormat, occurrences, []string{"type", "offset", "anchor", "href", "target"}, func() [][]string {
			rows := make([][]string, 0, len(occurrences))
			for _, o := range occurrences {
				offset := ""
				if o.TextOffset != nil {
					offset = strconv.Itoa(*o.TextOffset)
				}
				target := ""
				if o.TargetDocID != nil {
					target = *o.TargetDocID
				}
				rows = append(rows, []string{o.LinkType, offset, truncateForTable(o.AnchorText, 32), truncateForTable(o.Href, 64), target})
			}
			return rows
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to render links: %v\n", err)
			return 1
		}
		return 0
	}

	result, err := service.SyncLinks(ctx, id)
	if err != nil {
		rt.logger.Error().Err(err).Str("post_id", id).Msg("link sync failed")
		fmt.Fprintf(os.Stderr, "Link sync failed: %v\n", err)
		return exitCodeFor(err)
	}
	if len(result.Result.DroppedColumns) > 0 {
		fmt.Fprintf(os.Stderr, "Warning: columns missing from link table: %s\n", strings.Join(result.Result.DroppedColumns, ", "))
	}

	if outputFormat == outputFormatTable {
		c := result.Counts
		fmt.Printf("%d links (%d internal, %d silo, %d external, %d affiliate, %d resolved)\n",
			c.Total, c.Internal, c.SiloInternal, c.External, c.Affiliate, c.Resolved)
		fmt.Printf("kept %d, inserted %d, deleted %d\n\n", result.Result.Kept, result.Result.Inserted, result.Result.Deleted)
	}
	err = render(outputFormat, result, []string{"type", "position", "rel", "anchor", "href"}, func() [][]string {
		rows := make([][]string, 0, len(result.Links))
		for _, link := range result.Links {
			rel := make([]string, 0, 3)
			if link.Rel.NoFollow {
				rel = append(rel, "nofollow")
			}
			if link.Rel.Sponsored {
				rel = append(rel, "sponsored")
			}
			if link.Rel.UGC {
				rel = append(rel, "ugc")
			}
			rows = append(rows, []string{
				string(link.Type),
				string(link.Position),
				strings.Join(rel, " "),
				truncateForTable(link.AnchorText, 32),
				truncateForTable(link.Href, 64),
			})
		}
		return rows
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render links: %v\n", err)
		return 1
	}
	return 0
}
