package app

import (
	"fmt"
	"os"
	"strings"
)

// Run executes the CLI command and returns a process exit code.
func Run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 2
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "help", "--help", "-h":
		printUsage()
		return 0
	case "health":
		return runHealth(args[1:])
	case "duplication":
		return runDuplication(args[1:])
	case "uniqueness":
		return runUniqueness(args[1:])
	case "links":
		return runLinks(args[1:])
	case "cannibalization":
		return runCannibalization(args[1:])
	case "sweep":
		return runSweep(args[1:])
	case "serve":
		return runServe(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		printUsage()
		return 2
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "contentintel CLI")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  contentintel <command> [flags]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  health           Verify database connectivity")
	fmt.Fprintln(os.Stderr, "  duplication      Compare a post with the other posts of its silo")
	fmt.Fprintln(os.Stderr, "  uniqueness       Search excerpts of a post (or a live page) on the web")
	fmt.Fprintln(os.Stderr, "  links            Extract and reconcile the links of a post")
	fmt.Fprintln(os.Stderr, "  cannibalization  Find posts of a silo competing for the same intent")
	fmt.Fprintln(os.Stderr, "  sweep            Sync links and check cannibalization on a schedule")
	fmt.Fprintln(os.Stderr, "  serve            Start Echo API server")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Use \"contentintel <command> -h\" for command-specific flags.")
}
