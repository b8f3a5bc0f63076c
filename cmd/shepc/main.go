package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/shepstack/shep/internal/compiler"
)

const usage = `shepc - compiler for shep application specs

Usage:
  shepc check [--json] [--strict] <file.shep>   Parse and verify only
  shepc build -o <dir> [--verbose] <file.shep>  Generate schema, server, and client

Options:
  --json       Emit diagnostics as JSON (check)
  --strict     Treat warnings as errors (check)
  -o <dir>     Output directory (build)
  --verbose    Log pipeline stages to stderr (build)

Examples:
  shepc check app.shep                 Report every problem in one pass
  shepc check --json --strict app.shep Machine-readable, warnings fatal
  shepc build -o gen app.shep          Write gen/schema.sql, gen/server/, gen/client/
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	switch os.Args[1] {
	case "check":
		handleCheck(os.Args[2:])
	case "build":
		handleBuild(os.Args[2:])
	case "help", "--help", "-h":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func handleCheck(args []string) {
	asJSON := false
	strict := false
	var filePath string

	for _, arg := range args {
		switch arg {
		case "--json":
			asJSON = true
		case "--strict":
			strict = true
		default:
			if strings.HasPrefix(arg, "-") {
				fmt.Fprintf(os.Stderr, "Unknown option: %s\n", arg)
				os.Exit(1)
			}
			filePath = arg
		}
	}
	if filePath == "" {
		fmt.Fprintln(os.Stderr, "Error: no input file specified")
		os.Exit(1)
	}

	source, err := os.ReadFile(filePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %s\n", err)
		os.Exit(1)
	}

	diags := compiler.Check(filePath, string(source))
	if strict {
		diags.Escalate()
	}

	if asJSON {
		data, err := json.Marshal(diags)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding diagnostics: %s\n", err)
			os.Exit(1)
		}
		fmt.Println(string(data))
		if diags.HasErrors() {
			os.Exit(1)
		}
		return
	}

	if diags.Count() > 0 {
		fmt.Fprintln(os.Stderr, diags.Format(filePath))
	}
	if diags.HasErrors() {
		os.Exit(1)
	}
	fmt.Println("No errors found.")
}

func handleBuild(args []string) {
	outDir := ""
	verbose := false
	var filePath string

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-o":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "Error: -o requires a directory")
				os.Exit(1)
			}
			i++
			outDir = args[i]
		case "--verbose":
			verbose = true
		default:
			if strings.HasPrefix(args[i], "-") {
				fmt.Fprintf(os.Stderr, "Unknown option: %s\n", args[i])
				os.Exit(1)
			}
			filePath = args[i]
		}
	}
	if filePath == "" {
		fmt.Fprintln(os.Stderr, "Error: no input file specified")
		os.Exit(1)
	}
	if outDir == "" {
		fmt.Fprintln(os.Stderr, "Error: no output directory specified (use -o)")
		os.Exit(1)
	}

	source, err := os.ReadFile(filePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %s\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := compiler.DefaultOptions()
	if verbose {
		opts.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
			With().Timestamp().Logger().Level(zerolog.DebugLevel)
	}

	res, err := compiler.Compile(ctx, filePath, string(source), opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	if res.HasErrors() {
		fmt.Fprintln(os.Stderr, res.Diagnostics.Format(filePath))
		os.Exit(1)
	}
	if res.Diagnostics.Count() > 0 {
		fmt.Fprintln(os.Stderr, res.Diagnostics.Format(filePath))
	}

	if err := compiler.WriteOutput(ctx, res, outDir); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output: %s\n", err)
		os.Exit(1)
	}

	total := len(res.Extra)
	for _, files := range res.Outputs {
		total += len(files)
	}
	fmt.Printf("Wrote %d files to %s\n", total, outDir)
}
