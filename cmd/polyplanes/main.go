// cmd/polyplanes/main.go — batch derivation of exact face planes
//
// Reads cached polyhedron definition files and prints one declaration
// module with every face plane embedded in an algebraic number field.
//
// Usage:
//
//	go run ./cmd/polyplanes -dir polyhedra -format ts > planes.ts
//	go run ./cmd/polyplanes -config polyplanes.toml -shapes T,C,O -format json
//
// Logs go to stderr; stdout carries only the generated declarations.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	exactpoly "github.com/njchilds90/exactpoly"
	"golang.org/x/term"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "polyplanes:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "TOML configuration file")
	dir := flag.String("dir", "", "Directory of cached <Name>.txt definition files")
	format := flag.String("format", "", "Output format: ts, json or yaml")
	backend := flag.String("backend", "", "Backend: field or symbolic")
	normalize := flag.String("normalize", "", "Plane normalization: offset or raw")
	maxDegree := flag.Int("max-degree", 0, "Maximum number field degree")
	shapes := flag.String("shapes", "", "Comma-separated shape codes (default: all)")
	strict := flag.Bool("strict", false, "Treat plane diagnostics as fatal")
	extended := flag.Bool("extended", false, "Add prisms, antiprisms and other shapes outside the default table")
	verbose := flag.Bool("v", false, "Enable debug logging")
	dumpAST := flag.Bool("dump-ast", false, "Print parsed expression trees as JSON and exit")
	flag.Parse()

	logger := newLogger(*verbose)
	slog.SetDefault(logger)

	cfg := exactpoly.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = exactpoly.LoadConfig(*configPath); err != nil {
			return err
		}
	}
	if *dir != "" {
		cfg.InputDir = *dir
	}
	if *format != "" {
		cfg.Format = exactpoly.Format(*format)
	}
	if *backend != "" {
		cfg.Backend = exactpoly.BackendKind(*backend)
	}
	if *normalize != "" {
		cfg.Normalize = exactpoly.Normalization(*normalize)
	}
	if *maxDegree > 0 {
		cfg.MaxDegree = *maxDegree
	}
	if *strict {
		cfg.StrictSymmetry = true
	}
	if *extended {
		cfg = cfg.WithExtendedShapes()
	}

	var codes []string
	if *shapes != "" {
		for _, c := range strings.Split(*shapes, ",") {
			if c = strings.TrimSpace(c); c != "" {
				codes = append(codes, c)
			}
		}
	}
	entries, err := cfg.Select(codes)
	if err != nil {
		return err
	}

	p, err := exactpoly.NewPipeline(cfg, exactpoly.DirSource{Dir: cfg.InputDir}, exactpoly.WithLogger(logger))
	if err != nil {
		return err
	}

	if *dumpAST {
		var defs []*exactpoly.ShapeDefinition
		for _, e := range entries {
			s, err := p.LoadShape(e)
			if err != nil {
				return err
			}
			defs = append(defs, s)
		}
		return exactpoly.DumpAST(os.Stdout, defs)
	}

	res, err := p.Run(entries)
	if err != nil {
		return err
	}
	// Buffer so a failing emitter leaves stdout empty.
	var buf bytes.Buffer
	if err := exactpoly.Emit(&buf, res, cfg.Format); err != nil {
		return err
	}
	_, err = buf.WriteTo(os.Stdout)
	return err
}

// newLogger writes text logs to an interactive stderr and JSON logs
// otherwise.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if term.IsTerminal(int(os.Stderr.Fd())) {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}
