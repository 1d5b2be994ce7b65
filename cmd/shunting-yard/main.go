package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/goccy/go-json"
	"github.com/jessevdk/go-flags"
	"github.com/karupanerura/shunting-yard/internal/batch"
	"github.com/karupanerura/shunting-yard/internal/server"
	"github.com/karupanerura/shunting-yard/internal/types"
	"github.com/mattn/go-isatty"
)

type Option struct {
	Exprs    []string `short:"e" long:"expr" description:"[OPTIONAL] Expression to parse (repeatable)" required:"false"`
	File     string   `short:"f" long:"file" description:"[OPTIONAL] Batch file of expressions (YAML or JSON)" required:"false"`
	Listen   string   `short:"l" long:"listen" description:"[OPTIONAL] Listen host and port to serve the parse API" required:"false"`
	Format   string   `long:"format" description:"[OPTIONAL] Output format" choice:"sexpr" choice:"json" default:"sexpr"`
	MaxDepth int      `long:"max-depth" description:"[OPTIONAL] Maximum nesting of parentheses and prefix operators" default:"0"`
	FailFast bool     `long:"fail-fast" description:"[OPTIONAL] Stop at the first expression that fails to parse"`
	Debug    bool     `long:"debug" description:"[OPTIONAL] Trace the parser"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	var opt Option
	parser := flags.NewParser(&opt, flags.Default)
	_, err := parser.ParseArgs(args)
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			return 0
		} else {
			parser.WriteHelp(stdout)
			return 1
		}
	}
	if opt.Listen != "" && (opt.File != "" || len(opt.Exprs) != 0) {
		parser.WriteHelp(stdout)
		return 1
	}
	if opt.File != "" && len(opt.Exprs) != 0 {
		parser.WriteHelp(stdout)
		return 1
	}

	// server mode
	if opt.Listen != "" {
		err = serveParser(opt.Listen, server.Options{MaxDepth: opt.MaxDepth, Debug: opt.Debug})
		if err != nil {
			log.Printf("failed to serve parser: %v", err)
			return 1
		}
		return 0
	}

	var b *batch.Batch
	switch {
	case opt.File != "":
		b, err = loadBatch(opt.File)
		if err != nil {
			log.Printf("failed to load batch: %v", err)
			return 1
		}
	case len(opt.Exprs) != 0:
		b = batch.NewBatch(opt.Exprs...)
	default:
		parser.WriteHelp(stdout)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results, err := b.Parse(ctx, batch.Options{MaxDepth: opt.MaxDepth, Debug: opt.Debug, FailFast: opt.FailFast})
	if err != nil {
		dumpError(stderr, err)
		return 1
	}

	switch opt.Format {
	case "json":
		if err = dumpJSON(stdout, results, false); err != nil {
			log.Printf("failed to dump results: %v", err)
			return 1
		}
	default:
		if err = dumpSExpr(stdout, stderr, results); err != nil {
			log.Printf("failed to dump results: %v", err)
			return 1
		}
	}

	if len(batch.Failed(results)) != 0 {
		return 1
	}
	return 0
}

func loadBatch(filePath string) (*batch.Batch, error) {
	var parseBatch func(io.Reader) (*batch.Batch, error)
	switch filepath.Ext(filePath) {
	case ".json":
		parseBatch = batch.ParseBatchJSON
	case ".yaml", ".yml":
		parseBatch = batch.ParseBatchYAML
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", filePath)
	}

	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("os.Open(%q): %w", filePath, err)
	}
	defer f.Close()

	b, err := parseBatch(f)
	if err != nil {
		return nil, fmt.Errorf("batch.ParseBatch: %w", err)
	}
	return b, nil
}

func serveParser(listen string, opts server.Options) error {
	srv := http.Server{
		Handler: server.NewHTTPHandler(opts),
		Addr:    listen,
	}

	log.Printf("Listen HTTP on %s", listen)
	if err := srv.ListenAndServe(); errors.Is(err, http.ErrServerClosed) {
		return nil
	} else if err != nil {
		return err
	}
	return nil
}

func dumpSExpr(stdout, stderr io.Writer, results []*batch.Result) error {
	for _, r := range results {
		if !r.Succeeded() {
			if _, err := fmt.Fprintf(stderr, "%s: %v\n", r.Name, r.Err); err != nil {
				return fmt.Errorf("fmt.Fprintf: %w", err)
			}
			if err := dumpJSON(stderr, r.Error, true); err != nil {
				return err
			}
			continue
		}

		line := r.SExpr
		if len(results) != 1 {
			line = r.Name + ": " + line
		}
		if _, err := fmt.Fprintln(stdout, line); err != nil {
			return fmt.Errorf("fmt.Fprintln: %w", err)
		}
	}
	return nil
}

func dumpError(w io.Writer, err error) {
	var exception types.Exception
	if !errors.As(err, &exception) {
		log.Printf("failed to parse: %v", err)
		return
	}

	if _, err := fmt.Fprintln(w, err.Error()); err != nil {
		log.Printf("failed to dump parse error: %v", err)
	}
	if err := dumpJSON(w, exception.Exception(), true); err != nil {
		log.Printf("failed to dump parse error as JSON: %v", err)
	}
}

// dumpJSON writes v as JSON. Trees are written compact since indenting them
// grows the output with the square of their depth.
func dumpJSON(w io.Writer, v any, indent bool) error {
	opts := []json.EncodeOptionFunc{json.DisableHTMLEscape()}
	if f, ok := w.(interface{ Fd() uintptr }); ok {
		if isatty.IsTerminal(f.Fd()) {
			opts = append(opts, json.Colorize(json.DefaultColorScheme))
		}
	}

	var (
		b   []byte
		err error
	)
	if indent {
		b, err = json.MarshalIndentWithOption(v, "", "\t", opts...)
	} else {
		b, err = json.MarshalWithOption(v, opts...)
	}
	if err != nil {
		return fmt.Errorf("json.Marshal: %w", err)
	}

	if _, err = w.Write(b); err != nil {
		return fmt.Errorf("w.Write: %w", err)
	}
	if _, err = io.WriteString(w, "\n"); err != nil {
		return fmt.Errorf("io.WriteString: %w", err)
	}
	return nil
}
