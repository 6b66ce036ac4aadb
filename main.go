package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/davecgh/go-spew/spew"
	"github.com/fatih/color"
	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/firodj/covsora/internal"
)

type app struct {
	input   string
	verbose bool

	doc *internal.CovDocument
}

func (a *app) load() (*internal.CovDocument, error) {
	if a.doc != nil {
		return a.doc, nil
	}
	if a.input == "" {
		return nil, errors.New("missing -i <drcov log>")
	}
	doc, err := internal.NewCovDocument(a.input)
	if err != nil {
		return nil, err
	}
	a.doc = doc
	return doc, nil
}

func (a *app) printWarnings(doc *internal.CovDocument) {
	warnings := doc.Index.Warnings()
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "WARNING:\t%s\n", w.Warning())
	}
	if a.verbose && len(warnings) > 0 {
		spew.Fdump(os.Stderr, warnings)
	}
}

func reportCommand(a *app) *ffcli.Command {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	var asYaml bool
	fs.BoolVar(&asYaml, "yaml", false, "emit a yaml summary instead of text")

	heading := color.New(color.FgCyan, color.Bold)

	return &ffcli.Command{
		Name:       "report",
		ShortUsage: "report [-yaml]",
		FlagSet:    fs,
		Exec: func(ctx context.Context, args []string) error {
			doc, err := a.load()
			if err != nil {
				return err
			}
			a.printWarnings(doc)

			if asYaml {
				return doc.Summary().WriteYAML(os.Stdout)
			}

			for _, mod := range doc.Index.Modules() {
				if mod.Base != nil && mod.End != nil {
					heading.Printf("Module %d: %s @ 0x%x-0x%x\n", mod.ID, mod.Filename, *mod.Base, *mod.End)
				} else {
					heading.Printf("Module %d: %s\n", mod.ID, mod.Filename)
				}

				blocks, err := doc.Index.BlocksByModuleID(mod.ID)
				if err != nil {
					return err
				}
				fmt.Printf("  Basic Blocks: %d\n", len(blocks))
				if a.verbose {
					for _, bb := range blocks {
						fmt.Printf("    Block @ 0x%x of size %d (hits %d)\n", bb.Offset, bb.Size, bb.HitCount)
					}
				}
			}
			return nil
		},
	}
}

func hitcountsCommand(a *app) *ffcli.Command {
	fs := flag.NewFlagSet("hitcounts", flag.ExitOnError)
	var module string
	fs.StringVar(&module, "module", "", "module filename or id")

	return &ffcli.Command{
		Name:       "hitcounts",
		ShortUsage: "hitcounts -module <name|id>",
		FlagSet:    fs,
		Exec: func(ctx context.Context, args []string) error {
			if module == "" {
				return errors.New("missing -module")
			}
			doc, err := a.load()
			if err != nil {
				return err
			}
			a.printWarnings(doc)

			hits, err := doc.Index.HitCountMapByModule(module)
			if err != nil {
				return err
			}
			for _, hc := range hits {
				fmt.Printf("0x%08x\t%d\n", hc.Start, hc.Count)
			}
			return nil
		},
	}
}

func exportCommand(a *app) *ffcli.Command {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	var dsn string
	fs.StringVar(&dsn, "dsn", "coverage.db", "sqlite dsn to write into")

	return &ffcli.Command{
		Name:       "export",
		ShortUsage: "export [-dsn <sqlite dsn>]",
		FlagSet:    fs,
		Exec: func(ctx context.Context, args []string) error {
			doc, err := a.load()
			if err != nil {
				return err
			}
			a.printWarnings(doc)

			repo, err := internal.NewSQLRepository(dsn, a.verbose)
			if err != nil {
				return err
			}
			defer repo.Close()

			return repo.SaveDocument(ctx, doc)
		},
	}
}

func main() {
	appName := filepath.Base(os.Args[0])

	a := &app{}
	rootFlagSet := flag.NewFlagSet(appName, flag.ExitOnError)
	rootFlagSet.StringVar(&a.input, "i", "", "path to the drcov log to parse (gzip ok)")
	rootFlagSet.BoolVar(&a.verbose, "verbose", false, "enable verbose output")

	ctx := context.Background()
	// trap Ctrl+C and call cancel on the context
	ctx, cancel := context.WithCancel(ctx)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)

	defer func() {
		signal.Stop(quit)
		cancel()
	}()

	go func() {
		<-quit
		cancel()
	}()

	root := &ffcli.Command{
		ShortUsage: appName + " -i <drcov log> [flags] <subcommand>",
		FlagSet:    rootFlagSet,
		Subcommands: []*ffcli.Command{
			reportCommand(a),
			hitcountsCommand(a),
			exportCommand(a),
			serveCommand(a),
		},
		Exec: func(context.Context, []string) error {
			return flag.ErrHelp
		},
	}

	if err := root.ParseAndRun(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "ERROR:\t%v\n", err)
		os.Exit(1)
	}
}
