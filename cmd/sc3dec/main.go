// sc3dec - decodes SC3 visual novel scripts into listings and CBOR documents
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/tebeka/atexit"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/sc3/catalog"
	"github.com/chazu/sc3/manifest"
	"github.com/chazu/sc3/pkg/sc3"
)

var log = commonlog.GetLogger("sc3.driver")

func main() {
	configPath := flag.String("c", "", "Path to sc3.toml (default: search upward from the current directory)")
	inputDir := flag.String("i", "", "Script directory (overrides [input] dir)")
	outputDir := flag.String("o", "", "Output directory (overrides [output] dir)")
	workers := flag.Int("j", 0, "Number of scripts decoded in parallel (overrides [output] workers)")
	verbose := flag.Bool("v", false, "Verbose output")
	force := flag.Bool("f", false, "Decode every script even if the catalog says it is unchanged")
	logPath := flag.String("log", "", "Write log to this file instead of stderr")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: sc3dec [options] [scripts...]\n\n")
		fmt.Fprintf(os.Stderr, "Decodes the SC3 scripts of a project. Without script arguments every\n")
		fmt.Fprintf(os.Stderr, ".scr file of the input directory is decoded, except ignored ones.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  sc3dec                       # Use ./sc3.toml or defaults\n")
		fmt.Fprintf(os.Stderr, "  sc3dec -i script -o out -j 8 # Decode script/ into out/\n")
		fmt.Fprintf(os.Stderr, "  sc3dec -v script/sc01.scr    # Decode one script verbosely\n")
	}
	flag.Parse()

	verbosity := 1
	if *verbose {
		verbosity = 4
	}
	if *logPath != "" {
		commonlog.Configure(verbosity, logPath)
	} else {
		commonlog.Configure(verbosity, nil)
	}

	m, err := loadManifest(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		atexit.Exit(1)
	}
	if err := applyOverrides(m, *inputDir, *outputDir, *workers); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		atexit.Exit(1)
	}

	symbols, err := m.SymbolTable(sc3.DefaultSymbols)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		atexit.Exit(1)
	}

	var cat *catalog.Catalog
	if path := m.CatalogPath(); path != "" {
		cat, err = catalog.Open(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			atexit.Exit(1)
		}
		atexit.Register(func() { cat.Close() })
	}

	scripts, err := collectScripts(m, flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		atexit.Exit(1)
	}
	if len(scripts) == 0 {
		fmt.Fprintf(os.Stderr, "No scripts found in %s\n", m.InputPath())
		atexit.Exit(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d := &driver{
		decoder: sc3.NewDecoder(symbols),
		catalog: cat,
		outDir:  m.OutputPath(),
		listing: m.Output.Listing,
		cbor:    m.Output.CBOR,
		workers: m.Output.Workers,
		force:   *force,
	}
	results, err := d.run(ctx, scripts)
	if err != nil {
		if len(results) > 0 {
			printSummary(os.Stdout, results, *verbose)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		atexit.Exit(1)
	}

	printSummary(os.Stdout, results, *verbose)
	if countStatus(results, statusFailed) > 0 {
		atexit.Exit(1)
	}
	atexit.Exit(0)
}

// loadManifest reads the manifest named on the command line, or the nearest
// sc3.toml, or falls back to defaults.
func loadManifest(path string) (*manifest.Manifest, error) {
	if path != "" {
		return manifest.LoadFile(path)
	}
	m, err := manifest.FindAndLoad(".")
	if err != nil {
		return nil, err
	}
	if m == nil {
		log.Debug("no sc3.toml found, using defaults")
		m = manifest.Default()
		if m.Dir, err = filepath.Abs("."); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// applyOverrides applies command line flags. Paths given on the command line
// are relative to the working directory, not to the manifest.
func applyOverrides(m *manifest.Manifest, input, output string, workers int) error {
	if input != "" {
		abs, err := filepath.Abs(input)
		if err != nil {
			return err
		}
		m.Input.Dir = abs
	}
	if output != "" {
		abs, err := filepath.Abs(output)
		if err != nil {
			return err
		}
		m.Output.Dir = abs
	}
	if workers > 0 {
		m.Output.Workers = workers
	}
	return nil
}
