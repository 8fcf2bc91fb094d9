package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/chazu/sc3/catalog"
	"github.com/chazu/sc3/dist"
	"github.com/chazu/sc3/manifest"
	"github.com/chazu/sc3/pkg/container"
	"github.com/chazu/sc3/pkg/sc3"
)

type status int

const (
	statusDecoded status = iota
	statusUnchanged
	statusSkipped
	statusFailed
)

func (s status) String() string {
	switch s {
	case statusDecoded:
		return "decoded"
	case statusUnchanged:
		return "unchanged"
	case statusSkipped:
		return "skipped"
	default:
		return "failed"
	}
}

// result is the outcome of one script.
type result struct {
	name         string
	status       status
	instructions int
	elapsed      time.Duration
	err          error
}

// driver decodes a set of scripts in parallel.
type driver struct {
	decoder *sc3.Decoder
	catalog *catalog.Catalog // nil when the catalog is disabled
	outDir  string
	listing bool
	cbor    bool
	workers int
	force   bool
}

// scriptExt is the extension of script files in a game's script directory.
const scriptExt = ".scr"

// collectScripts lists the scripts to decode. Explicit paths are taken as
// given; otherwise every .scr file of the input directory that the manifest
// does not ignore.
func collectScripts(m *manifest.Manifest, args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}

	dir := m.InputPath()
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading input directory: %w", err)
	}
	var scripts []string
	for _, e := range entries {
		if !e.Type().IsRegular() || filepath.Ext(e.Name()) != scriptExt {
			continue
		}
		if m.Ignored(e.Name()) {
			log.Noticef("%s: ignored", e.Name())
			continue
		}
		scripts = append(scripts, filepath.Join(dir, e.Name()))
	}
	return scripts, nil
}

// run decodes every script. Per-script failures are reported in the results;
// the returned error is for failures of the run itself. When ctx is
// cancelled the results of the scripts completed so far are returned along
// with the context error.
func (d *driver) run(ctx context.Context, scripts []string) ([]result, error) {
	if err := os.MkdirAll(d.outDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	var run *catalog.Run
	if d.catalog != nil {
		var err error
		if run, err = d.catalog.BeginRun(); err != nil {
			return nil, err
		}
	}

	var (
		results []result
		mu      sync.Mutex
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(d.workers, 1))
	for _, path := range scripts {
		path := path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r := d.decodeFile(path, run)
			mu.Lock()
			results = append(results, r)
			mu.Unlock()
			return nil
		})
	}
	waitErr := g.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].name < results[j].name })

	// An interrupted run is still closed with what was completed.
	if d.catalog != nil {
		stats := catalog.Stats{
			Decoded: countStatus(results, statusDecoded),
			Skipped: countStatus(results, statusSkipped) + countStatus(results, statusUnchanged),
			Failed:  countStatus(results, statusFailed),
		}
		if err := d.catalog.FinishRun(run, stats); err != nil {
			return results, errors.Join(waitErr, err)
		}
	}
	return results, waitErr
}

// decodeFile decodes one script and writes its outputs.
func (d *driver) decodeFile(path string, run *catalog.Run) result {
	start := time.Now()
	name := filepath.Base(path)
	r := result{name: name}

	data, err := os.ReadFile(path)
	if err != nil {
		r.status, r.err = statusFailed, err
		log.Errorf("%s: %v", name, err)
		return r
	}
	hash := dist.HashScript(data)

	if d.catalog != nil && !d.force {
		unchanged, err := d.catalog.Unchanged(name, hash)
		if err != nil {
			log.Warningf("%s: catalog lookup failed: %v", name, err)
		} else if unchanged && d.outputsExist(name) {
			r.status = statusUnchanged
			return r
		}
	}

	in, err := container.Split(data)
	if errors.Is(err, container.ErrNoText) {
		log.Noticef("%s: no textual section, skipped", name)
		r.status = statusSkipped
		return r
	}
	if err == nil {
		var insts []sc3.Instruction
		insts, err = d.decoder.Decode(in)
		if err == nil {
			r.instructions = len(insts)
			err = d.write(name, data, in, insts)
		}
	}
	r.elapsed = time.Since(start)

	if err != nil {
		r.status, r.err = statusFailed, err
		log.Errorf("%s: %v", name, err)
		if d.catalog != nil {
			if cerr := d.catalog.RecordFailure(run, name, hash, err); cerr != nil {
				log.Warningf("%s: %v", name, cerr)
			}
		}
		return r
	}

	log.Infof("%s: %d instructions in %s", name, r.instructions, r.elapsed)
	if d.catalog != nil {
		if err := d.catalog.RecordScript(run, name, hash, r.instructions); err != nil {
			log.Warningf("%s: %v", name, err)
		}
	}
	r.status = statusDecoded
	return r
}

// listingPath and documentPath name the outputs of script name.
func (d *driver) listingPath(name string) string {
	return filepath.Join(d.outDir, strings.TrimSuffix(name, filepath.Ext(name))+".txt")
}

func (d *driver) documentPath(name string) string {
	return filepath.Join(d.outDir, strings.TrimSuffix(name, filepath.Ext(name))+dist.Extension)
}

// outputsExist reports whether every enabled output of name is present.
func (d *driver) outputsExist(name string) bool {
	var paths []string
	if d.listing {
		paths = append(paths, d.listingPath(name))
	}
	if d.cbor {
		paths = append(paths, d.documentPath(name))
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			log.Debugf("%s: %s missing, decoding again", name, p)
			return false
		}
	}
	return true
}

func (d *driver) write(name string, data []byte, in *sc3.Input, insts []sc3.Instruction) error {
	if d.listing {
		listing := sc3.DisassembleWithName(name, insts)
		if err := os.WriteFile(d.listingPath(name), []byte(listing), 0o644); err != nil {
			return fmt.Errorf("writing listing: %w", err)
		}
	}
	if d.cbor {
		doc := dist.NewDocument(name, data, in, insts)
		if err := dist.WriteFile(d.documentPath(name), doc); err != nil {
			return fmt.Errorf("writing document: %w", err)
		}
	}
	return nil
}

func countStatus(results []result, s status) int {
	n := 0
	for _, r := range results {
		if r.status == s {
			n++
		}
	}
	return n
}
