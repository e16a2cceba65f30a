// Package capture acquires ping capture text from files or standard input
// and runs it through the pinglog parser.
package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ccollicutt/pinglag/pkg/pinglog"
)

// StdinName is the capture path that means "read standard input".
const StdinName = "-"

// DefaultConcurrency is used by ParseAll when no limit is given.
const DefaultConcurrency = 4

// ErrNoCaptures is returned when there is nothing to parse.
var ErrNoCaptures = errors.New("no capture sources given")

// Capture is one parsed capture session.
type Capture struct {
	// Source is the file path, or StdinName.
	Source string

	// Metrics is the parse result.
	Metrics pinglog.Metrics

	// ParsedAt is when parsing finished.
	ParsedAt time.Time
}

// Read opens and parses a single capture file.
func Read(ctx context.Context, path string) (*Capture, error) {
	f, err := os.Open(path) // #nosec G304 -- user-provided paths are expected
	if err != nil {
		return nil, fmt.Errorf("opening capture %s: %w", path, err)
	}
	defer f.Close()

	return ReadFrom(ctx, path, f)
}

// ReadFrom parses capture text from r, labelling the result with name.
func ReadFrom(ctx context.Context, name string, r io.Reader) (*Capture, error) {
	m, err := pinglog.ParseReader(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("parsing capture %s: %w", name, err)
	}

	log.WithFields(log.Fields{
		"source":      name,
		"samples":     m.Len(),
		"has_summary": m.HasSummary(),
	}).Debug("parsed capture")

	return &Capture{
		Source:   name,
		Metrics:  m,
		ParsedAt: time.Now(),
	}, nil
}

// ParseAll parses every path concurrently, at most concurrency at a time.
// Results keep the order of paths. StdinName is read from stdin. The first
// failure cancels the remaining reads and is returned.
func ParseAll(ctx context.Context, paths []string, stdin io.Reader, concurrency int) ([]*Capture, error) {
	if len(paths) == 0 {
		return nil, ErrNoCaptures
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	results := make([]*Capture, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, path := range paths {
		g.Go(func() error {
			var (
				c   *Capture
				err error
			)
			if path == StdinName {
				if stdin == nil {
					return fmt.Errorf("capture %s: no standard input available", StdinName)
				}
				c, err = ReadFrom(ctx, StdinName, stdin)
			} else {
				c, err = Read(ctx, path)
			}
			if err != nil {
				return err
			}
			results[i] = c
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
