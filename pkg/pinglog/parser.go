package pinglog

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Parse converts the full text of one capture session into Metrics.
// It never fails: lines that do not match contribute nothing.
func Parse(text string) Metrics {
	acc := newAccumulator()
	for _, line := range strings.Split(text, "\n") {
		acc.feed(line)
	}
	return acc.metrics
}

// ParseReader is Parse over a stream. Only read errors and context
// cancellation are returned; malformed content is skipped as in Parse.
func ParseReader(ctx context.Context, r io.Reader) (Metrics, error) {
	acc := newAccumulator()
	if err := ReadLines(ctx, r, acc.feed); err != nil {
		return Metrics{}, err
	}
	return acc.metrics, nil
}

// ReadLines calls fn for every newline-separated line of r, without the
// newline. Lines have no length limit. A trailing empty segment after the
// final newline is not reported.
func ReadLines(ctx context.Context, r io.Reader, fn func(line string)) error {
	br := bufio.NewReaderSize(r, 64*1024)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			fn(strings.TrimSuffix(line, "\n"))
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading capture: %w", err)
		}
	}
}

// accumulator owns the Metrics being built for a single parse call.
type accumulator struct {
	metrics Metrics
}

func newAccumulator() *accumulator {
	return &accumulator{metrics: Metrics{Samples: []Sample{}}}
}

func (a *accumulator) feed(raw string) {
	line := Classify(raw)
	switch line.Kind {
	case KindReply:
		a.metrics.add(line.Sample)
	case KindSummary:
		// last one wins
		a.metrics.Summary = line.Summary
		a.metrics.SummaryFound = true
	}
}
