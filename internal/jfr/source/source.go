// Package source replays recordings into an analysis context: binary JFR
// files through grafana/jfr-parser and JSON-lines event dumps.
package source

import (
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/jerrinot/jfrlens/internal/jfr/analysis"
)

// ErrUnknownFormat is returned for paths whose extension names no
// supported format.
var ErrUnknownFormat = errors.New("unknown recording format")

// Format identifies a recording encoding.
type Format int

const (
	FormatJFR Format = iota + 1
	FormatDump
)

func (f Format) String() string {
	switch f {
	case FormatJFR:
		return "jfr"
	case FormatDump:
		return "dump"
	}
	return "unknown"
}

// Detect picks the format from the path. "-" reads a dump from stdin.
func Detect(path string) (Format, error) {
	if path == "-" {
		return FormatDump, nil
	}
	p := strings.TrimSuffix(strings.ToLower(path), ".gz")
	switch {
	case strings.HasSuffix(p, ".jfr"):
		return FormatJFR, nil
	case strings.HasSuffix(p, ".jsonl"), strings.HasSuffix(p, ".ndjson"):
		return FormatDump, nil
	}
	return 0, fmt.Errorf("%s: %w (want .jfr, .jsonl or .ndjson, optionally gzipped)", path, ErrUnknownFormat)
}

// Open reads the recording at path into a fresh context.
func Open(path string, opts analysis.Options) (*analysis.Context, error) {
	format, err := Detect(path)
	if err != nil {
		return nil, err
	}
	ctx := analysis.NewContext(opts)
	rc, err := openReader(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	switch format {
	case FormatJFR:
		buf, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		err = ReadJFR(buf, ctx)
	default:
		err = ReadDump(rc, ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	ctx.Logger().Debug("recording loaded",
		zap.String("path", path),
		zap.Stringer("format", format),
		zap.Int("events", len(ctx.Events())),
		zap.Int("tasks", len(ctx.Tasks())),
	)
	return ctx, nil
}

// openReader opens a file for reading, handling gzip and stdin ("-").
func openReader(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if strings.HasSuffix(strings.ToLower(path), ".gz") {
		gr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("gzip: %w", err)
		}
		return &gzipReadCloser{gz: gr, f: f}, nil
	}
	return f, nil
}

type gzipReadCloser struct {
	gz *gzip.Reader
	f  *os.File
}

func (g *gzipReadCloser) Read(p []byte) (int, error) { return g.gz.Read(p) }
func (g *gzipReadCloser) Close() error {
	g.gz.Close()
	return g.f.Close()
}
