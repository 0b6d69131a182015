package analysis

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jerrinot/jfrlens/internal/jfr/event"
)

func newExtractors(ctx *Context, dims Dimension) []extractor {
	var xs []extractor
	for _, d := range dims.Each() {
		switch d {
		case CPUTime:
			xs = append(xs, newCPUTimeExtractor(ctx))
		case CPUSample:
			xs = append(xs, newCPUSampleExtractor(ctx))
		case WallClock:
			xs = append(xs, newWallClockExtractor(ctx))
		default:
			xs = append(xs, newCountExtractor(ctx, d, countDimensions[d]))
		}
	}
	return xs
}

// Run makes one forward pass over the context's events with the extractors
// of the selected dimensions and assembles their results. A dimension that
// cannot be computed carries its error in DimensionResult.Err; the returned
// error is reserved for failures of the pass itself.
func Run(ctx *Context, dims Dimension) (*Result, error) {
	start := time.Now()
	r, err := run(ctx, dims)
	ctx.opts.Metrics.AnalysisDone(time.Since(start), err)
	return r, err
}

func run(ctx *Context, dims Dimension) (*Result, error) {
	if dims&^All != 0 {
		return nil, fmt.Errorf("dimension mask %#x: %w", uint32(dims&^All), ErrUnknownDimension)
	}
	xs := newExtractors(ctx, dims)

	var table [event.NumKinds][]*visitor
	for _, x := range xs {
		v := x.base()
		for _, k := range v.kinds() {
			table[k] = append(table[k], v)
		}
	}

	visited := 0
	for i, e := range ctx.events {
		interested := table[e.Kind()]
		if len(interested) == 0 {
			continue
		}
		for _, v := range interested {
			if err := v.visit(e); err != nil {
				return nil, fmt.Errorf("event %d: %w", i, err)
			}
		}
		ctx.opts.Metrics.EventVisited(e.Type().Name)
		visited++
	}

	r := newResult()
	for _, x := range xs {
		d := x.base().dim
		if err := x.fillResult(r); err != nil {
			err = fmt.Errorf("%s: %w", d, err)
			ctx.log.Warn("dimension failed", zap.Stringer("dimension", d), zap.Error(err))
			r.set(&DimensionResult{Dimension: d, Err: err})
		}
	}
	ctx.log.Debug("analysis pass done",
		zap.Stringer("dimensions", dims),
		zap.Int("events", len(ctx.events)),
		zap.Int("visited", visited),
		zap.Int("tasks", len(ctx.taskOrder)),
		zap.Int("stacks", ctx.symbols.NumStacks()))
	return r, nil
}
