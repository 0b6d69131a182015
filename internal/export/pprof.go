// Package export writes dimension results in formats other tools read.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/google/pprof/profile"

	"github.com/jerrinot/jfrlens/internal/jfr/analysis"
)

func unitName(u analysis.Unit) string {
	switch u {
	case analysis.UnitNanos:
		return "nanoseconds"
	case analysis.UnitBytes:
		return "bytes"
	}
	return "count"
}

// splitLabel separates "pkg.Class.method" into class and method.
func splitLabel(label string) (class, method string) {
	if dot := strings.LastIndexByte(label, '.'); dot > 0 {
		return label[:dot], label[dot+1:]
	}
	return "", label
}

// PProf converts the tasks of one dimension into a pprof profile. Each
// task stack becomes one sample labelled with the thread name and id.
func PProf(d analysis.Dimension, tasks []*analysis.TaskResult) *profile.Profile {
	p := &profile.Profile{
		SampleType: []*profile.ValueType{{Type: d.String(), Unit: unitName(d.Unit())}},
		PeriodType: &profile.ValueType{Type: d.String(), Unit: unitName(d.Unit())},
		Period:     1,
	}
	locs := make(map[string]*profile.Location)
	funcs := make(map[string]*profile.Function)
	location := func(label string) *profile.Location {
		if loc, ok := locs[label]; ok {
			return loc
		}
		fn := funcs[label]
		if fn == nil {
			class, _ := splitLabel(label)
			fn = &profile.Function{
				ID:         uint64(len(p.Function) + 1),
				Name:       label,
				SystemName: label,
				Filename:   class,
			}
			p.Function = append(p.Function, fn)
			funcs[label] = fn
		}
		loc := &profile.Location{
			ID:   uint64(len(p.Location) + 1),
			Line: []profile.Line{{Function: fn}},
		}
		p.Location = append(p.Location, loc)
		locs[label] = loc
		return loc
	}

	for _, t := range tasks {
		for _, s := range t.Stacks {
			// pprof lists locations leaf first.
			sloc := make([]*profile.Location, len(s.Frames))
			for i, f := range s.Frames {
				sloc[len(s.Frames)-1-i] = location(f)
			}
			p.Sample = append(p.Sample, &profile.Sample{
				Value:    []int64{s.Weight},
				Location: sloc,
				Label:    map[string][]string{"thread": {t.Task.Name}},
				NumLabel: map[string][]int64{"tid": {t.Task.ID}},
			})
		}
	}
	return p
}

// WritePProf writes the gzipped pprof encoding of the tasks.
func WritePProf(w io.Writer, d analysis.Dimension, tasks []*analysis.TaskResult) error {
	p := PProf(d, tasks)
	if err := p.CheckValid(); err != nil {
		return fmt.Errorf("pprof: %w", err)
	}
	return p.Write(w)
}
