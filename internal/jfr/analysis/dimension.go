package analysis

import (
	"errors"
	"fmt"
	"math/bits"
	"strings"
)

// ErrUnknownDimension is returned by ParseDimensions for an unknown name.
var ErrUnknownDimension = errors.New("unknown dimension")

// Dimension is one accounting axis. Dimensions combine as a bitmask to
// select which extractors run.
type Dimension uint32

const (
	CPUTime Dimension = 1 << iota
	CPUSample
	WallClock
	NativeExecutionSamples
	Allocations
	AllocatedMemory
	FileIOTime
	FileReadSize
	FileWriteSize
	SocketReadSize
	SocketReadTime
	SocketWriteSize
	SocketWriteTime
	LockWaitTime
	LockAcquire
	SynchronizationWait
	ThreadParkTime
	ClassLoadCount
	ClassLoadWallTime
	ThreadSleepTime

	lastDimension

	// All selects every dimension.
	All = lastDimension - 1
)

// Unit is what a dimension's values measure.
type Unit string

const (
	UnitNanos Unit = "ns"
	UnitBytes Unit = "bytes"
	UnitCount Unit = "count"
)

type dimensionInfo struct {
	name string
	unit Unit
}

var dimensionInfos = map[Dimension]dimensionInfo{
	CPUTime:                {"cpu", UnitNanos},
	CPUSample:              {"cpu-sample", UnitCount},
	WallClock:              {"wall", UnitNanos},
	NativeExecutionSamples: {"native", UnitCount},
	Allocations:            {"alloc", UnitCount},
	AllocatedMemory:        {"mem", UnitBytes},
	FileIOTime:             {"file-io-time", UnitNanos},
	FileReadSize:           {"file-read-size", UnitBytes},
	FileWriteSize:          {"file-write-size", UnitBytes},
	SocketReadSize:         {"socket-read-size", UnitBytes},
	SocketReadTime:         {"socket-read-time", UnitNanos},
	SocketWriteSize:        {"socket-write-size", UnitBytes},
	SocketWriteTime:        {"socket-write-time", UnitNanos},
	LockWaitTime:           {"lock-wait-time", UnitNanos},
	LockAcquire:            {"lock-acquire", UnitCount},
	SynchronizationWait:    {"sync-wait", UnitNanos},
	ThreadParkTime:         {"thread-park", UnitNanos},
	ClassLoadCount:         {"class-load-count", UnitCount},
	ClassLoadWallTime:      {"class-load-wall-time", UnitNanos},
	ThreadSleepTime:        {"thread-sleep", UnitNanos},
}

// String returns the dimension name for a single dimension, or the
// comma-joined names for a set.
func (d Dimension) String() string {
	if info, ok := dimensionInfos[d]; ok {
		return info.name
	}
	if d == 0 {
		return "none"
	}
	names := make([]string, 0, bits.OnesCount32(uint32(d)))
	for _, x := range d.Each() {
		names = append(names, dimensionInfos[x].name)
	}
	return strings.Join(names, ",")
}

// Unit returns the unit of a single dimension.
func (d Dimension) Unit() Unit {
	return dimensionInfos[d].unit
}

// Has reports whether every dimension in x is selected in d.
func (d Dimension) Has(x Dimension) bool { return d&x == x }

// Each returns the selected single dimensions in declaration order.
func (d Dimension) Each() []Dimension {
	var out []Dimension
	for x := Dimension(1); x < lastDimension; x <<= 1 {
		if d&x != 0 {
			out = append(out, x)
		}
	}
	return out
}

// Names lists every dimension name in declaration order.
func Names() []string {
	var out []string
	for _, d := range All.Each() {
		out = append(out, d.String())
	}
	return out
}

// ParseDimension resolves one dimension name.
func ParseDimension(name string) (Dimension, error) {
	name = strings.TrimSpace(name)
	for d, info := range dimensionInfos {
		if info.name == name {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%q: %w (known: %s)", name, ErrUnknownDimension, strings.Join(Names(), ", "))
}

// ParseDimensions resolves a list of names; "all" selects every dimension.
// Entries may themselves be comma-separated.
func ParseDimensions(names []string) (Dimension, error) {
	var d Dimension
	for _, n := range names {
		for _, part := range strings.Split(n, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if part == "all" {
				d |= All
				continue
			}
			x, err := ParseDimension(part)
			if err != nil {
				return 0, err
			}
			d |= x
		}
	}
	return d, nil
}
