package analysis

import (
	"math"
	"math/bits"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jerrinot/jfrlens/internal/jfr/event"
)

// samplingSettings follows the jdk.ActiveSetting events that describe how
// execution samples were taken. Settings may appear anywhere in the
// recording, so consumers read them only after the pass.
type samplingSettings struct {
	ctx *Context

	wallMode      bool
	wallInterval  int64 // wall setting, ns
	asyncInterval int64 // async-profiler interval setting, ns
	jvmPeriod     int64 // JVM period setting, ns
	sawJVMPeriod  bool
	loadPeriod    int64 // ThreadCPULoad period setting, ns
}

func (s *samplingSettings) onSetting(e *event.Event) {
	id, name, value := e.Long("id"), e.StringField("name"), e.StringField("value")
	switch {
	case s.ctx.IsExecutionSample(id):
		switch name {
		case "event":
			if value == "wall" {
				s.wallMode = true
			}
		case "wall":
			if d, ok := parseSettingNanos(value); ok && d > 0 {
				s.wallMode = true
				s.wallInterval = d
			}
		case "interval":
			if d, ok := parseSettingNanos(value); ok && d > 0 {
				s.asyncInterval = d
			}
		case "period":
			s.sawJVMPeriod = true
			if d, ok := parseSettingNanos(value); ok && d > 0 {
				s.jvmPeriod = d
			} else {
				s.ctx.log.Debug("unusable execution sample period", zap.String("value", value))
			}
		}
	case s.isType(id, event.ThreadCPULoad) && name == "period":
		if d, ok := parseSettingNanos(value); ok && d > 0 {
			s.loadPeriod = d
		}
	}
}

func (s *samplingSettings) isType(id int64, name string) bool {
	t, ok := s.ctx.TypeByID(id)
	return ok && t.Name == name
}

var settingUnits = map[string]int64{
	"ns":  1,
	"us":  int64(time.Microsecond),
	"µs":  int64(time.Microsecond),
	"ms":  int64(time.Millisecond),
	"s":   int64(time.Second),
	"m":   int64(time.Minute),
	"min": int64(time.Minute),
	"h":   int64(time.Hour),
	"d":   24 * int64(time.Hour),
}

// parseSettingNanos reads a JFR setting value as nanoseconds. It accepts a
// bare integer (nanoseconds) and "<n> <unit>" with or without the space.
// Symbolic values such as "everyChunk" or "off" are not durations.
func parseSettingNanos(value string) (int64, bool) {
	v := strings.TrimSpace(value)
	if v == "" {
		return 0, false
	}
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n, true
	}
	i := 0
	for i < len(v) && (v[i] >= '0' && v[i] <= '9' || v[i] == '.') {
		i++
	}
	if i == 0 {
		return 0, false
	}
	num, err := strconv.ParseFloat(v[:i], 64)
	if err != nil {
		return 0, false
	}
	unit, ok := settingUnits[strings.TrimSpace(v[i:])]
	if !ok {
		return 0, false
	}
	return int64(math.Round(num * float64(unit))), true
}

// mulDiv returns a*b/c for non-negative operands without overflowing the
// intermediate product.
func mulDiv(a, b, c int64) int64 {
	if a == 0 || b == 0 {
		return 0
	}
	hi, lo := bits.Mul64(uint64(a), uint64(b))
	if hi >= uint64(c) {
		return math.MaxInt64
	}
	q, _ := bits.Div64(hi, lo, uint64(c))
	if q > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(q)
}

// apportion splits total across weights so that the parts sum exactly to
// total. Part i covers the interval between the cumulative shares of
// weights [0, i) and [0, i].
func apportion(total int64, weights []int64) []int64 {
	var sum int64
	for _, w := range weights {
		sum += w
	}
	parts := make([]int64, len(weights))
	if sum == 0 {
		return parts
	}
	var cum, prev int64
	for i, w := range weights {
		cum += w
		next := mulDiv(total, cum, sum)
		parts[i] = next - prev
		prev = next
	}
	return parts
}
