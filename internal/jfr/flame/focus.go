package flame

import (
	"regexp"
	"sort"
	"strings"

	"github.com/jerrinot/jfrlens/internal/jfr/analysis"
)

// Frame labels are the "class.method" strings symbol.Frame.Label builds.
// The class is a JVM binary name, so it may use '/' separators, and hidden
// classes (lambdas, method handles) carry a "/0x<address>" suffix that
// changes from run to run. Native frames from an external profiler are
// bare symbol names, and placeholders such as "<unknown>" are not
// class.method at all.

var hiddenClassAddr = regexp.MustCompile(`/0x[0-9a-fA-F]+`)

// canonical rewrites a label to dotted form with hidden-class addresses
// removed, so that lambda frames from different recordings compare equal.
func canonical(label string) string {
	if !strings.ContainsRune(label, '/') {
		return label
	}
	return strings.ReplaceAll(hiddenClassAddr.ReplaceAllString(label, ""), "/", ".")
}

// native reports whether a label is not a Java class.method pair.
func native(label string) bool {
	return strings.HasPrefix(label, "<") || strings.Contains(label, "::")
}

// ShortName keeps the simple class name and the method of a Java frame
// label: "java.io.FileInputStream.read" becomes "FileInputStream.read" and
// "com.acme.App$$Lambda/0x0000000800c01200.run" becomes "App$$Lambda.run".
// Native frames and placeholders are returned unchanged.
func ShortName(label string) string {
	base := canonical(label)
	if native(base) {
		return base
	}
	parts := strings.Split(base, ".")
	if len(parts) >= 2 {
		return parts[len(parts)-2] + "." + parts[len(parts)-1]
	}
	return base
}

// DisplayName returns the canonical label when fqn is set, its short name
// otherwise.
func DisplayName(label string, fqn bool) string {
	if fqn {
		return canonical(label)
	}
	return ShortName(label)
}

// Matches reports whether pattern occurs in the canonical label or in its
// short name.
func Matches(label, pattern string) bool {
	return strings.Contains(canonical(label), pattern) ||
		strings.Contains(ShortName(label), pattern)
}

// Focus cuts every stack at the first frame matching pattern, dropping
// stacks that never match. It also returns the distinct matched frames,
// sorted.
func Focus(stacks []analysis.StackWeight, pattern string) ([]analysis.StackWeight, []string) {
	var out []analysis.StackWeight
	matched := make(map[string]bool)
	for _, s := range stacks {
		for j, f := range s.Frames {
			if Matches(f, pattern) {
				matched[f] = true
				out = append(out, analysis.StackWeight{Frames: s.Frames[j:], Weight: s.Weight})
				break
			}
		}
	}
	names := make([]string, 0, len(matched))
	for n := range matched {
		names = append(names, n)
	}
	sort.Strings(names)
	return out, names
}

// Shorten maps every frame through DisplayName, merging stacks that
// become equal. Order of first appearance is kept.
func Shorten(stacks []analysis.StackWeight, fqn bool) []analysis.StackWeight {
	index := make(map[string]int)
	var out []analysis.StackWeight
	for _, s := range stacks {
		frames := make([]string, len(s.Frames))
		for i, f := range s.Frames {
			frames[i] = DisplayName(f, fqn)
		}
		sw := analysis.StackWeight{Frames: frames, Weight: s.Weight}
		if i, ok := index[sw.Key()]; ok {
			out[i].Weight += s.Weight
			continue
		}
		index[sw.Key()] = len(out)
		out = append(out, sw)
	}
	return out
}

// Callers inverts every stack at its first frame matching pattern, the
// same frame Focus cuts at: the matched frame becomes the root, followed by
// its callers up to the outermost frame. Stacks that never match are dropped.
func Callers(stacks []analysis.StackWeight, pattern string) []analysis.StackWeight {
	var out []analysis.StackWeight
	for _, s := range stacks {
		for j, f := range s.Frames {
			if !Matches(f, pattern) {
				continue
			}
			path := make([]string, j+1)
			for k := 0; k <= j; k++ {
				path[j-k] = s.Frames[k]
			}
			out = append(out, analysis.StackWeight{Frames: path, Weight: s.Weight})
			break
		}
	}
	return out
}

// Through keeps the stacks that pass through a frame matching pattern,
// unchanged.
func Through(stacks []analysis.StackWeight, pattern string) []analysis.StackWeight {
	var out []analysis.StackWeight
	for _, s := range stacks {
		for _, f := range s.Frames {
			if Matches(f, pattern) {
				out = append(out, s)
				break
			}
		}
	}
	return out
}
