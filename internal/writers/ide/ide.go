// Package ide hosts the auxiliary IDE and tooling projections. Each writer
// is a pure function from the build settings, the resolved target graph and
// the option set to files under the build directory; the registry maps the
// --ide names onto them.
package ide

import (
	"strings"

	"go.trai.ch/mason/internal/core/domain"
	"go.trai.ch/mason/internal/core/ports"
	"go.trai.ch/zerr"
)

var registry = make(map[string]ports.ProjectWriter)

// Register adds a writer under its name. Called from init in each writer
// file, mirroring how adapters self-register elsewhere.
func Register(w ports.ProjectWriter) {
	registry[w.Name()] = w
}

// Lookup returns the writer registered under name.
func Lookup(name string) (ports.ProjectWriter, bool) {
	w, ok := registry[name]
	return w, ok
}

// RunAndWriteFiles dispatches one projection by IDE name. An unrecognized
// name is a hard error.
func RunAndWriteFiles(name string, settings *domain.BuildSettings, targets []*domain.Target, opts ports.ProjectWriterOptions) error {
	w, ok := Lookup(name)
	if !ok {
		return zerr.Wrap(domain.ErrUnknownIDE, "Unknown IDE: "+name)
	}
	return w.RunAndWriteFiles(settings, targets, opts)
}

// FilterTargets restricts targets to those matching any of the label
// patterns: "//dir:name" exact, "//dir/*" subtree, or "//dir:*" directory.
// An empty pattern list keeps everything.
func FilterTargets(targets []*domain.Target, patterns []string) []*domain.Target {
	if len(patterns) == 0 {
		return targets
	}
	var out []*domain.Target
	for _, t := range targets {
		if matchesAny(t.TargetLabel, patterns) {
			out = append(out, t)
		}
	}
	return out
}

func matchesAny(label domain.Label, patterns []string) bool {
	full := "//" + label.Dir + ":" + label.Name
	for _, p := range patterns {
		switch {
		case strings.HasSuffix(p, "/*"):
			if strings.HasPrefix("//"+label.Dir+"/", strings.TrimSuffix(p, "*")) || "//"+label.Dir == strings.TrimSuffix(p, "/*") {
				return true
			}
		case strings.HasSuffix(p, ":*"):
			if "//"+label.Dir == strings.TrimSuffix(p, ":*") {
				return true
			}
		default:
			if full == p {
				return true
			}
		}
	}
	return false
}
