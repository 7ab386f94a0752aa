// Package domain contains the core domain models for the build description:
// labels, files, toolchains, configs and targets.
package domain

import (
	"strings"

	"go.trai.ch/zerr"
)

// Label is the canonical identity of an item in the build: a directory in
// the source tree plus a name, optionally qualified by the toolchain the
// item is instantiated in. Labels are comparable and totally ordered.
type Label struct {
	Dir       string
	Name      string
	Toolchain string
}

// ParseLabel parses a label reference relative to the given source directory.
// Accepted forms:
//
//	//dir:name           absolute
//	//dir                absolute, name defaults to the last dir component
//	:name                relative to dir
//	sub/dir:name         relative to dir
//	//dir:name(//tc:tc)  absolute with explicit toolchain
func ParseLabel(ref, dir string) (Label, error) {
	if ref == "" {
		return Label{}, zerr.With(ErrInvalidLabel, "label", ref)
	}

	var toolchain string
	if i := strings.IndexByte(ref, '('); i >= 0 {
		if !strings.HasSuffix(ref, ")") {
			return Label{}, zerr.With(ErrInvalidLabel, "label", ref)
		}
		tc, err := ParseLabel(ref[i+1:len(ref)-1], dir)
		if err != nil {
			return Label{}, err
		}
		toolchain = tc.String()
		ref = ref[:i]
	}

	var path string
	switch {
	case strings.HasPrefix(ref, "//"):
		path = ref[2:]
	case strings.HasPrefix(ref, ":"):
		path = dir + ref
	default:
		if dir == "" {
			path = ref
		} else {
			path = dir + "/" + ref
		}
	}

	l := Label{Toolchain: toolchain}
	if i := strings.LastIndexByte(path, ':'); i >= 0 {
		l.Dir = path[:i]
		l.Name = path[i+1:]
	} else {
		l.Dir = path
		if j := strings.LastIndexByte(path, '/'); j >= 0 {
			l.Name = path[j+1:]
		} else {
			l.Name = path
		}
	}

	if l.Name == "" || strings.Contains(l.Dir, "//") {
		return Label{}, zerr.With(ErrInvalidLabel, "label", ref)
	}
	return l, nil
}

// String returns the fully qualified form, including the toolchain
// qualifier when one is set.
func (l Label) String() string {
	s := "//" + l.Dir + ":" + l.Name
	if l.Toolchain != "" {
		s += "(" + l.Toolchain + ")"
	}
	return s
}

// Display returns the user-visible form. The toolchain qualifier is only
// included when showToolchain is set; diagnostics decide that based on
// whether anything involved is off the default toolchain.
func (l Label) Display(showToolchain bool) string {
	if showToolchain {
		return l.String()
	}
	return "//" + l.Dir + ":" + l.Name
}

// Compare orders labels lexicographically on (Dir, Name, Toolchain).
func (l Label) Compare(other Label) int {
	if c := strings.Compare(l.Dir, other.Dir); c != 0 {
		return c
	}
	if c := strings.Compare(l.Name, other.Name); c != 0 {
		return c
	}
	return strings.Compare(l.Toolchain, other.Toolchain)
}

// Less reports whether l sorts before other.
func (l Label) Less(other Label) bool {
	return l.Compare(other) < 0
}

// IsZero reports whether the label is the zero value.
func (l Label) IsZero() bool {
	return l == Label{}
}

// InToolchain returns a copy of the label qualified by the given toolchain
// label, or unqualified if tc matches the default toolchain.
func (l Label) InToolchain(tc, defaultTC Label) Label {
	out := l
	if tc == defaultTC {
		out.Toolchain = ""
	} else {
		out.Toolchain = tc.String()
	}
	return out
}
