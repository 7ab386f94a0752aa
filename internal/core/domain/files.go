package domain

import (
	"path"
	"strings"

	"go.trai.ch/zerr"
)

// SourceFile is a source-absolute path, always beginning with the "//" root
// marker. Two SourceFiles are equal iff their normalized paths are equal.
type SourceFile string

// NewSourceFile normalizes a source-absolute path. Relative references are
// resolved against dir.
func NewSourceFile(p, dir string) (SourceFile, error) {
	var full string
	if strings.HasPrefix(p, "//") {
		full = p[2:]
	} else if dir == "" {
		full = p
	} else {
		full = dir + "/" + p
	}

	clean := path.Clean(full)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") || path.IsAbs(clean) {
		return "", zerr.With(ErrInvalidSourceFile, "path", p)
	}
	return SourceFile("//" + clean), nil
}

// Path returns the path relative to the source root.
func (f SourceFile) Path() string {
	return strings.TrimPrefix(string(f), "//")
}

// Dir returns the source-root-relative directory containing the file.
func (f SourceFile) Dir() string {
	d := path.Dir(f.Path())
	if d == "." {
		return ""
	}
	return d
}

// OutputFile is a path relative to the build output root. Rule text and
// aggregate files reference outputs in this form.
type OutputFile string

// OutputFileForSource maps a generated SourceFile (one living under the
// build directory) to its OutputFile. The mapping is deterministic: it
// strips the build-dir prefix. Files outside the build directory have no
// output form and map to the empty OutputFile.
func OutputFileForSource(settings *BuildSettings, file SourceFile) OutputFile {
	prefix := string(settings.BuildDir) + "/"
	if !strings.HasPrefix(string(file), prefix) {
		return ""
	}
	return OutputFile(strings.TrimPrefix(string(file), prefix))
}

// IsInBuildDir reports whether the file lives under the build directory,
// which is what marks it as a generated input when listed in sources or
// inputs.
func (f SourceFile) IsInBuildDir(settings *BuildSettings) bool {
	return strings.HasPrefix(string(f), string(settings.BuildDir)+"/")
}
