// Package runtimedeps writes the auxiliary files listing each target's
// runtime dependency closure. Unlike the generated-input check, the
// closure follows data_deps: these files describe what must be present at
// run time, not what may be consumed at build time.
package runtimedeps

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"

	"go.trai.ch/mason/internal/core/domain"
	"go.trai.ch/zerr"
)

// RunAndWriteFiles writes one runtime-deps file for every resolved target
// that requests one via write_runtime_deps.
func RunAndWriteFiles(settings *domain.BuildSettings, targets []*domain.Target) error {
	for _, t := range targets {
		if t.WriteRuntimeDepsOutput == "" {
			continue
		}
		if err := writeOne(settings, t); err != nil {
			return err
		}
	}
	return nil
}

func writeOne(settings *domain.BuildSettings, t *domain.Target) error {
	seen := make(map[*domain.Target]bool)
	entries := make(map[string]bool)
	collect(t, seen, entries)

	lines := make([]string, 0, len(entries))
	for e := range entries {
		lines = append(lines, e)
	}
	sort.Strings(lines)

	var buf bytes.Buffer
	for _, line := range lines {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}

	path := filepath.Join(settings.OutDir, filepath.FromSlash(string(t.WriteRuntimeDepsOutput)))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return zerr.Wrap(err, "failed to create runtime-deps directory")
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		err = zerr.Wrap(err, "failed to write runtime-deps file")
		return zerr.With(err, "label", t.TargetLabel.String())
	}
	return nil
}

// collect walks the full dependency closure, data_deps included, gathering
// runtime outputs and data files.
func collect(t *domain.Target, seen map[*domain.Target]bool, entries map[string]bool) {
	if seen[t] {
		return
	}
	seen[t] = true

	for _, out := range t.ComputedOutputs {
		entries[string(out)] = true
	}
	for _, d := range t.Data {
		entries[d] = true
	}
	for _, pair := range t.AllDeps() {
		if pair.Target != nil {
			collect(pair.Target, seen, entries)
		}
	}
}
