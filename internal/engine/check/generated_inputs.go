// Package check implements the post-resolution validation of the
// dependency/generated-file invariant: every file consumed as a source or
// input that lives under the build directory must be produced by a target
// reachable through the claimant's linked dependency chain.
package check

import (
	"fmt"
	"io"
	"sort"

	"go.trai.ch/mason/internal/core/domain"
	"go.trai.ch/zerr"
)

// findGenerator locates a target whose computed outputs contain the output
// form of file. Brute force: this only runs on the error path, where
// performance does not matter. At most one generator is expected; the first
// match suffices for diagnostics.
func findGenerator(settings *domain.BuildSettings, targets []*domain.Target, file domain.SourceFile) *domain.Target {
	want := domain.OutputFileForSource(settings, file)
	if want == "" {
		return nil
	}
	for _, t := range targets {
		for _, out := range t.ComputedOutputs {
			if out == want {
				return t
			}
		}
	}
	return nil
}

// printViolation writes the diagnostic for one file: the claimants, and the
// generator if one exists. Toolchain labels are shown only when something
// involved is off the default toolchain.
func printViolation(w io.Writer, settings *domain.BuildSettings, targets []*domain.Target, file domain.SourceFile, claimants []*domain.Target) {
	generator := findGenerator(settings, targets, file)

	showToolchains := generator != nil && generator.TargetLabel.Toolchain != ""
	for _, t := range claimants {
		if t.TargetLabel.Toolchain != "" {
			showToolchains = true
			break
		}
	}

	noun := "target"
	if len(claimants) > 1 {
		noun = "targets"
	}

	fmt.Fprintf(w, "The file:\n  %s\nis listed as an input or source for the %s:\n", file, noun)
	for _, t := range claimants {
		fmt.Fprintf(w, "  %s\n", t.TargetLabel.Display(showToolchains))
	}
	if generator != nil {
		fmt.Fprintf(w, "but this file was not generated by any dependencies of the %s. The target\nthat generates the file is:\n  %s\n",
			noun, generator.TargetLabel.Display(showToolchains))
	} else {
		fmt.Fprintf(w, "but no targets in the build generate that file.\n")
	}
}

// UnknownGeneratedInputs drains the scheduler's accumulated assertions and
// reports every violation in one batch. A non-nil error means generation
// must fail.
func UnknownGeneratedInputs(
	w io.Writer,
	settings *domain.BuildSettings,
	targets []*domain.Target,
	unknown map[domain.SourceFile][]*domain.Target,
) error {
	if len(unknown) == 0 {
		return nil
	}

	files := make([]domain.SourceFile, 0, len(unknown))
	for file := range unknown {
		files = append(files, file)
	}
	sort.Slice(files, func(i, j int) bool { return files[i] < files[j] })

	for _, file := range files {
		claimants := append([]*domain.Target(nil), unknown[file]...)
		sort.Slice(claimants, func(i, j int) bool {
			return claimants[i].TargetLabel.Less(claimants[j].TargetLabel)
		})
		printViolation(w, settings, targets, file, claimants)
		fmt.Fprintln(w)
	}

	fmt.Fprint(w, "If you have generated inputs, there needs to be a dependency path between the\n"+
		"two targets in addition to just listing the files. For indirect dependencies,\n"+
		"the intermediate ones must be public_deps. data_deps don't count since they're\n"+
		"only runtime dependencies.\n")

	if len(files) > 1 {
		fmt.Fprintf(w, "\n%d generated input errors found.\n", len(files))
	}
	return zerr.With(domain.ErrUnknownGeneratedInputs, "count", len(files))
}
