package ninja

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.trai.ch/mason/internal/core/domain"
	"go.trai.ch/zerr"
)

const requiredVersion = "1.7.2"

// SortRules orders every toolchain's rule pairs by target label. This is
// the sole guarantor of byte-deterministic output: workers deposit in
// completion order, which varies run to run.
func SortRules(rules PerToolchainRules) {
	for _, pairs := range rules {
		sort.Slice(pairs, func(i, j int) bool {
			return pairs[i].Target.TargetLabel.Less(pairs[j].Target.TargetLabel)
		})
	}
}

// RunAndWriteFiles sorts the collected rules and writes the per-toolchain
// files plus the root aggregate. Given the same input graph the emitted
// bytes are identical across runs, independent of worker scheduling.
func RunAndWriteFiles(settings *domain.BuildSettings, rules PerToolchainRules) error {
	SortRules(rules)

	toolchains := make([]*domain.Toolchain, 0, len(rules))
	for tc := range rules {
		toolchains = append(toolchains, tc)
	}
	sort.Slice(toolchains, func(i, j int) bool {
		return toolchains[i].TCLabel.Less(toolchains[j].TCLabel)
	})

	for _, tc := range toolchains {
		if err := writeToolchainFile(settings, tc, rules[tc]); err != nil {
			return err
		}
	}
	return writeRootFile(settings, toolchains, rules)
}

func writeToolchainFile(settings *domain.BuildSettings, tc *domain.Toolchain, pairs []TargetRulePair) error {
	var buf bytes.Buffer

	kinds := make([]domain.ToolKind, 0, len(tc.Tools))
	for kind := range tc.Tools {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	for _, kind := range kinds {
		tool := tc.Tools[kind]
		fmt.Fprintf(&buf, "rule %s_%s\n  command = %s\n", tc.NinjaName(), kind, tool.Command)
		if tool.Description != "" {
			fmt.Fprintf(&buf, "  description = %s\n", tool.Description)
		}
		buf.WriteByte('\n')
	}

	for _, pair := range pairs {
		buf.WriteString(pair.Rule)
		buf.WriteByte('\n')
	}

	return writeFileIfChanged(filepath.Join(settings.OutDir, toolchainFileName(tc)), buf.Bytes())
}

func toolchainFileName(tc *domain.Toolchain) string {
	return "toolchain_" + tc.NinjaName() + ".ninja"
}

// phonyName is the alias the root file exposes for a target:
// "dir/name", or just "name" for root-directory targets.
func phonyName(t *domain.Target) string {
	if t.TargetLabel.Dir == "" {
		return t.TargetLabel.Name
	}
	return t.TargetLabel.Dir + "/" + t.TargetLabel.Name
}

// phonyInput is what the alias points at: the first real output, or the
// target's stamp when it has none.
func phonyInput(t *domain.Target) string {
	if len(t.ComputedOutputs) > 0 {
		return string(t.ComputedOutputs[0])
	}
	return stampFile(t)
}

func writeRootFile(settings *domain.BuildSettings, toolchains []*domain.Toolchain, rules PerToolchainRules) error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "ninja_required_version = %s\n\n", requiredVersion)

	for _, tc := range toolchains {
		fmt.Fprintf(&buf, "subninja %s\n", toolchainFileName(tc))
	}
	if len(toolchains) > 0 {
		buf.WriteByte('\n')
	}

	var phonies []string
	for _, tc := range toolchains {
		for _, pair := range rules[tc] {
			name := phonyName(pair.Target)
			fmt.Fprintf(&buf, "build %s: phony %s\n", name, phonyInput(pair.Target))
			phonies = append(phonies, name)
		}
	}

	if len(phonies) > 0 {
		fmt.Fprintf(&buf, "\nbuild all: phony %s\n", strings.Join(phonies, " "))
		buf.WriteString("default all\n")
	}

	return writeFileIfChanged(filepath.Join(settings.OutDir, "build.ninja"), buf.Bytes())
}

// writeFileIfChanged leaves files with unchanged contents untouched so the
// downstream executor does not see spurious mtime bumps.
func writeFileIfChanged(path string, data []byte) error {
	if old, err := os.ReadFile(path); err == nil && bytes.Equal(old, data) {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return zerr.Wrap(err, "failed to create build file directory")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return zerr.Wrap(err, "failed to write build file")
	}
	return nil
}
