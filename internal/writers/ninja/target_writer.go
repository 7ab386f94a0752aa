// Package ninja emits the low-level build files consumed by the downstream
// executor: one rule block per target, collected per toolchain, plus the
// root aggregate files.
package ninja

import (
	"fmt"
	"strings"

	"go.trai.ch/mason/internal/core/domain"
	"go.trai.ch/zerr"
)

// TargetRulePair is one worker result: the resolved target and the rule
// text written for it. The rule string is moved into the aggregate and
// owned there.
type TargetRulePair struct {
	Target *domain.Target
	Rule   string
}

// PerToolchainRules collects rule pairs keyed by toolchain.
type PerToolchainRules map[*domain.Toolchain][]TargetRulePair

// WriteRule is the per-target transformation: resolved target in, rule text
// out. It is pure and runs on worker threads; it reads only data finalized
// by resolution and never mutates the graph. A non-empty rule is a
// post-condition for every target type; group-like targets get a phony
// aggregate entry rather than an empty rule.
func WriteRule(settings *domain.BuildSettings, t *domain.Target) (string, error) {
	var w ruleWriter
	w.settings = settings
	w.target = t

	var err error
	switch t.Type {
	case domain.TypeExecutable, domain.TypeSharedLibrary, domain.TypeStaticLibrary:
		err = w.writeBinary()
	case domain.TypeSourceSet:
		err = w.writeSourceSet()
	case domain.TypeGroup, domain.TypeBundleData, domain.TypeCreateBundle:
		err = w.writeStamp()
	case domain.TypeAction, domain.TypeActionForeach:
		err = w.writeAction()
	case domain.TypeCopy:
		err = w.writeCopy()
	case domain.TypeGeneratedFile:
		err = w.writeGeneratedFile()
	default:
		err = zerr.With(domain.ErrInvalidTargetType, "type", string(t.Type))
	}
	if err != nil {
		return "", zerr.Wrap(err, "failed to write rule for "+t.TargetLabel.String())
	}

	rule := w.sb.String()
	if rule == "" {
		return "", zerr.Wrap(domain.ErrEmptyRule, "empty rule for target "+t.TargetLabel.String())
	}
	return rule, nil
}

type ruleWriter struct {
	settings *domain.BuildSettings
	target   *domain.Target
	sb       strings.Builder
}

// sourcePath renders a source file relative to the build directory, the
// form ninja paths are written in.
func (w *ruleWriter) sourcePath(f domain.SourceFile) string {
	depth := strings.Count(w.settings.BuildDir.Path(), "/") + 1
	return strings.Repeat("../", depth) + f.Path()
}

func (w *ruleWriter) toolchainRule(kind domain.ToolKind) (string, error) {
	tc := w.target.Toolchain
	if tc.Tool(kind) == nil {
		err := zerr.With(domain.ErrMissingTool, "tool", string(kind))
		return "", zerr.With(err, "toolchain", tc.TCLabel.String())
	}
	return tc.NinjaName() + "_" + string(kind), nil
}

// objectFile names the object compiled from one source of the target.
func (w *ruleWriter) objectFile(src domain.SourceFile) string {
	base := src.Path()
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	return objDir(w.target) + w.target.TargetLabel.Name + "." + base + ".o"
}

// objDir is the per-target object directory, "obj/<label dir>/".
func objDir(t *domain.Target) string {
	dir := "obj/"
	if t.TargetLabel.Dir != "" {
		dir += t.TargetLabel.Dir + "/"
	}
	return dir
}

// depOutputs returns the dependency outputs this target's edges should
// order after: each linked dep's computed outputs, or its stamp when it
// has none.
func (w *ruleWriter) depOutputs() []string {
	var outs []string
	for _, pair := range w.target.LinkedDeps() {
		dep := pair.Target
		if len(dep.ComputedOutputs) == 0 {
			outs = append(outs, stampFile(dep))
			continue
		}
		for _, out := range dep.ComputedOutputs {
			outs = append(outs, string(out))
		}
	}
	return outs
}

// stampFile names the phony-ish grouping output used for targets without
// real outputs.
func stampFile(t *domain.Target) string {
	return objDir(t) + t.TargetLabel.Name + ".stamp"
}

// flagVars renders the per-target variable block from the target's configs.
func (w *ruleWriter) flagVars() string {
	var cflags, defines, includes []string
	cflags = append(cflags, w.target.Toolchain.CFlags...)
	for _, cfg := range append(append([]*domain.Config(nil), w.target.Configs...), w.target.PublicConfigs...) {
		cflags = append(cflags, cfg.CFlags...)
		defines = append(defines, cfg.Defines...)
		includes = append(includes, cfg.IncludeDirs...)
	}

	var sb strings.Builder
	if len(cflags) > 0 {
		fmt.Fprintf(&sb, "  cflags = %s\n", strings.Join(cflags, " "))
	}
	if len(defines) > 0 {
		var ds []string
		for _, d := range defines {
			ds = append(ds, "-D"+d)
		}
		fmt.Fprintf(&sb, "  defines = %s\n", strings.Join(ds, " "))
	}
	if len(includes) > 0 {
		var is []string
		for _, inc := range includes {
			is = append(is, "-I"+inc)
		}
		fmt.Fprintf(&sb, "  include_dirs = %s\n", strings.Join(is, " "))
	}
	return sb.String()
}

func (w *ruleWriter) writeObjects() ([]string, error) {
	vars := w.flagVars()
	var objects []string
	for _, src := range w.target.Sources {
		kind := domain.ToolCXX
		if strings.HasSuffix(string(src), ".c") {
			kind = domain.ToolCC
		}
		rule, err := w.toolchainRule(kind)
		if err != nil {
			return nil, err
		}
		obj := w.objectFile(src)
		fmt.Fprintf(&w.sb, "build %s: %s %s", obj, rule, w.sourcePath(src))
		if deps := w.depOutputs(); len(deps) > 0 {
			fmt.Fprintf(&w.sb, " || %s", strings.Join(deps, " "))
		}
		w.sb.WriteByte('\n')
		w.sb.WriteString(vars)
		objects = append(objects, obj)
	}
	return objects, nil
}

func (w *ruleWriter) writeBinary() error {
	objects, err := w.writeObjects()
	if err != nil {
		return err
	}

	linkKind := domain.ToolLink
	switch w.target.Type {
	case domain.TypeSharedLibrary:
		linkKind = domain.ToolSoLink
	case domain.TypeStaticLibrary:
		linkKind = domain.ToolALink
	}
	rule, err := w.toolchainRule(linkKind)
	if err != nil {
		return err
	}

	inputs := append([]string(nil), objects...)
	for _, pair := range w.target.LinkedDeps() {
		if pair.Target.IsLinkable() {
			for _, out := range pair.Target.ComputedOutputs {
				inputs = append(inputs, string(out))
			}
		}
	}

	fmt.Fprintf(&w.sb, "build %s: %s %s", string(w.target.ComputedOutputs[0]), rule, strings.Join(inputs, " "))
	if deps := w.depOutputs(); len(deps) > 0 {
		fmt.Fprintf(&w.sb, " || %s", strings.Join(deps, " "))
	}
	w.sb.WriteByte('\n')
	return nil
}

func (w *ruleWriter) writeSourceSet() error {
	objects, err := w.writeObjects()
	if err != nil {
		return err
	}
	rule, err := w.toolchainRule(domain.ToolStamp)
	if err != nil {
		return err
	}
	fmt.Fprintf(&w.sb, "build %s: %s %s\n", stampFile(w.target), rule, strings.Join(objects, " "))
	return nil
}

func (w *ruleWriter) writeStamp() error {
	rule, err := w.toolchainRule(domain.ToolStamp)
	if err != nil {
		return err
	}
	fmt.Fprintf(&w.sb, "build %s: %s", stampFile(w.target), rule)
	if deps := w.depOutputs(); len(deps) > 0 {
		fmt.Fprintf(&w.sb, " %s", strings.Join(deps, " "))
	}
	w.sb.WriteByte('\n')
	return nil
}

// ruleID derives a unique ninja rule name for an action target.
func ruleID(t *domain.Target) string {
	s := t.TargetLabel.Dir + "_" + t.TargetLabel.Name + "_rule"
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '/' || c == ':' || c == '(' || c == ')' {
			c = '_'
		}
		out = append(out, c)
	}
	return string(out)
}

func (w *ruleWriter) writeAction() error {
	t := w.target
	id := ruleID(t)

	cmd := []string{w.sourcePath(t.Script)}
	cmd = append(cmd, t.Args...)
	fmt.Fprintf(&w.sb, "rule %s\n  command = %s\n", id, strings.Join(cmd, " "))

	implicit := []string{w.sourcePath(t.Script)}
	for _, in := range t.Inputs {
		implicit = append(implicit, w.sourcePath(in))
	}

	if t.Type == domain.TypeAction {
		var outs []string
		for _, out := range t.ComputedOutputs {
			outs = append(outs, string(out))
		}
		if len(outs) == 0 {
			return zerr.New("action target requires outputs")
		}
		fmt.Fprintf(&w.sb, "build %s: %s | %s", strings.Join(outs, " "), id, strings.Join(implicit, " "))
		if deps := w.depOutputs(); len(deps) > 0 {
			fmt.Fprintf(&w.sb, " || %s", strings.Join(deps, " "))
		}
		w.sb.WriteByte('\n')
		return nil
	}

	// action_foreach: one edge per source with the expanded outputs.
	for _, src := range t.Sources {
		var outs []string
		for _, pattern := range t.Outputs {
			outs = append(outs, string(expandOutputPattern(pattern, src)))
		}
		if len(outs) == 0 {
			return zerr.New("action_foreach target requires outputs")
		}
		fmt.Fprintf(&w.sb, "build %s: %s %s | %s", strings.Join(outs, " "), id, w.sourcePath(src), strings.Join(implicit, " "))
		if deps := w.depOutputs(); len(deps) > 0 {
			fmt.Fprintf(&w.sb, " || %s", strings.Join(deps, " "))
		}
		w.sb.WriteByte('\n')
	}
	return nil
}

func (w *ruleWriter) writeCopy() error {
	rule, err := w.toolchainRule(domain.ToolCopy)
	if err != nil {
		return err
	}
	t := w.target
	for _, src := range t.Sources {
		var outs []string
		for _, pattern := range t.Outputs {
			outs = append(outs, string(expandOutputPattern(pattern, src)))
		}
		if len(outs) == 0 {
			return zerr.New("copy target requires outputs")
		}
		fmt.Fprintf(&w.sb, "build %s: %s %s\n", strings.Join(outs, " "), rule, w.sourcePath(src))
	}
	return nil
}

func (w *ruleWriter) writeGeneratedFile() error {
	rule, err := w.toolchainRule(domain.ToolStamp)
	if err != nil {
		return err
	}
	var outs []string
	for _, out := range w.target.ComputedOutputs {
		outs = append(outs, string(out))
	}
	if len(outs) == 0 {
		return zerr.New("generated_file target requires outputs")
	}
	fmt.Fprintf(&w.sb, "build %s: %s", strings.Join(outs, " "), rule)
	if deps := w.depOutputs(); len(deps) > 0 {
		fmt.Fprintf(&w.sb, " %s", strings.Join(deps, " "))
	}
	w.sb.WriteByte('\n')
	return nil
}

// expandOutputPattern mirrors the builder's per-source output expansion so
// rule text and computed outputs agree.
func expandOutputPattern(pattern domain.OutputFile, src domain.SourceFile) domain.OutputFile {
	base := src.Path()
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	name := base
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		name = name[:i]
	}
	s := string(pattern)
	s = strings.ReplaceAll(s, "{{source_file_part}}", base)
	s = strings.ReplaceAll(s, "{{source_name_part}}", name)
	return domain.OutputFile(s)
}
