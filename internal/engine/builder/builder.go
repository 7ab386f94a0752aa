// Package builder implements the incremental resolver: it loads description
// files through the input cache, maintains the dependency graph of records,
// transitions records through their lifecycle states, and fires a callback
// as each record becomes fully resolved.
package builder

import (
	"context"
	"sort"
	"strings"

	"go.trai.ch/mason/internal/core/domain"
	"go.trai.ch/mason/internal/engine/scheduler"
	"go.trai.ch/zerr"
)

// ResolvedCallback is invoked on the resolver goroutine exactly once per
// record, when it transitions to resolved-and-generated. It must return
// quickly; in practice it only enqueues work on the scheduler.
type ResolvedCallback func(*Record)

// Builder owns the record graph. It is not safe for concurrent use; all
// mutations happen on the goroutine that calls Load.
type Builder struct {
	settings *domain.BuildSettings
	sched    *scheduler.Scheduler

	records map[domain.Label]*Record
	loaded  map[domain.SourceFile]bool

	resolvedCb ResolvedCallback

	// decl-side references of target records, kept until resolution.
	refs map[*Record]*targetRefs
}

type targetRefs struct {
	toolchain     domain.Label
	configs       []domain.Label
	publicConfigs []domain.Label
}

// New creates a builder for the given settings, loading files and recording
// generated-input assertions through the scheduler.
func New(settings *domain.BuildSettings, sched *scheduler.Scheduler) *Builder {
	return &Builder{
		settings: settings,
		sched:    sched,
		records:  make(map[domain.Label]*Record),
		loaded:   make(map[domain.SourceFile]bool),
		refs:     make(map[*Record]*targetRefs),
	}
}

// SetResolvedAndGeneratedCallback registers the single resolved callback.
// It must be set before Load.
func (b *Builder) SetResolvedAndGeneratedCallback(cb ResolvedCallback) {
	b.resolvedCb = cb
}

// Load parses the root description and, transitively, every file it
// imports, defining and incrementally resolving records as declarations
// arrive. It aborts on the first definition or resolution error.
func (b *Builder) Load(ctx context.Context, root domain.SourceFile) error {
	if err := b.loadFile(ctx, root); err != nil {
		return err
	}
	return b.CheckComplete()
}

func (b *Builder) loadFile(ctx context.Context, file domain.SourceFile) error {
	if b.loaded[file] {
		return nil
	}
	b.loaded[file] = true

	tree, err := b.sched.InputFiles().Load(ctx, file)
	if err != nil {
		return err
	}
	dir := file.Dir()

	if tree.DefaultToolchain != "" && b.settings.DefaultToolchain.IsZero() {
		tc, err := domain.ParseLabel(tree.DefaultToolchain, dir)
		if err != nil {
			return zerr.With(err, "file", string(file))
		}
		b.settings.DefaultToolchain = tc
	}

	for _, decl := range tree.Toolchains {
		item := &domain.Toolchain{
			TCLabel: domain.Label{Dir: dir, Name: decl.Name},
			Tools:   decl.Tools,
			CFlags:  decl.CFlags,
		}
		if err := b.defineItem(item, file, nil); err != nil {
			return err
		}
	}

	for _, decl := range tree.Configs {
		item := &domain.Config{
			CfgLabel:    domain.Label{Dir: dir, Name: decl.Name},
			CFlags:      decl.CFlags,
			Defines:     decl.Defines,
			IncludeDirs: decl.IncludeDirs,
		}
		if err := b.defineItem(item, file, nil); err != nil {
			return err
		}
	}

	for _, decl := range tree.Targets {
		if err := b.defineTarget(decl, dir, file); err != nil {
			return err
		}
	}

	for _, imp := range tree.Imports {
		impFile, err := domain.NewSourceFile(imp, dir)
		if err != nil {
			return zerr.With(err, "file", string(file))
		}
		if err := b.loadFile(ctx, impFile); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) defineTarget(decl *domain.TargetDecl, dir string, file domain.SourceFile) error {
	if !domain.ValidTargetType(decl.Type) {
		err := zerr.With(domain.ErrInvalidTargetType, "type", string(decl.Type))
		err = zerr.With(err, "target", decl.Name)
		return zerr.With(err, "file", string(file))
	}
	if b.settings.DefaultToolchain.IsZero() {
		return zerr.With(domain.ErrMissingToolchain, "file", string(file))
	}

	tcLabel := b.settings.DefaultToolchain
	if decl.Toolchain != "" {
		var err error
		tcLabel, err = domain.ParseLabel(decl.Toolchain, dir)
		if err != nil {
			return zerr.With(err, "file", string(file))
		}
	}

	label := domain.Label{Dir: dir, Name: decl.Name}.InToolchain(tcLabel, b.settings.DefaultToolchain)

	t := &domain.Target{
		TargetLabel:            label,
		Type:                   decl.Type,
		Args:                   decl.Args,
		OutputName:             decl.OutputName,
		Data:                   decl.Data,
		UnityAllowed:           decl.UnityAllowed,
		WriteRuntimeDepsOutput: domain.OutputFile(decl.WriteRuntimeDeps),
	}

	var err error
	if t.Sources, err = b.sourceFiles(decl.Sources, dir, file); err != nil {
		return err
	}
	if t.Inputs, err = b.sourceFiles(decl.Inputs, dir, file); err != nil {
		return err
	}
	for _, out := range decl.Outputs {
		t.Outputs = append(t.Outputs, domain.OutputFile(out))
	}
	if decl.Script != "" {
		if t.Script, err = domain.NewSourceFile(decl.Script, dir); err != nil {
			return zerr.With(err, "file", string(file))
		}
	}
	if t.PublicDeps, err = b.labelPairs(decl.PublicDeps, dir, file); err != nil {
		return err
	}
	if t.PrivateDeps, err = b.labelPairs(decl.PrivateDeps, dir, file); err != nil {
		return err
	}
	if t.DataDeps, err = b.labelPairs(decl.DataDeps, dir, file); err != nil {
		return err
	}

	refs := &targetRefs{toolchain: tcLabel}
	if refs.configs, err = b.labels(decl.Configs, dir, file); err != nil {
		return err
	}
	if refs.publicConfigs, err = b.labels(decl.PublicConfigs, dir, file); err != nil {
		return err
	}

	depLabels := []domain.Label{tcLabel}
	for _, pair := range t.AllDeps() {
		depLabels = append(depLabels, pair.Label)
	}
	depLabels = append(depLabels, refs.configs...)
	depLabels = append(depLabels, refs.publicConfigs...)

	return b.defineItemWithRefs(t, file, depLabels, refs)
}

func (b *Builder) defineItem(item domain.Item, file domain.SourceFile, deps []domain.Label) error {
	return b.defineItemWithRefs(item, file, deps, nil)
}

func (b *Builder) defineItemWithRefs(item domain.Item, file domain.SourceFile, deps []domain.Label, refs *targetRefs) error {
	rec := b.recordFor(item.Label(), file)
	if rec.state >= StateDefined {
		err := zerr.Wrap(domain.ErrDuplicateDefinition, "duplicate definition of "+item.Label().String())
		err = zerr.With(err, "file", string(file))
		return zerr.With(err, "previous", string(rec.definedIn))
	}
	rec.item = item
	rec.definedIn = file
	rec.state = StateDefined
	if refs != nil {
		b.refs[rec] = refs
	}

	for _, dep := range deps {
		depRec := b.recordFor(dep, file)
		rec.deps = append(rec.deps, depRec)
		if depRec.state < StateResolved {
			rec.waitingOn++
			depRec.dependents = append(depRec.dependents, rec)
		}
	}

	if rec.waitingOn == 0 {
		return b.resolveFrom(rec)
	}
	return nil
}

// resolveFrom resolves rec and then every dependent that becomes ready,
// breadth-first. The order in which ready records resolve is an
// implementation detail; every record eventually resolves or the load fails.
func (b *Builder) resolveFrom(rec *Record) error {
	ready := []*Record{rec}
	for len(ready) > 0 {
		cur := ready[0]
		ready = ready[1:]
		if cur.state != StateDefined || cur.waitingOn > 0 {
			continue
		}

		if t := cur.item.AsTarget(); t != nil {
			if err := b.resolveTarget(cur, t); err != nil {
				return err
			}
		}
		cur.state = StateResolved

		if b.resolvedCb != nil {
			b.resolvedCb(cur)
		}
		cur.state = StateResolvedAndGenerated

		for _, dep := range cur.dependents {
			dep.waitingOn--
			if dep.waitingOn == 0 && dep.state == StateDefined {
				ready = append(ready, dep)
			}
		}
	}
	return nil
}

// resolveTarget finalizes a target whose dependencies are all resolved:
// wires the toolchain and configs, computes outputs, accumulates the
// visible generated-output set, and records unknown generated inputs.
func (b *Builder) resolveTarget(rec *Record, t *domain.Target) error {
	refs := b.refs[rec]
	delete(b.refs, rec)

	for _, edges := range []*[]domain.LabelTargetPair{&t.PublicDeps, &t.PrivateDeps, &t.DataDeps} {
		for i := range *edges {
			pair := &(*edges)[i]
			depRec := b.records[pair.Label]
			dep := depRec.item.AsTarget()
			if dep == nil {
				err := zerr.Wrap(domain.ErrDepKindMismatch,
					pair.Label.String()+" is a "+depRec.item.Kind()+", not a target")
				return zerr.With(err, "file", string(rec.definedIn))
			}
			pair.Target = dep
		}
	}

	tcRec := b.records[refs.toolchain]
	tc, ok := tcRec.item.(*domain.Toolchain)
	if !ok {
		err := zerr.Wrap(domain.ErrMissingToolchain, "toolchain "+refs.toolchain.String()+" is not defined")
		return zerr.With(err, "file", string(rec.definedIn))
	}
	t.Toolchain = tc

	resolveConfigs := func(labels []domain.Label) ([]*domain.Config, error) {
		cfgs := make([]*domain.Config, 0, len(labels))
		for _, cfgLabel := range labels {
			cfgRec := b.records[cfgLabel]
			cfg, ok := cfgRec.item.(*domain.Config)
			if !ok {
				err := zerr.Wrap(domain.ErrDepKindMismatch,
					cfgLabel.String()+" is a "+cfgRec.item.Kind()+", not a config")
				return nil, zerr.With(err, "file", string(rec.definedIn))
			}
			cfgs = append(cfgs, cfg)
		}
		return cfgs, nil
	}
	var err error
	if t.Configs, err = resolveConfigs(refs.configs); err != nil {
		return err
	}
	if t.PublicConfigs, err = resolveConfigs(refs.publicConfigs); err != nil {
		return err
	}

	if err := b.computeOutputs(rec, t); err != nil {
		return err
	}

	depVisible := make(map[domain.OutputFile]struct{})
	for _, pair := range t.LinkedDeps() {
		for out := range b.records[pair.Label].genOutputs {
			depVisible[out] = struct{}{}
		}
	}

	b.checkSourcesGenerated(t, depVisible)

	rec.genOutputs = depVisible
	for _, out := range t.ComputedOutputs {
		rec.genOutputs[out] = struct{}{}
	}
	return nil
}

// checkSourcesGenerated asserts that every source or input under the build
// directory is produced by a dependency reachable through linked deps.
// Violations are recorded on the scheduler and reported in one batch after
// the run; data_deps never satisfy the requirement.
func (b *Builder) checkSourcesGenerated(t *domain.Target, depVisible map[domain.OutputFile]struct{}) {
	check := func(f domain.SourceFile) {
		if !f.IsInBuildDir(b.settings) {
			return
		}
		if _, ok := depVisible[domain.OutputFileForSource(b.settings, f)]; !ok {
			b.sched.AddUnknownGeneratedInput(f, t)
		}
	}
	for _, f := range t.Sources {
		check(f)
	}
	for _, f := range t.Inputs {
		check(f)
	}
}

func (b *Builder) computeOutputs(rec *Record, t *domain.Target) error {
	tcPrefix := ""
	if t.TargetLabel.Toolchain != "" {
		tcPrefix = t.Toolchain.NinjaName() + "/"
	}

	switch t.Type {
	case domain.TypeExecutable:
		t.ComputedOutputs = []domain.OutputFile{domain.OutputFile(tcPrefix + t.ComputedOutputName())}
	case domain.TypeSharedLibrary:
		t.ComputedOutputs = []domain.OutputFile{domain.OutputFile(tcPrefix + "lib" + t.ComputedOutputName() + ".so")}
	case domain.TypeStaticLibrary:
		objDir := "obj/"
		if t.TargetLabel.Dir != "" {
			objDir += t.TargetLabel.Dir + "/"
		}
		t.ComputedOutputs = []domain.OutputFile{domain.OutputFile(tcPrefix + objDir + "lib" + t.ComputedOutputName() + ".a")}
	case domain.TypeSourceSet, domain.TypeGroup, domain.TypeBundleData:
		// Phony-only targets produce no real outputs.
	case domain.TypeAction, domain.TypeGeneratedFile, domain.TypeCreateBundle:
		if t.Type == domain.TypeAction && t.Script == "" {
			err := zerr.With(zerr.New("action target requires a script"), "label", t.TargetLabel.String())
			return zerr.With(err, "file", string(rec.definedIn))
		}
		t.ComputedOutputs = append([]domain.OutputFile(nil), t.Outputs...)
	case domain.TypeActionForeach, domain.TypeCopy:
		if t.Type == domain.TypeActionForeach && t.Script == "" {
			err := zerr.With(zerr.New("action_foreach target requires a script"), "label", t.TargetLabel.String())
			return zerr.With(err, "file", string(rec.definedIn))
		}
		for _, src := range t.Sources {
			for _, pattern := range t.Outputs {
				t.ComputedOutputs = append(t.ComputedOutputs, expandOutputPattern(pattern, src))
			}
		}
	}
	return nil
}

// expandOutputPattern substitutes the per-source placeholders in an output
// pattern of an action_foreach or copy target.
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

func (b *Builder) recordFor(label domain.Label, from domain.SourceFile) *Record {
	rec, ok := b.records[label]
	if !ok {
		rec = &Record{label: label, state: StateReferenced, referencedFrom: from}
		b.records[label] = rec
	}
	return rec
}

func (b *Builder) sourceFiles(paths []string, dir string, file domain.SourceFile) ([]domain.SourceFile, error) {
	out := make([]domain.SourceFile, 0, len(paths))
	for _, p := range paths {
		f, err := domain.NewSourceFile(p, dir)
		if err != nil {
			return nil, zerr.With(err, "file", string(file))
		}
		out = append(out, f)
	}
	return out, nil
}

func (b *Builder) labelPairs(refs []string, dir string, file domain.SourceFile) ([]domain.LabelTargetPair, error) {
	labels, err := b.labels(refs, dir, file)
	if err != nil {
		return nil, err
	}
	out := make([]domain.LabelTargetPair, len(labels))
	for i, l := range labels {
		out[i] = domain.LabelTargetPair{Label: l}
	}
	return out, nil
}

func (b *Builder) labels(refs []string, dir string, file domain.SourceFile) ([]domain.Label, error) {
	out := make([]domain.Label, 0, len(refs))
	for _, ref := range refs {
		l, err := domain.ParseLabel(ref, dir)
		if err != nil {
			return nil, zerr.With(err, "file", string(file))
		}
		out = append(out, l)
	}
	return out, nil
}

// CheckComplete verifies that every referenced record was defined and every
// defined record resolved. It reports undefined labels first, then cycles.
func (b *Builder) CheckComplete() error {
	recs := b.sortedRecords()

	for _, rec := range recs {
		if rec.state < StateDefined {
			err := zerr.Wrap(domain.ErrMissingTarget, "undefined target "+rec.label.String())
			return zerr.With(err, "referenced_from", string(rec.referencedFrom))
		}
	}

	for _, rec := range recs {
		if rec.state < StateResolved {
			return b.cycleError(rec)
		}
	}
	return nil
}

// cycleError walks the unresolved portion of the graph from rec and
// reports the labels on the cycle it finds.
func (b *Builder) cycleError(rec *Record) error {
	const (
		visiting = 1
		done     = 2
	)
	visited := make(map[*Record]int)
	var path []*Record

	var visit func(r *Record) []string
	visit = func(r *Record) []string {
		visited[r] = visiting
		path = append(path, r)
		for _, dep := range r.deps {
			if dep.state >= StateResolved {
				continue
			}
			if visited[dep] == visiting {
				start := 0
				for i, p := range path {
					if p == dep {
						start = i
						break
					}
				}
				cycle := make([]string, 0, len(path)-start+1)
				for _, p := range path[start:] {
					cycle = append(cycle, p.label.String())
				}
				return append(cycle, dep.label.String())
			}
			if visited[dep] == 0 {
				if cycle := visit(dep); cycle != nil {
					return cycle
				}
			}
		}
		visited[r] = done
		path = path[:len(path)-1]
		return nil
	}

	if cycle := visit(rec); cycle != nil {
		return zerr.Wrap(domain.ErrCycleDetected, "dependency cycle: "+strings.Join(cycle, " -> "))
	}
	// Unresolved without a local cycle: blocked on a cycle elsewhere.
	return zerr.Wrap(domain.ErrCycleDetected, "unresolved record "+rec.label.String())
}

// GetAllResolvedTargets returns every resolved target, ordered by label.
func (b *Builder) GetAllResolvedTargets() []*domain.Target {
	var out []*domain.Target
	for _, rec := range b.sortedRecords() {
		if rec.state >= StateResolved && rec.item != nil {
			if t := rec.item.AsTarget(); t != nil {
				out = append(out, t)
			}
		}
	}
	return out
}

// Lookup returns the item defined for label, or nil.
func (b *Builder) Lookup(label domain.Label) domain.Item {
	rec, ok := b.records[label]
	if !ok {
		return nil
	}
	return rec.item
}

func (b *Builder) sortedRecords() []*Record {
	recs := make([]*Record, 0, len(b.records))
	for _, rec := range b.records {
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].label.Less(recs[j].label) })
	return recs
}
