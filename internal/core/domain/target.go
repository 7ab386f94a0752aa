package domain

// Item is anything a BuilderRecord can wrap: a Target, Config or Toolchain.
type Item interface {
	Label() Label
	// AsTarget returns the item as a target, or nil for other item kinds.
	AsTarget() *Target
	// Kind names the item kind for diagnostics.
	Kind() string
}

// LabelTargetPair is one dependency edge: the referenced label plus the
// resolved target, filled in by the builder when the edge's record
// resolves. The pointer is nil until then.
type LabelTargetPair struct {
	Label  Label
	Target *Target
}

// TargetType enumerates the kinds of declarable targets.
type TargetType string

const (
	TypeExecutable    TargetType = "executable"
	TypeSharedLibrary TargetType = "shared_library"
	TypeStaticLibrary TargetType = "static_library"
	TypeSourceSet     TargetType = "source_set"
	TypeGroup         TargetType = "group"
	TypeAction        TargetType = "action"
	TypeActionForeach TargetType = "action_foreach"
	TypeCopy          TargetType = "copy"
	TypeBundleData    TargetType = "bundle_data"
	TypeCreateBundle  TargetType = "create_bundle"
	TypeGeneratedFile TargetType = "generated_file"
)

// ValidTargetType reports whether t names a declarable target type.
func ValidTargetType(t TargetType) bool {
	switch t {
	case TypeExecutable, TypeSharedLibrary, TypeStaticLibrary, TypeSourceSet,
		TypeGroup, TypeAction, TypeActionForeach, TypeCopy, TypeBundleData,
		TypeCreateBundle, TypeGeneratedFile:
		return true
	}
	return false
}

// Target is the central entity: a declared build artifact or action with
// inputs, outputs and typed dependency edges.
type Target struct {
	TargetLabel Label
	Type        TargetType

	// Toolchain is resolved by the builder before the target reaches the
	// Resolved state; nil until then.
	Toolchain *Toolchain

	Sources []SourceFile
	// Inputs are additional files consumed by the target beyond sources.
	Inputs []SourceFile
	// Outputs are the declared outputs of action-like and copy targets,
	// relative to the build dir.
	Outputs []OutputFile

	PublicDeps  []LabelTargetPair
	PrivateDeps []LabelTargetPair
	DataDeps    []LabelTargetPair

	Configs       []*Config
	PublicConfigs []*Config

	// Script and Args describe the command run by action targets.
	Script SourceFile
	Args   []string

	// OutputName overrides the label name for the produced artifact.
	OutputName string

	// Data lists runtime-only file dependencies, included in runtime-deps
	// files but never in the generated-input check.
	Data []string

	// WriteRuntimeDepsOutput, when set, requests a runtime-deps listing at
	// the given output path.
	WriteRuntimeDepsOutput OutputFile

	// UnityAllowed is a tri-state: nil when unity builds are not configured
	// for the target at all.
	UnityAllowed *bool

	// ComputedOutputs is finalized by the builder before the
	// resolved-and-generated callback fires.
	ComputedOutputs []OutputFile
}

// Label implements Item.
func (t *Target) Label() Label { return t.TargetLabel }

// AsTarget implements Item.
func (t *Target) AsTarget() *Target { return t }

// Kind implements Item.
func (t *Target) Kind() string { return "target" }

// IsBinary reports whether the target compiles source code.
func (t *Target) IsBinary() bool {
	switch t.Type {
	case TypeExecutable, TypeSharedLibrary, TypeStaticLibrary, TypeSourceSet:
		return true
	}
	return false
}

// IsLinkable reports whether other targets can link against this one.
func (t *Target) IsLinkable() bool {
	return t.Type == TypeSharedLibrary || t.Type == TypeStaticLibrary
}

// IsUnityConfigured reports whether the unity tri-state has been set.
func (t *Target) IsUnityConfigured() bool { return t.UnityAllowed != nil }

// IsUnityAllowed reports whether unity builds are enabled for the target.
func (t *Target) IsUnityAllowed() bool {
	return t.UnityAllowed != nil && *t.UnityAllowed
}

// ComputedOutputName returns the artifact base name: OutputName when set,
// the label name otherwise.
func (t *Target) ComputedOutputName() string {
	if t.OutputName != "" {
		return t.OutputName
	}
	return t.TargetLabel.Name
}

// LinkedDeps yields public and private deps, the edges that count for
// generated-input visibility. The slice is freshly allocated.
func (t *Target) LinkedDeps() []LabelTargetPair {
	out := make([]LabelTargetPair, 0, len(t.PublicDeps)+len(t.PrivateDeps))
	out = append(out, t.PublicDeps...)
	out = append(out, t.PrivateDeps...)
	return out
}

// AllDeps yields every dependency edge including data_deps.
func (t *Target) AllDeps() []LabelTargetPair {
	out := make([]LabelTargetPair, 0, len(t.PublicDeps)+len(t.PrivateDeps)+len(t.DataDeps))
	out = append(out, t.PublicDeps...)
	out = append(out, t.PrivateDeps...)
	out = append(out, t.DataDeps...)
	return out
}
