package domain

// DescriptionFile is one parsed build description: the declarations of a
// single file, with label and path references still in their textual form.
// The builder turns declarations into items.
type DescriptionFile struct {
	// File is the source file the declarations came from.
	File SourceFile

	// Imports lists further description files to load, as written.
	Imports []string

	// DefaultToolchain names the default toolchain. Only honored in the
	// root description.
	DefaultToolchain string

	Toolchains []*ToolchainDecl
	Configs    []*ConfigDecl
	Targets    []*TargetDecl
}

// ToolchainDecl declares a toolchain.
type ToolchainDecl struct {
	Name   string
	Tools  map[ToolKind]*Tool
	CFlags []string
}

// ConfigDecl declares a config.
type ConfigDecl struct {
	Name        string
	CFlags      []string
	Defines     []string
	IncludeDirs []string
}

// TargetDecl declares a target. Dependency and config references are label
// strings relative to the declaring file's directory; sources and inputs
// are path strings relative to the same directory.
type TargetDecl struct {
	Name string
	Type TargetType

	// Toolchain optionally names the toolchain the target belongs to; the
	// default toolchain applies when empty.
	Toolchain string

	Sources []string
	Inputs  []string
	Outputs []string

	PublicDeps  []string
	PrivateDeps []string
	DataDeps    []string

	Configs       []string
	PublicConfigs []string

	Script string
	Args   []string

	OutputName string
	Data       []string

	WriteRuntimeDeps string

	UnityAllowed *bool
}
