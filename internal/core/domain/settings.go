package domain

// BuildSettings holds the per-invocation configuration shared by every
// component: where the source tree is, where output goes, and which
// cross-cutting checks are enabled. It is owned by the setup object for the
// duration of the run; everything else holds it by reference.
type BuildSettings struct {
	// RootDir is the absolute filesystem path of the source root (the
	// directory containing the root description file).
	RootDir string

	// OutDir is the absolute filesystem path of the build output directory.
	OutDir string

	// BuildDir is the source-absolute form of OutDir, e.g. "//out/debug".
	BuildDir SourceFile

	// DefaultToolchain is the label of the distinguished default toolchain.
	DefaultToolchain Label

	// CheckPublicHeaders enables the public-header check.
	CheckPublicHeaders bool

	// CheckSystemIncludes additionally validates system includes.
	CheckSystemIncludes bool

	// GenEmptyArgs requests writing an empty args.yaml when none exists and
	// no override was passed on the command line.
	GenEmptyArgs bool
}
