package ports

import "go.trai.ch/mason/internal/core/domain"

// XcodeBuildSystem selects the build system for the Xcode projection.
type XcodeBuildSystem string

const (
	XcodeBuildSystemLegacy XcodeBuildSystem = "legacy"
	XcodeBuildSystemNew    XcodeBuildSystem = "new"
)

// ProjectWriterOptions carries the enumerated option surface for auxiliary
// projections. Writers read only the fields that apply to them.
type ProjectWriterOptions struct {
	// Filters restricts the projected targets by label pattern.
	Filters []string

	// Visual Studio.
	SlnName        string
	NoDeps         bool
	WinSDK         string
	NinjaExtraArgs string

	// Xcode / QtCreator.
	NinjaExecutable  string
	XcodeProject     string
	XcodeBuildSystem XcodeBuildSystem
	RootTarget       string

	// JSON.
	JSONFileName      string
	JSONIdeScript     string
	JSONIdeScriptArgs string

	Quiet bool
}

// ProjectWriter is an auxiliary projection: a pure function from the build
// settings, the resolved target graph and options to files under the build
// directory. Writers never mutate the graph.
//
//go:generate mockgen -source=projectwriter.go -destination=mocks/mock_projectwriter.go -package=mocks
type ProjectWriter interface {
	// Name returns the IDE name the writer registers under.
	Name() string

	// RunAndWriteFiles emits the projection for the given resolved targets.
	RunAndWriteFiles(settings *domain.BuildSettings, targets []*domain.Target, opts ProjectWriterOptions) error
}
