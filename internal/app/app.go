// Package app implements the application layer: the gen driver that loads
// the description tree, schedules rule writing, and sequences the
// aggregate, check and projection phases.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/muesli/termenv"
	"go.trai.ch/mason/internal/adapters/telemetry"
	"go.trai.ch/mason/internal/core/domain"
	"go.trai.ch/mason/internal/core/ports"
	"go.trai.ch/mason/internal/engine/builder"
	"go.trai.ch/mason/internal/engine/check"
	"go.trai.ch/mason/internal/engine/scheduler"
	"go.trai.ch/mason/internal/ui/output"
	"go.trai.ch/mason/internal/ui/style"
	"go.trai.ch/mason/internal/writers/ide"
	"go.trai.ch/mason/internal/writers/ninja"
	"go.trai.ch/mason/internal/writers/runtimedeps"
	"go.trai.ch/zerr"
)

// App represents the main application logic.
type App struct {
	parser  ports.Parser
	logger  ports.Logger
	stdout  io.Writer
	workDir string
	workers int
}

// New creates a new App instance.
func New(parser ports.Parser, log ports.Logger) *App {
	return &App{
		parser: parser,
		logger: log,
		stdout: os.Stdout,
	}
}

// WithStdout redirects progress and diagnostic output. Used for testing.
func (a *App) WithStdout(w io.Writer) *App {
	a.stdout = w
	return a
}

// WithWorkDir anchors relative paths somewhere other than the process
// working directory. Used for testing.
func (a *App) WithWorkDir(dir string) *App {
	a.workDir = dir
	return a
}

// WithWorkers overrides the scheduler pool size. Used for testing
// determinism across pool sizes.
func (a *App) WithWorkers(n int) *App {
	a.workers = n
	return a
}

// GenOptions is the enumerated option surface of the gen command.
type GenOptions struct {
	OutDir string

	CheckPublicHeaders  bool
	CheckSystemIncludes bool

	Filters []string
	IDE     string
	Args    string
	Quiet   bool

	ExportCompileCommands  bool
	CompileCommandsFilters []string
	ExportRustProject      bool

	Project ports.ProjectWriterOptions
}

// targetWriteInfo collects rule text per toolchain. The lock protects the
// rules; it is held only for the duration of an append.
type targetWriteInfo struct {
	mu    sync.Mutex
	rules ninja.PerToolchainRules
}

// Gen runs one generation: parse, resolve, schedule, collect, sort, write,
// check, project. It returns an error for anything that should exit 1.
func (a *App) Gen(ctx context.Context, opts GenOptions) error {
	start := time.Now()

	switch opts.Project.XcodeBuildSystem {
	case "", ports.XcodeBuildSystemLegacy, ports.XcodeBuildSystemNew:
	default:
		return zerr.Wrap(domain.ErrUnknownBuildSystem,
			"Unknown build system: "+string(opts.Project.XcodeBuildSystem))
	}

	cwd := a.workDir
	if cwd == "" {
		var err error
		if cwd, err = os.Getwd(); err != nil {
			return zerr.Wrap(err, "failed to determine working directory")
		}
	}

	setup, err := NewSetup(cwd, opts.OutDir, opts.Args, a.parser, a.workers)
	if err != nil {
		return err
	}
	defer setup.Scheduler.Shutdown()

	setup.Settings.CheckPublicHeaders = opts.CheckPublicHeaders
	setup.Settings.CheckSystemIncludes = opts.CheckSystemIncludes

	// Each resolved target is forwarded to the scheduler, so rule writing
	// overlaps resolution of the rest of the graph.
	writeInfo := &targetWriteInfo{rules: make(ninja.PerToolchainRules)}
	setup.Builder.SetResolvedAndGeneratedCallback(func(rec *builder.Record) {
		target := rec.Item().AsTarget()
		if target == nil {
			return
		}
		setup.Scheduler.ScheduleWork(func() {
			a.backgroundDoWrite(setup.Settings, setup.Scheduler, writeInfo, target)
		})
	})

	if err := setup.Builder.Load(ctx, setup.RootFile); err != nil {
		setup.Scheduler.WaitForAllWork()
		return err
	}

	setup.Scheduler.WaitForAllWork()
	if err := setup.Scheduler.Err(); err != nil {
		return err
	}

	if err := ninja.RunAndWriteFiles(setup.Settings, writeInfo.rules); err != nil {
		return err
	}

	targets := setup.Builder.GetAllResolvedTargets()
	if err := runtimedeps.RunAndWriteFiles(setup.Settings, targets); err != nil {
		return err
	}

	if err := check.UnknownGeneratedInputs(a.stdout, setup.Settings, targets,
		setup.Scheduler.UnknownGeneratedInputs()); err != nil {
		return err
	}

	if err := a.runAuxWriters(ctx, setup, targets, opts); err != nil {
		return err
	}

	if !opts.Quiet {
		a.printStats(setup, writeInfo, time.Since(start))
	}
	return nil
}

// backgroundDoWrite runs on a worker thread: it writes the rule text for
// one target and deposits it into the per-toolchain vector. All target
// reads are of data finalized by resolution; the queue push established
// the happens-before edge.
func (a *App) backgroundDoWrite(settings *domain.BuildSettings, sched *scheduler.Scheduler, writeInfo *targetWriteInfo, target *domain.Target) {
	rule, err := ninja.WriteRule(settings, target)
	if err != nil {
		sched.FailWithError(err)
		return
	}

	writeInfo.mu.Lock()
	defer writeInfo.mu.Unlock()
	writeInfo.rules[target.Toolchain] = append(writeInfo.rules[target.Toolchain],
		ninja.TargetRulePair{Target: target, Rule: rule})
}

// auxTimingLabel names the span (and timing line) for each projection.
var auxTimingLabel = map[string]string{
	"eclipse":   "Generating Eclipse settings",
	"vs":        "Generating Visual Studio projects",
	"vs2013":    "Generating Visual Studio projects",
	"vs2015":    "Generating Visual Studio projects",
	"vs2017":    "Generating Visual Studio projects",
	"vs2019":    "Generating Visual Studio projects",
	"xcode":     "Generating Xcode projects",
	"qtcreator": "Generating QtCreator projects",
	"json":      "Generating JSON projects",
}

// runAuxWriters runs the requested projections in fixed order: IDE,
// compile-commands, rust-project. Each is independent; a failure
// short-circuits the remaining ones.
func (a *App) runAuxWriters(ctx context.Context, setup *Setup, targets []*domain.Target, opts GenOptions) error {
	timings := telemetry.NewTimings()
	tracer := telemetry.Setup(timings)

	projOpts := opts.Project
	projOpts.Filters = opts.Filters
	projOpts.Quiet = opts.Quiet

	timed := func(label string, fn func() error) error {
		_, span := tracer.Start(ctx, label)
		err := fn()
		span.End()
		if err != nil {
			return err
		}
		if !opts.Quiet {
			if d, ok := timings.Duration(label); ok {
				fmt.Fprintf(a.stdout, "%s took %dms\n", label, d.Milliseconds())
			}
		}
		return nil
	}

	if opts.IDE != "" {
		label, ok := auxTimingLabel[opts.IDE]
		if !ok {
			return zerr.Wrap(domain.ErrUnknownIDE, "Unknown IDE: "+opts.IDE)
		}
		err := timed(label, func() error {
			return ide.RunAndWriteFiles(opts.IDE, setup.Settings, targets, projOpts)
		})
		if err != nil {
			return err
		}
	}

	if opts.ExportCompileCommands {
		err := timed("Generating compile_commands", func() error {
			return ide.WriteCompileCommands(setup.Settings, targets, opts.CompileCommandsFilters, projOpts)
		})
		if err != nil {
			return err
		}
	}

	if opts.ExportRustProject {
		err := timed("Generating rust-project.json", func() error {
			return ide.WriteRustProject(setup.Settings, targets)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// printStats emits the closing summary line.
func (a *App) printStats(setup *Setup, writeInfo *targetWriteInfo, elapsed time.Duration) {
	targetsCollected := 0
	for _, pairs := range writeInfo.rules {
		targetsCollected += len(pairs)
	}

	o := output.New(a.stdout)
	done := o.String("Done. ").Foreground(termenv.RGBColor(string(style.Green)))
	fmt.Fprintf(a.stdout, "%sMade %d targets from %d files in %dms\n",
		done.String(),
		targetsCollected,
		setup.Scheduler.InputFiles().InputFileCount(),
		elapsed.Milliseconds())
}
