package app

import (
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/mason/internal/adapters/yamldesc"
	"go.trai.ch/mason/internal/core/domain"
	"go.trai.ch/mason/internal/core/ports"
	"go.trai.ch/mason/internal/engine/builder"
	"go.trai.ch/mason/internal/engine/inputcache"
	"go.trai.ch/mason/internal/engine/scheduler"
	"go.trai.ch/zerr"
)

// argsFileName is the build-arguments override file under the out dir.
const argsFileName = "args.yaml"

// Setup wires one generation run: it locates the source root, validates
// the output directory, and owns the BuildSettings, Scheduler and Builder
// for the duration of the invocation.
type Setup struct {
	Settings  *domain.BuildSettings
	Scheduler *scheduler.Scheduler
	Builder   *builder.Builder

	// RootFile is the source-absolute root description.
	RootFile domain.SourceFile
}

// NewSetup prepares a run: cwd anchors relative paths, outDirArg is the
// single positional argument of gen, args is the --args override (empty
// requests generation of an empty defaults file).
func NewSetup(cwd, outDirArg, args string, parser ports.Parser, workers int) (*Setup, error) {
	rootDir, err := findSourceRoot(cwd)
	if err != nil {
		return nil, err
	}

	outDir, buildDir, err := resolveOutDir(rootDir, cwd, outDirArg)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, zerr.Wrap(err, domain.ErrInvalidOutDir.Error())
	}

	settings := &domain.BuildSettings{
		RootDir:      rootDir,
		OutDir:       outDir,
		BuildDir:     buildDir,
		GenEmptyArgs: args == "",
	}

	if err := writeArgsFile(settings, args); err != nil {
		return nil, err
	}

	cache := inputcache.New(rootDir, parser)
	sched := scheduler.New(workers, cache)

	return &Setup{
		Settings:  settings,
		Scheduler: sched,
		Builder:   builder.New(settings, sched),
		RootFile:  domain.SourceFile("//" + yamldesc.RootFileName),
	}, nil
}

// findSourceRoot walks up from cwd until it finds the root description.
func findSourceRoot(cwd string) (string, error) {
	dir := cwd
	for {
		if _, err := os.Stat(filepath.Join(dir, yamldesc.RootFileName)); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", zerr.With(domain.ErrRootNotFound, "cwd", cwd)
		}
		dir = parent
	}
}

// resolveOutDir accepts a source-root-relative path beginning with the
// root marker, or a path relative to the current directory. The result
// must stay inside the source tree so generated files have a source form.
func resolveOutDir(rootDir, cwd, arg string) (string, domain.SourceFile, error) {
	var abs string
	if strings.HasPrefix(arg, "//") {
		abs = filepath.Join(rootDir, filepath.FromSlash(strings.TrimPrefix(arg, "//")))
	} else {
		abs = filepath.Join(cwd, filepath.FromSlash(arg))
	}

	rel, err := filepath.Rel(rootDir, abs)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		err := zerr.With(domain.ErrInvalidOutDir, "out_dir", arg)
		return "", "", zerr.With(err, "root", rootDir)
	}

	return abs, domain.SourceFile("//" + filepath.ToSlash(rel)), nil
}

// writeArgsFile persists the --args override, or an empty defaults file
// when no override was passed and none exists yet.
func writeArgsFile(settings *domain.BuildSettings, args string) error {
	path := filepath.Join(settings.OutDir, argsFileName)

	if args != "" {
		if err := os.WriteFile(path, []byte(args+"\n"), 0o644); err != nil {
			return zerr.Wrap(err, "failed to write build args file")
		}
		return nil
	}

	if !settings.GenEmptyArgs {
		return nil
	}
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	content := "# Build arguments go here.\n# Example:\n#   is_debug: false\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return zerr.Wrap(err, "failed to write empty build args file")
	}
	return nil
}
