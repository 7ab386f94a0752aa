package commands_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/mason/cmd/mason/commands"
	"go.trai.ch/mason/internal/app"
	"go.trai.ch/mason/internal/core/ports"
	"go.trai.ch/zerr"
)

// fakeApp captures the options the gen command hands to the application.
type fakeApp struct {
	called bool
	opts   app.GenOptions
	err    error
}

func (f *fakeApp) Gen(_ context.Context, opts app.GenOptions) error {
	f.called = true
	f.opts = opts
	return f.err
}

func execute(t *testing.T, fake *fakeApp, args ...string) error {
	t.Helper()
	cli := commands.New(fake)
	cli.SetArgs(args)
	var out, errOut bytes.Buffer
	cli.SetOutput(&out, &errOut)
	return cli.Execute(context.Background())
}

func TestGenCmd_RequiresExactlyOneOutDir(t *testing.T) {
	fake := &fakeApp{}

	require.Error(t, execute(t, fake))
	assert.False(t, fake.called)

	require.Error(t, execute(t, fake, "gen"))
	assert.False(t, fake.called)

	require.Error(t, execute(t, fake, "gen", "out/a", "out/b"))
	assert.False(t, fake.called)
}

func TestGenCmd_ForwardsOutDir(t *testing.T) {
	fake := &fakeApp{}
	require.NoError(t, execute(t, fake, "gen", "out/debug"))
	require.True(t, fake.called)
	assert.Equal(t, "out/debug", fake.opts.OutDir)
	assert.False(t, fake.opts.CheckPublicHeaders)
	assert.False(t, fake.opts.Quiet)
}

func TestGenCmd_CheckFlag(t *testing.T) {
	fake := &fakeApp{}
	require.NoError(t, execute(t, fake, "gen", "out", "--check"))
	assert.True(t, fake.opts.CheckPublicHeaders)
	assert.False(t, fake.opts.CheckSystemIncludes)

	fake = &fakeApp{}
	require.NoError(t, execute(t, fake, "gen", "out", "--check=system"))
	assert.True(t, fake.opts.CheckPublicHeaders)
	assert.True(t, fake.opts.CheckSystemIncludes)

	fake = &fakeApp{}
	require.Error(t, execute(t, fake, "gen", "out", "--check=bogus"))
	assert.False(t, fake.called)
}

func TestGenCmd_IDEAndProjectFlags(t *testing.T) {
	fake := &fakeApp{}
	require.NoError(t, execute(t, fake, "gen", "out",
		"--ide=vs2017",
		"--sln=my_solution",
		"--no-deps",
		"--winsdk=10.0.19041.0",
		"--ninja-executable=/opt/ninja",
		"--ninja-extra-args=-j 12",
		"--filters=//src/*;//lib:util",
	))

	assert.Equal(t, "vs2017", fake.opts.IDE)
	assert.Equal(t, "my_solution", fake.opts.Project.SlnName)
	assert.True(t, fake.opts.Project.NoDeps)
	assert.Equal(t, "10.0.19041.0", fake.opts.Project.WinSDK)
	assert.Equal(t, "/opt/ninja", fake.opts.Project.NinjaExecutable)
	assert.Equal(t, "-j 12", fake.opts.Project.NinjaExtraArgs)
	assert.Equal(t, []string{"//src/*", "//lib:util"}, fake.opts.Filters)
}

func TestGenCmd_XcodeFlags(t *testing.T) {
	fake := &fakeApp{}
	require.NoError(t, execute(t, fake, "gen", "out",
		"--ide=xcode",
		"--xcode-project=myproj",
		"--xcode-build-system=new",
		"--root-target=default",
	))

	assert.Equal(t, "myproj", fake.opts.Project.XcodeProject)
	assert.Equal(t, ports.XcodeBuildSystemNew, fake.opts.Project.XcodeBuildSystem)
	assert.Equal(t, "default", fake.opts.Project.RootTarget)
}

func TestGenCmd_JSONFlags(t *testing.T) {
	fake := &fakeApp{}
	require.NoError(t, execute(t, fake, "gen", "out",
		"--ide=json",
		"--json-file-name=proj.json",
		"--json-ide-script=./post.py",
		"--json-ide-script-args=extra",
	))

	assert.Equal(t, "proj.json", fake.opts.Project.JSONFileName)
	assert.Equal(t, "./post.py", fake.opts.Project.JSONIdeScript)
	assert.Equal(t, "extra", fake.opts.Project.JSONIdeScriptArgs)
}

func TestGenCmd_ExportFlags(t *testing.T) {
	fake := &fakeApp{}
	require.NoError(t, execute(t, fake, "gen", "out", "--export-compile-commands"))
	assert.True(t, fake.opts.ExportCompileCommands)
	assert.Empty(t, fake.opts.CompileCommandsFilters)

	fake = &fakeApp{}
	require.NoError(t, execute(t, fake, "gen", "out", "--export-compile-commands=//:a,//:b"))
	assert.True(t, fake.opts.ExportCompileCommands)
	assert.Equal(t, []string{"//:a", "//:b"}, fake.opts.CompileCommandsFilters)

	fake = &fakeApp{}
	require.NoError(t, execute(t, fake, "gen", "out", "--export-rust-project"))
	assert.True(t, fake.opts.ExportRustProject)
}

func TestGenCmd_ArgsAndQuiet(t *testing.T) {
	fake := &fakeApp{}
	require.NoError(t, execute(t, fake, "gen", "out", "--args=is_debug: false", "--quiet"))
	assert.Equal(t, "is_debug: false", fake.opts.Args)
	assert.True(t, fake.opts.Quiet)
}

func TestGenCmd_PropagatesAppError(t *testing.T) {
	fake := &fakeApp{err: zerr.New("generation failed")}
	err := execute(t, fake, "gen", "out")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "generation failed")
}
