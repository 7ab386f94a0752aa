package ide_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/mason/internal/core/domain"
	"go.trai.ch/mason/internal/core/ports"
	"go.trai.ch/mason/internal/writers/ide"
)

func testToolchain() *domain.Toolchain {
	return &domain.Toolchain{
		TCLabel: domain.Label{Dir: "build", Name: "host"},
		Tools: map[domain.ToolKind]*domain.Tool{
			domain.ToolCXX: {Kind: domain.ToolCXX, Command: "g++ -c {{source}} -o {{output}}"},
		},
	}
}

func testTargets() []*domain.Target {
	tc := testToolchain()
	lib := &domain.Target{
		TargetLabel:     domain.Label{Dir: "lib", Name: "util"},
		Type:            domain.TypeStaticLibrary,
		Toolchain:       tc,
		Sources:         []domain.SourceFile{"//lib/util.cc"},
		ComputedOutputs: []domain.OutputFile{"obj/lib/libutil.a"},
	}
	app := &domain.Target{
		TargetLabel:     domain.Label{Dir: "src", Name: "app"},
		Type:            domain.TypeExecutable,
		Toolchain:       tc,
		Sources:         []domain.SourceFile{"//src/app.cc"},
		ComputedOutputs: []domain.OutputFile{"app"},
		PublicDeps:      []domain.LabelTargetPair{{Label: lib.TargetLabel, Target: lib}},
	}
	return []*domain.Target{app, lib}
}

func testSettings(t *testing.T) *domain.BuildSettings {
	t.Helper()
	return &domain.BuildSettings{
		RootDir:          t.TempDir(),
		OutDir:           t.TempDir(),
		BuildDir:         "//out",
		DefaultToolchain: domain.Label{Dir: "build", Name: "host"},
	}
}

func TestRunAndWriteFiles_UnknownIDE(t *testing.T) {
	err := ide.RunAndWriteFiles("foo", testSettings(t), nil, ports.ProjectWriterOptions{})
	require.ErrorIs(t, err, domain.ErrUnknownIDE)
	assert.Contains(t, err.Error(), "Unknown IDE: foo")
}

func TestRunAndWriteFiles_AllRegisteredNames(t *testing.T) {
	for _, name := range []string{"eclipse", "vs", "vs2013", "vs2015", "vs2017", "vs2019", "xcode", "qtcreator", "json"} {
		_, ok := ide.Lookup(name)
		assert.True(t, ok, name)
	}
}

func TestJSONWriter(t *testing.T) {
	settings := testSettings(t)
	err := ide.RunAndWriteFiles("json", settings, testTargets(), ports.ProjectWriterOptions{})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(settings.OutDir, "project.json"))
	require.NoError(t, err)

	var project struct {
		BuildSettings struct {
			DefaultToolchain string `json:"default_toolchain"`
		} `json:"build_settings"`
		Targets map[string]struct {
			Type       string   `json:"type"`
			PublicDeps []string `json:"public_deps"`
		} `json:"targets"`
	}
	require.NoError(t, json.Unmarshal(data, &project))

	assert.Equal(t, "//build:host", project.BuildSettings.DefaultToolchain)
	require.Contains(t, project.Targets, "//src:app")
	assert.Equal(t, "executable", project.Targets["//src:app"].Type)
	assert.Equal(t, []string{"//lib:util"}, project.Targets["//src:app"].PublicDeps)
}

func TestJSONWriter_CustomFileName(t *testing.T) {
	settings := testSettings(t)
	err := ide.RunAndWriteFiles("json", settings, testTargets(), ports.ProjectWriterOptions{
		JSONFileName: "custom.json",
	})
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(settings.OutDir, "custom.json"))
	assert.NoError(t, err)
}

func TestFilterTargets(t *testing.T) {
	targets := testTargets()

	assert.Len(t, ide.FilterTargets(targets, nil), 2)
	assert.Len(t, ide.FilterTargets(targets, []string{"//src:app"}), 1)
	assert.Len(t, ide.FilterTargets(targets, []string{"//src:*"}), 1)
	assert.Len(t, ide.FilterTargets(targets, []string{"//lib/*"}), 1)
	assert.Empty(t, ide.FilterTargets(targets, []string{"//other:thing"}))
}

func TestVisualStudioWriter(t *testing.T) {
	settings := testSettings(t)
	err := ide.RunAndWriteFiles("vs", settings, testTargets(), ports.ProjectWriterOptions{
		SlnName: "mysol",
		WinSDK:  "10.0.19041.0",
	})
	require.NoError(t, err)

	sln, err := os.ReadFile(filepath.Join(settings.OutDir, "mysol.sln"))
	require.NoError(t, err)
	assert.Contains(t, string(sln), "app.vcxproj")

	proj, err := os.ReadFile(filepath.Join(settings.OutDir, "app.vcxproj"))
	require.NoError(t, err)
	assert.Contains(t, string(proj), "10.0.19041.0")
	assert.Contains(t, string(proj), "src/app")
}

func TestXcodeWriter(t *testing.T) {
	settings := testSettings(t)
	err := ide.RunAndWriteFiles("xcode", settings, testTargets(), ports.ProjectWriterOptions{
		XcodeProject:    "myproj",
		NinjaExecutable: "/usr/bin/ninja",
	})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(settings.OutDir, "myproj.xcodeproj", "project.pbxproj"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "/usr/bin/ninja")
}

func TestQtCreatorWriter(t *testing.T) {
	settings := testSettings(t)
	err := ide.RunAndWriteFiles("qtcreator", settings, testTargets(), ports.ProjectWriterOptions{})
	require.NoError(t, err)

	for _, name := range []string{
		"qtcreator_project.files",
		"qtcreator_project.includes",
		"qtcreator_project.config",
		"qtcreator_project.creator",
	} {
		_, err := os.Stat(filepath.Join(settings.OutDir, name))
		assert.NoError(t, err, name)
	}
}

func TestWriteCompileCommands(t *testing.T) {
	settings := testSettings(t)
	err := ide.WriteCompileCommands(settings, testTargets(), nil, ports.ProjectWriterOptions{})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(settings.OutDir, "compile_commands.json"))
	require.NoError(t, err)

	var commands []struct {
		File    string `json:"file"`
		Command string `json:"command"`
	}
	require.NoError(t, json.Unmarshal(data, &commands))
	require.Len(t, commands, 2)
	assert.Contains(t, commands[0].Command, "g++")
}

func TestWriteRustProject(t *testing.T) {
	settings := testSettings(t)
	tc := testToolchain()
	crate := &domain.Target{
		TargetLabel: domain.Label{Dir: "rust", Name: "core"},
		Type:        domain.TypeStaticLibrary,
		Toolchain:   tc,
		Sources:     []domain.SourceFile{"//rust/lib.rs"},
	}

	err := ide.WriteRustProject(settings, []*domain.Target{crate})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(settings.OutDir, "rust-project.json"))
	require.NoError(t, err)

	var project struct {
		Crates []struct {
			DisplayName string `json:"display_name"`
		} `json:"crates"`
	}
	require.NoError(t, json.Unmarshal(data, &project))
	require.Len(t, project.Crates, 1)
	assert.Equal(t, "core", project.Crates[0].DisplayName)
}
