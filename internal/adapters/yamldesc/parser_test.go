package yamldesc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/mason/internal/adapters/yamldesc"
	"go.trai.ch/mason/internal/core/domain"
)

const sample = `default_toolchain: "//build:host"
imports:
  - build/build.yaml
toolchains:
  host:
    cflags: ["-O2"]
    tools:
      cc: { command: "gcc -c {{source}} -o {{output}}", description: "CC {{output}}" }
configs:
  warnings:
    cflags: ["-Wall", "-Wextra"]
    defines: ["STRICT"]
    include_dirs: ["include"]
targets:
  zeta:
    type: group
  app:
    type: executable
    sources: [main.cc, util.cc]
    inputs: ["//out/gen/version.h"]
    deps: [":util"]
    public_deps: ["//base:log"]
    data_deps: ["//tools:helper"]
    configs: [":warnings"]
    write_runtime_deps: "app.runtime_deps"
    unity_allowed: true
  util:
    type: static_library
    sources: [util.cc]
`

func TestParser_ParseFile(t *testing.T) {
	parser := yamldesc.NewParser()

	tree, err := parser.ParseFile("//mason.yaml", []byte(sample))
	require.NoError(t, err)

	assert.Equal(t, domain.SourceFile("//mason.yaml"), tree.File)
	assert.Equal(t, "//build:host", tree.DefaultToolchain)
	assert.Equal(t, []string{"build/build.yaml"}, tree.Imports)

	require.Len(t, tree.Toolchains, 1)
	tc := tree.Toolchains[0]
	assert.Equal(t, "host", tc.Name)
	assert.Equal(t, []string{"-O2"}, tc.CFlags)
	require.Contains(t, tc.Tools, domain.ToolCC)
	assert.Equal(t, "CC {{output}}", tc.Tools[domain.ToolCC].Description)

	require.Len(t, tree.Configs, 1)
	assert.Equal(t, "warnings", tree.Configs[0].Name)
	assert.Equal(t, []string{"STRICT"}, tree.Configs[0].Defines)

	// Targets come out sorted by name regardless of declaration order.
	require.Len(t, tree.Targets, 3)
	assert.Equal(t, "app", tree.Targets[0].Name)
	assert.Equal(t, "util", tree.Targets[1].Name)
	assert.Equal(t, "zeta", tree.Targets[2].Name)

	app := tree.Targets[0]
	assert.Equal(t, domain.TypeExecutable, app.Type)
	assert.Equal(t, []string{"main.cc", "util.cc"}, app.Sources)
	assert.Equal(t, []string{"//out/gen/version.h"}, app.Inputs)
	assert.Equal(t, []string{":util"}, app.PrivateDeps)
	assert.Equal(t, []string{"//base:log"}, app.PublicDeps)
	assert.Equal(t, []string{"//tools:helper"}, app.DataDeps)
	assert.Equal(t, []string{":warnings"}, app.Configs)
	assert.Equal(t, "app.runtime_deps", app.WriteRuntimeDeps)
	require.NotNil(t, app.UnityAllowed)
	assert.True(t, *app.UnityAllowed)
	assert.Nil(t, tree.Targets[1].UnityAllowed)
}

func TestParser_ParseError(t *testing.T) {
	parser := yamldesc.NewParser()

	_, err := parser.ParseFile("//bad.yaml", []byte("targets: ["))
	require.ErrorIs(t, err, domain.ErrDescriptionParseFailed)
}

func TestParser_EmptyFile(t *testing.T) {
	parser := yamldesc.NewParser()

	tree, err := parser.ParseFile("//empty.yaml", nil)
	require.NoError(t, err)
	assert.Empty(t, tree.Targets)
	assert.Empty(t, tree.Toolchains)
}
