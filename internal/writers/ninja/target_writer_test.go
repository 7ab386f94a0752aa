package ninja_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/mason/internal/core/domain"
	"go.trai.ch/mason/internal/writers/ninja"
)

func testToolchain() *domain.Toolchain {
	return &domain.Toolchain{
		TCLabel: domain.Label{Dir: "build", Name: "host"},
		Tools: map[domain.ToolKind]*domain.Tool{
			domain.ToolCC:    {Kind: domain.ToolCC, Command: "gcc -c {{source}} -o {{output}}"},
			domain.ToolCXX:   {Kind: domain.ToolCXX, Command: "g++ -c {{source}} -o {{output}}"},
			domain.ToolALink: {Kind: domain.ToolALink, Command: "ar rcs {{output}} {{inputs}}"},
			domain.ToolLink:  {Kind: domain.ToolLink, Command: "g++ -o {{output}} {{inputs}}"},
			domain.ToolStamp: {Kind: domain.ToolStamp, Command: "touch {{output}}"},
			domain.ToolCopy:  {Kind: domain.ToolCopy, Command: "cp {{source}} {{output}}"},
		},
	}
}

func testSettings() *domain.BuildSettings {
	return &domain.BuildSettings{BuildDir: "//out"}
}

func TestWriteRule_Executable(t *testing.T) {
	target := &domain.Target{
		TargetLabel:     domain.Label{Dir: "src", Name: "hello"},
		Type:            domain.TypeExecutable,
		Toolchain:       testToolchain(),
		Sources:         []domain.SourceFile{"//src/main.cc", "//src/util.c"},
		ComputedOutputs: []domain.OutputFile{"hello"},
	}

	rule, err := ninja.WriteRule(testSettings(), target)
	require.NoError(t, err)

	want := "build obj/src/hello.main.cc.o: build_host_cxx ../src/main.cc\n" +
		"build obj/src/hello.util.c.o: build_host_cc ../src/util.c\n" +
		"build hello: build_host_link obj/src/hello.main.cc.o obj/src/hello.util.c.o\n"
	assert.Equal(t, want, rule)
}

func TestWriteRule_StaticLibraryLinksIntoDependent(t *testing.T) {
	lib := &domain.Target{
		TargetLabel:     domain.Label{Dir: "lib", Name: "util"},
		Type:            domain.TypeStaticLibrary,
		Toolchain:       testToolchain(),
		Sources:         []domain.SourceFile{"//lib/util.cc"},
		ComputedOutputs: []domain.OutputFile{"obj/lib/libutil.a"},
	}
	exe := &domain.Target{
		TargetLabel:     domain.Label{Dir: "src", Name: "app"},
		Type:            domain.TypeExecutable,
		Toolchain:       testToolchain(),
		Sources:         []domain.SourceFile{"//src/app.cc"},
		ComputedOutputs: []domain.OutputFile{"app"},
		PublicDeps:      []domain.LabelTargetPair{{Label: lib.TargetLabel, Target: lib}},
	}

	rule, err := ninja.WriteRule(testSettings(), exe)
	require.NoError(t, err)

	assert.Contains(t, rule, "build app: build_host_link obj/src/app.app.cc.o obj/lib/libutil.a")
	assert.Contains(t, rule, "|| obj/lib/libutil.a")
}

func TestWriteRule_Action(t *testing.T) {
	target := &domain.Target{
		TargetLabel:     domain.Label{Dir: "gen", Name: "version"},
		Type:            domain.TypeAction,
		Toolchain:       testToolchain(),
		Script:          "//gen/make_version.py",
		Args:            []string{"--out", "gen/version.h"},
		ComputedOutputs: []domain.OutputFile{"gen/version.h"},
	}

	rule, err := ninja.WriteRule(testSettings(), target)
	require.NoError(t, err)

	assert.Contains(t, rule, "rule gen_version_rule\n  command = ../gen/make_version.py --out gen/version.h\n")
	assert.Contains(t, rule, "build gen/version.h: gen_version_rule | ../gen/make_version.py\n")
}

func TestWriteRule_ActionForeach(t *testing.T) {
	target := &domain.Target{
		TargetLabel: domain.Label{Dir: "proto", Name: "gen"},
		Type:        domain.TypeActionForeach,
		Toolchain:   testToolchain(),
		Script:      "//proto/compile.py",
		Sources:     []domain.SourceFile{"//proto/a.proto", "//proto/b.proto"},
		Outputs:     []domain.OutputFile{"gen/{{source_name_part}}.pb.h"},
	}

	rule, err := ninja.WriteRule(testSettings(), target)
	require.NoError(t, err)

	assert.Contains(t, rule, "build gen/a.pb.h: proto_gen_rule ../proto/a.proto")
	assert.Contains(t, rule, "build gen/b.pb.h: proto_gen_rule ../proto/b.proto")
}

func TestWriteRule_Copy(t *testing.T) {
	target := &domain.Target{
		TargetLabel: domain.Label{Dir: "data", Name: "assets"},
		Type:        domain.TypeCopy,
		Toolchain:   testToolchain(),
		Sources:     []domain.SourceFile{"//data/icon.png"},
		Outputs:     []domain.OutputFile{"assets/{{source_file_part}}"},
	}

	rule, err := ninja.WriteRule(testSettings(), target)
	require.NoError(t, err)
	assert.Equal(t, "build assets/icon.png: build_host_copy ../data/icon.png\n", rule)
}

func TestWriteRule_GroupEmitsStamp(t *testing.T) {
	dep := &domain.Target{
		TargetLabel:     domain.Label{Dir: "src", Name: "app"},
		Type:            domain.TypeExecutable,
		Toolchain:       testToolchain(),
		ComputedOutputs: []domain.OutputFile{"app"},
	}
	group := &domain.Target{
		TargetLabel: domain.Label{Name: "default"},
		Type:        domain.TypeGroup,
		Toolchain:   testToolchain(),
		PublicDeps:  []domain.LabelTargetPair{{Label: dep.TargetLabel, Target: dep}},
	}

	rule, err := ninja.WriteRule(testSettings(), group)
	require.NoError(t, err)
	assert.Equal(t, "build obj/default.stamp: build_host_stamp app\n", rule)
}

func TestWriteRule_EmptyRuleIsError(t *testing.T) {
	// A copy target with no sources produces no edges, which violates the
	// non-empty post-condition.
	target := &domain.Target{
		TargetLabel: domain.Label{Dir: "data", Name: "empty"},
		Type:        domain.TypeCopy,
		Toolchain:   testToolchain(),
	}

	_, err := ninja.WriteRule(testSettings(), target)
	require.ErrorIs(t, err, domain.ErrEmptyRule)
	assert.Contains(t, err.Error(), "//data:empty")
}

func TestWriteRule_MissingToolIsError(t *testing.T) {
	tc := &domain.Toolchain{
		TCLabel: domain.Label{Dir: "build", Name: "bare"},
		Tools:   map[domain.ToolKind]*domain.Tool{},
	}
	target := &domain.Target{
		TargetLabel:     domain.Label{Dir: "src", Name: "app"},
		Type:            domain.TypeExecutable,
		Toolchain:       tc,
		Sources:         []domain.SourceFile{"//src/app.cc"},
		ComputedOutputs: []domain.OutputFile{"app"},
	}

	_, err := ninja.WriteRule(testSettings(), target)
	require.ErrorIs(t, err, domain.ErrMissingTool)
}

func TestWriteRule_FlagVarsFromConfigs(t *testing.T) {
	target := &domain.Target{
		TargetLabel:     domain.Label{Dir: "src", Name: "app"},
		Type:            domain.TypeExecutable,
		Toolchain:       testToolchain(),
		Sources:         []domain.SourceFile{"//src/app.cc"},
		ComputedOutputs: []domain.OutputFile{"app"},
		Configs: []*domain.Config{{
			CfgLabel:    domain.Label{Name: "warnings"},
			CFlags:      []string{"-Wall"},
			Defines:     []string{"NDEBUG"},
			IncludeDirs: []string{"include"},
		}},
	}

	rule, err := ninja.WriteRule(testSettings(), target)
	require.NoError(t, err)
	assert.Contains(t, rule, "  cflags = -Wall\n")
	assert.Contains(t, rule, "  defines = -DNDEBUG\n")
	assert.Contains(t, rule, "  include_dirs = -Iinclude\n")
}
