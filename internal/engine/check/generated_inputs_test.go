package check_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/mason/internal/core/domain"
	"go.trai.ch/mason/internal/engine/check"
)

func testSettings() *domain.BuildSettings {
	return &domain.BuildSettings{BuildDir: "//out"}
}

func TestUnknownGeneratedInputs_NoEntries(t *testing.T) {
	var buf bytes.Buffer
	err := check.UnknownGeneratedInputs(&buf, testSettings(), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, buf.String())
}

func TestUnknownGeneratedInputs_WithGenerator(t *testing.T) {
	gen := &domain.Target{
		TargetLabel:     domain.Label{Name: "gen"},
		Type:            domain.TypeAction,
		ComputedOutputs: []domain.OutputFile{"gen/out.h"},
	}
	user := &domain.Target{
		TargetLabel: domain.Label{Name: "user"},
		Type:        domain.TypeSourceSet,
	}

	unknown := map[domain.SourceFile][]*domain.Target{
		"//out/gen/out.h": {user},
	}

	var buf bytes.Buffer
	err := check.UnknownGeneratedInputs(&buf, testSettings(), []*domain.Target{gen, user}, unknown)
	require.ErrorIs(t, err, domain.ErrUnknownGeneratedInputs)

	out := buf.String()
	assert.Contains(t, out, "//out/gen/out.h")
	assert.Contains(t, out, "//:user")
	assert.Contains(t, out, "that generates the file is:\n  //:gen")
	assert.Contains(t, out, "the intermediate ones must be public_deps")
}

func TestUnknownGeneratedInputs_NoGenerator(t *testing.T) {
	user := &domain.Target{TargetLabel: domain.Label{Name: "user"}}
	unknown := map[domain.SourceFile][]*domain.Target{
		"//out/gen/out.h": {user},
	}

	var buf bytes.Buffer
	err := check.UnknownGeneratedInputs(&buf, testSettings(), []*domain.Target{user}, unknown)
	require.ErrorIs(t, err, domain.ErrUnknownGeneratedInputs)
	assert.Contains(t, buf.String(), "no targets in the build generate that file")
}

func TestUnknownGeneratedInputs_MultipleClaimantsAndSummary(t *testing.T) {
	userA := &domain.Target{TargetLabel: domain.Label{Dir: "a", Name: "user"}}
	userB := &domain.Target{TargetLabel: domain.Label{Dir: "b", Name: "user"}}

	unknown := map[domain.SourceFile][]*domain.Target{
		"//out/gen/one.h": {userB, userA},
		"//out/gen/two.h": {userA},
	}

	var buf bytes.Buffer
	err := check.UnknownGeneratedInputs(&buf, testSettings(), []*domain.Target{userA, userB}, unknown)
	require.Error(t, err)

	out := buf.String()
	assert.Contains(t, out, "for the targets:\n  //a:user\n  //b:user")
	assert.Contains(t, out, "2 generated input errors found.")
}

func TestUnknownGeneratedInputs_ShowsToolchainsWhenOffDefault(t *testing.T) {
	gen := &domain.Target{
		TargetLabel:     domain.Label{Name: "gen", Toolchain: "//build:arm"},
		ComputedOutputs: []domain.OutputFile{"gen/out.h"},
	}
	user := &domain.Target{TargetLabel: domain.Label{Name: "user"}}

	unknown := map[domain.SourceFile][]*domain.Target{
		"//out/gen/out.h": {user},
	}

	var buf bytes.Buffer
	err := check.UnknownGeneratedInputs(&buf, testSettings(), []*domain.Target{gen, user}, unknown)
	require.Error(t, err)
	assert.Contains(t, buf.String(), "//:gen(//build:arm)")
}

func TestUnknownGeneratedInputs_HidesToolchainsOnDefault(t *testing.T) {
	gen := &domain.Target{
		TargetLabel:     domain.Label{Name: "gen"},
		ComputedOutputs: []domain.OutputFile{"gen/out.h"},
	}
	user := &domain.Target{TargetLabel: domain.Label{Name: "user"}}

	unknown := map[domain.SourceFile][]*domain.Target{
		"//out/gen/out.h": {user},
	}

	var buf bytes.Buffer
	err := check.UnknownGeneratedInputs(&buf, testSettings(), []*domain.Target{gen, user}, unknown)
	require.Error(t, err)
	assert.NotContains(t, buf.String(), "(")
}
