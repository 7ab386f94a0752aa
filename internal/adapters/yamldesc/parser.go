// Package yamldesc implements the description-language parser port on top
// of YAML files. The root description is mason.yaml; further files are
// pulled in through imports.
package yamldesc

import (
	"errors"
	"sort"

	"go.trai.ch/mason/internal/core/domain"
	"go.trai.ch/mason/internal/core/ports"
	"gopkg.in/yaml.v3"
)

// RootFileName is the root description file that marks the source root.
const RootFileName = "mason.yaml"

// Parser implements ports.Parser for YAML descriptions. It is stateless
// and safe for concurrent use.
type Parser struct{}

// NewParser creates a YAML description parser.
func NewParser() *Parser {
	return &Parser{}
}

// ParseFile parses one description file into declarations. Declarations
// keep a deterministic order: YAML maps are emitted sorted by name.
func (*Parser) ParseFile(file domain.SourceFile, data []byte) (*domain.DescriptionFile, error) {
	var dto descriptionDTO
	if err := yaml.Unmarshal(data, &dto); err != nil {
		return nil, errors.Join(domain.ErrDescriptionParseFailed, err)
	}

	out := &domain.DescriptionFile{
		File:             file,
		Imports:          dto.Imports,
		DefaultToolchain: dto.DefaultToolchain,
	}

	for _, name := range sortedNames(dto.Toolchains) {
		tc := dto.Toolchains[name]
		decl := &domain.ToolchainDecl{
			Name:   name,
			CFlags: tc.CFlags,
			Tools:  make(map[domain.ToolKind]*domain.Tool, len(tc.Tools)),
		}
		for kind, tool := range tc.Tools {
			decl.Tools[domain.ToolKind(kind)] = &domain.Tool{
				Kind:        domain.ToolKind(kind),
				Command:     tool.Command,
				Description: tool.Description,
				Outputs:     tool.Outputs,
			}
		}
		out.Toolchains = append(out.Toolchains, decl)
	}

	for _, name := range sortedNames(dto.Configs) {
		cfg := dto.Configs[name]
		out.Configs = append(out.Configs, &domain.ConfigDecl{
			Name:        name,
			CFlags:      cfg.CFlags,
			Defines:     cfg.Defines,
			IncludeDirs: cfg.IncludeDirs,
		})
	}

	for _, name := range sortedNames(dto.Targets) {
		t := dto.Targets[name]
		out.Targets = append(out.Targets, &domain.TargetDecl{
			Name:             name,
			Type:             domain.TargetType(t.Type),
			Toolchain:        t.Toolchain,
			Sources:          t.Sources,
			Inputs:           t.Inputs,
			Outputs:          t.Outputs,
			PublicDeps:       t.PublicDeps,
			PrivateDeps:      t.PrivateDeps,
			DataDeps:         t.DataDeps,
			Configs:          t.Configs,
			PublicConfigs:    t.PublicConfigs,
			Script:           t.Script,
			Args:             t.Args,
			OutputName:       t.OutputName,
			Data:             t.Data,
			WriteRuntimeDeps: t.WriteRuntimeDeps,
			UnityAllowed:     t.UnityAllowed,
		})
	}

	return out, nil
}

func sortedNames[T any](m map[string]T) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var _ ports.Parser = (*Parser)(nil)
