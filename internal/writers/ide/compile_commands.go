package ide

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/mason/internal/core/domain"
	"go.trai.ch/mason/internal/core/ports"
	"go.trai.ch/zerr"
)

// compileCommand is one entry of compile_commands.json: how a single
// translation unit is compiled, replayable independently of the build.
type compileCommand struct {
	Directory string `json:"directory"`
	File      string `json:"file"`
	Command   string `json:"command"`
	Output    string `json:"output"`
}

// WriteCompileCommands emits compile_commands.json for every binary target,
// optionally restricted to the given label patterns.
func WriteCompileCommands(settings *domain.BuildSettings, targets []*domain.Target, filters []string, _ ports.ProjectWriterOptions) error {
	var commands []compileCommand

	for _, t := range FilterTargets(targets, filters) {
		if !t.IsBinary() {
			continue
		}
		for _, src := range t.Sources {
			tool := t.Toolchain.Tool(domain.ToolCXX)
			if strings.HasSuffix(string(src), ".c") {
				tool = t.Toolchain.Tool(domain.ToolCC)
			}
			if tool == nil {
				continue
			}

			file := filepath.Join(settings.RootDir, filepath.FromSlash(src.Path()))
			objDir := "obj/"
			if t.TargetLabel.Dir != "" {
				objDir += t.TargetLabel.Dir + "/"
			}
			obj := objDir + t.TargetLabel.Name + "." + filepath.Base(file) + ".o"

			var flags []string
			flags = append(flags, t.Toolchain.CFlags...)
			for _, cfg := range append(append([]*domain.Config(nil), t.Configs...), t.PublicConfigs...) {
				flags = append(flags, cfg.CFlags...)
				for _, d := range cfg.Defines {
					flags = append(flags, "-D"+d)
				}
				for _, inc := range cfg.IncludeDirs {
					flags = append(flags, "-I"+inc)
				}
			}

			parts := []string{commandBase(tool.Command)}
			parts = append(parts, flags...)
			parts = append(parts, "-c", file, "-o", obj)

			commands = append(commands, compileCommand{
				Directory: settings.OutDir,
				File:      file,
				Command:   strings.Join(parts, " "),
				Output:    obj,
			})
		}
	}

	data, err := json.MarshalIndent(commands, "", "  ")
	if err != nil {
		return zerr.Wrap(err, "failed to marshal compile commands")
	}
	data = append(data, '\n')

	path := filepath.Join(settings.OutDir, "compile_commands.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return zerr.Wrap(err, "failed to write compile_commands.json")
	}
	return nil
}

// commandBase extracts the compiler executable from a tool command
// template, dropping the ninja placeholders.
func commandBase(command string) string {
	if fields := strings.Fields(command); len(fields) > 0 && !strings.HasPrefix(fields[0], "{") {
		return fields[0]
	}
	return command
}
