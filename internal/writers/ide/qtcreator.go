package ide

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"

	"go.trai.ch/mason/internal/core/domain"
	"go.trai.ch/mason/internal/core/ports"
	"go.trai.ch/zerr"
)

func init() {
	Register(&qtCreatorWriter{})
}

// qtCreatorWriter emits the four QtCreator generic-project files. When a
// root target is given, only it and its dependency closure are included.
type qtCreatorWriter struct{}

func (*qtCreatorWriter) Name() string { return "qtcreator" }

func (*qtCreatorWriter) RunAndWriteFiles(settings *domain.BuildSettings, targets []*domain.Target, opts ports.ProjectWriterOptions) error {
	scoped := targets
	if opts.RootTarget != "" {
		var roots []*domain.Target
		for _, t := range targets {
			if t.TargetLabel.Name == opts.RootTarget || phonyTarget(t) == opts.RootTarget {
				roots = append(roots, t)
			}
		}
		scoped = withDependencyClosure(roots)
	}

	files := make(map[string]bool)
	includes := make(map[string]bool)
	defines := make(map[string]bool)

	for _, t := range scoped {
		for _, src := range t.Sources {
			files[filepath.Join(settings.RootDir, filepath.FromSlash(src.Path()))] = true
		}
		for _, cfg := range append(append([]*domain.Config(nil), t.Configs...), t.PublicConfigs...) {
			for _, inc := range cfg.IncludeDirs {
				includes[inc] = true
			}
			for _, d := range cfg.Defines {
				defines[d] = true
			}
		}
	}

	write := func(name string, entries map[string]bool, prefix string) error {
		keys := make([]string, 0, len(entries))
		for k := range entries {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var buf bytes.Buffer
		for _, k := range keys {
			buf.WriteString(prefix + k + "\n")
		}
		if err := os.WriteFile(filepath.Join(settings.OutDir, name), buf.Bytes(), 0o644); err != nil {
			return zerr.Wrap(err, "failed to write qtcreator file")
		}
		return nil
	}

	if err := write("qtcreator_project.files", files, ""); err != nil {
		return err
	}
	if err := write("qtcreator_project.includes", includes, ""); err != nil {
		return err
	}
	if err := write("qtcreator_project.config", defines, "#define "); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(settings.OutDir, "qtcreator_project.creator"), []byte("[General]\n"), 0o644); err != nil {
		return zerr.Wrap(err, "failed to write qtcreator file")
	}
	return nil
}
