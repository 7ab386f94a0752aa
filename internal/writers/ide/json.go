package ide

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"

	"go.trai.ch/mason/internal/core/domain"
	"go.trai.ch/mason/internal/core/ports"
	"go.trai.ch/zerr"
)

func init() {
	Register(&jsonWriter{})
}

// jsonWriter dumps target information to a JSON file and optionally invokes
// a script on the generated file.
type jsonWriter struct{}

func (*jsonWriter) Name() string { return "json" }

type jsonTarget struct {
	Type        string   `json:"type"`
	Toolchain   string   `json:"toolchain"`
	Sources     []string `json:"sources,omitempty"`
	Inputs      []string `json:"inputs,omitempty"`
	Outputs     []string `json:"outputs,omitempty"`
	PublicDeps  []string `json:"public_deps,omitempty"`
	PrivateDeps []string `json:"deps,omitempty"`
	DataDeps    []string `json:"data_deps,omitempty"`
}

type jsonProject struct {
	BuildSettings struct {
		RootPath         string `json:"root_path"`
		BuildDir         string `json:"build_dir"`
		DefaultToolchain string `json:"default_toolchain"`
	} `json:"build_settings"`
	Targets map[string]jsonTarget `json:"targets"`
}

func (*jsonWriter) RunAndWriteFiles(settings *domain.BuildSettings, targets []*domain.Target, opts ports.ProjectWriterOptions) error {
	fileName := opts.JSONFileName
	if fileName == "" {
		fileName = "project.json"
	}

	var project jsonProject
	project.BuildSettings.RootPath = settings.RootDir
	project.BuildSettings.BuildDir = string(settings.BuildDir)
	project.BuildSettings.DefaultToolchain = settings.DefaultToolchain.String()
	project.Targets = make(map[string]jsonTarget)

	for _, t := range FilterTargets(targets, opts.Filters) {
		jt := jsonTarget{
			Type:      string(t.Type),
			Toolchain: t.Toolchain.TCLabel.String(),
		}
		for _, s := range t.Sources {
			jt.Sources = append(jt.Sources, string(s))
		}
		for _, in := range t.Inputs {
			jt.Inputs = append(jt.Inputs, string(in))
		}
		for _, out := range t.ComputedOutputs {
			jt.Outputs = append(jt.Outputs, string(out))
		}
		for _, pair := range t.PublicDeps {
			jt.PublicDeps = append(jt.PublicDeps, pair.Label.String())
		}
		for _, pair := range t.PrivateDeps {
			jt.PrivateDeps = append(jt.PrivateDeps, pair.Label.String())
		}
		for _, pair := range t.DataDeps {
			jt.DataDeps = append(jt.DataDeps, pair.Label.String())
		}
		project.Targets[t.TargetLabel.String()] = jt
	}

	data, err := json.MarshalIndent(&project, "", "  ")
	if err != nil {
		return zerr.Wrap(err, "failed to marshal project json")
	}
	data = append(data, '\n')

	path := filepath.Join(settings.OutDir, fileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return zerr.Wrap(err, "failed to write project json")
	}

	if opts.JSONIdeScript != "" {
		args := []string{path}
		if opts.JSONIdeScriptArgs != "" {
			args = append(args, opts.JSONIdeScriptArgs)
		}
		cmd := exec.Command(opts.JSONIdeScript, args...)
		cmd.Dir = settings.OutDir
		if out, err := cmd.CombinedOutput(); err != nil {
			err = zerr.Wrap(err, "json ide script failed")
			return zerr.With(err, "output", string(out))
		}
	}
	return nil
}
