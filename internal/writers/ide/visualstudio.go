package ide

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"go.trai.ch/mason/internal/core/domain"
	"go.trai.ch/mason/internal/core/ports"
	"go.trai.ch/zerr"
)

func init() {
	Register(&visualStudioWriter{version: vs2019})
	Register(&visualStudioWriter{name: "vs2013", version: vs2013})
	Register(&visualStudioWriter{name: "vs2015", version: vs2015})
	Register(&visualStudioWriter{name: "vs2017", version: vs2017})
	Register(&visualStudioWriter{name: "vs2019", version: vs2019})
}

type vsVersion struct {
	toolset       string
	formatVersion string
	year          string
}

var (
	vs2013 = vsVersion{"v120", "12.00", "2013"}
	vs2015 = vsVersion{"v140", "12.00", "2015"}
	vs2017 = vsVersion{"v141", "12.00", "2017"}
	vs2019 = vsVersion{"v142", "12.00", "2019"}
)

// visualStudioWriter emits a solution plus one NMake-style vcxproj per
// binary target, each invoking the downstream executor.
type visualStudioWriter struct {
	name    string
	version vsVersion
}

func (w *visualStudioWriter) Name() string {
	if w.name == "" {
		return "vs"
	}
	return w.name
}

func (w *visualStudioWriter) RunAndWriteFiles(settings *domain.BuildSettings, targets []*domain.Target, opts ports.ProjectWriterOptions) error {
	projected := FilterTargets(targets, opts.Filters)
	if !opts.NoDeps {
		projected = withDependencyClosure(projected)
	}

	slnName := opts.SlnName
	if slnName == "" {
		slnName = "all"
	}

	var sln bytes.Buffer
	fmt.Fprintf(&sln, "Microsoft Visual Studio Solution File, Format Version %s\n", w.version.formatVersion)
	fmt.Fprintf(&sln, "# Visual Studio %s\n", w.version.year)

	for _, t := range projected {
		if !t.IsBinary() {
			continue
		}
		projFile := t.TargetLabel.Name + ".vcxproj"
		if err := w.writeProject(settings, t, projFile, opts); err != nil {
			return err
		}
		fmt.Fprintf(&sln, "Project(\"{8BC9CEB8-8B4A-11D0-8D11-00A0C91BC942}\") = \"%s\", \"%s\", \"{%s}\"\nEndProject\n",
			t.TargetLabel.Name, projFile, projectGUID(t))
	}

	path := filepath.Join(settings.OutDir, slnName+".sln")
	if err := os.WriteFile(path, sln.Bytes(), 0o644); err != nil {
		return zerr.Wrap(err, "failed to write solution file")
	}
	return nil
}

func (w *visualStudioWriter) writeProject(settings *domain.BuildSettings, t *domain.Target, projFile string, opts ports.ProjectWriterOptions) error {
	ninja := opts.NinjaExecutable
	if ninja == "" {
		ninja = "ninja.exe"
	}
	buildCmd := ninja
	if opts.NinjaExtraArgs != "" {
		buildCmd += " " + opts.NinjaExtraArgs
	}
	buildCmd += " " + phonyTarget(t)

	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="utf-8"?>` + "\n")
	buf.WriteString(`<Project DefaultTargets="Build" xmlns="http://schemas.microsoft.com/developer/msbuild/2003">` + "\n")
	fmt.Fprintf(&buf, "  <PropertyGroup>\n    <ProjectGuid>{%s}</ProjectGuid>\n    <PlatformToolset>%s</PlatformToolset>\n", projectGUID(t), w.version.toolset)
	if opts.WinSDK != "" {
		fmt.Fprintf(&buf, "    <WindowsTargetPlatformVersion>%s</WindowsTargetPlatformVersion>\n", opts.WinSDK)
	}
	fmt.Fprintf(&buf, "    <NMakeBuildCommandLine>%s</NMakeBuildCommandLine>\n  </PropertyGroup>\n", buildCmd)
	buf.WriteString("  <ItemGroup>\n")
	for _, src := range t.Sources {
		fmt.Fprintf(&buf, "    <ClCompile Include=\"%s\" />\n", filepath.Join(settings.RootDir, filepath.FromSlash(src.Path())))
	}
	buf.WriteString("  </ItemGroup>\n</Project>\n")

	path := filepath.Join(settings.OutDir, projFile)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return zerr.Wrap(err, "failed to write project file")
	}
	return nil
}

// projectGUID derives a stable GUID-shaped identifier from the label so
// regeneration does not churn solution files.
func projectGUID(t *domain.Target) string {
	var h uint64 = 14695981039346656037
	for _, b := range []byte(t.TargetLabel.String()) {
		h ^= uint64(b)
		h *= 1099511628211
	}
	return fmt.Sprintf("%08X-0000-0000-0000-%012X", uint32(h>>32), h&0xFFFFFFFFFFFF)
}

func phonyTarget(t *domain.Target) string {
	if t.TargetLabel.Dir == "" {
		return t.TargetLabel.Name
	}
	return t.TargetLabel.Dir + "/" + t.TargetLabel.Name
}

// withDependencyClosure extends the projected set with every target
// reachable through linked deps.
func withDependencyClosure(targets []*domain.Target) []*domain.Target {
	seen := make(map[*domain.Target]bool)
	var out []*domain.Target
	var visit func(t *domain.Target)
	visit = func(t *domain.Target) {
		if seen[t] {
			return
		}
		seen[t] = true
		out = append(out, t)
		for _, pair := range t.LinkedDeps() {
			if pair.Target != nil {
				visit(pair.Target)
			}
		}
	}
	for _, t := range targets {
		visit(t)
	}
	return out
}
