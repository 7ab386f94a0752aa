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
	Register(&xcodeWriter{})
}

// xcodeWriter emits a minimal Xcode project wrapping the downstream
// executor: one legacy/external build target per projected target.
type xcodeWriter struct{}

func (*xcodeWriter) Name() string { return "xcode" }

func (*xcodeWriter) RunAndWriteFiles(settings *domain.BuildSettings, targets []*domain.Target, opts ports.ProjectWriterOptions) error {
	projectName := opts.XcodeProject
	if projectName == "" {
		projectName = "all"
	}

	buildSystem := opts.XcodeBuildSystem
	if buildSystem == "" {
		buildSystem = ports.XcodeBuildSystemLegacy
	}

	ninja := opts.NinjaExecutable
	if ninja == "" {
		ninja = "ninja"
	}
	buildArgs := opts.NinjaExtraArgs
	if opts.RootTarget != "" {
		if buildArgs != "" {
			buildArgs += " "
		}
		buildArgs += opts.RootTarget
	}

	var buf bytes.Buffer
	buf.WriteString("// !$*UTF8*$!\n{\n")
	buf.WriteString("\tarchiveVersion = 1;\n\tobjectVersion = 46;\n\tobjects = {\n")
	fmt.Fprintf(&buf, "\t\t/* build system: %s */\n", buildSystem)

	for _, t := range FilterTargets(targets, opts.Filters) {
		fmt.Fprintf(&buf, "\t\t%s /* PBXLegacyTarget */ = {\n", projectGUID(t))
		buf.WriteString("\t\t\tisa = PBXLegacyTarget;\n")
		fmt.Fprintf(&buf, "\t\t\tbuildToolPath = \"%s\";\n", ninja)
		fmt.Fprintf(&buf, "\t\t\tbuildArgumentsString = \"%s %s\";\n", buildArgs, phonyTarget(t))
		fmt.Fprintf(&buf, "\t\t\tname = \"%s\";\n", t.TargetLabel.Name)
		buf.WriteString("\t\t};\n")
	}
	buf.WriteString("\t};\n}\n")

	dir := filepath.Join(settings.OutDir, projectName+".xcodeproj")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return zerr.Wrap(err, "failed to create xcode project directory")
	}
	if err := os.WriteFile(filepath.Join(dir, "project.pbxproj"), buf.Bytes(), 0o644); err != nil {
		return zerr.Wrap(err, "failed to write xcode project")
	}
	return nil
}
