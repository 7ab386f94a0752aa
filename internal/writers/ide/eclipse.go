package ide

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.trai.ch/mason/internal/core/domain"
	"go.trai.ch/mason/internal/core/ports"
	"go.trai.ch/zerr"
)

func init() {
	Register(&eclipseWriter{})
}

// eclipseWriter generates an Eclipse CDT settings file: one aggregated set
// of include paths and defines for the whole project, importable into an
// existing CDT project.
type eclipseWriter struct{}

func (*eclipseWriter) Name() string { return "eclipse" }

func (*eclipseWriter) RunAndWriteFiles(settings *domain.BuildSettings, targets []*domain.Target, opts ports.ProjectWriterOptions) error {
	includes := make(map[string]bool)
	defines := make(map[string]bool)

	for _, t := range FilterTargets(targets, opts.Filters) {
		for _, cfg := range append(append([]*domain.Config(nil), t.Configs...), t.PublicConfigs...) {
			for _, inc := range cfg.IncludeDirs {
				includes[inc] = true
			}
			for _, d := range cfg.Defines {
				defines[d] = true
			}
		}
	}

	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="no"?>` + "\n")
	buf.WriteString("<cdtprojectproperties>\n")
	buf.WriteString(`<section name="org.eclipse.cdt.internal.ui.wizards.settingswizards.IncludePaths">` + "\n")
	buf.WriteString(`<language name="C++ Source File">` + "\n")
	for _, inc := range sortedKeys(includes) {
		fmt.Fprintf(&buf, "<includepath>%s</includepath>\n", inc)
	}
	buf.WriteString("</language>\n</section>\n")
	buf.WriteString(`<section name="org.eclipse.cdt.internal.ui.wizards.settingswizards.Macros">` + "\n")
	buf.WriteString(`<language name="C++ Source File">` + "\n")
	for _, d := range sortedKeys(defines) {
		fmt.Fprintf(&buf, "<macro><name>%s</name><value/></macro>\n", d)
	}
	buf.WriteString("</language>\n</section>\n")
	buf.WriteString("</cdtprojectproperties>\n")

	path := filepath.Join(settings.OutDir, "eclipse-cdt-settings.xml")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return zerr.Wrap(err, "failed to write eclipse settings")
	}
	return nil
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
