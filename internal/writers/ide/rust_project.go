package ide

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/mason/internal/core/domain"
	"go.trai.ch/zerr"
)

// rustCrate is one crate entry of rust-project.json. The format is
// unstable and follows what rust-analyzer currently consumes.
type rustCrate struct {
	DisplayName string   `json:"display_name"`
	RootModule  string   `json:"root_module"`
	Edition     string   `json:"edition"`
	Deps        []any    `json:"deps"`
	Cfg         []string `json:"cfg"`
}

type rustProject struct {
	Crates []rustCrate `json:"crates"`
}

// WriteRustProject emits rust-project.json listing every target with Rust
// sources as a crate.
func WriteRustProject(settings *domain.BuildSettings, targets []*domain.Target) error {
	project := rustProject{Crates: []rustCrate{}}

	for _, t := range targets {
		var root string
		for _, src := range t.Sources {
			if strings.HasSuffix(string(src), ".rs") {
				root = filepath.Join(settings.RootDir, filepath.FromSlash(src.Path()))
				break
			}
		}
		if root == "" {
			continue
		}
		project.Crates = append(project.Crates, rustCrate{
			DisplayName: t.TargetLabel.Name,
			RootModule:  root,
			Edition:     "2021",
			Deps:        []any{},
			Cfg:         []string{},
		})
	}

	data, err := json.MarshalIndent(&project, "", "  ")
	if err != nil {
		return zerr.Wrap(err, "failed to marshal rust-project")
	}
	data = append(data, '\n')

	path := filepath.Join(settings.OutDir, "rust-project.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return zerr.Wrap(err, "failed to write rust-project.json")
	}
	return nil
}
