package commands

import (
	"strings"

	"github.com/spf13/cobra"
	"go.trai.ch/mason/internal/app"
	"go.trai.ch/mason/internal/core/ports"
	"go.trai.ch/zerr"
)

func (c *CLI) newGenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gen <out_dir>",
		Short: "Generate ninja files",
		Long: `Generates ninja files from the current tree and puts them in the given
output directory.

The output directory can be a source-root-absolute path name such as:
    //out/foo
Or it can be a directory relative to the current directory such as:
    out/foo`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := genOptionsFromFlags(cmd, args[0])
			if err != nil {
				return err
			}
			return c.app.Gen(cmd.Context(), opts)
		},
	}

	f := cmd.Flags()

	f.String("check", "", "Enable the public-header check; pass 'system' to also validate system includes")
	f.Lookup("check").NoOptDefVal = "true"

	f.String("filters", "", "Semicolon-separated label-pattern list restricting auxiliary projections")
	f.String("ide", "", "Generate files for an IDE: eclipse, vs, vs2013, vs2015, vs2017, vs2019, xcode, qtcreator, json")
	f.String("sln", "", "Override solution file base name (Visual Studio)")
	f.Bool("no-deps", false, "Exclude dependency closure from the Visual Studio projection")
	f.String("winsdk", "", "Windows SDK version for the Visual Studio projection")
	f.String("ninja-executable", "", "Ninja executable path for IDEs that invoke the build")
	f.String("ninja-extra-args", "", "Verbatim arguments forwarded to the ninja invocation")
	f.String("xcode-project", "", "Override Xcode project base name (default 'all')")
	f.String("xcode-build-system", "", "Xcode build system: legacy or new")
	f.String("root-target", "", "Root target for Xcode/QtCreator scoping")
	f.String("json-file-name", "", "Override the default project.json file name")
	f.String("json-ide-script", "", "Script to invoke with the generated JSON file")
	f.String("json-ide-script-args", "", "Second argument passed to the JSON IDE script")

	f.String("export-compile-commands", "", "Emit compile_commands.json; optional label list restricts scope")
	f.Lookup("export-compile-commands").NoOptDefVal = "true"

	f.Bool("export-rust-project", false, "Emit rust-project.json")
	f.String("args", "", "Build arguments override")
	f.BoolP("quiet", "q", false, "Suppress progress and timing output")

	return cmd
}

func genOptionsFromFlags(cmd *cobra.Command, outDir string) (app.GenOptions, error) {
	f := cmd.Flags()
	opts := app.GenOptions{OutDir: outDir}

	if f.Changed("check") {
		checkVal, _ := f.GetString("check")
		switch checkVal {
		case "true":
			opts.CheckPublicHeaders = true
		case "system":
			opts.CheckPublicHeaders = true
			opts.CheckSystemIncludes = true
		default:
			err := zerr.With(zerr.New("invalid check mode, expected no value or 'system'"), "check", checkVal)
			return app.GenOptions{}, err
		}
	}

	if filters, _ := f.GetString("filters"); filters != "" {
		opts.Filters = strings.Split(filters, ";")
	}

	opts.IDE, _ = f.GetString("ide")
	opts.Args, _ = f.GetString("args")
	opts.Quiet, _ = f.GetBool("quiet")
	opts.ExportRustProject, _ = f.GetBool("export-rust-project")

	if f.Changed("export-compile-commands") {
		opts.ExportCompileCommands = true
		if val, _ := f.GetString("export-compile-commands"); val != "true" && val != "" {
			opts.CompileCommandsFilters = strings.Split(val, ",")
		}
	}

	opts.Project.SlnName, _ = f.GetString("sln")
	opts.Project.NoDeps, _ = f.GetBool("no-deps")
	opts.Project.WinSDK, _ = f.GetString("winsdk")
	opts.Project.NinjaExecutable, _ = f.GetString("ninja-executable")
	opts.Project.NinjaExtraArgs, _ = f.GetString("ninja-extra-args")
	opts.Project.XcodeProject, _ = f.GetString("xcode-project")
	opts.Project.RootTarget, _ = f.GetString("root-target")
	opts.Project.JSONFileName, _ = f.GetString("json-file-name")
	opts.Project.JSONIdeScript, _ = f.GetString("json-ide-script")
	opts.Project.JSONIdeScriptArgs, _ = f.GetString("json-ide-script-args")

	buildSystem, _ := f.GetString("xcode-build-system")
	opts.Project.XcodeBuildSystem = ports.XcodeBuildSystem(buildSystem)

	return opts, nil
}
