package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/astforge/internal/app"
)

var transpileCmd = &cobra.Command{
	Use:   "transpile <compile_commands.json>",
	Short: "Extract and import the ASTs of a C project",
	Long: `Run every C file of a compilation database through the toolchain.

Transpile first checks with readelf that every object the database
names was compiled by clang. Each file is then extracted to <file>.cbor
and handed to ast-importer, on --jobs concurrent workers. The first
failure stops further work.

Examples:
  astforge transpile build/compile_commands.json
  astforge transpile -j 1 -f src/parser build/compile_commands.json
  astforge transpile --import-only build/compile_commands.json`,
	Args: cobra.ExactArgs(1),
	RunE: runTranspile,
}

var (
	transpileImportOnly    bool
	transpileFilter        string
	transpileJobs          int
	transpileLenientImport bool
)

func init() {
	transpileCmd.Flags().BoolVarP(&transpileImportOnly, "import-only", "i", false, "import existing .cbor files without extracting")
	transpileCmd.Flags().StringVarP(&transpileFilter, "filter", "f", "", "only process files whose path contains this string")
	transpileCmd.Flags().IntVarP(&transpileJobs, "jobs", "j", runtime.NumCPU(), "number of concurrent jobs")
	transpileCmd.Flags().BoolVar(&transpileLenientImport, "lenient-import", false, "log failed imports instead of stopping")
}

func runTranspile(cmd *cobra.Command, args []string) error {
	if transpileJobs < 1 {
		return fmt.Errorf("--jobs must be at least 1, got %d", transpileJobs)
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	summary, err := a.Transpile(cmd.Context(), app.TranspileOptions{
		CompileDB:     args[0],
		ImportOnly:    transpileImportOnly,
		Filter:        transpileFilter,
		Jobs:          transpileJobs,
		LenientImport: transpileLenientImport,
	})
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %d files\n", successStyle.Render("transpiled"), summary.Succeeded)
	return nil
}
