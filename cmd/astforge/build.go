package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/astforge/internal/app"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Fetch, patch and build LLVM with the extraction plugin",
	Long: `Prepare the extraction toolchain.

Build downloads and verifies the LLVM 4.0.1 sources, installs tinycbor
(and Bear on Debian-family Linux), links the ast-extractor plugin into
the clang tree, then configures and builds it with cmake and ninja.
Every step is skipped when its result is already in place, so a second
run only re-invokes ninja.

Examples:
  astforge build                  # Release build
  astforge build --debug          # Reconfigure and build in Debug
  astforge build --clean-all      # Start from scratch
  astforge build --test           # Extract tinycbor afterwards`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

var (
	buildCleanAll bool
	buildDebug    bool
	buildTest     bool
)

func init() {
	buildCmd.Flags().BoolVar(&buildCleanAll, "clean-all", false, "remove sources, build tree and dependencies first")
	buildCmd.Flags().BoolVar(&buildDebug, "debug", false, "build LLVM in Debug instead of Release")
	buildCmd.Flags().BoolVar(&buildTest, "test", false, "run the extractor over tinycbor afterwards (Linux only)")
}

func runBuild(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	result, err := a.BuildToolchain(cmd.Context(), app.BuildOptions{
		CleanAll: buildCleanAll,
		Debug:    buildDebug,
		Test:     buildTest,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "%s %s\n", successStyle.Render("toolchain ready:"), result.Extractor)
	_, _ = fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("  %d of %d steps did work", result.Applied(), len(result.Steps))))
	return nil
}
