package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/astforge/internal/app"
	"github.com/felixgeelhaar/astforge/internal/domain/config"
	"github.com/felixgeelhaar/astforge/internal/domain/failure"
)

var (
	// Global flags
	cfgFile string
	rootDir string
	verbose bool
	logFile string
)

var rootCmd = &cobra.Command{
	Use:   "astforge",
	Short: "Build the C AST extraction toolchain and run it over a project",
	Long: `Astforge prepares a patched LLVM/clang 4.0.1 carrying the ast-extractor
plugin, then converts C projects through it:
  compile_commands.json → ast-extractor → .cbor → ast-importer`,
	SilenceErrors: true, // We handle error formatting ourselves
	SilenceUsage:  true, // Don't show usage on error
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: <root>/astforge.yaml or astforge.toml)")
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", "", "checkout root (default: current directory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "run log (default: <root>/astforge.log)")

	_ = rootCmd.RegisterFlagCompletionFunc("config", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"yaml", "yml", "toml"}, cobra.ShellCompDirectiveFilterFileExt
	})

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(transpileCmd)
	rootCmd.AddCommand(versionCmd)
}

// newApp creates the application from the global flags.
func newApp(cmd *cobra.Command) (*app.Astforge, error) {
	return app.New(app.Options{
		Load: config.LoadOptions{
			Root:    rootDir,
			File:    cfgFile,
			LogFile: logFile,
		},
		Verbose: verbose,
		Stderr:  cmd.ErrOrStderr(),
		Stdout:  cmd.OutOrStdout(),
		Args:    os.Args,
	})
}

// formatError returns a one-line error message.
// With verbose=true a failed command also shows its exit status.
func formatError(err error) string {
	var fe *failure.Error
	if !errors.As(err, &fe) {
		return err.Error()
	}
	msg := fe.Error()
	if verbose && fe.Kind == failure.KindProcessFailed {
		if fe.Signal != "" {
			msg += fmt.Sprintf(" [terminated by %s]", fe.Signal)
		} else {
			msg += fmt.Sprintf(" [exit status %d]", fe.ExitCode)
		}
	}
	return msg
}

// printError prints an error message to stderr with proper formatting.
func printError(err error) {
	printErrorTo(os.Stderr, err)
}

// printErrorTo prints an error message to the given writer.
func printErrorTo(w io.Writer, err error) {
	_, _ = fmt.Fprintf(w, "%s %s\n", errorStyle.Render("error:"), formatError(err))
}
