package cmd

import (
	"fmt"
	"runtime"

	"github.com/msto63/ct4pwd/pkg/core/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Zeigt die Version an",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "ct4pwd v%s\n", version.CLI)
		fmt.Fprintf(out, "  Sprache:    v%s\n", version.Language)
		fmt.Fprintf(out, "  Lovelace:   v%s\n", version.Lovelace)
		fmt.Fprintf(out, "  Git Commit: %s\n", version.Commit)
		fmt.Fprintf(out, "  Build Date: %s\n", version.BuildDate)
		fmt.Fprintf(out, "  Go Version: %s\n", runtime.Version())
		fmt.Fprintf(out, "  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
