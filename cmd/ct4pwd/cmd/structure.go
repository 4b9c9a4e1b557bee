package cmd

import (
	"fmt"
	"strings"

	"github.com/msto63/ct4pwd/internal/lovelace/detector"
	"github.com/msto63/ct4pwd/internal/lovelace/service"
	"github.com/spf13/cobra"
)

var structureCmd = &cobra.Command{
	Use:   "structure <manifest>",
	Short: "Zeigt erkannte Zeilen und Einrückungen",
	Long: `Gruppiert die Marker eines Manifests in Zeilen und zeigt die
Einrückungstiefe jeder Zeile, ohne das Programm zu übersetzen.
Hilfreich, wenn ein Foto schief aufgenommen wurde.`,
	Args: cobra.ExactArgs(1),
	RunE: runStructure,
}

func init() {
	rootCmd.AddCommand(structureCmd)
}

func runStructure(cmd *cobra.Command, args []string) error {
	m, err := detector.LoadManifest(args[0])
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, err := localService(cfg, cliLogger(), false)
	if err != nil {
		return err
	}
	defer svc.Close()

	lines, err := svc.Structure(m.Tokens)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), service.Describe(err))
		return fmt.Errorf("Struktur nicht erkennbar")
	}

	out := cmd.OutOrStdout()
	for _, line := range lines {
		tokens := make([]string, len(line.Tokens))
		for i, tok := range line.Tokens {
			tokens[i] = tok.String()
		}
		fmt.Fprintf(out, "Zeile %2d  Tiefe %d  %s%s\n",
			line.Row+1, line.Depth, strings.Repeat("  ", line.Depth), strings.Join(tokens, " "))
	}
	return nil
}
