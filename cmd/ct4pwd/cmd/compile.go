package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var (
	compileOpts   requestOptions
	compileRemote string
	compileJSON   bool
)

var compileCmd = &cobra.Command{
	Use:   "compile [manifest]",
	Short: "Übersetzt ein Marker-Programm",
	Long: `Übersetzt ein Marker-Programm und gibt die Spur aus.

Das Programm wird aus einem Manifest (JSON oder YAML mit erkannten
Markern) oder mit --image aus einem Foto gelesen. Fotos benötigen einen
Marker-Detektor (lovelace.detector_url) oder --remote.

Mit --expected oder --level wird die Spur gegen die erwartete Lösung
geprüft.

Beispiele:
  ct4pwd compile programm.yaml
  ct4pwd compile programm.json --expected "[[0, -1], 'jump']"
  ct4pwd compile --image foto.jpg --remote localhost:9080`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCompile,
}

func init() {
	rootCmd.AddCommand(compileCmd)
	compileCmd.Flags().StringVar(&compileOpts.image, "image", "", "Foto des Programms")
	compileCmd.Flags().StringVarP(&compileOpts.expected, "expected", "e", "", "Erwartete Spur")
	compileCmd.Flags().StringVarP(&compileOpts.level, "level", "l", "", "Level-ID mit erwarteter Spur")
	compileCmd.Flags().StringVarP(&compileRemote, "remote", "r", "", "Lovelace gRPC-Adresse (z.B. localhost:9080)")
	compileCmd.Flags().BoolVar(&compileJSON, "json", false, "Ergebnis als JSON ausgeben")
}

func runCompile(cmd *cobra.Command, args []string) error {
	opts := compileOpts
	if len(args) > 0 {
		opts.manifest = args[0]
	}

	req, err := buildRequest(opts)
	if err != nil {
		return err
	}

	res, err := compileRequest(context.Background(), req, compileRemote)
	if err != nil {
		return err
	}
	if err := printResult(cmd.OutOrStdout(), res, compileJSON); err != nil {
		return err
	}
	return resultError(res)
}
