package cmd

import (
	"fmt"
	"io"

	"github.com/msto63/ct4pwd/pkg/core/config"
	"github.com/msto63/ct4pwd/pkg/core/logging"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "ct4pwd",
	Short: "ct4pwd - Compiler für visuelle Marker-Programme",
	Long: `ct4pwd übersetzt Programme aus fotografierten Markern
(Richtungen, Schleifen, Bedingungen, Aktionen) in eine Spur von
Bewegungen und Aktionen und prüft sie gegen eine erwartete Lösung.

Pipeline:
  structurer - Marker in Zeilen und Einrückungstiefen gruppieren
  parser     - Zeilen in einen Programmbaum übersetzen
  evaluator  - Programm ausführen und Spur erzeugen

Service:
  lovelace   - Compile-Service (HTTP :8080, gRPC :9080)`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config-Datei (default: ./configs/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose Output")
}

// loadConfig loads --config, CT4PWD_CONFIG or the defaults
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("Config nicht geladen: %w", err)
	}
	return cfg, nil
}

// cliLogger logs warnings to stderr; --verbose switches to debug
func cliLogger() *logging.Logger {
	return logging.Console("ct4pwd", verbose)
}

func printError(w io.Writer, msg string, err error) {
	fmt.Fprintf(w, "Fehler: %s: %v\n", msg, err)
}
