package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/msto63/ct4pwd/internal/lovelace/server"
	"github.com/msto63/ct4pwd/pkg/core/config"
	"github.com/msto63/ct4pwd/pkg/core/logging"
	"github.com/spf13/cobra"
)

var (
	serveHost     string
	serveHTTPPort int
	serveGRPCPort int
	serveNoGRPC   bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Startet den Lovelace Compile-Service",
	Long: `Startet den Lovelace Compile-Service.

Endpunkte:
  HTTP  /api/v1/compile     - Marker-JSON oder Foto (multipart)
  HTTP  /api/v1/structure   - Zeilen und Einrückungstiefen
  HTTP  /api/v1/levels      - Level verwalten
  HTTP  /api/v1/runs        - Letzte Versuche
  WS    /api/v1/ws          - Spur Schritt für Schritt
  gRPC  ct4pwd.v1.Compiler  - Compile über gRPC

Beispiele:
  ct4pwd serve                    # Ports aus der Config
  ct4pwd serve --http-port 8181   # HTTP-Port überschreiben
  ct4pwd serve --no-grpc          # Nur HTTP`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host-Adresse")
	serveCmd.Flags().IntVar(&serveHTTPPort, "http-port", 0, "HTTP-Port")
	serveCmd.Flags().IntVar(&serveGRPCPort, "grpc-port", 0, "gRPC-Port")
	serveCmd.Flags().BoolVar(&serveNoGRPC, "no-grpc", false, "gRPC-Server nicht starten")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveHost != "" {
		cfg.Lovelace.Host = serveHost
	}
	if serveHTTPPort > 0 {
		cfg.Lovelace.HTTPPort = serveHTTPPort
	}
	if serveGRPCPort > 0 {
		cfg.Lovelace.GRPCPort = serveGRPCPort
	}

	logger := serviceLogger(cfg)

	svc, err := server.NewService(cfg, logger)
	if err != nil {
		printError(cmd.ErrOrStderr(), "Service nicht erstellt", err)
		return err
	}

	srvCfg := server.ConfigFrom(cfg)
	srvCfg.DisableGRPC = serveNoGRPC
	srvCfg.Logger = logger

	srv, err := server.New(srvCfg, svc)
	if err != nil {
		svc.Close()
		printError(cmd.ErrOrStderr(), "Server nicht erstellt", err)
		return err
	}
	if err := srv.StartAsync(); err != nil {
		printError(cmd.ErrOrStderr(), "Server nicht gestartet", err)
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Lovelace läuft auf http://%s\n", srv.Address())
	if !serveNoGRPC {
		fmt.Fprintf(out, "gRPC auf %s\n", cfg.GRPCAddress())
	}
	fmt.Fprintln(out, "Beenden mit Ctrl+C")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	fmt.Fprintln(out, "\nFahre herunter...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Stop(ctx)
}

// serviceLogger builds the server logger from the [general] section;
// --verbose forces debug
func serviceLogger(cfg *config.Config) *logging.Logger {
	logger := logging.Service("lovelace", cfg.General.LogLevel, cfg.General.LogFormat)
	if verbose {
		return logger.WithLevel("debug")
	}
	return logger
}
