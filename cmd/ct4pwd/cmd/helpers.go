package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/msto63/ct4pwd/internal/lovelace/detector"
	"github.com/msto63/ct4pwd/internal/lovelace/server"
	"github.com/msto63/ct4pwd/internal/lovelace/service"
	"github.com/msto63/ct4pwd/internal/lovelace/store"
	"github.com/msto63/ct4pwd/pkg/core/config"
	coregrpc "github.com/msto63/ct4pwd/pkg/core/grpc"
	"github.com/msto63/ct4pwd/pkg/core/logging"
)

// requestOptions are the compile inputs shared by compile and play
type requestOptions struct {
	manifest string
	image    string
	expected string
	level    string
}

// buildRequest reads the manifest or image named by opts
func buildRequest(opts requestOptions) (server.CompileRequest, error) {
	var req server.CompileRequest

	switch {
	case opts.image != "":
		data, err := os.ReadFile(opts.image)
		if err != nil {
			return req, fmt.Errorf("Bild nicht lesbar: %w", err)
		}
		req.Image = data
		req.Filename = filepath.Base(opts.image)
	case opts.manifest != "":
		m, err := detector.LoadManifest(opts.manifest)
		if err != nil {
			return req, err
		}
		req.Tokens = m.Tokens
		req.Expected = m.Expected
		req.Level = m.Level
	default:
		return req, fmt.Errorf("Manifest oder --image angeben")
	}

	if opts.expected != "" {
		req.Expected = opts.expected
	}
	if opts.level != "" {
		req.Level = opts.level
	}
	return req, nil
}

// localService builds an in-process compile service. The SQLite store is
// opened only when a level is involved.
func localService(cfg *config.Config, logger *logging.Logger, withStore bool) (*service.Service, error) {
	svcCfg, err := service.ConfigFrom(cfg)
	if err != nil {
		return nil, err
	}
	svcCfg.Logger = logger
	svcCfg.RecordRuns = withStore
	svcCfg.DisableCache = true

	if withStore {
		st, err := store.NewSQLiteStore(store.SQLiteConfig{Path: cfg.Lovelace.DBPath})
		if err != nil {
			return nil, err
		}
		svcCfg.Store = st
	}
	if cfg.Lovelace.DetectorURL != "" {
		svcCfg.Detector = detector.NewHTTPDetector(detector.Config{
			URL:     cfg.Lovelace.DetectorURL,
			Timeout: cfg.Lovelace.DetectorTimeout.Duration,
			Logger:  logger,
		})
	}
	return service.New(svcCfg), nil
}

// compileRequest runs req locally or, with remote set, on a Lovelace
// server via gRPC
func compileRequest(ctx context.Context, req server.CompileRequest, remote string) (*service.Result, error) {
	logger := cliLogger()

	if remote != "" {
		clientCfg := coregrpc.DefaultClientConfig(remote)
		clientCfg.Logger = logger
		conn, err := coregrpc.Dial(clientCfg)
		if err != nil {
			return nil, err
		}
		defer conn.Close()
		return server.NewCompilerClient(conn).Compile(ctx, req)
	}

	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	svc, err := localService(cfg, logger, req.Level != "")
	if err != nil {
		return nil, err
	}
	defer svc.Close()

	return svc.Compile(ctx, service.Request{
		Tokens:   req.Tokens,
		Image:    req.Image,
		Filename: req.Filename,
		Expected: req.Expected,
		LevelID:  req.Level,
	})
}

// printResult writes res as text or JSON
func printResult(w io.Writer, res *service.Result, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	switch {
	case !res.Success:
		fmt.Fprintf(w, "✗ %s\n", res.Output)
	case res.Verify && res.IsCorrect:
		fmt.Fprintf(w, "✓ Richtig: %s\n", res.Output)
	case res.Verify:
		fmt.Fprintf(w, "✗ Falsch: %s\n", res.Output)
	default:
		fmt.Fprintln(w, res.Output)
	}

	if verbose && res.Program != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Programm:")
		for _, line := range strings.Split(strings.TrimRight(res.Program, "\n"), "\n") {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}
	return nil
}

// resultError turns a failed or incorrect result into a command error
func resultError(res *service.Result) error {
	if !res.Success {
		return fmt.Errorf("Kompilierfehler (%s)", res.Code)
	}
	if res.Verify && !res.IsCorrect {
		return fmt.Errorf("Lösung stimmt nicht")
	}
	return nil
}
