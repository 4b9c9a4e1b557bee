package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/msto63/ct4pwd/internal/tui/playback"
	"github.com/spf13/cobra"
)

var (
	playOpts     requestOptions
	playRemote   string
	playInterval time.Duration
	playPaused   bool
)

var playCmd = &cobra.Command{
	Use:   "play [manifest]",
	Short: "Spielt die Spur eines Programms Schritt für Schritt ab",
	Long: `Übersetzt ein Marker-Programm und zeigt die Spur als Weg auf einem
Raster im Terminal.

Tasten:
  space   Start/Pause
  ←/→     Einzelschritt
  g/G     Anfang/Ende
  q       Beenden`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlay,
}

func init() {
	rootCmd.AddCommand(playCmd)
	playCmd.Flags().StringVar(&playOpts.image, "image", "", "Foto des Programms")
	playCmd.Flags().StringVarP(&playOpts.expected, "expected", "e", "", "Erwartete Spur")
	playCmd.Flags().StringVarP(&playOpts.level, "level", "l", "", "Level-ID mit erwarteter Spur")
	playCmd.Flags().StringVarP(&playRemote, "remote", "r", "", "Lovelace gRPC-Adresse")
	playCmd.Flags().DurationVar(&playInterval, "interval", 500*time.Millisecond, "Zeit pro Schritt")
	playCmd.Flags().BoolVar(&playPaused, "paused", false, "Pausiert starten")
}

func runPlay(cmd *cobra.Command, args []string) error {
	opts := playOpts
	if len(args) > 0 {
		opts.manifest = args[0]
	}

	req, err := buildRequest(opts)
	if err != nil {
		return err
	}
	res, err := compileRequest(context.Background(), req, playRemote)
	if err != nil {
		return err
	}
	if !res.Success {
		printResult(cmd.ErrOrStderr(), res, false)
		return resultError(res)
	}

	title := "ct4pwd Playback"
	switch {
	case opts.manifest != "":
		title = fmt.Sprintf("ct4pwd Playback - %s", filepath.Base(opts.manifest))
	case opts.image != "":
		title = fmt.Sprintf("ct4pwd Playback - %s", filepath.Base(opts.image))
	}

	return playback.Run(playback.Config{
		Title:    title,
		Program:  res.Program,
		Trace:    res.Trace,
		Output:   res.Output,
		Verify:   res.Verify,
		Correct:  res.IsCorrect,
		Interval: playInterval,
		Autoplay: !playPaused,
	})
}
