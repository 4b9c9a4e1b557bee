package cmd

import (
	"context"
	"fmt"

	"github.com/msto63/ct4pwd/internal/lovelace/store"
	"github.com/spf13/cobra"
)

var (
	levelTitle       string
	levelDescription string
	levelExpected    string
	levelRunsLimit   int
)

var levelsCmd = &cobra.Command{
	Use:   "levels",
	Short: "Verwaltet Level mit erwarteten Lösungen",
	Long: `Verwaltet Level in der lokalen Datenbank (lovelace.db_path).

Ein Level speichert die erwartete Spur einer Aufgabe. compile --level
prüft ein Programm gegen diese Spur.`,
}

var levelsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Legt ein Level an",
	Example: `  ct4pwd levels add --title "Treppe" --expected "[[1, 0], [0, -1], [1, 0]]"`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(st store.Store) error {
			level := &store.Level{
				Title:       levelTitle,
				Description: levelDescription,
				Expected:    levelExpected,
			}
			if err := st.SaveLevel(context.Background(), level); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Level angelegt: %s\n", level.ID)
			return nil
		})
	},
}

var levelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Listet alle Level",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(st store.Store) error {
			levels, err := st.ListLevels(context.Background())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(levels) == 0 {
				fmt.Fprintln(out, "Keine Level vorhanden.")
				return nil
			}
			fmt.Fprintf(out, "%-36s  %-24s  %s\n", "ID", "TITEL", "ERWARTET")
			for _, l := range levels {
				fmt.Fprintf(out, "%-36s  %-24s  %s\n", l.ID, truncate(l.Title, 24), truncate(l.Expected, 40))
			}
			return nil
		})
	},
}

var levelsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Zeigt ein Level mit den letzten Versuchen",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(st store.Store) error {
			ctx := context.Background()
			level, err := st.GetLevel(ctx, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Level:    %s\n", level.Title)
			fmt.Fprintf(out, "ID:       %s\n", level.ID)
			if level.Description != "" {
				fmt.Fprintf(out, "Aufgabe:  %s\n", level.Description)
			}
			fmt.Fprintf(out, "Erwartet: %s\n", level.Expected)
			fmt.Fprintf(out, "Angelegt: %s\n", level.CreatedAt.Local().Format("2006-01-02 15:04"))

			runs, err := st.ListRuns(ctx, level.ID, levelRunsLimit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				return nil
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Letzte Versuche:")
			for _, r := range runs {
				mark := "✗"
				if r.Success && r.IsCorrect {
					mark = "✓"
				}
				fmt.Fprintf(out, "  %s %s  %s\n", mark, r.CreatedAt.Local().Format("2006-01-02 15:04"), truncate(r.Output, 60))
			}
			return nil
		})
	},
}

var levelsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Löscht ein Level",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(st store.Store) error {
			if err := st.DeleteLevel(context.Background(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Level gelöscht: %s\n", args[0])
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(levelsCmd)
	levelsCmd.AddCommand(levelsAddCmd, levelsListCmd, levelsShowCmd, levelsDeleteCmd)

	levelsAddCmd.Flags().StringVarP(&levelTitle, "title", "t", "", "Titel des Levels")
	levelsAddCmd.Flags().StringVarP(&levelDescription, "description", "d", "", "Aufgabenbeschreibung")
	levelsAddCmd.Flags().StringVarP(&levelExpected, "expected", "e", "", "Erwartete Spur")
	levelsAddCmd.MarkFlagRequired("title")
	levelsAddCmd.MarkFlagRequired("expected")

	levelsShowCmd.Flags().IntVarP(&levelRunsLimit, "runs", "n", 10, "Anzahl der gezeigten Versuche")
}

// withStore opens the level database for the duration of fn
func withStore(fn func(st store.Store) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := store.NewSQLiteStore(store.SQLiteConfig{Path: cfg.Lovelace.DBPath})
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(st)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
