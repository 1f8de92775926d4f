package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"city-coords/internal/challenge"
	"city-coords/internal/config"
	"city-coords/internal/daily"
	"city-coords/internal/geo"
	"city-coords/internal/model"
)

type configLoader func() (*config.Config, error)

// withApp loads configuration, opens the application and runs fn.
func withApp(cmd *cobra.Command, load configLoader, fn func(a *app) error) error {
	cfg, err := load()
	if err != nil {
		return err
	}
	a, err := openApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func newMigrateCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the record store schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, load, func(a *app) error {
				fmt.Fprintf(cmd.OutOrStdout(), "storage %q is up to date\n", a.cfg.Storage.Driver)
				return nil
			})
		},
	}
}

func newSearchCmd(load configLoader) *cobra.Command {
	var lang string
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search capitals by city or country name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, load, func(a *app) error {
				l := model.ParseLang(lang)
				if lang == "" {
					l = model.ParseLang(a.cfg.Game.Lang)
				}
				hits := a.index.Search(strings.Join(args, " "), l)
				out := cmd.OutOrStdout()
				if len(hits) == 0 {
					fmt.Fprintln(out, "no matches")
					return nil
				}
				for _, c := range hits {
					fmt.Fprintf(out, "%s, %s\t%s\n",
						a.index.DisplayName(c, l), a.index.DisplayCountry(c, l), geo.FormatPoint(c.Point()))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&lang, "lang", "", "result language (en, pl, es)")
	return cmd
}

func newTodayCmd(load configLoader) *cobra.Command {
	var player string
	cmd := &cobra.Command{
		Use:   "today",
		Short: "Show today's daily seed and target coordinates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, load, func(a *app) error {
				seed, c, err := a.play.Today(cmd.Context())
				if err != nil {
					return err
				}
				done, err := a.play.DailyDone(cmd.Context(), player)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s\t%s\n", seed, geo.FormatPoint(c.Point()))
				if done {
					fmt.Fprintf(out, "%s has already finished today's game\n", player)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&player, "player", "local", "player id")
	return cmd
}

func newNearestCmd(load configLoader) *cobra.Command {
	var lang string
	cmd := &cobra.Command{
		Use:     "nearest <lat,lng>",
		Short:   "Find the capital closest to a point",
		Example: "  citycoords nearest 52.39,13.06\n  citycoords nearest -- -33.87,151.21",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := geo.ParsePoint(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, load, func(a *app) error {
				l := model.ParseLang(lang)
				if lang == "" {
					l = model.ParseLang(a.cfg.Game.Lang)
				}
				c, km := a.index.Nearest(p)
				fmt.Fprintf(cmd.OutOrStdout(), "%s, %s\t%s km\n",
					a.index.DisplayName(c, l), a.index.DisplayCountry(c, l), humanize.Comma(int64(km)))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&lang, "lang", "", "result language (en, pl, es)")
	return cmd
}

func newStatsCmd(load configLoader) *cobra.Command {
	var player string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show daily statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, load, func(a *app) error {
				stats, err := a.play.DailyStats(cmd.Context(), player)
				if err != nil {
					return err
				}
				printStats(cmd.OutOrStdout(), stats)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&player, "player", "local", "player id")
	return cmd
}

func printStats(w io.Writer, s daily.Stats) {
	last := "never"
	if s.LastPlayedDate != nil {
		last = *s.LastPlayedDate
	}
	winRate := 0
	if s.GamesPlayed > 0 {
		winRate = s.GamesWon * 100 / s.GamesPlayed
	}
	fmt.Fprintf(w, "played:         %s\n", humanize.Comma(int64(s.GamesPlayed)))
	fmt.Fprintf(w, "won:            %s (%d%%)\n", humanize.Comma(int64(s.GamesWon)), winRate)
	fmt.Fprintf(w, "current streak: %d\n", s.CurrentStreak)
	fmt.Fprintf(w, "max streak:     %d\n", s.MaxStreak)
	fmt.Fprintf(w, "last played:    %s\n", last)
}

func newResetDailyCmd(load configLoader) *cobra.Command {
	var player string
	cmd := &cobra.Command{
		Use:   "reset-daily",
		Short: "Delete daily progress and statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, load, func(a *app) error {
				if err := a.play.ResetDaily(cmd.Context(), player); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "daily record of %q cleared\n", player)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&player, "player", "local", "player id")
	return cmd
}

func newDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <token|url>",
		Short: "Print the contents of a challenge",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ch := challenge.FromURL(args[0])
			if ch == nil {
				ch = challenge.Decode(args[0])
			}
			if ch == nil {
				return challenge.ErrInvalidChallenge
			}
			printChallenge(cmd.OutOrStdout(), ch)
			return nil
		},
	}
}

func printChallenge(w io.Writer, ch challenge.Challenge) {
	fmt.Fprintf(w, "mode: %s\nseed: %s\n", ch.ChallengeMode(), ch.ChallengeSeed())
	switch c := ch.(type) {
	case *challenge.Data:
		fmt.Fprintf(w, "solved: %t\nguesses: %s\n", c.OpponentSolved, strings.Join(c.OpponentGuesses, ", "))
	case *challenge.ClassicData:
		fmt.Fprintf(w, "score: %d/%d\n", c.OpponentScore, len(c.OpponentHistory))
		if c.OpponentMedianDistance != nil {
			fmt.Fprintf(w, "median: %s km\n", humanize.Comma(int64(*c.OpponentMedianDistance)))
		}
		for i, h := range c.OpponentHistory {
			guess := "skipped"
			if h.GuessName != nil {
				guess = *h.GuessName
			}
			if h.Distance != nil {
				guess += fmt.Sprintf(" (%s km)", humanize.Comma(int64(*h.Distance)))
			}
			fmt.Fprintf(w, "%2d. %s: %s\n", i+1, h.CityName, guess)
		}
	}
}
