package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"city-coords/internal/game"
	"city-coords/internal/geo"
	"city-coords/internal/model"
	"city-coords/internal/service"
)

const playHelp = `type a city name to guess, or one of:
  :next   next round (classic)
  :share  print a challenge link once the game is over
  :new    start again in the same mode
  :quit   leave`

func newPlayCmd(load configLoader) *cobra.Command {
	var (
		mode      string
		player    string
		challenge string
	)
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a game in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := model.ParseMode(mode)
			if err != nil {
				return err
			}
			return withApp(cmd, load, func(a *app) error {
				p := &prompt{
					app:    a,
					player: player,
					mode:   m,
					in:     bufio.NewScanner(cmd.InOrStdin()),
					out:    cmd.OutOrStdout(),
				}
				return p.run(cmd, challenge)
			})
		},
	}
	cmd.Flags().StringVar(&mode, "mode", string(model.ModeDaily), "classic, daily or random")
	cmd.Flags().StringVar(&player, "player", "local", "player id")
	cmd.Flags().StringVar(&challenge, "challenge", "", "challenge token or link to replay")
	return cmd
}

// prompt is the line based game loop.
type prompt struct {
	app    *app
	player string
	mode   model.Mode
	in     *bufio.Scanner
	out    io.Writer
}

func (p *prompt) run(cmd *cobra.Command, challengeRef string) error {
	ctx := cmd.Context()
	play := p.app.play

	snap, err := play.Start(ctx, p.player, p.mode, challengeRef)
	if err != nil {
		return err
	}
	defer func() { _ = play.Leave(ctx, p.player) }()

	fmt.Fprintln(p.out, playHelp)
	p.showTarget(snap)

	for p.in.Scan() {
		line := strings.TrimSpace(p.in.Text())
		switch line {
		case "":
			continue
		case ":quit":
			return nil
		case ":new":
			snap, err = play.Start(ctx, p.player, p.mode, "")
		case ":next":
			snap, err = play.Advance(ctx, p.player)
			if err == nil && !snap.State.GameOver {
				p.showTarget(snap)
			}
		case ":share":
			var link string
			link, err = play.Share(ctx, p.player)
			if err == nil {
				fmt.Fprintln(p.out, link)
			}
		default:
			var res service.GuessResult
			res, err = play.Guess(ctx, p.player, line)
			if err == nil {
				p.showGuess(res)
				snap = res.Snapshot
			}
		}

		switch {
		case err == nil:
		case errors.Is(err, service.ErrUnknownCity), errors.Is(err, game.ErrRoundResolved),
			errors.Is(err, game.ErrGameOver), errors.Is(err, game.ErrNotOver):
			fmt.Fprintln(p.out, err)
			continue
		default:
			return err
		}

		switch {
		case line == ":new":
			p.showTarget(snap)
		case line == ":share":
		case snap.State.GameOver:
			p.showSummary(snap)
		}
	}
	return p.in.Err()
}

func (p *prompt) showTarget(snap service.Snapshot) {
	st := snap.State
	if st.GameOver {
		fmt.Fprintln(p.out, "today's game is already finished")
		p.showSummary(snap)
		return
	}
	header := fmt.Sprintf("attempt %d/%d", st.Attempt, st.MaxAttempts)
	if st.Mode == model.ModeClassic {
		header = fmt.Sprintf("round %d/%d", st.Round, st.TotalRounds)
	}
	fmt.Fprintf(p.out, "[%s] where is %s?\n", header, geo.FormatPoint(st.CurrentCity.Point()))
}

func (p *prompt) showGuess(res service.GuessResult) {
	lang := model.ParseLang(p.app.cfg.Game.Lang)
	name := p.app.index.DisplayName(res.City, lang)
	if res.Correct {
		fmt.Fprintf(p.out, "%s is correct!\n", name)
		return
	}

	st := res.State
	if st.Mode == model.ModeClassic {
		last := st.History[len(st.History)-1]
		fmt.Fprintf(p.out, "%s is %s km away; it was %s\n",
			name, humanize.Comma(int64(*last.Distance)), p.app.index.DisplayName(last.City, lang))
		return
	}

	a := st.Attempts[len(st.Attempts)-1]
	fmt.Fprintf(p.out, "%s is %s km away, head %s %s\n", name, humanize.Comma(int64(a.Distance)), a.Direction, a.Arrow)
}

func (p *prompt) showSummary(snap service.Snapshot) {
	st := snap.State
	lang := model.ParseLang(p.app.cfg.Game.Lang)
	if st.Mode == model.ModeClassic {
		fmt.Fprintf(p.out, "game over: %d/%d, %s\n",
			st.Score, st.TotalRounds, game.RatingFor(st.Score, st.TotalRounds))
	} else {
		fmt.Fprintf(p.out, "game over: the city was %s, %s\n",
			p.app.index.DisplayName(st.CurrentCity, lang), p.app.index.DisplayCountry(st.CurrentCity, lang))
	}
	if snap.Verdict != nil {
		fmt.Fprintf(p.out, "against your challenger: %s\n", *snap.Verdict)
	}
}
