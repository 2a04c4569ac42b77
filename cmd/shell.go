package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pable/go-match-stats/internal/predictor"
	"github.com/pable/go-match-stats/internal/report"
	"github.com/pable/go-match-stats/internal/storage"
)

var (
	cPrompt   = color.New(color.FgCyan, color.Bold)
	cMuted    = color.New(color.Faint)
	cError    = color.New(color.FgRed, color.Bold)
	cWarn     = color.New(color.FgYellow)
	cCmd      = color.New(color.FgYellow, color.Bold)
	cGreeting = color.New(color.Bold)
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive REPL session",
	Long:  "Open a persistent session against the ledger. Type 'help' for available commands.",
	Args:  cobra.NoArgs,
	RunE:  runShell,
}

// shellSession holds what the REPL keeps open between commands.
type shellSession struct {
	ctx     context.Context
	store   storage.Store
	in      *bufio.Scanner
	model   predictor.Predictor
	modelOK bool
}

func runShell(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	s := &shellSession{ctx: ctx, store: store, in: bufio.NewScanner(os.Stdin)}

	cGreeting.Println("matchstats shell")
	cMuted.Println("type 'help' or 'exit'")
	fmt.Println()

	for {
		cPrompt.Print("matchstats")
		cMuted.Print("> ")
		if !s.in.Scan() {
			fmt.Println()
			break
		}
		line := strings.TrimSpace(s.in.Text())
		if line == "" {
			continue
		}

		tokens := strings.Fields(line)
		name, args := tokens[0], tokens[1:]

		switch name {
		case "exit", "quit":
			return nil
		case "help":
			shellHelp()
		case "players":
			s.players()
		case "player":
			if len(args) == 0 {
				cError.Fprintln(os.Stderr, "usage: player <name> [<name>...]")
				continue
			}
			s.player(args)
		case "history":
			if len(args) == 0 {
				cError.Fprintln(os.Stderr, "usage: history <name>")
				continue
			}
			s.history(strings.Join(args, " "))
		case "show":
			if len(args) != 1 {
				cError.Fprintln(os.Stderr, "usage: show <match-id>")
				continue
			}
			s.show(args[0])
		case "predict":
			s.predict()
		case "runs":
			s.runs()
		default:
			cWarn.Fprintf(os.Stderr, "unknown command %q, type 'help'\n", name)
		}
	}
	return nil
}

func shellHelp() {
	fmt.Println()
	type entry struct{ cmd, desc string }
	rows := []entry{
		{"players", "list every player in the ledger"},
		{"player <name> [...]", "current rolling form for one or more players"},
		{"history <name>", "chronological ledger rows for a player"},
		{"show <match-id>", "both rows of one match"},
		{"predict", "guided prediction for an upcoming match"},
		{"runs", "ingestion runs, newest first"},
		{"help", "show this message"},
		{"exit / quit", "close the session"},
	}
	for _, r := range rows {
		fmt.Print("  ")
		cCmd.Printf("%-24s", r.cmd)
		fmt.Println(r.desc)
	}
	fmt.Println()
}

func (s *shellSession) fail(err error) {
	cError.Fprintf(os.Stderr, "error: %v\n", err)
}

func (s *shellSession) players() {
	players, err := s.store.Players(s.ctx)
	if err != nil {
		s.fail(err)
		return
	}
	if len(players) == 0 {
		cMuted.Println("No matches stored yet.")
		return
	}
	report.PrintPlayersTo(os.Stdout, players)
}

func (s *shellSession) player(names []string) {
	states, err := latestStates(s.ctx, s.store, names, "")
	if err != nil {
		s.fail(err)
		return
	}
	if len(states) > 0 {
		report.PrintStates(os.Stdout, states)
	}
}

func (s *shellSession) history(name string) {
	rows, err := s.store.PlayerRows(s.ctx, name)
	if err != nil {
		s.fail(err)
		return
	}
	if len(rows) == 0 {
		cMuted.Printf("no matches for %q\n", name)
		return
	}
	report.PrintHistory(os.Stdout, rows, "")
}

func (s *shellSession) show(arg string) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		cError.Fprintf(os.Stderr, "invalid match id %q\n", arg)
		return
	}
	rows, err := s.store.MatchRows(s.ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		cMuted.Printf("no match with id %d\n", id)
		return
	}
	if err != nil {
		s.fail(err)
		return
	}
	report.PrintMatch(os.Stdout, rows)
}

func (s *shellSession) runs() {
	runs, err := s.store.Runs(s.ctx)
	if err != nil {
		s.fail(err)
		return
	}
	report.PrintRuns(os.Stdout, runs)
}

// predict walks the user through player names, ratings and court, then scores the match.
func (s *shellSession) predict() {
	if !s.modelOK {
		m, err := predictor.LoadModel(cfg.Model)
		if err != nil {
			s.fail(err)
			return
		}
		s.model, s.modelOK = m, true
	}

	p1, ok := s.ask("player 1")
	if !ok || p1 == "" {
		return
	}
	p2, ok := s.ask("player 2")
	if !ok || p2 == "" {
		return
	}
	if p1 == p2 {
		cWarn.Fprintln(os.Stderr, "players must differ")
		return
	}
	r1 := s.askRating("rating of " + p1)
	r2 := s.askRating("rating of " + p2)
	court, _ := s.ask("court (blank for each player's latest)")

	if err := predictMatch(s.ctx, s.store, s.model, p1, p2, r1, r2, court, false); err != nil {
		s.fail(err)
	}
}

func (s *shellSession) ask(label string) (string, bool) {
	cMuted.Printf("  %s: ", label)
	if !s.in.Scan() {
		fmt.Println()
		return "", false
	}
	return strings.TrimSpace(s.in.Text()), true
}

// askRating returns nil for a blank or unparsable answer, which marks the rating missing.
func (s *shellSession) askRating(label string) *float64 {
	answer, ok := s.ask(label + " (blank if unknown)")
	if !ok || answer == "" {
		return nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(answer, ",", "."), 64)
	if err != nil {
		cWarn.Fprintf(os.Stderr, "  %q is not a number, treating the rating as missing\n", answer)
		return nil
	}
	return &v
}
