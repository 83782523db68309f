package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/runger/heroes/internal/picker"
	"github.com/runger/heroes/internal/search"
)

// minPickerWidth is the narrowest terminal the picker draws in.
const minPickerWidth = 20

// errPickCancelled is returned when the picker is closed without a choice.
var errPickCancelled = errors.New("cancelled")

var pickCmd = &cobra.Command{
	Use:     "pick [query]",
	Short:   "Search heroes interactively",
	GroupID: groupHeroes,
	Long: `Open a search box over the roster. Results follow the input as you
type; Enter prints the selected hero, Esc cancels.

The picker draws on /dev/tty so its output can be captured:
  id=$(heroes pick mag | cut -f1)`,
	Args: cobra.ArbitraryArgs,
	RunE: runPick,
}

func init() {
	rootCmd.AddCommand(pickCmd)
}

func runPick(cmd *cobra.Command, args []string) error {
	ctx := cmdContext(cmd)

	if os.Getenv("TERM") == "dumb" {
		return errors.New("picker needs a terminal (TERM=dumb)")
	}
	// Stdout may be a pipe, so the TUI reads and draws on the terminal itself.
	tty, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("cannot open /dev/tty: %w", err)
	}
	defer tty.Close()

	if w := ttyWidth(tty); w > 0 && w < minPickerWidth {
		return fmt.Errorf("terminal too narrow (%d columns, need %d)", w, minPickerWidth)
	}

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	stream := search.New(s.heroes,
		search.WithQuietPeriod(s.cfg.Search.Debounce()),
		search.WithContext(ctx),
	)
	model := picker.NewModel(stream, s.status).WithQuery(strings.Join(args, " "))

	// Package-level styles in the picker use the default renderer; point it
	// at the tty instead of the piped stdout.
	lipgloss.SetColorProfile(termenv.NewOutput(tty).ColorProfile())

	p := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithInput(tty),
		tea.WithOutput(tty),
		tea.WithContext(ctx),
	)
	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("picker: %w", err)
	}

	m, ok := final.(picker.Model)
	if !ok {
		return errors.New("picker: unexpected model type")
	}
	h, chosen := m.Result()
	if !chosen {
		return errPickCancelled
	}
	fmt.Fprintf(os.Stdout, "%d\t%s\n", h.ID, h.Name)
	return nil
}
