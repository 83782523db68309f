package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/runger/heroes/internal/hero"
	"github.com/runger/heroes/internal/search"
)

var searchStdin bool

var searchCmd = &cobra.Command{
	Use:     "search [term]",
	Short:   "Search heroes by name",
	GroupID: groupHeroes,
	Long: `Search heroes whose name matches a term.

With --stdin, every input line is a keystroke-level update of the term, as a
search box would produce. Lines that arrive within the quiet period
(search.debounce_ms) collapse into one query, repeated terms are skipped
and only the newest term's results are printed.

Examples:
  heroes search mag
  heroes search --json dr
  printf 'm\nma\nmag\n' | heroes search --stdin`,
	Args: func(cmd *cobra.Command, args []string) error {
		if searchStdin {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.MinimumNArgs(1)(cmd, args)
	},
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().BoolVar(&searchStdin, "stdin", false, "read successive terms from stdin, one per line")
	searchCmd.Flags().BoolVar(&jsonOutput, "json", false, "output results as JSON")

	rootCmd.AddCommand(searchCmd)
}

type searchResponse struct {
	Term   string      `json:"term"`
	Heroes []hero.Hero `json:"heroes"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmdContext(cmd)
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	stream := search.New(s.heroes,
		search.WithQuietPeriod(s.cfg.Search.Debounce()),
		search.WithContext(ctx),
	)

	var in io.Reader = strings.NewReader(strings.Join(args, " "))
	if searchStdin {
		in = cmd.InOrStdin()
	}
	return streamSearch(ctx, stream, in, os.Stdout)
}

// streamSearch feeds each line of in to stream and prints every result it
// delivers.
func streamSearch(ctx context.Context, stream search.Stream, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	terms := make(chan string)
	results := search.Run(ctx, stream, terms)

	readErr := make(chan error, 1)
	go func() {
		defer close(terms)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case terms <- scanner.Text():
			case <-ctx.Done():
				readErr <- ctx.Err()
				return
			}
		}
		readErr <- scanner.Err()
	}()

	delivered := 0
	for res := range results {
		delivered++
		if err := printSearchResult(out, res); err != nil {
			return err
		}
	}
	if delivered == 0 && !jsonOutput {
		fmt.Fprintln(out, "No heroes found.")
	}
	// Results close early only on cancellation; otherwise the reader is done.
	if err := ctx.Err(); err != nil {
		return err
	}
	return <-readErr
}

func printSearchResult(w io.Writer, res search.ResultsMsg) error {
	if jsonOutput {
		return writeJSON(w, searchResponse{Term: res.Term, Heroes: res.Heroes})
	}
	if strings.TrimSpace(res.Term) == "" {
		return nil
	}
	fmt.Fprintf(w, "%s%q%s: %d found\n", colorBold, res.Term, colorReset, len(res.Heroes))
	width := terminalWidth()
	for _, h := range res.Heroes {
		fmt.Fprintln(w, formatHero(h, width))
	}
	return nil
}
