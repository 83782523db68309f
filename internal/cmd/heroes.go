package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/runger/heroes/internal/hero"
	"github.com/runger/heroes/internal/messages"
	"github.com/runger/heroes/internal/picker"
)

// defaultTop is how many heroes the dashboard shows.
const defaultTop = 4

var jsonOutput bool

var listCmd = &cobra.Command{
	Use:     "list",
	Short:   "List every hero",
	GroupID: groupHeroes,
	Args:    cobra.NoArgs,
	RunE:    runList,
}

var topCmd = &cobra.Command{
	Use:     "top [n]",
	Short:   "Show the top heroes",
	GroupID: groupHeroes,
	Long: `Show the dashboard selection: the heroes after the first one in the
roster, four by default.

Examples:
  heroes top
  heroes top 2`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTop,
}

var getCmd = &cobra.Command{
	Use:     "get <id>",
	Short:   "Show one hero",
	GroupID: groupHeroes,
	Args:    cobra.ExactArgs(1),
	RunE:    runGet,
}

var addCmd = &cobra.Command{
	Use:     "add <name>",
	Short:   "Add a hero",
	GroupID: groupHeroes,
	Long: `Add a hero. The backing store assigns the id.

Examples:
  heroes add Windstorm
  heroes add "Captain Nice"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

var renameCmd = &cobra.Command{
	Use:     "rename <id> <name>",
	Short:   "Rename a hero",
	GroupID: groupHeroes,
	Args:    cobra.MinimumNArgs(2),
	RunE:    runRename,
}

var deleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete a hero",
	GroupID: groupHeroes,
	Args:    cobra.ExactArgs(1),
	RunE:    runDelete,
}

// errNoChange is returned when an add, rename or delete did not happen. The
// status log explains why.
var errNoChange = errors.New("no change made")

func init() {
	for _, c := range []*cobra.Command{listCmd, topCmd, getCmd} {
		c.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	}
	rootCmd.AddCommand(listCmd, topCmd, getCmd, addCmd, renameCmd, deleteCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := cmdContext(cmd)
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	return printHeroes(os.Stdout, s.heroes.Heroes(ctx))
}

func runTop(cmd *cobra.Command, args []string) error {
	ctx := cmdContext(cmd)
	n := defaultTop
	if len(args) == 1 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v < 1 {
			return fmt.Errorf("invalid count %q: must be a positive integer", args[0])
		}
		n = v
	}

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	return printHeroes(os.Stdout, s.heroes.TopHeroes(ctx, n))
}

func runGet(cmd *cobra.Command, args []string) error {
	ctx := cmdContext(cmd)
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	h, ok := s.heroes.Hero(ctx, id)
	if !ok {
		return fmt.Errorf("no hero with id %d", id)
	}
	if jsonOutput {
		return writeJSON(os.Stdout, h)
	}
	fmt.Printf("%sid:%s   %d\n", colorBold, colorReset, h.ID)
	fmt.Printf("%sname:%s %s\n", colorBold, colorReset, picker.DisplayText(h.Name, terminalWidth()-6))
	return nil
}

func runAdd(cmd *cobra.Command, args []string) error {
	ctx := cmdContext(cmd)
	name := strings.Join(args, " ")
	if hero.ValidateName(hero.NormalizeName(name)) != nil {
		return hero.ErrInvalidName
	}

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	h, ok := s.heroes.AddHero(ctx, name)
	if !ok {
		return errNoChange
	}
	fmt.Printf("%sAdded%s hero %d: %s\n", colorGreen, colorReset, h.ID, h.Name)
	return nil
}

func runRename(cmd *cobra.Command, args []string) error {
	ctx := cmdContext(cmd)
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	name := hero.NormalizeName(strings.Join(args[1:], " "))
	if hero.ValidateName(name) != nil {
		return hero.ErrInvalidName
	}

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	h, ok := s.heroes.Hero(ctx, id)
	if !ok {
		return fmt.Errorf("no hero with id %d", id)
	}
	old := h.Name
	h.Name = name
	mark := s.status.Len()
	s.heroes.UpdateHero(ctx, h)
	if failedSince(s.status, mark) {
		return errNoChange
	}
	fmt.Printf("%sRenamed%s hero %d: %s -> %s\n", colorGreen, colorReset, h.ID, old, h.Name)
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	ctx := cmdContext(cmd)
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	mark := s.status.Len()
	s.heroes.DeleteHero(ctx, id)
	if failedSince(s.status, mark) {
		return errNoChange
	}
	fmt.Printf("%sDeleted%s hero %d\n", colorYellow, colorReset, id)
	return nil
}

// parseID parses a positive hero id.
// failedSince reports whether an operation logged a failure after the status
// log held mark lines.
func failedSince(status *messages.Service, mark int) bool {
	lines := status.Messages()
	if mark > len(lines) {
		mark = 0
	}
	for _, line := range lines[mark:] {
		if strings.Contains(line, " failed: ") {
			return true
		}
	}
	return false
}

func parseID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid hero id %q", arg)
	}
	return id, nil
}

// printHeroes writes heroes one per line, or as JSON with --json.
func printHeroes(w io.Writer, heroes []hero.Hero) error {
	if jsonOutput {
		return writeJSON(w, heroes)
	}
	if len(heroes) == 0 {
		fmt.Fprintln(w, "No heroes found.")
		return nil
	}
	width := terminalWidth()
	for _, h := range heroes {
		fmt.Fprintln(w, formatHero(h, width))
	}
	return nil
}

// formatHero renders one list row, fitting the name into width columns.
func formatHero(h hero.Hero, width int) string {
	id := fmt.Sprintf("%4d", h.ID)
	name := picker.DisplayText(h.Name, width-len(id)-2)
	return fmt.Sprintf("%s%s%s  %s", colorCyan, id, colorReset, name)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
