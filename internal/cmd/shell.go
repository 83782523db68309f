package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/shlex"
	"github.com/spf13/cobra"

	"github.com/runger/heroes/internal/hero"
	"github.com/runger/heroes/internal/heroservice"
	"github.com/runger/heroes/internal/messages"
)

const shellPrompt = "heroes> "

const shellHelp = `Commands:
  list                 list every hero
  top [n]              show the top heroes (default 4)
  get <id>             show one hero
  add <name>           add a hero
  rename <id> <name>   rename a hero
  delete <id>          delete a hero
  search <term>        search heroes by name
  messages             show the status log
  clear                clear the status log
  help                 show this help
  quit                 leave the shell
Quote names with spaces: add "Captain Nice"`

var shellCmd = &cobra.Command{
	Use:     "shell",
	Short:   "Work with heroes in an interactive session",
	GroupID: groupHeroes,
	Long: `Start an interactive session over one connection to the backend.
The status log is kept for the whole session; "messages" shows it and
"clear" empties it.`,
	Args: cobra.NoArgs,
	RunE: runShell,
}

func init() {
	rootCmd.AddCommand(shellCmd)
}

func runShell(cmd *cobra.Command, args []string) error {
	ctx := cmdContext(cmd)
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.release()

	r := newREPL(s.heroes, s.status, cmd.OutOrStdout())
	fmt.Fprintln(r.out, `Type "help" for commands.`)
	return r.run(ctx, cmd.InOrStdin())
}

// repl is the line-oriented hero session. roster is the list as the user
// last saw it; adds, renames and deletes are applied to it locally.
type repl struct {
	heroes *heroservice.Service
	status *messages.Service
	out    io.Writer
	roster []hero.Hero
}

func newREPL(heroes *heroservice.Service, status *messages.Service, out io.Writer) *repl {
	return &repl{heroes: heroes, status: status, out: out}
}

// run reads commands from in until EOF or quit.
func (r *repl) run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprint(r.out, shellPrompt)
	for scanner.Scan() {
		quit, err := r.exec(ctx, scanner.Text())
		if err != nil {
			fmt.Fprintf(r.out, "%serror:%s %v\n", colorRed, colorReset, err)
		}
		if quit || ctx.Err() != nil {
			return nil
		}
		fmt.Fprint(r.out, shellPrompt)
	}
	fmt.Fprintln(r.out)
	return scanner.Err()
}

// exec runs one input line and reports whether the session should end.
func (r *repl) exec(ctx context.Context, line string) (bool, error) {
	fields, err := shlex.Split(line)
	if err != nil {
		return false, fmt.Errorf("cannot parse line: %w", err)
	}
	if len(fields) == 0 {
		return false, nil
	}

	name, args := fields[0], fields[1:]
	switch name {
	case "list", "ls":
		r.roster = r.heroes.Heroes(ctx)
		r.printList(r.roster)

	case "top":
		n := defaultTop
		if len(args) > 0 {
			v, err := strconv.Atoi(args[0])
			if err != nil || v < 1 {
				return false, fmt.Errorf("invalid count %q", args[0])
			}
			n = v
		}
		r.printList(r.heroes.TopHeroes(ctx, n))

	case "get":
		if len(args) != 1 {
			return false, usage("get <id>")
		}
		id, err := parseID(args[0])
		if err != nil {
			return false, err
		}
		h, ok := r.heroes.Hero(ctx, id)
		if !ok {
			return false, fmt.Errorf("no hero with id %d", id)
		}
		fmt.Fprintln(r.out, formatHero(h, terminalWidth()))

	case "add":
		if len(args) == 0 {
			return false, usage("add <name>")
		}
		h, ok := r.heroes.AddHero(ctx, strings.Join(args, " "))
		if !ok {
			return false, errNoChange
		}
		r.roster = append(r.roster, h)
		fmt.Fprintf(r.out, "added %d %s\n", h.ID, h.Name)

	case "rename":
		if len(args) < 2 {
			return false, usage("rename <id> <name>")
		}
		return false, r.rename(ctx, args[0], strings.Join(args[1:], " "))

	case "delete", "rm":
		if len(args) != 1 {
			return false, usage("delete <id>")
		}
		id, err := parseID(args[0])
		if err != nil {
			return false, err
		}
		r.forget(id)
		mark := r.status.Len()
		r.heroes.DeleteHero(ctx, id)
		if failedSince(r.status, mark) {
			return false, errNoChange
		}
		fmt.Fprintf(r.out, "deleted %d\n", id)

	case "search", "find":
		if len(args) == 0 {
			return false, usage("search <term>")
		}
		r.printList(r.heroes.SearchHeroes(ctx, strings.Join(args, " ")))

	case "messages":
		lines := r.status.Messages()
		if len(lines) == 0 {
			fmt.Fprintln(r.out, "(no messages)")
		}
		for _, line := range lines {
			fmt.Fprintf(r.out, "%s%s%s\n", colorDim, line, colorReset)
		}

	case "clear":
		r.status.Clear()
		fmt.Fprintln(r.out, "messages cleared")

	case "help", "?":
		fmt.Fprintln(r.out, shellHelp)

	case "quit", "exit":
		return true, nil

	default:
		return false, fmt.Errorf("unknown command %q (try help)", name)
	}
	return false, nil
}

func (r *repl) rename(ctx context.Context, idArg, name string) error {
	id, err := parseID(idArg)
	if err != nil {
		return err
	}
	name = hero.NormalizeName(name)
	if err := hero.ValidateName(name); err != nil {
		return err
	}

	h, ok := r.heroes.Hero(ctx, id)
	if !ok {
		return fmt.Errorf("no hero with id %d", id)
	}
	h.Name = name
	mark := r.status.Len()
	r.heroes.UpdateHero(ctx, h)
	if failedSince(r.status, mark) {
		return errNoChange
	}
	for i := range r.roster {
		if r.roster[i].ID == id {
			r.roster[i].Name = name
		}
	}
	fmt.Fprintf(r.out, "renamed %d %s\n", h.ID, h.Name)
	return nil
}

// forget drops id from the local roster.
func (r *repl) forget(id int) {
	kept := r.roster[:0]
	for _, h := range r.roster {
		if h.ID != id {
			kept = append(kept, h)
		}
	}
	r.roster = kept
}

func (r *repl) printList(heroes []hero.Hero) {
	if len(heroes) == 0 {
		fmt.Fprintln(r.out, "No heroes found.")
		return
	}
	width := terminalWidth()
	for _, h := range heroes {
		fmt.Fprintln(r.out, formatHero(h, width))
	}
}

func usage(form string) error {
	return fmt.Errorf("usage: %s", form)
}
