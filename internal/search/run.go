package search

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// Run drives s from terms on a single goroutine and returns the results in
// generation order. Commands run on their own goroutines and feed their
// messages back to the loop, so only the loop touches stream state.
//
// When terms is closed, Run finishes the pending quiet period and the
// current query, then closes the returned channel. Cancelling ctx closes it
// straight away. Results of superseded queries are never sent.
func Run(ctx context.Context, s Stream, terms <-chan string) <-chan ResultsMsg {
	out := make(chan ResultsMsg)
	go runLoop(ctx, s, terms, out)
	return out
}

func runLoop(ctx context.Context, s Stream, terms <-chan string, out chan<- ResultsMsg) {
	defer close(out)

	msgs := make(chan tea.Msg)
	done := make(chan struct{})
	defer close(done)

	var sent uint64 // Generation of the last result sent on out

	exec := func(cmd tea.Cmd) {
		if cmd == nil {
			return
		}
		go func() {
			msg := cmd()
			if msg == nil {
				return
			}
			select {
			case msgs <- msg:
			case <-done:
			}
		}()
	}

	// handle applies msg and reports whether the loop should keep going.
	handle := func(msg tea.Msg) bool {
		switch msg := msg.(type) {
		case ResultsMsg:
			if msg.Generation < sent {
				return true
			}
			select {
			case out <- msg:
				sent = msg.Generation
			case <-ctx.Done():
				return false
			}
		case tea.BatchMsg:
			for _, cmd := range msg {
				exec(cmd)
			}
		default:
			var cmd tea.Cmd
			s, cmd = s.Update(msg)
			exec(cmd)
		}
		return true
	}

	inputClosed := false
	for {
		if inputClosed && !s.Pending() && sent == s.Generation() {
			return
		}

		var in <-chan string
		if !inputClosed {
			in = terms
		}

		select {
		case <-ctx.Done():
			return
		case term, ok := <-in:
			if !ok {
				inputClosed = true
				continue
			}
			if !handle(TermMsg(term)) {
				return
			}
		case msg := <-msgs:
			if !handle(msg) {
				return
			}
		}
	}
}
