package cmd

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"querydesk/client"
	"querydesk/panel"
	"querydesk/tui"
)

var askRaw bool

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Submit one question to a running server and print the answer",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		view := &writerView{}
		handler := panel.NewHandler(client.New(cfg.ServerURL), view, nil)
		handler.Submit(cmd.Context(), strings.Join(args, " "))
		return view.print(cmd.OutOrStdout(), askRaw)
	},
}

func init() {
	askCmd.Flags().BoolVar(&askRaw, "raw", false, "print the results markup instead of converting it to text")
}

// writerView collects the panel regions so they can be printed once the
// submission has finished.
type writerView struct {
	mu      sync.Mutex
	sql     string
	results string
}

func (v *writerView) SetSQLText(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.sql = text
}

func (v *writerView) SetResultsMarkup(markup string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.results = markup
}

func (v *writerView) PrependResults(markup string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.results = markup + v.results
}

func (v *writerView) print(w io.Writer, raw bool) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.sql != "" {
		if _, err := fmt.Fprintf(w, "SQL: %s\n\n", v.sql); err != nil {
			return err
		}
	}

	results := v.results
	if !raw {
		results = tui.ToMarkdown(results)
	}
	_, err := fmt.Fprintln(w, results)
	return err
}
