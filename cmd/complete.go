package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/truncate"
	"github.com/spf13/cobra"

	"github.com/zjrosen/quill/internal/config"
	"github.com/zjrosen/quill/internal/editor"
	"github.com/zjrosen/quill/internal/language"
	"github.com/zjrosen/quill/internal/match"
)

type completeFlags struct {
	lang      string
	algorithm string
	trigger   string
	file      string
	offset    int
	limit     int
	threshold float64
	width     int
	save      bool
}

func newCompleteCmd(a *app) *cobra.Command {
	var f completeFlags
	cmd := &cobra.Command{
		Use:   "complete <filter> [candidate...]",
		Short: "Rank completion candidates against a filter",
		Long: `Score candidates against a filter and print those above the threshold,
best first. Candidates come from the arguments, else from standard input
(one per line), else from the language's completion lists for --trigger.

Algorithms: prefix, prefix-suffix-sorted, substring, dice, subletters.

Examples:
  quill complete hel hello help shell hello-world
  git branch --format='%(refname:short)' | quill complete fx -a subletters
  quill complete t --lang json --trigger property

  # Derive the trigger from the token under a cursor offset
  quill complete col --file style.css --offset 42

  # Remember the algorithm in the config file
  quill complete x -a dice --save`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runComplete(cmd, f, args[0], args[1:])
		},
	}
	cmd.Flags().StringVarP(&f.lang, "lang", "l", "", "language whose completion lists to use")
	cmd.Flags().StringVarP(&f.algorithm, "algorithm", "a", "", "scoring algorithm (default: from config)")
	cmd.Flags().StringVar(&f.trigger, "trigger", "", "token type selecting the completion list")
	cmd.Flags().StringVar(&f.file, "file", "", "source file for --offset and the language")
	cmd.Flags().IntVar(&f.offset, "offset", -1, "cursor offset in runes into --file; sets the trigger")
	cmd.Flags().IntVarP(&f.limit, "limit", "n", 0, "maximum results (default: from config)")
	cmd.Flags().Float64Var(&f.threshold, "threshold", 0, "exclusive minimum score (default: from config)")
	cmd.Flags().IntVar(&f.width, "width", 48, "truncate candidates wider than this many cells")
	cmd.Flags().BoolVar(&f.save, "save", false, "store --algorithm in the config file")
	return cmd
}

func (a *app) runComplete(cmd *cobra.Command, f completeFlags, filter string, candidates []string) error {
	ctx := cmd.Context()
	comp := a.cfg.Completion
	if f.algorithm != "" {
		comp.Algorithm = f.algorithm
	}
	if cmd.Flags().Changed("limit") {
		comp.Limit = f.limit
	}
	if cmd.Flags().Changed("threshold") {
		comp.Threshold = f.threshold
	}
	if err := config.ValidateCompletion(comp); err != nil {
		return err
	}
	scorer, err := comp.Scorer()
	if err != nil {
		return err
	}
	if f.save {
		if f.algorithm == "" {
			return fmt.Errorf("--save needs --algorithm")
		}
		if err := config.SaveCompletionAlgorithm(a.cfgPath, f.algorithm); err != nil {
			return fmt.Errorf("saving algorithm: %w", err)
		}
	}

	lang := language.PlainText()
	if f.lang != "" || f.file != "" {
		reg, err := a.registry()
		if err != nil {
			return err
		}
		if lang, err = a.resolveLanguage(ctx, reg, f.lang, f.file); err != nil {
			return err
		}
	}
	sess, err := editor.New(lang, nil, scorer,
		editor.WithTracer(a.provider.Tracer()),
		editor.WithMatchOptions(comp.MatchOptions()...),
	)
	if err != nil {
		return err
	}

	trigger, err := completionTrigger(ctx, cmd.InOrStdin(), sess, f)
	if err != nil {
		return err
	}

	if len(candidates) == 0 && f.file == "" && piped(cmd.InOrStdin()) {
		if candidates, err = readLines(cmd.InOrStdin()); err != nil {
			return err
		}
	}

	var results []match.Result[string]
	if len(candidates) > 0 {
		results = sess.CompleteItems(ctx, candidates, filter)
	} else {
		results = sess.Complete(ctx, trigger, filter)
	}
	return writeResults(cmd.OutOrStdout(), results, f.width)
}

func completionTrigger(ctx context.Context, stdin io.Reader, sess *editor.Session, f completeFlags) (string, error) {
	if f.trigger != "" || f.offset < 0 {
		return f.trigger, nil
	}
	if f.file == "" {
		return "", fmt.Errorf("--offset needs --file")
	}
	text, err := readSource(stdin, f.file)
	if err != nil {
		return "", err
	}
	return sess.TriggerAt(ctx, text, f.offset), nil
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading candidates: %w", err)
	}
	return lines, nil
}

// writeResults prints a score/candidate table. Candidates wider than width
// cells are truncated with an ellipsis.
func writeResults(w io.Writer, results []match.Result[string], width int) error {
	if len(results) == 0 {
		_, err := fmt.Fprintln(w, "no matches")
		return err
	}

	col := runewidth.StringWidth("CANDIDATE")
	cells := make([]string, len(results))
	for i, r := range results {
		cell := r.Item
		if width > 0 && runewidth.StringWidth(cell) > width {
			cell = truncate.StringWithTail(cell, uint(width), "…") //nolint:gosec // width > 0
		}
		cells[i] = cell
		col = max(col, runewidth.StringWidth(cell))
	}

	if _, err := fmt.Fprintf(w, "%s  %s  %s\n", runewidth.FillRight("CANDIDATE", col), "SCORE", "#"); err != nil {
		return err
	}
	for i, r := range results {
		if _, err := fmt.Fprintf(w, "%s  %.3f  %d\n", runewidth.FillRight(cells[i], col), r.Score, r.Index); err != nil {
			return err
		}
	}
	return nil
}
