package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/Veraticus/expense-cascade/internal/cli"
	"github.com/Veraticus/expense-cascade/internal/model"
	"github.com/spf13/cobra"
)

func reviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review FILE",
		Short: "Interactively review classifications and record corrections",
		Long: `Classify every line of FILE and ask whether each result is right. Accepted
generative and vector results, and every correction, are stored as keyword
rules so the next run answers them from the database.`,
		Args: cobra.ExactArgs(1),
		RunE: runReview,
	}

	cmd.Flags().String("user", "", "scope learned rules to this user")
	cmd.Flags().Bool("unknown-only", false, "only review descriptions no stage could classify")

	return cmd
}

func runReview(cmd *cobra.Command, args []string) error {
	userID, _ := cmd.Flags().GetString("user")
	unknownOnly, _ := cmd.Flags().GetBool("unknown-only")

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", args[0], err)
	}
	defer func() { _ = f.Close() }()

	ctx := cmd.Context()
	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	handler := cli.NewInterruptHandler(cmd.ErrOrStderr())
	ctx, stop := handler.HandleInterrupts(ctx, "Corrections made so far are saved.")
	defer stop()

	out := cmd.OutOrStdout()
	prompter := cli.NewPrompter(cmd.InOrStdin(), out, a.engine.Categories())
	errQuit := errors.New("quit")

	err = cli.NewLineReader(f).ForEachLine(ctx, func(line string) error {
		result := a.engine.Classify(ctx, line, userID)
		if unknownOnly && !result.IsUnknown() {
			return nil
		}

		decision, err := prompter.Review(ctx, line, result)
		if err != nil {
			return err
		}

		switch decision.Action {
		case cli.ReviewQuit:
			return errQuit
		case cli.ReviewSkip:
			return nil
		case cli.ReviewAccept:
			// DB and Pattern answers are already rule-backed.
			if result.Reasoning == model.ReasoningDB || result.Reasoning == model.ReasoningPattern {
				return nil
			}
		}

		learned, err := a.engine.RecordCorrection(ctx, line, decision.Category, userID)
		if err != nil {
			return err
		}
		if learned {
			fmt.Fprintln(out, cli.FormatSuccess("Learned "+decision.Category))
		}
		return nil
	})

	prompter.ShowSummary()
	if errors.Is(err, errQuit) || handler.WasInterrupted() {
		return nil
	}
	return err
}
