package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/Veraticus/expense-cascade/internal/cli"
	"github.com/spf13/cobra"
)

func classifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify [description...]",
		Short: "Classify expense descriptions",
		Long: `Classify one description given as arguments, or one description per line
read from standard input with --stdin.`,
		Example: `  cascade classify "MTN airtime GHS 5.00"
  cascade classify --user alice "Kofi's chop bar"
  cat expenses.txt | cascade classify --stdin`,
		RunE: runClassify,
	}

	cmd.Flags().String("user", "", "user whose learned keywords apply")
	cmd.Flags().Bool("stdin", false, "read descriptions from standard input, one per line")
	cmd.Flags().Bool("no-log", false, "do not record classifications in the history log")

	return cmd
}

func runClassify(cmd *cobra.Command, args []string) error {
	userID, _ := cmd.Flags().GetString("user")
	fromStdin, _ := cmd.Flags().GetBool("stdin")
	noLog, _ := cmd.Flags().GetBool("no-log")

	if !fromStdin && len(args) == 0 {
		return fmt.Errorf("provide a description or use --stdin")
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, !noLog)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	if !fromStdin {
		input := strings.Join(args, " ")
		result := a.engine.Classify(ctx, input, userID)
		fmt.Fprintln(out, cli.RenderResult(input, result))
		return nil
	}

	handler := cli.NewInterruptHandler(os.Stderr)
	ctx, stop := handler.HandleInterrupts(ctx, "")
	defer stop()

	count := 0
	err = cli.NewLineReader(cmd.InOrStdin()).ForEachLine(ctx, func(line string) error {
		result := a.engine.Classify(ctx, line, userID)
		count++
		_, werr := fmt.Fprintln(out, cli.RenderResultLine(line, result))
		return werr
	})
	if handler.WasInterrupted() {
		fmt.Fprintln(os.Stderr, cli.FormatInfo(fmt.Sprintf("Classified %d descriptions before interrupt", count)))
		return nil
	}
	return err
}
