package main

import (
	"fmt"
	"strings"

	"github.com/Veraticus/expense-cascade/internal/cli"
	"github.com/spf13/cobra"
)

func correctCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "correct CATEGORY DESCRIPTION...",
		Short: "Teach the correct category for a description",
		Long: `Store the normalized description as a keyword for CATEGORY. With --user the
rule only applies to that user; otherwise it applies to everyone. Repeating
a correction is harmless.`,
		Example: `  cascade correct "Food" "Kofi's Chop Bar"
  cascade correct --user alice Transport "Shell Station Osu"`,
		Args: cobra.MinimumNArgs(2),
		RunE: runCorrect,
	}

	cmd.Flags().String("user", "", "scope the correction to this user")

	return cmd
}

func runCorrect(cmd *cobra.Command, args []string) error {
	userID, _ := cmd.Flags().GetString("user")
	category := args[0]
	input := strings.Join(args[1:], " ")

	ctx := cmd.Context()
	a, err := newApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	learned, err := a.engine.RecordCorrection(ctx, input, category, userID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if learned {
		fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Learned %q → %s", input, category)))
	} else {
		fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("A rule for %q already exists in this scope", input)))
	}
	return nil
}
