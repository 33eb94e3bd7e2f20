package main

import (
	"fmt"

	"github.com/Veraticus/expense-cascade/internal/cli"
	"github.com/Veraticus/expense-cascade/internal/config"
	"github.com/spf13/cobra"
)

func categoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "Show the category map",
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := loadSettings()
			if err != nil {
				return err
			}
			categories, err := config.LoadCategoryMap(settings.Categories.Path)
			if err != nil {
				return err
			}

			source := settings.Categories.Path
			if source == "" {
				source = "built-in"
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.FormatTitle(fmt.Sprintf("Categories (%s)", source)))
			fmt.Fprintln(out, cli.RenderCategories(categories))
			return nil
		},
	}
}
