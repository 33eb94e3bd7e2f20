package main

import (
	"fmt"

	"github.com/Veraticus/expense-cascade/internal/cli"
	"github.com/Veraticus/expense-cascade/internal/config"
	"github.com/Veraticus/expense-cascade/internal/model"
	"github.com/spf13/cobra"
)

func keywordsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keywords",
		Short: "Manage stored keyword rules",
	}

	cmd.AddCommand(keywordsAddCmd())
	cmd.AddCommand(keywordsListCmd())
	cmd.AddCommand(keywordsImportCmd())

	return cmd
}

func keywordsAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add KEYWORD CATEGORY",
		Short: "Add a keyword rule",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, _ := cmd.Flags().GetString("user")
			ctx := cmd.Context()

			settings, err := loadSettings()
			if err != nil {
				return err
			}
			store, err := initStorage(ctx, settings)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			inserted, err := store.InsertIfAbsent(ctx, model.KeywordRule{
				Scope:    model.UserScope(userID),
				Keyword:  args[0],
				Category: args[1],
				Source:   model.SourceManual,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if inserted {
				fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Added %q → %s", args[0], args[1])))
			} else {
				fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("%q already has a rule in this scope", args[0])))
			}
			return nil
		},
	}

	cmd.Flags().String("user", "", "scope the rule to this user")
	return cmd
}

func keywordsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List keyword rules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID, _ := cmd.Flags().GetString("user")
			all, _ := cmd.Flags().GetBool("all")
			ctx := cmd.Context()

			settings, err := loadSettings()
			if err != nil {
				return err
			}
			store, err := initStorage(ctx, settings)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			var rules []model.KeywordRule
			if all {
				rules, err = store.ListKeywords(ctx)
			} else {
				rules, err = store.Lookup(ctx, model.UserScope(userID))
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderKeywords(rules))
			return nil
		},
	}

	cmd.Flags().String("user", "", "list this user's rules instead of the global ones")
	cmd.Flags().Bool("all", false, "list rules of every scope")
	return cmd
}

func keywordsImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import keyword rules from a category map YAML file",
		Long: `Import every keyword of a category map document (category name mapped to a
list of keywords) as stored rules. Existing rules are left untouched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, _ := cmd.Flags().GetString("user")
			ctx := cmd.Context()

			categories, err := config.LoadCategoryMap(args[0])
			if err != nil {
				return err
			}

			settings, err := loadSettings()
			if err != nil {
				return err
			}
			store, err := initStorage(ctx, settings)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			rules := rulesFromCategoryMap(categories, model.UserScope(userID))
			added, err := store.ImportKeywords(ctx, rules)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(
				fmt.Sprintf("Imported %d new rules (%d already present)", added, len(rules)-added)))
			return nil
		},
	}

	cmd.Flags().String("user", "", "scope imported rules to this user")
	return cmd
}

func rulesFromCategoryMap(categories model.CategoryMap, scope model.Scope) []model.KeywordRule {
	var rules []model.KeywordRule
	for _, c := range categories {
		for _, kw := range c.Keywords {
			rules = append(rules, model.KeywordRule{
				Scope:    scope,
				Keyword:  kw,
				Category: c.Name,
				Source:   model.SourceConfig,
			})
		}
	}
	return rules
}
