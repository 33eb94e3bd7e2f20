package main

import (
	"fmt"
	"log/slog"

	"github.com/Veraticus/expense-cascade/internal/cli"
	"github.com/Veraticus/expense-cascade/internal/config"
	"github.com/Veraticus/expense-cascade/internal/embedding"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func embeddingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "embeddings",
		Short: "Manage the keyword embedding table",
	}
	cmd.AddCommand(embeddingsBuildCmd())
	return cmd
}

func embeddingsBuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Embed every global keyword and category-map keyword",
		Long: `Compute embeddings for the union of global stored keywords and the category
map keywords, then upsert them into the embedding table. Run this again after
importing keywords or changing the embedding model.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			settings, err := loadSettings()
			if err != nil {
				return err
			}
			categories, err := config.LoadCategoryMap(settings.Categories.Path)
			if err != nil {
				return err
			}
			embedder, err := newEmbedder(settings)
			if err != nil {
				return err
			}

			store, err := initStorage(ctx, settings)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			rules, err := store.ListKeywords(ctx)
			if err != nil {
				return err
			}

			handler := cli.NewInterruptHandler(cmd.ErrOrStderr())
			ctx, stop := handler.HandleInterrupts(ctx, "Nothing was written; rerun to build the table.")
			defer stop()

			var bar *progressbar.ProgressBar
			progress := func(done, total int) {
				if bar == nil {
					bar = progressbar.NewOptions(total,
						progressbar.OptionSetWriter(cmd.ErrOrStderr()),
						progressbar.OptionEnableColorCodes(true),
						progressbar.OptionShowCount(),
						progressbar.OptionShowElapsedTimeOnFinish(),
						progressbar.OptionSetWidth(40),
						progressbar.OptionSetDescription("[cyan][bold]Embedding keywords...[reset]"),
					)
				}
				_ = bar.Set(done)
			}

			stats, err := embedding.NewBuilder(embedder, store, slog.Default()).Build(ctx, rules, categories, progress)
			if bar != nil {
				_ = bar.Finish()
				fmt.Fprintln(cmd.ErrOrStderr())
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf(
				"Embedded %d keywords with %s (%d duplicates skipped)",
				stats.Embedded, embedder.Model(), stats.Duplicates)))
			return nil
		},
	}
}
