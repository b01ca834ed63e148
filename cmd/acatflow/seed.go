package main

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/quillon/acatflow/internal/cli"
	"github.com/quillon/acatflow/internal/model"
	"github.com/quillon/acatflow/internal/seed"
	"github.com/quillon/acatflow/internal/validation"
)

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Populate the tracking store with synthetic transfer records",
		Long: `Generates synthetic transfer records, a configurable share of them
deliberately flawed, and creates them in the tracking store. Flagged records
are advanced to rejected so the learning counters have something to show.
Use --storage sqlite to seed data the serve command will pick up.`,
		RunE: runSeed,
	}

	cmd.Flags().Int("count", 25, "number of records to generate")
	cmd.Flags().Float64("flaw-ratio", 0.3, "share of records with deliberate defects")
	cmd.Flags().Int64("rand-seed", 1, "random seed for reproducible data")
	cmd.Flags().String("storage", "sqlite", "tracking storage driver (memory, sqlite)")
	cmd.Flags().String("db", "", "sqlite database path (default: $HOME/.local/share/acatflow/acatflow.db)")

	return cmd
}

func runSeed(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	count, _ := cmd.Flags().GetInt("count")
	flawRatio, _ := cmd.Flags().GetFloat64("flaw-ratio")
	randSeed, _ := cmd.Flags().GetInt64("rand-seed")
	driver, _ := cmd.Flags().GetString("storage")
	dbPath, _ := cmd.Flags().GetString("db")

	store, err := openTrackingStore(ctx, driver, dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	fmt.Println(cli.FormatTitle("Seeding synthetic transfer records"))

	bar := progressbar.NewOptions(count,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Creating records..."),
	)

	gen := seed.NewGenerator(randSeed)
	var created, flagged int
	for _, transfer := range gen.Batch(count, flawRatio) {
		tracked, err := store.Create(ctx, transfer, "seed")
		if err != nil {
			return fmt.Errorf("failed to create record: %w", err)
		}
		created++

		verdict := validation.Evaluate(transfer)
		if !verdict.IsValid {
			flagged++
			_, err = store.UpdateStatus(ctx, tracked.ID, model.StatusRejected,
				"rejected: failed rule validation", "seed")
			if err != nil {
				return fmt.Errorf("failed to update record status: %w", err)
			}
		}

		_ = bar.Add(1)
	}
	_ = bar.Finish()
	fmt.Fprintln(os.Stderr)

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Created %d records (%d flagged and rejected)", created, flagged)))
	if created > 0 {
		fmt.Println(cli.SubtleStyle.Render(fmt.Sprintf("%s %.0f%% of seeded records tripped rule validation",
			cli.ChartIcon, float64(flagged)/float64(created)*100)))
	}
	if driver == "memory" {
		fmt.Println(cli.FormatWarning("Memory storage does not persist; use --storage sqlite to seed the serve command"))
	}
	return nil
}
