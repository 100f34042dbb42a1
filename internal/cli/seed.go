package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/minhdn/towerdesk/internal/store"
	"github.com/minhdn/towerdesk/internal/tenant"
)

func newSeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed [building-id...]",
		Short: "Create and fill demo partitions",
		Long: "Creates the schema for each named building partition and fills it with\n" +
			"demo data. With no arguments, buildingA and buildingB are seeded.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			buildings := args
			if len(buildings) == 0 {
				buildings = []string{"buildingA", "buildingB"}
			}

			st, err := store.Open(cfg.Database.DataDir, log)
			if err != nil {
				return err
			}
			defer st.Close()

			for _, building := range buildings {
				ctx := tenant.Bind(cmd.Context(), building)
				if err := st.Seed(ctx); err != nil {
					return fmt.Errorf("seeding %s: %w", building, err)
				}
				log.Info().Str("building", building).Msg("partition seeded")
			}
			return nil
		},
	}
	return cmd
}
