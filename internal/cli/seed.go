package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// defaultFoods is the list the create form starts from.
var defaultFoods = []string{"초밥", "라면", "떡볶이", "삼겹살", "피자", "치킨", "파스타", "김치찌개", "햄버거", "냉면"}

// NewSeedCmd publishes a sample quiz into the configured store.
func NewSeedCmd(configPath *string) *cobra.Command {
	var title string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Publish a sample food quiz and print its slug and edit token",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), cmd, *configPath, title)
		},
	}
	cmd.Flags().StringVar(&title, "title", "나의 최애 음식 TOP10", "quiz title")
	return cmd
}

func runSeed(ctx context.Context, cmd *cobra.Command, configPath, title string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, log, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			return err
		}
	}

	service, cleanup, err := buildService(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	created, err := service.CreateQuiz(ctx, title, defaultFoods)
	if err != nil {
		return err
	}
	log.Info("sample quiz seeded", zap.String("slug", created.Slug))
	fmt.Fprintf(cmd.OutOrStdout(), "slug: %s\neditToken: %s\n", created.Slug, created.EditToken)
	return nil
}
