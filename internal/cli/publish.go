package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"polcoord/internal/config"
	"polcoord/internal/infra/memory"
	pgloader "polcoord/internal/infra/postgres"
	rediscache "polcoord/internal/infra/redis"
)

// NewPublishCmd copies the questionnaire from the config file into Postgres.
func NewPublishCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "publish",
		Short: "Upsert the configured questionnaire into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				return fmt.Errorf("postgres url not configured")
			}
			log, err := loggerFor(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			return publishQuestionnaire(cmd.Context(), cfg, log)
		},
	}
}

func publishQuestionnaire(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	q := cfg.BuildQuestionnaire()
	if err := q.Validate(); err != nil {
		return err
	}

	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	loader := pgloader.NewQuestionnaireLoader(pool)
	if err := loader.Publish(ctx, q); err != nil {
		return err
	}
	log.Info("questionnaire published", zap.String("id", q.ID), zap.Int("questions", len(q.Questions)))

	if cfg.Redis.Addr != "" {
		client := newRedisClient(cfg)
		defer client.Close()
		cache := rediscache.NewQuestionnaireRepository(client, memory.NewStaticQuestionnaireLoader(q), time.Minute)
		if err := cache.Invalidate(ctx, q.ID); err != nil {
			log.Warn("questionnaire cache not invalidated", zap.Error(err))
		}
	}
	return nil
}
