package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"polcoord/internal/app"
	"polcoord/internal/config"
	"polcoord/internal/infra/csvfile"
	"polcoord/internal/infra/memory"
	pgloader "polcoord/internal/infra/postgres"
	rediscache "polcoord/internal/infra/redis"
	transport "polcoord/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz and reporting server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, log, err := setup(configPath)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			return err
		}
	}

	finalPort := listenPort(portFlag, cfg)

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = newRedisClient(cfg)
		defer redisClient.Close()
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 30*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var loader memory.QuestionnaireLoader = memory.NewStaticQuestionnaireLoader(cfg.BuildQuestionnaire())
	if cfg.Questionnaire.Source == config.SourcePostgres {
		loader = pgloader.NewQuestionnaireLoader(pool)
	}

	questionnaireTTL := config.TTLDuration(cfg.Questionnaire.TTL, 10*time.Minute)
	var questionnaires app.QuestionnaireRepository
	if redisClient != nil {
		questionnaires = rediscache.NewQuestionnaireRepository(redisClient, loader, questionnaireTTL)
	} else {
		questionnaires = memory.NewQuestionnaireRepository(loader, questionnaireTTL)
	}

	var attempts app.AttemptRepository
	if redisClient != nil {
		attempts = rediscache.NewAttemptStore(redisClient, redisTTL)
	} else {
		attempts = memory.NewAttemptStore()
	}

	records, err := app.NewRecordStore(ctx, csvfile.NewRecordRepository(cfg.DB.Path), log)
	if err != nil {
		return err
	}
	service := app.NewQuizService(attempts, questionnaires, cfg.Questionnaire.ID, records, log)

	choices := transport.Choices{
		Sexes:        cfg.Sexes,
		Directions:   cfg.Directions,
		Universities: cfg.Universities,
		Courses:      cfg.Courses,
	}
	api := transport.NewAPI(records, service, choices, cfg.Report.PDFFont, log)
	router := transport.NewRouter(api, transport.NewWSHandler(service, log), log)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info("starting server", zap.String("port", finalPort), zap.Int("records", len(records.Snapshot())))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed to start server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// listenPort picks the --port flag, then server.port (which $PORT overrides
// at load time), then 8080.
func listenPort(flag string, cfg config.Config) string {
	if flag != "" {
		return flag
	}
	if cfg.Server.Port != "" {
		return cfg.Server.Port
	}
	return "8080"
}

func newRedisClient(cfg config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}
