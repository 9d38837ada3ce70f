// Package server initializes and runs the zia server: it opens the database,
// applies migrations, builds the services and runs the HTTP API and the gRPC
// health endpoint until a termination signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/zia/internal/logging"
	"github.com/dmitrijs2005/zia/internal/server/auth"
	"github.com/dmitrijs2005/zia/internal/server/config"
	"github.com/dmitrijs2005/zia/internal/server/httpapi"
	"github.com/dmitrijs2005/zia/internal/server/llm"
	"github.com/dmitrijs2005/zia/internal/server/metrics"
	"github.com/dmitrijs2005/zia/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/zia/internal/server/services"

	gs "github.com/dmitrijs2005/zia/internal/server/grpc"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	userService *services.UserService
	chatService *services.ChatService
	metrics     *metrics.Metrics
}

// NewApp opens the database and wires every component. Nothing is listening
// yet; call Run for that.
func NewApp(c *config.Config, logger logging.Logger) (*App, error) {
	hasher, err := auth.NewHasher(c.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hasher init error: %w", err)
	}
	codec, err := auth.NewCodec(c.SecretKey, c.SigningAlgorithm)
	if err != nil {
		return nil, fmt.Errorf("token codec init error: %w", err)
	}

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()

	llmClient := llm.NewClient(llm.Config{
		APIKey:  c.AnthropicAPIKey,
		URL:     c.ClaudeAPIURL,
		Timeout: c.ClaudeTimeout,
	}, logger)
	if !llmClient.Configured() {
		logger.Warn(context.Background(), "ANTHROPIC_API_KEY is not set, chat requests will be rejected")
	}

	return &App{
		config:      c,
		logger:      logger,
		db:          db,
		repomanager: rm,
		userService: services.NewUserService(db, rm, hasher, codec, c, logger),
		chatService: services.NewChatService(llmClient, c, logger),
		metrics:     metrics.New(),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	router := httpapi.NewRouter(app.logger, app.userService, app.chatService, app.metrics, app.db.PingContext)
	s := httpapi.NewServer(app.config.EndpointAddrHTTP, router, app.logger)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.db.PingContext, app.config.HealthCheckInterval)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run applies pending migrations and serves until a signal arrives or one of
// the servers fails.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()
	defer app.db.Close()

	app.logger.Info(ctx, "Starting app...")

	if err := app.repomanager.RunMigrations(ctx, app.db); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.logger.Info(context.Background(), "App stopped")
	return nil
}
