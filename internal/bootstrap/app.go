package bootstrap

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"datacopilot/internal/agent"
	"datacopilot/internal/ai"
	"datacopilot/internal/app"
	"datacopilot/internal/config"
	"datacopilot/internal/dataset"
	"datacopilot/internal/model"
	databaseClient "datacopilot/internal/platform/database"
	rabbitmqClient "datacopilot/internal/platform/rabbitmq"
	redisClient "datacopilot/internal/platform/redis"
	"datacopilot/internal/repository"
	"datacopilot/internal/worker"
)

// App owns every shared handle: the mirror database, the dataset store, the
// reasoning backends, and the messaging plumbing. Dataset replacement and
// agent resets go through App so the agent set and the store swap together.
type App struct {
	Config     *config.Config
	DB         *gorm.DB
	Redis      *redis.Client
	MQConn     *amqp.Connection
	Store      *dataset.Store
	LLM        *ai.Client
	TurnWorker *worker.TurnPersistWorker

	StartedAt time.Time

	mu     sync.RWMutex
	agents app.AgentSet
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	db, err := databaseClient.New(ctx, cfg.Database.Driver, cfg.Database.Path, cfg.MySQLDSN())
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&model.ChatTurn{}); err != nil {
		return nil, fmt.Errorf("auto migrate tables failed: %w", err)
	}

	redisCli, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}

	mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
	if err != nil {
		return nil, err
	}

	store := dataset.NewStore(db, cfg.Dataset.Table)
	records, err := store.Reload(ctx, cfg.Dataset.CSVPath)
	if err != nil {
		return nil, fmt.Errorf("load dataset failed: %w", err)
	}
	log.Printf("dataset loaded: %d records from %s", records, cfg.Dataset.CSVPath)

	llm := ai.NewClient(ai.ClientConfig{
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		MaxRetries:  cfg.LLM.MaxRetries,
		MaxTurns:    cfg.LLM.MaxTurns,
	})

	turnRepo := repository.NewTurnRepository(db)
	turnWorker := worker.NewTurnPersistWorker(mqConn, turnRepo, cfg.RabbitMQ.TurnPersistQueue)
	if err := turnWorker.Start(ctx); err != nil {
		return nil, fmt.Errorf("start turn worker failed: %w", err)
	}

	a := &App{
		Config:     cfg,
		DB:         db,
		Redis:      redisCli,
		MQConn:     mqConn,
		Store:      store,
		LLM:        llm,
		TurnWorker: turnWorker,
		StartedAt:  time.Now(),
	}
	a.ResetAgents()
	return a, nil
}

// Agents returns the current reasoning backends. The pair swaps atomically
// under the lock on reset and reload.
func (a *App) Agents() app.AgentSet {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.agents
}

// ResetAgents rebuilds both agents against the current dataset store.
func (a *App) ResetAgents() {
	set := app.AgentSet{
		Router:  agent.NewSQLAgent(a.LLM, a.Store, a.Config.Dataset.RowLimit),
		Decider: agent.NewDecisionEngine(a.LLM, a.Store, a.Config.Chart.ArtifactPath),
	}

	a.mu.Lock()
	a.agents = set
	a.mu.Unlock()
	log.Printf("agents initialized")
}

// ReloadDataset replaces the dataset wholesale from a new CSV and rebuilds
// the agents against the fresh schema. Returns the number of rows loaded.
func (a *App) ReloadDataset(ctx context.Context, csvPath string) (int, error) {
	records, err := a.Store.Reload(ctx, csvPath)
	if err != nil {
		return 0, err
	}
	a.ResetAgents()
	return records, nil
}

func (a *App) Close() error {
	var closeErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.TurnWorker != nil {
		a.TurnWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.DB != nil {
		sqlDB, err := a.DB.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
