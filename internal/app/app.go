// Package app wires configuration into a ready chat service.
package app

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"github.com/xelth-com/wooassist/internal/ai"
	"github.com/xelth-com/wooassist/internal/chat"
	"github.com/xelth-com/wooassist/internal/config"
	"github.com/xelth-com/wooassist/internal/database"
	"github.com/xelth-com/wooassist/internal/logger"
	"github.com/xelth-com/wooassist/internal/tenant"
	"github.com/xelth-com/wooassist/internal/wizard"
)

// App holds every long-lived component of the service
type App struct {
	Cfg     *config.Config
	Log     *logger.Logger
	DB      *database.DB    // nil unless DB_ENABLED
	Redis   *goredis.Client // nil unless SESSION_BACKEND=redis
	Tools   *ai.ToolRegistry
	Tenants tenant.Resolver
	Chat    *chat.Router

	llm *ai.GeminiClient
}

// New connects the configured backends and builds the chat router
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	a := &App{Cfg: cfg, Log: log}

	if cfg.Database.Enabled {
		db, err := database.Connect(cfg.Database, log)
		if err != nil {
			return nil, fmt.Errorf("init postgres: %w", err)
		}
		a.DB = db
		if err := db.Migrate(); err != nil {
			a.Close()
			return nil, fmt.Errorf("postgres: %w", err)
		}
		log.Info("schema synchronized")
	}

	store, history, err := a.wireSessions()
	if err != nil {
		a.Close()
		return nil, err
	}

	if a.Tenants, err = a.wireTenants(); err != nil {
		a.Close()
		return nil, err
	}

	a.Tools = ai.NewToolRegistry()
	if err := ai.RegisterCatalogTools(a.Tools); err != nil {
		a.Close()
		return nil, fmt.Errorf("register tools: %w", err)
	}

	// one client serves both models; the model is chosen per request
	llm, err := a.newGemini(ctx, cfg.LLM.ChatModel)
	if err != nil {
		a.Close()
		return nil, err
	}

	classifier, err := ai.NewClassifier(llm, a.Tools, cfg.LLM.IntentModel, log.With("component", "classifier"))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init classifier: %w", err)
	}

	a.Chat, err = chat.NewRouter(chat.Deps{
		Store:      store,
		Create:     wizard.NewCreateWizard(store, log.With("wizard", "create"), cfg.Debug.WizardJSON),
		Update:     wizard.NewUpdateWizard(store, log.With("wizard", "update")),
		Bulk:       wizard.NewBulkWizard(store, log.With("wizard", "bulk")),
		Classifier: classifier,
		Intro:      ai.NewIntroComposer(llm, cfg.LLM.ChatModel),
		Executor:   ai.NewExecutor(a.Tools, a.DB, log.With("component", "executor")),
		Chat:       llm,
		ChatModel:  cfg.LLM.ChatModel,
		History:    history,
		Log:        log.With("component", "router"),
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) newGemini(ctx context.Context, model string) (*ai.GeminiClient, error) {
	if a.Cfg.LLM.APIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	c, err := ai.NewGeminiClient(ctx, a.Cfg.LLM.APIKey, model)
	if err != nil {
		return nil, fmt.Errorf("init gemini client: %w", err)
	}
	a.llm = c
	return c, nil
}

// wireSessions picks where wizard state and chat history live
func (a *App) wireSessions() (wizard.Store, chat.History, error) {
	s := a.Cfg.Session
	switch s.Backend {
	case "redis":
		rdb, err := database.OpenRedis(s, a.Log)
		if err != nil {
			return nil, nil, fmt.Errorf("init redis: %w", err)
		}
		a.Redis = rdb
		return wizard.NewRedisStore(rdb, s.TTL), chat.NewRedisHistory(rdb, s.TTL), nil
	case "postgres":
		if a.DB == nil {
			return nil, nil, fmt.Errorf("SESSION_BACKEND=postgres requires a database")
		}
		return wizard.NewGormStore(a.DB.DB, s.TTL), chat.NewMemoryHistory(), nil
	default:
		return wizard.NewMemoryStore(), chat.NewMemoryHistory(), nil
	}
}

// wireTenants serves registered clients from the database and everyone
// else from the WOO_* store, when one is configured.
func (a *App) wireTenants() (tenant.Resolver, error) {
	var static tenant.Resolver
	if a.Cfg.Woo.URL != "" {
		r, err := tenant.NewStaticResolver(a.Cfg.Woo, a.Log.With("tenant", "default"))
		if err != nil {
			return nil, err
		}
		static = r
	}

	switch {
	case a.DB != nil && static != nil:
		return tenant.WithFallback(tenant.NewGormResolver(a.DB.DB, a.Cfg.EncKey, a.Log), static), nil
	case a.DB != nil:
		return tenant.NewGormResolver(a.DB.DB, a.Cfg.EncKey, a.Log), nil
	case static != nil:
		return static, nil
	}
	return nil, fmt.Errorf("no store configured: set WOO_URL, WOO_CK and WOO_CS or enable the tenant database")
}

// Close releases every connection the app opened
func (a *App) Close() {
	if a.llm != nil {
		a.llm.Close()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Log.Warn("redis close failed", "error", err)
		}
	}
	if a.DB != nil {
		a.Log.Info("closing database connection")
		if err := a.DB.Close(); err != nil {
			a.Log.Warn("database close failed", "error", err)
		}
	}
}
