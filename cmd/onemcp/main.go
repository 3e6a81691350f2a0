package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"onemcp/internal/onemcp/config"
	"onemcp/internal/onemcp/graph"
	"onemcp/internal/onemcp/graph/inmemory"
	"onemcp/internal/onemcp/graph/mongostore"
	"onemcp/internal/onemcp/handbook"
	"onemcp/internal/onemcp/indexer"
	"onemcp/internal/onemcp/llm"
	"onemcp/internal/onemcp/mcpserver"
	"onemcp/internal/onemcp/model"
	"onemcp/internal/onemcp/orchestrator"
	"onemcp/internal/onemcp/plancache"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	mongooptions "go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

func main() {
	envPath := flag.String("config", "", "path to a .env file (defaults to process environment only)")
	flag.Parse()

	if *envPath != "" {
		if err := godotenv.Overload(*envPath); err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config from %s: %v\n", *envPath, err)
			os.Exit(1)
		}
	}

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(logger); err != nil {
		logger.Fatal("onemcp exited with error", zap.Error(err))
	}
}

func run(logger *zap.Logger) error {
	ctx, stop := setupSignalHandler()
	defer stop()

	cfg, err := config.Load("")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger.Info("configuration loaded",
		zap.String("handbookRoot", cfg.HandbookRoot),
		zap.String("llmProvider", cfg.LLM.Provider),
		zap.Bool("staticMode", cfg.StaticMode))

	hb, err := handbook.Load(ctx, cfg.HandbookRoot)
	if err != nil {
		return fmt.Errorf("load handbook: %w", err)
	}
	logger.Info("handbook loaded", zap.String("version", hb.Version()))

	store, closeStore, err := buildGraphStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("build graph store: %w", err)
	}
	defer closeStore()

	if err := indexer.IndexHandbook(ctx, store, hb); err != nil {
		return fmt.Errorf("index handbook: %w", err)
	}
	logger.Info("handbook indexed into graph store")

	var fileStore *plancache.FileStore
	if cfg.PlanCachePath != "" {
		fileStore = plancache.NewFileStore(cfg.PlanCachePath)
	}
	cache := plancache.New(fileStore)
	if err := cache.Load(); err != nil {
		logger.Warn("plan cache not restored from disk", zap.Error(err))
	}

	registry := llm.NewRegistry()
	client, err := registry.Build(cfg.LLM)
	if err != nil {
		return fmt.Errorf("build llm client: %w", err)
	}

	credentials := make(map[string]model.Credential, len(cfg.Credentials))
	for slug, c := range cfg.Credentials {
		credentials[slug] = model.Credential{
			BaseURL:    c.BaseURL,
			HeaderName: c.HeaderName,
			Pattern:    c.Pattern,
			Token:      c.Token,
		}
	}

	orch := orchestrator.New(cfg, hb, store, cache, client, credentials)

	srv := mcpserver.New(mcpserver.ServerConfig{
		ListenAddr:       cfg.HTTPListenAddr,
		JWTSecret:        cfg.JWTSecret,
		EnableDevConsole: cfg.EnableDevConsole,
	}, orch, logger)

	return mcpserver.Run(ctx, srv, logger)
}

// buildGraphStore picks mongostore when MongoURI is configured, falling back
// to the in-process inmemory.Store otherwise, so the server runs without a
// MongoDB instance when MONGODB_URI is unset.
func buildGraphStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (graph.Store, func(), error) {
	if cfg.MongoURI == "" {
		logger.Info("using in-memory graph store (MONGODB_URI not set)")
		return inmemory.New(), func() {}, nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	mongoClient, err := mongo.Connect(connectCtx, mongooptions.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := mongoClient.Ping(connectCtx, nil); err != nil {
		return nil, nil, fmt.Errorf("ping mongodb: %w", err)
	}

	store, err := mongostore.New(ctx, mongoClient.Database(cfg.MongoDatabase))
	if err != nil {
		return nil, nil, fmt.Errorf("build mongo graph store: %w", err)
	}

	logger.Info("using mongodb graph store", zap.String("database", cfg.MongoDatabase))
	return store, func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			logger.Error("error disconnecting from mongodb", zap.Error(err))
		}
	}, nil
}
