// Package main is the counsellor server entry point.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/alnada/counsellor/internal/chat"
	"github.com/alnada/counsellor/internal/config"
	"github.com/alnada/counsellor/internal/embedding"
	"github.com/alnada/counsellor/internal/index"
	"github.com/alnada/counsellor/internal/llm"
	"github.com/alnada/counsellor/internal/server"
	"github.com/alnada/counsellor/internal/session"
	"github.com/alnada/counsellor/internal/store"
	"github.com/alnada/counsellor/internal/upstream"
	"github.com/alnada/counsellor/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/counsellor/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used, so that "counsellord server" from the project dir uses the
// project's config (including debug). Returns the config and the path that
// was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "version", "--version", "-v":
		fmt.Printf("counsellord version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Usage: counsellord <command> [flags]

Commands:
  server     start the counsellor HTTP server
  version    print the version
  help       show this message

Server flags:
  -config    config file path (default ` + defaultConfigPath + `)
  -debug     enable debug logging`)
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	// Session countdowns tick for the lifetime of the process.
	sessionCtx, sessionCancel := context.WithCancel(context.Background())
	defer sessionCancel()
	go components.Sessions.Run(sessionCtx)

	srv := server.NewServer(
		components.Aggregator,
		components.Gateway,
		components.Engine,
		components.Sessions,
		components.Indexes,
		components.Store,
		cfg,
		logger,
	)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	sessionCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// Components holds the initialized service dependencies.
type Components struct {
	Store      store.Store
	Gateway    *upstream.Gateway
	Aggregator *upstream.Aggregator
	Embedder   embedding.Embedder
	Generator  llm.Generator
	Indexes    *index.Cache
	Engine     *chat.Engine
	Sessions   *session.Manager

	logger *zap.Logger
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	st, err := store.NewSQLiteStore(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	ctx := context.Background()
	embedder, err := embedding.New(ctx, &cfg.Provider)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	generator, err := llm.New(ctx, &cfg.Provider)
	if err != nil {
		embedder.Close()
		st.Close()
		return nil, fmt.Errorf("failed to initialize generator: %w", err)
	}

	gateway := upstream.NewGateway(
		cfg.Upstream.BaseURL,
		cfg.Upstream.APIToken,
		time.Duration(cfg.Upstream.TimeoutSeconds)*time.Second,
		logger,
	)
	aggregator := upstream.NewAggregator(gateway, logger)
	indexes := index.NewCache(embedder, cfg.Retrieval.IndexCacheSize, logger)
	engine := chat.NewEngine(st, indexes, embedder, generator, cfg.Retrieval.TopK, logger)
	sessions := session.NewManager(st, cfg.Session.DurationSeconds, logger)

	logger.Info("components initialized",
		zap.String("provider", cfg.Provider.Name),
		zap.String("chat_model", cfg.Provider.ChatModel),
		zap.String("embed_model", cfg.Provider.EmbedModel),
	)

	return &Components{
		Store:      st,
		Gateway:    gateway,
		Aggregator: aggregator,
		Embedder:   embedder,
		Generator:  generator,
		Indexes:    indexes,
		Engine:     engine,
		Sessions:   sessions,
		logger:     logger,
	}, nil
}

// Close releases all component resources.
func (c *Components) Close() {
	if err := c.Generator.Close(); err != nil && c.logger != nil {
		c.logger.Warn("generator close failed", zap.Error(err))
	}
	if err := c.Embedder.Close(); err != nil && c.logger != nil {
		c.logger.Warn("embedder close failed", zap.Error(err))
	}
	if err := c.Store.Close(); err != nil && c.logger != nil {
		c.logger.Warn("storage close failed", zap.Error(err))
	}
}
