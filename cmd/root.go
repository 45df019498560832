package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/alexandernovadev/languagesai/internal/config"
	"github.com/alexandernovadev/languagesai/internal/draft"
	"github.com/alexandernovadev/languagesai/internal/logger"
	"github.com/alexandernovadev/languagesai/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "languagesai",
	Short: "Language exams generated by an LLM",
	Long: "LanguagesAI generates language certification exams with an LLM, " +
		"reviews and corrects them, and lets you take them in the terminal.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	config.RegisterFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(takeCmd)
	rootCmd.AddCommand(examsCmd)
	rootCmd.AddCommand(attemptsCmd)
	rootCmd.AddCommand(draftsCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// env holds what every command needs: resolved config, a logger and the
// open store.
type env struct {
	cfg   config.Config
	log   zerolog.Logger
	store *store.Store
}

// setup resolves configuration, builds the logger writing to logOut and
// opens the database.
func setup(cmd *cobra.Command, logOut io.Writer) (*env, error) {
	cfg, err := config.Load(cmd)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.Setup(cfg.LogLevel, cfg.LogFormat, logOut)
	if cfg.File != "" {
		log.Debug().Str("file", cfg.File).Msg("config file loaded")
	}

	dbPath, err := resolveDBPath(cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	return &env{cfg: cfg, log: log, store: st}, nil
}

func (e *env) Close() {
	if err := e.store.Close(); err != nil {
		e.log.Warn().Err(err).Msg("close store")
	}
}

// resolveDBPath returns the --db value (flag, LANGAI_DB or config file)
// or the default XDG path.
func resolveDBPath(cfg config.Config) (string, error) {
	if cfg.DBPath != "" {
		return cfg.DBPath, store.EnsureDir(cfg.DBPath)
	}
	return store.DefaultDBPath()
}

// openDrafts builds the draft store for the configured backend. The
// returned func releases backend resources.
func (e *env) openDrafts(ctx context.Context) (*draft.Store, func(), error) {
	log := logger.Component(e.log, "drafts")

	switch e.cfg.Drafts.Backend {
	case config.DraftsRedis:
		rdb, err := draft.NewRedisClient(ctx, e.cfg.Drafts.RedisURL, log)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := rdb.Close(); err != nil {
				log.Warn().Err(err).Msg("close redis")
			}
		}
		return draft.NewStore(draft.NewRedisKV(rdb, e.cfg.Drafts.TTL)), closeFn, nil
	case config.DraftsMemory:
		return draft.NewStore(draft.NewMemoryKV()), func() {}, nil
	default:
		return draft.NewStore(e.store.KV()), func() {}, nil
	}
}
