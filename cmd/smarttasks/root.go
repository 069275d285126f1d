package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"smarttasks/client"
	"smarttasks/client/localstore"
	"smarttasks/client/session"
)

// cliConfig is read from ~/.config/smarttasks/config.yaml with
// SMARTTASKS_* env overrides.
type cliConfig struct {
	API struct {
		BaseURL string `mapstructure:"base_url"`
	} `mapstructure:"api"`
	Data struct {
		Dir string `mapstructure:"dir"`
	} `mapstructure:"data"`
	Verbose bool `mapstructure:"verbose"`
}

func loadConfig() (cliConfig, error) {
	v := viper.New()

	v.SetDefault("api.base_url", "http://localhost:8080")
	v.SetDefault("data.dir", filepath.Join(os.Getenv("HOME"), ".local", "share", "smarttasks"))
	v.SetDefault("verbose", false)

	v.SetConfigType("yaml")
	if cfgPath := os.Getenv("SMARTTASKS_CONFIG"); cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "smarttasks"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("SMARTTASKS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	_ = v.ReadInConfig()

	var c cliConfig
	if err := v.Unmarshal(&c); err != nil {
		return cliConfig{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

// env is everything a command needs: the session, the service it talks
// to, and the local database that backs both the offline store and the
// persisted session.
type env struct {
	cfg     cliConfig
	logger  *zap.Logger
	db      *sql.DB
	session *session.Store
	svc     client.Service
	// api is the remote client, nil in local mode. Auth commands need it
	// directly; everything else goes through svc.
	api *client.Client
}

func (e *env) Close() {
	if e.db != nil {
		e.db.Close()
	}
	_ = e.logger.Sync()
}

// openEnv wires the command environment. With local=true the service is
// the sqlite store; otherwise it is the remote API client bound to the
// session's token.
func openEnv(local bool) (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger := zap.NewNop()
	if cfg.Verbose {
		if l, err := zap.NewDevelopment(); err == nil {
			logger = l
		}
	}

	if err := os.MkdirAll(cfg.Data.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	db, err := localstore.Open(filepath.Join(cfg.Data.Dir, "smarttasks.db"))
	if err != nil {
		return nil, fmt.Errorf("open local database: %w", err)
	}

	bus := session.NewBroadcaster()
	bus.Subscribe(session.TopicUnauthorized, func() {
		fmt.Fprintln(os.Stderr, "Session expired, please log in again.")
	})

	sess, err := session.NewStore(localstore.NewKV(db), bus, logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("restore session: %w", err)
	}

	e := &env{cfg: cfg, logger: logger, db: db, session: sess}
	if local {
		e.svc = localstore.New(db, sess.TenantID, logger)
	} else {
		e.api = client.NewClient(client.Config{
			BaseURL: cfg.API.BaseURL,
			Tokens:  sess,
			Bus:     bus,
			Logger:  logger,
		})
		e.svc = e.api
	}
	return e, nil
}

func newRootCommand() *cobra.Command {
	var local bool

	root := &cobra.Command{
		Use:   "smarttasks",
		Short: "Manage projects, tasks and attachments",
		Long: `smarttasks is the command-line companion to the collection API.

It keeps a persisted session per machine and talks to the remote API by
default. With --local it works against an offline sqlite store instead,
using the exact same commands.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVar(&local, "local", false, "Use the offline sqlite store instead of the remote API")

	root.AddCommand(
		newLoginCommand(),
		newLogoutCommand(),
		newWhoamiCommand(),
		newTenantCommand(),
		newDashboardCommand(),
		newProjectsCommand(&local),
		newTasksCommand(&local),
		newAttachmentsCommand(&local),
	)
	return root
}
