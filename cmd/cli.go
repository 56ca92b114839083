package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/laelblog/blogctl/auth"
	"github.com/laelblog/blogctl/client"
	"github.com/laelblog/blogctl/config"
	"github.com/laelblog/blogctl/db"
	"github.com/laelblog/blogctl/pkg/clierr"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const (
	outputTable = "table"
	outputJSON  = "json"

	// skipSetup marks commands that run without config, database or client.
	skipSetup = "skip-setup"
)

// app is the state shared by every command of one invocation.
type app struct {
	cfg    config.Config
	output string
	client *client.Client
	auth   *auth.Service
}

// Execute runs the CLI under ctx and returns the process exit status, which
// reflects the error kind.
func Execute(ctx context.Context) int {
	rootCmd := createRootCmd()
	err := rootCmd.ExecuteContext(ctx)
	closeDatabase()
	if err == nil {
		return 0
	}
	cliErr := clierr.FromAPI(err)
	log.Error().Err(err).Msg("Command execution failed.")
	rootCmd.PrintErrln("Error:", cliErr.Message)
	return cliErr.ExitCode()
}

func createRootCmd() *cobra.Command {
	a := &app{}
	var apiURL, dbPath string
	var timeout time.Duration

	rootCmd := &cobra.Command{
		Use:           "blogctl",
		Short:         "Manage a blog from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[skipSetup] == "true" {
				return nil
			}
			cfg, err := config.Load(config.DefaultEnvFile)
			if err != nil {
				return clierr.New(clierr.Validation, err.Error(), err)
			}
			flags := cmd.Flags()
			if flags.Changed("api-url") {
				cfg.APIURL = apiURL
			}
			if flags.Changed("db") {
				cfg.DBPath = dbPath
			}
			if flags.Changed("timeout") {
				if timeout <= 0 {
					return clierr.New(clierr.Validation, "timeout must be positive", nil)
				}
				cfg.Timeout = timeout
			}
			if a.output != outputTable && a.output != outputJSON {
				return clierr.New(clierr.Validation, fmt.Sprintf("invalid output format: %s (must be one of: table, json)", a.output), nil)
			}
			return a.setup(cmd, cfg)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&apiURL, "api-url", client.DefaultBaseURL, "Base URL of the blog API")
	pf.StringVar(&dbPath, "db", "", "Path of the credentials database (default $HOME/.blogctl/credentials.db)")
	pf.DurationVar(&timeout, "timeout", 30*time.Second, "HTTP request timeout")
	pf.StringVarP(&a.output, "output", "o", outputTable, "Output format [table, json]")
	pf.BoolP("help", "h", false, "Show help for a command")

	rootCmd.AddCommand(
		loginCmd(a),
		logoutCmd(a),
		whoamiCmd(a),
		healthCmd(a),
		postsCmd(a),
		pagesCmd(a),
		revisionsCmd(a),
		commentsCmd(a),
		menusCmd(a),
		schemaCmd(a),
		settingsCmd(a),
		themesCmd(a),
		uploadCmd(a),
		sitemapCmd(a),
		versionCmd(),
	)

	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	rootCmd.SetHelpCommand(&cobra.Command{
		Use:    "no-help",
		Hidden: true,
	})

	return rootCmd
}

// setup opens the credential database and builds the API client.
func (a *app) setup(cmd *cobra.Command, cfg config.Config) error {
	a.cfg = cfg
	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if db.GetDB() == nil {
		db.Path = cfg.DBPath
		if err := db.InitDB(); err != nil {
			return clierr.New(clierr.Internal, "Unable to open the credentials database.", err)
		}
	}
	store := auth.NewTokenStore(db.NewCredentialRepository(db.GetDB()))

	// A rejected login also goes through the refresh path; the hint would
	// only repeat what the login error says.
	errOut := cmd.ErrOrStderr()
	hint := cmd.Name() != "login"
	a.client = client.New(cfg.APIURL,
		client.WithTimeout(cfg.Timeout),
		client.WithTokenStore(store),
		client.WithUploadRateLimit(cfg.UploadRateLimit),
		client.WithUserAgent("blogctl/"+version),
		client.WithSessionExpiredHandler(func() {
			if hint {
				fmt.Fprintln(errOut, "Session expired. Run 'blogctl login' to sign in again.")
			}
		}),
	)
	a.auth = auth.NewService(a.client, store)

	log.Debug().Str("api", cfg.APIURL).Str("db", db.Path).Msg("Client ready")
	return nil
}

func closeDatabase() {
	if err := db.CloseDB(); err != nil {
		log.Error().Err(err).Msg("Failed to close the database.")
	}
}
