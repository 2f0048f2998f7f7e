package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/protokoll/internal/commands"
	"github.com/colonyops/protokoll/internal/core/analysis"
	"github.com/colonyops/protokoll/internal/core/config"
	"github.com/colonyops/protokoll/internal/core/knowledge"
	"github.com/colonyops/protokoll/internal/core/pipeline"
	"github.com/colonyops/protokoll/internal/core/protocol"
	"github.com/colonyops/protokoll/internal/core/transcribe"
	"github.com/colonyops/protokoll/internal/data/db"
	"github.com/colonyops/protokoll/internal/data/stores"
	"github.com/colonyops/protokoll/internal/integrations/calendar"
	"github.com/colonyops/protokoll/internal/integrations/odoo"
	"github.com/colonyops/protokoll/internal/store/jsonfile"
	"github.com/colonyops/protokoll/pkg/executil"
	"github.com/colonyops/protokoll/pkg/logutils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	// When installed via `go install module@version`, build() populates
	// these from runtime/debug.BuildInfo instead.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	v, c, d := version, commit, date

	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

func main() {
	ctx := context.Background()

	var (
		logCloser func()
		database  *db.DB
	)

	flags := &commands.Flags{}

	app := &cli.Command{
		Name:      "protokoll",
		Usage:     "Turn meeting recordings into reviewed protocols and tasks",
		UsageText: "protokoll [global options] command [command options]",
		Description: `Protokoll transcribes meeting recordings, extracts summaries, action
items, decisions, and open questions, and puts every extracted item
through a human review before anything leaves the system.

Run 'protokoll process <audio>' to ingest a recording.
Run 'protokoll review run' to review the extracted items.
Run 'protokoll export' to push the approved results outward.`,
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("PROTOKOLL_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to <data-dir>/protokoll.log)",
				Sources:     cli.EnvVars("PROTOKOLL_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("PROTOKOLL_CONFIG"),
				Value:       commands.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("PROTOKOLL_DATA_DIR"),
				Value:       commands.DefaultDataDir(),
				Destination: &flags.DataDir,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			// Always log to a file; use explicit path or default to <datadir>/protokoll.log
			logFile := flags.LogFile
			if logFile == "" {
				logFile = filepath.Join(flags.DataDir, "protokoll.log")
			}

			logger, closer, err := logutils.New(flags.LogLevel, logFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger
			logCloser = closer

			cfg, err := config.Load(flags.ConfigPath, flags.DataDir)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			flags.Config = cfg

			database, err = db.Open(cfg.DataDir)
			if err != nil {
				return ctx, fmt.Errorf("open database: %w", err)
			}

			pipe := &pipeline.Pipeline{
				Transcriber: transcribe.NewTranscriber(transcribe.Config{
					Provider: cfg.Transcription.Provider,
					Model:    cfg.Transcription.Model,
					Language: cfg.Transcription.Language,
					APIKey:   cfg.Transcription.APIKey(),
					BaseURL:  cfg.Transcription.BaseURL,
				}, logger),
				Analyzer: analysis.NewAnalyzer(analysis.Config{
					Model:     cfg.Analysis.Model,
					MaxTokens: cfg.Analysis.MaxTokens,
					APIKey:    cfg.Analysis.APIKey(),
					BaseURL:   cfg.Analysis.BaseURL,
				}, logger),
				Generator: protocol.NewGenerator(protocol.Config{
					TemplatePath: cfg.Protocol.TemplatePath,
				}),
				Sessions:  jsonfile.NewSessionStore(cfg.MeetingsDir()),
				Knowledge: knowledge.NewStore(knowledge.Config{Dir: cfg.Knowledge.Dir}),
				Index:     stores.NewMeetingIndex(database),
				Logger:    logger,
			}

			if cfg.Calendar.Enabled() {
				pipe.Calendar = calendar.NewClient(calendar.Config{
					Profile:   cfg.Calendar.Profile,
					ScriptDir: cfg.Calendar.ScriptDir,
					Tolerance: cfg.Calendar.Tolerance(),
				}, &executil.RealExecutor{}, logger)
			}

			if cfg.Odoo.Enabled() {
				connector, err := odoo.Connect(ctx, odoo.Config{
					URL:          cfg.Odoo.URL,
					Database:     cfg.Odoo.Database,
					Username:     cfg.Odoo.Username,
					APIKey:       cfg.Odoo.APIKey(),
					ContactsPath: cfg.Odoo.ContactsPath,
					ProjectID:    cfg.Odoo.ProjectID,
					MinScore:     cfg.Odoo.MinScore,
				}, logger)
				if err != nil {
					log.Warn().Err(err).Msg("odoo unavailable, task export disabled")
				} else {
					pipe.Odoo = connector
				}
			}

			flags.Pipeline = pipe

			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if database != nil {
				if err := database.Close(); err != nil {
					log.Error().Err(err).Msg("failed to close database")
					return err
				}
			}

			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	app = commands.NewProcessCmd(flags).Register(app)
	app = commands.NewReviewCmd(flags).Register(app)
	app = commands.NewExportCmd(flags).Register(app)
	app = commands.NewMeetingsCmd(flags).Register(app)
	app = commands.NewDoctorCmd(flags).Register(app)

	exitCode := 0
	runErr := app.Run(ctx, os.Args)
	if runErr != nil {
		fmt.Println()
		fmt.Println(runErr.Error())
		exitCode = 1
	}

	os.Exit(exitCode)
}
