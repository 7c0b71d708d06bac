package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fiffu/framenotify/app"
	"github.com/fiffu/framenotify/config"
	"github.com/fiffu/framenotify/lib"
	"github.com/fiffu/framenotify/lib/scheduler"
	"github.com/fiffu/framenotify/lib/signature"
	"github.com/fiffu/framenotify/lib/store"
	"github.com/fiffu/framenotify/lib/webhook"
	"github.com/fiffu/framenotify/senders"
)

func NewLogger() (*zap.Logger, error) {
	switch os.Getenv("ENVIRONMENT") {
	default:
		return zap.NewDevelopment()

	case "production":
		logCfg := zap.NewProductionConfig()
		logCfg.EncoderConfig.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			t = t.UTC()
			zapcore.ISO8601TimeEncoder(t, enc)
		}
		return logCfg.Build()
	}
}

func coreModule() fx.Option {
	return fx.Options(
		fx.Provide(config.NewConfig),
		fx.Provide(NewLogger),

		fx.Provide(app.NewDatabase),
		fx.Provide(store.NewSubscriptionStore),
		fx.Provide(store.NewEventLog),
		fx.Provide(store.NewPostStore),
		fx.Provide(app.NewQueue),

		fx.Provide(app.NewKeyRegistry),
		fx.Provide(
			fx.Annotate(
				signature.NewVerifier,
				fx.As(new(webhook.Verifier)),
			),
		),
		fx.Provide(webhook.NewValidator),
		fx.Provide(webhook.NewProcessor),
		fx.Provide(lib.NewService),
	)
}

func serve(c *cli.Context) error {
	fx.New(
		coreModule(),

		fx.Provide(app.NewTransport),
		fx.Provide(senders.NewSenderRegistry),
		fx.Provide(senders.NewOperatorAlerter),
		fx.Provide(app.NewDispatcher),
		fx.Provide(app.NewRunner),
		fx.Provide(app.NewAPI),

		fx.Invoke(func(*http.Server, *scheduler.Runner) {}),
	).Run()
	return nil
}

func migrate(c *cli.Context) error {
	path := c.String("file")
	dryRun := c.Bool("dry-run")

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var report *lib.MigrationReport
	fxApp := fx.New(
		coreModule(),
		fx.NopLogger,
		fx.Invoke(func(svc *lib.Service) error {
			report, err = svc.MigrateLegacy(c.Context, f, dryRun)
			return err
		}),
	)
	if err := fxApp.Err(); err != nil {
		return err
	}

	verb := "Converted"
	if dryRun {
		verb = "Would have converted"
	}
	fmt.Fprintf(c.App.Writer, "Completed! %s %d subscription(s), skipped %d existing.\n", verb, len(report.Migrated), report.Skipped)
	return nil
}

func main() {
	cliApp := &cli.App{
		Name:   "framenotify",
		Usage:  "Push notifications for frame subscribers",
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the webhook receiver, admin API and task runner",
				Action: serve,
			},
			{
				Name:  "migrate",
				Usage: "Import legacy subscriptions from a JSON document",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "file", Usage: "path to the legacy subscriptions JSON", Required: true},
					&cli.BoolFlag{Name: "dry-run", Usage: "report what would be migrated without writing"},
				},
				Action: migrate,
			},
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
