package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/viewvault/cmd/app/commands"
	"github.com/allisson/viewvault/internal/app"
)

func getRetentionCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "reap-compliance-logs",
			Usage: "Delete expired compliance records that are not under investigation",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:    "batch-size",
					Aliases: []string{"b"},
					Usage:   "Records handled per page (defaults to REAPER_BATCH_SIZE)",
				},
				&cli.BoolFlag{
					Name:    "dry-run",
					Aliases: []string{"n"},
					Value:   false,
					Usage:   "Show how many records would be deleted without deleting",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg, err := commands.LoadConfig()
				if err != nil {
					return err
				}
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				complianceUseCase, err := container.ComplianceUseCase()
				if err != nil {
					return err
				}

				batchSize := int(cmd.Int("batch-size"))
				if !cmd.IsSet("batch-size") {
					batchSize = cfg.ReaperBatchSize
				}

				return commands.RunReapComplianceLogs(
					ctx,
					complianceUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					batchSize,
					cmd.Bool("dry-run"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "purge-analytics",
			Usage: "Delete analytics views older than ANALYTICS_RETENTION_DAYS",
			Flags: []cli.Flag{formatFlag()},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg, err := commands.LoadConfig()
				if err != nil {
					return err
				}
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				analyticsUseCase, err := container.AnalyticsUseCase()
				if err != nil {
					return err
				}

				return commands.RunPurgeAnalytics(
					ctx,
					analyticsUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("format"),
				)
			},
		},
	}
}
