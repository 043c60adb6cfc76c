package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/viewvault/cmd/app/commands"
	"github.com/allisson/viewvault/internal/app"
	"github.com/allisson/viewvault/internal/config"
)

func getSystemCommands(version string) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "server",
			Usage: "Start the HTTP server and the vault seal worker",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunServer(ctx, version)
			},
		},
		{
			Name:  "migrate",
			Usage: "Run database migrations for every tier",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				return commands.RunMigrations(
					container.Logger(),
					cfg.DBDriver,
					commands.MigrationTarget{Tier: app.TierAnalytics, DSN: cfg.AnalyticsDBConnectionString},
					commands.MigrationTarget{Tier: app.TierCompliance, DSN: cfg.ComplianceDBConnectionString},
					commands.MigrationTarget{Tier: app.TierVault, DSN: cfg.VaultDBConnectionString},
					commands.MigrationTarget{Tier: app.TierAudit, DSN: cfg.AuditDBConnectionString},
				)
			},
		},
		{
			Name:  "verify-audit-logs",
			Usage: "Verify cryptographic integrity of audit logs",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "start-date",
					Aliases:  []string{"s"},
					Required: true,
					Usage:    "Start date in YYYY-MM-DD or YYYY-MM-DD HH:MM:SS format",
				},
				&cli.StringFlag{
					Name:     "end-date",
					Aliases:  []string{"e"},
					Required: true,
					Usage:    "End date in YYYY-MM-DD or YYYY-MM-DD HH:MM:SS format",
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

				auditUseCase, err := container.AuditUseCase()
				if err != nil {
					return err
				}

				return commands.RunVerifyAuditLogs(
					ctx,
					auditUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("start-date"),
					cmd.String("end-date"),
					cmd.String("format"),
				)
			},
		},
	}
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Value:   "text",
		Usage:   "Output format: 'text' or 'json'",
	}
}
