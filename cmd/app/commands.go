package main

import (
	"github.com/urfave/cli/v3"
)

// getCommands lists the service command first, then the cron jobs.
func getCommands(version string) []*cli.Command {
	return append(getSystemCommands(version), getRetentionCommands()...)
}
