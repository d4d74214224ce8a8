// Command moneylog records personal expenses against a spending cap.
package main

import (
	"context"
	"os"

	"github.com/alecthomas/kong"

	"moneylog/internal/cli"
)

var root struct {
	EnvFile string `name:"env-file" help:"Load environment variables from this file before reading configuration." default:".env"`
	Backend string `help:"Override MONEYLOG_BACKEND (memory, file, sqlite, postgres)."`

	Add      addCmd      `cmd:"" help:"Record a new expense."`
	Edit     editCmd     `cmd:"" help:"Change an existing expense."`
	Rm       rmCmd       `cmd:"" help:"Delete an expense."`
	Ls       lsCmd       `cmd:"" help:"List expenses."`
	Summary  summaryCmd  `cmd:"" help:"Show totals and the spending cap status."`
	Cap      capCmd      `cmd:"" help:"Show or set the spending cap."`
	Settings settingsCmd `cmd:"" help:"Show or change currency and categories."`
	Import   importCmd   `cmd:"" help:"Replace the ledger with a backup file."`
	Export   exportCmd   `cmd:"" help:"Write a backup file."`
	Watch    watchCmd    `cmd:"" help:"Follow ledger changes published by other instances."`
}

func main() {
	kctx := kong.Parse(&root,
		kong.Name("moneylog"),
		kong.Description("A small expense ledger with a spending cap."),
	)

	if err := cli.LoadEnvFile(root.EnvFile); err != nil {
		kctx.FatalIfErrorf(err)
	}
	if root.Backend != "" {
		os.Setenv("MONEYLOG_BACKEND", root.Backend)
	}

	cfg, err := cli.LoadAndValidateConfig()
	kctx.FatalIfErrorf(err)
	logger := cli.SetupLogger(cfg, os.Stderr)

	ctx, cancel := cli.ShutdownContext(context.Background(), logger)
	defer cancel()

	app, err := cli.OpenApp(ctx, cfg, logger)
	kctx.FatalIfErrorf(err)

	err = kctx.Run(&runContext{ctx: ctx, app: app, out: os.Stdout})
	if cerr := app.Close(); err == nil {
		err = cerr
	}
	kctx.FatalIfErrorf(err)
}
