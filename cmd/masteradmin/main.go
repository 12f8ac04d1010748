package main

import (
	"context"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/iota-uz/pims/modules"
	"github.com/iota-uz/pims/modules/core/seed"
	"github.com/iota-uz/pims/pkg/application"
	"github.com/iota-uz/pims/pkg/composables"
	"github.com/iota-uz/pims/pkg/configuration"
	"github.com/iota-uz/pims/pkg/eventbus"
)

func main() {
	var name, email, password string

	cmd := &cobra.Command{
		Use:   "masteradmin",
		Short: "Seed the bootstrap master admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(name, email, password)
		},
	}
	cmd.Flags().StringVar(&name, "name", "Master Admin", "display name of the account")
	cmd.Flags().StringVar(&email, "email", "", "email of the account")
	cmd.Flags().StringVar(&password, "password", "", "initial password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func run(name, email, password string) error {
	conf := configuration.Use()
	defer conf.Unload()
	logger := conf.Logger()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
	defer cancel()
	pool, err := pgxpool.New(ctx, conf.Database.Opts)
	if err != nil {
		return err
	}
	defer pool.Close()

	app := application.New(&application.ApplicationOptions{
		Pool:     pool,
		EventBus: eventbus.NewEventPublisher(logger),
		Logger:   logger,
	})
	if err := modules.Load(app, modules.BuiltInModules...); err != nil {
		return err
	}
	if err := app.Migrations().Run(ctx); err != nil {
		return err
	}

	seeder := application.NewSeeder()
	seeder.Register(seed.MasterAdmin(name, email, password))
	return seeder.Seed(composables.WithPool(ctx, pool), app)
}
