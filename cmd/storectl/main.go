// Command storectl runs schema migrations and manages admin accounts.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/petalandstem/storefront/internal/auth"
	"github.com/petalandstem/storefront/internal/config"
	"github.com/petalandstem/storefront/internal/postgres"
	"github.com/petalandstem/storefront/internal/redisx"
)

func main() {
	_ = godotenv.Load()
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "storectl",
		Short:        "Storefront maintenance tasks",
		SilenceUsage: true,
	}
	root.AddCommand(migrateCmd(), adminCmd())
	return root
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "migrate", Short: "Apply or roll back schema migrations"}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := postgres.MigrateUp(cfg.PostgresDSN); err != nil {
				return err
			}
			cmd.Println("migrations applied")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down [steps]",
		Short: "Roll back migrations (default 1)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps := 1
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("steps: %w", err)
				}
				steps = n
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := postgres.MigrateDown(cfg.PostgresDSN, steps); err != nil {
				return err
			}
			cmd.Printf("rolled back %d migration(s)\n", steps)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			v, dirty, err := postgres.Version(cfg.PostgresDSN)
			if err != nil {
				return err
			}
			cmd.Printf("version %d dirty=%t\n", v, dirty)
			return nil
		},
	})
	return cmd
}

// withAuth opens the database and Redis for the admin subcommands.
func withAuth(ctx context.Context, fn func(*auth.Service) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	db, err := postgres.Connect(ctx, cfg.PostgresDSN, 2)
	if err != nil {
		return err
	}
	defer db.Close()
	rdb := redisx.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer rdb.Close()

	return fn(&auth.Service{
		Admins:   &auth.AdminRepo{DB: db},
		Sessions: &auth.SessionStore{RDB: rdb, TTL: cfg.Session.TTL},
	})
}

func adminCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "admin", Short: "Manage admin accounts"}

	var name, password string
	create := &cobra.Command{
		Use:   "create <email>",
		Short: "Create an admin account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			return withAuth(ctx, func(svc *auth.Service) error {
				a, err := svc.CreateAdmin(ctx, args[0], name, password)
				if err != nil {
					return err
				}
				cmd.Printf("created admin %s (%s)\n", a.Email, a.ID)
				return nil
			})
		},
	}
	create.Flags().StringVar(&name, "name", "", "display name")
	create.Flags().StringVar(&password, "password", "", "initial password")
	_ = create.MarkFlagRequired("password")

	var newPassword string
	passwd := &cobra.Command{
		Use:   "passwd <email>",
		Short: "Reset an admin's password and end their sessions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			return withAuth(ctx, func(svc *auth.Service) error {
				if err := svc.ResetPassword(ctx, args[0], newPassword); err != nil {
					return err
				}
				cmd.Printf("password reset for %s\n", args[0])
				return nil
			})
		},
	}
	passwd.Flags().StringVar(&newPassword, "password", "", "new password")
	_ = passwd.MarkFlagRequired("password")

	cmd.AddCommand(create, passwd)
	return cmd
}
