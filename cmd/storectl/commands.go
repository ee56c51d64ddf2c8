package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/MuhammadAwais984/storefront/internal/config"
	"github.com/MuhammadAwais984/storefront/internal/domain/user"
	"github.com/MuhammadAwais984/storefront/internal/infrastructure/database/gormdb"
	"github.com/MuhammadAwais984/storefront/internal/pkg/auth"
	"github.com/MuhammadAwais984/storefront/internal/pkg/logger"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// app carries what every command needs. openDB is swapped in tests.
type app struct {
	cfg    *config.Config
	log    logrus.FieldLogger
	out    io.Writer
	openDB func(cfg *config.Config, log logrus.FieldLogger) (*gorm.DB, func(), error)
}

func defaultApp() *app {
	return &app{
		out: os.Stdout,
		openDB: func(cfg *config.Config, log logrus.FieldLogger) (*gorm.DB, func(), error) {
			conn, err := gormdb.NewConnection(cfg, log)
			if err != nil {
				return nil, nil, err
			}
			return conn.GetDB(), func() { _ = conn.Close() }, nil
		},
	}
}

func newRootCmd(a *app) *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:          "storectl",
		Short:        "Storefront maintenance tool",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg == nil {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				a.cfg = cfg
			}
			if a.log == nil {
				if verbose {
					a.log = logger.New(a.cfg.Logging)
				} else {
					a.log = logger.Discard()
				}
			}
			cmd.SetOut(a.out)
			return nil
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log to stdout")

	root.AddCommand(
		a.migrateCmd(),
		a.seedCmd(),
		a.createAdminCmd(),
		a.hashPasswordCmd(),
		a.usersCmd(),
		a.tablesCmd(),
	)
	return root
}

// withDB opens the database for the duration of fn
func (a *app) withDB(fn func(ctx context.Context, db *gorm.DB) error) error {
	db, closeDB, err := a.openDB(a.cfg, a.log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer closeDB()
	return fn(context.Background(), db)
}

func (a *app) migrateCmd() *cobra.Command {
	var drop bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withDB(func(ctx context.Context, db *gorm.DB) error {
				m := gormdb.NewMigration(db, a.cfg, a.log)
				if drop {
					if err := m.DropAllTables(ctx); err != nil {
						return err
					}
				}
				if err := m.RunAutoMigrations(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&drop, "drop", false, "drop every table first (destroys data)")
	return cmd
}

func (a *app) seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert default categories and the bootstrap super admin",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withDB(func(ctx context.Context, db *gorm.DB) error {
				if err := gormdb.NewMigration(db, a.cfg, a.log).SeedInitialData(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "seed data applied")
				return nil
			})
		},
	}
}

func (a *app) createAdminCmd() *cobra.Command {
	var (
		req   user.CreateAdminRequest
		super bool
	)

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an ADMIN (or SUPER_ADMIN) account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			role := auth.RoleAdmin
			if super {
				role = auth.RoleSuperAdmin
			}
			return a.withDB(func(ctx context.Context, db *gorm.DB) error {
				created, err := user.NewService(db, a.cfg, a.log).CreateWithRole(ctx, &req, role)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created %s %s (id %d)\n", created.Role, created.Email, created.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&req.Email, "email", "", "account email")
	cmd.Flags().StringVar(&req.Password, "password", "", "account password")
	cmd.Flags().StringVar(&req.Name, "name", "", "display name")
	cmd.Flags().BoolVar(&super, "super", false, "grant SUPER_ADMIN instead of ADMIN")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func (a *app) hashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print the bcrypt hash of a password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pm := auth.NewPasswordManager(a.cfg)
			hash, err := pm.HashPassword(args[0])
			if err != nil {
				return err
			}
			if err := pm.VerifyPassword(args[0], hash); err != nil {
				return fmt.Errorf("hash verification failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

func (a *app) usersCmd() *cobra.Command {
	users := &cobra.Command{
		Use:   "users",
		Short: "Inspect accounts",
	}

	var req user.UserListRequest
	list := &cobra.Command{
		Use:   "list",
		Short: "List accounts as a table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withDB(func(ctx context.Context, db *gorm.DB) error {
				resp, err := user.NewAdminService(db, a.log).GetUsers(ctx, &req)
				if err != nil {
					return err
				}

				t := table.NewWriter()
				t.SetOutputMirror(cmd.OutOrStdout())
				t.SetStyle(table.StyleLight)
				t.AppendHeader(table.Row{"ID", "Email", "Name", "Role", "Orders", "Spent", "Created"})
				for _, u := range resp.Users {
					t.AppendRow(table.Row{
						u.ID, u.Email, u.Name, u.Role, u.OrderCount,
						u.TotalSpent.StringFixed(2), u.CreatedAt.Format("2006-01-02"),
					})
				}
				t.AppendFooter(table.Row{"", "", "", "", "", "Total", resp.Pagination.Total})
				t.Render()
				return nil
			})
		},
	}
	list.Flags().StringVar(&req.Role, "role", "", "filter by role (CUSTOMER, ADMIN, SUPER_ADMIN, GUEST)")
	list.Flags().StringVar(&req.Search, "search", "", "email or name substring")
	list.Flags().IntVar(&req.Limit, "limit", 50, "maximum rows")
	list.Flags().IntVar(&req.Page, "page", 1, "page number")

	users.AddCommand(list)
	return users
}

func (a *app) tablesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "Show row counts per table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withDB(func(ctx context.Context, db *gorm.DB) error {
				stats, err := gormdb.NewMigration(db, a.cfg, a.log).TableStats(ctx)
				if err != nil {
					return err
				}

				t := table.NewWriter()
				t.SetOutputMirror(cmd.OutOrStdout())
				t.SetStyle(table.StyleLight)
				t.AppendHeader(table.Row{"Table", "Rows"})
				for _, s := range stats {
					t.AppendRow(table.Row{s.Table, s.Rows})
				}
				t.Render()
				return nil
			})
		},
	}
}
