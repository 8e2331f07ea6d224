package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/bakery-bliss/bakery/internal/app"
	"github.com/bakery-bliss/bakery/internal/commission"
	"github.com/bakery-bliss/bakery/internal/config"
	"github.com/bakery-bliss/bakery/internal/migration"
	ordersvc "github.com/bakery-bliss/bakery/internal/service/order"
	"github.com/bakery-bliss/bakery/internal/seeder"
	"github.com/bakery-bliss/bakery/internal/workflow"
)

// NewRootCommand builds the root bakery CLI command.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "bakery",
		Short: "Bakery Bliss order fulfillment service",
	}

	root.AddCommand(newStartCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newSeedCmd())
	root.AddCommand(newWorkerCmd())
	root.AddCommand(newCommissionCmd())
	root.AddCommand(newOrdersCmd())

	return root
}

// Execute runs the bakery CLI.
func Execute() error {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return err
	}
	return nil
}

func newStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "start",
		Aliases: []string{"run"},
		Short:   "Run the HTTP and gRPC service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUntilDone(cmd.Context(), fx.New(app.Module))
		},
	}
}

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			var mig *migration.Migrator
			opts := fx.Options(app.Storage, migration.Module, fx.Populate(&mig))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				if err := mig.Up(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				return nil
			})
		},
	}

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Rollback migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, _ := cmd.Flags().GetInt("steps")
			all, _ := cmd.Flags().GetBool("all")
			var mig *migration.Migrator
			opts := fx.Options(app.Storage, migration.Module, fx.Populate(&mig))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				if err := mig.Down(ctx, steps, all); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations rolled back")
				return nil
			})
		},
	}
	downCmd.Flags().Int("steps", 1, "Number of migration steps to rollback")
	downCmd.Flags().Bool("all", false, "Rollback all applied migrations")

	cmd.AddCommand(upCmd, downCmd)
	return cmd
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed users, teams, products and demo orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			var seed *seeder.Seeder
			opts := fx.Options(app.Core, seeder.Module, fx.Populate(&seed))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				if err := seed.Run(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "seed data applied")
				return nil
			})
		},
	}
}

func newWorkerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Manage background workers",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Run the notification worker and scheduled jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUntilDone(cmd.Context(), fx.New(app.Worker))
		},
	})
	return cmd
}

func newCommissionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "commission",
		Short: "Inspect baker commissions",
	}
	calc := &cobra.Command{
		Use:   "calc [order-total]",
		Short: "Show what each baker earns for an order total",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			total, err := decimal.NewFromString(args[0])
			if err != nil {
				return fmt.Errorf("invalid order total %q: %w", args[0], err)
			}
			rush, _ := cmd.Flags().GetBool("rush")

			cfg, err := config.New()
			if err != nil {
				return err
			}
			calculator, err := commission.NewFromConfig(cfg)
			if err != nil {
				return err
			}
			return printCommission(cmd.OutOrStdout(), calculator, total, rush)
		},
	}
	calc.Flags().Bool("rush", false, "Apply the rush bonus")
	cmd.AddCommand(calc)
	return cmd
}

func printCommission(out io.Writer, calculator *commission.Calculator, total decimal.Decimal, rush bool) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ROLE\tRATE\tBASE\tBONUS\tTOTAL")
	for _, role := range []workflow.Role{workflow.RoleMainBaker, workflow.RoleJuniorBaker} {
		b, err := calculator.Calculate(total, role, rush)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s%%\t%s\t%s\t%s\n",
			role, commission.Percentage(b.Rate).String(),
			b.BaseAmount.StringFixed(2), b.BonusAmount.StringFixed(2), b.TotalAmount.StringFixed(2))
	}
	return w.Flush()
}

func newOrdersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Operate on orders as the system actor",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "deliver [order-id-or-number]",
		Short: "Mark a ready order as delivered",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var svc *ordersvc.Service
			opts := fx.Options(app.Core, fx.Populate(&svc))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				order, err := svc.Deliver(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "order %s delivered (version %d)\n", order.Number, order.Version)
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "sweep",
		Short: "Flag orders that passed their deadline",
		RunE: func(cmd *cobra.Command, args []string) error {
			var svc *ordersvc.Service
			opts := fx.Options(app.Core, fx.Populate(&svc))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				n, err := svc.SweepOverdue(ctx, time.Now().UTC())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d overdue orders flagged\n", n)
				return nil
			})
		},
	})
	return cmd
}

func runUntilDone(ctx context.Context, application *fx.App) error {
	if err := application.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return application.Stop(stopCtx)
}

func runWithApp(ctx context.Context, opts fx.Option, fn func(context.Context) error) error {
	application := fx.New(opts, fx.NopLogger)
	if err := application.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = application.Stop(stopCtx)
	}()
	return fn(ctx)
}
