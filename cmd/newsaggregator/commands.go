package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"NewsAggregator/internal/app"
	"NewsAggregator/internal/config"
	"NewsAggregator/internal/domain"
	"NewsAggregator/internal/logging"
)

type cli struct {
	envFile string
	cfg     config.Config
	logger  *slog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:          "newsaggregator",
		Short:        "Fetch news, then summarize and label it in the background",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := godotenv.Load(c.envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("load %s: %w", c.envFile, err)
			}
			c.cfg = config.Load()
			c.logger = logging.New(c.cfg.Logging.Level, c.cfg.Logging.Format)
			slog.SetDefault(c.logger)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&c.envFile, "env-file", ".env", "dotenv file loaded before configuration")

	root.AddCommand(
		c.roleCmd("run", "Run worker, scheduler and HTTP API", app.RoleWorker, app.RoleScheduler, app.RoleHTTP),
		c.roleCmd("worker", "Run the job worker pool", app.RoleWorker),
		c.roleCmd("scheduler", "Run the periodic job scheduler", app.RoleScheduler),
		c.roleCmd("serve", "Run the ops HTTP API", app.RoleHTTP),
		c.fetchCmd(),
		c.enrichCmd(),
		c.reprocessCmd(),
		c.sweepCmd(),
		c.cleanupCmd(),
		c.migrateCmd(),
	)
	return root
}

func (c *cli) withApp(cmd *cobra.Command, fn func(a *app.Application) error) error {
	a, err := app.New(cmd.Context(), c.cfg, c.logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			c.logger.Warn("close application", "error", err)
		}
	}()
	return fn(a)
}

func (c *cli) roleCmd(use, short string, roles ...app.Role) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd, func(a *app.Application) error {
				return a.Run(cmd.Context(), roles...)
			})
		},
	}
}

func (c *cli) fetchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch [source...]",
		Short: "Fetch sources now (all enabled sources when none given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(a *app.Application) error {
				if len(args) == 0 {
					args = a.Registry.Names()
				}
				counts := a.Fetcher.FetchAll(cmd.Context(), args)
				names := make([]string, 0, len(counts))
				for name := range counts {
					names = append(names, name)
				}
				sort.Strings(names)
				for _, name := range names {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %d new articles\n", name, counts[name])
				}
				return nil
			})
		},
	}
}

func (c *cli) enrichCmd() *cobra.Command {
	var now bool
	cmd := &cobra.Command{
		Use:   "enrich <article-id>",
		Short: "Queue an article for enrichment with high priority",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return c.withApp(cmd, func(a *app.Application) error {
				if !now {
					if err := a.Tasks.Enrich(cmd.Context(), id, domain.QueueHigh); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "article %d queued\n", id)
					return nil
				}
				result, err := a.Orchestrator.Process(cmd.Context(), id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "article %d: %s (summarized=%t classified=%t degraded=%t)\n",
					id, result.State, result.Summarized, result.Classified, result.Degraded)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&now, "now", false, "process inline instead of queueing")
	return cmd
}

func (c *cli) reprocessCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reprocess <article-id>",
		Short: "Clear an article's summary and bias and queue it again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return c.withApp(cmd, func(a *app.Application) error {
				if err := a.Maintenance.Reprocess(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "article %d queued for reprocessing\n", id)
				return nil
			})
		},
	}
}

func (c *cli) sweepCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Queue articles that still lack a summary or bias label",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd, func(a *app.Application) error {
				if limit <= 0 {
					limit = c.cfg.Scheduler.SweepBatch
				}
				queued, err := a.Maintenance.Sweep(cmd.Context(), limit)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d articles queued\n", queued)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum articles to queue (default from config)")
	return cmd
}

func (c *cli) cleanupCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete articles older than the retention window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd, func(a *app.Application) error {
				window := c.cfg.Retention.Window()
				if days > 0 {
					window = time.Duration(days) * 24 * time.Hour
				}
				deleted, err := a.Maintenance.Cleanup(cmd.Context(), window)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d articles deleted\n", deleted)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "retention in days (default from config)")
	return cmd
}

func (c *cli) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create database tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.Migrate(cmd.Context(), c.cfg, c.logger)
		},
	}
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid article id %q", raw)
	}
	return id, nil
}
