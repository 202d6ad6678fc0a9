package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/joshharrison/critpath/internal/config"
	"github.com/joshharrison/critpath/internal/cpm"
	"github.com/joshharrison/critpath/internal/graph"
	"github.com/joshharrison/critpath/internal/logging"
	"github.com/joshharrison/critpath/internal/metrics"
	"github.com/joshharrison/critpath/internal/project"
	"github.com/joshharrison/critpath/internal/reporter"
	"github.com/joshharrison/critpath/internal/server"
	"github.com/joshharrison/critpath/internal/ui"
)

type globalFlags struct {
	configPath string
	logLevel   string
	noColor    bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var flags globalFlags
	var cfg config.Config

	rootCmd := &cobra.Command{
		Use:   "critpath",
		Short: "Compute critical path schedules for project activity tables",
		Long: `Critpath reads a table of activities with durations and precedence
constraints, computes earliest and latest start and finish times for every
activity, and reports the project duration and its critical path.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(flags.configPath)
			if err != nil {
				return err
			}
			if flags.logLevel != "" {
				loaded.Log.Level = flags.logLevel
			}
			if flags.noColor {
				loaded.Color = false
			}

			logger, err := logging.New(loaded.Log)
			if err != nil {
				return err
			}
			ui.SetColor(loaded.Color)

			cfg = *loaded
			cmd.SetContext(logging.WithLogger(cmd.Context(), logger))
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "Config file path (default ./"+config.DefaultPath+" if present)")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&flags.noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(scheduleCmd(&cfg))
	rootCmd.AddCommand(vizCmd(&cfg))
	rootCmd.AddCommand(sampleCmd())
	rootCmd.AddCommand(serveCmd(&cfg))

	return rootCmd
}

func scheduleCmd(cfg *config.Config) *cobra.Command {
	var flagFormat string
	var flagStrict bool

	cmd := &cobra.Command{
		Use:   "schedule [files...]",
		Short: "Schedule one or more project files (the sample project when none given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			format := cfg.Format
			if cmd.Flags().Changed("format") {
				format = flagFormat
			}
			strict := cfg.Strict || flagStrict

			reports, err := scheduleAll(cmd.Context(), args, strict)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			for i, rpt := range reports {
				switch format {
				case "json":
					data, err := rpt.JSON()
					if err != nil {
						return err
					}
					fmt.Fprintln(w, string(data))
				case "table":
					if i > 0 {
						fmt.Fprintln(w)
					}
					rpt.PrintTable(w)
				default:
					return fmt.Errorf("unknown format %q (want table or json)", format)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&flagFormat, "format", "table", "Output format (table, json)")
	cmd.Flags().BoolVar(&flagStrict, "strict", false, "Reject dangling references, duplicate ids and negative durations")

	return cmd
}

func vizCmd(cfg *config.Config) *cobra.Command {
	var flagFormat string

	cmd := &cobra.Command{
		Use:   "viz [file]",
		Short: "Print the activity graph as ASCII waves or Graphviz DOT",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reports, err := scheduleAll(cmd.Context(), args, cfg.Strict)
			if err != nil {
				return err
			}

			switch flagFormat {
			case "dot":
				reports[0].PrintDOT(cmd.OutOrStdout())
			case "ascii":
				reports[0].PrintASCII(cmd.OutOrStdout())
			default:
				return fmt.Errorf("unknown format %q (want ascii or dot)", flagFormat)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&flagFormat, "format", "ascii", "Output format (ascii, dot)")

	return cmd
}

func sampleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sample",
		Short: "Print the built-in sample project as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := project.EncodeYAML(project.Sample())
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func serveCmd(cfg *config.Config) *cobra.Command {
	var flagAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the scheduling API and Prometheus metrics over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr := cfg.Serve.Addr
			if cmd.Flags().Changed("addr") {
				addr = flagAddr
			}

			rec, err := metrics.New()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv := server.New(rec,
				server.WithListenAddr(addr),
				server.WithLogger(logging.FromContext(ctx)),
				server.WithStrict(cfg.Strict),
				server.WithMaxBodyBytes(cfg.Serve.MaxBodyBytes),
				server.WithShutdownTimeout(cfg.Serve.ShutdownTimeout),
			)
			fmt.Fprintf(cmd.ErrOrStderr(), "🌐 critpath listening on %s\n", ui.Bold(addr))
			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&flagAddr, "addr", ":8080", "Listen address")

	return cmd
}

// scheduleAll loads and schedules each path concurrently, returning reports
// in argument order. With no paths the sample project is scheduled.
func scheduleAll(ctx context.Context, paths []string, strict bool) ([]*reporter.Reporter, error) {
	logger := logging.FromContext(ctx)

	var opts []graph.Option
	if strict {
		opts = append(opts, graph.Strict())
	}

	if len(paths) == 0 {
		p := project.Sample()
		rpt, err := schedule(p, opts)
		if err != nil {
			return nil, err
		}
		return []*reporter.Reporter{rpt}, nil
	}

	reports := make([]*reporter.Reporter, len(paths))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, path := range paths {
		eg.Go(func() error {
			p, err := project.Load(egCtx, path)
			if err != nil {
				return err
			}
			rpt, err := schedule(p, opts)
			if err != nil {
				return err
			}
			reports[i] = rpt
			logger.Debug("scheduled project", "path", path, "duration", rpt.Result.ProjectDuration)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

func schedule(p *project.Project, opts []graph.Option) (*reporter.Reporter, error) {
	g, result, err := cpm.Compute(p.Rows, opts...)
	if err != nil {
		return nil, fmt.Errorf("project %s: %w", p.Name, err)
	}
	return reporter.New(p.Name, g, result), nil
}
