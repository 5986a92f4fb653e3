// cmd/pipeline/root.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"member-pipeline/internal/common/config"
	"member-pipeline/internal/common/errors"
	"member-pipeline/internal/common/logger"
	"member-pipeline/internal/common/observability"
	"member-pipeline/internal/pipeline"
	"member-pipeline/internal/pipeline/audit"
	"member-pipeline/internal/pipeline/batch"
	"member-pipeline/pkg/registry"
)

type flags struct {
	configPath    string
	inputDir      string
	successDir    string
	failDir       string
	referenceDate string
	force         bool
}

type cli struct {
	fs    afero.Fs
	out   io.Writer
	log   logger.Logger
	flags flags
}

// RootCmd builds the pipeline command tree. A nil log builds one from the
// loaded logging config.
func RootCmd(fs afero.Fs, out io.Writer, log logger.Logger) *cobra.Command {
	c := &cli{fs: fs, out: out, log: log}

	root := &cobra.Command{
		Use:           "pipeline",
		Short:         "Applicant registration batch pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.flags.configPath, "config", "", "config file (default configs/config.yaml)")
	pf.StringVar(&c.flags.inputDir, "input-dir", "", "directory holding the input batches")
	pf.StringVar(&c.flags.successDir, "success-dir", "", "directory receiving successful_<name> files")
	pf.StringVar(&c.flags.failDir, "fail-dir", "", "directory receiving failed_<name> files")
	pf.StringVar(&c.flags.referenceDate, "reference-date", "", "reference date for age computation, YYYYMMDD")

	root.AddCommand(
		c.processCmd(),
		c.auditCmd(),
		c.runCmd(),
		c.registryCmd(),
	)
	return root
}

func (c *cli) processCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process",
		Short: "Clean, validate and split every input batch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := c.setup()
			if err != nil {
				return err
			}
			defer env.obs.Shutdown()
			res, err := env.process(cmd.Context())
			if err != nil {
				return err
			}
			return c.print(res)
		},
	}
	cmd.Flags().BoolVar(&c.flags.force, "force", false, "reprocess files whose outputs already exist")
	return cmd
}

func (c *cli) auditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "Check that accepted outputs hold only eligible rows and rejected outputs only ineligible ones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := c.setup()
			if err != nil {
				return err
			}
			defer env.obs.Shutdown()
			report, err := env.audit(cmd.Context())
			if report != nil {
				if perr := c.print(report); perr != nil && err == nil {
					err = perr
				}
			}
			return err
		},
	}
}

func (c *cli) runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process every input batch, then audit the outputs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := c.setup()
			if err != nil {
				return err
			}
			defer env.obs.Shutdown()

			res, err := env.process(cmd.Context())
			if err != nil {
				return err
			}
			report, err := env.audit(cmd.Context())
			summary := struct {
				Process *batch.Result `json:"process"`
				Audit   *audit.Report `json:"audit,omitempty"`
			}{Process: res, Audit: report}
			if perr := c.print(summary); perr != nil && err == nil {
				err = perr
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&c.flags.force, "force", false, "reprocess files whose outputs already exist")
	return cmd
}

func (c *cli) registryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Inspect the activity registry",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "validate [path]",
		Short: "Check activity ids, task types, timeouts and schemas",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			} else {
				cfg, err := c.loadConfig()
				if err != nil {
					return err
				}
				path = cfg.Registry.Path
			}

			reg, err := registry.LoadRegistryFs(c.fs, path)
			if err != nil {
				return errors.NewConfigInvalidError(fmt.Sprintf("registry %s", path), err)
			}
			if problems := reg.Validate(); len(problems) > 0 {
				for _, p := range problems {
					fmt.Fprintln(c.out, p)
				}
				return errors.NewConfigInvalidError(
					fmt.Sprintf("registry %s: %s", path, strings.Join(problems, "; ")), nil)
			}
			fmt.Fprintf(c.out, "%s: %d activities ok\n", path, len(reg.Activities))
			return nil
		},
	})
	return cmd
}

type runEnv struct {
	fs       afero.Fs
	settings pipeline.Settings
	observer pipeline.Observer
	obs      *observability.Observability
}

func (e *runEnv) process(ctx context.Context) (*batch.Result, error) {
	return batch.NewProcessor(e.fs, e.settings, e.observer, e.obs).Run(ctx)
}

func (e *runEnv) audit(ctx context.Context) (*audit.Report, error) {
	return audit.NewAuditor(e.fs, e.settings, e.observer, e.obs).Run(ctx)
}

func (c *cli) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if c.flags.configPath != "" {
		cfg, err = config.LoadFromFile(c.flags.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, errors.NewConfigInvalidError("load config", err)
	}
	return cfg, nil
}

// setup resolves settings from the config file and flag overrides.
func (c *cli) setup() (*runEnv, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	if c.flags.referenceDate != "" {
		cfg.Pipeline.ReferenceDate = c.flags.referenceDate
	}
	if c.flags.force {
		cfg.Pipeline.SkipProcessed = false
	}

	settings, err := pipeline.SettingsFromConfig(cfg.Pipeline)
	if err != nil {
		return nil, err
	}
	settings = settings.WithDirs(c.flags.inputDir, c.flags.successDir, c.flags.failDir)
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	log := c.log
	if log == nil {
		log = logger.NewZapAdapter(logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output))
	}

	traceOpts, err := observability.TracingOptions(context.Background(),
		cfg.Tracing.Exporter, cfg.Tracing.Endpoint, cfg.Tracing.Insecure)
	if err != nil {
		return nil, errors.NewConfigInvalidError("tracing", err)
	}

	return &runEnv{
		fs:       c.fs,
		settings: settings,
		observer: pipeline.NewLogObserver(log),
		obs:      observability.New(cfg.App.Name, traceOpts...),
	}, nil
}

func (c *cli) print(v interface{}) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
