package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"assaymerge/internal/app"
	"assaymerge/internal/config"
	"assaymerge/internal/dataprocessing"
	"assaymerge/internal/files"
	"assaymerge/internal/infrastructure"
	"assaymerge/internal/services"
	"assaymerge/pkg/contracts"
	"assaymerge/pkg/contracts/domain"
)

// cli carries what every subcommand needs after the root pre-run
type cli struct {
	configFile string
	envFile    string

	config *config.Config
	logger *slog.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		infrastructure.CloseLogFile()
		os.Exit(1)
	}
	infrastructure.CloseLogFile()
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	rootCmd := &cobra.Command{
		Use:           "assaymerge",
		Short:         "Merge movement, turning and rotation exports into one annotated table",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup()
		},
	}

	rootCmd.PersistentFlags().StringVar(&c.configFile, "config", "", "config file (default: ASSAY_CONFIG_FILE or ./assaymerge.yaml)")
	rootCmd.PersistentFlags().StringVar(&c.envFile, "env-file", ".env", "dotenv file loaded before the environment is read")

	rootCmd.AddCommand(
		newMergeCmd(c),
		newServeCmd(c),
		newVersionCmd(),
	)

	return rootCmd
}

// setup loads .env, the configuration and the logger
func (c *cli) setup() error {
	if c.envFile != "" {
		if err := godotenv.Load(c.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", c.envFile, err)
		}
	}

	var (
		cfg *config.Config
		err error
	)
	if c.configFile != "" {
		cfg, err = config.LoadFrom(c.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	c.config = cfg
	c.logger = logger
	return nil
}

type mergeOptions struct {
	movement string
	turning  string
	rotation string
	dir      string
	sheet    string
	output   string

	paramsFile     string
	exposureTime   string
	compound       string
	concentrations map[string]string
}

func newMergeCmd(c *cli) *cobra.Command {
	opts := &mergeOptions{}

	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Merge the three exports of one experiment into a CSV file",
		Example: `  assaymerge merge --dir ./exports --exposure-time 24h --compound X \
    --concentration B=1uM,C=10uM,D=100uM,E=1mM,F=10mM
  assaymerge merge --movement m.xlsx --turning t.xlsx --rotation r.xlsx --params params.yaml -o -`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMerge(cmd.Context(), c, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.movement, "movement", "", "movement table (.csv or .xlsx)")
	flags.StringVar(&opts.turning, "turning", "", "turning table (.csv or .xlsx)")
	flags.StringVar(&opts.rotation, "rotation", "", "rotation table (.csv or .xlsx)")
	flags.StringVar(&opts.dir, "dir", "", "directory to discover the three tables in by file name")
	flags.StringVar(&opts.sheet, "sheet", "", "worksheet to read from workbooks (default: first sheet)")
	flags.StringVarP(&opts.output, "output", "o", "", `output CSV file, "-" for stdout (default from config)`)
	flags.StringVar(&opts.paramsFile, "params", "", "YAML file with exposure_time, compound and concentrations")
	flags.StringVar(&opts.exposureTime, "exposure-time", "", "exposure time annotation")
	flags.StringVar(&opts.compound, "compound", "", "compound annotation for test wells")
	flags.StringToStringVar(&opts.concentrations, "concentration", nil, "concentration per well letter, e.g. B=1uM,C=10uM")

	return cmd
}

func runMerge(ctx context.Context, c *cli, opts *mergeOptions, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	params, err := loadParameters(opts)
	if err != nil {
		return err
	}

	merger := dataprocessing.NewMerger(c.logger, dataprocessing.MergerConfig{
		ParallelExtraction: c.config.Merge.ParallelExtraction,
		CheckRowOrder:      c.config.Merge.CheckRowOrder,
	})
	service := services.NewMergeService(merger, c.config.Merge, c.logger)

	sources, err := resolveSources(service, opts)
	if err != nil {
		return err
	}

	result, written, err := service.MergeToFile(ctx, services.MergeRequest{
		Sources:    sources,
		Sheet:      opts.sheet,
		Parameters: params,
	}, opts.output, stdout)
	if err != nil {
		return err
	}

	printReport(stderr, result.Report, written)
	return nil
}

// loadParameters reads the params file, if any, and lets flags override it
func loadParameters(opts *mergeOptions) (domain.ExperimentParameters, error) {
	var fromFile domain.ExperimentParameters
	if opts.paramsFile != "" {
		data, err := os.ReadFile(opts.paramsFile)
		if err != nil {
			return domain.ExperimentParameters{}, fmt.Errorf("failed to read parameters: %w", err)
		}
		if err := yaml.Unmarshal(data, &fromFile); err != nil {
			return domain.ExperimentParameters{}, fmt.Errorf("failed to parse parameters %s: %w", opts.paramsFile, err)
		}
	}

	exposureTime := fromFile.ExposureTime
	if opts.exposureTime != "" {
		exposureTime = opts.exposureTime
	}
	compound := fromFile.Compound
	if opts.compound != "" {
		compound = opts.compound
	}

	concentrations := domain.NormalizeConcentrations(fromFile.Concentrations)
	maps.Copy(concentrations, domain.NormalizeConcentrations(opts.concentrations))

	return domain.NewExperimentParameters(exposureTime, compound, concentrations), nil
}

// resolveSources starts from directory discovery and applies explicit paths
// on top. Missing tables are reported by the service.
func resolveSources(service *services.MergeService, opts *mergeOptions) (files.SourceFiles, error) {
	var sources files.SourceFiles
	if opts.dir != "" {
		discovered, err := service.DiscoverSources(opts.dir)
		if err != nil {
			return files.SourceFiles{}, err
		}
		sources = discovered
	}

	if opts.movement != "" {
		sources.Movement = opts.movement
	}
	if opts.turning != "" {
		sources.Turning = opts.turning
	}
	if opts.rotation != "" {
		sources.Rotation = opts.rotation
	}
	return sources, nil
}

func printReport(w io.Writer, report domain.MergeReport, written string) {
	for _, warning := range report.Warnings {
		fmt.Fprintf(w, "warning: %s: %s\n", warning.Code, warning.Message)
	}
	if written == "-" {
		fmt.Fprintf(w, "merged %d rows (run %s)\n", report.Joined, report.RunID)
		return
	}
	fmt.Fprintf(w, "merged %d rows into %s (run %s)\n", report.Joined, written, report.RunID)
}

func newServeCmd(c *cli) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the merge API over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				c.config.Server.Port = port
			}

			application, err := app.NewApplication(c.config, c.logger)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return application.Run(ctx)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (default from config)")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		// Printing the version needs no configuration
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), contracts.GetFullVersionString())
		},
	}
}
