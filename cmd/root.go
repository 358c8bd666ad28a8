package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/taskgate/taskgate/internal/engine"
	"github.com/taskgate/taskgate/internal/policy"
	"github.com/taskgate/taskgate/internal/registry"
	"github.com/taskgate/taskgate/internal/telemetry"
	"github.com/taskgate/taskgate/store"
)

var (
	// cfgFile is the path to the configuration file.
	cfgFile string
	// verbose enables verbose output.
	verbose bool
	// version is the application version.
	version = "0.3.0"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "taskgate",
	Short: "taskgate routes free-text tasks to specialist agents",
	Long: `taskgate is a task intake gateway: it takes a plain-language task,
matches it against a catalog of specialist agents, sizes the work, and for
large tasks produces a phased subtask plan with dependencies, risks and
acceptance criteria.`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			_ = cmd.Help()
			os.Exit(0)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(InitConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is $HOME/.taskgate.yaml or ./.taskgate.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// buildEngine loads the catalog named in the config (or the built-in one) and
// returns an engine over it. The returned handle is what a watcher swaps new
// snapshots into.
func buildEngine() (*engine.Engine, *registry.Handle, error) {
	config := GetConfig()
	reg, err := registry.Load(afero.NewOsFs(), config.Registry.File)
	if err != nil {
		return nil, nil, fmt.Errorf("load agent catalog: %w", err)
	}
	h := registry.NewHandle(reg)
	return engine.New(h, config.Engine), h, nil
}

// maybeWatchRegistry starts catalog hot reload when enabled. Returns nil when
// watching is off or the built-in catalog is in use.
func maybeWatchRegistry(h *registry.Handle) (*registry.Watcher, error) {
	config := GetConfig()
	if !config.Registry.Watch || config.Registry.File == "" {
		return nil, nil
	}
	w, err := registry.Watch(h, afero.NewOsFs(), config.Registry.File)
	if err != nil {
		return nil, fmt.Errorf("watch agent catalog: %w", err)
	}
	w.OnError = func(err error) {
		fmt.Fprintf(os.Stderr, "catalog reload failed, keeping previous snapshot: %v\n", err)
	}
	if viper.GetBool("verbose") {
		w.OnReload = func(r *registry.Registry) {
			fmt.Fprintf(os.Stderr, "catalog reloaded from %s (%d agents)\n", r.Source(), r.Len())
		}
	}
	return w, nil
}

// getAnalysisStore opens the SQLite history store at the configured path.
func getAnalysisStore() (store.AnalysisStore, error) {
	config := GetConfig()
	s, err := store.NewSQLiteStore(config.Data.File)
	if err != nil {
		return nil, fmt.Errorf("open history store at %s: %w", config.Data.File, err)
	}
	return s, nil
}

// getPolicyEngine loads routing policies from the configured directory. With
// no directory configured the engine is empty and allows everything.
func getPolicyEngine() (*policy.Engine, error) {
	config := GetConfig()
	eng, err := policy.NewEngine(afero.NewOsFs(), config.Policy.Dir)
	if err != nil {
		return nil, fmt.Errorf("load routing policies: %w", err)
	}
	return eng, nil
}

// getTelemetryClient builds the telemetry client. Anything short of an API
// key plus recorded consent yields a no-op client.
func getTelemetryClient() telemetry.Client {
	config := GetConfig()
	if !config.Telemetry.Enabled || config.Telemetry.APIKey == "" {
		return telemetry.NewNoopClient()
	}
	consent, err := telemetry.LoadConfig()
	if err != nil || !consent.IsEnabled() {
		return telemetry.NewNoopClient()
	}
	client, err := telemetry.NewPostHogClient(telemetry.ClientConfig{
		APIKey:   config.Telemetry.APIKey,
		Version:  version,
		Config:   consent,
		Endpoint: config.Telemetry.Endpoint,
	})
	if err != nil {
		return telemetry.NewNoopClient()
	}
	return client
}
