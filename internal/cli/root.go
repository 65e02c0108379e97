package cli

import (
	"github.com/spf13/cobra"

	"github.com/shaiso/Evalflow/internal/config"
	"github.com/shaiso/Evalflow/internal/telemetry"
)

// NewRootCmd собирает команду evalflow со всеми подкомандами.
//
// Конфигурация загружается в PersistentPreRunE: .env, затем
// --config (YAML), затем EVALFLOW_*; флаги командной строки
// перекрывают всё.
func NewRootCmd(version string) *cobra.Command {
	var (
		configPath string
		envFile    string
		apiURL     string
		jsonOutput bool
		logLevel   string
		logFormat  string
	)

	env := &Env{}

	root := &cobra.Command{
		Use:           "evalflow",
		Short:         "Evalflow: dependency-aware step scheduler for ML pipelines",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadEnvFile(envFile); err != nil {
				return err
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("api-url") {
				cfg.APIURL = apiURL
			}
			if flags.Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			if flags.Changed("log-format") {
				cfg.LogFormat = logFormat
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			env.Config = cfg
			env.Logger = telemetry.Setup(cfg.LogLevel, cfg.LogFormat)
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "Config file (YAML)")
	pf.StringVar(&envFile, "env-file", ".env", "Load environment variables from this file if it exists")
	pf.StringVar(&apiURL, "api-url", "", "API server URL (default from config, http://localhost:8080)")
	pf.BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	pf.StringVar(&logLevel, "log-level", "", "Log level: DEBUG, INFO, WARN, ERROR")
	pf.StringVar(&logFormat, "log-format", "", "Log format: text or json")

	envFn := func() *Env { return env }
	clientFn := func() *Client { return NewClient(env.Config.APIURL) }
	outputFn := func() *Output { return NewOutputTo(jsonOutput, root.OutOrStdout(), root.ErrOrStderr()) }

	root.AddCommand(
		NewRunCmd(envFn, outputFn),
		NewValidateCmd(envFn, outputFn),
		NewGraphCmd(envFn, outputFn),
		NewScheduleCmd(envFn, outputFn),
		NewWatchCmd(envFn, outputFn),
		NewJobCmd(clientFn, outputFn),
	)

	return root
}
