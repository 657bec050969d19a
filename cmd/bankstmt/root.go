package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/rumor-ml/commons.systems/bankstmt/internal/config"
	"github.com/rumor-ml/commons.systems/bankstmt/internal/logging"
	"github.com/rumor-ml/commons.systems/bankstmt/internal/parser"
	"github.com/rumor-ml/commons.systems/bankstmt/internal/pipeline"
	"github.com/rumor-ml/commons.systems/bankstmt/internal/registry"
	"github.com/rumor-ml/commons.systems/bankstmt/internal/rules"
	"github.com/rumor-ml/commons.systems/bankstmt/internal/tabular"
	"github.com/rumor-ml/commons.systems/bankstmt/internal/transform"
)

// app carries the state shared by every subcommand once configuration is loaded
type app struct {
	v       *viper.Viper
	cfgFile string
	verbose bool

	cfg    *config.Config
	logger *logrus.Logger
}

// flagKeys maps command-line flags to configuration keys
var flagKeys = map[string]string{
	"header-fallback": "header.fallback",
	"scan-window":     "header.scan_window",
	"rules":           "rules.file",
	"concurrency":     "parse.concurrency",
	"format":          "output.format",
	"log-format":      "log.format",
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.New()}

	root := &cobra.Command{
		Use:   "bankstmt",
		Short: "Korean bank statement parser",
		Long: `bankstmt converts transaction history exports from 하나은행, NH농협은행 and
전북은행 (xlsx, xls or csv) into one canonical transaction format.

Examples:
  bankstmt parse 하나은행_거래내역.xlsx
  bankstmt parse --dir ~/statements --format csv -o transactions.csv
  bankstmt parse jeonbuk.xlsx --account 501-12-345678 --format ofx
  bankstmt stats ~/statements/nonghyup.xls
  bankstmt rules test "월급 급여" --deposit 3000000`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (yaml, json or toml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")
	root.PersistentFlags().String("log-format", "", "log format: text or json")

	root.AddCommand(
		newParseCmd(a),
		newDetectCmd(a),
		newStatsCmd(a),
		newRulesCmd(a),
		newVersionCmd(),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if key, ok := flagKeys[f.Name]; ok && bindErr == nil {
			bindErr = a.v.BindPFlag(key, f)
		}
	})
	if bindErr != nil {
		return fmt.Errorf("failed to bind flags: %w", bindErr)
	}

	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	if a.verbose {
		cfg.Log.Level = "debug"
	}

	logCfg := cfg.Logging()
	logCfg.Output = cmd.ErrOrStderr()
	logger, err := logging.New(logCfg)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	if f := a.v.ConfigFileUsed(); f != "" {
		logger.WithField("file", f).Debug("using config file")
	}
	return nil
}

// rulesEngine loads the configured rule table
func (a *app) rulesEngine() (*rules.Engine, error) {
	engine, err := rules.Load(a.cfg.Rules.File)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}
	return engine, nil
}

// pipeline wires reader, normalizer, parsers and the facade from configuration
func (a *app) pipeline() (*pipeline.Pipeline, error) {
	engine, err := a.rulesEngine()
	if err != nil {
		return nil, err
	}
	base, err := parser.NewBase(tabular.NewAutoReader(), transform.NewNormalizer(engine), a.cfg.ParserOptions(), a.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create parser: %w", err)
	}
	reg, err := registry.New(base)
	if err != nil {
		return nil, fmt.Errorf("failed to create parser registry: %w", err)
	}
	a.logger.WithField("parsers", reg.ListParsers()).Debug("registered parsers")
	return pipeline.New(reg, a.logger)
}
