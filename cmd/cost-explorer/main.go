package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/davecgh/go-spew/spew"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kube-reporting/cost-explorer/pkg/engine"
	"github.com/kube-reporting/cost-explorer/pkg/explorer"
)

const envPrefix = "COST_EXPLORER"

var (
	// cfg is populated by the flags shared by every command.
	cfg          explorer.Config
	configFile   string
	timezone     string
	columnNames  map[string]string
	pollInterval time.Duration
	pollMaxWait  time.Duration
	pollAttempts int

	logLevelStr         string
	logFullTimestamp    bool
	logDisableTimestamp bool
)

var rootCmd = &cobra.Command{
	Use:               "cost-explorer",
	Short:             "explores AWS cost and usage reports through Athena or Presto",
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

func init() {
	fs := rootCmd.PersistentFlags()
	fs.StringVar(&configFile, "config", "", "path to a YAML file of flag values, used for flags not set on the command line or environment")
	fs.StringVar(&logLevelStr, "log-level", log.InfoLevel.String(), "log level")
	fs.BoolVar(&logFullTimestamp, "log-timestamp", true, "log full timestamp if true, otherwise log time since startup")
	fs.BoolVar(&logDisableTimestamp, "disable-timestamp", false, "disable timestamp logging")

	fs.StringVar(&cfg.Engine, "engine", explorer.EngineAthena, "the query engine to provision and query targets with, one of: athena, presto")
	fs.StringVar(&cfg.AthenaWorkGroup, "athena-workgroup", "", "the Athena workgroup queries are submitted to")
	fs.StringVar(&cfg.AWSEndpoint, "aws-endpoint", "", "overrides the AWS service endpoint, for S3 and Athena compatible services")
	fs.BoolVar(&cfg.CheckLocations, "check-locations", true, "if true, S3 locations of a target are checked before its table is provisioned")
	fs.StringVar(&cfg.PrestoHost, "presto-host", "", "the hostname:port for connecting to Presto")
	fs.StringVar(&cfg.PrestoUser, "presto-user", "", "the user to connect to Presto as")

	fs.StringVar(&cfg.StorePath, "store-path", "", "path of the SQLite credential store, if empty targets are kept in memory")
	fs.StringVar(&cfg.StorageKey, "storage-key", "", "the key targets are stored under in the credential store")

	fs.StringVar(&cfg.Database, "database", "", "the database holding the billing tables")
	fs.BoolVar(&cfg.LogQueries, "log-queries", false, "if true, every query submitted to the engine is logged")
	fs.DurationVar(&pollInterval, "poll-interval", engine.DefaultPolicy().Interval, "how often the status of a running query is checked")
	fs.DurationVar(&pollMaxWait, "max-wait", engine.DefaultPolicy().MaxWait, "how long to wait for a query to finish, zero waits forever")
	fs.IntVar(&pollAttempts, "max-attempts", engine.DefaultPolicy().MaxAttempts, "the maximum number of status checks per query, zero means no limit")
	fs.IntVar(&cfg.QueryLimit, "query-limit", 0, "the maximum number of billing rows fetched, zero means no limit")
	fs.DurationVar(&cfg.Lookback, "lookback", 0, "only query billing records that ended within this long ago, zero queries everything")
	fs.StringToStringVar(&columnNames, "column-names", nil, "overrides the result column read for a record field, e.g. effectiveCost=cost")
	fs.StringVar(&timezone, "timezone", "", "the time zone costs are grouped by day in, defaults to UTC")

	rootCmd.AddCommand(startCmd, targetsCmd, queryCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig fills unset flags from the environment and then the config
// file, and resolves the values that are not plain flags.
func loadConfig(cmd *cobra.Command, _ []string) error {
	fs := cmd.Flags()
	if err := SetFlagsFromEnv(fs, envPrefix); err != nil {
		return fmt.Errorf("error setting flags from environment variables: %v", err)
	}
	if configFile != "" {
		if err := SetFlagsFromConfigFile(fs, configFile); err != nil {
			return fmt.Errorf("error setting flags from config file: %v", err)
		}
	}

	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:    logFullTimestamp,
		DisableTimestamp: logDisableTimestamp,
	})

	if timezone == "" {
		time.Local = time.UTC
		cfg.Location = time.UTC
	} else {
		loc, err := time.LoadLocation(timezone)
		if err != nil {
			return fmt.Errorf("invalid --timezone %q: %v", timezone, err)
		}
		cfg.Location = loc
	}

	policy := engine.DefaultPolicy()
	policy.Interval = pollInterval
	policy.MaxWait = pollMaxWait
	policy.MaxAttempts = pollAttempts
	cfg.Poll = policy

	mapping, err := columnMapping(columnNames)
	if err != nil {
		return err
	}
	cfg.ColumnNames = mapping
	return nil
}

func newLogger() log.FieldLogger {
	logger := log.WithFields(log.Fields{
		"app": "cost-explorer",
	})
	logLevel, err := log.ParseLevel(logLevelStr)
	if err != nil {
		logger.WithError(err).Fatalf("invalid log level: %s", logLevelStr)
	}
	logger.Logger.Level = logLevel
	logger.Debugf("config: %s", spew.Sprintf("%+v", cfg))
	return logger
}

func setupSignals() context.Context {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sig := <-sigs
		log.Infof("got signal %s, performing shutdown", sig)
		cancel()
	}()
	return ctx
}
