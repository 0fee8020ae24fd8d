package main

import (
	"context"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kube-reporting/cost-explorer/pkg/explorer"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "starts the cost explorer HTTP API",
	Args:  cobra.NoArgs,
	Run:   startExplorer,
}

func init() {
	startCmd.Flags().StringVar(&cfg.RefreshSchedule, "refresh-schedule", "", "a cron schedule, e.g. \"@every 1h\", on which the selected target is reloaded. If empty the target is only loaded when selected")

	startCmd.Flags().StringVar(&cfg.APIAddress, "api-address", explorer.DefaultAPIAddress, "the address the HTTP API listens on")
	startCmd.Flags().StringVar(&cfg.MetricsAddress, "metrics-address", explorer.DefaultMetricsAddress, "the address Prometheus metrics are served on")
	startCmd.Flags().StringVar(&cfg.PprofAddress, "pprof-address", explorer.DefaultPprofAddress, "the address pprof profiles are served on")

	startCmd.Flags().BoolVar(&cfg.APITLSConfig.UseTLS, "use-tls", false, "If true, uses TLS to secure HTTP API traffic")
	startCmd.Flags().StringVar(&cfg.APITLSConfig.TLSCert, "tls-cert", "", "If use-tls is true, specifies the path to the TLS certificate.")
	startCmd.Flags().StringVar(&cfg.APITLSConfig.TLSKey, "tls-key", "", "If use-tls is true, specifies the path to the TLS private key.")

	startCmd.Flags().BoolVar(&cfg.MetricsTLSConfig.UseTLS, "metrics-use-tls", false, "If true, uses TLS to secure Prometheus Metrics endpoint traffic")
	startCmd.Flags().StringVar(&cfg.MetricsTLSConfig.TLSCert, "metrics-tls-cert", "", "If metrics-use-tls is true, specifies the path to the TLS certificate to use for the Metrics endpoint.")
	startCmd.Flags().StringVar(&cfg.MetricsTLSConfig.TLSKey, "metrics-tls-key", "", "If metrics-use-tls is true, specifies the path to the TLS private key to use for the Metrics endpoint.")
}

func startExplorer(cmd *cobra.Command, args []string) {
	logger := newLogger()
	runExplorer(setupSignals(), logger, cfg)
}

func runExplorer(ctx context.Context, logger log.FieldLogger, cfg explorer.Config) {
	e, err := explorer.New(ctx, logger, cfg)
	if err != nil {
		logger.WithError(err).Fatal("unable to setup cost explorer")
	}
	if err = e.Run(ctx); err != nil {
		logger.WithError(err).Fatal("error occurred while the cost explorer was running")
	}
}
