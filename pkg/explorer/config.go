package explorer

import (
	"fmt"
	"time"

	"github.com/kube-reporting/cost-explorer/pkg/billing"
	"github.com/kube-reporting/cost-explorer/pkg/engine"
	"github.com/kube-reporting/cost-explorer/pkg/pipeline"
	"github.com/kube-reporting/cost-explorer/pkg/provision"
	"github.com/kube-reporting/cost-explorer/pkg/targets"
)

const (
	EngineAthena = "athena"
	EnginePresto = "presto"

	DefaultAPIAddress     = ":8080"
	DefaultMetricsAddress = ":8082"
	DefaultPprofAddress   = "127.0.0.1:6060"

	defaultPrestoUser = "cost-explorer"
	connBackoff       = time.Second * 15
	maxConnRetries    = 3
)

type TLSConfig struct {
	UseTLS  bool
	TLSCert string
	TLSKey  string
}

func (cfg *TLSConfig) Valid() error {
	if cfg.UseTLS {
		if cfg.TLSCert == "" {
			return fmt.Errorf("must set TLS certificate if TLS is enabled")
		}
		if cfg.TLSKey == "" {
			return fmt.Errorf("must set TLS private key if TLS is enabled")
		}
	}
	return nil
}

type Config struct {
	// Engine is the query engine targets are provisioned and queried with,
	// athena or presto.
	Engine string

	AthenaWorkGroup string
	// AWSEndpoint overrides the AWS service endpoints.
	AWSEndpoint string
	// CheckLocations verifies S3 locations before provisioning.
	CheckLocations bool

	PrestoHost string
	PrestoUser string

	// StorePath is the SQLite file holding the credential store. Empty
	// keeps credentials in memory.
	StorePath  string
	StorageKey string

	Database    string
	LogQueries  bool
	Poll        engine.Policy
	QueryLimit  int
	Lookback    time.Duration
	ColumnNames billing.ColumnMapping

	// RefreshSchedule re-runs the pipeline of the selected target on a
	// cron schedule. Empty disables refreshing.
	RefreshSchedule string
	Location        *time.Location

	APIAddress       string
	MetricsAddress   string
	PprofAddress     string
	APITLSConfig     TLSConfig
	MetricsTLSConfig TLSConfig
}

func (cfg *Config) setDefaults() {
	if cfg.Engine == "" {
		cfg.Engine = EngineAthena
	}
	if cfg.PrestoUser == "" {
		cfg.PrestoUser = defaultPrestoUser
	}
	if cfg.StorageKey == "" {
		cfg.StorageKey = targets.DefaultStorageKey
	}
	if cfg.Database == "" {
		cfg.Database = provision.DefaultDatabase
	}
	if cfg.Poll == (engine.Policy{}) {
		cfg.Poll = engine.DefaultPolicy()
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.APIAddress == "" {
		cfg.APIAddress = DefaultAPIAddress
	}
	if cfg.MetricsAddress == "" {
		cfg.MetricsAddress = DefaultMetricsAddress
	}
	if cfg.PprofAddress == "" {
		cfg.PprofAddress = DefaultPprofAddress
	}
}

// Valid checks the configuration after defaults are applied.
func (cfg *Config) Valid() error {
	switch cfg.Engine {
	case EngineAthena:
	case EnginePresto:
		if cfg.PrestoHost == "" {
			return fmt.Errorf("must set the presto host when using the presto engine")
		}
	default:
		return fmt.Errorf("unknown engine %q, must be one of: %s, %s", cfg.Engine, EngineAthena, EnginePresto)
	}
	if err := cfg.APITLSConfig.Valid(); err != nil {
		return err
	}
	return cfg.MetricsTLSConfig.Valid()
}

func (cfg *Config) pipelineConfig() pipeline.Config {
	return pipeline.Config{
		Database: cfg.Database,
		Columns:  cfg.ColumnNames,
		Lookback: cfg.Lookback,
		Limit:    cfg.QueryLimit,
	}
}
