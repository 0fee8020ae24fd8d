package explorer

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kube-reporting/cost-explorer/pkg/engine"
	"github.com/kube-reporting/cost-explorer/pkg/provision"
	"github.com/kube-reporting/cost-explorer/pkg/targets"
)

func TestConfigValid(t *testing.T) {
	tests := map[string]struct {
		cfg         Config
		expectedErr string
	}{
		"defaults": {},
		"presto without host": {
			cfg:         Config{Engine: EnginePresto},
			expectedErr: "must set the presto host when using the presto engine",
		},
		"unknown engine": {
			cfg:         Config{Engine: "bigquery"},
			expectedErr: `unknown engine "bigquery", must be one of: athena, presto`,
		},
		"tls without key": {
			cfg:         Config{APITLSConfig: TLSConfig{UseTLS: true, TLSCert: "cert.pem"}},
			expectedErr: "must set TLS private key if TLS is enabled",
		},
	}

	for testName, tt := range tests {
		testName := testName
		tt := tt
		t.Run(testName, func(t *testing.T) {
			tt.cfg.setDefaults()
			err := tt.cfg.Valid()
			if tt.expectedErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.expectedErr)
		})
	}
}

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.setDefaults()
	assert.Equal(t, EngineAthena, cfg.Engine)
	assert.Equal(t, provision.DefaultDatabase, cfg.Database)
	assert.Equal(t, targets.DefaultStorageKey, cfg.StorageKey)
	assert.Equal(t, engine.DefaultPolicy(), cfg.Poll)
	assert.Equal(t, DefaultAPIAddress, cfg.APIAddress)
}

func TestNewWithSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store", "targets.db")
	e, err := New(context.Background(), testLogger, Config{StorePath: path})
	require.NoError(t, err)
	defer e.Close()

	list, err := e.Service().ListTargets(context.Background(), "p1")
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.NoError(t, e.Service().Ready(context.Background()))
}

func TestRun(t *testing.T) {
	t.Run("stops when the context is cancelled", func(t *testing.T) {
		e, err := New(context.Background(), testLogger, Config{
			APIAddress:      "127.0.0.1:0",
			MetricsAddress:  "127.0.0.1:0",
			PprofAddress:    "127.0.0.1:0",
			RefreshSchedule: "@every 1h",
		})
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		assert.NoError(t, e.Run(ctx))
	})

	t.Run("invalid refresh schedule", func(t *testing.T) {
		e, err := New(context.Background(), testLogger, Config{RefreshSchedule: "every tuesday"})
		require.NoError(t, err)
		assert.Error(t, e.Run(context.Background()))
	})
}
