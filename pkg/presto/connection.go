package presto

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/prestodb/presto-go-client/presto"
	log "github.com/sirupsen/logrus"
	"k8s.io/apimachinery/pkg/util/wait"
)

// NewPrestoConnWithRetry opens a connection to Presto and waits until it
// answers a trivial query, backing off between attempts.
func NewPrestoConnWithRetry(ctx context.Context, logger log.FieldLogger, connStr string, connBackoff time.Duration, maxRetries int) (*sql.DB, error) {
	db, err := sql.Open("presto", connStr)
	if err != nil {
		return nil, fmt.Errorf("invalid presto connection string: %w", err)
	}
	backoff := wait.Backoff{
		Duration: connBackoff,
		Factor:   1.25,
		Steps:    maxRetries,
	}
	cond := func() (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		if err := ping(ctx, db); err != nil {
			logger.WithError(err).Debugf("error encountered, backing off and trying again: %v", err)
			return false, nil
		}
		return true, nil
	}
	if err := wait.ExponentialBackoff(backoff, cond); err != nil {
		db.Close()
		if err == wait.ErrWaitTimeout {
			return nil, fmt.Errorf("timed out while waiting to connect to presto")
		}
		return nil, err
	}
	return db, nil
}

// ping runs SELECT 1. The presto driver does not implement driver.Pinger.
func ping(ctx context.Context, db *sql.DB) error {
	rows, err := db.QueryContext(ctx, "SELECT 1")
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
	}
	return rows.Err()
}
