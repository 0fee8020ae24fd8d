package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Queryer is the subset of *sql.DB used to run statements. Presto runs
// DDL through Query as well, so there is no separate Exec.
type Queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	Close() error
}

type loggingQueryer struct {
	queryer    Queryer
	logger     log.FieldLogger
	logQueries bool
}

func NewLoggingQueryer(queryer Queryer, logger log.FieldLogger, logQueries bool) *loggingQueryer {
	return &loggingQueryer{
		queryer:    queryer,
		logger:     logger,
		logQueries: logQueries,
	}
}

func (q *loggingQueryer) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	if q.logQueries {
		q.logger.Debugf("QUERY: %s [%s]", query, argsString(args...))
	}
	return q.queryer.QueryContext(ctx, query, args...)
}

func (q *loggingQueryer) Close() error {
	return q.queryer.Close()
}

// argsString pretty prints arguments passed into it for logging query
// arguments
func argsString(args ...interface{}) string {
	var margs string
	for i, a := range args {
		var v interface{} = a
		if x, ok := v.(driver.Valuer); ok {
			if y, err := x.Value(); err == nil {
				v = y
			}
		}
		switch v.(type) {
		case string, []byte:
			v = fmt.Sprintf("%q", v)
		default:
			v = fmt.Sprintf("%v", v)
		}
		margs += fmt.Sprintf("%d:%s", i+1, v)
		if i+1 < len(args) {
			margs += " "
		}
	}
	return margs
}
