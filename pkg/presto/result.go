package presto

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/kube-reporting/cost-explorer/pkg/db"
	"github.com/kube-reporting/cost-explorer/pkg/engine"
)

// TimestampFormat is the time format string used to produce Presto timestamps.
const TimestampFormat = "2006-01-02 15:04:05.000"

// ExecuteSelect runs query and returns its rows as text cells, with the
// column names as the first row.
func ExecuteSelect(ctx context.Context, queryer db.Queryer, query string) (*engine.ResultSet, error) {
	rows, err := queryer.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	header := make([]engine.Cell, len(cols))
	for i, name := range cols {
		header[i] = engine.NewCell(name)
	}
	rs := &engine.ResultSet{Rows: [][]engine.Cell{header}}

	for rows.Next() {
		columns := make([]interface{}, len(cols))
		columnPointers := make([]interface{}, len(cols))
		for i := range columns {
			columnPointers[i] = &columns[i]
		}
		if err := rows.Scan(columnPointers...); err != nil {
			return nil, err
		}

		row := make([]engine.Cell, len(cols))
		for i, v := range columns {
			if row[i], err = toCell(v); err != nil {
				return nil, fmt.Errorf("column %s: %w", cols[i], err)
			}
		}
		rs.Rows = append(rs.Rows, row)
	}
	// Query only submits the statement; failures surface through Next.
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("presto SQL error: %w", err)
	}
	return rs, nil
}

func toCell(v interface{}) (engine.Cell, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		return engine.NewCell(val), nil
	case []byte:
		return engine.NewCell(string(val)), nil
	case time.Time:
		return engine.NewCell(val.UTC().Format(TimestampFormat)), nil
	case map[string]interface{}, []interface{}:
		b, err := json.Marshal(val)
		if err != nil {
			return nil, err
		}
		return engine.NewCell(string(b)), nil
	default:
		return engine.NewCell(fmt.Sprint(val)), nil
	}
}
