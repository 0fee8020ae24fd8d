package billing

import (
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"

	"github.com/kube-reporting/cost-explorer/pkg/engine"
)

// Diagnostics summarises cells that could not be decoded while
// materializing a result set. Degraded cells are kept as raw text.
type Diagnostics struct {
	Rows             int            `json:"rows"`
	DegradedRows     int            `json:"degradedRows"`
	DegradedCells    int            `json:"degradedCells"`
	DegradedByColumn map[string]int `json:"degradedByColumn,omitempty"`
}

func (d Diagnostics) Degraded() bool {
	return d.DegradedCells > 0
}

func (d Diagnostics) String() string {
	return fmt.Sprintf("%d of %d rows had malformed cells", d.DegradedRows, d.Rows)
}

func (d *Diagnostics) degrade(column string) {
	d.DegradedCells++
	if d.DegradedByColumn == nil {
		d.DegradedByColumn = make(map[string]int)
	}
	d.DegradedByColumn[column]++
	cellsDegradedCounter.WithLabelValues(column).Inc()
}

// Materializer converts raw result sets into Records.
type Materializer struct {
	mapping ColumnMapping
	logger  log.FieldLogger
}

func NewMaterializer(logger log.FieldLogger, mapping ColumnMapping) *Materializer {
	return &Materializer{
		mapping: mapping.WithDefaults(),
		logger:  logger.WithField("component", "materializer"),
	}
}

// columnIndex resolves the mapped column names against a header row.
type columnIndex map[string]int

func newColumnIndex(header []string) columnIndex {
	idx := make(columnIndex, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, exists := idx[key]; !exists {
			idx[key] = i
		}
	}
	return idx
}

// cell returns the cell of row for column, or nil when the column is
// absent from the header or the row is short.
func (idx columnIndex) cell(row []engine.Cell, column string) engine.Cell {
	i, ok := idx[strings.ToLower(column)]
	if !ok || i >= len(row) {
		return nil
	}
	return row[i]
}

// Materialize decodes every data row of rs. Row 0 is the header. A cell
// that fails its type-specific decoding degrades to its raw text and is
// counted in the returned Diagnostics; Materialize itself never fails.
func (m *Materializer) Materialize(rs *engine.ResultSet) ([]Record, Diagnostics) {
	var diag Diagnostics
	idx := newColumnIndex(rs.Header())
	rows := rs.DataRows()
	records := make([]Record, 0, len(rows))

	costColumns := []string{m.mapping.EffectiveCost, m.mapping.ReservationCost, m.mapping.SavingsPlanCost, m.mapping.UnblendedCost}

	for rowNum, row := range rows {
		degradedBefore := diag.DegradedCells
		logger := m.logger.WithField("row", rowNum+1)

		rec := Record{
			Account:       copyText(idx.cell(row, m.mapping.Account)),
			ProductFamily: copyText(idx.cell(row, m.mapping.ProductFamily)),
			Region:        copyText(idx.cell(row, m.mapping.Region)),
			ResourceID:    copyText(idx.cell(row, m.mapping.ResourceID)),
			Operation:     copyText(idx.cell(row, m.mapping.Operation)),
			StartDate:     copyText(idx.cell(row, m.mapping.StartDate)),
			EndDate:       copyText(idx.cell(row, m.mapping.EndDate)),
		}
		rec.Product = m.decodeNested(logger, &diag, m.mapping.Product, idx.cell(row, m.mapping.Product))
		rec.ResourceTags = m.decodeNested(logger, &diag, m.mapping.ResourceTags, idx.cell(row, m.mapping.ResourceTags))
		rec.UsageAmount = m.decodeAmount(logger, &diag, m.mapping.UsageAmount, idx.cell(row, m.mapping.UsageAmount))

		rec.EffectiveCost = NullAmount()
		for _, col := range costColumns {
			if c := idx.cell(row, col); c != nil {
				rec.EffectiveCost = m.decodeAmount(logger, &diag, col, c)
				break
			}
		}

		if diag.DegradedCells > degradedBefore {
			diag.DegradedRows++
		}
		records = append(records, rec)
	}
	diag.Rows = len(records)
	recordsMaterializedCounter.Add(float64(len(records)))
	if diag.Degraded() {
		m.logger.WithField("degradedByColumn", diag.DegradedByColumn).Warnf("materialized records with degraded cells: %s", diag)
	}
	return records, diag
}

func (m *Materializer) decodeNested(logger log.FieldLogger, diag *Diagnostics, column string, c engine.Cell) Nested {
	if c == nil {
		return NullNested()
	}
	fields, isNull, err := decodeObject(*c)
	if err != nil {
		logger.WithField("column", column).WithError(err).Debugf("keeping undecodable nested value as raw text")
		diag.degrade(column)
		return RawNested(*c)
	}
	if isNull {
		return NullNested()
	}
	return StructuredNested(fields)
}

func (m *Materializer) decodeAmount(logger log.FieldLogger, diag *Diagnostics, column string, c engine.Cell) Amount {
	if c == nil {
		return NullAmount()
	}
	a, err := ParseAmount(*c)
	if err != nil {
		logger.WithField("column", column).Debugf("keeping non-numeric value %q as raw text", *c)
		diag.degrade(column)
	}
	return a
}

// decodeObject decodes a JSON object into a flat string map. Non-string
// values are kept as their JSON text; null members are dropped.
func decodeObject(s string) (map[string]string, bool, error) {
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil, false, err
	}
	if obj == nil {
		return nil, true, nil
	}
	fields := make(map[string]string, len(obj))
	for k, v := range obj {
		switch val := v.(type) {
		case nil:
		case string:
			fields[k] = val
		default:
			b, err := json.Marshal(val)
			if err != nil {
				return nil, false, err
			}
			fields[k] = string(b)
		}
	}
	return fields, false, nil
}

func copyText(c engine.Cell) *string {
	if c == nil {
		return nil
	}
	s := *c
	return &s
}
