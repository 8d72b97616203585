package selector

import (
	"strings"

	"breakfit/adapters/datareadiness/coercer"
	"breakfit/domain/core"
	"breakfit/domain/series"
)

// BuildSeries parses the date and value columns of table into a cleaned
// observation series. Rows with a missing date or value are dropped; any
// other unparsable cell is an input error.
func BuildSeries(table *series.Table, dateCol, valueCol string) (*series.Series, error) {
	if table == nil || table.Len() == 0 {
		return nil, core.ErrEmptyTable
	}
	dateCol, valueCol = strings.TrimSpace(dateCol), strings.TrimSpace(valueCol)
	for _, col := range []string{dateCol, valueCol} {
		if !table.HasColumn(col) {
			return nil, core.NewMissingColumnError(col)
		}
	}

	s := &series.Series{
		DateColumn:   dateCol,
		ValueColumn:  valueCol,
		Observations: make([]series.Observation, 0, table.Len()),
	}
	for _, row := range table.Rows {
		rawDate, rawValue := row.Values[dateCol], row.Values[valueCol]
		if coercer.IsMissing(rawDate) || coercer.IsMissing(rawValue) {
			s.Dropped++
			continue
		}
		ts, err := coercer.ParseTimestamp(rawDate)
		if err != nil {
			return nil, core.NewUnparsableError(row.Index, dateCol, rawDate, err)
		}
		v, err := coercer.ParseNumeric(rawValue)
		if err != nil {
			return nil, core.NewUnparsableError(row.Index, valueCol, rawValue, err)
		}
		s.Observations = append(s.Observations, series.Observation{
			Row:   row.Index,
			Time:  ts,
			X:     float64(core.EpochSeconds(ts)),
			Value: v,
		})
	}
	return s, nil
}
