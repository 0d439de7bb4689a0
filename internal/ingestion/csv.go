package ingestion

import (
	"encoding/csv"
	"io"
	"strings"

	pkgerrors "github.com/retaildesk/retaildesk-backend/pkg/errors"
)

// Row is one cleaned CSV record. Blank and literal "null" values are dropped
// so lookups distinguish missing data from empty strings.
type Row map[string]string

// ParseCSV reads a header-driven CSV stream into cleaned rows. Empty lines
// are skipped; headers and values are trimmed.
func ParseCSV(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed csv")
	}
	if len(records) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "csv contains no rows")
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.TrimSpace(h)
	}

	rows := make([]Row, 0, len(records)-1)
	for _, record := range records[1:] {
		if isEmptyRecord(record) {
			continue
		}
		row := Row{}
		for i, value := range record {
			if i >= len(headers) || headers[i] == "" {
				continue
			}
			cleaned := strings.TrimSpace(value)
			if cleaned == "" || strings.EqualFold(cleaned, "null") {
				continue
			}
			row[headers[i]] = cleaned
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func isEmptyRecord(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Field returns the first present value among the given header aliases.
func (r Row) Field(keys ...string) string {
	for _, key := range keys {
		if v, ok := r[key]; ok {
			return v
		}
	}
	return ""
}
