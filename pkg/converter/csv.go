// pkg/converter/csv.go
package converter

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/datawizard/pkg/model"
)

// ParseCSV reads delimited text into a table
// The first record is the header; short rows are padded with missing values
func (c *TypeConverter) ParseCSV(r io.Reader) (*model.Table, error) {
	reader := csv.NewReader(r)
	reader.Comma = c.config.Delimiter
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyInput
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	table := model.NewTable(dedupeHeader(header)...)
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		line++

		if len(record) > len(header) {
			return nil, fmt.Errorf("error tokenizing data: expected %d fields in line %d, saw %d",
				len(header), line, len(record))
		}

		row := make([]model.Value, len(header))
		for i := range row {
			if i >= len(record) || c.isNullToken(record[i]) {
				row[i] = model.Null()
				continue
			}
			row[i] = model.Text(record[i])
		}
		table.AppendRow(row)
	}

	c.NormalizeRows(table)

	c.logger.Debug("Parsed delimited input",
		zap.Int("rows", table.NumRows()),
		zap.Int("columns", table.NumColumns()))
	return table, nil
}

// ParseCSVBytes is a convenience wrapper around ParseCSV
func (c *TypeConverter) ParseCSVBytes(data []byte) (*model.Table, error) {
	return c.ParseCSV(bytes.NewReader(data))
}

// dedupeHeader renames repeated column names to name.1, name.2, ...
func dedupeHeader(header []string) []string {
	seen := make(map[string]int, len(header))
	used := make(map[string]bool, len(header))
	for _, name := range header {
		used[name] = true
	}

	names := make([]string, len(header))
	for i, name := range header {
		count := seen[name]
		seen[name] = count + 1
		if count == 0 {
			names[i] = name
			continue
		}
		candidate := name + "." + strconv.Itoa(count)
		for used[candidate] {
			count++
			candidate = name + "." + strconv.Itoa(count)
		}
		seen[name] = count + 1
		used[candidate] = true
		names[i] = candidate
	}
	return names
}

// WriteCSV serializes a table as delimited text
// Output is deterministic for a given table
func (c *TypeConverter) WriteCSV(w io.Writer, table *model.Table) error {
	writer := csv.NewWriter(w)
	writer.Comma = c.config.Delimiter

	if err := writer.Write(table.ColumnNames()); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	rendered := make([][]string, len(table.Columns))
	for i := range table.Columns {
		rendered[i] = renderColumn(&table.Columns[i])
	}

	record := make([]string, len(table.Columns))
	for row := 0; row < table.NumRows(); row++ {
		for col := range rendered {
			record[col] = rendered[col][row]
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write row %d: %w", row, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}
	return nil
}

// EncodeCSV returns the serialized table
func (c *TypeConverter) EncodeCSV(table *model.Table) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.WriteCSV(&buf, table); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// renderColumn converts the cells of a column to their text form
func renderColumn(col *model.Column) []string {
	out := make([]string, len(col.Values))

	var times []time.Time
	var timeRows []int
	for i, v := range col.Values {
		switch v.Type {
		case model.ValueText:
			out[i] = v.Str
		case model.ValueNumber:
			out[i] = FormatNumber(v.Num)
		case model.ValueTime:
			times = append(times, v.Time)
			timeRows = append(timeRows, i)
		}
	}

	for i, s := range FormatTimes(times) {
		out[timeRows[i]] = s
	}
	return out
}
