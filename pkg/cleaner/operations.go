// pkg/cleaner/operations.go
package cleaner

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/spf13/cast"

	"github.com/David-Botos/datawizard/pkg/converter"
	"github.com/David-Botos/datawizard/pkg/model"
	"github.com/David-Botos/datawizard/pkg/report"
)

// missingTextPlaceholder replaces missing cells in text columns
const missingTextPlaceholder = "Unknown"

// newOperation builds a cleaning operation with a formatted log line
func newOperation(stage, column string, affected int, format string, args ...interface{}) model.CleaningOperation {
	return model.CleaningOperation{
		Stage:      stage,
		ColumnName: column,
		Message:    fmt.Sprintf(format, args...),
		Affected:   affected,
		CleanedAt:  time.Now().UTC(),
	}
}

// imputeMissing fills missing cells column by column
// Text columns get a placeholder, other columns their median
func imputeMissing(t *model.Table) []model.CleaningOperation {
	var operations []model.CleaningOperation

	for i := range t.Columns {
		col := &t.Columns[i]
		missing := col.MissingCount()
		if missing == 0 {
			continue
		}

		if col.Kind() == model.KindText {
			fillMissing(col, model.Text(missingTextPlaceholder))
			operations = append(operations, newOperation(model.StageImputation, col.Name, missing,
				"Filled missing text in '%s' with 'Unknown'", col.Name))
			continue
		}

		fill, ok := median(col.Values)
		if !ok {
			// Entirely missing: the median is undefined, leave the column as is
			continue
		}
		fillMissing(col, fill)
		operations = append(operations, newOperation(model.StageImputation, col.Name, missing,
			"Filled missing numbers in '%s' with median", col.Name))
	}

	return operations
}

// fillMissing replaces every null cell of a column
func fillMissing(col *model.Column, fill model.Value) {
	for j, v := range col.Values {
		if v.IsNull() {
			col.Values[j] = fill
		}
	}
}

// median computes the median of the non-missing numeric or temporal cells
// Returns false when there is nothing to take the median of
func median(values []model.Value) (model.Value, bool) {
	var numbers []float64
	var instants []int64
	for _, v := range values {
		switch v.Type {
		case model.ValueNumber:
			numbers = append(numbers, v.Num)
		case model.ValueTime:
			instants = append(instants, v.Time.UnixNano())
		}
	}

	if len(numbers) > 0 && len(instants) == 0 {
		sort.Float64s(numbers)
		mid := len(numbers) / 2
		if len(numbers)%2 == 1 {
			return model.Number(numbers[mid]), true
		}
		return model.Number((numbers[mid-1] + numbers[mid]) / 2), true
	}

	if len(instants) > 0 && len(numbers) == 0 {
		sort.Slice(instants, func(a, b int) bool { return instants[a] < instants[b] })
		mid := len(instants) / 2
		ns := instants[mid]
		if len(instants)%2 == 0 {
			lo := instants[mid-1]
			ns = lo + (instants[mid]-lo)/2
		}
		return model.Timestamp(time.Unix(0, ns).UTC()), true
	}

	return model.Value{}, false
}

// removeDuplicates keeps the first occurrence of every distinct row
func removeDuplicates(t *model.Table) (*model.Table, int) {
	seen := make(map[string]struct{}, t.NumRows())
	keep := make([]int, 0, t.NumRows())

	for i := 0; i < t.NumRows(); i++ {
		key := rowKey(t, i)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keep = append(keep, i)
	}

	removed := t.NumRows() - len(keep)
	if removed == 0 {
		return t, 0
	}

	deduped := &model.Table{Columns: make([]model.Column, len(t.Columns))}
	for c, col := range t.Columns {
		values := make([]model.Value, len(keep))
		for j, row := range keep {
			values[j] = col.Values[row]
		}
		deduped.Columns[c] = model.Column{Name: col.Name, Values: values}
	}
	return deduped, removed
}

// rowKey builds a comparable key for a row; the type tag keeps "1" and 1 apart
func rowKey(t *model.Table, row int) string {
	var sb strings.Builder
	for _, col := range t.Columns {
		v := col.Values[row]
		sb.WriteByte(byte('0' + v.Type))
		switch v.Type {
		case model.ValueTime:
			sb.WriteString(v.Time.UTC().Format(time.RFC3339Nano))
		default:
			sb.WriteString(v.String())
		}
		sb.WriteByte(0x1f)
	}
	return sb.String()
}

// standardizeText trims and title-cases every text column
// A column holding a cell that cannot be rendered as a string is left unchanged
func standardizeText(t *model.Table) (model.CleaningOperation, []report.ErrorRecord) {
	var textColumns int
	var skipped []report.ErrorRecord

	for i := range t.Columns {
		col := &t.Columns[i]
		if col.Kind() != model.KindText {
			continue
		}
		textColumns++

		standardized := make([]model.Value, len(col.Values))
		ok := true
		for j, v := range col.Values {
			if v.IsNull() {
				standardized[j] = v
				continue
			}
			s, err := cast.ToStringE(v.Interface())
			if err != nil {
				skipped = append(skipped, report.NewErrorRecord(err, report.ErrorCategoryCoercion).
					WithColumn(col.Name, v.Interface()))
				ok = false
				break
			}
			standardized[j] = model.Text(titleCase(strings.TrimSpace(s)))
		}
		if ok {
			col.Values = standardized
		}
	}

	return newOperation(model.StageStandardize, "", textColumns,
		"Standardized text in %d columns", textColumns), skipped
}

// titleCase upper-cases a letter that follows a non-letter and lower-cases the rest
func titleCase(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				sb.WriteRune(unicode.ToLower(r))
			} else {
				sb.WriteRune(unicode.ToTitle(r))
			}
			prevLetter = true
			continue
		}
		sb.WriteRune(r)
		prevLetter = false
	}
	return sb.String()
}

// coerceTypes tries to reinterpret every text column as datetime, then numeric
func (c *DataCleaner) coerceTypes(t *model.Table) ([]model.CleaningOperation, []report.ErrorRecord) {
	var operations []model.CleaningOperation
	var skipped []report.ErrorRecord

	for i := range t.Columns {
		col := &t.Columns[i]
		if col.Kind() != model.KindText {
			continue
		}

		if values, ok := c.attemptCoerce(col, model.KindTemporal); ok {
			col.Values = values
			operations = append(operations, newOperation(model.StageTypeCoercion, col.Name, len(values),
				"Converted '%s' to datetime", col.Name))
			continue
		}

		if values, ok := c.attemptCoerce(col, model.KindNumeric); ok {
			col.Values = values
			operations = append(operations, newOperation(model.StageTypeCoercion, col.Name, len(values),
				"Converted '%s' to numeric", col.Name))
			continue
		}

		skipped = append(skipped, report.NewErrorRecord(
			fmt.Errorf("column %q is neither datetime nor numeric", col.Name),
			report.ErrorCategoryCoercion).WithColumn(col.Name, nil))
	}

	return operations, skipped
}

// attemptCoerce reinterprets a whole column under the target kind
// Returns false, and no values, unless every non-missing cell parses
func (c *DataCleaner) attemptCoerce(col *model.Column, target model.Kind) ([]model.Value, bool) {
	out := make([]model.Value, len(col.Values))

	for j, v := range col.Values {
		switch v.Type {
		case model.ValueNull:
			out[j] = v
			continue
		case model.ValueNumber:
			if target != model.KindNumeric {
				return nil, false
			}
			out[j] = v
			continue
		case model.ValueTime:
			if target != model.KindTemporal {
				return nil, false
			}
			out[j] = v
			continue
		}

		switch target {
		case model.KindTemporal:
			ts, ok := c.converter.ParseTime(v.Str)
			if !ok {
				return nil, false
			}
			out[j] = model.Timestamp(ts)
		case model.KindNumeric:
			f, ok := converter.ParseNumber(v.Str)
			if !ok {
				return nil, false
			}
			out[j] = model.Number(f)
		default:
			return nil, false
		}
	}

	return out, true
}
