// pkg/converter/values.go
package converter

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/David-Botos/datawizard/pkg/model"
)

// FromDriverValue converts a value scanned from database/sql into a table cell
func (c *TypeConverter) FromDriverValue(value interface{}) model.Value {
	switch v := value.(type) {
	case nil:
		return model.Null()
	case string:
		if c.isNullToken(v) {
			return model.Null()
		}
		return model.Text(v)
	case []byte:
		return c.FromDriverValue(string(v))
	case int64:
		return model.Number(float64(v))
	case int32:
		return model.Number(float64(v))
	case int:
		return model.Number(float64(v))
	case float64:
		return model.Number(v)
	case float32:
		return model.Number(float64(v))
	case bool:
		return model.Text(strconv.FormatBool(v))
	case time.Time:
		return model.Timestamp(v)
	case *big.Float:
		f, _ := v.Float64()
		return model.Number(f)
	case *big.Int:
		f, _ := new(big.Float).SetInt(v).Float64()
		return model.Number(f)
	default:
		// Arrays and objects from Snowflake VARIANT columns arrive as Go values
		text, err := toJSONText(v)
		if err != nil {
			c.logger.Debug("Falling back to fmt for unsupported value")
			return model.Text(fmt.Sprintf("%v", v))
		}
		return model.Text(text)
	}
}

// toJSONText handles conversion of complex types to JSON text
func toJSONText(value interface{}) (string, error) {
	jsonBytes, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("failed to marshal to JSON: %w", err)
	}
	return string(jsonBytes), nil
}

// NormalizeRows rebuilds numeric columns from text cells the way an upload is read:
// a text column whose non-null cells all parse as numbers becomes numeric
func (c *TypeConverter) NormalizeRows(table *model.Table) {
	if !c.config.InferNumeric {
		return
	}
	for i := range table.Columns {
		col := &table.Columns[i]
		if col.Kind() != model.KindText {
			continue
		}
		numbers := make([]model.Value, len(col.Values))
		ok := true
		for j, v := range col.Values {
			switch v.Type {
			case model.ValueNull:
				numbers[j] = v
			case model.ValueText:
				f, parsed := ParseNumber(v.Str)
				if !parsed {
					ok = false
				}
				numbers[j] = model.Number(f)
			default:
				ok = false
			}
			if !ok {
				break
			}
		}
		if ok {
			col.Values = numbers
		}
	}
}
