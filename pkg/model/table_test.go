package model

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnKind(t *testing.T) {
	ts := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		values []Value
		want   Kind
	}{
		{"numbers", []Value{Number(1), Null(), Number(2)}, KindNumeric},
		{"all null", []Value{Null(), Null()}, KindNumeric},
		{"text wins", []Value{Number(1), Text("a")}, KindText},
		{"times", []Value{Timestamp(ts), Null()}, KindTemporal},
		{"numbers and times", []Value{Number(1), Timestamp(ts)}, KindText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			col := Column{Name: "c", Values: tt.values}
			assert.Equal(t, tt.want, col.Kind())
		})
	}
}

func TestTableCloneIsDeep(t *testing.T) {
	tbl := NewTable("a", "b")
	tbl.AppendRow([]Value{Number(1), Text("x")})
	tbl.AppendRow([]Value{Null(), Text("y")})

	clone := tbl.Clone()
	require.True(t, clone.Equal(tbl))

	clone.Columns[1].Values[0] = Text("changed")
	assert.Equal(t, "x", tbl.Columns[1].Values[0].Str)
	assert.False(t, clone.Equal(tbl))
}

func TestTableHelpers(t *testing.T) {
	tbl := NewTable("age", "city")
	tbl.AppendRow([]Value{Number(25), Text("nyc")})
	tbl.AppendRow([]Value{Null(), Null()})
	tbl.AppendRow([]Value{Number(30), Text("la")})

	assert.Equal(t, 3, tbl.NumRows())
	assert.Equal(t, 2, tbl.NumColumns())
	assert.Equal(t, []string{"age", "city"}, tbl.ColumnNames())
	assert.Equal(t, 2, tbl.MissingTotal())
	assert.Equal(t, 2, tbl.Head(2).NumRows())
	assert.Equal(t, 3, tbl.Head(10).NumRows())
	assert.Nil(t, tbl.Column("missing"))

	meta := tbl.Metadata("people.csv")
	assert.Equal(t, []string{"age"}, meta.ColumnsOfKind(KindNumeric))
	assert.Equal(t, []string{"city"}, meta.ColumnsOfKind(KindText))
	require.NotNil(t, meta.GetColumnByName("CITY"))
	assert.Equal(t, 1, meta.GetColumnByName("CITY").Missing)

	records := tbl.Records()
	assert.Equal(t, 25.0, records[0]["age"])
	assert.Nil(t, records[1]["city"])
}

func TestNumberNaNIsNull(t *testing.T) {
	assert.True(t, Number(nan()).IsNull())
	assert.True(t, Null().Equal(Null()))
	assert.False(t, Null().Equal(Text("")))
}

func TestInfiniteNumberRecords(t *testing.T) {
	tbl := NewTable("a")
	tbl.AppendRow([]Value{Number(math.Inf(1))})
	tbl.AppendRow([]Value{Number(math.Inf(-1))})
	tbl.AppendRow([]Value{Number(1.5)})

	records := tbl.Records()
	assert.Equal(t, "+Inf", records[0]["a"])
	assert.Equal(t, "-Inf", records[1]["a"])
	assert.Equal(t, 1.5, records[2]["a"])
}

func nan() float64 {
	zero := 0.0
	return zero / zero
}

func TestKindText(t *testing.T) {
	text, err := KindTemporal.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "datetime", string(text))

	var k Kind
	require.NoError(t, k.UnmarshalText([]byte("text")))
	assert.Equal(t, KindText, k)
	assert.Error(t, k.UnmarshalText([]byte("blob")))
}
