package connector

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/snowflakedb/gosnowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/David-Botos/datawizard/pkg/config"
	"github.com/David-Botos/datawizard/pkg/converter"
	"github.com/David-Botos/datawizard/pkg/model"
)

// fakeRows serves canned driver values the way *sql.Rows would
type fakeRows struct {
	columns []string
	rows    [][]interface{}
	pos     int
	err     error
}

func (f *fakeRows) Columns() ([]string, error) { return f.columns, nil }

func (f *fakeRows) Next() bool {
	if f.pos >= len(f.rows) {
		return false
	}
	f.pos++
	return true
}

func (f *fakeRows) Scan(dest ...interface{}) error {
	row := f.rows[f.pos-1]
	for i := range dest {
		*(dest[i].(*interface{})) = row[i]
	}
	return nil
}

func (f *fakeRows) Err() error { return f.err }

func TestScanTable(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rows := &fakeRows{
		columns: []string{"id", "amount", "name", "created"},
		rows: [][]interface{}{
			{int64(1), "10.5", []byte("alice"), ts},
			{int64(2), nil, "NULL", ts},
		},
	}

	table, err := scanTable(rows, converter.NewTypeConverter(zap.NewNop()), 0)
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "amount", "name", "created"}, table.ColumnNames())
	assert.Equal(t, 2, table.NumRows())
	assert.Equal(t, model.KindNumeric, table.Column("amount").Kind(), "numeric strings are normalized")
	assert.Equal(t, 10.5, table.Column("amount").Values[0].Num)
	assert.Equal(t, model.Text("alice"), table.Column("name").Values[0])
	assert.True(t, table.Column("name").Values[1].IsNull())
	assert.Equal(t, model.KindTemporal, table.Column("created").Kind())
}

func TestScanTableRowCap(t *testing.T) {
	rows := &fakeRows{
		columns: []string{"n"},
		rows:    [][]interface{}{{int64(1)}, {int64(2)}, {int64(3)}},
	}

	_, err := scanTable(rows, converter.NewTypeConverter(nil), 2)
	assert.ErrorIs(t, err, ErrTooManyRows)
}

func TestScanTableErrors(t *testing.T) {
	_, err := scanTable(&fakeRows{}, converter.NewTypeConverter(nil), 0)
	assert.ErrorIs(t, err, converter.ErrEmptyInput)

	boom := errors.New("connection reset")
	_, err = scanTable(&fakeRows{columns: []string{"a"}, err: boom}, converter.NewTypeConverter(nil), 0)
	assert.ErrorIs(t, err, boom)
}

func TestFactoryRequiresConfiguration(t *testing.T) {
	f := NewConnectorFactory(&config.Config{}, converter.NewTypeConverter(nil), zap.NewNop())

	_, err := f.Create(context.Background(), SourcePostgres)
	assert.ErrorIs(t, err, config.ErrNotConfigured)

	_, err = f.Create(context.Background(), SourceSnowflake)
	assert.ErrorIs(t, err, config.ErrNotConfigured)

	_, err = f.Create(context.Background(), "oracle")
	assert.Error(t, err)
}

func TestConstructorsRejectMissingDependencies(t *testing.T) {
	_, err := NewPostgresConnector(context.Background(), nil, converter.NewTypeConverter(nil), nil)
	assert.Error(t, err)
	_, err = NewSnowflakeConnector(context.Background(), &config.SnowflakeConfig{}, nil, nil)
	assert.Error(t, err)
}

func TestSnowflakeDSN(t *testing.T) {
	dsn, err := snowflakeDSN(&config.SnowflakeConfig{
		User:          "wizard",
		Password:      "secret",
		Account:       "acct",
		Warehouse:     "COMPUTE_WH",
		Database:      "ANALYTICS",
		Schema:        "PUBLIC",
		Authenticator: gosnowflake.AuthTypeSnowflake,
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(dsn, "wizard:secret@acct"))
	assert.Contains(t, dsn, "warehouse=COMPUTE_WH")
	assert.Contains(t, dsn, "database=ANALYTICS")
	assert.Contains(t, dsn, "schema=PUBLIC")
}
