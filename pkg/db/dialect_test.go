package db

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestNormalizeType(t *testing.T) {
	cases := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{raw: "", want: TypePostgres},
		{raw: " Postgres ", want: TypePostgres},
		{raw: "sqlite", want: TypeSQLite},
		{raw: "mysql", wantErr: true},
		{raw: "oracle", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			got, err := NormalizeType(tc.raw)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDialectRejectsMySQL(t *testing.T) {
	_, err := Dialect(Config{Type: "mysql"})
	assert.Error(t, err)

	dialector, err := Dialect(Config{Type: "sqlite", Name: ":memory:"})
	require.NoError(t, err)
	assert.Equal(t, "sqlite", dialector.Name())
}

func TestStripRowLocks(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file:strip_row_locks?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, StripRowLocks(conn))
	require.NoError(t, conn.Exec(`CREATE TABLE items (id INTEGER PRIMARY KEY, status TEXT NOT NULL)`).Error)
	require.NoError(t, conn.Exec(`INSERT INTO items (id, status) VALUES (1, 'open')`).Error)

	var ids []int64
	require.NoError(t, conn.Raw(`SELECT id FROM items WHERE status = ? FOR UPDATE SKIP LOCKED`, "open").Scan(&ids).Error)
	assert.Equal(t, []int64{1}, ids)

	result := conn.Exec(`INSERT INTO items (id, status) SELECT 2, status FROM items WHERE id = ? FOR SHARE`, 1)
	require.NoError(t, result.Error)
	assert.Equal(t, int64(1), result.RowsAffected)
}
