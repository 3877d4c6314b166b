package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	gormlogger "gorm.io/gorm/logger"
)

func TestOperationFromSQL(t *testing.T) {
	cases := []struct {
		sql  string
		want string
	}{
		{sql: "SELECT id FROM reports", want: "SELECT"},
		{sql: "  update reports set status = ?", want: "UPDATE"},
		{sql: "WITH ranked AS (SELECT 1) INSERT INTO badges VALUES ()", want: "SELECT"},
		{sql: "WITH ranked INSERT INTO badges VALUES ()", want: "INSERT"},
		{sql: "", want: "UNKNOWN"},
		{sql: "VACUUM", want: "UNKNOWN"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, operationFromSQL(tc.sql), tc.sql)
	}
}

func TestGormLoggerConfigFor(t *testing.T) {
	assert.Equal(t, gormlogger.Info, GormLoggerConfigFor("debug").Level)
	assert.Equal(t, gormlogger.Warn, GormLoggerConfigFor("info").Level)
	assert.Equal(t, gormlogger.Silent, GormLoggerConfigFor("off").Level)
}

func TestParamsFilterDropsValues(t *testing.T) {
	l := NewGormLogger(DefaultGormLoggerConfig())
	sql, params := l.ParamsFilter(context.Background(), "SELECT 1 WHERE a = ?", "secret")
	assert.Equal(t, "SELECT 1 WHERE a = ?", sql)
	assert.Nil(t, params)
}
