// Package dbtest opens throwaway SQLite databases with the service schema applied.
package dbtest

import (
	"fmt"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/labourmarket/internal/database"
)

// Open returns a migrated in-memory database private to the calling test.
// The pool is pinned to one connection so concurrent writers serialise the
// way row locks would on Postgres.
func Open(t testing.TB) *gorm.DB {
	c := qt.New(t)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	c.Assert(err, qt.IsNil)

	sqlDB, err := conn.DB()
	c.Assert(err, qt.IsNil)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	c.Assert(database.Migrate(conn), qt.IsNil)
	return conn
}
