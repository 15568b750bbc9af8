package database

import (
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newSQLiteDBForTest(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	return db
}

func TestMigrateCreatesAllTables(t *testing.T) {
	db := newSQLiteDBForTest(t)
	if err := Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	for _, table := range []string{
		"users",
		"single_use_tokens",
		"organizations",
		"teams",
		"roles",
		"team_memberships",
	} {
		if !db.Migrator().HasTable(table) {
			t.Errorf("expected table %q after migration", table)
		}
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := newSQLiteDBForTest(t)
	if err := Migrate(db); err != nil {
		t.Fatalf("first migrate: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestMigrateFailsOnClosedDB(t *testing.T) {
	db := newSQLiteDBForTest(t)
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap: %v", err)
	}
	if err := sqlDB.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := Migrate(db); err == nil {
		t.Fatal("expected migration against a closed database to fail")
	}
}
