package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"accounts.backend/internal/config"
)

func testCfg() config.DatabaseConfig {
	return config.DatabaseConfig{
		Host: "127.0.0.1", Port: 1, User: "x", Password: "x", DBName: "x", SSLMode: "disable",
	}
}

func sqliteDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	return db
}

func TestNewConnection_Unreachable(t *testing.T) {
	db, err := NewConnection(testCfg())
	require.Error(t, err)
	require.Nil(t, db)
}

func TestNewConnection_PingFailure(t *testing.T) {
	origOpen := openGorm
	origPing := dbPing
	t.Cleanup(func() {
		openGorm = origOpen
		dbPing = origPing
	})

	lite := sqliteDB(t)
	openGorm = func(string) (*gorm.DB, error) { return lite, nil }
	dbPing = func(*sql.DB) error { return errors.New("no route") }

	db, err := NewConnection(testCfg())
	require.Error(t, err)
	require.Nil(t, db)
	require.Contains(t, err.Error(), "failed to ping database")
}

func TestNewConnection_OpenAndPingHooks(t *testing.T) {
	origOpen := openGorm
	origPing := dbPing
	t.Cleanup(func() {
		openGorm = origOpen
		dbPing = origPing
	})

	openGorm = func(string) (*gorm.DB, error) {
		return nil, errors.New("open failed")
	}
	db, err := NewConnection(testCfg())
	require.Error(t, err)
	require.Nil(t, db)
	require.Contains(t, err.Error(), "failed to open database")

	lite := sqliteDB(t)
	openGorm = func(string) (*gorm.DB, error) { return lite, nil }
	dbPing = func(*sql.DB) error { return nil }

	db, err = NewConnection(testCfg())
	require.NoError(t, err)
	require.NotNil(t, db)
}

func TestMigrate(t *testing.T) {
	db := sqliteDB(t)
	require.NoError(t, Migrate(db))
	require.True(t, db.Migrator().HasTable("accounts"))
	require.True(t, db.Migrator().HasIndex("accounts", "idx_accounts_email"))
	require.True(t, db.Migrator().HasIndex("accounts", "idx_accounts_cpf_cnpj"))
}
