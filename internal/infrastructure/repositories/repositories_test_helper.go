package repositories

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err, "open sqlite")
	return db
}

func mustExec(t *testing.T, db *gorm.DB, q string, args ...interface{}) {
	t.Helper()
	require.NoError(t, db.Exec(q, args...).Error, "exec failed: query=%s", q)
}

func createAccountTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE accounts (
		id TEXT PRIMARY KEY,
		tenant_id TEXT,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		password TEXT NOT NULL,
		cpf_cnpj TEXT,
		phone TEXT,
		profession TEXT,
		company_name TEXT,
		profile_picture_url TEXT,
		subscription_plan TEXT NOT NULL DEFAULT 'free',
		subscription_status TEXT NOT NULL DEFAULT 'trial',
		trial_end_date DATETIME,
		billing_address TEXT,
		payment_method TEXT,
		preferences TEXT,
		system_preferences TEXT,
		role TEXT NOT NULL DEFAULT 'member',
		is_verified BOOLEAN NOT NULL DEFAULT false,
		two_factor_enabled BOOLEAN NOT NULL DEFAULT false,
		last_ip TEXT,
		last_device TEXT,
		status TEXT NOT NULL DEFAULT 'active',
		deleted_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME,
		last_login DATETIME
	);`)
	mustExec(t, db, `CREATE UNIQUE INDEX idx_accounts_email ON accounts(email);`)
	mustExec(t, db, `CREATE UNIQUE INDEX idx_accounts_cpf_cnpj ON accounts(cpf_cnpj);`)
}
