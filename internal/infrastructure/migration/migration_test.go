package migration

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/hatch-crm/hatch/internal/shared/config"
	"github.com/hatch-crm/hatch/internal/shared/constants"
	"github.com/hatch-crm/hatch/internal/shared/logger"
)

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return gdb
}

func TestNewManager_PicksStrategyByDriver(t *testing.T) {
	sqliteMgr := NewManager(&config.DatabaseConfig{Driver: "sqlite"}, logger.Discard())
	assert.Equal(t, "gorm_auto_migrate", sqliteMgr.GetStrategy().GetName())
	_, versioned := sqliteMgr.Versioned()
	assert.False(t, versioned)

	mysqlMgr := NewManager(&config.DatabaseConfig{Driver: "mysql"}, logger.Discard())
	assert.Equal(t, "goose", mysqlMgr.GetStrategy().GetName())
	_, versioned = mysqlMgr.Versioned()
	assert.True(t, versioned)
}

func TestManager_AutoMigrateCreatesTables(t *testing.T) {
	gdb := openSQLite(t)
	mgr := NewManager(&config.DatabaseConfig{Driver: "sqlite"}, logger.Discard())

	require.NoError(t, mgr.Migrate(gdb))
	require.NoError(t, mgr.Migrate(gdb))

	for _, table := range []string{
		constants.TableRules,
		constants.TableRuleRevisions,
		constants.TableOwnerCapacity,
		constants.TablePoolMembers,
		constants.TableRouteEvents,
		constants.TableSLATimers,
	} {
		assert.True(t, gdb.Migrator().HasTable(table), table)
	}
}

func TestEmbeddedScripts_CoverEveryTable(t *testing.T) {
	data, err := fs.ReadFile(embeddedScripts, "scripts/00001_create_routing_tables.sql")
	require.NoError(t, err)

	body := string(data)
	assert.Contains(t, body, "-- +goose Up")
	assert.Contains(t, body, "-- +goose Down")
	for _, table := range []string{
		constants.TableRules,
		constants.TableRuleRevisions,
		constants.TableOwnerCapacity,
		constants.TablePoolMembers,
		constants.TableRouteEvents,
		constants.TableSLATimers,
	} {
		assert.Contains(t, body, "CREATE TABLE "+table+" (")
		assert.Contains(t, body, "DROP TABLE IF EXISTS "+table+";")
	}
}
