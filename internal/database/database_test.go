package database

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xelth-com/wooassist/internal/config"
	"github.com/xelth-com/wooassist/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestEmbeddedMode(t *testing.T) {
	assert.True(t, embeddedMode(config.DatabaseConfig{Host: "localhost"}))
	assert.False(t, embeddedMode(config.DatabaseConfig{Host: "localhost", Password: "pw"}))
	assert.False(t, embeddedMode(config.DatabaseConfig{Host: "db.internal"}))
}

func TestMigratePingClose(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	db := Wrap(gdb, nil)
	require.NoError(t, db.Migrate())
	for _, m := range models.AllModels() {
		assert.True(t, db.Migrator().HasTable(m), "%T", m)
	}

	require.NoError(t, db.Ping(context.Background()))
	require.NoError(t, db.Close())
	assert.Error(t, db.Ping(context.Background()))
}
