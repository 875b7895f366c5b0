package database

import (
	"testing"

	"laundry_manager/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsSQLite(t *testing.T) {
	assert.False(t, IsSQLite("postgres://user:pw@localhost:5432/laundry"))
	assert.False(t, IsSQLite("postgresql://localhost/laundry"))
	assert.False(t, IsSQLite("host=localhost user=laundry dbname=laundry"))
	assert.True(t, IsSQLite("file:laundry.db"))
	assert.True(t, IsSQLite("file::memory:"))
}

func TestInitializeMigratesSQLite(t *testing.T) {
	db, err := Initialize("file:connection_test?mode=memory&cache=shared", "silent")
	require.NoError(t, err)

	for _, model := range []interface{}{&models.Order{}, &models.User{}, &models.Counter{}, &models.FrequencyTemplate{}} {
		assert.True(t, db.Migrator().HasTable(model))
	}
}
