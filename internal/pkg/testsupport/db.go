package testsupport

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"linkdrop/internal/storage"
)

// SetupTestDB creates an in-memory SQLite database for testing with the blob
// table migrated. Useful for tests that need real persistence without
// external dependencies.
func SetupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to open test database")

	err = db.AutoMigrate(&storage.Blob{})
	require.NoError(t, err, "failed to migrate test database")

	return db
}

// SetupStore creates a blob store over an in-memory SQLite database.
func SetupStore(t *testing.T) *storage.Store {
	return storage.New(SetupTestDB(t), zap.NewNop())
}
