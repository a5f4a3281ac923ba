package database

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mellystark/visitormanagement/internal/models"
	"github.com/mellystark/visitormanagement/pkg/crypto"
)

func TestOpenSQLiteMemory(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Exec("SELECT 1").Error)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(Config{Driver: "oracle"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported database driver")
}

func TestAutoMigrateAndSeedCreatesAdminOnce(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, AutoMigrateAndSeed(db, SeedOptions{}))

	var admin models.User
	require.NoError(t, db.Where("username = ?", DefaultAdminUsername).Take(&admin).Error)
	require.Equal(t, models.RoleAdmin, admin.Role)
	require.Equal(t, DefaultAdminEmail, admin.Email)
	require.True(t, crypto.VerifyPassword(admin.PasswordHash, DefaultAdminPassword))

	require.NoError(t, db.Model(&admin).Update("password_hash", "changed").Error)
	require.NoError(t, AutoMigrateAndSeed(db, SeedOptions{}))

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	require.EqualValues(t, 1, count)

	require.NoError(t, db.Take(&admin, admin.ID).Error)
	require.Equal(t, "changed", admin.PasswordHash)
}

func TestPendingRequestUniqueIndex(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, AutoMigrate(db))

	inv := models.Invitation{Name: "Meetup", Slug: "meetup", IsActive: true}
	require.NoError(t, db.Create(&inv).Error)

	first := models.InviteRequest{InvitationID: inv.ID, FullName: "Ada", Email: "ada@example.com"}
	require.NoError(t, db.Create(&first).Error)

	dup := models.InviteRequest{InvitationID: inv.ID, FullName: "Ada", Email: "ADA@example.com "}
	require.Error(t, db.Create(&dup).Error)

	noEmailA := models.InviteRequest{InvitationID: inv.ID, FullName: "Anon"}
	noEmailB := models.InviteRequest{InvitationID: inv.ID, FullName: "Anon"}
	require.NoError(t, db.Create(&noEmailA).Error)
	require.NoError(t, db.Create(&noEmailB).Error)
}

func TestOpenLogUniqueIndex(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, AutoMigrate(db))

	visitor := models.Visitor{FullName: "Ada"}
	require.NoError(t, db.Create(&visitor).Error)

	id := visitor.ID
	require.NoError(t, db.Create(&models.VisitorLog{VisitorID: id, OpenVisitorID: &id}).Error)

	second := id
	require.Error(t, db.Create(&models.VisitorLog{VisitorID: id, OpenVisitorID: &second}).Error)
	require.NoError(t, db.Create(&models.VisitorLog{VisitorID: id}).Error)
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := Open(Config{Driver: "sqlite", DSN: "file:" + t.Name() + "?mode=memory&cache=shared&_foreign_keys=1"})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return db
}
