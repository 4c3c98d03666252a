package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizdir_listing/internal/model"
)

func TestInitDBSqliteAndMigrate(t *testing.T) {
	db, err := InitDB("sqlite", "file::memory:")
	require.NoError(t, err)
	defer Close(db)

	require.NoError(t, Migrate(db))
	assert.True(t, db.Migrator().HasTable(&model.SubmissionRecord{}))

	// 重复迁移无副作用
	require.NoError(t, Migrate(db))

	rec := &model.SubmissionRecord{
		SessionID: "sess_1",
		UserID:    "u1",
		Operation: model.SubmissionOpCreate,
		Status:    model.SubmissionStatusSucceeded,
	}
	require.NoError(t, db.WithContext(context.Background()).Create(rec).Error)
	assert.NotZero(t, rec.ID)
}

func TestInitDBUnknownDriver(t *testing.T) {
	_, err := InitDB("mysql", "dsn")
	assert.Error(t, err)
}
