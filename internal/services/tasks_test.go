package services_test

import (
	"context"
	"testing"

	"duoqueue-dating-app/internal/services"

	"github.com/stretchr/testify/assert"
)

func TestListTodayShowsCatalogWithZeroProgress(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	tasks := services.NewTaskService(db, testLogger())

	user := createUser(t, db, "user@test", 0, false)

	statuses, err := tasks.ListToday(ctx, user.ID)
	assert.NoError(t, err)
	assert.Len(t, statuses, 4)
	for _, status := range statuses {
		assert.Equal(t, 0, status.Progress)
		assert.False(t, status.IsCompleted)
		assert.False(t, status.IsCollected)
	}
}

func TestIncrementProgressCompletesAtTarget(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	tasks := services.NewTaskService(db, testLogger())

	user := createUser(t, db, "user@test", 0, false)

	for i := 0; i < 10; i++ {
		assert.NoError(t, tasks.IncrementProgress(ctx, user.ID, "swipe_10", 1))
	}

	statuses, err := tasks.ListToday(ctx, user.ID)
	assert.NoError(t, err)
	for _, status := range statuses {
		if status.Task.Code != "swipe_10" {
			continue
		}
		assert.Equal(t, 10, status.Progress)
		assert.True(t, status.IsCompleted)
		assert.False(t, status.IsCollected)
	}
}

func TestIncrementProgressUnknownTask(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	tasks := services.NewTaskService(db, testLogger())

	user := createUser(t, db, "user@test", 0, false)
	assert.Error(t, tasks.IncrementProgress(ctx, user.ID, "no_such_task", 1))
}

func TestProgressPastTargetStaysCompleted(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	tasks := services.NewTaskService(db, testLogger())

	user := createUser(t, db, "user@test", 0, false)

	assert.NoError(t, tasks.IncrementProgress(ctx, user.ID, "login", 1))
	assert.NoError(t, tasks.IncrementProgress(ctx, user.ID, "login", 1))

	statuses, err := tasks.ListToday(ctx, user.ID)
	assert.NoError(t, err)
	for _, status := range statuses {
		if status.Task.Code != "login" {
			continue
		}
		assert.Equal(t, 2, status.Progress)
		assert.True(t, status.IsCompleted)
	}
}
