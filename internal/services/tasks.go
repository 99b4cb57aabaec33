package services

import (
	"context"

	"duoqueue-dating-app/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TaskService tracks daily task progress. Progress updates are best-effort
// signals from the swipe/match/chat flows; collection of rewards lives in
// LedgerService.
type TaskService struct {
	db  *gorm.DB
	log *logrus.Logger
}

func NewTaskService(db *gorm.DB, log *logrus.Logger) *TaskService {
	return &TaskService{db: db, log: log}
}

// TaskStatus is the per-user view of one daily task.
type TaskStatus struct {
	Task        models.DailyTask `json:"task"`
	Progress    int              `json:"progress"`
	IsCompleted bool             `json:"is_completed"`
	IsCollected bool             `json:"is_collected"`
}

// IncrementProgress bumps today's progress for the task identified by code.
// Callers treat failures as non-fatal; a lost task tick must never roll back
// the swipe or message that triggered it.
func (s *TaskService) IncrementProgress(ctx context.Context, userID uint, code string, delta int) error {
	var task models.DailyTask
	if err := s.db.WithContext(ctx).Where("code = ? AND is_active = ?", code, true).First(&task).Error; err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		progress := models.DailyTaskProgress{
			UserID:   userID,
			TaskID:   task.ID,
			Date:     today(),
			Progress: 0,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "task_id"}, {Name: "date"}},
			DoNothing: true,
		}).Create(&progress).Error; err != nil {
			return err
		}

		bump := tx.Model(&models.DailyTaskProgress{}).
			Where("user_id = ? AND task_id = ? AND date = ?", userID, task.ID, today()).
			UpdateColumn("progress", gorm.Expr("progress + ?", delta))
		if bump.Error != nil {
			return bump.Error
		}

		return tx.Model(&models.DailyTaskProgress{}).
			Where("user_id = ? AND task_id = ? AND date = ? AND progress >= ?", userID, task.ID, today(), task.Target).
			UpdateColumn("is_completed", true).Error
	})
}

// SignalProgress is IncrementProgress with the error swallowed into a warn
// log, for callers on the best-effort path.
func (s *TaskService) SignalProgress(ctx context.Context, userID uint, code string, delta int) {
	if err := s.IncrementProgress(ctx, userID, code, delta); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"user": userID, "task": code}).
			Warn("task progress update failed")
	}
}

// ListToday returns every active task with the user's progress for today.
// Tasks without a progress row show zero progress; rows reset implicitly
// because each date keys its own row.
func (s *TaskService) ListToday(ctx context.Context, userID uint) ([]TaskStatus, error) {
	var tasks []models.DailyTask
	if err := s.db.WithContext(ctx).Where("is_active = ?", true).Order("id").Find(&tasks).Error; err != nil {
		return nil, err
	}

	var rows []models.DailyTaskProgress
	if err := s.db.WithContext(ctx).Where("user_id = ? AND date = ?", userID, today()).Find(&rows).Error; err != nil {
		return nil, err
	}
	byTask := make(map[uint]models.DailyTaskProgress, len(rows))
	for _, row := range rows {
		byTask[row.TaskID] = row
	}

	statuses := make([]TaskStatus, 0, len(tasks))
	for _, task := range tasks {
		status := TaskStatus{Task: task}
		if row, ok := byTask[task.ID]; ok {
			status.Progress = row.Progress
			status.IsCompleted = row.IsCompleted
			status.IsCollected = row.IsCollected
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}
