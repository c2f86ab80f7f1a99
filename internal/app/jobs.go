package app

import (
	"time"

	"go.uber.org/zap"

	"github.com/talkincode/toughstore/internal/domain"
)

// notificationRetention is how long delivery audit rows are kept.
const notificationRetention = 90 * 24 * time.Hour

// initJobs registers periodic maintenance jobs.
func (a *Application) initJobs() {
	_, err := a.sched.AddFunc("@daily", a.pruneNotifications)
	if err != nil {
		zap.L().Error("failed to register notification pruning job", zap.Error(err))
	}
}

// pruneNotifications drops notification audit rows past retention.
func (a *Application) pruneNotifications() {
	cutoff := time.Now().Add(-notificationRetention)
	result := a.gormDB.Where("created_at < ?", cutoff).Delete(&domain.Notification{})
	if result.Error != nil {
		zap.L().Error("notification pruning failed", zap.Error(result.Error))
		return
	}
	if result.RowsAffected > 0 {
		zap.L().Info("pruned notification audit rows", zap.Int64("count", result.RowsAffected))
	}
}
