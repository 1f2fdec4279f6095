// Package logger provides achievement-specific logging.
package logger

import (
	"github.com/sirupsen/logrus"
)

// AchievementLogger provides dedicated logging for rule evaluations.
type AchievementLogger struct {
	*logrus.Entry
}

// NewAchievementLogger creates a new achievement logger.
func NewAchievementLogger(baseLogger *logrus.Logger) *AchievementLogger {
	return &AchievementLogger{
		Entry: baseLogger.WithField("component", "achievement"),
	}
}

// LogGranted logs a newly granted achievement.
func (al *AchievementLogger) LogGranted(userID, name string, points int) {
	al.WithFields(logrus.Fields{
		"user_id":     userID,
		"achievement": name,
		"points":      points,
	}).Info("Achievement granted")
}

// LogAlreadyGranted logs a grant that hit the uniqueness guard.
func (al *AchievementLogger) LogAlreadyGranted(userID, name string) {
	al.WithFields(logrus.Fields{
		"user_id":     userID,
		"achievement": name,
	}).Debug("Achievement already granted")
}

// LogRuleFailed logs a rule whose error was swallowed.
func (al *AchievementLogger) LogRuleFailed(userID, name string, err error) {
	al.WithFields(logrus.Fields{
		"user_id":     userID,
		"achievement": name,
	}).WithError(err).Warn("Achievement rule failed")
}
