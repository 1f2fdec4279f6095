// Package logger provides ranking-specific logging.
package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// RankLogger provides dedicated logging for rank recalculation.
type RankLogger struct {
	*logrus.Entry
}

// NewRankLogger creates a new rank logger.
func NewRankLogger(baseLogger *logrus.Logger) *RankLogger {
	return &RankLogger{
		Entry: baseLogger.WithField("component", "ranking"),
	}
}

// LogRecalculation logs a completed recalculation pass.
func (rl *RankLogger) LogRecalculation(records, pages, countries, changed int, duration time.Duration) {
	rl.WithFields(logrus.Fields{
		"records":     records,
		"pages":       pages,
		"countries":   countries,
		"changed":     changed,
		"duration_ms": duration.Milliseconds(),
	}).Info("Rank recalculation completed")
}

// LogRecalculationAborted logs a pass that stopped before writing.
func (rl *RankLogger) LogRecalculationAborted(stage string, records int, err error) {
	rl.WithFields(logrus.Fields{
		"stage":   stage,
		"records": records,
	}).WithError(err).Error("Rank recalculation aborted")
}

// LogSeed logs a rank record created at signup.
func (rl *RankLogger) LogSeed(userID, country string, worldPosition, countryPosition int, created bool) {
	rl.WithFields(logrus.Fields{
		"user_id":          userID,
		"country":          country,
		"world_position":   worldPosition,
		"country_position": countryPosition,
		"created":          created,
	}).Debug("Rank seeded")
}
