package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() (*logrus.Logger, *bytes.Buffer) {
	log := logrus.New()
	buf := &bytes.Buffer{}
	log.SetOutput(buf)
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.DebugLevel)
	return log, buf
}

func parseLogOutput(buf *bytes.Buffer) map[string]interface{} {
	var logEntry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		return nil
	}
	return logEntry
}

func TestNewLoggerLevels(t *testing.T) {
	log := NewLogger("debug", "development")
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())

	log = NewLogger("nonsense", "development")
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())

	log = NewLogger("warn", "production")
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)
}

func TestAuditLoggerPayout(t *testing.T) {
	log, buf := setupTestLogger()
	auditLogger := NewAuditLogger(log)

	compID, userID := uuid.New(), uuid.New()
	auditLogger.LogPayout(compID, userID, decimal.NewFromInt(50), "settlement:x:y")

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "audit", logEntry["component"])
	assert.Equal(t, userID.String(), logEntry["user_id"])
	assert.Equal(t, "50.00", logEntry["amount"])
	assert.Equal(t, "settlement:x:y", logEntry["reference"])
}

func TestAuditLoggerPayoutFailed(t *testing.T) {
	log, buf := setupTestLogger()
	auditLogger := NewAuditLogger(log)

	auditLogger.LogPayoutFailed(uuid.New(), uuid.New(), decimal.RequireFromString("33.34"), errors.New("wallet missing"))

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "error", logEntry["level"])
	assert.Equal(t, "wallet missing", logEntry["error"])
	assert.Equal(t, "33.34", logEntry["amount"])
}

func TestAuditLoggerManualGrant(t *testing.T) {
	log, buf := setupTestLogger()
	auditLogger := NewAuditLogger(log)

	auditLogger.LogManualGrant(uuid.New(), "CommunityStar", 15, "ops@stakeleague.io")

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "CommunityStar", logEntry["achievement"])
	assert.Equal(t, float64(15), logEntry["points"])
}

func TestRankLoggerRecalculation(t *testing.T) {
	log, buf := setupTestLogger()
	rankLogger := NewRankLogger(log)

	rankLogger.LogRecalculation(1200, 3, 14, 87, 1500*time.Millisecond)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "ranking", logEntry["component"])
	assert.Equal(t, float64(1200), logEntry["records"])
	assert.Equal(t, float64(1500), logEntry["duration_ms"])
}

func TestRankLoggerAborted(t *testing.T) {
	log, buf := setupTestLogger()
	rankLogger := NewRankLogger(log)

	rankLogger.LogRecalculationAborted("scan", 5000, errors.New("context canceled"))

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "scan", logEntry["stage"])
	assert.Equal(t, "error", logEntry["level"])
}

func TestAchievementLoggerRuleFailed(t *testing.T) {
	log, buf := setupTestLogger()
	achievementLogger := NewAchievementLogger(log)

	achievementLogger.LogRuleFailed("user-1", "HighRoller", errors.New("fx unavailable"))

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "achievement", logEntry["component"])
	assert.Equal(t, "HighRoller", logEntry["achievement"])
	assert.Equal(t, "warning", logEntry["level"])
}
