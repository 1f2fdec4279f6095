package achievement

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/stakeleague/internal/config"
	"github.com/yourusername/stakeleague/internal/fx"
	"github.com/yourusername/stakeleague/internal/models"
	"github.com/yourusername/stakeleague/internal/notification"
	"github.com/yourusername/stakeleague/internal/repository"
)

// MockNotifier mocks the notification sender
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, n notification.Notification) {
	m.Called(ctx, n)
}

type failingConverter struct{ err error }

func (f failingConverter) Convert(context.Context, decimal.Decimal) (decimal.Decimal, error) {
	return decimal.Zero, f.err
}

type blockingConverter struct{}

func (blockingConverter) Convert(ctx context.Context, _ decimal.Decimal) (decimal.Decimal, error) {
	<-ctx.Done()
	return decimal.Zero, ctx.Err()
}

func testConfig() config.AchievementsConfig {
	return config.AchievementsConfig{
		RuleTimeoutSeconds:       1,
		HighRollerThreshold:      100,
		RiskTakerMinCompetitions: 5,
		OddMasterMinParticipants: 5,
		StreakTarget:             3,
	}
}

func newTestEngine(t *testing.T, converter Converter) (*Engine, *repository.MemoryStore, *MockNotifier) {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	if converter == nil {
		converter = fx.NewConverterWithProvider(fx.NewStaticProvider(decimal.NewFromInt(1)), "USD", "USD")
	}

	store := repository.NewMemoryStore()
	notifier := &MockNotifier{}
	notifier.On("Notify", mock.Anything, mock.Anything).Return()

	return NewEngine(store.Repositories(), converter, notifier, testConfig(), log), store, notifier
}

func seedRank(store *repository.MemoryStore, userID uuid.UUID, mutate func(r *models.Rank)) {
	r := models.NewSeededRank(userID, "GB", 1, 1, time.Now())
	if mutate != nil {
		mutate(r)
	}
	store.PutRank(r)
}

func names(achievements []models.Achievement) []models.AchievementName {
	out := make([]models.AchievementName, len(achievements))
	for i, a := range achievements {
		out[i] = a.Name
	}
	return out
}

func soleWinnerLeague(winner uuid.UUID, participants int) *models.Competition {
	c := &models.Competition{
		ID:      uuid.New(),
		Type:    models.CompetitionTypeLeague,
		Winners: []uuid.UUID{winner},
	}
	c.Participants = append(c.Participants, models.Participant{UserID: winner, Status: models.ParticipantJoined})
	for len(c.Participants) < participants {
		c.Participants = append(c.Participants, models.Participant{UserID: uuid.New(), Status: models.ParticipantJoined})
	}
	return c
}

func TestEvaluateWinnersIsIdempotent(t *testing.T) {
	engine, store, notifier := newTestEngine(t, nil)
	ctx := context.Background()
	winner := uuid.New()

	seedRank(store, winner, func(r *models.Rank) {
		r.TotalWins = 3
		r.WinningStreak = 3
	})
	c := soleWinnerLeague(winner, 5)

	engine.EvaluateWinners(ctx, c)

	granted := store.Achievements()
	assert.ElementsMatch(t, []models.AchievementName{
		models.AchievementFirstWin,
		models.AchievementThreeWinStreak,
		models.AchievementOddMaster,
		models.AchievementTopPredictor,
	}, names(granted))

	rank := store.Rank(winner)
	assert.Equal(t, 10+30+50+25, rank.Points)
	assert.True(t, rank.FirstWin)
	for _, a := range granted {
		require.NotNil(t, a.CompetitionID)
		assert.Equal(t, c.ID, *a.CompetitionID)
	}
	notifier.AssertNumberOfCalls(t, "Notify", 4)

	engine.EvaluateWinners(ctx, c)

	assert.Len(t, store.Achievements(), 4)
	assert.Equal(t, 115, store.Rank(winner).Points)
	notifier.AssertNumberOfCalls(t, "Notify", 4)
}

func TestEvaluateWinnersConcurrentInvocations(t *testing.T) {
	engine, store, _ := newTestEngine(t, nil)
	ctx := context.Background()
	winner := uuid.New()
	seedRank(store, winner, func(r *models.Rank) { r.TotalWins = 1 })
	c := soleWinnerLeague(winner, 2)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			engine.EvaluateWinners(ctx, c)
		}()
	}
	wg.Wait()

	assert.ElementsMatch(t, []models.AchievementName{
		models.AchievementFirstWin,
		models.AchievementTopPredictor,
	}, names(store.Achievements()))
	assert.Equal(t, 35, store.Rank(winner).Points)
}

func TestWinnerRuleThresholds(t *testing.T) {
	engine, store, _ := newTestEngine(t, nil)
	ctx := context.Background()
	a, b := uuid.New(), uuid.New()

	seedRank(store, a, func(r *models.Rank) {
		r.TotalWins = 2
		r.WinningStreak = 2
	})
	seedRank(store, b, func(r *models.Rank) { r.TotalWins = 1 })

	// two winners of a four-player ManGoSet: no OddMaster, no TopPredictor, no streak yet
	c := &models.Competition{
		ID:      uuid.New(),
		Type:    models.CompetitionTypeManGoSet,
		Winners: []uuid.UUID{a, b},
		Participants: []models.Participant{
			{UserID: a}, {UserID: b}, {UserID: uuid.New()}, {UserID: uuid.New()},
		},
	}
	engine.EvaluateWinners(ctx, c)

	for _, achievement := range store.Achievements() {
		assert.Equal(t, models.AchievementFirstWin, achievement.Name)
	}
	assert.Len(t, store.Achievements(), 2)
}

func TestRuleFailureDoesNotAffectOtherRules(t *testing.T) {
	engine, store, _ := newTestEngine(t, nil)
	ctx := context.Background()
	withRank, withoutRank := uuid.New(), uuid.New()
	seedRank(store, withRank, func(r *models.Rank) { r.TotalWins = 1 })

	c := &models.Competition{
		ID:           uuid.New(),
		Type:         models.CompetitionTypeTopScore,
		Winners:      []uuid.UUID{withRank, withoutRank},
		Participants: []models.Participant{{UserID: withRank}, {UserID: withoutRank}},
	}

	assert.NotPanics(t, func() { engine.EvaluateWinners(ctx, c) })

	granted := store.Achievements()
	require.Len(t, granted, 1)
	assert.Equal(t, withRank, granted[0].UserID)
}

func createCompetition(t *testing.T, store *repository.MemoryStore, creator uuid.UUID, createdAt time.Time, contribution int64) *models.Competition {
	t.Helper()
	c := &models.Competition{
		ID:               uuid.New(),
		Type:             models.CompetitionTypeLeague,
		CreatorID:        creator,
		MinTeams:         1,
		MaxTeams:         1,
		HostContribution: decimal.NewFromInt(contribution),
		IsActive:         true,
		CreatedAt:        createdAt,
	}
	require.NoError(t, store.Repositories().Competition.Create(context.Background(), c))
	return c
}

func TestHighRoller(t *testing.T) {
	day := time.Date(2026, 3, 18, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		rate          int64
		contributions []int64
		otherDay      int64
		want          bool
	}{
		{name: "over threshold", rate: 1, contributions: []int64{60, 50}, want: true},
		{name: "exactly threshold", rate: 1, contributions: []int64{50, 50}, want: false},
		{name: "under threshold", rate: 1, contributions: []int64{40, 50}, otherDay: 500, want: false},
		{name: "over after conversion", rate: 2, contributions: []int64{60}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			converter := fx.NewConverterWithProvider(fx.NewStaticProvider(decimal.NewFromInt(tt.rate)), "EUR", "USD")
			engine, store, _ := newTestEngine(t, converter)
			host := uuid.New()
			seedRank(store, host, nil)

			var last *models.Competition
			for i, amount := range tt.contributions {
				last = createCompetition(t, store, host, day.Add(time.Duration(i)*time.Hour), amount)
			}
			if tt.otherDay > 0 {
				createCompetition(t, store, host, day.AddDate(0, 0, -1), tt.otherDay)
			}

			require.NoError(t, engine.OnCompetitionCreated(context.Background(), last.ID))

			got := false
			for _, a := range store.Achievements() {
				if a.Name == models.AchievementHighRoller {
					got = true
				}
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRiskTaker(t *testing.T) {
	engine, store, _ := newTestEngine(t, nil)
	ctx := context.Background()
	host := uuid.New()
	seedRank(store, host, nil)

	monday := time.Date(2026, 3, 16, 8, 0, 0, 0, time.UTC)
	createCompetition(t, store, host, monday.AddDate(0, 0, -1), 0) // previous Sunday
	var last *models.Competition
	for i := 0; i < 4; i++ {
		last = createCompetition(t, store, host, monday.AddDate(0, 0, i), 0)
	}

	require.NoError(t, engine.OnCompetitionCreated(ctx, last.ID))
	assert.Empty(t, store.Achievements())

	last = createCompetition(t, store, host, monday.AddDate(0, 0, 6), 0)
	require.NoError(t, engine.OnCompetitionCreated(ctx, last.ID))

	granted := store.Achievements()
	require.Len(t, granted, 1)
	assert.Equal(t, models.AchievementRiskTaker, granted[0].Name)
	assert.Equal(t, 20, store.Rank(host).Points)
}

func TestHostRuleFailureIsIsolated(t *testing.T) {
	engine, store, _ := newTestEngine(t, failingConverter{err: errors.New("rates unavailable")})
	host := uuid.New()
	seedRank(store, host, nil)

	monday := time.Date(2026, 3, 16, 8, 0, 0, 0, time.UTC)
	var last *models.Competition
	for i := 0; i < 5; i++ {
		last = createCompetition(t, store, host, monday, 500)
	}

	require.NoError(t, engine.OnCompetitionCreated(context.Background(), last.ID))

	granted := store.Achievements()
	require.Len(t, granted, 1)
	assert.Equal(t, models.AchievementRiskTaker, granted[0].Name)
}

func TestRuleTimeout(t *testing.T) {
	engine, store, _ := newTestEngine(t, blockingConverter{})
	host := uuid.New()
	seedRank(store, host, nil)
	c := createCompetition(t, store, host, time.Now(), 500)

	start := time.Now()
	require.NoError(t, engine.OnCompetitionCreated(context.Background(), c.ID))

	assert.Less(t, time.Since(start), 3*time.Second)
	assert.Empty(t, store.Achievements())
}

func TestOnCompetitionCreatedUnknownCompetition(t *testing.T) {
	engine, _, _ := newTestEngine(t, nil)
	err := engine.OnCompetitionCreated(context.Background(), uuid.New())
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestOnDepositGrantsRookieOnce(t *testing.T) {
	engine, store, _ := newTestEngine(t, nil)
	ctx := context.Background()
	user := uuid.New()
	seedRank(store, user, nil)

	require.NoError(t, engine.OnDeposit(ctx, user))
	require.NoError(t, engine.OnDeposit(ctx, user))

	granted := store.Achievements()
	require.Len(t, granted, 1)
	assert.Equal(t, models.AchievementRookie, granted[0].Name)
	assert.Nil(t, granted[0].CompetitionID)
	assert.Equal(t, 5, store.Rank(user).Points)
}

func TestGrantCommunityStarIsRepeatable(t *testing.T) {
	engine, store, notifier := newTestEngine(t, nil)
	ctx := context.Background()
	user := uuid.New()
	seedRank(store, user, nil)

	for i := 0; i < 2; i++ {
		a, err := engine.GrantCommunityStar(ctx, user, "moderator@example.com")
		require.NoError(t, err)
		assert.Equal(t, 15, a.Points)
	}

	assert.Len(t, store.Achievements(), 2)
	assert.Equal(t, 30, store.Rank(user).Points)
	notifier.AssertNumberOfCalls(t, "Notify", 2)

	listed, err := engine.ListByUser(ctx, user)
	require.NoError(t, err)
	assert.Len(t, listed, 2)

	_, err = engine.GrantCommunityStar(ctx, uuid.New(), "moderator@example.com")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestWindows(t *testing.T) {
	tests := []struct {
		name      string
		at        time.Time
		dayStart  time.Time
		weekStart time.Time
	}{
		{
			name:      "midweek",
			at:        time.Date(2026, 3, 18, 15, 30, 0, 0, time.UTC),
			dayStart:  time.Date(2026, 3, 18, 0, 0, 0, 0, time.UTC),
			weekStart: time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "sunday belongs to the week that started monday",
			at:        time.Date(2026, 3, 22, 23, 59, 0, 0, time.UTC),
			dayStart:  time.Date(2026, 3, 22, 0, 0, 0, 0, time.UTC),
			weekStart: time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "monday midnight",
			at:        time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC),
			dayStart:  time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC),
			weekStart: time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "non-UTC input is normalized",
			at:        time.Date(2026, 3, 16, 1, 0, 0, 0, time.FixedZone("CEST", 2*60*60)),
			dayStart:  time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
			weekStart: time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dayStart, dayEnd := dayWindow(tt.at)
			assert.Equal(t, tt.dayStart, dayStart)
			assert.Equal(t, tt.dayStart.AddDate(0, 0, 1), dayEnd)

			weekStart, weekEnd := weekWindow(tt.at)
			assert.Equal(t, tt.weekStart, weekStart)
			assert.Equal(t, tt.weekStart.AddDate(0, 0, 7), weekEnd)
		})
	}
}
