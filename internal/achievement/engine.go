// Package achievement evaluates reward rules. Rules are independent and idempotent: the
// (user, name) uniqueness guard in the store turns a repeated grant into a no-op, and a failing
// rule is logged and skipped without affecting the others.
package achievement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/stakeleague/internal/config"
	"github.com/yourusername/stakeleague/internal/logger"
	"github.com/yourusername/stakeleague/internal/metrics"
	"github.com/yourusername/stakeleague/internal/models"
	"github.com/yourusername/stakeleague/internal/notification"
	"github.com/yourusername/stakeleague/internal/repository"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentRules bounds the fan-out of one evaluation call
const maxConcurrentRules = 8

// Converter turns an amount into the currency the thresholds are expressed in
type Converter interface {
	Convert(ctx context.Context, amount decimal.Decimal) (decimal.Decimal, error)
}

// Engine runs achievement rules
type Engine struct {
	achievements repository.AchievementRepository
	ranks        repository.RankRepository
	competitions repository.CompetitionRepository
	fx           Converter
	notifier     notification.Notifier
	cfg          config.AchievementsConfig
	log          *logger.AchievementLogger
	audit        *logger.AuditLogger
	now          func() time.Time
}

// NewEngine creates an achievement engine
func NewEngine(
	repos *repository.Repositories,
	fx Converter,
	notifier notification.Notifier,
	cfg config.AchievementsConfig,
	log *logrus.Logger,
) *Engine {
	return &Engine{
		achievements: repos.Achievement,
		ranks:        repos.Rank,
		competitions: repos.Competition,
		fx:           fx,
		notifier:     notifier,
		cfg:          cfg,
		log:          logger.NewAchievementLogger(log),
		audit:        logger.NewAuditLogger(log),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// EvaluateWinners runs every winner rule for every winner of a settled competition concurrently.
// It returns once all evaluations finished; rule failures are logged, never returned.
func (e *Engine) EvaluateWinners(ctx context.Context, c *models.Competition) {
	var subjects []Subject
	for _, w := range c.Winners {
		subjects = append(subjects, Subject{UserID: w, Competition: c})
	}
	e.fanOut(ctx, subjects, e.winnerRules())
}

// OnCompetitionCreated runs the host rules for the creator of a competition.
// Only a failed competition lookup is returned.
func (e *Engine) OnCompetitionCreated(ctx context.Context, competitionID uuid.UUID) error {
	c, err := e.competitions.GetByID(ctx, competitionID)
	if err != nil {
		return fmt.Errorf("failed to load competition %s: %w", competitionID, err)
	}
	e.fanOut(ctx, []Subject{{UserID: c.CreatorID, Competition: c}}, e.hostRules())
	return nil
}

// OnDeposit grants the deposit achievement. Only the first deposit is ever rewarded.
func (e *Engine) OnDeposit(ctx context.Context, userID uuid.UUID) error {
	rookie := Rule{
		Name:     models.AchievementRookie,
		Eligible: func(context.Context, Subject) (bool, error) { return true, nil },
	}
	e.evaluate(ctx, Subject{UserID: userID}, rookie)
	return nil
}

// GrantCommunityStar records a manual CommunityStar award. It may be granted any number of times.
func (e *Engine) GrantCommunityStar(ctx context.Context, userID uuid.UUID, grantedBy string) (*models.Achievement, error) {
	def, _ := Lookup(models.AchievementCommunityStar)
	a := def.Achievement(userID, nil, e.now())

	if _, err := e.achievements.Grant(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to grant %s: %w", def.Name, err)
	}

	e.audit.LogManualGrant(userID, string(def.Name), def.Points, grantedBy)
	metrics.RecordAchievementGranted(string(def.Name))
	e.notify(ctx, a)
	return a, nil
}

func (e *Engine) fanOut(ctx context.Context, subjects []Subject, rules []Rule) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentRules)

	for _, s := range subjects {
		for _, r := range rules {
			g.Go(func() error {
				e.evaluate(ctx, s, r)
				return nil
			})
		}
	}
	_ = g.Wait()
}

// evaluate runs one rule under its own timeout and grants on success. Errors stop here.
func (e *Engine) evaluate(ctx context.Context, s Subject, r Rule) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.RuleTimeout())
	defer cancel()

	start := time.Now()
	err := e.apply(ctx, s, r)
	metrics.RecordAchievementRule(string(r.Name), time.Since(start).Seconds(), err != nil)
	if err != nil {
		e.log.LogRuleFailed(s.UserID.String(), string(r.Name), err)
	}
}

func (e *Engine) apply(ctx context.Context, s Subject, r Rule) error {
	def, ok := Lookup(r.Name)
	if !ok {
		return fmt.Errorf("unknown achievement %q", r.Name)
	}

	if !r.Name.Repeatable() {
		has, err := e.achievements.Has(ctx, s.UserID, r.Name)
		if err != nil {
			return err
		}
		if has {
			e.log.LogAlreadyGranted(s.UserID.String(), string(r.Name))
			return nil
		}
	}

	eligible, err := r.Eligible(ctx, s)
	if err != nil || !eligible {
		return err
	}

	var competitionID *uuid.UUID
	if s.Competition != nil {
		id := s.Competition.ID
		competitionID = &id
	}
	a := def.Achievement(s.UserID, competitionID, e.now())

	granted, err := e.achievements.Grant(ctx, a)
	if err != nil {
		return err
	}
	if !granted {
		e.log.LogAlreadyGranted(s.UserID.String(), string(r.Name))
		return nil
	}

	e.log.LogGranted(s.UserID.String(), string(r.Name), def.Points)
	metrics.RecordAchievementGranted(string(r.Name))
	e.notify(ctx, a)
	return nil
}

func (e *Engine) notify(ctx context.Context, a *models.Achievement) {
	e.notifier.Notify(ctx, notification.Notification{
		UserID:  a.UserID,
		Type:    notification.TypeAchievement,
		Title:   fmt.Sprintf("Achievement unlocked: %s", a.Name),
		Message: fmt.Sprintf("%s (+%d points)", a.Description, a.Points),
	})
}

// ListByUser returns a user's achievements, newest first
func (e *Engine) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Achievement, error) {
	return e.achievements.ListByUser(ctx, userID)
}
