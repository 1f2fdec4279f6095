package competition

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/stakeleague/internal/metrics"
	"github.com/yourusername/stakeleague/internal/models"
	"github.com/yourusername/stakeleague/internal/repository"
)

// Pick is one candidate team in a join request
type Pick struct {
	TeamID  string `validate:"required"`
	Name    string
	Starred bool
}

// JoinRequest is a user's attempt to enter a competition with a set of picks
type JoinRequest struct {
	CompetitionID uuid.UUID `validate:"required"`
	UserID        uuid.UUID `validate:"required"`
	Picks         []Pick    `validate:"unique=TeamID,dive"`
}

// Join validates the request against the competition and commits the selection.
// A rejected join mutates nothing and returns a *JoinError.
func (s *Service) Join(ctx context.Context, req JoinRequest) error {
	err := s.join(ctx, req)

	result := "accepted"
	var je *JoinError
	if errors.As(err, &je) {
		result = string(je.Reason)
	} else if err != nil {
		result = string(ReasonInternal)
	}
	metrics.RecordJoin(result)

	entry := s.logger.WithFields(logrus.Fields{
		"competition_id": req.CompetitionID.String(),
		"user_id":        req.UserID.String(),
		"picks":          len(req.Picks),
	})
	if err != nil {
		entry.WithField("result", result).WithError(err).Info("Join rejected")
		return err
	}
	entry.Info("Join accepted")
	return nil
}

func (s *Service) join(ctx context.Context, req JoinRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return reject(ReasonInvalidRequest, err)
	}

	c, err := s.activeCompetition(ctx, req.CompetitionID)
	if err != nil {
		return err
	}

	if c.IsCapped() && c.Participant(req.UserID) == nil && len(c.Participants) >= c.ParticipantCap {
		return ErrCapacityExceeded
	}

	if n := len(req.Picks); n < c.MinTeams || n > c.MaxTeams {
		return reject(ReasonInvalidSelectionCount,
			fmt.Errorf("%d picks, competition allows %d to %d", n, c.MinTeams, c.MaxTeams))
	}

	star, err := starredPick(req.Picks)
	if err != nil {
		return err
	}

	taken, err := s.selections.StarTaken(ctx, c.ID, star, req.UserID)
	if err != nil {
		return reject(ReasonInternal, err)
	}
	if taken {
		return ErrStarAlreadyTaken
	}

	if c.Type == models.CompetitionTypeTopScore {
		if err := s.requireVerified(ctx, c.ID, req.UserID); err != nil {
			return err
		}
	}

	teams := make([]models.TeamPick, len(req.Picks))
	for i, p := range req.Picks {
		teams[i] = models.TeamPick{TeamID: p.TeamID, Name: p.Name}
	}

	err = s.competitions.Join(ctx, repository.JoinCommit{
		CompetitionID: c.ID,
		UserID:        req.UserID,
		Teams:         teams,
		StarTeam:      star,
		JoinedAt:      s.now(),
	})
	return commitError(err)
}

// activeCompetition loads a competition that still accepts entries
func (s *Service) activeCompetition(ctx context.Context, id uuid.UUID) (*models.Competition, error) {
	c, err := s.competitions.GetByID(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return nil, ErrNotFoundOrInactive
	}
	if err != nil {
		return nil, reject(ReasonInternal, err)
	}
	if !c.IsActive || c.IsSettled() {
		return nil, ErrNotFoundOrInactive
	}
	return c, nil
}

func starredPick(picks []Pick) (string, error) {
	var star string
	starred := 0
	for _, p := range picks {
		if p.Starred {
			star = p.TeamID
			starred++
		}
	}
	if starred != 1 {
		return "", reject(ReasonInvalidStarSelection, fmt.Errorf("%d starred picks, exactly one required", starred))
	}
	return star, nil
}

func (s *Service) requireVerified(ctx context.Context, competitionID, userID uuid.UUID) error {
	if s.cfg.TopScoreRequiredSteps == 0 {
		return nil
	}
	sel, err := s.selections.Get(ctx, competitionID, userID)
	if errors.Is(err, models.ErrNotFound) {
		return ErrVerificationIncomplete
	}
	if err != nil {
		return reject(ReasonInternal, err)
	}
	if !sel.StepsVerified {
		return reject(ReasonVerificationIncomplete,
			fmt.Errorf("%d of %d steps verified", sel.VerifiedSteps(), s.cfg.TopScoreRequiredSteps))
	}
	return nil
}

// commitError maps the authoritative repository checks onto join reasons
func commitError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, models.ErrStarTaken):
		return ErrStarAlreadyTaken
	case errors.Is(err, models.ErrCapacityReached):
		return ErrCapacityExceeded
	case errors.Is(err, models.ErrCompetitionClosed), errors.Is(err, models.ErrNotFound):
		return ErrNotFoundOrInactive
	case errors.Is(err, models.ErrDuplicateKey):
		return ErrAlreadyEntered
	default:
		return reject(ReasonInternal, err)
	}
}
