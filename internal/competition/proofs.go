package competition

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/stakeleague/internal/models"
)

// RecordProof stores the location of an uploaded proof for a TopScore entry.
// Re-uploading a step replaces it and clears its verification.
func (s *Service) RecordProof(ctx context.Context, competitionID, userID uuid.UUID, stepID, url string) (*models.TeamSelection, error) {
	proof := models.Proof{StepID: stepID, URL: url}
	if err := s.validate.Struct(proof); err != nil {
		return nil, reject(ReasonInvalidRequest, err)
	}

	sel, err := s.topScoreSelection(ctx, competitionID, userID, true)
	if err != nil {
		return nil, err
	}

	sel.UpsertProof(proof)
	if err := s.saveProofs(ctx, sel); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"competition_id": competitionID.String(),
		"user_id":        userID.String(),
		"step_id":        stepID,
	}).Debug("Proof recorded")
	return sel, nil
}

// VerifyProof marks a recorded step verified
func (s *Service) VerifyProof(ctx context.Context, competitionID, userID uuid.UUID, stepID string) (*models.TeamSelection, error) {
	sel, err := s.topScoreSelection(ctx, competitionID, userID, false)
	if err != nil {
		return nil, err
	}

	found := false
	for i := range sel.Proofs {
		if sel.Proofs[i].StepID == stepID {
			sel.Proofs[i].Verified = true
			found = true
		}
	}
	if !found {
		return nil, reject(ReasonProofNotFound, fmt.Errorf("no proof for step %q", stepID))
	}

	if err := s.saveProofs(ctx, sel); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"competition_id": competitionID.String(),
		"user_id":        userID.String(),
		"step_id":        stepID,
		"steps_verified": sel.StepsVerified,
	}).Info("Proof verified")
	return sel, nil
}

// topScoreSelection loads the user's selection for an active TopScore competition.
// With create set, a missing selection starts empty.
func (s *Service) topScoreSelection(ctx context.Context, competitionID, userID uuid.UUID, create bool) (*models.TeamSelection, error) {
	c, err := s.activeCompetition(ctx, competitionID)
	if err != nil {
		return nil, err
	}
	if c.Type != models.CompetitionTypeTopScore {
		return nil, reject(ReasonWrongCompetitionType, fmt.Errorf("proofs are only used by TopScore, not %s", c.Type))
	}

	sel, err := s.selections.Get(ctx, competitionID, userID)
	switch {
	case errors.Is(err, models.ErrNotFound) && create:
		now := s.now()
		return &models.TeamSelection{CompetitionID: competitionID, UserID: userID, CreatedAt: now, UpdatedAt: now}, nil
	case errors.Is(err, models.ErrNotFound):
		return nil, reject(ReasonProofNotFound, err)
	case err != nil:
		return nil, reject(ReasonInternal, err)
	}
	return sel, nil
}

func (s *Service) saveProofs(ctx context.Context, sel *models.TeamSelection) error {
	if sel.Proofs == nil {
		sel.Proofs = []models.Proof{}
	}
	sel.StepsVerified = sel.VerifiedSteps() >= s.cfg.TopScoreRequiredSteps
	sel.UpdatedAt = s.now()
	if err := s.selections.SaveProofs(ctx, sel); err != nil {
		return reject(ReasonInternal, err)
	}
	return nil
}
