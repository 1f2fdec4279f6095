package repository

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/yourusername/stakeleague/internal/models"
)

type selectionKey struct {
	competitionID uuid.UUID
	userID        uuid.UUID
}

// MemoryStore is an in-process implementation of every repository.
// It enforces the same uniqueness rules as the Postgres schema and is used by service tests
// and local dry runs.
type MemoryStore struct {
	mu           sync.Mutex
	competitions map[uuid.UUID]*models.Competition
	selections   map[selectionKey]*models.TeamSelection
	ranks        map[uuid.UUID]*models.Rank
	achievements []*models.Achievement
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		competitions: make(map[uuid.UUID]*models.Competition),
		selections:   make(map[selectionKey]*models.TeamSelection),
		ranks:        make(map[uuid.UUID]*models.Rank),
	}
}

// Repositories exposes the store through the repository interfaces
func (m *MemoryStore) Repositories() *Repositories {
	return &Repositories{
		Tx:            m,
		Competition:   &memoryCompetitionRepository{m},
		TeamSelection: &memoryTeamSelectionRepository{m},
		Rank:          &memoryRankRepository{m},
		Settlement:    &memorySettlementRepository{m},
		Achievement:   &memoryAchievementRepository{m},
	}
}

// WithTransaction runs fn directly. Each memory operation is atomic on its own.
func (m *MemoryStore) WithTransaction(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

// PutRank stores a copy of r, replacing any rank for the same user
func (m *MemoryStore) PutRank(r *models.Rank) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	m.ranks[r.UserID] = &cp
}

// Rank returns a copy of the user's rank or nil
func (m *MemoryStore) Rank(userID uuid.UUID) *models.Rank {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.ranks[userID]
	if !ok {
		return nil
	}
	cp := *r
	return &cp
}

// Achievements returns every stored achievement in insertion order
func (m *MemoryStore) Achievements() []models.Achievement {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Achievement, len(m.achievements))
	for i, a := range m.achievements {
		out[i] = *a
	}
	return out
}

func copyCompetition(c *models.Competition) *models.Competition {
	cp := *c
	cp.Participants = append([]models.Participant(nil), c.Participants...)
	cp.Winners = append([]uuid.UUID(nil), c.Winners...)
	return &cp
}

func copySelection(s *models.TeamSelection) *models.TeamSelection {
	cp := *s
	cp.Teams = append([]models.TeamPick(nil), s.Teams...)
	cp.TeamPoints = append([]models.TeamPoints(nil), s.TeamPoints...)
	cp.Proofs = append([]models.Proof(nil), s.Proofs...)
	if s.StarTeam != nil {
		star := *s.StarTeam
		cp.StarTeam = &star
	}
	return &cp
}

type memoryCompetitionRepository struct{ m *MemoryStore }

func (r *memoryCompetitionRepository) Create(_ context.Context, c *models.Competition) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.competitions[c.ID]; ok {
		return models.ErrDuplicateKey
	}
	r.m.competitions[c.ID] = copyCompetition(c)
	return nil
}

func (r *memoryCompetitionRepository) GetByID(_ context.Context, id uuid.UUID) (*models.Competition, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	c, ok := r.m.competitions[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return copyCompetition(c), nil
}

func (r *memoryCompetitionRepository) SetWinners(_ context.Context, id uuid.UUID, winners []uuid.UUID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	c, ok := r.m.competitions[id]
	if !ok {
		return models.ErrNotFound
	}
	if c.IsSettled() {
		return models.ErrAlreadySettled
	}
	c.Winners = append([]uuid.UUID(nil), winners...)
	c.IsActive = false
	return nil
}

func (r *memoryCompetitionRepository) CountCreatedBetween(_ context.Context, creatorID uuid.UUID, start, end time.Time) (int, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	count := 0
	for _, c := range r.m.competitions {
		if c.CreatorID == creatorID && !c.CreatedAt.Before(start) && c.CreatedAt.Before(end) {
			count++
		}
	}
	return count, nil
}

func (r *memoryCompetitionRepository) SumHostContributionsBetween(_ context.Context, creatorID uuid.UUID, start, end time.Time) (decimal.Decimal, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	total := decimal.Zero
	for _, c := range r.m.competitions {
		if c.CreatorID == creatorID && !c.CreatedAt.Before(start) && c.CreatedAt.Before(end) {
			total = total.Add(c.HostContribution)
		}
	}
	return total, nil
}

// admit mirrors the row lock and capacity re-check; the caller holds mu
func (r *memoryCompetitionRepository) admit(competitionID, userID uuid.UUID) (*models.Competition, error) {
	c, ok := r.m.competitions[competitionID]
	if !ok {
		return nil, models.ErrNotFound
	}
	if !c.IsActive {
		return nil, models.ErrCompetitionClosed
	}
	if c.IsCapped() && c.Participant(userID) == nil && len(c.Participants) >= c.ParticipantCap {
		return nil, models.ErrCapacityReached
	}
	return c, nil
}

func (r *memoryCompetitionRepository) Join(_ context.Context, commit JoinCommit) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	c, err := r.admit(commit.CompetitionID, commit.UserID)
	if err != nil {
		return err
	}

	for key, s := range r.m.selections {
		if key.competitionID == commit.CompetitionID && key.userID != commit.UserID &&
			s.StarTeam != nil && *s.StarTeam == commit.StarTeam {
			return models.ErrStarTaken
		}
	}

	key := selectionKey{commit.CompetitionID, commit.UserID}
	sel, ok := r.m.selections[key]
	if !ok {
		sel = &models.TeamSelection{ID: uuid.New(), CompetitionID: commit.CompetitionID, UserID: commit.UserID, CreatedAt: commit.JoinedAt}
		r.m.selections[key] = sel
	}
	star := commit.StarTeam
	sel.Teams = append([]models.TeamPick(nil), commit.Teams...)
	sel.StarTeam = &star
	sel.TeamPoints = make([]models.TeamPoints, len(commit.Teams))
	for i, t := range commit.Teams {
		sel.TeamPoints[i] = models.TeamPoints{TeamID: t.TeamID}
	}
	sel.TotalPoints = 0
	sel.UpdatedAt = commit.JoinedAt

	joinedAt := commit.JoinedAt
	if p := c.Participant(commit.UserID); p != nil {
		p.Status = models.ParticipantJoined
		p.JoinedAt = &joinedAt
	} else {
		c.Participants = append(c.Participants, models.Participant{
			UserID: commit.UserID, Status: models.ParticipantJoined, JoinedAt: &joinedAt,
		})
	}
	c.UpdatedAt = commit.JoinedAt
	return nil
}

func (r *memoryCompetitionRepository) StakeEntry(_ context.Context, commit StakeCommit) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	c, err := r.admit(commit.CompetitionID, commit.UserID)
	if err != nil {
		return err
	}
	if c.Participant(commit.UserID) != nil {
		return models.ErrDuplicateKey
	}

	c.Participants = append(c.Participants, models.Participant{UserID: commit.UserID, Status: models.ParticipantPending})

	key := selectionKey{commit.CompetitionID, commit.UserID}
	sel, ok := r.m.selections[key]
	if !ok {
		sel = &models.TeamSelection{ID: uuid.New(), CompetitionID: commit.CompetitionID, UserID: commit.UserID, CreatedAt: commit.EnteredAt}
		r.m.selections[key] = sel
	}
	sel.StakedAmount = commit.Amount
	sel.UpdatedAt = commit.EnteredAt
	return nil
}

type memoryTeamSelectionRepository struct{ m *MemoryStore }

func (r *memoryTeamSelectionRepository) Get(_ context.Context, competitionID, userID uuid.UUID) (*models.TeamSelection, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	s, ok := r.m.selections[selectionKey{competitionID, userID}]
	if !ok {
		return nil, models.ErrNotFound
	}
	return copySelection(s), nil
}

func (r *memoryTeamSelectionRepository) StarTaken(_ context.Context, competitionID uuid.UUID, starTeam string, excludeUserID uuid.UUID) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for key, s := range r.m.selections {
		if key.competitionID == competitionID && key.userID != excludeUserID && s.StarTeam != nil && *s.StarTeam == starTeam {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryTeamSelectionRepository) SaveProofs(_ context.Context, s *models.TeamSelection) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	key := selectionKey{s.CompetitionID, s.UserID}
	existing, ok := r.m.selections[key]
	if !ok {
		cp := copySelection(s)
		if cp.ID == uuid.Nil {
			cp.ID = uuid.New()
		}
		r.m.selections[key] = cp
		return nil
	}
	existing.Proofs = append([]models.Proof(nil), s.Proofs...)
	existing.StepsVerified = s.StepsVerified
	existing.UpdatedAt = s.UpdatedAt
	return nil
}

type memoryRankRepository struct{ m *MemoryStore }

func (r *memoryRankRepository) Seed(_ context.Context, userID uuid.UUID, country string, now time.Time) (*models.Rank, bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if existing, ok := r.m.ranks[userID]; ok {
		cp := *existing
		return &cp, false, nil
	}

	inCountry := 0
	for _, rank := range r.m.ranks {
		if rank.CountryRank.Country == country {
			inCountry++
		}
	}

	rank := models.NewSeededRank(userID, country, len(r.m.ranks)+1, inCountry+1, now)
	r.m.ranks[userID] = rank
	cp := *rank
	return &cp, true, nil
}

func (r *memoryRankRepository) GetByUserID(_ context.Context, userID uuid.UUID) (*models.Rank, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	rank, ok := r.m.ranks[userID]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *rank
	return &cp, nil
}

func (r *memoryRankRepository) Scan(ctx context.Context, after uuid.UUID, limit int) ([]models.RankSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	ids := make([]uuid.UUID, 0, len(r.m.ranks))
	for id := range r.m.ranks {
		if bytes.Compare(id[:], after[:]) > 0 {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return bytes.Compare(ids[i][:], ids[j][:]) < 0 })
	if len(ids) > limit {
		ids = ids[:limit]
	}

	page := make([]models.RankSnapshot, len(ids))
	for i, id := range ids {
		page[i] = r.m.ranks[id].Snapshot()
	}
	return page, nil
}

func (r *memoryRankRepository) UpdatePositions(ctx context.Context, positions []models.RankPositions) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	var affected int64
	for i := range positions {
		if rank, ok := r.m.ranks[positions[i].UserID]; ok {
			positions[i].Apply(rank)
			affected++
		}
	}
	return affected, nil
}

func (r *memoryRankRepository) Count(context.Context) (int, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return len(r.m.ranks), nil
}

type memorySettlementRepository struct{ m *MemoryStore }

func (r *memorySettlementRepository) ApplyOutcome(_ context.Context, o *models.SettlementOutcome) error {
	if o.Category.Column() == "" {
		return fmt.Errorf("unknown rank category %q", o.Category)
	}

	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	c, ok := r.m.competitions[o.CompetitionID]
	if !ok {
		return models.ErrNotFound
	}
	if c.IsSettled() {
		return models.ErrAlreadySettled
	}
	settledAt := o.SettledAt
	c.SettledAt = &settledAt
	c.IsActive = false

	var updated []uuid.UUID
	for _, id := range o.Winners {
		if rank, ok := r.m.ranks[id]; ok {
			o.ApplyWin(rank)
			updated = append(updated, id)
		}
	}
	for _, id := range o.Losers {
		if rank, ok := r.m.ranks[id]; ok {
			o.ApplyLoss(rank)
			updated = append(updated, id)
		}
	}
	o.RecordMissing(updated)
	return nil
}

type memoryAchievementRepository struct{ m *MemoryStore }

func (r *memoryAchievementRepository) Grant(_ context.Context, a *models.Achievement) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if !a.Name.Repeatable() {
		for _, existing := range r.m.achievements {
			if existing.UserID == a.UserID && existing.Name == a.Name {
				return false, nil
			}
		}
	}

	rank, ok := r.m.ranks[a.UserID]
	if !ok {
		return false, fmt.Errorf("rank for user %s: %w", a.UserID, models.ErrNotFound)
	}

	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	cp := *a
	r.m.achievements = append(r.m.achievements, &cp)
	rank.Points += a.Points
	if a.Name == models.AchievementFirstWin {
		rank.FirstWin = true
	}
	return true, nil
}

func (r *memoryAchievementRepository) Has(_ context.Context, userID uuid.UUID, name models.AchievementName) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, a := range r.m.achievements {
		if a.UserID == userID && a.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryAchievementRepository) ListByUser(_ context.Context, userID uuid.UUID) ([]*models.Achievement, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*models.Achievement
	for i := len(r.m.achievements) - 1; i >= 0; i-- {
		if a := r.m.achievements[i]; a.UserID == userID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}
