package competition

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
	"github.com/yourusername/stakeleague/internal/models"
	"github.com/yourusername/stakeleague/internal/repository"
	"github.com/yourusername/stakeleague/internal/wallet"
)

// MockWallet mocks the wallet client
type MockWallet struct {
	mock.Mock
}

func (m *MockWallet) Credit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, reference string) error {
	args := m.Called(ctx, userID, amount, reference)
	return args.Error(0)
}

func (m *MockWallet) Debit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, reference string) error {
	args := m.Called(ctx, userID, amount, reference)
	return args.Error(0)
}

// MockPublisher mocks the queue publisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) EnqueueCompetitionCreated(ctx context.Context, competitionID uuid.UUID) error {
	return m.Called(ctx, competitionID).Error(0)
}

func (m *MockPublisher) EnqueueSettlement(ctx context.Context, competitionID uuid.UUID) error {
	return m.Called(ctx, competitionID).Error(0)
}

func (m *MockPublisher) EnqueueDepositRecorded(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) error {
	return m.Called(ctx, userID, amount).Error(0)
}

func (m *MockPublisher) EnqueueUserRegistered(ctx context.Context, userID uuid.UUID, country string) error {
	return m.Called(ctx, userID, country).Error(0)
}

type fixture struct {
	store     *repository.MemoryStore
	repos     *repository.Repositories
	wallet    *MockWallet
	publisher *MockPublisher
	service   *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	store := repository.NewMemoryStore()
	repos := store.Repositories()
	w := &MockWallet{}
	p := &MockPublisher{}

	svc := NewService(repos, w, p, config.CompetitionConfig{TopScoreRequiredSteps: 2}, log)
	svc.now = func() time.Time { return time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC) }

	return &fixture{store: store, repos: repos, wallet: w, publisher: p, service: svc}
}

func (f *fixture) competition(t *testing.T, typ models.CompetitionType, capacity int, participants ...uuid.UUID) *models.Competition {
	t.Helper()

	c := &models.Competition{
		ID:             uuid.New(),
		Type:           typ,
		CreatorID:      uuid.New(),
		MinTeams:       2,
		MaxTeams:       3,
		ParticipantCap: capacity,
		PrizePool:      decimal.NewFromInt(100),
		IsActive:       true,
		CreatedAt:      time.Now(),
	}
	for _, id := range participants {
		c.Participants = append(c.Participants, models.Participant{UserID: id, Status: models.ParticipantJoined})
	}
	require.NoError(t, f.repos.Competition.Create(context.Background(), c))
	return c
}

func picks(star string, ids ...string) []Pick {
	out := make([]Pick, len(ids))
	for i, id := range ids {
		out[i] = Pick{TeamID: id, Name: "Team " + id, Starred: id == star}
	}
	return out
}

func TestJoin(t *testing.T) {
	tests := []struct {
		name     string
		typ      models.CompetitionType
		capacity int
		full     bool
		inactive bool
		picks    []Pick
		wantErr  error
	}{
		{name: "valid join", typ: models.CompetitionTypeLeague, picks: picks("a", "a", "b")},
		{name: "too few picks", typ: models.CompetitionTypeLeague, picks: picks("a", "a"), wantErr: ErrInvalidSelectionCount},
		{name: "too many picks", typ: models.CompetitionTypeLeague, picks: picks("a", "a", "b", "c", "d"), wantErr: ErrInvalidSelectionCount},
		{name: "no star", typ: models.CompetitionTypeLeague, picks: picks("", "a", "b"), wantErr: ErrInvalidStarSelection},
		{name: "two stars", typ: models.CompetitionTypeLeague, picks: []Pick{{TeamID: "a", Starred: true}, {TeamID: "b", Starred: true}}, wantErr: ErrInvalidStarSelection},
		{name: "duplicate teams", typ: models.CompetitionTypeLeague, picks: []Pick{{TeamID: "a", Starred: true}, {TeamID: "a"}}, wantErr: ErrInvalidRequest},
		{name: "full competition", typ: models.CompetitionTypeLeague, capacity: 1, full: true, picks: picks("a", "a", "b"), wantErr: ErrCapacityExceeded},
		{name: "inactive competition", typ: models.CompetitionTypeLeague, inactive: true, picks: picks("a", "a", "b"), wantErr: ErrNotFoundOrInactive},
		{name: "top score without proofs", typ: models.CompetitionTypeTopScore, picks: picks("a", "a", "b"), wantErr: ErrVerificationIncomplete},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()

			var existing []uuid.UUID
			if tt.full {
				existing = append(existing, uuid.New())
			}
			c := f.competition(t, tt.typ, tt.capacity, existing...)
			if tt.inactive {
				require.NoError(t, f.repos.Competition.SetWinners(ctx, c.ID, nil))
			}

			user := uuid.New()
			err := f.service.Join(ctx, JoinRequest{CompetitionID: c.ID, UserID: user, Picks: tt.picks})
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)

				_, getErr := f.repos.TeamSelection.Get(ctx, c.ID, user)
				assert.ErrorIs(t, getErr, models.ErrNotFound, "rejected join must not write a selection")
				return
			}

			require.NoError(t, err)
			sel, err := f.repos.TeamSelection.Get(ctx, c.ID, user)
			require.NoError(t, err)
			require.NotNil(t, sel.StarTeam)
			assert.Equal(t, "a", *sel.StarTeam)
			assert.Len(t, sel.TeamPoints, len(tt.picks))

			stored, err := f.repos.Competition.GetByID(ctx, c.ID)
			require.NoError(t, err)
			p := stored.Participant(user)
			require.NotNil(t, p)
			assert.Equal(t, models.ParticipantJoined, p.Status)
		})
	}
}

func TestJoinUnknownCompetition(t *testing.T) {
	f := newFixture(t)

	err := f.service.Join(context.Background(), JoinRequest{
		CompetitionID: uuid.New(), UserID: uuid.New(), Picks: picks("a", "a", "b"),
	})

	assert.ErrorIs(t, err, ErrNotFoundOrInactive)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestJoinStarAlreadyTaken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.competition(t, models.CompetitionTypeLeague, 0)

	require.NoError(t, f.service.Join(ctx, JoinRequest{CompetitionID: c.ID, UserID: uuid.New(), Picks: picks("a", "a", "b")}))

	err := f.service.Join(ctx, JoinRequest{CompetitionID: c.ID, UserID: uuid.New(), Picks: picks("a", "a", "c")})
	assert.ErrorIs(t, err, ErrStarAlreadyTaken)
	assert.Equal(t, KindPreconditionFailure, KindOf(err))
}

func TestJoinSameUserCanChangeStar(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.competition(t, models.CompetitionTypeLeague, 1)
	user := uuid.New()

	require.NoError(t, f.service.Join(ctx, JoinRequest{CompetitionID: c.ID, UserID: user, Picks: picks("a", "a", "b")}))
	// rejoining a full competition as an existing participant is not a new entrant
	require.NoError(t, f.service.Join(ctx, JoinRequest{CompetitionID: c.ID, UserID: user, Picks: picks("b", "a", "b")}))

	sel, err := f.repos.TeamSelection.Get(ctx, c.ID, user)
	require.NoError(t, err)
	assert.Equal(t, "b", *sel.StarTeam)

	stored, err := f.repos.Competition.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Participants, 1)
}

func TestConcurrentJoinsHonorStarAndCapacity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.competition(t, models.CompetitionTypeLeague, 3)

	const joiners = 10
	errs := make([]error, joiners)
	var wg sync.WaitGroup
	for i := 0; i < joiners; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = f.service.Join(ctx, JoinRequest{
				CompetitionID: c.ID,
				UserID:        uuid.New(),
				Picks:         picks("star", "star", string(rune('a'+i))),
			})
		}(i)
	}
	wg.Wait()

	accepted := 0
	for _, err := range errs {
		if err == nil {
			accepted++
			continue
		}
		assert.True(t, errors.Is(err, ErrStarAlreadyTaken) || errors.Is(err, ErrCapacityExceeded), err)
	}
	assert.Equal(t, 1, accepted)

	stored, err := f.repos.Competition.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(stored.Participants), c.ParticipantCap)
}

func TestConcurrentJoinsNeverExceedCapacity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.competition(t, models.CompetitionTypeLeague, 4)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			star := string(rune('a' + i))
			_ = f.service.Join(ctx, JoinRequest{
				CompetitionID: c.ID,
				UserID:        uuid.New(),
				Picks:         []Pick{{TeamID: star, Starred: true}, {TeamID: "shared"}},
			})
		}(i)
	}
	wg.Wait()

	stored, err := f.repos.Competition.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Participants, 4)
}

func TestTopScoreJoinAfterVerification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.competition(t, models.CompetitionTypeTopScore, 0)
	user := uuid.New()

	_, err := f.service.RecordProof(ctx, c.ID, user, "step-1", "https://proofs.example.com/1.png")
	require.NoError(t, err)
	_, err = f.service.RecordProof(ctx, c.ID, user, "step-2", "https://proofs.example.com/2.png")
	require.NoError(t, err)

	sel, err := f.service.VerifyProof(ctx, c.ID, user, "step-1")
	require.NoError(t, err)
	assert.False(t, sel.StepsVerified)

	err = f.service.Join(ctx, JoinRequest{CompetitionID: c.ID, UserID: user, Picks: picks("a", "a", "b")})
	assert.ErrorIs(t, err, ErrVerificationIncomplete)

	sel, err = f.service.VerifyProof(ctx, c.ID, user, "step-2")
	require.NoError(t, err)
	assert.True(t, sel.StepsVerified)

	require.NoError(t, f.service.Join(ctx, JoinRequest{CompetitionID: c.ID, UserID: user, Picks: picks("a", "a", "b")}))

	stored, err := f.repos.TeamSelection.Get(ctx, c.ID, user)
	require.NoError(t, err)
	assert.Len(t, stored.Proofs, 2)
	assert.True(t, stored.StepsVerified)
}

func TestRecordProofReuploadClearsVerification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.competition(t, models.CompetitionTypeTopScore, 0)
	user := uuid.New()

	for _, step := range []string{"s1", "s2"} {
		_, err := f.service.RecordProof(ctx, c.ID, user, step, "https://proofs.example.com/"+step)
		require.NoError(t, err)
		_, err = f.service.VerifyProof(ctx, c.ID, user, step)
		require.NoError(t, err)
	}

	sel, err := f.service.RecordProof(ctx, c.ID, user, "s2", "https://proofs.example.com/s2-new")
	require.NoError(t, err)
	assert.False(t, sel.StepsVerified)
	assert.Equal(t, 1, sel.VerifiedSteps())
}

func TestProofValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	topScore := f.competition(t, models.CompetitionTypeTopScore, 0)
	league := f.competition(t, models.CompetitionTypeLeague, 0)
	user := uuid.New()

	_, err := f.service.RecordProof(ctx, topScore.ID, user, "s1", "not a url")
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = f.service.RecordProof(ctx, league.ID, user, "s1", "https://proofs.example.com/1")
	assert.ErrorIs(t, err, ErrWrongCompetitionType)

	_, err = f.service.VerifyProof(ctx, topScore.ID, user, "s1")
	assert.ErrorIs(t, err, ErrProofNotFound)
}

func TestStakeEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.competition(t, models.CompetitionTypeManGoSet, 0)
	user := uuid.New()
	amount := decimal.NewFromInt(25)
	attempt := uuid.New()
	f.service.newID = func() uuid.UUID { return attempt }

	f.wallet.On("Debit", mock.Anything, user, amount, stakeReference(c.ID, user, attempt)).Return(nil).Once()

	require.NoError(t, f.service.StakeEntry(ctx, StakeRequest{CompetitionID: c.ID, UserID: user, Amount: amount}))

	stored, err := f.repos.Competition.GetByID(ctx, c.ID)
	require.NoError(t, err)
	p := stored.Participant(user)
	require.NotNil(t, p)
	assert.Equal(t, models.ParticipantPending, p.Status)

	sel, err := f.repos.TeamSelection.Get(ctx, c.ID, user)
	require.NoError(t, err)
	assert.True(t, amount.Equal(sel.StakedAmount))

	// teams supplied later through a normal join promote the entry
	require.NoError(t, f.service.Join(ctx, JoinRequest{CompetitionID: c.ID, UserID: user, Picks: picks("x", "x", "y")}))
	stored, err = f.repos.Competition.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ParticipantJoined, stored.Participant(user).Status)

	err = f.service.StakeEntry(ctx, StakeRequest{CompetitionID: c.ID, UserID: user, Amount: amount})
	assert.ErrorIs(t, err, ErrAlreadyEntered)

	f.wallet.AssertExpectations(t)
}

func TestStakeEntryRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	league := f.competition(t, models.CompetitionTypeLeague, 0)
	manGoSet := f.competition(t, models.CompetitionTypeManGoSet, 0)
	user := uuid.New()

	err := f.service.StakeEntry(ctx, StakeRequest{CompetitionID: manGoSet.ID, UserID: user, Amount: decimal.Zero})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	err = f.service.StakeEntry(ctx, StakeRequest{CompetitionID: league.ID, UserID: user, Amount: decimal.NewFromInt(5)})
	assert.ErrorIs(t, err, ErrWrongCompetitionType)

	f.wallet.On("Debit", mock.Anything, user, mock.Anything, mock.Anything).
		Return(wallet.ErrInsufficientBalance).Once()
	err = f.service.StakeEntry(ctx, StakeRequest{CompetitionID: manGoSet.ID, UserID: user, Amount: decimal.NewFromInt(5)})
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	stored, err := f.repos.Competition.GetByID(ctx, manGoSet.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.Participant(user))
}

func TestStakeEntryRefundsWhenCommitFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.competition(t, models.CompetitionTypeManGoSet, 0)
	user := uuid.New()
	amount := decimal.NewFromInt(10)
	attempt := uuid.New()
	f.service.newID = func() uuid.UUID { return attempt }

	// the competition closes between the validation read and the commit
	f.wallet.On("Debit", mock.Anything, user, amount, stakeReference(c.ID, user, attempt)).Return(nil).Run(func(mock.Arguments) {
		require.NoError(t, f.repos.Competition.SetWinners(ctx, c.ID, nil))
	}).Once()
	f.wallet.On("Credit", mock.Anything, user, amount, refundReference(c.ID, user, attempt)).Return(nil).Once()

	err := f.service.StakeEntry(ctx, StakeRequest{CompetitionID: c.ID, UserID: user, Amount: amount})
	assert.ErrorIs(t, err, ErrNotFoundOrInactive)
	f.wallet.AssertExpectations(t)
}

// ledgerWallet applies each reference at most once, like the wallet service
type ledgerWallet struct {
	mu       sync.Mutex
	balances map[uuid.UUID]decimal.Decimal
	applied  map[string]bool
}

func newLedgerWallet(user uuid.UUID, balance decimal.Decimal) *ledgerWallet {
	return &ledgerWallet{
		balances: map[uuid.UUID]decimal.Decimal{user: balance},
		applied:  make(map[string]bool),
	}
}

func (l *ledgerWallet) Credit(_ context.Context, userID uuid.UUID, amount decimal.Decimal, reference string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.applied[reference] {
		return nil
	}
	l.applied[reference] = true
	l.balances[userID] = l.balances[userID].Add(amount)
	return nil
}

func (l *ledgerWallet) Debit(_ context.Context, userID uuid.UUID, amount decimal.Decimal, reference string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.applied[reference] {
		return nil
	}
	if l.balances[userID].LessThan(amount) {
		return wallet.ErrInsufficientBalance
	}
	l.applied[reference] = true
	l.balances[userID] = l.balances[userID].Sub(amount)
	return nil
}

func (l *ledgerWallet) Balance(userID uuid.UUID) decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[userID]
}

// flakyStakeCommits fails the first n stake commits
type flakyStakeCommits struct {
	repository.CompetitionRepository
	mu   sync.Mutex
	fail int
}

func (f *flakyStakeCommits) StakeEntry(ctx context.Context, commit repository.StakeCommit) error {
	f.mu.Lock()
	if f.fail > 0 {
		f.fail--
		f.mu.Unlock()
		return errors.New("connection reset by peer")
	}
	f.mu.Unlock()
	return f.CompetitionRepository.StakeEntry(ctx, commit)
}

func TestStakeEntryRetryAfterRefundDebitsAgain(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.competition(t, models.CompetitionTypeManGoSet, 0)
	user := uuid.New()
	stake := decimal.NewFromInt(25)

	ledger := newLedgerWallet(user, decimal.NewFromInt(100))
	f.service.wallet = ledger
	f.service.competitions = &flakyStakeCommits{CompetitionRepository: f.repos.Competition, fail: 1}

	req := StakeRequest{CompetitionID: c.ID, UserID: user, Amount: stake}

	err := f.service.StakeEntry(ctx, req)
	var je *JoinError
	require.ErrorAs(t, err, &je)
	assert.Equal(t, ReasonInternal, je.Reason)
	assert.True(t, decimal.NewFromInt(100).Equal(ledger.Balance(user)), "failed attempt must be refunded")

	require.NoError(t, f.service.StakeEntry(ctx, req))
	assert.True(t, decimal.NewFromInt(75).Equal(ledger.Balance(user)), "entered participant must have paid, got %s", ledger.Balance(user))

	stored, err := f.repos.Competition.GetByID(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Participant(user))
}

func TestConcurrentStakeEntriesChargeOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.competition(t, models.CompetitionTypeManGoSet, 0)
	user := uuid.New()

	ledger := newLedgerWallet(user, decimal.NewFromInt(100))
	f.service.wallet = ledger

	// both attempts pass validation before either commits
	start := make(chan struct{})
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			errs[i] = f.service.stakeEntry(ctx, StakeRequest{CompetitionID: c.ID, UserID: user, Amount: decimal.NewFromInt(25)})
		}()
	}
	close(start)
	wg.Wait()

	accepted := 0
	for _, err := range errs {
		if err == nil {
			accepted++
		} else {
			assert.ErrorIs(t, err, ErrAlreadyEntered)
		}
	}
	assert.Equal(t, 1, accepted)
	assert.True(t, decimal.NewFromInt(75).Equal(ledger.Balance(user)), "got %s", ledger.Balance(user))
}

func TestCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	creator := uuid.New()

	f.publisher.On("EnqueueCompetitionCreated", mock.Anything, mock.AnythingOfType("uuid.UUID")).Return(nil).Once()

	c, err := f.service.Create(ctx, CreateRequest{
		Type:             models.CompetitionTypeLeague,
		CreatorID:        creator,
		MinTeams:         1,
		MaxTeams:         5,
		PrizePool:        decimal.NewFromInt(200),
		HostContribution: decimal.NewFromInt(60),
	})
	require.NoError(t, err)
	assert.True(t, c.IsActive)

	stored, err := f.repos.Competition.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, creator, stored.CreatorID)
	f.publisher.AssertExpectations(t)

	_, err = f.service.Create(ctx, CreateRequest{Type: "Poker", CreatorID: creator, MinTeams: 1, MaxTeams: 1})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = f.service.Create(ctx, CreateRequest{Type: models.CompetitionTypeLeague, CreatorID: creator, MinTeams: 3, MaxTeams: 2})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestFinalize(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b, outsider := uuid.New(), uuid.New(), uuid.New()
	c := f.competition(t, models.CompetitionTypeLeague, 0, a, b)

	err := f.service.Finalize(ctx, c.ID, []uuid.UUID{a, outsider})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	err = f.service.Finalize(ctx, c.ID, []uuid.UUID{a, a})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	err = f.service.Finalize(ctx, uuid.New(), []uuid.UUID{a})
	assert.ErrorIs(t, err, models.ErrNotFound)

	f.publisher.On("EnqueueSettlement", mock.Anything, c.ID).Return(nil).Once()
	require.NoError(t, f.service.Finalize(ctx, c.ID, []uuid.UUID{b, a}))

	stored, err := f.repos.Competition.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{b, a}, stored.Winners)
	assert.False(t, stored.IsActive)
	f.publisher.AssertExpectations(t)
}

func TestRecordDepositAndRegisterUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := uuid.New()
	amount := decimal.NewFromInt(20)

	f.publisher.On("EnqueueDepositRecorded", mock.Anything, user, amount).Return(nil).Once()
	f.publisher.On("EnqueueUserRegistered", mock.Anything, user, "GB").Return(nil).Once()

	require.NoError(t, f.service.RecordDeposit(ctx, user, amount))
	require.NoError(t, f.service.RegisterUser(ctx, user, "GB"))

	assert.ErrorIs(t, f.service.RecordDeposit(ctx, user, decimal.NewFromInt(-1)), ErrInvalidRequest)
	assert.ErrorIs(t, f.service.RegisterUser(ctx, user, "Atlantis"), ErrInvalidRequest)

	f.publisher.AssertExpectations(t)
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want Kind
	}{
		{err: ErrCapacityExceeded, want: KindPreconditionFailure},
		{err: reject(ReasonInvalidSelectionCount, errors.New("1 pick")), want: KindValidationFailure},
		{err: ErrNotFoundOrInactive, want: KindNotFound},
		{err: models.ErrNotFound, want: KindNotFound},
		{err: models.ErrAlreadySettled, want: KindPreconditionFailure},
		{err: reject(ReasonInternal, errors.New("connection reset")), want: KindTransientInternal},
		{err: errors.New("boom"), want: KindTransientInternal},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}
