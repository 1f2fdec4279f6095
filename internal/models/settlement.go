package models

import (
	"time"

	"github.com/google/uuid"
)

// SettlementOutcome is the single batched rank update applied when a competition settles
type SettlementOutcome struct {
	CompetitionID uuid.UUID   `json:"competition_id"`
	Category      Category    `json:"category"`
	Winners       []uuid.UUID `json:"winners"`
	Losers        []uuid.UUID `json:"losers"`
	WinPoints     int         `json:"win_points"`
	LossPoints    int         `json:"loss_points"`
	SettledAt     time.Time   `json:"settled_at"`
	// MissingRanks lists participants that had no rank record to update. Set by ApplyOutcome.
	MissingRanks []uuid.UUID `json:"missing_ranks,omitempty"`
}

// RecordMissing sets MissingRanks to every winner and loser absent from updated
func (o *SettlementOutcome) RecordMissing(updated []uuid.UUID) {
	seen := make(map[uuid.UUID]struct{}, len(updated))
	for _, id := range updated {
		seen[id] = struct{}{}
	}

	o.MissingRanks = nil
	for _, group := range [][]uuid.UUID{o.Winners, o.Losers} {
		for _, id := range group {
			if _, ok := seen[id]; !ok {
				o.MissingRanks = append(o.MissingRanks, id)
			}
		}
	}
}

// ApplyWin mutates r the way the winner branch of a settlement does
func (o *SettlementOutcome) ApplyWin(r *Rank) {
	r.WinningStreak++
	r.TotalWins++
	r.Points += o.WinPoints
	if sub := r.Category(o.Category); sub != nil {
		sub.Wins++
		sub.WinningStreak++
		sub.Points += o.WinPoints
	}
}

// ApplyLoss mutates r the way the loser branch of a settlement does
func (o *SettlementOutcome) ApplyLoss(r *Rank) {
	r.WinningStreak = 0
	r.Points += o.LossPoints
	if sub := r.Category(o.Category); sub != nil {
		sub.WinningStreak = 0
		sub.Points += o.LossPoints
	}
}
