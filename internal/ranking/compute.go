package ranking

import (
	"bytes"
	"sort"

	"github.com/yourusername/stakeleague/internal/models"
)

// Compute assigns world and country positions in every scope for the snapshotted corpus.
// Records are ordered by points descending, then by user id bytes ascending, so equal scores
// always resolve the same way. Trends compare against the positions stored in the snapshot.
// It returns one RankPositions per snapshot, in snapshot order, and the number of distinct
// overall countries.
func Compute(snapshots []models.RankSnapshot) ([]models.RankPositions, int) {
	out := make([]models.RankPositions, len(snapshots))
	for i := range snapshots {
		out[i].UserID = snapshots[i].UserID
	}

	order := make([]int, len(snapshots))
	countries := 0
	for _, scope := range models.Scopes {
		for i := range order {
			order[i] = i
		}
		sortScope(snapshots, order, scope)

		seen := make(map[string]int)
		for pos, idx := range order {
			snap := &snapshots[idx]
			sp := out[idx].Scope(scope)

			world := pos + 1
			sp.World = models.Standing{
				Position: world,
				Trend:    models.TrendFor(snap.WorldPosition[scope], world),
			}

			country := snap.Country[scope]
			seen[country]++
			local := seen[country]
			sp.Country = models.Standing{
				Position: local,
				Trend:    models.TrendFor(snap.CountryPosition[scope], local),
			}
		}
		if scope == models.ScopeOverall {
			countries = len(seen)
		}
	}
	return out, countries
}

func sortScope(snapshots []models.RankSnapshot, order []int, scope models.Scope) {
	sort.Slice(order, func(i, j int) bool {
		a, b := &snapshots[order[i]], &snapshots[order[j]]
		if a.Points[scope] != b.Points[scope] {
			return a.Points[scope] > b.Points[scope]
		}
		return bytes.Compare(a.UserID[:], b.UserID[:]) < 0
	})
}
