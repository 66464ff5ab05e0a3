package rating

import (
	"math"
	"sort"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/models"
)

// Unrated is the standing a player starts a chat with.
func Unrated(chatID string, playerID uuid.UUID, name string) models.PlayerRating {
	return models.PlayerRating{
		ChatID:   chatID,
		PlayerID: playerID,
		Name:     name,
		Rating:   int(DefaultMu),
		RD:       DefaultPhi,
		Sigma:    DefaultSigma,
	}
}

// Standings converts a match into scores in [0..1]. The winner ranks first, everyone else
// by cards left (fewer is better); tied players share the fraction of their average rank.
func Standings(res models.MatchResult) map[uuid.UUID]float64 {
	type entry struct {
		id  uuid.UUID
		key int
	}
	arr := make([]entry, 0, len(res.Players))
	for _, p := range res.Players {
		key := p.CardsLeft
		if p.PlayerID == res.WinnerID {
			key = -1
		}
		arr = append(arr, entry{p.PlayerID, key})
	}
	sort.SliceStable(arr, func(i, j int) bool { return arr[i].key < arr[j].key })

	out := make(map[uuid.UUID]float64, len(arr))
	if len(arr) < 2 {
		return out
	}
	for i := 0; i < len(arr); {
		j := i + 1
		for j < len(arr) && arr[j].key == arr[i].key {
			j++
		}
		avgRank := float64(i+(j-1)) / 2
		fr := 1.0 - avgRank/float64(len(arr)-1)
		for k := i; k < j; k++ {
			out[arr[k].id] = fr
		}
		i = j
	}
	return out
}

// Apply rates a finished match. Each player is scored against the average of the others.
// Players missing from prior start unrated. A match without a winner is not rated and
// yields nil. The result is in seat order.
func Apply(res models.MatchResult, prior map[uuid.UUID]models.PlayerRating) []models.PlayerRating {
	if res.WinnerID == uuid.Nil || len(res.Players) < 2 {
		return nil
	}
	scores := Standings(res)

	current := make([]models.PlayerRating, len(res.Players))
	var total float64
	for i, p := range res.Players {
		r, ok := prior[p.PlayerID]
		if !ok {
			r = Unrated(res.ChatID, p.PlayerID, p.Name)
		}
		r.ChatID = res.ChatID
		r.Name = p.Name
		current[i] = r
		total += float64(r.Rating)
	}

	updated := make([]models.PlayerRating, len(current))
	n := float64(len(current))
	for i, r := range current {
		me := NewGlicko2Rating(float64(r.Rating), r.RD, r.Sigma)
		oppElo := (total - float64(r.Rating)) / (n - 1)
		opp := NewGlicko2Rating(oppElo, DefaultPhi, DefaultSigma)

		next := updateGlicko(me, opp, scores[r.PlayerID])
		r.Rating = int(math.Round(next.ToElo()))
		r.RD = next.RD()
		r.Sigma = next.Sigma
		r.Games++
		if r.PlayerID == res.WinnerID {
			r.Wins++
		}
		updated[i] = r
	}
	return updated
}

// Leaderboard sorts ratings best first, breaking ties by wins and then name.
func Leaderboard(ratings []models.PlayerRating) []models.PlayerRating {
	out := append([]models.PlayerRating(nil), ratings...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Rating != out[j].Rating {
			return out[i].Rating > out[j].Rating
		}
		if out[i].Wins != out[j].Wins {
			return out[i].Wins > out[j].Wins
		}
		return out[i].Name < out[j].Name
	})
	return out
}
