package scoring

import (
	"math"
	"sort"

	"github.com/hamill-design/movie-draft-oracle-sub000/internal/models"
)

// Inputs are the raw external metadata for one movie. Every field is
// independently optional; the engine degrades around missing values.
type Inputs struct {
	CriticsScore    *float64 // 0-100
	MetacriticScore *float64 // 0-100
	IMDBRating      *float64 // 0-10, rescaled x10 internally
	Budget          *int64
	Revenue         *int64
	OscarStatus     models.OscarStatus
}

// Breakdown is the full decomposition of a movie's composite score.
type Breakdown struct {
	BoxOffice  *float64 `json:"box_office_score,omitempty"`
	Critics    *float64 `json:"critics_score,omitempty"`
	Audience   *float64 `json:"audience_score,omitempty"`
	Critical   *float64 `json:"critical_score,omitempty"`
	Composite  float64  `json:"composite"`
	OscarBonus float64  `json:"oscar_bonus"`
	Final      float64  `json:"final_score"`
}

const (
	boxOfficeWeight = 0.20
	criticalWeight  = 0.80

	oscarWinnerBonus  = 6.0
	oscarNomineeBonus = 3.0
)

// Score computes the composite quality score for one movie.
func Score(in Inputs) Breakdown {
	bd := Breakdown{}

	bd.BoxOffice = boxOfficeScore(in)

	criticsSub, criticsRaw := criticsScore(in)
	bd.Critics = criticsSub

	audienceSub := audienceScore(in)
	bd.Audience = audienceSub

	bd.Critical = criticalScore(criticsSub, criticsRaw, audienceSub)

	bd.Composite = composite(bd.BoxOffice, bd.Critical)

	switch in.OscarStatus {
	case models.OscarStatusWinner:
		bd.OscarBonus = oscarWinnerBonus
	case models.OscarStatusNominee:
		bd.OscarBonus = oscarNomineeBonus
	}

	bd.Final = round2(bd.Composite + bd.OscarBonus)
	return bd
}

// boxOfficeScore maps return-on-investment onto 0-100. Linear up to a 2x
// return (capped at 60), then asymptotic toward 100 beyond it.
func boxOfficeScore(in Inputs) *float64 {
	if in.Budget == nil || in.Revenue == nil || *in.Budget <= 0 {
		return nil
	}
	profit := float64(*in.Revenue - *in.Budget)
	if profit <= 0 {
		zero := 0.0
		return &zero
	}
	roi := profit / float64(*in.Budget) * 100
	var score float64
	if roi <= 100 {
		score = 60 * (roi / 100)
	} else {
		score = 60 + 40*(1-math.Exp(-(roi-100)/200))
	}
	return &score
}

// criticsScore blends the two critic sources, suppressing the result when
// they disagree. Returns the sub-score and the unmodified raw average.
func criticsScore(in Inputs) (sub, raw *float64) {
	switch {
	case in.CriticsScore != nil && in.MetacriticScore != nil:
		rawAvg := (*in.CriticsScore + *in.MetacriticScore) / 2
		modifier := math.Max(0, 1-math.Abs(*in.CriticsScore-*in.MetacriticScore)/200)
		s := rawAvg * modifier
		return &s, &rawAvg
	case in.CriticsScore != nil:
		v := *in.CriticsScore
		return &v, in.CriticsScore
	case in.MetacriticScore != nil:
		v := *in.MetacriticScore
		return &v, in.MetacriticScore
	default:
		return nil, nil
	}
}

func audienceScore(in Inputs) *float64 {
	if in.IMDBRating == nil {
		return nil
	}
	v := *in.IMDBRating * 10
	return &v
}

// criticalScore cross-weights the critics and audience sides, with a
// consensus modifier when both are available.
func criticalScore(criticsSub, criticsRaw, audienceSub *float64) *float64 {
	// Audience raw average is the rescaled IMDB value itself.
	audienceRaw := audienceSub

	if criticsRaw != nil && audienceRaw != nil && *criticsRaw > 0 && *audienceRaw > 0 {
		agreement := math.Max(0, 1-math.Abs(*criticsRaw-*audienceRaw)/200)
		weighted := 0.5**criticsSub + 0.5**audienceSub
		v := weighted * agreement
		return &v
	}
	if criticsSub != nil {
		v := *criticsSub
		return &v
	}
	if audienceSub != nil {
		v := *audienceSub
		return &v
	}
	return nil
}

// composite applies the fixed 20/80 weighting, falling back to whichever
// side is present. Weights are never renormalized.
func composite(boxOffice, critical *float64) float64 {
	boxPresent := boxOffice != nil && *boxOffice > 0
	criticalPresent := critical != nil && *critical > 0

	switch {
	case boxPresent && criticalPresent:
		return boxOfficeWeight**boxOffice + criticalWeight**critical
	case boxPresent:
		return *boxOffice
	case criticalPresent:
		return *critical
	default:
		return 0
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// InputsFromPick extracts scoring inputs from a pick's enrichment fields.
func InputsFromPick(p models.Pick) Inputs {
	in := Inputs{
		CriticsScore:    p.CriticsScore,
		MetacriticScore: p.MetacriticScore,
		IMDBRating:      p.IMDBRating,
		Budget:          p.Budget,
		Revenue:         p.Revenue,
	}
	if p.OscarStatus != nil {
		in.OscarStatus = *p.OscarStatus
	}
	return in
}

// Scorable reports whether a pick has at least one usable scoring input.
// Picks without any are excluded from team averages entirely.
func Scorable(p models.Pick) bool {
	return p.Budget != nil || p.CriticsScore != nil || p.IMDBRating != nil || p.MetacriticScore != nil
}

// TeamScore is the derived per-player aggregate. Never persisted; recomputed
// from current pick data on demand.
type TeamScore struct {
	PlayerName     string        `json:"player_name"`
	Picks          []models.Pick `json:"picks"`
	CompletedPicks int           `json:"completed_picks"`
	TotalPicks     int           `json:"total_picks"`
	AverageScore   float64       `json:"average_score"`
}

// TeamScores groups picks by player and averages their composite scores,
// sorted best-first. Picks with zero scoring inputs count toward TotalPicks
// but not toward the average.
func TeamScores(picks []models.Pick) []TeamScore {
	byPlayer := make(map[string][]models.Pick)
	var order []string
	for _, p := range picks {
		if _, ok := byPlayer[p.PlayerName]; !ok {
			order = append(order, p.PlayerName)
		}
		byPlayer[p.PlayerName] = append(byPlayer[p.PlayerName], p)
	}

	teams := make([]TeamScore, 0, len(order))
	for _, name := range order {
		playerPicks := byPlayer[name]
		var sum float64
		var scored int
		for _, p := range playerPicks {
			if !Scorable(p) {
				continue
			}
			sum += Score(InputsFromPick(p)).Final
			scored++
		}
		ts := TeamScore{
			PlayerName:     name,
			Picks:          playerPicks,
			CompletedPicks: scored,
			TotalPicks:     len(playerPicks),
		}
		if scored > 0 {
			ts.AverageScore = sum / float64(scored)
		}
		teams = append(teams, ts)
	}

	sort.SliceStable(teams, func(i, j int) bool {
		return teams[i].AverageScore > teams[j].AverageScore
	})
	return teams
}
