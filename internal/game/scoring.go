package game

const (
	PointsCorrectGuess = 10
	PointsFooled       = 20
	PointsFavorite     = 10
	PointsWhoGuess     = 10

	MinGrade     = 1
	MaxGrade     = 10
	DefaultGrade = 5
)

type ScoreDelta struct {
	PlayerID string `json:"playerId"`
	Points   int    `json:"points"`
}

// ResultDetail explains one scoring decision for the results screen.
type ResultDetail struct {
	VoterID   string `json:"voterId,omitempty"`
	TargetID  string `json:"targetId,omitempty"`
	PlayerID  string `json:"playerId,omitempty"`
	SubjectID string `json:"subjectId,omitempty"`
	Correct   bool   `json:"correct"`
	Grade     int    `json:"grade,omitempty"`
	Points    int    `json:"points"`
}

type Outcome struct {
	Deltas  []ScoreDelta
	Details []ResultDetail
}

// Totals merges deltas per player, keeping first-seen order.
func (o Outcome) Totals() []ScoreDelta {
	index := make(map[string]int, len(o.Deltas))
	var out []ScoreDelta
	for _, delta := range o.Deltas {
		if delta.Points == 0 {
			continue
		}
		if i, ok := index[delta.PlayerID]; ok {
			out[i].Points += delta.Points
			continue
		}
		index[delta.PlayerID] = len(out)
		out = append(out, delta)
	}
	return out
}

func (o *Outcome) add(playerID string, points int) {
	o.Deltas = append(o.Deltas, ScoreDelta{PlayerID: playerID, Points: points})
}

// ScoreBluff awards the voter for finding the real answer and the author of
// every bluff once per voter it fooled. Self-votes score nothing.
func ScoreBluff(ballots []Vote) Outcome {
	var out Outcome
	for _, vote := range ballots {
		detail := ResultDetail{VoterID: vote.VoterID, TargetID: vote.TargetID}
		switch {
		case vote.TargetID == CorrectTarget:
			detail.Correct = true
			detail.Points = PointsCorrectGuess
			out.add(vote.VoterID, PointsCorrectGuess)
		case vote.TargetID != vote.VoterID:
			detail.PlayerID = vote.TargetID
			detail.Points = PointsFooled
			out.add(vote.TargetID, PointsFooled)
		}
		out.Details = append(out.Details, detail)
	}
	return out
}

// ScoreFavorites gives each voted-for player a fixed award per vote.
func ScoreFavorites(ballots []Vote) Outcome {
	var out Outcome
	for _, vote := range ballots {
		detail := ResultDetail{VoterID: vote.VoterID, TargetID: vote.TargetID}
		if vote.TargetID != vote.VoterID && vote.TargetID != CorrectTarget {
			detail.PlayerID = vote.TargetID
			detail.Points = PointsFavorite
			out.add(vote.TargetID, PointsFavorite)
		}
		out.Details = append(out.Details, detail)
	}
	return out
}

// ScoreCloseness adds each grade to the author of the graded answer.
// grades must already be normalized to len(graded).
func ScoreCloseness(subjectID string, graded []Answer, grades []int) Outcome {
	var out Outcome
	for i, answer := range graded {
		grade := DefaultGrade
		if i < len(grades) {
			grade = grades[i]
		}
		out.add(answer.PlayerID, grade)
		out.Details = append(out.Details, ResultDetail{
			PlayerID:  answer.PlayerID,
			SubjectID: subjectID,
			Grade:     grade,
			Points:    grade,
		})
	}
	return out
}

// ScoreWhoGuess rewards a guesser who correctly named the player whose
// ballot picked the guesser's answer.
func ScoreWhoGuess(ballots, guesses []Vote) Outcome {
	pickedBy := make(map[string]map[string]bool)
	for _, ballot := range ballots {
		if ballot.TargetID == ballot.VoterID {
			continue
		}
		if pickedBy[ballot.TargetID] == nil {
			pickedBy[ballot.TargetID] = make(map[string]bool)
		}
		pickedBy[ballot.TargetID][ballot.VoterID] = true
	}

	var out Outcome
	for _, guess := range guesses {
		detail := ResultDetail{VoterID: guess.VoterID, TargetID: guess.TargetID}
		if guess.TargetID != guess.VoterID && pickedBy[guess.VoterID][guess.TargetID] {
			detail.Correct = true
			detail.Points = PointsWhoGuess
			out.add(guess.VoterID, PointsWhoGuess)
		}
		out.Details = append(out.Details, detail)
	}
	return out
}

// NormalizeGrades returns exactly n grades clamped to MinGrade..MaxGrade.
// A reply of the wrong length is discarded in favor of DefaultGrade.
func NormalizeGrades(grades []int, n int) []int {
	out := make([]int, n)
	if len(grades) != n {
		for i := range out {
			out[i] = DefaultGrade
		}
		return out
	}
	for i, grade := range grades {
		out[i] = min(max(grade, MinGrade), MaxGrade)
	}
	return out
}
