package models

// DueCard pairs a card with its current (possibly defaulted) review state for
// the study queue.
type DueCard struct {
	Card
	ReviewState ReviewState `json:"review_state"`
}

// DueQueue is the ordered study queue for one deck. Fallback is true when no
// card was actually due and the whole deck was returned instead; callers use
// it to tell "study ahead" apart from a completed review cycle.
type DueQueue struct {
	Cards    []DueCard `json:"cards"`
	Fallback bool      `json:"fallback"`
}

// DeckProgressSummary is a derived, never-stored projection of one user's
// progress on one deck.
type DeckProgressSummary struct {
	DeckID          int64   `json:"deck_id"`
	Title           string  `json:"title"`
	TotalCards      int     `json:"total_cards"`
	CardsStudied    int     `json:"cards_studied"`
	CardsMastered   int     `json:"cards_mastered"`
	CardsDue        int     `json:"cards_due"`
	CardsCorrect    int     `json:"cards_correct"`
	CardsIncorrect  int     `json:"cards_incorrect"`
	MasteryPercent  float64 `json:"mastery_percent"`
	AccuracyPercent float64 `json:"accuracy_percent"`
}

// AccountProgressSummary aggregates across every deck the user studies.
type AccountProgressSummary struct {
	StreakDays         int                   `json:"streak_days"`
	TotalCardsMastered int                   `json:"total_cards_mastered"`
	OverallAccuracy    float64               `json:"overall_accuracy"`
	DailyProgress      int                   `json:"daily_progress"`
	DailyGoal          int                   `json:"daily_goal"`
	Decks              []DeckProgressSummary `json:"decks"`
}
