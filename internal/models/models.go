package models

import "time"

type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Timezone  string    `json:"timezone"`
	DailyGoal int       `json:"daily_goal"`
	CreatedAt time.Time `json:"created_at"`
}

type Deck struct {
	ID          int64     `json:"id"`
	OwnerID     int64     `json:"owner_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	IsPublic    bool      `json:"is_public"`
	CreatedAt   time.Time `json:"created_at"`
}

type Card struct {
	ID        int64     `json:"id"`
	DeckID    int64     `json:"deck_id"`
	Front     string    `json:"front"`
	Back      string    `json:"back"`
	CreatedAt time.Time `json:"created_at"`
}

// ReviewEvent is one answered card, kept for audit and accuracy stats.
type ReviewEvent struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	CardID     int64     `json:"card_id"`
	Quality    int       `json:"quality"`
	ReviewedAt time.Time `json:"reviewed_at"`
}

type SessionFilter struct {
	UserID   int64
	DeckID   int64
	Status   string
	Since    *time.Time
	Limit    int
	Offset   int
	OrderDir string
}
