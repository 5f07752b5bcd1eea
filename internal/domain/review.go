package domain

import "time"

// Review is a user's rating and write-up for a game. At most one review
// exists per (user, game).
type Review struct {
	ID        string
	UserID    string
	GameID    string
	Rating    int
	Body      string
	CreatedAt time.Time
}
