package domain

import "time"

// Topic is a forum discussion thread. Closed topics only accept posts
// from admins.
type Topic struct {
	ID        string
	Title     string
	AuthorID  string
	IsClosed  bool
	CreatedAt time.Time
}

// Post is a message inside a topic.
type Post struct {
	ID        string
	TopicID   string
	AuthorID  string
	Content   string
	CreatedAt time.Time
}
