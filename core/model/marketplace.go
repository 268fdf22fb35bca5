package model

import "time"

// Ad is a marketplace listing. The core only reads ads during sync; listing
// CRUD lives in the marketplace collaborator.
type Ad struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
}

// Message is a direct message between two users. The core only counts unread
// messages during sync.
type Message struct {
	ID        string    `json:"id"`
	FromID    string    `json:"fromId"`
	ToID      string    `json:"toId"`
	Body      string    `json:"body"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}
