package models

// TimestampLayout is the layout of CreatedAt and UpdatedAt. Timestamps are UTC
// and produced by the store, never by clients.
const TimestampLayout = "2006-01-02T15:04:05"

// Todo is a single todo item as stored and served.
type Todo struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Completed   bool    `json:"completed"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}
