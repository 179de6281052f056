package model

import "time"

type Book struct {
	ID          int64      `json:"id"`
	ChildID     int64      `json:"child_id"`
	Title       string     `json:"title"`
	Author      string     `json:"author"`
	TotalPages  int        `json:"total_pages"`
	BonusPoints int        `json:"bonus_points"`
	FinishedAt  *time.Time `json:"finished_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ReadingLog records pages read from a book on one date.
type ReadingLog struct {
	ID        int64     `json:"id"`
	BookID    int64     `json:"book_id"`
	Date      time.Time `json:"date"`
	Pages     int       `json:"pages"`
	CreatedAt time.Time `json:"created_at"`
}

// BookProgress is a book joined with its cumulative pages read.
type BookProgress struct {
	Book
	PagesRead int     `json:"pages_read"`
	Percent   float64 `json:"percent"`
}
