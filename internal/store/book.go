package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/mootify/routinestars/internal/model"
)

type BookStore struct {
	db *sql.DB
}

func NewBookStore(db *sql.DB) *BookStore {
	return &BookStore{db: db}
}

const bookCols = `id, child_id, title, author, total_pages, bonus_points, finished_at, created_at, updated_at`

func scanBook(scanner interface{ Scan(...any) error }) (*model.Book, error) {
	var b model.Book
	var finishedAt sql.NullTime

	err := scanner.Scan(&b.ID, &b.ChildID, &b.Title, &b.Author, &b.TotalPages, &b.BonusPoints, &finishedAt, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if finishedAt.Valid {
		b.FinishedAt = &finishedAt.Time
	}
	return &b, nil
}

func (s *BookStore) Create(childID int64, title, author string, totalPages, bonusPoints int) (*model.Book, error) {
	result, err := s.db.Exec(
		`INSERT INTO books (child_id, title, author, total_pages, bonus_points) VALUES (?, ?, ?, ?, ?)`,
		childID, title, author, totalPages, bonusPoints,
	)
	if err != nil {
		return nil, fmt.Errorf("insert book: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *BookStore) GetByID(id int64) (*model.Book, error) {
	row := s.db.QueryRow(`SELECT `+bookCols+` FROM books WHERE id = ?`, id)
	b, err := scanBook(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}
	return b, nil
}

// ListByChild returns the child's books with cumulative pages read,
// unfinished first.
func (s *BookStore) ListByChild(childID int64) ([]model.BookProgress, error) {
	rows, err := s.db.Query(
		`SELECT b.id, b.child_id, b.title, b.author, b.total_pages, b.bonus_points, b.finished_at, b.created_at, b.updated_at,
		        COALESCE(SUM(l.pages), 0)
		 FROM books b
		 LEFT JOIN reading_logs l ON l.book_id = b.id
		 WHERE b.child_id = ?
		 GROUP BY b.id
		 ORDER BY b.finished_at IS NOT NULL, b.created_at DESC`, childID,
	)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	var books []model.BookProgress
	for rows.Next() {
		var p model.BookProgress
		var finishedAt sql.NullTime
		err := rows.Scan(
			&p.ID, &p.ChildID, &p.Title, &p.Author, &p.TotalPages, &p.BonusPoints,
			&finishedAt, &p.CreatedAt, &p.UpdatedAt, &p.PagesRead,
		)
		if err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		if finishedAt.Valid {
			p.FinishedAt = &finishedAt.Time
		}
		if p.TotalPages > 0 {
			p.Percent = float64(p.PagesRead) / float64(p.TotalPages) * 100
			if p.Percent > 100 {
				p.Percent = 100
			}
		}
		books = append(books, p)
	}
	return books, rows.Err()
}

func (s *BookStore) Update(id int64, title, author string, totalPages, bonusPoints int) (*model.Book, error) {
	_, err := s.db.Exec(
		`UPDATE books SET title = ?, author = ?, total_pages = ?, bonus_points = ?, updated_at = datetime('now') WHERE id = ?`,
		title, author, totalPages, bonusPoints, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update book: %w", err)
	}
	return s.GetByID(id)
}

func (s *BookStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM books WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	return nil
}

// LogReading records pages read on a date. Multiple logs per day are fine;
// they accumulate.
func (s *BookStore) LogReading(bookID int64, date time.Time, pages int) (*model.ReadingLog, error) {
	result, err := s.db.Exec(
		`INSERT INTO reading_logs (book_id, date, pages) VALUES (?, ?, ?)`,
		bookID, dateString(date), pages,
	)
	if err != nil {
		return nil, fmt.Errorf("insert reading log: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	var log model.ReadingLog
	var raw string
	err = s.db.QueryRow(
		`SELECT id, book_id, date, pages, created_at FROM reading_logs WHERE id = ?`, id,
	).Scan(&log.ID, &log.BookID, &raw, &log.Pages, &log.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get reading log: %w", err)
	}
	if log.Date, err = parseDate(raw); err != nil {
		return nil, fmt.Errorf("date: %w", err)
	}
	return &log, nil
}

func (s *BookStore) ListLogs(bookID int64) ([]model.ReadingLog, error) {
	rows, err := s.db.Query(
		`SELECT id, book_id, date, pages, created_at FROM reading_logs WHERE book_id = ? ORDER BY date DESC, id DESC`, bookID,
	)
	if err != nil {
		return nil, fmt.Errorf("list reading logs: %w", err)
	}
	defer rows.Close()

	var logs []model.ReadingLog
	for rows.Next() {
		var log model.ReadingLog
		var raw string
		if err := rows.Scan(&log.ID, &log.BookID, &raw, &log.Pages, &log.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan reading log: %w", err)
		}
		if log.Date, err = parseDate(raw); err != nil {
			return nil, fmt.Errorf("date: %w", err)
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}

// Finish marks a book finished, once. Reports whether this call did the
// finishing, so bonus points and badges fire exactly once.
func (s *BookStore) Finish(id int64, at time.Time) (bool, error) {
	result, err := s.db.Exec(
		`UPDATE books SET finished_at = ?, updated_at = datetime('now') WHERE id = ? AND finished_at IS NULL`,
		at.UTC(), id,
	)
	if err != nil {
		return false, fmt.Errorf("finish book: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (s *BookStore) CountFinished(childID int64) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM books WHERE child_id = ? AND finished_at IS NOT NULL`, childID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count finished books: %w", err)
	}
	return n, nil
}
