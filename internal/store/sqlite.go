package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite" // pure Go driver

	"github.com/JonMunkholm/schoolbooks/internal/core"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS school_books (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	Zone TEXT NOT NULL DEFAULT '',
	Grade TEXT NOT NULL DEFAULT '',
	SKU TEXT NOT NULL DEFAULT '',
	Book_Name TEXT NOT NULL DEFAULT '',
	Book_Category TEXT NOT NULL DEFAULT '',
	Qty INTEGER NOT NULL DEFAULT 0,
	Selling_Price TEXT NOT NULL DEFAULT '0.00',
	Cost_Price TEXT NOT NULL DEFAULT '0.00'
)`

// SQLite stores books in a single-file database. Money is kept as decimal
// text so values round-trip exactly.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the database at path.
func NewSQLite(ctx context.Context, path string) (*SQLite, error) {
	if path == "" {
		return nil, errors.New("sqlite path is empty")
	}

	dsn := "file:" + path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer at a time; SQLite serializes anyway.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create school_books: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Insert(ctx context.Context, in core.BookInput) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO school_books (Zone, Grade, SKU, Book_Name, Book_Category, Qty, Selling_Price, Cost_Price)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		in.Zone, in.Grade, in.SKU, in.BookName, in.BookCategory,
		in.Qty, core.FormatMoney(in.SellingPrice), core.FormatMoney(in.CostPrice),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *SQLite) Update(ctx context.Context, id int64, in core.BookInput) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE school_books SET Zone=?, Grade=?, SKU=?, Book_Name=?, Book_Category=?,
		 Qty=?, Selling_Price=?, Cost_Price=? WHERE id=?`,
		in.Zone, in.Grade, in.SKU, in.BookName, in.BookCategory,
		in.Qty, core.FormatMoney(in.SellingPrice), core.FormatMoney(in.CostPrice), id,
	)
	if err != nil {
		return err
	}
	return requireAffected(res, id)
}

func (s *SQLite) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM school_books WHERE id=?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res, id)
}

func (s *SQLite) Get(ctx context.Context, id int64) (core.Book, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+pgColumns+` FROM school_books WHERE id=?`, id)
	b, err := scanSQLiteBook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Book{}, core.NotFound(id)
	}
	return b, err
}

func (s *SQLite) List(ctx context.Context) ([]core.Book, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+pgColumns+` FROM school_books ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	books := []core.Book{}
	for rows.Next() {
		b, err := scanSQLiteBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSQLiteBook(row scanner) (core.Book, error) {
	var (
		b          core.Book
		sell, cost string
	)
	err := row.Scan(&b.ID, &b.Zone, &b.Grade, &b.SKU, &b.BookName, &b.BookCategory, &b.Qty, &sell, &cost)
	if err != nil {
		return core.Book{}, err
	}

	if b.SellingPrice, err = decimal.NewFromString(sell); err != nil {
		return core.Book{}, fmt.Errorf("book %d selling price %q: %w", b.ID, sell, err)
	}
	if b.CostPrice, err = decimal.NewFromString(cost); err != nil {
		return core.Book{}, fmt.Errorf("book %d cost price %q: %w", b.ID, cost, err)
	}
	return b, nil
}

func requireAffected(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return core.NotFound(id)
	}
	return nil
}
