package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/schoolbooks/internal/core"
)

const pgSchema = `CREATE TABLE IF NOT EXISTS school_books (
	id SERIAL PRIMARY KEY,
	Zone TEXT,
	Grade TEXT,
	SKU TEXT,
	Book_Name TEXT,
	Book_Category TEXT,
	Qty INTEGER,
	Selling_Price NUMERIC(12,2),
	Cost_Price NUMERIC(12,2)
)`

const pgColumns = `id, Zone, Grade, SKU, Book_Name, Book_Category, Qty, Selling_Price, Cost_Price`

// Postgres stores books in the school_books table.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects a pool and creates the table if needed.
func NewPostgres(ctx context.Context, cfg PostgresConfig) (*Postgres, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = int32(cfg.MinConns)
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, pgSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create school_books: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Insert(ctx context.Context, in core.BookInput) (int64, error) {
	var id int64
	err := p.pool.QueryRow(ctx,
		`INSERT INTO school_books (Zone, Grade, SKU, Book_Name, Book_Category, Qty, Selling_Price, Cost_Price)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		in.Zone, in.Grade, in.SKU, in.BookName, in.BookCategory,
		in.Qty, toPgNumeric(in.SellingPrice), toPgNumeric(in.CostPrice),
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (p *Postgres) Update(ctx context.Context, id int64, in core.BookInput) error {
	tag, err := p.pool.Exec(ctx,
		`UPDATE school_books SET Zone=$1, Grade=$2, SKU=$3, Book_Name=$4, Book_Category=$5,
		 Qty=$6, Selling_Price=$7, Cost_Price=$8 WHERE id=$9`,
		in.Zone, in.Grade, in.SKU, in.BookName, in.BookCategory,
		in.Qty, toPgNumeric(in.SellingPrice), toPgNumeric(in.CostPrice), id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return core.NotFound(id)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, id int64) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM school_books WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return core.NotFound(id)
	}
	return nil
}

func (p *Postgres) Get(ctx context.Context, id int64) (core.Book, error) {
	row := p.pool.QueryRow(ctx, `SELECT `+pgColumns+` FROM school_books WHERE id=$1`, id)
	b, err := scanPgBook(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Book{}, core.NotFound(id)
	}
	return b, err
}

func (p *Postgres) List(ctx context.Context) ([]core.Book, error) {
	rows, err := p.pool.Query(ctx, `SELECT `+pgColumns+` FROM school_books ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	books := []core.Book{}
	for rows.Next() {
		b, err := scanPgBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

// scanPgBook reads one row. NULL text becomes "" and NULL numbers zero, as
// rows written by other tools may leave cells empty.
func scanPgBook(row pgx.Row) (core.Book, error) {
	var (
		b                           core.Book
		zone, grade, sku, name, cat pgtype.Text
		qty                         pgtype.Int4
		sell, cost                  pgtype.Numeric
	)
	if err := row.Scan(&b.ID, &zone, &grade, &sku, &name, &cat, &qty, &sell, &cost); err != nil {
		return core.Book{}, err
	}

	b.Zone, b.Grade, b.SKU = zone.String, grade.String, sku.String
	b.BookName, b.BookCategory = name.String, cat.String
	b.Qty = int64(qty.Int32)
	b.SellingPrice = fromPgNumeric(sell)
	b.CostPrice = fromPgNumeric(cost)
	return b, nil
}

func toPgNumeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}

func fromPgNumeric(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.NaN || n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}
