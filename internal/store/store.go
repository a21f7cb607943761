package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // sqlite driver (pure Go)

	"github.com/Lyham67/Tombobach/internal/models"
)

const ticketCounter = "ticket"

// Open opens the SQLite database at the given path with foreign keys
// enabled and a busy timeout to reduce contention errors between
// concurrent request handlers.
func Open(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	return db, nil
}

// Store holds all persistence for the raffle: the per-ticket purchase
// ledger, the per-seller aggregates, the ticket-number counter and the
// site content singleton.
type Store struct {
	db *sql.DB
}

// NewStore wraps an open database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Init applies the schema and seeds the ticket counter. The counter is
// seeded from the highest existing ticket number so a database restored
// from an import keeps issuing strictly increasing numbers.
func (s *Store) Init(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS payments (
			ticket_number INTEGER PRIMARY KEY,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			email TEXT NOT NULL,
			phone TEXT NOT NULL,
			seller TEXT NOT NULL DEFAULT '',
			amount_cents INTEGER NOT NULL,
			created_at TIMESTAMP NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_payments_seller ON payments(seller);`,
		`CREATE TABLE IF NOT EXISTS sellers (
			name TEXT PRIMARY KEY,
			tickets INTEGER NOT NULL DEFAULT 0,
			revenue_cents INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS counters (
			name TEXT PRIMARY KEY,
			value INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS site_content (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			data TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}

	if _, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO counters(name, value) VALUES (?, 0)`, ticketCounter); err != nil {
		return fmt.Errorf("seed counter: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE counters SET value = MAX(value, (SELECT COALESCE(MAX(ticket_number), 0) FROM payments))
		 WHERE name = ?`, ticketCounter); err != nil {
		return fmt.Errorf("sync counter: %w", err)
	}
	return nil
}

// reserveTickets bumps the counter by n inside the given transaction
// and returns the reserved contiguous block, lowest number first.
func reserveTickets(ctx context.Context, tx *sql.Tx, n int) ([]int64, error) {
	if n < 1 {
		return nil, errors.New("ticket count must be at least 1")
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE counters SET value = value + ? WHERE name = ?`, n, ticketCounter); err != nil {
		return nil, fmt.Errorf("bump counter: %w", err)
	}
	var end int64
	if err := tx.QueryRowContext(ctx,
		`SELECT value FROM counters WHERE name = ?`, ticketCounter).Scan(&end); err != nil {
		return nil, fmt.Errorf("read counter: %w", err)
	}
	numbers := make([]int64, n)
	for i := range numbers {
		numbers[i] = end - int64(n) + int64(i) + 1
	}
	return numbers, nil
}

// ReserveTickets allocates a contiguous block of n ticket numbers.
// Allocation goes through the counter row in its own transaction, so
// concurrent purchases can never receive overlapping numbers.
func (s *Store) ReserveTickets(ctx context.Context, n int) ([]int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin reserve: %w", err)
	}
	defer tx.Rollback()

	numbers, err := reserveTickets(ctx, tx, n)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit reserve: %w", err)
	}
	return numbers, nil
}

// NormalizeSeller folds blank seller names into the catch-all bucket.
func NormalizeSeller(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.UnspecifiedSeller
	}
	return name
}

// RecordPurchase writes one ledger row per ticket and bumps the seller
// aggregate, all in a single transaction with the ticket-number
// reservation. The paid total is split evenly across the rows; the
// cent remainder goes one cent at a time to the first rows so the row
// amounts always sum to the paid total.
func (s *Store) RecordPurchase(ctx context.Context, buyer models.Buyer, tickets int, amount models.Cents) ([]int64, error) {
	if amount < 0 {
		return nil, errors.New("amount must not be negative")
	}
	seller := NormalizeSeller(buyer.Seller)
	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin purchase: %w", err)
	}
	defer tx.Rollback()

	numbers, err := reserveTickets(ctx, tx, tickets)
	if err != nil {
		return nil, err
	}

	per := amount / models.Cents(tickets)
	remainder := amount % models.Cents(tickets)
	for i, num := range numbers {
		rowAmount := per
		if models.Cents(i) < remainder {
			rowAmount++
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO payments(ticket_number, first_name, last_name, email, phone, seller, amount_cents, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			num, buyer.FirstName, buyer.LastName, buyer.Email, buyer.Phone, seller, int64(rowAmount), now); err != nil {
			return nil, fmt.Errorf("insert payment: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO sellers(name, tickets, revenue_cents) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET
			tickets = tickets + excluded.tickets,
			revenue_cents = revenue_cents + excluded.revenue_cents`,
		seller, tickets, int64(amount)); err != nil {
		return nil, fmt.Errorf("update seller stats: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit purchase: %w", err)
	}
	return numbers, nil
}

// ListPayments returns the full ledger ordered by ticket number.
func (s *Store) ListPayments(ctx context.Context) ([]models.Payment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ticket_number, first_name, last_name, email, phone, seller, amount_cents, created_at
		 FROM payments ORDER BY ticket_number`)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	payments := make([]models.Payment, 0)
	for rows.Next() {
		var p models.Payment
		var amount int64
		if err := rows.Scan(&p.Ticket, &p.FirstName, &p.LastName, &p.Email, &p.Phone, &p.Seller, &amount, &p.Date); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		p.Amount = models.Cents(amount)
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iter payments: %w", err)
	}
	return payments, nil
}

// ReplaceAllPayments swaps the entire ledger for the given records and
// recomputes every seller aggregate by folding over the replacement
// set. The ticket counter is reseeded from the new highest number.
func (s *Store) ReplaceAllPayments(ctx context.Context, records []models.Payment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM payments`); err != nil {
		return fmt.Errorf("clear payments: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sellers`); err != nil {
		return fmt.Errorf("clear sellers: %w", err)
	}

	aggregates := map[string]models.SellerStats{}
	var maxTicket int64
	for _, rec := range records {
		seller := NormalizeSeller(rec.Seller)
		date := rec.Date
		if date.IsZero() {
			date = time.Now().UTC()
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO payments(ticket_number, first_name, last_name, email, phone, seller, amount_cents, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.Ticket, rec.FirstName, rec.LastName, rec.Email, rec.Phone, seller, int64(rec.Amount), date); err != nil {
			return fmt.Errorf("insert imported payment %d: %w", rec.Ticket, err)
		}
		agg := aggregates[seller]
		agg.Tickets++
		agg.Revenue += rec.Amount
		aggregates[seller] = agg
		if rec.Ticket > maxTicket {
			maxTicket = rec.Ticket
		}
	}

	for name, agg := range aggregates {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sellers(name, tickets, revenue_cents) VALUES (?, ?, ?)`,
			name, agg.Tickets, int64(agg.Revenue)); err != nil {
			return fmt.Errorf("insert seller stats: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE counters SET value = ? WHERE name = ?`, maxTicket, ticketCounter); err != nil {
		return fmt.Errorf("reseed counter: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	return nil
}

// BackfillDefaults fills missing seller and amount fields on historical
// rows: blank sellers become the catch-all bucket, zero amounts the
// 2.00 single-ticket price. Returns how many rows were touched.
func (s *Store) BackfillDefaults(ctx context.Context) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin backfill: %w", err)
	}
	defer tx.Rollback()

	var fixed int64
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM payments WHERE TRIM(seller) = '' OR amount_cents = 0`).Scan(&fixed); err != nil {
		return 0, fmt.Errorf("count backfill rows: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE payments SET seller = ? WHERE TRIM(seller) = ''`, models.UnspecifiedSeller); err != nil {
		return 0, fmt.Errorf("backfill sellers: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE payments SET amount_cents = 200 WHERE amount_cents = 0`); err != nil {
		return 0, fmt.Errorf("backfill amounts: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit backfill: %w", err)
	}
	return fixed, nil
}

// Stats returns the dashboard summary. Total revenue is the sum over
// the seller aggregates.
func (s *Store) Stats(ctx context.Context) (models.Stats, error) {
	stats := models.Stats{Sellers: map[string]models.SellerStats{}}

	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM payments`).Scan(&stats.TotalTickets); err != nil {
		return models.Stats{}, fmt.Errorf("count tickets: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT name, tickets, revenue_cents FROM sellers`)
	if err != nil {
		return models.Stats{}, fmt.Errorf("list sellers: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		var agg models.SellerStats
		var revenue int64
		if err := rows.Scan(&name, &agg.Tickets, &revenue); err != nil {
			return models.Stats{}, fmt.Errorf("scan seller: %w", err)
		}
		agg.Revenue = models.Cents(revenue)
		stats.Sellers[name] = agg
		stats.TotalRevenue += agg.Revenue
	}
	if err := rows.Err(); err != nil {
		return models.Stats{}, fmt.Errorf("iter sellers: %w", err)
	}
	return stats, nil
}

// GetContent returns the site content document, or the empty document
// when nothing has been saved yet.
func (s *Store) GetContent(ctx context.Context) (models.SiteContent, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM site_content WHERE id = 1`).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return models.EmptyContent(), nil
	}
	if err != nil {
		return models.SiteContent{}, fmt.Errorf("read content: %w", err)
	}
	var content models.SiteContent
	if err := json.Unmarshal([]byte(data), &content); err != nil {
		return models.SiteContent{}, fmt.Errorf("decode content: %w", err)
	}
	return content, nil
}

// ReplaceContent overwrites the site content document wholesale. Last
// writer wins, no merge.
func (s *Store) ReplaceContent(ctx context.Context, content models.SiteContent) error {
	data, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("encode content: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO site_content(id, data) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET data = excluded.data`, string(data)); err != nil {
		return fmt.Errorf("write content: %w", err)
	}
	return nil
}
