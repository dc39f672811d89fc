package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/platescore/internal/apperr"
	"github.com/dukerupert/platescore/internal/model"
)

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 500
)

type TrackingStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewTrackingStore(db *sql.DB) *TrackingStore {
	return &TrackingStore{db: db, now: time.Now}
}

func scanEntry(scanner interface{ Scan(...any) error }) (*model.TrackingEntry, error) {
	var e model.TrackingEntry
	var productJSON string
	var createdAt int64

	err := scanner.Scan(&e.ID, &e.UserID, &productJSON, &e.Quantity, &createdAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(productJSON), &e.FoodProduct); err != nil {
		return nil, fmt.Errorf("decode product snapshot: %w", err)
	}
	e.Timestamp = time.Unix(0, createdAt).UTC()
	return &e, nil
}

const entryCols = `id, user_id, product_json, quantity, created_at`

// Create stores a new entry with a fresh id and timestamp. The product is
// stored as a snapshot; later changes to the caller's value do not affect it.
func (s *TrackingStore) Create(ctx context.Context, userID string, product model.FoodProduct, quantity int) (*model.TrackingEntry, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperr.Validation("user_id is required")
	}
	if quantity <= 0 {
		return nil, apperr.Validation("quantity must be a positive number of grams")
	}
	if strings.TrimSpace(product.ID) == "" || strings.TrimSpace(product.ProductName) == "" {
		return nil, apperr.Validation("food_product needs an id and product_name")
	}

	snapshot := product.Clone()
	productJSON, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("encode product snapshot: %w", err)
	}

	entry := &model.TrackingEntry{
		ID:          uuid.NewString(),
		UserID:      userID,
		FoodProduct: snapshot,
		Quantity:    quantity,
		Timestamp:   s.now().UTC(),
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO tracking_entries (id, user_id, product_id, product_name, product_json, quantity, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.UserID, snapshot.ID, snapshot.ProductName, string(productJSON), entry.Quantity, entry.Timestamp.UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert tracking entry: %w", err)
	}
	// Normalise to what a later read returns.
	entry.Timestamp = time.Unix(0, entry.Timestamp.UnixNano()).UTC()
	return entry, nil
}

func (s *TrackingStore) GetByID(ctx context.Context, id string) (*model.TrackingEntry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+entryCols+` FROM tracking_entries WHERE id = ?`, id)
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get tracking entry: %w", err)
	}
	return e, nil
}

// ListByUser returns a user's entries, most recent first. An unknown user
// gets an empty slice. limit <= 0 means DefaultHistoryLimit.
func (s *TrackingStore) ListByUser(ctx context.Context, userID string, limit int) ([]model.TrackingEntry, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	limit = min(limit, MaxHistoryLimit)

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entryCols+` FROM tracking_entries WHERE user_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		strings.TrimSpace(userID), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list tracking entries: %w", err)
	}
	defer rows.Close()

	entries := []model.TrackingEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tracking entry: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// DeleteByID removes an entry. It returns an apperr NotFound error when no
// entry with that id exists, including when a concurrent delete removed it
// first.
func (s *TrackingStore) DeleteByID(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM tracking_entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete tracking entry: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return apperr.NotFound(fmt.Sprintf("tracking entry %s not found", id))
	}
	return nil
}

// CountByUser returns how many entries a user has logged.
func (s *TrackingStore) CountByUser(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tracking_entries WHERE user_id = ?`,
		strings.TrimSpace(userID),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count tracking entries: %w", err)
	}
	return count, nil
}
