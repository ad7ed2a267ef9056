package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jacobstr/crusher/internal/types"
)

// WatcherRepository provides data access for the watchers table. Results are
// stored as a JSONB column and replaced wholesale on every update; the
// record is the unit of atomicity for the poll cycle.
type WatcherRepository struct {
	db DBTX
}

// Compile-time assertion that WatcherRepository implements the store contract.
var _ types.WatcherRepository = (*WatcherRepository)(nil)

// NewWatcherRepository creates a WatcherRepository backed by the given
// database connection (pool or transaction).
func NewWatcherRepository(db DBTX) *WatcherRepository {
	return &WatcherRepository{db: db}
}

// watcherColumns is the standard column set for watcher queries.
const watcherColumns = `id, user_id, campground_tag, start_date, length_nights, silenced, results, created_at, updated_at`

func scanWatcher(row pgx.Row) (*types.Watcher, error) {
	var w types.Watcher
	var results []byte

	err := row.Scan(
		&w.ID,
		&w.UserID,
		&w.CampgroundTag,
		&w.Start,
		&w.Length,
		&w.Silenced,
		&results,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(results) > 0 {
		if err := json.Unmarshal(results, &w.Results); err != nil {
			return nil, fmt.Errorf("decoding results column for watcher %s: %w", w.ID, err)
		}
	}
	return &w, nil
}

// List returns all watchers in creation order.
func (r *WatcherRepository) List(ctx context.Context) ([]types.Watcher, error) {
	query := fmt.Sprintf(`SELECT %s FROM watchers ORDER BY created_at`, watcherColumns)

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "listing watchers failed", err)
	}
	defer rows.Close()

	var watchers []types.Watcher
	for rows.Next() {
		w, err := scanWatcher(rows)
		if err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "scanning watcher row failed", err)
		}
		watchers = append(watchers, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "iterating watcher rows failed", err)
	}
	return watchers, nil
}

// Get fetches one watcher by id.
func (r *WatcherRepository) Get(ctx context.Context, id string) (*types.Watcher, error) {
	query := fmt.Sprintf(`SELECT %s FROM watchers WHERE id = $1`, watcherColumns)

	w, err := scanWatcher(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewAppError(types.ErrCodeNotFoundWatcher,
				fmt.Sprintf("watcher %s not found", id), err)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "fetching watcher failed", err)
	}
	return w, nil
}

// Create inserts a new watcher record.
func (r *WatcherRepository) Create(ctx context.Context, w *types.Watcher) error {
	results, err := marshalResults(w.Results)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO watchers (id, user_id, campground_tag, start_date, length_nights, silenced, results, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err = r.db.Exec(ctx, query,
		w.ID, w.UserID, w.CampgroundTag, w.Start, w.Length, w.Silenced, results, w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "creating watcher failed", err)
	}
	return nil
}

// Update replaces the whole watcher record (last write wins).
func (r *WatcherRepository) Update(ctx context.Context, w *types.Watcher) error {
	results, err := marshalResults(w.Results)
	if err != nil {
		return err
	}

	query := `
		UPDATE watchers
		SET user_id = $2, campground_tag = $3, start_date = $4, length_nights = $5,
		    silenced = $6, results = $7, updated_at = $8
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		w.ID, w.UserID, w.CampgroundTag, w.Start, w.Length, w.Silenced, results, w.UpdatedAt,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "updating watcher failed", err)
	}
	if tag.RowsAffected() == 0 {
		return types.NewAppError(types.ErrCodeNotFoundWatcher,
			fmt.Sprintf("watcher %s not found", w.ID), nil)
	}
	return nil
}

// Delete removes a watcher by id.
func (r *WatcherRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM watchers WHERE id = $1`, id)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "deleting watcher failed", err)
	}
	if tag.RowsAffected() == 0 {
		return types.NewAppError(types.ErrCodeNotFoundWatcher,
			fmt.Sprintf("watcher %s not found", id), nil)
	}
	return nil
}

// marshalResults encodes a result set for the JSONB column. An empty set is
// stored as an empty JSON array rather than NULL so round-trips stay
// symmetric.
func marshalResults(results []types.Result) ([]byte, error) {
	if results == nil {
		results = []types.Result{}
	}
	encoded, err := json.Marshal(results)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected,
			"encoding watcher results failed", err)
	}
	return encoded, nil
}
