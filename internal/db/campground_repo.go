package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jacobstr/crusher/internal/types"
)

// CampgroundRepository serves the campground directory from the campgrounds
// table. Tags are a text[] column so one campground can belong to several
// named groups.
type CampgroundRepository struct {
	db DBTX
}

var _ types.CampgroundDirectory = (*CampgroundRepository)(nil)

// NewCampgroundRepository creates a CampgroundRepository backed by the given
// database connection.
func NewCampgroundRepository(db DBTX) *CampgroundRepository {
	return &CampgroundRepository{db: db}
}

const campgroundColumns = `id, name, short_name, tags, timezone`

func scanCampground(row pgx.Row) (*types.Campground, error) {
	var cg types.Campground
	err := row.Scan(&cg.ID, &cg.Name, &cg.ShortName, &cg.Tags, &cg.Timezone)
	if err != nil {
		return nil, err
	}
	return &cg, nil
}

func (r *CampgroundRepository) collect(ctx context.Context, query string, args ...any) ([]types.Campground, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "querying campgrounds failed", err)
	}
	defer rows.Close()

	var campgrounds []types.Campground
	for rows.Next() {
		cg, err := scanCampground(rows)
		if err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "scanning campground row failed", err)
		}
		campgrounds = append(campgrounds, *cg)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "iterating campground rows failed", err)
	}
	return campgrounds, nil
}

// List returns the whole campground directory ordered by name.
func (r *CampgroundRepository) List(ctx context.Context) ([]types.Campground, error) {
	query := fmt.Sprintf(`SELECT %s FROM campgrounds ORDER BY name`, campgroundColumns)
	return r.collect(ctx, query)
}

// ByTag returns the campgrounds carrying the given tag. An unknown tag yields
// an empty slice, not an error; callers decide whether that is a problem.
func (r *CampgroundRepository) ByTag(ctx context.Context, tag string) ([]types.Campground, error) {
	query := fmt.Sprintf(`SELECT %s FROM campgrounds WHERE $1 = ANY(tags) ORDER BY name`, campgroundColumns)
	return r.collect(ctx, query, tag)
}

// Tags returns the distinct set of tags across the directory, sorted.
func (r *CampgroundRepository) Tags(ctx context.Context) ([]string, error) {
	query := `SELECT DISTINCT unnest(tags) AS tag FROM campgrounds ORDER BY tag`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "querying campground tags failed", err)
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "scanning campground tag failed", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "iterating campground tags failed", err)
	}
	return tags, nil
}
