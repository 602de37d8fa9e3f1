package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/utafrali/discovery/internal/domain"
	"github.com/utafrali/discovery/internal/repository"
	"github.com/utafrali/discovery/pkg/database"
)

const historyColumns = `id, user_id, query, normalized_query, kind, filters, items_found, vendors_found, ip_address, user_agent, created_at`

// HistoryRepository implements repository.HistoryRepository using PostgreSQL.
type HistoryRepository struct {
	pool database.DBTX
}

var _ repository.HistoryRepository = (*HistoryRepository)(nil)

// NewHistoryRepository creates a new PostgreSQL-backed history repository.
func NewHistoryRepository(pool database.DBTX) *HistoryRepository {
	return &HistoryRepository{pool: pool}
}

// Create inserts a new history entry.
func (r *HistoryRepository) Create(ctx context.Context, e *domain.SearchHistoryEntry) (err error) {
	filtersJSON, err := json.Marshal(e.Filters)
	if err != nil {
		return fmt.Errorf("marshal filters: %w", err)
	}

	query := `
		INSERT INTO search_history (` + historyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	ctx, end := database.TraceQuery(ctx, "CreateHistoryEntry", query)
	defer func() { end(err) }()

	_, err = r.pool.Exec(ctx, query,
		e.ID,
		e.UserID,
		e.Query,
		e.NormalizedQuery,
		e.Kind,
		filtersJSON,
		e.ItemsFound,
		e.VendorsFound,
		e.IPAddress,
		e.UserAgent,
		e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert history entry: %w", err)
	}
	return nil
}

// ListByUser returns the user's entries, newest first.
func (r *HistoryRepository) ListByUser(ctx context.Context, userID string, offset, limit int) (entries []domain.SearchHistoryEntry, total int, err error) {
	query := `
		SELECT ` + historyColumns + `,
		       count(*) OVER() AS total_count
		FROM search_history
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`

	ctx, end := database.TraceQuery(ctx, "ListHistory", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	entries = make([]domain.SearchHistoryEntry, 0)
	for rows.Next() {
		var (
			e           domain.SearchHistoryEntry
			filtersJSON []byte
		)
		if err := rows.Scan(append(historyDest(&e, &filtersJSON), &total)...); err != nil {
			return nil, 0, fmt.Errorf("scan history row: %w", err)
		}
		if err := unmarshalFilters(filtersJSON, &e); err != nil {
			return nil, 0, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate history rows: %w", err)
	}

	if len(entries) == 0 && offset > 0 {
		if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM search_history WHERE user_id = $1`, userID).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("count history: %w", err)
		}
	}

	return entries, total, nil
}

// RecentUnique keeps the latest entry of each normalized query.
func (r *HistoryRepository) RecentUnique(ctx context.Context, userID string, limit int) (entries []domain.SearchHistoryEntry, err error) {
	query := `
		SELECT ` + historyColumns + `
		FROM (
			SELECT DISTINCT ON (normalized_query) ` + historyColumns + `
			FROM search_history
			WHERE user_id = $1
			ORDER BY normalized_query, created_at DESC, id DESC
		) latest
		ORDER BY created_at DESC, id DESC
		LIMIT $2`

	ctx, end := database.TraceQuery(ctx, "RecentUniqueHistory", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent history: %w", err)
	}
	defer rows.Close()

	entries = make([]domain.SearchHistoryEntry, 0, limit)
	for rows.Next() {
		var (
			e           domain.SearchHistoryEntry
			filtersJSON []byte
		)
		if err := rows.Scan(historyDest(&e, &filtersJSON)...); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		if err := unmarshalFilters(filtersJSON, &e); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history rows: %w", err)
	}
	return entries, nil
}

// DeleteByUser removes all of the user's entries.
func (r *HistoryRepository) DeleteByUser(ctx context.Context, userID string) (n int, err error) {
	query := `DELETE FROM search_history WHERE user_id = $1`

	ctx, end := database.TraceQuery(ctx, "ClearHistory", query)
	defer func() { end(err) }()

	ct, err := r.pool.Exec(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("clear history: %w", err)
	}
	return int(ct.RowsAffected()), nil
}

// DeleteByID removes one entry when it belongs to userID. The lookup and the
// delete run as a single statement, so the outcome reflects one snapshot.
func (r *HistoryRepository) DeleteByID(ctx context.Context, userID, id string) (outcome domain.DeleteOutcome, err error) {
	query := `
		WITH target AS (
			SELECT id, user_id FROM search_history WHERE id = $1
		), removed AS (
			DELETE FROM search_history h
			USING target t
			WHERE h.id = t.id AND t.user_id = $2
			RETURNING h.id
		)
		SELECT (SELECT count(*) FROM target), (SELECT count(*) FROM removed)`

	ctx, end := database.TraceQuery(ctx, "DeleteHistoryEntry", query)
	defer func() { end(err) }()

	var found, removed int
	if err := r.pool.QueryRow(ctx, query, id, userID).Scan(&found, &removed); err != nil {
		return domain.DeleteOutcomeNotFound, fmt.Errorf("delete history entry: %w", err)
	}

	switch {
	case removed > 0:
		return domain.DeleteOutcomeDeleted, nil
	case found == 0:
		return domain.DeleteOutcomeNotFound, nil
	default:
		return domain.DeleteOutcomeForeign, nil
	}
}

// PopularByPrefix groups successful searches by normalized query prefix.
func (r *HistoryRepository) PopularByPrefix(ctx context.Context, prefix string, limit int) (out []domain.PopularQuery, err error) {
	query := `
		SELECT (array_agg(query ORDER BY created_at DESC))[1] AS display_query,
		       normalized_query,
		       count(*) AS search_count
		FROM search_history
		WHERE normalized_query LIKE $1 AND items_found > 0
		GROUP BY normalized_query
		ORDER BY search_count DESC, max(created_at) DESC
		LIMIT $2`

	ctx, end := database.TraceQuery(ctx, "PopularByPrefix", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, database.EscapeLike(prefix)+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("popular history by prefix: %w", err)
	}
	defer rows.Close()

	out = make([]domain.PopularQuery, 0, limit)
	for rows.Next() {
		var p domain.PopularQuery
		if err := rows.Scan(&p.Query, &p.NormalizedQuery, &p.Count); err != nil {
			return nil, fmt.Errorf("scan popular query: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate popular queries: %w", err)
	}
	return out, nil
}

// Trending groups successful searches since the given instant.
func (r *HistoryRepository) Trending(ctx context.Context, since time.Time, limit int) (out []domain.TrendingEntry, err error) {
	query := `
		SELECT (array_agg(query ORDER BY created_at DESC))[1] AS display_query,
		       normalized_query,
		       count(*) AS search_count,
		       max(created_at) AS last_searched_at
		FROM search_history
		WHERE created_at >= $1 AND items_found > 0
		GROUP BY normalized_query
		ORDER BY search_count DESC, last_searched_at DESC
		LIMIT $2`

	ctx, end := database.TraceQuery(ctx, "Trending", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("trending: %w", err)
	}
	defer rows.Close()

	out = make([]domain.TrendingEntry, 0, limit)
	for rows.Next() {
		var e domain.TrendingEntry
		if err := rows.Scan(&e.Query, &e.NormalizedQuery, &e.Count, &e.LastSearchedAt); err != nil {
			return nil, fmt.Errorf("scan trending row: %w", err)
		}
		e.LastSearchedAt = e.LastSearchedAt.UTC()
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trending rows: %w", err)
	}
	return out, nil
}

// DeleteAnonymousBefore expires anonymous entries older than cutoff.
func (r *HistoryRepository) DeleteAnonymousBefore(ctx context.Context, cutoff time.Time) (n int, err error) {
	query := `DELETE FROM search_history WHERE user_id IS NULL AND created_at < $1`

	ctx, end := database.TraceQuery(ctx, "DeleteAnonymousHistory", query)
	defer func() { end(err) }()

	ct, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete anonymous history: %w", err)
	}
	return int(ct.RowsAffected()), nil
}

func historyDest(e *domain.SearchHistoryEntry, filtersJSON *[]byte) []any {
	return []any{
		&e.ID,
		&e.UserID,
		&e.Query,
		&e.NormalizedQuery,
		&e.Kind,
		filtersJSON,
		&e.ItemsFound,
		&e.VendorsFound,
		&e.IPAddress,
		&e.UserAgent,
		&e.CreatedAt,
	}
}

func unmarshalFilters(data []byte, e *domain.SearchHistoryEntry) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, &e.Filters); err != nil {
		return fmt.Errorf("unmarshal filters: %w", err)
	}
	return nil
}
