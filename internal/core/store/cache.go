package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vibecheck/vibecheck/internal/core"
)

// CachedAnalysis is a stored analysis row with its expiry metadata.
type CachedAnalysis struct {
	Title     string
	Provider  string
	Model     string
	Result    *core.VibeResult
	CreatedAt time.Time
	ExpiresAt time.Time
}

// NormalizeTitle canonicalizes a movie title for cache keying.
func NormalizeTitle(title string) string {
	return strings.ToLower(strings.Join(strings.Fields(title), " "))
}

// GetCachedAnalysis returns a cached analysis if it is still valid.
func (s *Store) GetCachedAnalysis(ctx context.Context, title, provider, model string) (*CachedAnalysis, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	key := NormalizeTitle(title)
	if key == "" {
		return nil, errors.New("cache title is required")
	}

	var (
		resultJSON string
		createdAt  int64
		expiresAt  int64
	)

	row := s.DB.QueryRowContext(ctx, `
		SELECT result_json, created_at, expires_at
		FROM vibe_cache
		WHERE title = ? AND provider = ? AND model = ? AND expires_at > ?
	`, key, provider, model, time.Now().UTC().Unix())

	if err := row.Scan(&resultJSON, &createdAt, &expiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch cached analysis: %w", err)
	}

	result := &core.VibeResult{}
	if err := json.Unmarshal([]byte(resultJSON), result); err != nil {
		return nil, fmt.Errorf("decode cached analysis: %w", err)
	}

	expires := time.Unix(expiresAt, 0).UTC()
	if result.Provenance == nil {
		result.Provenance = &core.Provenance{}
	}
	result.Provenance.FromCache = true
	result.Provenance.CacheExpiresAt = &expires

	return &CachedAnalysis{
		Title:     key,
		Provider:  provider,
		Model:     model,
		Result:    result,
		CreatedAt: time.Unix(createdAt, 0).UTC(),
		ExpiresAt: expires,
	}, nil
}

// SetCachedAnalysis stores an analysis with a TTL.
func (s *Store) SetCachedAnalysis(ctx context.Context, title, provider, model string, result *core.VibeResult, ttl time.Duration) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	if ttl <= 0 || result == nil {
		return nil
	}

	key := NormalizeTitle(title)
	if key == "" {
		return errors.New("cache title is required")
	}

	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode cached analysis: %w", err)
	}

	now := time.Now().UTC()
	expires := now.Add(ttl)

	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO vibe_cache (title, provider, model, result_json, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(title, provider, model) DO UPDATE SET
			result_json = excluded.result_json,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at
	`, key, provider, model, string(resultJSON), now.Unix(), expires.Unix())
	if err != nil {
		return fmt.Errorf("store cached analysis: %w", err)
	}

	return nil
}

// ListCachedAnalyses returns all unexpired cache rows, newest first.
func (s *Store) ListCachedAnalyses(ctx context.Context) ([]*CachedAnalysis, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT title, provider, model, result_json, created_at, expires_at
		FROM vibe_cache
		WHERE expires_at > ?
		ORDER BY created_at DESC
	`, time.Now().UTC().Unix())
	if err != nil {
		return nil, fmt.Errorf("list cached analyses: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup on SQL rows

	entries := make([]*CachedAnalysis, 0)
	for rows.Next() {
		var (
			entry      CachedAnalysis
			resultJSON string
			createdAt  int64
			expiresAt  int64
		)
		if err := rows.Scan(&entry.Title, &entry.Provider, &entry.Model, &resultJSON, &createdAt, &expiresAt); err != nil {
			return nil, fmt.Errorf("scan cached analysis: %w", err)
		}

		result := &core.VibeResult{}
		if err := json.Unmarshal([]byte(resultJSON), result); err != nil {
			return nil, fmt.Errorf("decode cached analysis: %w", err)
		}
		entry.Result = result
		entry.CreatedAt = time.Unix(createdAt, 0).UTC()
		entry.ExpiresAt = time.Unix(expiresAt, 0).UTC()

		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list cached analyses: %w", err)
	}

	return entries, nil
}

// ClearCache removes cache rows. When expiredOnly is set, valid entries
// are kept. Returns the number of rows removed.
func (s *Store) ClearCache(ctx context.Context, expiredOnly bool) (int64, error) {
	if s == nil || s.DB == nil {
		return 0, errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	query := `DELETE FROM vibe_cache`
	args := []any{}
	if expiredOnly {
		query += ` WHERE expires_at <= ?`
		args = append(args, time.Now().UTC().Unix())
	}

	res, err := s.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("clear cache: %w", err)
	}

	removed, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return removed, nil
}
