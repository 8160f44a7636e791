package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kmbui/kmbui-backend/internal/model"
)

// CreateArticle inserts an article. ID and CreatedAt are populated after
// a successful insert.
func (s *Store) CreateArticle(ctx context.Context, a *model.Article) error {
	a.CreatedAt = time.Now().UTC()

	const q = `INSERT INTO articles (title, subtitle, theme, writer, content, created_at)
		VALUES (:title, :subtitle, :theme, :writer, :content, :created_at)`
	result, err := s.db.NamedExecContext(ctx, q, a)
	if err != nil {
		return fmt.Errorf("insert article: %w", err)
	}
	if id, err := result.LastInsertId(); err == nil {
		a.ID = id
	}
	return nil
}

// GetArticle returns an article by ID.
func (s *Store) GetArticle(ctx context.Context, id int64) (*model.Article, error) {
	var a model.Article
	q := s.rebind("SELECT * FROM articles WHERE id = ?")
	if err := s.db.GetContext(ctx, &a, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get article: %w", err)
	}
	return &a, nil
}

// ListArticles returns all articles, newest first.
func (s *Store) ListArticles(ctx context.Context) ([]model.Article, error) {
	var articles []model.Article
	if err := s.db.SelectContext(ctx, &articles, "SELECT * FROM articles ORDER BY created_at DESC, id DESC"); err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	return articles, nil
}

// CreateMagazine inserts a magazine issue.
func (s *Store) CreateMagazine(ctx context.Context, m *model.Magazine) error {
	m.CreatedAt = time.Now().UTC()

	const q = `INSERT INTO magazines (title, description, thumbnail_url, content_url, created_at)
		VALUES (:title, :description, :thumbnail_url, :content_url, :created_at)`
	result, err := s.db.NamedExecContext(ctx, q, m)
	if err != nil {
		return fmt.Errorf("insert magazine: %w", err)
	}
	if id, err := result.LastInsertId(); err == nil {
		m.ID = id
	}
	return nil
}

// GetMagazine returns a magazine by ID.
func (s *Store) GetMagazine(ctx context.Context, id int64) (*model.Magazine, error) {
	var m model.Magazine
	q := s.rebind("SELECT * FROM magazines WHERE id = ?")
	if err := s.db.GetContext(ctx, &m, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get magazine: %w", err)
	}
	return &m, nil
}

// ListMagazines returns all magazine issues, newest first.
func (s *Store) ListMagazines(ctx context.Context) ([]model.Magazine, error) {
	var magazines []model.Magazine
	if err := s.db.SelectContext(ctx, &magazines, "SELECT * FROM magazines ORDER BY created_at DESC, id DESC"); err != nil {
		return nil, fmt.Errorf("list magazines: %w", err)
	}
	return magazines, nil
}

// InsertUsageLog records one authenticated hit. Callers treat failures as
// log-and-continue; an audit row is never worth failing the request for.
func (s *Store) InsertUsageLog(ctx context.Context, log *model.UsageLog) error {
	log.Timestamp = time.Now().UTC()

	const q = `INSERT INTO key_usage_logs (timestamp, api_user_id, admin_user_id, endpoint, status)
		VALUES (:timestamp, :api_user_id, :admin_user_id, :endpoint, :status)`
	if _, err := s.db.NamedExecContext(ctx, q, log); err != nil {
		return fmt.Errorf("insert usage log: %w", err)
	}
	return nil
}

// ListUsageLogs returns the most recent usage rows, newest first, capped
// at limit.
func (s *Store) ListUsageLogs(ctx context.Context, limit int) ([]model.UsageLog, error) {
	if limit <= 0 {
		limit = 100
	}
	var logs []model.UsageLog
	q := s.rebind("SELECT * FROM key_usage_logs ORDER BY timestamp DESC, id DESC LIMIT ?")
	if err := s.db.SelectContext(ctx, &logs, q, limit); err != nil {
		return nil, fmt.Errorf("list usage logs: %w", err)
	}
	return logs, nil
}
