package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"NewsAggregator/internal/domain"
	"NewsAggregator/internal/ports"
)

var articleColumns = []string{
	"id", "url", "title", "description", "content", "author", "source_name",
	"published_at", "summary", "bias_label", "classified_at", "created_at", "updated_at",
}

// PostgresRepository persists articles and categories into Postgres.
type PostgresRepository struct {
	db DB
}

var _ ports.ArticleRepository = (*PostgresRepository)(nil)

// NewPostgresRepository wires a pgx pool (or anything shaped like one).
func NewPostgresRepository(db DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// CreateArticle inserts the article and its category links in one transaction.
func (r *PostgresRepository) CreateArticle(ctx context.Context, article domain.Article, categories []string) (created domain.Article, err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return domain.Article{}, fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	bias := article.Bias
	if bias == "" {
		bias = domain.BiasUnknown
	}
	query, args, err := psql.Insert("articles").
		Columns("url", "title", "description", "content", "author", "source_name", "published_at", "summary", "bias_label").
		Values(article.URL, article.Title, article.Description, article.Content, article.Author,
			article.SourceName, article.PublishedAt, article.Summary, string(bias)).
		Suffix("ON CONFLICT (url) DO NOTHING RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return domain.Article{}, fmt.Errorf("build insert: %w", err)
	}

	created = article
	created.Bias = bias
	err = tx.QueryRow(ctx, query, args...).Scan(&created.ID, &created.CreatedAt, &created.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Article{}, fmt.Errorf("%s: %w", article.URL, domain.ErrDuplicateArticle)
	}
	if err != nil {
		return domain.Article{}, fmt.Errorf("insert article: %w", err)
	}

	created.CategoryIDs = make([]int64, 0, len(categories))
	for _, name := range categories {
		id, catErr := r.categoryID(ctx, tx, name)
		if catErr != nil {
			err = catErr
			return domain.Article{}, err
		}
		if _, err = tx.Exec(ctx,
			"INSERT INTO article_categories (article_id, category_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
			created.ID, id,
		); err != nil {
			return domain.Article{}, fmt.Errorf("link category %s: %w", name, err)
		}
		created.CategoryIDs = append(created.CategoryIDs, id)
	}

	if err = tx.Commit(ctx); err != nil {
		return domain.Article{}, fmt.Errorf("commit: %w", err)
	}
	return created, nil
}

// categoryID gets or creates a category; a concurrent insert is resolved by reading the winner's row.
func (r *PostgresRepository) categoryID(ctx context.Context, q querier, name string) (int64, error) {
	slug := Slugify(name)

	var id int64
	err := q.QueryRow(ctx,
		"INSERT INTO categories (name, slug) VALUES ($1, $2) ON CONFLICT DO NOTHING RETURNING id",
		name, slug,
	).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("insert category %s: %w", name, err)
	}

	if err := q.QueryRow(ctx,
		"SELECT id FROM categories WHERE name = $1 OR slug = $2 ORDER BY id LIMIT 1",
		name, slug,
	).Scan(&id); err != nil {
		return 0, fmt.Errorf("select category %s: %w", name, err)
	}
	return id, nil
}

// ExistsByURL reports whether an article with the URL is stored.
func (r *PostgresRepository) ExistsByURL(ctx context.Context, url string) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM articles WHERE url = $1)", url).Scan(&exists); err != nil {
		return false, fmt.Errorf("exists by url: %w", err)
	}
	return exists, nil
}

// GetByID loads the article with its category ids.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (domain.Article, error) {
	query, args, err := psql.Select(articleColumns...).From("articles").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return domain.Article{}, fmt.Errorf("build select: %w", err)
	}

	var (
		a          domain.Article
		bias       string
		classified pgtype.Timestamptz
	)
	err = r.db.QueryRow(ctx, query, args...).Scan(
		&a.ID, &a.URL, &a.Title, &a.Description, &a.Content, &a.Author, &a.SourceName,
		&a.PublishedAt, &a.Summary, &bias, &classified, &a.CreatedAt, &a.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Article{}, fmt.Errorf("article %d: %w", id, domain.ErrArticleNotFound)
	}
	if err != nil {
		return domain.Article{}, fmt.Errorf("get article %d: %w", id, err)
	}
	a.Bias = domain.ParseBiasLabel(bias)
	if classified.Valid {
		a.ClassifiedAt = classified.Time
	}

	rows, err := r.db.Query(ctx,
		"SELECT category_id FROM article_categories WHERE article_id = $1 ORDER BY category_id", id)
	if err != nil {
		return domain.Article{}, fmt.Errorf("article %d categories: %w", id, err)
	}
	a.CategoryIDs, err = pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return domain.Article{}, fmt.Errorf("scan categories: %w", err)
	}
	return a, nil
}

// UpdateEnrichment writes the present fields of update in one statement.
func (r *PostgresRepository) UpdateEnrichment(ctx context.Context, id int64, update domain.EnrichmentUpdate) error {
	if update.Empty() {
		return nil
	}

	builder := psql.Update("articles")
	if update.Summary != nil {
		builder = builder.Set("summary", *update.Summary)
	}
	if update.Bias != nil {
		builder = builder.Set("bias_label", string(*update.Bias))
	}
	if update.Classified {
		builder = builder.Set("classified_at", sq.Expr("NOW()"))
	}
	query, args, err := builder.Set("updated_at", sq.Expr("NOW()")).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	return r.execOne(ctx, id, query, args...)
}

// ResetEnrichment clears the summary and sets the bias back to UNKNOWN, unclassified.
func (r *PostgresRepository) ResetEnrichment(ctx context.Context, id int64) error {
	query, args, err := psql.Update("articles").
		Set("summary", "").
		Set("bias_label", string(domain.BiasUnknown)).
		Set("classified_at", sq.Expr("NULL")).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build reset: %w", err)
	}
	return r.execOne(ctx, id, query, args...)
}

func (r *PostgresRepository) execOne(ctx context.Context, id int64, query string, args ...any) error {
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update article %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("article %d: %w", id, domain.ErrArticleNotFound)
	}
	return nil
}

// ListNeedingEnrichment returns ids of analyzable articles missing a summary or never classified,
// newest first. A confirmed UNKNOWN label does not count as missing.
func (r *PostgresRepository) ListNeedingEnrichment(ctx context.Context, limit int) ([]int64, error) {
	if limit <= 0 {
		return nil, nil
	}
	query, args, err := psql.Select("id").From("articles").
		Where(sq.Or{
			sq.Eq{"summary": ""},
			sq.And{sq.Eq{"bias_label": string(domain.BiasUnknown)}, sq.Eq{"classified_at": nil}},
		}).
		Where(sq.Or{sq.NotEq{"content": ""}, sq.NotEq{"description": ""}}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list needing enrichment: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("scan ids: %w", err)
	}
	return ids, nil
}

// DeleteOlderThan removes articles published before cutoff.
func (r *PostgresRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query, args, err := psql.Delete("articles").Where(sq.Lt{"published_at": cutoff}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete: %w", err)
	}
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete old articles: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Slugify lowercases the name and joins words with dashes.
func Slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
