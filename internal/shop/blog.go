package shop

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type BlogPost struct {
	ID          string     `json:"id"`
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Excerpt     string     `json:"excerpt"`
	Content     string     `json:"content"`
	Category    string     `json:"category"`
	Author      string     `json:"author"`
	CoverImage  string     `json:"coverImage"`
	Featured    bool       `json:"featured"`
	Published   bool       `json:"published"`
	PublishedAt *time.Time `json:"publishedAt"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// stampPublished sets PublishedAt the first time a post goes live.
func (b *BlogPost) stampPublished(at time.Time) {
	if b.Published && b.PublishedAt == nil {
		b.PublishedAt = &at
	}
}

type BlogInput struct {
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Excerpt     string     `json:"excerpt"`
	Content     string     `json:"content"`
	Category    string     `json:"category"`
	Author      string     `json:"author"`
	CoverImage  string     `json:"coverImage"`
	Featured    *bool      `json:"featured"`
	Published   *bool      `json:"published"`
	PublishedAt *time.Time `json:"publishedAt"`
}

func (in BlogInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return invalid("title is required")
	}
	_, err := slugFor(in.Slug, in.Title)
	return err
}

type BlogPatch struct {
	Title       *string    `json:"title"`
	Slug        *string    `json:"slug"`
	Excerpt     *string    `json:"excerpt"`
	Content     *string    `json:"content"`
	Category    *string    `json:"category"`
	Author      *string    `json:"author"`
	CoverImage  *string    `json:"coverImage"`
	Featured    *bool      `json:"featured"`
	Published   *bool      `json:"published"`
	PublishedAt *time.Time `json:"publishedAt"`
}

func (p BlogPatch) Validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return invalid("title cannot be empty")
	}
	if p.Slug != nil && Slugify(*p.Slug) == "" {
		return invalid("slug cannot be empty")
	}
	return nil
}

func (p BlogPatch) Apply(b *BlogPost) {
	if p.Title != nil {
		b.Title = strings.TrimSpace(*p.Title)
	}
	if p.Slug != nil {
		b.Slug = Slugify(*p.Slug)
	}
	if p.Excerpt != nil {
		b.Excerpt = *p.Excerpt
	}
	if p.Content != nil {
		b.Content = *p.Content
	}
	if p.Category != nil {
		b.Category = strings.TrimSpace(*p.Category)
	}
	if p.Author != nil {
		b.Author = *p.Author
	}
	if p.CoverImage != nil {
		b.CoverImage = *p.CoverImage
	}
	if p.Featured != nil {
		b.Featured = *p.Featured
	}
	if p.Published != nil {
		b.Published = *p.Published
	}
	if p.PublishedAt != nil {
		b.PublishedAt = p.PublishedAt
	}
}

// BlogFilter narrows the public blog listing.
type BlogFilter struct {
	Category string
	Featured bool
	Limit    int
}

const (
	DefaultBlogLimit = 10
	MaxBlogLimit     = 50
)

type BlogRepo struct{ DB DB }

const blogColumns = `id, slug, title, excerpt, content, category, author, cover_image, featured, published,
	published_at, created_at, updated_at`

func scanBlogPost(row pgx.Row) (BlogPost, error) {
	var b BlogPost
	err := row.Scan(&b.ID, &b.Slug, &b.Title, &b.Excerpt, &b.Content, &b.Category, &b.Author, &b.CoverImage,
		&b.Featured, &b.Published, &b.PublishedAt, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

func (r *BlogRepo) List(ctx context.Context) ([]BlogPost, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+blogColumns+` FROM blog_posts ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanBlogPost)
}

func (r *BlogRepo) ListPublished(ctx context.Context, f BlogFilter) ([]BlogPost, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+blogColumns+` FROM blog_posts
		WHERE published
		  AND ($1 = '' OR category = $1)
		  AND (NOT $2 OR featured)
		ORDER BY published_at DESC NULLS LAST, created_at DESC
		LIMIT $3`, strings.TrimSpace(f.Category), f.Featured, clampLimit(f.Limit, DefaultBlogLimit, MaxBlogLimit))
	if err != nil {
		return nil, err
	}
	return collect(rows, scanBlogPost)
}

func (r *BlogRepo) GetPublishedBySlug(ctx context.Context, slug string) (BlogPost, error) {
	b, err := scanBlogPost(r.DB.QueryRow(ctx, `SELECT `+blogColumns+` FROM blog_posts WHERE slug=$1 AND published`, slug))
	return b, storeErr(err)
}

func (r *BlogRepo) Get(ctx context.Context, id string) (BlogPost, error) {
	b, err := scanBlogPost(r.DB.QueryRow(ctx, `SELECT `+blogColumns+` FROM blog_posts WHERE id=$1`, id))
	return b, storeErr(err)
}

func (r *BlogRepo) Create(ctx context.Context, in BlogInput) (BlogPost, error) {
	if err := in.Validate(); err != nil {
		return BlogPost{}, err
	}
	slug, _ := slugFor(in.Slug, in.Title)
	ts := now()
	b := BlogPost{
		ID:          uuid.NewString(),
		Slug:        slug,
		Title:       strings.TrimSpace(in.Title),
		Excerpt:     in.Excerpt,
		Content:     in.Content,
		Category:    strings.TrimSpace(in.Category),
		Author:      in.Author,
		CoverImage:  in.CoverImage,
		Featured:    orDefault(in.Featured, false),
		Published:   orDefault(in.Published, false),
		PublishedAt: in.PublishedAt,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	b.stampPublished(ts)
	_, err := r.DB.Exec(ctx, `INSERT INTO blog_posts(`+blogColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		b.ID, b.Slug, b.Title, b.Excerpt, b.Content, b.Category, b.Author, b.CoverImage, b.Featured, b.Published,
		b.PublishedAt, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return BlogPost{}, storeErr(err)
	}
	return b, nil
}

func (r *BlogRepo) Update(ctx context.Context, id string, p BlogPatch) (BlogPost, error) {
	if err := p.Validate(); err != nil {
		return BlogPost{}, err
	}
	b, err := r.Get(ctx, id)
	if err != nil {
		return BlogPost{}, err
	}
	p.Apply(&b)
	b.UpdatedAt = now()
	b.stampPublished(b.UpdatedAt)
	ct, err := r.DB.Exec(ctx, `UPDATE blog_posts
		SET slug=$2, title=$3, excerpt=$4, content=$5, category=$6, author=$7, cover_image=$8,
		    featured=$9, published=$10, published_at=$11, updated_at=$12
		WHERE id=$1`,
		b.ID, b.Slug, b.Title, b.Excerpt, b.Content, b.Category, b.Author, b.CoverImage,
		b.Featured, b.Published, b.PublishedAt, b.UpdatedAt)
	if err != nil {
		return BlogPost{}, storeErr(err)
	}
	if err := affectedOne(ct.RowsAffected()); err != nil {
		return BlogPost{}, err
	}
	return b, nil
}

func (r *BlogRepo) Delete(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM blog_posts WHERE id=$1`, id)
	if err != nil {
		return storeErr(err)
	}
	return affectedOne(ct.RowsAffected())
}
