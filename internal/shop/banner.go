package shop

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type Banner struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Image     string    `json:"image"`
	Link      string    `json:"link"`
	Order     int       `json:"order"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

type BannerInput struct {
	Title    string `json:"title"`
	Image    string `json:"image"`
	Link     string `json:"link"`
	Order    *int   `json:"order"`
	IsActive *bool  `json:"isActive"`
}

func (in BannerInput) Validate() error {
	if strings.TrimSpace(in.Image) == "" {
		return invalid("image is required")
	}
	return nil
}

type BannerPatch struct {
	Title    *string `json:"title"`
	Image    *string `json:"image"`
	Link     *string `json:"link"`
	Order    *int    `json:"order"`
	IsActive *bool   `json:"isActive"`
}

func (p BannerPatch) Validate() error {
	if p.Image != nil && strings.TrimSpace(*p.Image) == "" {
		return invalid("image cannot be empty")
	}
	return nil
}

func (p BannerPatch) Apply(b *Banner) {
	if p.Title != nil {
		b.Title = *p.Title
	}
	if p.Image != nil {
		b.Image = strings.TrimSpace(*p.Image)
	}
	if p.Link != nil {
		b.Link = *p.Link
	}
	if p.Order != nil {
		b.Order = *p.Order
	}
	if p.IsActive != nil {
		b.IsActive = *p.IsActive
	}
}

type BannerRepo struct{ DB DB }

const bannerColumns = `id, title, image, link, sort_order, is_active, created_at`

func scanBanner(row pgx.Row) (Banner, error) {
	var b Banner
	err := row.Scan(&b.ID, &b.Title, &b.Image, &b.Link, &b.Order, &b.IsActive, &b.CreatedAt)
	return b, err
}

func (r *BannerRepo) List(ctx context.Context) ([]Banner, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+bannerColumns+` FROM banners ORDER BY sort_order ASC, created_at DESC`)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanBanner)
}

func (r *BannerRepo) ListActive(ctx context.Context) ([]Banner, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+bannerColumns+` FROM banners WHERE is_active ORDER BY sort_order ASC, created_at DESC`)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanBanner)
}

func (r *BannerRepo) Get(ctx context.Context, id string) (Banner, error) {
	b, err := scanBanner(r.DB.QueryRow(ctx, `SELECT `+bannerColumns+` FROM banners WHERE id=$1`, id))
	return b, storeErr(err)
}

func (r *BannerRepo) Create(ctx context.Context, in BannerInput) (Banner, error) {
	if err := in.Validate(); err != nil {
		return Banner{}, err
	}
	b := Banner{
		ID:        uuid.NewString(),
		Title:     in.Title,
		Image:     strings.TrimSpace(in.Image),
		Link:      in.Link,
		Order:     orDefault(in.Order, 0),
		IsActive:  orDefault(in.IsActive, true),
		CreatedAt: now(),
	}
	_, err := r.DB.Exec(ctx, `INSERT INTO banners(`+bannerColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		b.ID, b.Title, b.Image, b.Link, b.Order, b.IsActive, b.CreatedAt)
	if err != nil {
		return Banner{}, storeErr(err)
	}
	return b, nil
}

func (r *BannerRepo) Update(ctx context.Context, id string, p BannerPatch) (Banner, error) {
	if err := p.Validate(); err != nil {
		return Banner{}, err
	}
	b, err := r.Get(ctx, id)
	if err != nil {
		return Banner{}, err
	}
	p.Apply(&b)
	ct, err := r.DB.Exec(ctx, `UPDATE banners SET title=$2, image=$3, link=$4, sort_order=$5, is_active=$6 WHERE id=$1`,
		b.ID, b.Title, b.Image, b.Link, b.Order, b.IsActive)
	if err != nil {
		return Banner{}, storeErr(err)
	}
	if err := affectedOne(ct.RowsAffected()); err != nil {
		return Banner{}, err
	}
	return b, nil
}

func (r *BannerRepo) Delete(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM banners WHERE id=$1`, id)
	if err != nil {
		return storeErr(err)
	}
	return affectedOne(ct.RowsAffected())
}
