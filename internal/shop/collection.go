package shop

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Collection is a browsable grouping of products. Categories and occasions
// share this shape and live in separate tables.
type Collection struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Image       string    `json:"image"`
	IsActive    bool      `json:"isActive"`
	Order       int       `json:"order"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type CollectionInput struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Image       string `json:"image"`
	IsActive    *bool  `json:"isActive"`
	Order       *int   `json:"order"`
}

func (in CollectionInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return invalid("name is required")
	}
	_, err := slugFor(in.Slug, in.Name)
	return err
}

type CollectionPatch struct {
	Name        *string `json:"name"`
	Slug        *string `json:"slug"`
	Description *string `json:"description"`
	Image       *string `json:"image"`
	IsActive    *bool   `json:"isActive"`
	Order       *int    `json:"order"`
}

func (p CollectionPatch) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return invalid("name cannot be empty")
	}
	if p.Slug != nil && Slugify(*p.Slug) == "" {
		return invalid("slug cannot be empty")
	}
	return nil
}

func (p CollectionPatch) Apply(c *Collection) {
	if p.Name != nil {
		c.Name = strings.TrimSpace(*p.Name)
	}
	if p.Slug != nil {
		c.Slug = Slugify(*p.Slug)
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.Image != nil {
		c.Image = *p.Image
	}
	if p.IsActive != nil {
		c.IsActive = *p.IsActive
	}
	if p.Order != nil {
		c.Order = *p.Order
	}
}

type CollectionRepo struct {
	DB    DB
	table string
}

func NewCategoryRepo(db DB) *CollectionRepo { return &CollectionRepo{DB: db, table: "categories"} }

func NewOccasionRepo(db DB) *CollectionRepo { return &CollectionRepo{DB: db, table: "occasions"} }

const collectionColumns = `id, name, slug, description, image, is_active, sort_order, created_at, updated_at`

func scanCollection(row pgx.Row) (Collection, error) {
	var c Collection
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.Image, &c.IsActive, &c.Order, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *CollectionRepo) List(ctx context.Context) ([]Collection, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+collectionColumns+` FROM `+r.table+` ORDER BY sort_order ASC, name ASC`)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanCollection)
}

func (r *CollectionRepo) ListActive(ctx context.Context) ([]Collection, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+collectionColumns+` FROM `+r.table+`
		WHERE is_active ORDER BY sort_order ASC, name ASC`)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanCollection)
}

func (r *CollectionRepo) Get(ctx context.Context, id string) (Collection, error) {
	c, err := scanCollection(r.DB.QueryRow(ctx, `SELECT `+collectionColumns+` FROM `+r.table+` WHERE id=$1`, id))
	return c, storeErr(err)
}

func (r *CollectionRepo) GetBySlug(ctx context.Context, slug string) (Collection, error) {
	c, err := scanCollection(r.DB.QueryRow(ctx, `SELECT `+collectionColumns+` FROM `+r.table+` WHERE slug=$1`, slug))
	return c, storeErr(err)
}

func (r *CollectionRepo) Create(ctx context.Context, in CollectionInput) (Collection, error) {
	if err := in.Validate(); err != nil {
		return Collection{}, err
	}
	slug, _ := slugFor(in.Slug, in.Name)
	ts := now()
	c := Collection{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(in.Name),
		Slug:        slug,
		Description: in.Description,
		Image:       in.Image,
		IsActive:    orDefault(in.IsActive, true),
		Order:       orDefault(in.Order, 0),
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	_, err := r.DB.Exec(ctx, `INSERT INTO `+r.table+`(`+collectionColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		c.ID, c.Name, c.Slug, c.Description, c.Image, c.IsActive, c.Order, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return Collection{}, storeErr(err)
	}
	return c, nil
}

func (r *CollectionRepo) Update(ctx context.Context, id string, p CollectionPatch) (Collection, error) {
	if err := p.Validate(); err != nil {
		return Collection{}, err
	}
	c, err := r.Get(ctx, id)
	if err != nil {
		return Collection{}, err
	}
	p.Apply(&c)
	c.UpdatedAt = now()
	ct, err := r.DB.Exec(ctx, `UPDATE `+r.table+`
		SET name=$2, slug=$3, description=$4, image=$5, is_active=$6, sort_order=$7, updated_at=$8
		WHERE id=$1`,
		c.ID, c.Name, c.Slug, c.Description, c.Image, c.IsActive, c.Order, c.UpdatedAt)
	if err != nil {
		return Collection{}, storeErr(err)
	}
	if err := affectedOne(ct.RowsAffected()); err != nil {
		return Collection{}, err
	}
	return c, nil
}

func (r *CollectionRepo) Delete(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM `+r.table+` WHERE id=$1`, id)
	if err != nil {
		return storeErr(err)
	}
	return affectedOne(ct.RowsAffected())
}
