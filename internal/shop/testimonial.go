package shop

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type Testimonial struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Rating    int       `json:"rating"`
	Image     string    `json:"image"`
	Featured  bool      `json:"featured"`
	IsActive  bool      `json:"isActive"`
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type TestimonialInput struct {
	Name     string `json:"name"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Rating   *int   `json:"rating"`
	Image    string `json:"image"`
	Featured *bool  `json:"featured"`
	IsActive *bool  `json:"isActive"`
	Order    *int   `json:"order"`
}

func (in TestimonialInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return invalid("name is required")
	}
	if strings.TrimSpace(in.Content) == "" {
		return invalid("content is required")
	}
	return validateRating(in.Rating)
}

type TestimonialPatch struct {
	Name     *string `json:"name"`
	Title    *string `json:"title"`
	Content  *string `json:"content"`
	Rating   *int    `json:"rating"`
	Image    *string `json:"image"`
	Featured *bool   `json:"featured"`
	IsActive *bool   `json:"isActive"`
	Order    *int    `json:"order"`
}

func (p TestimonialPatch) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return invalid("name cannot be empty")
	}
	if p.Content != nil && strings.TrimSpace(*p.Content) == "" {
		return invalid("content cannot be empty")
	}
	return validateRating(p.Rating)
}

func (p TestimonialPatch) Apply(t *Testimonial) {
	if p.Name != nil {
		t.Name = strings.TrimSpace(*p.Name)
	}
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Content != nil {
		t.Content = strings.TrimSpace(*p.Content)
	}
	if p.Rating != nil {
		t.Rating = *p.Rating
	}
	if p.Image != nil {
		t.Image = *p.Image
	}
	if p.Featured != nil {
		t.Featured = *p.Featured
	}
	if p.IsActive != nil {
		t.IsActive = *p.IsActive
	}
	if p.Order != nil {
		t.Order = *p.Order
	}
}

func validateRating(r *int) error {
	if r != nil && (*r < 1 || *r > 5) {
		return invalid("rating must be between 1 and 5")
	}
	return nil
}

type TestimonialRepo struct{ DB DB }

const testimonialColumns = `id, name, title, content, rating, image, featured, is_active, sort_order, created_at, updated_at`

const testimonialOrder = ` ORDER BY featured DESC, sort_order ASC, created_at DESC`

func scanTestimonial(row pgx.Row) (Testimonial, error) {
	var t Testimonial
	err := row.Scan(&t.ID, &t.Name, &t.Title, &t.Content, &t.Rating, &t.Image, &t.Featured, &t.IsActive,
		&t.Order, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func (r *TestimonialRepo) List(ctx context.Context) ([]Testimonial, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+testimonialColumns+` FROM testimonials`+testimonialOrder)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanTestimonial)
}

func (r *TestimonialRepo) ListActive(ctx context.Context) ([]Testimonial, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+testimonialColumns+` FROM testimonials WHERE is_active`+testimonialOrder)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanTestimonial)
}

func (r *TestimonialRepo) Get(ctx context.Context, id string) (Testimonial, error) {
	t, err := scanTestimonial(r.DB.QueryRow(ctx, `SELECT `+testimonialColumns+` FROM testimonials WHERE id=$1`, id))
	return t, storeErr(err)
}

func (r *TestimonialRepo) Create(ctx context.Context, in TestimonialInput) (Testimonial, error) {
	if err := in.Validate(); err != nil {
		return Testimonial{}, err
	}
	ts := now()
	t := Testimonial{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(in.Name),
		Title:     in.Title,
		Content:   strings.TrimSpace(in.Content),
		Rating:    orDefault(in.Rating, 5),
		Image:     in.Image,
		Featured:  orDefault(in.Featured, false),
		IsActive:  orDefault(in.IsActive, true),
		Order:     orDefault(in.Order, 0),
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	_, err := r.DB.Exec(ctx, `INSERT INTO testimonials(`+testimonialColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		t.ID, t.Name, t.Title, t.Content, t.Rating, t.Image, t.Featured, t.IsActive, t.Order, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return Testimonial{}, storeErr(err)
	}
	return t, nil
}

func (r *TestimonialRepo) Update(ctx context.Context, id string, p TestimonialPatch) (Testimonial, error) {
	if err := p.Validate(); err != nil {
		return Testimonial{}, err
	}
	t, err := r.Get(ctx, id)
	if err != nil {
		return Testimonial{}, err
	}
	p.Apply(&t)
	t.UpdatedAt = now()
	ct, err := r.DB.Exec(ctx, `UPDATE testimonials
		SET name=$2, title=$3, content=$4, rating=$5, image=$6, featured=$7, is_active=$8, sort_order=$9, updated_at=$10
		WHERE id=$1`,
		t.ID, t.Name, t.Title, t.Content, t.Rating, t.Image, t.Featured, t.IsActive, t.Order, t.UpdatedAt)
	if err != nil {
		return Testimonial{}, storeErr(err)
	}
	if err := affectedOne(ct.RowsAffected()); err != nil {
		return Testimonial{}, err
	}
	return t, nil
}

func (r *TestimonialRepo) Delete(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM testimonials WHERE id=$1`, id)
	if err != nil {
		return storeErr(err)
	}
	return affectedOne(ct.RowsAffected())
}
