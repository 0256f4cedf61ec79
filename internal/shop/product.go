package shop

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const (
	DefaultRating       = 5.0
	DefaultDeliveryInfo = "Same-day delivery for orders placed before 2 PM. Hand-tied and delivered in our signature wrap."
)

type Product struct {
	ID           string          `json:"id"`
	Slug         string          `json:"slug"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	Description  string          `json:"description"`
	Story        string          `json:"story"`
	Flowers      []string        `json:"flowers"`
	Images       []string        `json:"images"`
	CategoryID   *string         `json:"categoryId"`
	OccasionID   *string         `json:"occasionId"`
	Season       string          `json:"season"`
	Featured     bool            `json:"featured"`
	InStock      bool            `json:"inStock"`
	Rating       *float64        `json:"rating"`
	ReviewCount  *int            `json:"reviewCount"`
	DeliveryInfo *string         `json:"deliveryInfo"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// Ref names a related collection in public responses.
type Ref struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// ProductView is the storefront shape of a product: lists decoded, optional
// fields defaulted, related collections resolved.
type ProductView struct {
	ID           string          `json:"id"`
	Slug         string          `json:"slug"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	Description  string          `json:"description"`
	Story        string          `json:"story"`
	Flowers      []string        `json:"flowers"`
	Images       []string        `json:"images"`
	Category     *Ref            `json:"category"`
	Occasion     *Ref            `json:"occasion"`
	Season       string          `json:"season"`
	Featured     bool            `json:"featured"`
	InStock      bool            `json:"inStock"`
	Rating       float64         `json:"rating"`
	ReviewCount  int             `json:"reviewCount"`
	DeliveryInfo string          `json:"deliveryInfo"`
}

func (p Product) View(category, occasion *Ref) ProductView {
	v := ProductView{
		ID:           p.ID,
		Slug:         p.Slug,
		Name:         p.Name,
		Price:        p.Price,
		Description:  p.Description,
		Story:        p.Story,
		Flowers:      p.Flowers,
		Images:       p.Images,
		Category:     category,
		Occasion:     occasion,
		Season:       p.Season,
		Featured:     p.Featured,
		InStock:      p.InStock,
		Rating:       orDefault(p.Rating, DefaultRating),
		ReviewCount:  orDefault(p.ReviewCount, 0),
		DeliveryInfo: DefaultDeliveryInfo,
	}
	if p.DeliveryInfo != nil && strings.TrimSpace(*p.DeliveryInfo) != "" {
		v.DeliveryInfo = *p.DeliveryInfo
	}
	if v.Flowers == nil {
		v.Flowers = []string{}
	}
	if v.Images == nil {
		v.Images = []string{}
	}
	return v
}

type ProductInput struct {
	Name         string           `json:"name"`
	Slug         string           `json:"slug"`
	Price        *decimal.Decimal `json:"price"`
	Description  string           `json:"description"`
	Story        string           `json:"story"`
	Flowers      []string         `json:"flowers"`
	Images       []string         `json:"images"`
	CategoryID   *string          `json:"categoryId"`
	OccasionID   *string          `json:"occasionId"`
	Season       string           `json:"season"`
	Featured     *bool            `json:"featured"`
	InStock      *bool            `json:"inStock"`
	Rating       *float64         `json:"rating"`
	ReviewCount  *int             `json:"reviewCount"`
	DeliveryInfo *string          `json:"deliveryInfo"`
}

func (in ProductInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return invalid("name is required")
	}
	if in.Price == nil {
		return invalid("price is required")
	}
	if err := validateProductFields(in.Price, in.CategoryID, in.OccasionID, in.Rating, in.ReviewCount); err != nil {
		return err
	}
	_, err := slugFor(in.Slug, in.Name)
	return err
}

type ProductPatch struct {
	Name         *string          `json:"name"`
	Slug         *string          `json:"slug"`
	Price        *decimal.Decimal `json:"price"`
	Description  *string          `json:"description"`
	Story        *string          `json:"story"`
	Flowers      *[]string        `json:"flowers"`
	Images       *[]string        `json:"images"`
	CategoryID   *string          `json:"categoryId"`
	OccasionID   *string          `json:"occasionId"`
	Season       *string          `json:"season"`
	Featured     *bool            `json:"featured"`
	InStock      *bool            `json:"inStock"`
	Rating       *float64         `json:"rating"`
	ReviewCount  *int             `json:"reviewCount"`
	DeliveryInfo *string          `json:"deliveryInfo"`
}

func (p ProductPatch) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return invalid("name cannot be empty")
	}
	if p.Slug != nil && Slugify(*p.Slug) == "" {
		return invalid("slug cannot be empty")
	}
	return validateProductFields(p.Price, p.CategoryID, p.OccasionID, p.Rating, p.ReviewCount)
}

// Apply merges the patch. An empty categoryId or occasionId clears the reference.
func (p ProductPatch) Apply(pr *Product) {
	if p.Name != nil {
		pr.Name = strings.TrimSpace(*p.Name)
	}
	if p.Slug != nil {
		pr.Slug = Slugify(*p.Slug)
	}
	if p.Price != nil {
		pr.Price = *p.Price
	}
	if p.Description != nil {
		pr.Description = *p.Description
	}
	if p.Story != nil {
		pr.Story = *p.Story
	}
	if p.Flowers != nil {
		pr.Flowers = cleanList(*p.Flowers)
	}
	if p.Images != nil {
		pr.Images = cleanList(*p.Images)
	}
	if p.CategoryID != nil {
		pr.CategoryID = optionalRef(p.CategoryID)
	}
	if p.OccasionID != nil {
		pr.OccasionID = optionalRef(p.OccasionID)
	}
	if p.Season != nil {
		pr.Season = *p.Season
	}
	if p.Featured != nil {
		pr.Featured = *p.Featured
	}
	if p.InStock != nil {
		pr.InStock = *p.InStock
	}
	if p.Rating != nil {
		pr.Rating = p.Rating
	}
	if p.ReviewCount != nil {
		pr.ReviewCount = p.ReviewCount
	}
	if p.DeliveryInfo != nil {
		pr.DeliveryInfo = p.DeliveryInfo
	}
}

func validateProductFields(price *decimal.Decimal, categoryID, occasionID *string, rating *float64, reviews *int) error {
	if price != nil && !price.IsPositive() {
		return invalid("price must be greater than zero")
	}
	for field, ref := range map[string]*string{"categoryId": categoryID, "occasionId": occasionID} {
		if ref == nil || *ref == "" {
			continue
		}
		if _, err := uuid.Parse(*ref); err != nil {
			return invalid("%s is not a valid id", field)
		}
	}
	if rating != nil && (*rating < 0 || *rating > 5) {
		return invalid("rating must be between 0 and 5")
	}
	if reviews != nil && *reviews < 0 {
		return invalid("reviewCount cannot be negative")
	}
	return nil
}

func optionalRef(id *string) *string {
	if id == nil || strings.TrimSpace(*id) == "" {
		return nil
	}
	v := strings.TrimSpace(*id)
	return &v
}

// ProductFilter narrows the storefront listing. Zero values mean no filter.
type ProductFilter struct {
	Category string
	Occasion string
	Featured bool
	Limit    int
}

type ProductRepo struct{ DB DB }

const productColumns = `p.id, p.slug, p.name, p.price, p.description, p.story, p.flowers, p.images,
	p.category_id, p.occasion_id, p.season, p.featured, p.in_stock, p.rating, p.review_count,
	p.delivery_info, p.created_at, p.updated_at`

func scanProduct(row pgx.Row) (Product, error) { return scanProductInto(row) }

func scanProductInto(row pgx.Row, extra ...any) (Product, error) {
	var p Product
	var flowers, images string
	dest := []any{&p.ID, &p.Slug, &p.Name, &p.Price, &p.Description, &p.Story, &flowers, &images,
		&p.CategoryID, &p.OccasionID, &p.Season, &p.Featured, &p.InStock, &p.Rating, &p.ReviewCount,
		&p.DeliveryInfo, &p.CreatedAt, &p.UpdatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return Product{}, err
	}
	p.Flowers = decodeList(flowers)
	p.Images = decodeList(images)
	return p, nil
}

const publicProductQuery = `SELECT ` + productColumns + `,
	c.name, c.slug, o.name, o.slug
	FROM products p
	LEFT JOIN categories c ON c.id = p.category_id
	LEFT JOIN occasions o ON o.id = p.occasion_id`

func scanProductView(row pgx.Row) (ProductView, error) {
	var cName, cSlug, oName, oSlug *string
	p, err := scanProductInto(row, &cName, &cSlug, &oName, &oSlug)
	if err != nil {
		return ProductView{}, err
	}
	return p.View(ref(cName, cSlug), ref(oName, oSlug)), nil
}

func ref(name, slug *string) *Ref {
	if name == nil || slug == nil {
		return nil
	}
	return &Ref{Name: *name, Slug: *slug}
}

func (r *ProductRepo) List(ctx context.Context) ([]Product, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+productColumns+` FROM products p ORDER BY p.created_at DESC`)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanProduct)
}

// ListPublic returns storefront views filtered by collection slugs.
func (r *ProductRepo) ListPublic(ctx context.Context, f ProductFilter) ([]ProductView, error) {
	limit := clampLimit(f.Limit, 24, 100)
	rows, err := r.DB.Query(ctx, publicProductQuery+`
		WHERE ($1 = '' OR c.slug = $1)
		  AND ($2 = '' OR o.slug = $2)
		  AND (NOT $3 OR p.featured)
		ORDER BY p.featured DESC, p.created_at DESC
		LIMIT $4`, f.Category, f.Occasion, f.Featured, limit)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanProductView)
}

func (r *ProductRepo) GetBySlug(ctx context.Context, slug string) (ProductView, error) {
	v, err := scanProductView(r.DB.QueryRow(ctx, publicProductQuery+` WHERE p.slug=$1`, slug))
	return v, storeErr(err)
}

func (r *ProductRepo) Get(ctx context.Context, id string) (Product, error) {
	p, err := scanProduct(r.DB.QueryRow(ctx, `SELECT `+productColumns+` FROM products p WHERE p.id=$1`, id))
	return p, storeErr(err)
}

func (r *ProductRepo) Create(ctx context.Context, in ProductInput) (Product, error) {
	if err := in.Validate(); err != nil {
		return Product{}, err
	}
	slug, _ := slugFor(in.Slug, in.Name)
	ts := now()
	p := Product{
		ID:           uuid.NewString(),
		Slug:         slug,
		Name:         strings.TrimSpace(in.Name),
		Price:        *in.Price,
		Description:  in.Description,
		Story:        in.Story,
		Flowers:      cleanList(in.Flowers),
		Images:       cleanList(in.Images),
		CategoryID:   optionalRef(in.CategoryID),
		OccasionID:   optionalRef(in.OccasionID),
		Season:       in.Season,
		Featured:     orDefault(in.Featured, false),
		InStock:      orDefault(in.InStock, true),
		Rating:       in.Rating,
		ReviewCount:  in.ReviewCount,
		DeliveryInfo: in.DeliveryInfo,
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}
	_, err := r.DB.Exec(ctx, `INSERT INTO products(id, slug, name, price, description, story, flowers, images,
		category_id, occasion_id, season, featured, in_stock, rating, review_count, delivery_info, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)`,
		p.ID, p.Slug, p.Name, p.Price, p.Description, p.Story, encodeList(p.Flowers), encodeList(p.Images),
		p.CategoryID, p.OccasionID, p.Season, p.Featured, p.InStock, p.Rating, p.ReviewCount, p.DeliveryInfo,
		p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return Product{}, storeErr(err)
	}
	return p, nil
}

func (r *ProductRepo) Update(ctx context.Context, id string, patch ProductPatch) (Product, error) {
	if err := patch.Validate(); err != nil {
		return Product{}, err
	}
	p, err := r.Get(ctx, id)
	if err != nil {
		return Product{}, err
	}
	patch.Apply(&p)
	p.UpdatedAt = now()
	ct, err := r.DB.Exec(ctx, `UPDATE products
		SET slug=$2, name=$3, price=$4, description=$5, story=$6, flowers=$7, images=$8,
		    category_id=$9, occasion_id=$10, season=$11, featured=$12, in_stock=$13,
		    rating=$14, review_count=$15, delivery_info=$16, updated_at=$17
		WHERE id=$1`,
		p.ID, p.Slug, p.Name, p.Price, p.Description, p.Story, encodeList(p.Flowers), encodeList(p.Images),
		p.CategoryID, p.OccasionID, p.Season, p.Featured, p.InStock, p.Rating, p.ReviewCount, p.DeliveryInfo,
		p.UpdatedAt)
	if err != nil {
		return Product{}, storeErr(err)
	}
	if err := affectedOne(ct.RowsAffected()); err != nil {
		return Product{}, err
	}
	return p, nil
}

func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return storeErr(err)
	}
	return affectedOne(ct.RowsAffected())
}

// clampLimit returns def for non-positive n and caps n at max.
func clampLimit(n, def, max int) int {
	switch {
	case n <= 0:
		return def
	case n > max:
		return max
	}
	return n
}
