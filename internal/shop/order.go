package shop

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const maxLineQty = 99

type Order struct {
	ID            string          `json:"id"`
	ExternalID    string          `json:"externalId"`
	CustomerName  string          `json:"customerName"`
	CustomerEmail string          `json:"customerEmail"`
	CustomerPhone string          `json:"customerPhone"`
	Address       string          `json:"address"`
	Pincode       string          `json:"pincode"`
	DeliveryDate  *time.Time      `json:"deliveryDate"`
	Notes         string          `json:"notes"`
	CouponCode    string          `json:"couponCode"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Discount      decimal.Decimal `json:"discount"`
	DeliveryFee   decimal.Decimal `json:"deliveryFee"`
	Total         decimal.Decimal `json:"total"`
	Status        Status          `json:"status"`
	Items         []OrderItem     `json:"items,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

type OrderItem struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Qty         int             `json:"qty"`
}

func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Qty)))
}

type OrderLine struct {
	Slug string `json:"slug"`
	Qty  int    `json:"qty"`
}

// PlaceOrderInput is a checkout submission. ExternalID is the client's
// idempotency key: replaying it returns the order created the first time.
type PlaceOrderInput struct {
	ExternalID   string      `json:"externalId"`
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	Phone        string      `json:"phone"`
	Address      string      `json:"address"`
	Pincode      string      `json:"pincode"`
	DeliveryDate string      `json:"deliveryDate"`
	Notes        string      `json:"notes"`
	CouponCode   string      `json:"couponCode"`
	Items        []OrderLine `json:"items"`
}

func (in PlaceOrderInput) Validate() error {
	switch {
	case strings.TrimSpace(in.ExternalID) == "":
		return invalid("externalId is required")
	case strings.TrimSpace(in.Name) == "":
		return invalid("name is required")
	case strings.TrimSpace(in.Email) == "":
		return invalid("email is required")
	case strings.TrimSpace(in.Address) == "":
		return invalid("address is required")
	case len(in.Items) == 0:
		return invalid("at least one item is required")
	}
	if err := validateEmail(in.Email); err != nil {
		return err
	}
	if err := validatePostal(in.Pincode); err != nil {
		return err
	}
	if _, err := parseDate(in.DeliveryDate); err != nil {
		return err
	}
	for _, it := range in.Items {
		if strings.TrimSpace(it.Slug) == "" {
			return invalid("item slug is required")
		}
		if it.Qty <= 0 || it.Qty > maxLineQty {
			return invalid("invalid qty for %s", it.Slug)
		}
	}
	// repeated slugs are merged before pricing, so the cap applies to the sum too
	for _, l := range mergeLines(in.Items) {
		if l.Qty > maxLineQty {
			return invalid("invalid qty for %s", l.Slug)
		}
	}
	return nil
}

// mergeLines folds repeated slugs into one line, keeping first-seen order.
func mergeLines(lines []OrderLine) []OrderLine {
	idx := map[string]int{}
	out := make([]OrderLine, 0, len(lines))
	for _, l := range lines {
		slug := strings.TrimSpace(l.Slug)
		if i, ok := idx[slug]; ok {
			out[i].Qty += l.Qty
			continue
		}
		idx[slug] = len(out)
		out = append(out, OrderLine{Slug: slug, Qty: l.Qty})
	}
	return out
}

type OrderRepo struct{ DB DB }

const orderColumns = `id, external_id, customer_name, customer_email, customer_phone, address, pincode,
	delivery_date, notes, coupon_code, subtotal, discount, delivery_fee, total, status, created_at, updated_at`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.ExternalID, &o.CustomerName, &o.CustomerEmail, &o.CustomerPhone, &o.Address,
		&o.Pincode, &o.DeliveryDate, &o.Notes, &o.CouponCode, &o.Subtotal, &o.Discount, &o.DeliveryFee,
		&o.Total, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

func (r *OrderRepo) List(ctx context.Context) ([]Order, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanOrder)
}

func (r *OrderRepo) Get(ctx context.Context, id string) (Order, error) {
	o, err := scanOrder(r.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id))
	if err != nil {
		return Order{}, storeErr(err)
	}
	return r.withItems(ctx, o)
}

func (r *OrderRepo) GetByExternalID(ctx context.Context, externalID string) (Order, error) {
	o, err := scanOrder(r.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE external_id=$1`, externalID))
	if err != nil {
		return Order{}, storeErr(err)
	}
	return r.withItems(ctx, o)
}

func (r *OrderRepo) withItems(ctx context.Context, o Order) (Order, error) {
	rows, err := r.DB.Query(ctx, `SELECT product_id, product_name, unit_price, qty
		FROM order_items WHERE order_id=$1 ORDER BY id`, o.ID)
	if err != nil {
		return Order{}, err
	}
	o.Items, err = collect(rows, func(row pgx.Row) (OrderItem, error) {
		var it OrderItem
		err := row.Scan(&it.ProductID, &it.ProductName, &it.UnitPrice, &it.Qty)
		return it, err
	})
	if err != nil {
		return Order{}, err
	}
	return o, nil
}

// UpdateStatus sets the order status and returns the one it replaced. The
// value is checked before the store is touched.
func (r *OrderRepo) UpdateStatus(ctx context.Context, id, status string) (Status, error) {
	next, err := ParseStatus(status)
	if err != nil {
		return "", err
	}
	var prev Status
	err = r.DB.QueryRow(ctx, `
		UPDATE orders o SET status=$2, updated_at=$3
		FROM (SELECT id, status FROM orders WHERE id=$1 FOR UPDATE) old
		WHERE o.id = old.id
		RETURNING old.status`, id, next, now()).Scan(&prev)
	if err != nil {
		return "", storeErr(err)
	}
	return prev, nil
}

// Place records a checkout. Prices come from the store, never the client.
// The bool result reports whether the order already existed for ExternalID.
func (r *OrderRepo) Place(ctx context.Context, in PlaceOrderInput) (Order, bool, error) {
	if err := in.Validate(); err != nil {
		return Order{}, false, err
	}
	externalID := strings.TrimSpace(in.ExternalID)
	if o, err := r.GetByExternalID(ctx, externalID); err == nil {
		return o, true, nil
	} else if !errors.Is(err, ErrNotFound) {
		return Order{}, false, err
	}

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Order{}, false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	lines := mergeLines(in.Items)
	items, subtotal, err := priceLines(ctx, tx, lines)
	if err != nil {
		return Order{}, false, err
	}

	pincode := NormalizePostal(in.Pincode)
	var fee decimal.Decimal
	if err := tx.QueryRow(ctx, `SELECT delivery_fee FROM pincodes WHERE code=$1 AND is_active`, pincode).Scan(&fee); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, false, invalid("we do not deliver to %s yet", pincode)
		}
		return Order{}, false, err
	}

	ts := now()
	discount := decimal.Zero
	code := normalizeCode(in.CouponCode)
	if code != "" {
		c, err := scanCoupon(tx.QueryRow(ctx, `SELECT `+couponColumns+` FROM coupons WHERE code=$1 FOR UPDATE`, code))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return Order{}, false, invalid("coupon %s does not exist", code)
			}
			return Order{}, false, err
		}
		if discount, err = c.Discount(subtotal, ts); err != nil {
			return Order{}, false, err
		}
		if _, err := tx.Exec(ctx, `UPDATE coupons SET used_count = used_count + 1, updated_at=$2 WHERE id=$1`, c.ID, ts); err != nil {
			return Order{}, false, err
		}
	}

	deliveryDate, _ := parseDate(in.DeliveryDate)
	o := Order{
		ID:            uuid.NewString(),
		ExternalID:    externalID,
		CustomerName:  strings.TrimSpace(in.Name),
		CustomerEmail: normalizeEmail(in.Email),
		CustomerPhone: strings.TrimSpace(in.Phone),
		Address:       strings.TrimSpace(in.Address),
		Pincode:       pincode,
		DeliveryDate:  deliveryDate,
		Notes:         in.Notes,
		CouponCode:    code,
		Subtotal:      subtotal,
		Discount:      discount,
		DeliveryFee:   fee,
		Total:         subtotal.Sub(discount).Add(fee),
		Status:        StatusPending,
		Items:         items,
		CreatedAt:     ts,
		UpdatedAt:     ts,
	}
	if _, err := tx.Exec(ctx, `INSERT INTO orders(`+orderColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`,
		o.ID, o.ExternalID, o.CustomerName, o.CustomerEmail, o.CustomerPhone, o.Address, o.Pincode,
		o.DeliveryDate, o.Notes, o.CouponCode, o.Subtotal, o.Discount, o.DeliveryFee, o.Total, o.Status,
		o.CreatedAt, o.UpdatedAt); err != nil {
		if err = storeErr(err); errors.Is(err, ErrConflict) {
			// a concurrent request with the same external id won
			_ = tx.Rollback(ctx)
			existing, gerr := r.GetByExternalID(ctx, externalID)
			if gerr != nil {
				return Order{}, false, gerr
			}
			return existing, true, nil
		}
		return Order{}, false, err
	}
	for _, it := range items {
		if _, err := tx.Exec(ctx, `INSERT INTO order_items(order_id, product_id, product_name, unit_price, qty)
			VALUES ($1,$2,$3,$4,$5)`, o.ID, it.ProductID, it.ProductName, it.UnitPrice, it.Qty); err != nil {
			return Order{}, false, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return Order{}, false, err
	}
	return o, false, nil
}

func priceLines(ctx context.Context, tx pgx.Tx, lines []OrderLine) ([]OrderItem, decimal.Decimal, error) {
	slugs := make([]any, 0, len(lines))
	params := ""
	for i, l := range lines {
		if i > 0 {
			params += ","
		}
		params += fmt.Sprintf("$%d", i+1)
		slugs = append(slugs, l.Slug)
	}
	rows, err := tx.Query(ctx, `SELECT id, slug, name, price, in_stock FROM products WHERE slug IN (`+params+`)`, slugs...)
	if err != nil {
		return nil, decimal.Zero, err
	}
	type priced struct {
		id, name string
		price    decimal.Decimal
		inStock  bool
	}
	bySlug := map[string]priced{}
	for rows.Next() {
		var p priced
		var slug string
		if err := rows.Scan(&p.id, &slug, &p.name, &p.price, &p.inStock); err != nil {
			rows.Close()
			return nil, decimal.Zero, err
		}
		bySlug[slug] = p
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, decimal.Zero, err
	}

	items := make([]OrderItem, 0, len(lines))
	subtotal := decimal.Zero
	for _, l := range lines {
		p, ok := bySlug[l.Slug]
		if !ok {
			return nil, decimal.Zero, invalid("product %s not found", l.Slug)
		}
		if !p.inStock {
			return nil, decimal.Zero, invalid("%s is out of stock", p.name)
		}
		it := OrderItem{ProductID: p.id, ProductName: p.name, UnitPrice: p.price, Qty: l.Qty}
		subtotal = subtotal.Add(it.LineTotal())
		items = append(items, it)
	}
	return items, subtotal, nil
}
