package shop

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	orderCols  = []string{"id", "external_id", "customer_name", "customer_email", "customer_phone", "address", "pincode", "delivery_date", "notes", "coupon_code", "subtotal", "discount", "delivery_fee", "total", "status", "created_at", "updated_at"}
	pricedCols = []string{"id", "slug", "name", "price", "in_stock"}
	couponCols = []string{"id", "code", "description", "discount_type", "discount_value", "min_order_value", "max_discount", "valid_from", "valid_until", "usage_limit", "used_count", "is_active", "created_at", "updated_at"}
)

// checkoutInput orders blush twice so the lines merge to qty 2.
func checkoutInput() PlaceOrderInput {
	return PlaceOrderInput{
		ExternalID: "cart-1", Name: "Ravi", Email: "Ravi@Example.com", Address: "12 MG Road",
		Pincode: "560001", Items: []OrderLine{{Slug: "blush", Qty: 1}, {Slug: "sunny", Qty: 1}, {Slug: "blush", Qty: 1}},
	}
}

// expectFreshCheckout covers the replay miss and the transaction start.
func expectFreshCheckout(mock pgxmock.PgxPoolIface, externalID string) {
	mock.ExpectQuery(q("FROM orders WHERE external_id=$1")).
		WithArgs(externalID).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectBegin()
}

func expectCatalog(mock pgxmock.PgxPoolIface, rows *pgxmock.Rows) {
	mock.ExpectQuery(q("FROM products WHERE slug IN ($1,$2)")).
		WithArgs("blush", "sunny").
		WillReturnRows(rows)
}

func inStockCatalog() *pgxmock.Rows {
	return pgxmock.NewRows(pricedCols).
		AddRow("p1", "blush", "Blush Peonies", dec("500"), true).
		AddRow("p2", "sunny", "Sunny Side", dec("250"), true)
}

func expectDeliveryFee(mock pgxmock.PgxPoolIface, fee string) {
	mock.ExpectQuery(q("SELECT delivery_fee FROM pincodes WHERE code=$1 AND is_active")).
		WithArgs("560001").
		WillReturnRows(pgxmock.NewRows([]string{"delivery_fee"}).AddRow(dec(fee)))
}

func orderInsertArgs(couponCode string) []any {
	args := anyArgs(17)
	args[1], args[2], args[3], args[4], args[5], args[6] = "cart-1", "Ravi", "ravi@example.com", "", "12 MG Road", "560001"
	args[9], args[14], args[15], args[16] = couponCode, StatusPending, fixedNow, fixedNow
	return args
}

func TestPlaceOrderPricesFromStore(t *testing.T) {
	mock := newMock(t)
	repo := &OrderRepo{DB: mock}

	expectFreshCheckout(mock, "cart-1")
	expectCatalog(mock, inStockCatalog())
	expectDeliveryFee(mock, "50")
	mock.ExpectExec(q("INSERT INTO orders(")).
		WithArgs(orderInsertArgs("")...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(q("INSERT INTO order_items")).
		WithArgs(pgxmock.AnyArg(), "p1", "Blush Peonies", pgxmock.AnyArg(), 2).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(q("INSERT INTO order_items")).
		WithArgs(pgxmock.AnyArg(), "p2", "Sunny Side", pgxmock.AnyArg(), 1).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	o, existed, err := repo.Place(context.Background(), checkoutInput())
	require.NoError(t, err)
	assert.False(t, existed)
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, "ravi@example.com", o.CustomerEmail)
	require.Len(t, o.Items, 2)
	assert.Equal(t, 2, o.Items[0].Qty)
	assert.True(t, dec("1250").Equal(o.Subtotal), o.Subtotal.String())
	assert.True(t, o.Discount.IsZero())
	assert.True(t, dec("50").Equal(o.DeliveryFee))
	assert.True(t, dec("1300").Equal(o.Total), o.Total.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlaceOrderAppliesCoupon(t *testing.T) {
	mock := newMock(t)
	repo := &OrderRepo{DB: mock}
	created := fixedNow.Add(-24 * time.Hour)

	expectFreshCheckout(mock, "cart-1")
	expectCatalog(mock, inStockCatalog())
	expectDeliveryFee(mock, "50")
	mock.ExpectQuery(q("FROM coupons WHERE code=$1 FOR UPDATE")).
		WithArgs("WELCOME10").
		WillReturnRows(pgxmock.NewRows(couponCols).
			AddRow("c1", "WELCOME10", "", DiscountPercentage, dec("10"), dec("1000"), nil, nil, nil, nil, 3, true, created, created))
	mock.ExpectExec(q("UPDATE coupons SET used_count = used_count + 1")).
		WithArgs("c1", fixedNow).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(q("INSERT INTO orders(")).
		WithArgs(orderInsertArgs("WELCOME10")...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(q("INSERT INTO order_items")).
		WithArgs(anyArgs(5)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(q("INSERT INTO order_items")).
		WithArgs(anyArgs(5)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	in := checkoutInput()
	in.CouponCode = " welcome10 "
	o, _, err := repo.Place(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "WELCOME10", o.CouponCode)
	assert.True(t, dec("125").Equal(o.Discount), o.Discount.String())
	assert.True(t, dec("1175").Equal(o.Total), o.Total.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlaceOrderRejections(t *testing.T) {
	tests := []struct {
		name    string
		coupon  string
		expect  func(mock pgxmock.PgxPoolIface)
		wantMsg string
	}{
		{
			name: "out of stock",
			expect: func(mock pgxmock.PgxPoolIface) {
				expectCatalog(mock, pgxmock.NewRows(pricedCols).
					AddRow("p1", "blush", "Blush Peonies", dec("500"), false).
					AddRow("p2", "sunny", "Sunny Side", dec("250"), true))
			},
			wantMsg: "Blush Peonies is out of stock",
		},
		{
			name: "unknown product",
			expect: func(mock pgxmock.PgxPoolIface) {
				expectCatalog(mock, pgxmock.NewRows(pricedCols).
					AddRow("p1", "blush", "Blush Peonies", dec("500"), true))
			},
			wantMsg: "product sunny not found",
		},
		{
			name: "pincode not served",
			expect: func(mock pgxmock.PgxPoolIface) {
				expectCatalog(mock, inStockCatalog())
				mock.ExpectQuery(q("SELECT delivery_fee FROM pincodes")).
					WithArgs("560001").
					WillReturnError(pgx.ErrNoRows)
			},
			wantMsg: "we do not deliver to 560001 yet",
		},
		{
			name:   "unknown coupon",
			coupon: "NOPE",
			expect: func(mock pgxmock.PgxPoolIface) {
				expectCatalog(mock, inStockCatalog())
				expectDeliveryFee(mock, "50")
				mock.ExpectQuery(q("FROM coupons WHERE code=$1 FOR UPDATE")).
					WithArgs("NOPE").
					WillReturnError(pgx.ErrNoRows)
			},
			wantMsg: "coupon NOPE does not exist",
		},
		{
			name:   "coupon below minimum leaves usage alone",
			coupon: "BIG",
			expect: func(mock pgxmock.PgxPoolIface) {
				expectCatalog(mock, inStockCatalog())
				expectDeliveryFee(mock, "50")
				mock.ExpectQuery(q("FROM coupons WHERE code=$1 FOR UPDATE")).
					WithArgs("BIG").
					WillReturnRows(pgxmock.NewRows(couponCols).
						AddRow("c2", "BIG", "", DiscountFixed, dec("300"), dec("5000"), nil, nil, nil, nil, 0, true, fixedNow, fixedNow))
			},
			wantMsg: "coupon BIG needs a minimum order of 5000.00",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMock(t)
			repo := &OrderRepo{DB: mock}
			expectFreshCheckout(mock, "cart-1")
			tt.expect(mock)
			mock.ExpectRollback()

			in := checkoutInput()
			in.CouponCode = tt.coupon
			_, _, err := repo.Place(context.Background(), in)
			require.Error(t, err)
			assert.True(t, IsValidation(err), "got %v", err)
			assert.EqualError(t, err, tt.wantMsg)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPlaceOrderConcurrentDuplicateReturnsWinner(t *testing.T) {
	mock := newMock(t)
	repo := &OrderRepo{DB: mock}

	expectFreshCheckout(mock, "cart-1")
	expectCatalog(mock, inStockCatalog())
	expectDeliveryFee(mock, "50")
	mock.ExpectExec(q("INSERT INTO orders(")).
		WithArgs(orderInsertArgs("")...).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "orders_external_id_key"})
	mock.ExpectRollback()
	mock.ExpectQuery(q("FROM orders WHERE external_id=$1")).
		WithArgs("cart-1").
		WillReturnRows(pgxmock.NewRows(orderCols).
			AddRow("o-winner", "cart-1", "Ravi", "ravi@example.com", "", "12 MG Road", "560001", nil, "", "",
				dec("1250"), dec("0"), dec("50"), dec("1300"), StatusPending, fixedNow, fixedNow))
	mock.ExpectQuery(q("FROM order_items WHERE order_id=$1")).
		WithArgs("o-winner").
		WillReturnRows(pgxmock.NewRows([]string{"product_id", "product_name", "unit_price", "qty"}).
			AddRow("p1", "Blush Peonies", dec("500"), 2).
			AddRow("p2", "Sunny Side", dec("250"), 1))

	o, existed, err := repo.Place(context.Background(), checkoutInput())
	require.NoError(t, err)
	assert.True(t, existed)
	assert.Equal(t, "o-winner", o.ID)
	assert.Len(t, o.Items, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlaceOrderInvalidInputTouchesNothing(t *testing.T) {
	mock := newMock(t)
	repo := &OrderRepo{DB: mock}

	in := checkoutInput()
	in.Items = []OrderLine{{Slug: "blush", Qty: 50}, {Slug: "blush", Qty: 50}}
	_, _, err := repo.Place(context.Background(), in)
	assert.True(t, IsValidation(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}
