package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront/internal/cart"
	"github.com/xenking/storefront/internal/domain/coupon"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/product"
)

func TestKV(t *testing.T) {
	ctx := context.Background()
	kv := NewKV()

	_, err := kv.Load(ctx, "cart")
	require.ErrorIs(t, err, cart.ErrNoValue)

	data := []byte(`[]`)
	require.NoError(t, kv.Save(ctx, "cart", data))
	data[0] = 'x'

	got, err := kv.Load(ctx, "cart")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(got))
	require.NoError(t, kv.Ping(ctx))
}

func TestKV_BacksCartStore(t *testing.T) {
	ctx := context.Background()
	kv := NewKV()

	r := cart.NewRegistry(kv)
	r.Get(ctx, "s").Add(ctx, testProduct(), 2, "M", "")

	reopened := cart.NewRegistry(kv)
	assert.Equal(t, 2, reopened.Get(ctx, "s").Count())
}

func TestCouponRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewCouponRepository(coupon.Welcome10())

	rule, err := repo.FindByCode(ctx, "welcome10")
	require.NoError(t, err)
	assert.Equal(t, coupon.DiscountPercentage, rule.DiscountType)

	_, err = repo.FindByCode(ctx, "NOPE")
	require.ErrorIs(t, err, coupon.ErrInvalidCoupon)
}

func TestOrderRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository()

	require.NoError(t, repo.Create(ctx, &order.Order{Number: "IW100001", PaymentMethod: "cod"}))
	require.Error(t, repo.Create(ctx, &order.Order{Number: "IW100001"}))

	o, err := repo.ByNumber(ctx, "IW100001")
	require.NoError(t, err)
	assert.Equal(t, "cod", o.PaymentMethod)

	_, err = repo.ByNumber(ctx, "IW999999")
	require.ErrorIs(t, err, order.ErrNotFound)
}

func testProduct() product.Product {
	return product.Product{ID: "p1", Name: "Tee", Price: 799, Category: "men"}
}
