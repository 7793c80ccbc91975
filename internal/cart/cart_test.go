package cart

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/drstein77/shopflow/internal/models"
	"github.com/drstein77/shopflow/internal/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type nopLog struct{}

func (nopLog) Info(string, ...zap.Field)  {}
func (nopLog) Warn(string, ...zap.Field)  {}
func (nopLog) Error(string, ...zap.Field) {}
func (nopLog) Debug(string, ...zap.Field) {}

// failingStore accepts reads and rejects writes.
type failingStore struct {
	storage.Store
	err error
}

func (f failingStore) Set(context.Context, string, []byte) error { return f.err }

func product(id int, price string) models.Product {
	return models.Product{ID: id, Name: "product", Price: decimal.RequireFromString(price)}
}

func onSale(id int, price, sale string) models.Product {
	p := product(id, price)
	s := decimal.RequireFromString(sale)
	p.SalePrice = &s
	return p
}

func newStore(t *testing.T) (*Store, *storage.MemoryStorage) {
	t.Helper()
	slots := storage.NewMemoryStorage(nil)
	s := New(slots, nopLog{})
	require.NoError(t, s.Load(context.Background()))
	return s, slots
}

func TestAddToCartMergesSameProduct(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddToCart(ctx, product(1, "10")))
	require.NoError(t, s.AddToCart(ctx, product(1, "10")))

	assert.Equal(t, 2, s.TotalItems())
	assert.Equal(t, "20", s.TotalPrice().String())
	require.Len(t, s.Lines(), 1)
	assert.Equal(t, 2, s.ItemQuantity(1))
}

func TestAddToCartCountsCalls(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	for n := 1; n <= 7; n++ {
		require.NoError(t, s.AddToCart(ctx, product(3, "1.25")))
		require.Len(t, s.Lines(), 1)
		assert.Equal(t, n, s.ItemQuantity(3))
	}
}

func TestCartKeepsInsertionOrder(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	for _, id := range []int{5, 2, 9, 2} {
		require.NoError(t, s.AddToCart(ctx, product(id, "1")))
	}

	var got []int
	for _, l := range s.Lines() {
		got = append(got, l.ID)
	}
	assert.Equal(t, []int{5, 2, 9}, got)
}

func TestRemoveAndZeroUpdateAreEquivalent(t *testing.T) {
	ctx := context.Background()

	removed, _ := newStore(t)
	zeroed, _ := newStore(t)
	for _, s := range []*Store{removed, zeroed} {
		require.NoError(t, s.AddToCart(ctx, product(1, "10")))
		require.NoError(t, s.AddToCart(ctx, product(2, "5")))
	}

	require.NoError(t, removed.RemoveFromCart(ctx, 1))
	require.NoError(t, zeroed.UpdateQuantity(ctx, 1, 0))

	assert.Equal(t, removed.Lines(), zeroed.Lines())
	assert.Equal(t, 0, zeroed.ItemQuantity(1))

	require.NoError(t, zeroed.UpdateQuantity(ctx, 2, -3))
	assert.True(t, zeroed.IsEmpty())
}

func TestMissingIdsAreNoOps(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.AddToCart(ctx, product(1, "10")))

	require.NoError(t, s.RemoveFromCart(ctx, 42))
	require.NoError(t, s.UpdateQuantity(ctx, 42, 5))

	assert.Equal(t, 1, s.TotalItems())
	assert.Equal(t, 0, s.ItemQuantity(42))
}

func TestUpdateQuantityKeepsProductFields(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	p := onSale(4, "80", "60")
	p.Name = "Jacket"
	p.Features = []string{"waterproof"}

	require.NoError(t, s.AddToCart(ctx, p))
	require.NoError(t, s.UpdateQuantity(ctx, 4, 3))

	lines := s.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, p, lines[0].Product)
	assert.Equal(t, 3, lines[0].Quantity)
}

func TestTotalPriceUsesSalePrice(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddToCart(ctx, onSale(1, "10", "7.50")))
	require.NoError(t, s.AddToCart(ctx, product(2, "3.20")))
	require.NoError(t, s.UpdateQuantity(ctx, 1, 2))

	assert.Equal(t, "18.2", s.TotalPrice().String())
}

func TestTotalPriceAfterRandomOperations(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(7))

	catalog := []models.Product{
		product(1, "9.99"), onSale(2, "20", "15.5"), product(3, "0.35"), onSale(4, "100", "99.99"),
	}

	for i := 0; i < 500; i++ {
		p := catalog[rng.Intn(len(catalog))]
		switch rng.Intn(4) {
		case 0, 1:
			require.NoError(t, s.AddToCart(ctx, p))
		case 2:
			require.NoError(t, s.UpdateQuantity(ctx, p.ID, rng.Intn(6)-1))
		case 3:
			require.NoError(t, s.RemoveFromCart(ctx, p.ID))
		}

		want := decimal.Zero
		items := 0
		seen := map[int]bool{}
		for _, l := range s.Lines() {
			require.False(t, seen[l.ID], "duplicate line for product %d", l.ID)
			require.GreaterOrEqual(t, l.Quantity, 1)
			seen[l.ID] = true
			want = want.Add(l.EffectivePrice().Mul(decimal.NewFromInt(int64(l.Quantity))))
			items += l.Quantity
		}
		require.True(t, want.Equal(s.TotalPrice()), "step %d: %s != %s", i, want, s.TotalPrice())
		require.Equal(t, items, s.TotalItems())
	}
}

func TestClearCart(t *testing.T) {
	s, slots := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.AddToCart(ctx, product(1, "10")))

	require.NoError(t, s.ClearCart(ctx))
	assert.True(t, s.IsEmpty())
	assert.True(t, s.TotalPrice().IsZero())

	raw, err := slots.Get(ctx, storage.CartKey)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(raw))
}

func TestRemoveLinesKeepsNewerUnits(t *testing.T) {
	s, slots := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddToCart(ctx, product(1, "10")))
	require.NoError(t, s.AddToCart(ctx, product(2, "5")))
	ordered := s.Lines()

	require.NoError(t, s.AddToCart(ctx, product(2, "5")))
	require.NoError(t, s.AddToCart(ctx, product(3, "7")))

	require.NoError(t, s.RemoveLines(ctx, ordered))

	assert.Equal(t, 0, s.ItemQuantity(1))
	assert.Equal(t, 1, s.ItemQuantity(2))
	assert.Equal(t, 1, s.ItemQuantity(3))
	assert.Equal(t, "12", s.TotalPrice().String())

	reloaded := New(slots, nopLog{})
	require.NoError(t, reloaded.Load(ctx))
	assert.Equal(t, 2, reloaded.TotalItems())

	require.NoError(t, s.RemoveLines(ctx, s.Lines()))
	assert.True(t, s.IsEmpty())
}

func TestCartPersistsAndReloads(t *testing.T) {
	s, slots := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddToCart(ctx, onSale(1, "10", "8")))
	require.NoError(t, s.AddToCart(ctx, product(2, "5")))
	require.NoError(t, s.UpdateQuantity(ctx, 2, 4))

	reloaded := New(slots, nopLog{})
	require.NoError(t, reloaded.Load(ctx))

	assert.Equal(t, s.TotalItems(), reloaded.TotalItems())
	assert.True(t, s.TotalPrice().Equal(reloaded.TotalPrice()))
	assert.Equal(t, 4, reloaded.ItemQuantity(2))
	require.NotNil(t, reloaded.Lines()[0].SalePrice)
}

func TestLoadTreatsBadDataAsEmpty(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		items int
	}{
		{name: "not json", raw: "{{{", items: 0},
		{name: "wrong shape", raw: `{"id":1}`, items: 0},
		{name: "null", raw: `null`, items: 0},
		{name: "drops invalid lines", raw: `[{"id":1,"price":"2","quantity":2},{"id":1,"price":"2","quantity":5},{"id":2,"price":"1","quantity":0}]`, items: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slots := storage.NewMemoryStorage(nil)
			ctx := context.Background()
			require.NoError(t, slots.Set(ctx, storage.CartKey, []byte(tt.raw)))

			s := New(slots, nopLog{})
			require.NoError(t, s.Load(ctx))
			assert.Equal(t, tt.items, s.TotalItems())
		})
	}
}

func TestMutationReportsPersistFailure(t *testing.T) {
	cause := errors.New("disk full")
	s := New(failingStore{Store: storage.NewMemoryStorage(nil), err: cause}, nopLog{})
	ctx := context.Background()
	require.NoError(t, s.Load(ctx))

	err := s.AddToCart(ctx, product(1, "10"))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 1, s.TotalItems())
}

func TestSummary(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.AddToCart(ctx, product(1, "100")))

	sum := s.Summary()
	assert.Equal(t, 1, sum.Items)
	assert.Equal(t, "100.00", sum.Subtotal.StringFixed(2))
	assert.True(t, sum.Shipping.IsZero())
	assert.Equal(t, "8.00", sum.Tax.StringFixed(2))
	assert.Equal(t, "108.00", sum.Total.StringFixed(2))
}
