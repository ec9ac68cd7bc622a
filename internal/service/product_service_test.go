package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "kingspos/internal/errors"
	"kingspos/internal/events"
	"kingspos/internal/model"
	"kingspos/internal/repository"
)

type productFixture struct {
	svc        ProductService
	products   repository.ProductRepository
	categories CategoryService
	notifier   *recordingNotifier
}

func newProductFixture(t *testing.T) *productFixture {
	t.Helper()
	gdb := newTestDB(t)
	notifier := &recordingNotifier{}
	products := repository.NewProductRepository(gdb)
	categoryRepo := repository.NewCategoryRepository(gdb)
	return &productFixture{
		svc:        NewProductService(products, categoryRepo, notifier, zerolog.Nop()),
		products:   products,
		categories: NewCategoryService(categoryRepo, &recordingNotifier{}, zerolog.Nop()),
		notifier:   notifier,
	}
}

func str(s string) *string { return &s }

func dec(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func basicProduct(name, code, price string) ProductFields {
	return ProductFields{Name: str(name), Code: str(code), Price: dec(price)}
}

func TestProductService_Create(t *testing.T) {
	ctx := context.Background()
	f := newProductFixture(t)

	drinks, err := f.categories.Create(ctx, CategoryInput{Name: "Drinks"})
	require.NoError(t, err)

	t.Run("missing required fields", func(t *testing.T) {
		_, err := f.svc.Create(ctx, ProductFields{Name: str("Cola")})
		require.Error(t, err)
		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
		assert.Contains(t, err.Error(), "code, price")
	})

	t.Run("negative price", func(t *testing.T) {
		_, err := f.svc.Create(ctx, basicProduct("Cola", "C-1", "-1"))
		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	})

	t.Run("category by name", func(t *testing.T) {
		in := basicProduct("Cola", "COLA", "2.50")
		in.CategoryName = SomeString("Drinks")
		created, err := f.svc.Create(ctx, in)
		require.NoError(t, err)
		require.NotNil(t, created.CategoryID)
		assert.Equal(t, drinks.ID, *created.CategoryID)
		require.NotNil(t, created.Category)
		assert.Equal(t, "Drinks", created.Category.Name)
		assert.True(t, created.Category.IsMain)
		assert.True(t, created.Active)
		assert.True(t, created.Price.Equal(decimal.RequireFromString("2.5")))
	})

	t.Run("unknown category name leaves product uncategorized", func(t *testing.T) {
		in := basicProduct("Bread", "BREAD", "1")
		in.CategoryName = SomeString("Bakery")
		created, err := f.svc.Create(ctx, in)
		require.NoError(t, err)
		assert.Nil(t, created.CategoryID)
		assert.Nil(t, created.Category)
	})

	t.Run("unknown category id", func(t *testing.T) {
		in := basicProduct("Milk", "MILK", "1")
		in.CategoryID = SomeID(uuid.New())
		_, err := f.svc.Create(ctx, in)
		assert.ErrorIs(t, err, apperrors.ErrCategoryNotFound)
	})

	t.Run("duplicate code", func(t *testing.T) {
		before, err := f.products.Count(ctx)
		require.NoError(t, err)

		_, err = f.svc.Create(ctx, basicProduct("Other cola", "COLA", "3"))
		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrDuplicateCode)
		assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
		assert.Contains(t, err.Error(), "product with code 'COLA' already exists")

		after, err := f.products.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})

	assert.Equal(t, []string{events.ProductCreated, events.ProductCreated}, f.notifier.names())
}

func TestProductService_CategoryNameMatchesMainFlag(t *testing.T) {
	ctx := context.Background()
	f := newProductFixture(t)

	drinks, err := f.categories.Create(ctx, CategoryInput{Name: "Drinks"})
	require.NoError(t, err)
	juices, err := f.categories.Create(ctx, CategoryInput{Name: "Juices", ParentID: &drinks.ID, IsMain: true})
	require.NoError(t, err)
	_, err = f.categories.Create(ctx, CategoryInput{Name: "Sodas", ParentID: &drinks.ID})
	require.NoError(t, err)

	in := basicProduct("Orange juice", "OJ", "3")
	in.CategoryName = SomeString("Juices")
	linked, err := f.svc.Create(ctx, in)
	require.NoError(t, err)
	require.NotNil(t, linked.CategoryID)
	assert.Equal(t, juices.ID, *linked.CategoryID)

	in = basicProduct("Lemonade", "LEMON", "2")
	in.CategoryName = SomeString("Sodas")
	unlinked, err := f.svc.Create(ctx, in)
	require.NoError(t, err)
	assert.Nil(t, unlinked.CategoryID)
}

func TestProductService_Variants(t *testing.T) {
	ctx := context.Background()
	f := newProductFixture(t)

	bulk := basicProduct("Rice sack", "RICE-25", "40")
	bulk.IsBulkParent = boolPtr(true)
	bulk.BaseUnit = str("kg")
	parent, err := f.svc.Create(ctx, bulk)
	require.NoError(t, err)
	assert.True(t, parent.IsBulkParent)

	t.Run("consumption without parent", func(t *testing.T) {
		in := basicProduct("Rice 1kg", "RICE-1", "2")
		in.ConsumesFromParent = &model.Consumption{Quantity: decimal.NewFromInt(1), Unit: "kg"}
		_, err := f.svc.Create(ctx, in)
		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	})

	t.Run("non-positive consumption", func(t *testing.T) {
		in := basicProduct("Rice 0kg", "RICE-0", "2")
		in.ParentProductID = SomeID(parent.ID)
		in.ConsumesFromParent = &model.Consumption{Quantity: decimal.Zero, Unit: "kg"}
		_, err := f.svc.Create(ctx, in)
		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	})

	t.Run("missing parent", func(t *testing.T) {
		in := basicProduct("Rice 2kg", "RICE-2X", "4")
		in.ParentProductID = SomeID(uuid.New())
		_, err := f.svc.Create(ctx, in)
		assert.ErrorIs(t, err, apperrors.ErrParentProductNotFound)
	})

	in := basicProduct("Rice 1kg", "RICE-1", "2")
	in.ParentProductID = SomeID(parent.ID)
	in.ConsumesFromParent = &model.Consumption{Quantity: decimal.NewFromInt(1), Unit: "kg"}
	variant, err := f.svc.Create(ctx, in)
	require.NoError(t, err)
	require.NotNil(t, variant.ConsumesFromParent)
	assert.Equal(t, "kg", variant.ConsumesFromParent.Unit)
	assert.True(t, variant.ConsumesFromParent.Quantity.Equal(decimal.NewFromInt(1)))

	variants, err := f.svc.ListVariants(ctx, parent.ID)
	require.NoError(t, err)
	require.Len(t, variants, 1)
	assert.Equal(t, variant.ID, variants[0].ID)

	t.Run("parent cannot point at its variant", func(t *testing.T) {
		_, err := f.svc.Update(ctx, parent.ID, ProductFields{ParentProductID: SomeID(variant.ID)})
		assert.ErrorIs(t, err, apperrors.ErrProductCycle)
	})

	t.Run("self parent", func(t *testing.T) {
		_, err := f.svc.Update(ctx, variant.ID, ProductFields{ParentProductID: SomeID(variant.ID)})
		assert.ErrorIs(t, err, apperrors.ErrProductCycle)
	})

	t.Run("delete parent with variants", func(t *testing.T) {
		err := f.svc.Delete(ctx, parent.ID)
		assert.ErrorIs(t, err, apperrors.ErrProductInUse)
	})

	t.Run("detach then delete", func(t *testing.T) {
		detached, err := f.svc.Update(ctx, variant.ID, ProductFields{ParentProductID: NullID()})
		require.NoError(t, err)
		assert.Nil(t, detached.ParentProductID)
		assert.Nil(t, detached.ConsumesFromParent)

		require.NoError(t, f.svc.Delete(ctx, parent.ID))
		_, err = f.svc.Get(ctx, parent.ID)
		assert.ErrorIs(t, err, apperrors.ErrProductNotFound)
	})
}

func TestProductService_Update(t *testing.T) {
	ctx := context.Background()
	f := newProductFixture(t)

	drinks, err := f.categories.Create(ctx, CategoryInput{Name: "Drinks"})
	require.NoError(t, err)

	in := basicProduct("Cola", "COLA", "2")
	in.CategoryID = SomeID(drinks.ID)
	cola, err := f.svc.Create(ctx, in)
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, basicProduct("Water", "WATER", "1"))
	require.NoError(t, err)

	updated, err := f.svc.Update(ctx, cola.ID, ProductFields{Price: dec("2.75"), Online: boolPtr(true)})
	require.NoError(t, err)
	assert.True(t, updated.Price.Equal(decimal.RequireFromString("2.75")))
	assert.True(t, updated.Online)
	assert.Equal(t, "Cola", updated.Name)
	require.NotNil(t, updated.Category)
	assert.Equal(t, drinks.ID, updated.Category.ID)

	t.Run("empty category name clears category", func(t *testing.T) {
		cleared, err := f.svc.Update(ctx, cola.ID, ProductFields{CategoryName: SomeString("")})
		require.NoError(t, err)
		assert.Nil(t, cleared.CategoryID)
		assert.Nil(t, cleared.Category)
	})

	t.Run("code taken by another product", func(t *testing.T) {
		_, err := f.svc.Update(ctx, cola.ID, ProductFields{Code: str("WATER")})
		assert.ErrorIs(t, err, apperrors.ErrDuplicateCode)
	})

	t.Run("blank name", func(t *testing.T) {
		_, err := f.svc.Update(ctx, cola.ID, ProductFields{Name: str(" ")})
		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	})

	t.Run("unknown product", func(t *testing.T) {
		_, err := f.svc.Update(ctx, uuid.New(), ProductFields{Name: str("x")})
		assert.ErrorIs(t, err, apperrors.ErrProductNotFound)
	})

	assert.Contains(t, f.notifier.names(), events.ProductUpdated)
}

func boolPtr(b bool) *bool { return &b }
