package repository

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"kingspos/internal/db"
	apperrors "kingspos/internal/errors"
	"kingspos/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	gdb, err := db.NewSQLite("file:" + name + "?mode=memory&cache=shared", zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))

	user := &model.User{Name: "Ana", Email: "ana@kings.test", PasswordHash: "hash", Role: model.RoleAdmin}
	require.NoError(t, repo.Create(ctx, user))
	assert.NotEqual(t, uuid.Nil, user.ID)

	err := repo.Create(ctx, &model.User{Name: "Dup", Email: "ana@kings.test", PasswordHash: "x", Role: model.RoleUser})
	assert.True(t, errors.Is(err, apperrors.ErrUserAlreadyExists))

	found, err := repo.FindByEmail(ctx, "ana@kings.test")
	require.NoError(t, err)
	assert.Empty(t, found.PasswordHash)
	assert.Equal(t, model.RoleAdmin, found.Role)

	withPwd, err := repo.FindByEmailWithPassword(ctx, "ana@kings.test")
	require.NoError(t, err)
	assert.Equal(t, "hash", withPwd.PasswordHash)

	users, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Empty(t, users[0].PasswordHash)

	require.NoError(t, repo.Delete(ctx, user.ID))
	assert.ErrorIs(t, repo.Delete(ctx, user.ID), gorm.ErrRecordNotFound)
	_, err = repo.FindByID(ctx, user.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCategoryRepository(t *testing.T) {
	ctx := context.Background()
	gdb := newTestDB(t)
	repo := NewCategoryRepository(gdb)

	root := &model.Category{Name: "Drinks", IsMain: true}
	require.NoError(t, repo.Create(ctx, root))
	child := &model.Category{Name: "Sodas", ParentID: &root.ID}
	require.NoError(t, repo.Create(ctx, child))

	err := repo.Create(ctx, &model.Category{Name: "Drinks", IsMain: true})
	assert.ErrorIs(t, err, apperrors.ErrCategoryExists)

	main, err := repo.FindMainByName(ctx, "Drinks")
	require.NoError(t, err)
	assert.Equal(t, root.ID, main.ID)

	_, err = repo.FindMainByName(ctx, "Sodas")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	juices := &model.Category{Name: "Juices", ParentID: &root.ID, IsMain: true}
	require.NoError(t, repo.Create(ctx, juices))
	forced, err := repo.FindMainByName(ctx, "Juices")
	require.NoError(t, err)
	assert.Equal(t, juices.ID, forced.ID)

	loaded, err := repo.FindByID(ctx, child.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.ParentID)
	assert.Equal(t, root.ID, *loaded.ParentID)
	assert.False(t, loaded.IsMain)

	n, err := repo.CountChildren(ctx, root.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, NewProductRepository(gdb).Create(ctx, &model.Product{
		Name: "Cola", Code: "COLA", Price: decimal.NewFromInt(2), CategoryID: &child.ID,
	}))
	n, err = repo.CountProducts(ctx, child.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	loaded.ParentID = nil
	loaded.IsMain = true
	require.NoError(t, repo.Update(ctx, loaded))
	reloaded, err := repo.FindByID(ctx, child.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.ParentID)
	assert.True(t, reloaded.IsMain)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestProductRepository(t *testing.T) {
	ctx := context.Background()
	gdb := newTestDB(t)
	categories := NewCategoryRepository(gdb)
	repo := NewProductRepository(gdb)

	cat := &model.Category{Name: "Grains", IsMain: true}
	require.NoError(t, categories.Create(ctx, cat))

	bulk := &model.Product{Name: "Rice 50kg", Code: "RICE-50", Price: decimal.NewFromInt(40), IsBulkParent: true, CategoryID: &cat.ID}
	require.NoError(t, repo.Create(ctx, bulk))

	variant := &model.Product{
		Name:            "Rice 1kg",
		Code:            "RICE-1",
		Price:           decimal.NewFromInt(1),
		ParentProductID: &bulk.ID,
		ConsumesFromParent: &model.Consumption{
			Quantity: decimal.NewFromInt(1),
			Unit:     "kg",
		},
	}
	require.NoError(t, repo.Create(ctx, variant))

	err := repo.Create(ctx, &model.Product{Name: "Other", Code: "RICE-1", Price: decimal.NewFromInt(3)})
	assert.ErrorIs(t, err, apperrors.ErrDuplicateCode)
	assert.Contains(t, err.Error(), "RICE-1")

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	loaded, err := repo.FindByID(ctx, bulk.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.Category)
	assert.Equal(t, "Grains", loaded.Category.Name)
	assert.True(t, loaded.Category.IsMain)
	assert.True(t, loaded.Price.Equal(decimal.NewFromInt(40)))

	loadedVariant, err := repo.FindByID(ctx, variant.ID)
	require.NoError(t, err)
	assert.Nil(t, loadedVariant.Category)
	require.NotNil(t, loadedVariant.ConsumesFromParent)
	assert.Equal(t, "kg", loadedVariant.ConsumesFromParent.Unit)

	variants, err := repo.ListVariants(ctx, bulk.ID)
	require.NoError(t, err)
	require.Len(t, variants, 1)
	assert.Equal(t, variant.ID, variants[0].ID)

	n, err := repo.CountVariants(ctx, bulk.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	loaded.Name = "Rice 50kg sack"
	require.NoError(t, repo.Update(ctx, loaded))
	again, err := repo.FindByID(ctx, bulk.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rice 50kg sack", again.Name)

	require.NoError(t, repo.Delete(ctx, variant.ID))
	assert.ErrorIs(t, repo.Delete(ctx, variant.ID), gorm.ErrRecordNotFound)
}

func TestDocumentRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewDocumentRepository(newTestDB(t))

	doc := &model.Document{
		Type:           model.DocumentQuote,
		DocumentNumber: "QUO-000001",
		Status:         model.StatusDraft,
		Items: []model.DocumentItem{
			{Description: "A", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(100), LineTotal: decimal.NewFromInt(100)},
			{Description: "B", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(50), LineTotal: decimal.NewFromInt(50)},
		},
		SubTotal: decimal.NewFromInt(150),
		Total:    decimal.NewFromInt(150),
	}
	require.NoError(t, repo.Create(ctx, doc))

	dup := &model.Document{Type: model.DocumentQuote, DocumentNumber: "QUO-000001", Status: model.StatusDraft}
	assert.ErrorIs(t, repo.Create(ctx, dup), apperrors.ErrDuplicateDocumentNumber)

	loaded, err := repo.FindByID(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Items, 2)
	assert.Equal(t, "A", loaded.Items[0].Description)
	assert.Equal(t, "B", loaded.Items[1].Description)

	loaded.Items = loaded.Items[:1]
	loaded.Status = model.StatusSent
	require.NoError(t, repo.Update(ctx, loaded))

	updated, err := repo.FindByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Len(t, updated.Items, 1)
	assert.Equal(t, model.StatusSent, updated.Status)

	sent, err := repo.List(ctx, DocumentFilter{Status: model.StatusSent})
	require.NoError(t, err)
	assert.Len(t, sent, 1)
	invoices, err := repo.List(ctx, DocumentFilter{Type: model.DocumentInvoice})
	require.NoError(t, err)
	assert.Empty(t, invoices)

	require.NoError(t, repo.Delete(ctx, doc.ID))
	_, err = repo.FindByID(ctx, doc.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, doc.ID), gorm.ErrRecordNotFound)
}
