package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kingspos/internal/cache"
	apperrors "kingspos/internal/errors"
	"kingspos/internal/events"
	"kingspos/internal/model"
	"kingspos/internal/repository"
)

type fakeSequence struct {
	n   int
	err error
}

func (f *fakeSequence) Next(_ context.Context, t model.DocumentType) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.n++
	return fmt.Sprintf("%s-%d", t, f.n), nil
}

// stuckSequence always hands out the same number.
type stuckSequence struct {
	number string
	calls  int
}

func (s *stuckSequence) Next(context.Context, model.DocumentType) (string, error) {
	s.calls++
	return s.number, nil
}

func newDocumentService(t *testing.T, seq NumberSequence) (DocumentService, *recordingNotifier) {
	t.Helper()
	notifier := &recordingNotifier{}
	svc := NewDocumentService(repository.NewDocumentRepository(newTestDB(t)), seq, notifier, zerolog.Nop())
	return svc, notifier
}

func line(desc, qty, price, total string) DocumentItemInput {
	lineTotal := d(total)
	return DocumentItemInput{Description: desc, Quantity: d(qty), UnitPrice: d(price), LineTotal: &lineTotal}
}

func TestDocumentService_Create(t *testing.T) {
	ctx := context.Background()
	svc, notifier := newDocumentService(t, &fakeSequence{})

	doc, err := svc.Create(ctx, DocumentInput{
		Type:                   model.DocumentQuote,
		CustomerName:           "Acme",
		Items:                  []DocumentItemInput{line("Widget", "2", "50", "100"), line("Gadget", "1", "50", "50")},
		OverallDiscountPercent: d("10"),
	})
	require.NoError(t, err)
	assert.Equal(t, "quote-1", doc.DocumentNumber)
	assert.Equal(t, model.StatusDraft, doc.Status)
	assert.True(t, doc.SubTotal.Equal(d("150")), "subtotal %s", doc.SubTotal)
	assert.True(t, doc.Total.Equal(d("135")), "total %s", doc.Total)

	stored, err := svc.Get(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 2)
	assert.Equal(t, "Widget", stored.Items[0].Description)
	assert.True(t, stored.Items[0].LineTotal.Equal(d("100")))
	assert.Equal(t, "Gadget", stored.Items[1].Description)
	assert.True(t, stored.Total.Equal(d("135")))

	assert.Equal(t, []string{events.DocumentCreated}, notifier.names())
}

func TestDocumentService_UsesCallerLineTotals(t *testing.T) {
	ctx := context.Background()
	svc, _ := newDocumentService(t, &fakeSequence{})

	doc, err := svc.Create(ctx, DocumentInput{
		Type:                   model.DocumentQuote,
		Items:                  []DocumentItemInput{line("Crate", "1", "10", "100"), line("Box", "1", "5", "50")},
		OverallDiscountPercent: d("10"),
	})
	require.NoError(t, err)
	assert.True(t, doc.SubTotal.Equal(d("150")), "subtotal %s", doc.SubTotal)
	assert.True(t, doc.Total.Equal(d("135")), "total %s", doc.Total)

	stored, err := svc.Get(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 2)
	assert.True(t, stored.Items[0].LineTotal.Equal(d("100")), "line %s", stored.Items[0].LineTotal)
	assert.True(t, stored.Items[1].LineTotal.Equal(d("50")), "line %s", stored.Items[1].LineTotal)
}

func TestDocumentService_StoredTotalsMatchComputed(t *testing.T) {
	ctx := context.Background()
	svc, _ := newDocumentService(t, &fakeSequence{})

	doc, err := svc.Create(ctx, DocumentInput{
		Type:                   model.DocumentInvoice,
		Items:                  []DocumentItemInput{line("Service", "1", "10", "10")},
		OverallDiscountPercent: d("33.3"),
	})
	require.NoError(t, err)
	assert.True(t, doc.Total.Equal(d("6.67")), "total %s", doc.Total)

	stored, err := svc.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.True(t, stored.Total.Equal(doc.Total), "stored %s created %s", stored.Total, doc.Total)
	assert.True(t, stored.OverallDiscountPercent.Equal(d("33.3")))

	status := model.StatusSent
	resaved, err := svc.Update(ctx, doc.ID, DocumentUpdate{Status: &status})
	require.NoError(t, err)
	assert.True(t, resaved.Total.Equal(doc.Total), "resaved %s", resaved.Total)
}

func TestDocumentService_CreateValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newDocumentService(t, &fakeSequence{})

	tests := []struct {
		name  string
		input DocumentInput
		err   error
	}{
		{
			name:  "unknown type",
			input: DocumentInput{Type: "receipt"},
		},
		{
			name:  "unknown status",
			input: DocumentInput{Type: model.DocumentInvoice, Status: "archived"},
		},
		{
			name:  "discount above 100",
			input: DocumentInput{Type: model.DocumentInvoice, OverallDiscountPercent: d("101")},
			err:   apperrors.ErrInvalidDiscount,
		},
		{
			name:  "negative discount",
			input: DocumentInput{Type: model.DocumentInvoice, OverallDiscountPercent: d("-1")},
			err:   apperrors.ErrInvalidDiscount,
		},
		{
			name:  "zero quantity",
			input: DocumentInput{Type: model.DocumentQuote, Items: []DocumentItemInput{line("Widget", "0", "5", "0")}},
		},
		{
			name:  "missing description",
			input: DocumentInput{Type: model.DocumentQuote, Items: []DocumentItemInput{line(" ", "1", "5", "5")}},
		},
		{
			name:  "negative price",
			input: DocumentInput{Type: model.DocumentQuote, Items: []DocumentItemInput{line("Widget", "1", "-5", "0")}},
		},
		{
			name:  "discount with too many decimals",
			input: DocumentInput{Type: model.DocumentInvoice, OverallDiscountPercent: d("10.00001")},
			err:   apperrors.ErrInvalidDiscount,
		},
		{
			name:  "line total with too many decimals",
			input: DocumentInput{Type: model.DocumentQuote, Items: []DocumentItemInput{line("Widget", "1", "5", "5.00001")}},
		},
		{
			name:  "quantity with too many decimals",
			input: DocumentInput{Type: model.DocumentQuote, Items: []DocumentItemInput{line("Widget", "1.0005", "5", "5")}},
		},
		{
			name:  "missing line total",
			input: DocumentInput{Type: model.DocumentQuote, Items: []DocumentItemInput{{Description: "Widget", Quantity: d("1"), UnitPrice: d("5")}}},
		},
		{
			name:  "negative line total",
			input: DocumentInput{Type: model.DocumentQuote, Items: []DocumentItemInput{line("Widget", "1", "5", "-1")}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.input)
			require.Error(t, err)
			assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
			}
		})
	}

	docs, err := svc.List(ctx, repository.DocumentFilter{})
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestDocumentService_EmptyDocument(t *testing.T) {
	svc, _ := newDocumentService(t, &fakeSequence{})

	doc, err := svc.Create(context.Background(), DocumentInput{Type: model.DocumentInvoice})
	require.NoError(t, err)
	assert.True(t, doc.SubTotal.IsZero())
	assert.True(t, doc.Total.IsZero())
	assert.Empty(t, doc.Items)
}

func TestDocumentService_DuplicateNumber(t *testing.T) {
	ctx := context.Background()
	svc, _ := newDocumentService(t, &fakeSequence{})

	_, err := svc.Create(ctx, DocumentInput{Type: model.DocumentInvoice, DocumentNumber: "INV-7"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, DocumentInput{Type: model.DocumentInvoice, DocumentNumber: "INV-7"})
	assert.ErrorIs(t, err, apperrors.ErrDuplicateDocumentNumber)
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
}

func TestDocumentService_GeneratedNumberSkipsTakenNumbers(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	svc, _ := newDocumentService(t, NewRedisSequence(cache.New(mr.Addr(), "", 0)))

	_, err := svc.Create(ctx, DocumentInput{Type: model.DocumentQuote, DocumentNumber: "QUO-000001"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, DocumentInput{Type: model.DocumentQuote, DocumentNumber: "QUO-000002"})
	require.NoError(t, err)

	doc, err := svc.Create(ctx, DocumentInput{Type: model.DocumentQuote})
	require.NoError(t, err)
	assert.Equal(t, "QUO-000003", doc.DocumentNumber)

	stored, err := svc.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "QUO-000003", stored.DocumentNumber)
}

func TestDocumentService_GeneratedNumberGivesUp(t *testing.T) {
	ctx := context.Background()
	seq := &stuckSequence{number: "INV-000001"}
	svc, _ := newDocumentService(t, seq)

	_, err := svc.Create(ctx, DocumentInput{Type: model.DocumentInvoice})
	require.NoError(t, err)
	assert.Equal(t, 1, seq.calls)

	_, err = svc.Create(ctx, DocumentInput{Type: model.DocumentInvoice})
	assert.ErrorIs(t, err, apperrors.ErrDuplicateDocumentNumber)
	assert.Equal(t, 1+maxNumberAttempts, seq.calls)
}

func TestDocumentService_SequenceFailure(t *testing.T) {
	svc, _ := newDocumentService(t, &fakeSequence{err: errors.New("redis down")})

	_, err := svc.Create(context.Background(), DocumentInput{Type: model.DocumentQuote})
	assert.Equal(t, apperrors.KindInternal, apperrors.KindOf(err))
}

func TestDocumentService_Update(t *testing.T) {
	ctx := context.Background()
	svc, notifier := newDocumentService(t, &fakeSequence{})

	doc, err := svc.Create(ctx, DocumentInput{
		Type:  model.DocumentQuote,
		Items: []DocumentItemInput{line("Widget", "1", "100", "100")},
	})
	require.NoError(t, err)

	t.Run("discount only recomputes total", func(t *testing.T) {
		pct := d("25")
		updated, err := svc.Update(ctx, doc.ID, DocumentUpdate{OverallDiscountPercent: &pct})
		require.NoError(t, err)
		assert.True(t, updated.SubTotal.Equal(d("100")))
		assert.True(t, updated.Total.Equal(d("75")))
		require.Len(t, updated.Items, 1)
	})

	t.Run("items are replaced", func(t *testing.T) {
		bolt := line("Bolt", "10", "2", "16")
		bolt.ItemDiscount = d("4")
		items := []DocumentItemInput{bolt}
		status := model.StatusSent
		updated, err := svc.Update(ctx, doc.ID, DocumentUpdate{Items: &items, Status: &status})
		require.NoError(t, err)
		assert.Equal(t, model.StatusSent, updated.Status)
		assert.True(t, updated.SubTotal.Equal(d("16")), "subtotal %s", updated.SubTotal)
		assert.True(t, updated.Total.Equal(d("12")), "total %s", updated.Total)

		stored, err := svc.Get(ctx, doc.ID)
		require.NoError(t, err)
		require.Len(t, stored.Items, 1)
		assert.Equal(t, "Bolt", stored.Items[0].Description)
	})

	t.Run("invalid status", func(t *testing.T) {
		status := model.DocumentStatus("lost")
		_, err := svc.Update(ctx, doc.ID, DocumentUpdate{Status: &status})
		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	})

	t.Run("unknown document", func(t *testing.T) {
		_, err := svc.Update(ctx, uuid.New(), DocumentUpdate{})
		assert.ErrorIs(t, err, apperrors.ErrDocumentNotFound)
	})

	assert.Equal(t, []string{events.DocumentCreated, events.DocumentUpdated, events.DocumentUpdated}, notifier.names())
}

func TestDocumentService_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	svc, notifier := newDocumentService(t, &fakeSequence{})

	quote, err := svc.Create(ctx, DocumentInput{Type: model.DocumentQuote})
	require.NoError(t, err)
	_, err = svc.Create(ctx, DocumentInput{Type: model.DocumentInvoice, Status: model.StatusPaid})
	require.NoError(t, err)

	quotes, err := svc.List(ctx, repository.DocumentFilter{Type: model.DocumentQuote})
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.Equal(t, quote.ID, quotes[0].ID)

	paid, err := svc.List(ctx, repository.DocumentFilter{Status: model.StatusPaid})
	require.NoError(t, err)
	assert.Len(t, paid, 1)

	_, err = svc.List(ctx, repository.DocumentFilter{Type: "receipt"})
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	require.NoError(t, svc.Delete(ctx, quote.ID))
	assert.ErrorIs(t, svc.Delete(ctx, quote.ID), apperrors.ErrDocumentNotFound)
	assert.Equal(t, events.DocumentDeleted, notifier.names()[len(notifier.names())-1])
}

func TestRedisSequence_Next(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	seq := NewRedisSequence(cache.New(mr.Addr(), "", 0))

	first, err := seq.Next(ctx, model.DocumentQuote)
	require.NoError(t, err)
	assert.Equal(t, "QUO-000001", first)

	second, err := seq.Next(ctx, model.DocumentQuote)
	require.NoError(t, err)
	assert.Equal(t, "QUO-000002", second)

	invoice, err := seq.Next(ctx, model.DocumentInvoice)
	require.NoError(t, err)
	assert.Equal(t, "INV-000001", invoice)
}

func TestRedisSequence_Unique(t *testing.T) {
	mr := miniredis.RunT(t)
	seq := NewRedisSequence(cache.New(mr.Addr(), "", 0))

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		n, err := seq.Next(context.Background(), model.DocumentInvoice)
		require.NoError(t, err)
		require.False(t, seen[n], "duplicate number %s", n)
		seen[n] = true
	}
	assert.Len(t, seen, 50)

	v, err := mr.Get("document_seq:invoice")
	require.NoError(t, err)
	assert.Equal(t, "50", v)
}
