package memstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/haierkeys/folio-lifecycle-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPortfolioInsertRejectsDuplicateSlug(t *testing.T) {
	ctx := context.Background()
	repo := New().Portfolios()

	first, err := repo.Insert(ctx, &domain.Portfolio{Slug: "my-site", OwnerID: "u1"})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, int64(1), first.Revision)

	_, err = repo.Insert(ctx, &domain.Portfolio{Slug: "my-site", OwnerID: "u2"})
	assert.ErrorIs(t, err, domain.ErrDuplicateKey)
}

func TestPortfolioSaveChecksRevision(t *testing.T) {
	ctx := context.Background()
	repo := New().Portfolios()

	p, err := repo.Insert(ctx, &domain.Portfolio{Slug: "a", OwnerID: "u1", Title: "A"})
	require.NoError(t, err)

	p.Title = "B"
	saved, err := repo.Save(ctx, p, p.Revision)
	require.NoError(t, err)
	assert.Equal(t, int64(2), saved.Revision)

	p.Title = "C"
	_, err = repo.Save(ctx, p, p.Revision)
	assert.ErrorIs(t, err, domain.ErrRevisionMismatch)

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "B", got.Title)
}

func TestPortfolioSaveKeepsImmutableFieldsAndViews(t *testing.T) {
	ctx := context.Background()
	repo := New().Portfolios()
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	p, err := repo.Insert(ctx, &domain.Portfolio{Slug: "a", OwnerID: "u1", TemplateID: "t1", CreatedAt: created})
	require.NoError(t, err)
	require.NoError(t, repo.IncrementViews(ctx, p.ID))

	p.OwnerID = "intruder"
	p.TemplateID = "t2"
	p.CreatedAt = time.Now()
	p.Views = 0
	saved, err := repo.Save(ctx, p, p.Revision)
	require.NoError(t, err)

	assert.Equal(t, "u1", saved.OwnerID)
	assert.Equal(t, "t1", saved.TemplateID)
	assert.True(t, created.Equal(saved.CreatedAt))
	assert.Equal(t, int64(1), saved.Views)
}

func TestPortfolioReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := New().Portfolios()

	p, err := repo.Insert(ctx, &domain.Portfolio{Slug: "a", SEOSettings: domain.Document{"title": "x"}})
	require.NoError(t, err)
	p.SEOSettings["title"] = "mutated"

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "x", got.SEOSettings["title"])
}

func TestPortfolioFindFiltersAndSorts(t *testing.T) {
	ctx := context.Background()
	repo := New().Portfolios()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	published := true

	for i, slug := range []string{"a", "b", "c"} {
		_, err := repo.Insert(ctx, &domain.Portfolio{
			Slug:        slug,
			OwnerID:     "u1",
			IsPublished: i != 1,
			UpdatedAt:   base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}

	list, err := repo.Find(ctx, domain.PortfolioFilter{OwnerID: "u1"}, domain.Sort{Field: domain.SortByUpdatedAt, Desc: true})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{list[0].Slug, list[1].Slug, list[2].Slug})

	one, err := repo.FindOne(ctx, domain.PortfolioFilter{Slug: "b", Published: &published})
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
	assert.Nil(t, one)
}

func TestPortfolioDelete(t *testing.T) {
	ctx := context.Background()
	repo := New().Portfolios()

	p, err := repo.Insert(ctx, &domain.Portfolio{Slug: "a"})
	require.NoError(t, err)

	assert.ErrorIs(t, repo.Delete(ctx, p.ID, p.Revision+1), domain.ErrRevisionMismatch)
	require.NoError(t, repo.Delete(ctx, p.ID, p.Revision))
	assert.ErrorIs(t, repo.Delete(ctx, p.ID, p.Revision), domain.ErrRecordNotFound)
}

func TestTemplateCountersBumpRevision(t *testing.T) {
	ctx := context.Background()
	repo := New().Templates()

	tpl, err := repo.Insert(ctx, &domain.Template{Name: "Modern Minimalist", Slug: "modern-minimalist", IsActive: true})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, repo.IncrementUsage(ctx, tpl.ID))
		}()
		go func() {
			defer wg.Done()
			assert.NoError(t, repo.AddPopularity(ctx, tpl.ID, domain.ViewPopularityIncrement))
		}()
	}
	wg.Wait()

	got, err := repo.GetByID(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(50), got.UsageCount)
	assert.InDelta(t, 5.0, got.Popularity, 1e-9)
	assert.Equal(t, int64(101), got.Revision)

	_, err = repo.Save(ctx, tpl, tpl.Revision)
	assert.ErrorIs(t, err, domain.ErrRevisionMismatch)
}

func TestTemplateUniqueName(t *testing.T) {
	ctx := context.Background()
	repo := New().Templates()

	_, err := repo.Insert(ctx, &domain.Template{Name: "Bold", Slug: "bold"})
	require.NoError(t, err)
	_, err = repo.Insert(ctx, &domain.Template{Name: "Bold", Slug: "bold-1"})
	assert.ErrorIs(t, err, domain.ErrDuplicateKey)

	assert.ErrorIs(t, repo.IncrementUsage(ctx, "missing"), domain.ErrRecordNotFound)
}

func TestIncrementUsageSkipsInactiveTemplates(t *testing.T) {
	ctx := context.Background()
	repo := New().Templates()

	tpl, err := repo.Insert(ctx, &domain.Template{Name: "Retired", Slug: "retired", IsActive: false})
	require.NoError(t, err)

	assert.ErrorIs(t, repo.IncrementUsage(ctx, tpl.ID), domain.ErrRecordNotFound)
	require.NoError(t, repo.AddPopularity(ctx, tpl.ID, 0.1))

	got, err := repo.GetByID(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Zero(t, got.UsageCount)
	assert.Equal(t, tpl.Revision+1, got.Revision)
}
