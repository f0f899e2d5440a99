package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/haierkeys/folio-lifecycle-service/internal/domain"
	"github.com/haierkeys/folio-lifecycle-service/internal/dto"
	"github.com/haierkeys/folio-lifecycle-service/pkg/code"
	"github.com/haierkeys/folio-lifecycle-service/pkg/locker"
	"github.com/haierkeys/folio-lifecycle-service/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingUsageRepo fails every usage increment
type failingUsageRepo struct {
	domain.TemplateRepository
	err error
}

func (r *failingUsageRepo) IncrementUsage(ctx context.Context, id string) error {
	return r.err
}

// deactivatingUsageRepo deactivates the template right before counting its usage
type deactivatingUsageRepo struct {
	domain.TemplateRepository
	templates *templateService
}

func (r *deactivatingUsageRepo) IncrementUsage(ctx context.Context, id string) error {
	if _, err := r.templates.Deactivate(ctx, id); err != nil {
		return err
	}
	return r.TemplateRepository.IncrementUsage(ctx, id)
}

// countingLocker records every key it is asked to lock
type countingLocker struct {
	*locker.Local
	mu   sync.Mutex
	keys []string
}

func (l *countingLocker) Lock(ctx context.Context, key string) (locker.Unlock, error) {
	l.mu.Lock()
	l.keys = append(l.keys, key)
	l.mu.Unlock()
	return l.Local.Lock(ctx, key)
}

// slowPortfolioRepo never answers GetByID in time
type slowPortfolioRepo struct {
	domain.PortfolioRepository
}

func (r *slowPortfolioRepo) GetByID(ctx context.Context, id string) (*domain.Portfolio, error) {
	return nil, context.DeadlineExceeded
}

// contendedPortfolioRepo loses every optimistic save
type contendedPortfolioRepo struct {
	domain.PortfolioRepository
	saves int
}

func (r *contendedPortfolioRepo) Save(ctx context.Context, p *domain.Portfolio, expectedRevision int64) (*domain.Portfolio, error) {
	r.saves++
	return nil, domain.ErrRevisionMismatch
}

func TestCreateFromTemplateThenDuplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tpl := f.createTemplate(t, "Modern Minimalist")
	assert.Equal(t, "modern-minimalist", tpl.Slug)
	assert.Zero(t, tpl.UsageCount)

	p := f.createPortfolio(t, "user-1", "My Site", tpl.ID)
	assert.Equal(t, "my-site", p.Slug)
	assert.Equal(t, int64(1), p.Version)
	assert.False(t, p.IsPublished)
	assert.Nil(t, p.PublishedAt)
	assert.Empty(t, p.PublicURL)
	assert.Equal(t, tpl.ID, p.TemplateID)
	require.Len(t, p.Content.Sections, 2)
	assert.Equal(t, "hero", p.Content.Sections[0].ID)
	assert.Equal(t, "Hello, I am a designer", p.Content.Data["headline"])
	assert.Equal(t, "#111111", p.Customizations.Colors["primary"])
	assert.Zero(t, p.HistoryCount)

	stored, err := f.store.Templates().GetByID(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.UsageCount)

	dup, err := f.portfolios.Duplicate(ctx, p.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "My Site (Copy)", dup.Title)
	assert.Equal(t, "my-site-copy", dup.Slug)
	assert.NotEqual(t, p.ID, dup.ID)
	assert.Equal(t, "user-1", dup.OwnerID)
	assert.False(t, dup.IsPublished)
	assert.Zero(t, dup.Views)
	assert.Equal(t, int64(1), dup.Version)
	assert.True(t, p.Content.Equal(dup.Content))

	stored, err = f.store.Templates().GetByID(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.UsageCount, "duplicating does not count as template usage")
}

func TestCreateWithoutTemplate(t *testing.T) {
	f := newFixture(t)

	p := f.createPortfolio(t, "user-1", "Blank Canvas", "")
	assert.Equal(t, "blank-canvas", p.Slug)
	assert.Empty(t, p.TemplateID)
	assert.NotNil(t, p.Content.Sections)
	assert.Empty(t, p.Content.Sections)
}

func TestCreateRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tpl := f.createTemplate(t, "Retired")
	_, err := f.templates.Deactivate(ctx, tpl.ID)
	require.NoError(t, err)

	tests := []struct {
		name   string
		params *dto.PortfolioCreateRequest
		want   *code.Code
	}{
		{"empty title", &dto.PortfolioCreateRequest{OwnerID: "u", Title: ""}, code.ErrorInvalidTitle},
		{"long title", &dto.PortfolioCreateRequest{OwnerID: "u", Title: strings.Repeat("a", 101)}, code.ErrorInvalidTitle},
		{"no slug characters", &dto.PortfolioCreateRequest{OwnerID: "u", Title: "!!!"}, code.ErrorInvalidSlugSource},
		{"missing owner", &dto.PortfolioCreateRequest{Title: "Fine"}, code.ErrorInvalidParams},
		{"unknown template", &dto.PortfolioCreateRequest{OwnerID: "u", Title: "Fine", TemplateID: "nope"}, code.ErrorTemplateNotFound},
		{"inactive template", &dto.PortfolioCreateRequest{OwnerID: "u", Title: "Fine", TemplateID: tpl.ID}, code.ErrorTemplateNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.portfolios.Create(ctx, tt.params)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	list, err := f.portfolios.List(ctx, "u")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCreateAllocatesNumericSuffixes(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, "my-site", f.createPortfolio(t, "a", "My Site", "").Slug)
	assert.Equal(t, "my-site-1", f.createPortfolio(t, "b", "my site", "").Slug)
	assert.Equal(t, "my-site-2", f.createPortfolio(t, "c", "MY SITE!", "").Slug)
}

func TestConcurrentCreatesGetDistinctSlugs(t *testing.T) {
	f := newFixture(t)
	const n = 20

	var wg sync.WaitGroup
	slugs := make([]string, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := f.portfolios.Create(context.Background(), &dto.PortfolioCreateRequest{OwnerID: "owner", Title: "Same Title"})
			errs[i] = err
			if err == nil {
				slugs[i] = p.Slug
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.False(t, seen[slugs[i]], "slug %s handed out twice", slugs[i])
		seen[slugs[i]] = true
	}
	assert.True(t, seen["same-title"])
	assert.True(t, seen["same-title-19"])
}

func TestCreateRollsBackWhenUsageCannotBeRecorded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tpl := f.createTemplate(t, "Modern Minimalist")

	svc := newPortfolioService(f.store.Portfolios(),
		&failingUsageRepo{TemplateRepository: f.store.Templates(), err: errors.New("connection refused")},
		nil, nil, nil, nil)

	_, err := svc.Create(ctx, &dto.PortfolioCreateRequest{OwnerID: "user-1", Title: "My Site", TemplateID: tpl.ID})
	require.Error(t, err)
	assert.Equal(t, code.KindStorageUnavailable, code.KindOf(err))

	list, err := f.portfolios.List(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, list, "the inserted portfolio must be removed")

	// the slug is free again
	p := f.createPortfolio(t, "user-1", "My Site", tpl.ID)
	assert.Equal(t, "my-site", p.Slug)
}

func TestCreateRollsBackWhenTemplateIsDeactivatedMidway(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tpl := f.createTemplate(t, "Modern Minimalist")

	svc := newPortfolioService(f.store.Portfolios(),
		&deactivatingUsageRepo{TemplateRepository: f.store.Templates(), templates: f.templates},
		nil, nil, nil, nil)

	_, err := svc.Create(ctx, &dto.PortfolioCreateRequest{OwnerID: "user-1", Title: "My Site", TemplateID: tpl.ID})
	require.Error(t, err)
	assert.True(t, errors.Is(err, code.ErrorTemplateNotFound))

	list, err := f.portfolios.List(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, list)

	stored, err := f.store.Templates().GetByID(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Zero(t, stored.UsageCount)
	assert.False(t, stored.IsActive)
}

func TestUpdateTitleChecksOwnerBeforeLocking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.createPortfolio(t, "user-1", "My Site", "")

	lk := &countingLocker{Local: locker.NewLocal()}
	svc := newPortfolioService(f.store.Portfolios(), f.store.Templates(), lk, nil, nil, nil)

	_, err := svc.Update(ctx, p.ID, "user-2", &dto.PortfolioUpdateRequest{Title: strPtr("Stolen Name")})
	assert.ErrorIs(t, err, code.ErrorPortfolioForbidden)
	_, err = svc.Update(ctx, "missing", "user-1", &dto.PortfolioUpdateRequest{Title: strPtr("Stolen Name")})
	assert.ErrorIs(t, err, code.ErrorPortfolioNotFound)
	assert.Empty(t, lk.keys)

	got, err := svc.Update(ctx, p.ID, "user-1", &dto.PortfolioUpdateRequest{Title: strPtr("New Name")})
	require.NoError(t, err)
	assert.Equal(t, "new-name", got.Slug)
	assert.Equal(t, []string{"slug:portfolio:new-name"}, lk.keys)
}

func TestUpdateKeepsBoundedHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.createPortfolio(t, "user-1", "My Site", "")

	for i := 1; i <= 12; i++ {
		_, err := f.portfolios.Update(ctx, p.ID, "user-1", &dto.PortfolioUpdateRequest{
			Content: contentWith("headline", strings.Repeat("x", i)),
		})
		require.NoError(t, err)
	}

	got, err := f.portfolios.ViewByID(ctx, p.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(13), got.Version)
	assert.Equal(t, domain.HistoryCapacity, got.HistoryCount)

	history, err := f.portfolios.History(ctx, p.ID, "user-1")
	require.NoError(t, err)
	require.Len(t, history, domain.HistoryCapacity)
	assert.Equal(t, int64(12), history[0].Version, "newest first")
	assert.Equal(t, int64(3), history[len(history)-1].Version, "versions 1 and 2 were evicted")
	for i := 1; i < len(history); i++ {
		assert.True(t, history[i-1].SavedAt.After(history[i].SavedAt))
	}
	// version 12 held the content written by the 11th update
	assert.Equal(t, strings.Repeat("x", 11), history[0].Content.Data["headline"])
	assert.NotEmpty(t, history[0].Diffs)
}

func TestUpdateWithoutContentChangeKeepsVersion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.createPortfolio(t, "user-1", "My Site", "")

	first, err := f.portfolios.Update(ctx, p.ID, "user-1", &dto.PortfolioUpdateRequest{Content: contentWith("a", "1")})
	require.NoError(t, err)
	require.Equal(t, int64(2), first.Version)

	second, err := f.portfolios.Update(ctx, p.ID, "user-1", &dto.PortfolioUpdateRequest{
		Content:        contentWith("a", "1"),
		Customizations: &domain.Customizations{Colors: domain.Document{"primary": "#000000"}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.Version)
	assert.Equal(t, 1, second.HistoryCount)
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))
	assert.Equal(t, second.UpdatedAt, second.LastEditedAt)
}

func TestUpdateMergesCustomizationsAndReplacesSEO(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tpl := f.createTemplate(t, "Modern Minimalist")
	p := f.createPortfolio(t, "user-1", "My Site", tpl.ID)

	got, err := f.portfolios.Update(ctx, p.ID, "user-1", &dto.PortfolioUpdateRequest{
		Customizations: &domain.Customizations{
			Colors: domain.Document{"primary": "#222222"},
			Layout: domain.Document{"grid": "wide"},
		},
		SEOSettings: &domain.Document{"title": "Portfolio of a designer"},
	})
	require.NoError(t, err)
	assert.Equal(t, "#222222", got.Customizations.Colors["primary"])
	assert.Equal(t, "#ff5500", got.Customizations.Colors["accent"])
	assert.Equal(t, "Inter", got.Customizations.Fonts["body"])
	assert.Equal(t, "wide", got.Customizations.Layout["grid"])
	assert.Equal(t, "Portfolio of a designer", got.SEOSettings["title"])
	assert.Equal(t, int64(1), got.Version, "styling alone is not a content change")
}

func TestUpdateTitleReallocatesSlug(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mine := f.createPortfolio(t, "user-1", "My Site", "")
	other := f.createPortfolio(t, "user-1", "Other", "")

	got, err := f.portfolios.Update(ctx, other.ID, "user-1", &dto.PortfolioUpdateRequest{Title: strPtr("My Site")})
	require.NoError(t, err)
	assert.Equal(t, "my-site-1", got.Slug)

	got, err = f.portfolios.Update(ctx, mine.ID, "user-1", &dto.PortfolioUpdateRequest{Title: strPtr("My  Site")})
	require.NoError(t, err)
	assert.Equal(t, "my-site", got.Slug, "a portfolio keeps its own slug")
	assert.Equal(t, "My  Site", got.Title)

	_, err = f.portfolios.Update(ctx, mine.ID, "user-1", &dto.PortfolioUpdateRequest{Title: strPtr("")})
	assert.Equal(t, code.KindInvalidInput, code.KindOf(err))
}

func TestOwnerOnlyOperations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.createPortfolio(t, "user-1", "My Site", "")

	ops := map[string]func(requester string) error{
		"update": func(r string) error {
			_, err := f.portfolios.Update(ctx, p.ID, r, &dto.PortfolioUpdateRequest{Content: contentWith("a", "b")})
			return err
		},
		"toggle": func(r string) error {
			_, err := f.portfolios.TogglePublish(ctx, p.ID, r)
			return err
		},
		"duplicate": func(r string) error {
			_, err := f.portfolios.Duplicate(ctx, p.ID, r)
			return err
		},
		"restore": func(r string) error {
			_, err := f.portfolios.Restore(ctx, p.ID, r, 1)
			return err
		},
		"history": func(r string) error {
			_, err := f.portfolios.History(ctx, p.ID, r)
			return err
		},
		"delete": func(r string) error {
			return f.portfolios.Delete(ctx, p.ID, r)
		},
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			for _, requester := range []string{"user-2", ""} {
				err := op(requester)
				assert.ErrorIs(t, err, code.ErrorPortfolioForbidden)
				assert.Equal(t, code.KindForbidden, code.KindOf(err))
			}
		})
	}

	_, err := f.portfolios.Update(ctx, "missing", "user-1", &dto.PortfolioUpdateRequest{})
	assert.ErrorIs(t, err, code.ErrorPortfolioNotFound)

	got, err := f.portfolios.ViewByID(ctx, p.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Version)

	stored, err := f.store.Portfolios().GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.Revision, "rejected calls write nothing")
}

func TestRestoreHistoryVersion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.createPortfolio(t, "user-1", "My Site", "")

	for _, v := range []string{"one", "two", "three"} {
		_, err := f.portfolios.Update(ctx, p.ID, "user-1", &dto.PortfolioUpdateRequest{
			Content:        contentWith("headline", v),
			Customizations: &domain.Customizations{Colors: domain.Document{"primary": v}},
		})
		require.NoError(t, err)
	}
	// history now holds versions 1, 2 and 3; version 3 has content "two"
	restored, err := f.portfolios.Restore(ctx, p.ID, "user-1", 3)
	require.NoError(t, err)
	assert.Equal(t, "two", restored.Content.Data["headline"])
	assert.Equal(t, "two", restored.Customizations.Colors["primary"])
	assert.Equal(t, int64(4), restored.Version)
	assert.Equal(t, 3, restored.HistoryCount)

	_, err = f.portfolios.Restore(ctx, p.ID, "user-1", 4)
	assert.ErrorIs(t, err, code.ErrorHistoryVersionNotFound)
	assert.Equal(t, code.KindNotFound, code.KindOf(err))

	_, err = f.portfolios.Restore(ctx, p.ID, "user-1", 99)
	assert.ErrorIs(t, err, code.ErrorHistoryVersionNotFound)
}

func TestTogglePublishTwice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.createPortfolio(t, "user-1", "My Site", "")

	on, err := f.portfolios.TogglePublish(ctx, p.ID, "user-1")
	require.NoError(t, err)
	assert.True(t, on.IsPublished)
	require.NotNil(t, on.PublishedAt)
	assert.Equal(t, "https://folio.example/p/my-site", on.PublicURL)

	off, err := f.portfolios.TogglePublish(ctx, p.ID, "user-1")
	require.NoError(t, err)
	assert.False(t, off.IsPublished)
	assert.Nil(t, off.PublishedAt)
	assert.Empty(t, off.PublicURL)

	got, err := f.portfolios.ViewByID(ctx, p.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Version, "publishing never archives content")
}

func TestViewRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.createPortfolio(t, "user-1", "My Site", "")

	_, err := f.portfolios.ViewPublic(ctx, "my-site")
	assert.ErrorIs(t, err, code.ErrorPortfolioNotFound)

	_, err = f.portfolios.ViewByID(ctx, p.ID, "user-2")
	assert.ErrorIs(t, err, code.ErrorPortfolioNotPublished)
	assert.Equal(t, code.KindForbidden, code.KindOf(err))

	_, err = f.portfolios.ViewByID(ctx, p.ID, "")
	assert.ErrorIs(t, err, code.ErrorPortfolioNotPublished)

	own, err := f.portfolios.ViewByID(ctx, p.ID, "user-1")
	require.NoError(t, err)
	assert.Zero(t, own.Views)

	_, err = f.portfolios.TogglePublish(ctx, p.ID, "user-1")
	require.NoError(t, err)

	pub, err := f.portfolios.ViewPublic(ctx, "my-site")
	require.NoError(t, err)
	assert.Equal(t, int64(1), pub.Views)
	assert.Equal(t, "https://folio.example/p/my-site", pub.PublicURL)

	byStranger, err := f.portfolios.ViewByID(ctx, p.ID, "user-2")
	require.NoError(t, err)
	assert.Equal(t, int64(2), byStranger.Views)

	anon, err := f.portfolios.ViewByID(ctx, p.ID, "")
	require.NoError(t, err)
	assert.Equal(t, int64(3), anon.Views)

	own, err = f.portfolios.ViewByID(ctx, p.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), own.Views, "owners do not count")

	_, err = f.portfolios.ViewPublic(ctx, "unknown")
	assert.ErrorIs(t, err, code.ErrorPortfolioNotFound)
	_, err = f.portfolios.ViewByID(ctx, "unknown", "user-1")
	assert.ErrorIs(t, err, code.ErrorPortfolioNotFound)
}

func TestConcurrentViewsAreAllCounted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.createPortfolio(t, "user-1", "My Site", "")
	_, err := f.portfolios.TogglePublish(ctx, p.ID, "user-1")
	require.NoError(t, err)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.portfolios.ViewPublic(ctx, "my-site")
			assert.NoError(t, err)
		}()
	}
	// an edit racing the views must not lose any of them
	_, err = f.portfolios.Update(ctx, p.ID, "user-1", &dto.PortfolioUpdateRequest{Content: contentWith("a", "b")})
	require.NoError(t, err)
	wg.Wait()

	got, err := f.portfolios.ViewByID(ctx, p.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(n), got.Views)
}

func TestConcurrentUpdatesLoseNoHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.createPortfolio(t, "user-1", "My Site", "")

	const n = 10
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.portfolios.Update(ctx, p.ID, "user-1", &dto.PortfolioUpdateRequest{
				Content: contentWith("writer", strings.Repeat("w", i+1)),
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, err := f.portfolios.ViewByID(ctx, p.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(n+1), got.Version)
	assert.Equal(t, n, got.HistoryCount)
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.createPortfolio(t, "user-1", "My Site", "")

	require.NoError(t, f.portfolios.Delete(ctx, p.ID, "user-1"))

	_, err := f.portfolios.ViewByID(ctx, p.ID, "user-1")
	assert.ErrorIs(t, err, code.ErrorPortfolioNotFound)
	assert.ErrorIs(t, f.portfolios.Delete(ctx, p.ID, "user-1"), code.ErrorPortfolioNotFound)
}

func TestDuplicateRejectsOverlongTitle(t *testing.T) {
	f := newFixture(t)
	p := f.createPortfolio(t, "user-1", strings.Repeat("a", 95), "")

	_, err := f.portfolios.Duplicate(context.Background(), p.ID, "user-1")
	assert.ErrorIs(t, err, code.ErrorInvalidTitle)
}

func TestListReturnsOwnPortfolios(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.createPortfolio(t, "user-1", "First", "")
	f.createPortfolio(t, "user-1", "Second", "")
	f.createPortfolio(t, "user-2", "Elsewhere", "")

	_, err := f.portfolios.Update(ctx, first.ID, "user-1", &dto.PortfolioUpdateRequest{Content: contentWith("a", "b")})
	require.NoError(t, err)

	list, err := f.portfolios.List(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID, "most recently updated first")

	_, err = f.portfolios.List(ctx, "")
	assert.ErrorIs(t, err, code.ErrorInvalidParams)
}

func TestStorageFailuresAreClassified(t *testing.T) {
	svc := newPortfolioService(&slowPortfolioRepo{}, nil, nil, nil, nil, nil)

	_, err := svc.ViewByID(context.Background(), "any", "user-1")
	assert.ErrorIs(t, err, code.ErrorStorageTimeout)
	assert.Equal(t, code.KindStorageUnavailable, code.KindOf(err))
}

func TestConflictRetriesAreBounded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.createPortfolio(t, "user-1", "My Site", "")

	m := metrics.New()
	repo := &contendedPortfolioRepo{PortfolioRepository: f.store.Portfolios()}
	svc := newPortfolioService(repo, f.store.Templates(), nil, m, nil, &ServiceConfig{ConflictRetries: 2})

	_, err := svc.TogglePublish(ctx, p.ID, "user-1")
	assert.ErrorIs(t, err, code.ErrorVersionConflict)
	assert.Equal(t, code.KindConflict, code.KindOf(err))
	assert.Equal(t, 3, repo.saves)
	assert.Equal(t, float64(3), testutil.ToFloat64(m.Conflicts().WithLabelValues(entityPortfolio)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Operations().WithLabelValues(entityPortfolio, "toggle_publish", code.KindConflict.String())))
}

func TestOperationsAreCounted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.createPortfolio(t, "user-1", "My Site", "")
	_, _ = f.portfolios.ViewByID(ctx, p.ID, "user-2")

	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.Operations().WithLabelValues(entityPortfolio, "create", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.Operations().WithLabelValues(entityPortfolio, "view_by_id", code.KindForbidden.String())))
}
