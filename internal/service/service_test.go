package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/haierkeys/folio-lifecycle-service/internal/dao/memstore"
	"github.com/haierkeys/folio-lifecycle-service/internal/domain"
	"github.com/haierkeys/folio-lifecycle-service/internal/dto"
	"github.com/haierkeys/folio-lifecycle-service/pkg/metrics"
	"github.com/stretchr/testify/require"
)

// fakeClock hands out strictly increasing instants
type fakeClock struct {
	mu  sync.Mutex
	cur time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{cur: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cur = c.cur.Add(time.Second)
	return c.cur
}

type fixture struct {
	store      *memstore.Store
	portfolios *portfolioService
	templates  *templateService
	metrics    *metrics.Metrics
	clock      *fakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memstore.New()
	m := metrics.New()
	clock := newFakeClock()
	cfg := &ServiceConfig{
		PublicURLPrefix:  "https://folio.example/p/",
		OperationTimeout: 5 * time.Second,
		ConflictRetries:  100,
	}

	ps := newPortfolioService(store.Portfolios(), store.Templates(), nil, m, nil, cfg)
	ps.now = clock.Now
	ts := newTemplateService(store.Templates(), nil, m, nil, cfg)
	ts.now = clock.Now

	return &fixture{store: store, portfolios: ps, templates: ts, metrics: m, clock: clock}
}

func (f *fixture) createTemplate(t *testing.T, name string) *dto.TemplateDTO {
	t.Helper()
	tpl, err := f.templates.Create(context.Background(), &dto.TemplateCreateRequest{
		Name:     name,
		Category: "minimal",
		Structure: domain.Structure{Sections: []domain.Section{
			{ID: "hero", Type: "hero", Order: 1, Required: true},
			{ID: "projects", Type: "projects", Order: 2, Removable: true, Props: domain.Document{"columns": "3"}},
		}},
		DefaultContent: domain.Document{"headline": "Hello, I am a designer"},
		Styles: domain.Customizations{
			Colors: domain.Document{"primary": "#111111", "accent": "#ff5500"},
			Fonts:  domain.Document{"body": "Inter"},
		},
	})
	require.NoError(t, err)
	return tpl
}

func (f *fixture) createPortfolio(t *testing.T, owner, title, templateID string) *dto.PortfolioDTO {
	t.Helper()
	p, err := f.portfolios.Create(context.Background(), &dto.PortfolioCreateRequest{
		OwnerID:    owner,
		Title:      title,
		TemplateID: templateID,
	})
	require.NoError(t, err)
	return p
}

func strPtr(s string) *string {
	return &s
}

func contentWith(key, value string) *domain.Content {
	return &domain.Content{
		Sections: []domain.Section{{ID: "hero", Type: "hero"}},
		Data:     domain.Document{key: value},
	}
}
