// Package memstore implements the repositories in process memory
// Package memstore 在进程内存中实现仓储接口
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/haierkeys/folio-lifecycle-service/internal/domain"
)

// Store holds both collections behind one lock
// Store 用同一把锁保护两个集合
type Store struct {
	mu         sync.RWMutex
	portfolios map[string]*domain.Portfolio
	templates  map[string]*domain.Template
}

// New 创建内存存储
func New() *Store {
	return &Store{
		portfolios: make(map[string]*domain.Portfolio),
		templates:  make(map[string]*domain.Template),
	}
}

// Portfolios 返回作品集仓储
func (s *Store) Portfolios() domain.PortfolioRepository {
	return &portfolioRepository{s: s}
}

// Templates 返回模板仓储
func (s *Store) Templates() domain.TemplateRepository {
	return &templateRepository{s: s}
}

var (
	_ domain.PortfolioRepository = (*portfolioRepository)(nil)
	_ domain.TemplateRepository  = (*templateRepository)(nil)
)

type portfolioRepository struct {
	s *Store
}

func matchPortfolio(p *domain.Portfolio, f domain.PortfolioFilter) bool {
	if f.Slug != "" && p.Slug != f.Slug {
		return false
	}
	if f.OwnerID != "" && p.OwnerID != f.OwnerID {
		return false
	}
	if f.Published != nil && p.IsPublished != *f.Published {
		return false
	}
	if f.ExcludeID != "" && p.ID == f.ExcludeID {
		return false
	}
	return true
}

func (r *portfolioRepository) GetByID(ctx context.Context, id string) (*domain.Portfolio, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.portfolios[id]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	return p.Clone(), nil
}

func (r *portfolioRepository) FindOne(ctx context.Context, filter domain.PortfolioFilter) (*domain.Portfolio, error) {
	list, err := r.Find(ctx, filter, domain.Sort{Field: domain.SortByCreatedAt})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, domain.ErrRecordNotFound
	}
	return list[0], nil
}

func (r *portfolioRepository) Find(ctx context.Context, filter domain.PortfolioFilter, s domain.Sort) ([]*domain.Portfolio, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	out := make([]*domain.Portfolio, 0)
	for _, p := range r.s.portfolios {
		if matchPortfolio(p, filter) {
			out = append(out, p.Clone())
		}
	}
	r.s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		c := comparePortfolios(out[i], out[j], s.Field)
		if s.Desc {
			return c > 0
		}
		return c < 0
	})
	return out, nil
}

func comparePortfolios(a, b *domain.Portfolio, field domain.SortField) int {
	if field == domain.SortByUpdatedAt {
		return a.UpdatedAt.Compare(b.UpdatedAt)
	}
	return a.CreatedAt.Compare(b.CreatedAt)
}

func (r *portfolioRepository) slugTaken(slug, excludeID string) bool {
	for _, p := range r.s.portfolios {
		if p.Slug == slug && p.ID != excludeID {
			return true
		}
	}
	return false
}

func (r *portfolioRepository) Insert(ctx context.Context, p *domain.Portfolio) (*domain.Portfolio, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.slugTaken(p.Slug, "") {
		return nil, domain.ErrDuplicateKey
	}
	stored := p.Clone()
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	stored.Revision = 1
	r.s.portfolios[stored.ID] = stored
	return stored.Clone(), nil
}

func (r *portfolioRepository) Save(ctx context.Context, p *domain.Portfolio, expectedRevision int64) (*domain.Portfolio, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.portfolios[p.ID]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	if cur.Revision != expectedRevision {
		return nil, domain.ErrRevisionMismatch
	}
	if r.slugTaken(p.Slug, p.ID) {
		return nil, domain.ErrDuplicateKey
	}

	next := p.Clone()
	next.OwnerID = cur.OwnerID
	next.TemplateID = cur.TemplateID
	next.CreatedAt = cur.CreatedAt
	next.Views = cur.Views
	next.Revision = cur.Revision + 1
	r.s.portfolios[p.ID] = next
	return next.Clone(), nil
}

func (r *portfolioRepository) Delete(ctx context.Context, id string, expectedRevision int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.portfolios[id]
	if !ok {
		return domain.ErrRecordNotFound
	}
	if cur.Revision != expectedRevision {
		return domain.ErrRevisionMismatch
	}
	delete(r.s.portfolios, id)
	return nil
}

func (r *portfolioRepository) IncrementViews(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.portfolios[id]
	if !ok {
		return domain.ErrRecordNotFound
	}
	cur.Views++
	return nil
}
