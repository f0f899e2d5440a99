package memstore

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/haierkeys/folio-lifecycle-service/internal/domain"
)

type templateRepository struct {
	s *Store
}

func matchTemplate(t *domain.Template, f domain.TemplateFilter) bool {
	if f.Name != "" && t.Name != f.Name {
		return false
	}
	if f.Slug != "" && t.Slug != f.Slug {
		return false
	}
	if f.Category != "" && t.Category != f.Category {
		return false
	}
	if f.Active != nil && t.IsActive != *f.Active {
		return false
	}
	if f.ExcludeID != "" && t.ID == f.ExcludeID {
		return false
	}
	return true
}

func compareTemplates(a, b *domain.Template, field domain.SortField) int {
	cmpFloat := func(x, y float64) int {
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	}
	switch field {
	case domain.SortByPopularity:
		return cmpFloat(a.Popularity, b.Popularity)
	case domain.SortByUsage:
		return cmpFloat(float64(a.UsageCount), float64(b.UsageCount))
	case domain.SortByRating:
		return cmpFloat(a.Rating.Average, b.Rating.Average)
	case domain.SortByUpdatedAt:
		return a.UpdatedAt.Compare(b.UpdatedAt)
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

func (r *templateRepository) GetByID(ctx context.Context, id string) (*domain.Template, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.templates[id]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	return t.Clone(), nil
}

func (r *templateRepository) FindOne(ctx context.Context, filter domain.TemplateFilter) (*domain.Template, error) {
	list, err := r.Find(ctx, filter, domain.Sort{Field: domain.SortByCreatedAt})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, domain.ErrRecordNotFound
	}
	return list[0], nil
}

func (r *templateRepository) Find(ctx context.Context, filter domain.TemplateFilter, s domain.Sort) ([]*domain.Template, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	out := make([]*domain.Template, 0)
	for _, t := range r.s.templates {
		if matchTemplate(t, filter) {
			out = append(out, t.Clone())
		}
	}
	r.s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		c := compareTemplates(out[i], out[j], s.Field)
		if s.Desc {
			return c > 0
		}
		return c < 0
	})
	return out, nil
}

func (r *templateRepository) uniqueTaken(t *domain.Template) bool {
	for _, cur := range r.s.templates {
		if cur.ID == t.ID {
			continue
		}
		if cur.Name == t.Name || cur.Slug == t.Slug {
			return true
		}
	}
	return false
}

func (r *templateRepository) Insert(ctx context.Context, t *domain.Template) (*domain.Template, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored := t.Clone()
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if r.uniqueTaken(stored) {
		return nil, domain.ErrDuplicateKey
	}
	stored.Revision = 1
	r.s.templates[stored.ID] = stored
	return stored.Clone(), nil
}

func (r *templateRepository) Save(ctx context.Context, t *domain.Template, expectedRevision int64) (*domain.Template, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.templates[t.ID]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	if cur.Revision != expectedRevision {
		return nil, domain.ErrRevisionMismatch
	}
	if r.uniqueTaken(t) {
		return nil, domain.ErrDuplicateKey
	}

	next := t.Clone()
	next.CreatedAt = cur.CreatedAt
	next.Revision = cur.Revision + 1
	r.s.templates[t.ID] = next
	return next.Clone(), nil
}

func (r *templateRepository) update(ctx context.Context, id string, activeOnly bool, fn func(t *domain.Template)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.templates[id]
	if !ok || (activeOnly && !cur.IsActive) {
		return domain.ErrRecordNotFound
	}
	fn(cur)
	cur.Revision++
	return nil
}

func (r *templateRepository) IncrementUsage(ctx context.Context, id string) error {
	return r.update(ctx, id, true, func(t *domain.Template) { t.UsageCount++ })
}

func (r *templateRepository) AddPopularity(ctx context.Context, id string, delta float64) error {
	return r.update(ctx, id, false, func(t *domain.Template) { t.Popularity += delta })
}
