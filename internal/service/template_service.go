package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/haierkeys/folio-lifecycle-service/internal/domain"
	"github.com/haierkeys/folio-lifecycle-service/internal/dto"
	"github.com/haierkeys/folio-lifecycle-service/pkg/code"
	"github.com/haierkeys/folio-lifecycle-service/pkg/locker"
	"github.com/haierkeys/folio-lifecycle-service/pkg/logger"
	"github.com/haierkeys/folio-lifecycle-service/pkg/metrics"
	"github.com/jinzhu/copier"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	entityTemplate = "template"
	minRating      = 1
	maxRating      = 5
)

// TemplateService defines the template catalog business service interface
// TemplateService 定义模板目录业务服务接口
type TemplateService interface {
	// Create adds a template to the catalog
	// Create 向目录新增模板
	Create(ctx context.Context, params *dto.TemplateCreateRequest) (*dto.TemplateDTO, error)

	// Get returns full template detail and records a view
	// Get 获取模板详情并记录一次浏览
	Get(ctx context.Context, id string) (*dto.TemplateDTO, error)

	// List returns active templates
	// List 获取有效模板列表
	List(ctx context.Context, params *dto.TemplateListRequest) ([]*dto.TemplateDTO, error)

	// RecordView adds the view increment to popularity
	// RecordView 为热度增加浏览增量
	RecordView(ctx context.Context, id string) error

	// Rate folds a 1-5 rating into the running average and popularity
	// Rate 将 1-5 分的评分计入平均分与热度
	Rate(ctx context.Context, id string, rating int) (*dto.TemplateDTO, error)

	// Deactivate hides a template from the catalog and from new portfolios
	// Deactivate 从目录和新建作品集中隐藏模板
	Deactivate(ctx context.Context, id string) (*dto.TemplateDTO, error)
}

type templateService struct {
	templateRepo domain.TemplateRepository
	slugs        *slugAllocator
	locker       locker.Locker
	sf           *singleflight.Group
	metrics      *metrics.Metrics
	logger       *zap.Logger
	config       *ServiceConfig
	now          func() time.Time
}

// NewTemplateService creates TemplateService instance
// NewTemplateService 创建 TemplateService 实例
func NewTemplateService(templateRepo domain.TemplateRepository, lk locker.Locker, m *metrics.Metrics, log *zap.Logger, config *ServiceConfig) TemplateService {
	return newTemplateService(templateRepo, lk, m, log, config)
}

func newTemplateService(templateRepo domain.TemplateRepository, lk locker.Locker, m *metrics.Metrics, log *zap.Logger, config *ServiceConfig) *templateService {
	config = config.withDefaults()
	if lk == nil {
		lk = locker.NewLocal()
	}
	if log == nil {
		log = zap.NewNop()
	}
	s := &templateService{
		templateRepo: templateRepo,
		locker:       lk,
		sf:           &singleflight.Group{},
		metrics:      m,
		logger:       log,
		config:       config,
		now:          func() time.Time { return time.Now().UTC() },
	}
	s.slugs = &slugAllocator{exists: s.slugExists, maxProbe: config.SlugMaxProbe, metrics: m}
	return s
}

func (s *templateService) slugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	_, err := s.templateRepo.FindOne(ctx, domain.TemplateFilter{Slug: slug, ExcludeID: excludeID})
	if errors.Is(err, domain.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *templateService) nameExists(ctx context.Context, name string) (bool, error) {
	_, err := s.templateRepo.FindOne(ctx, domain.TemplateFilter{Name: name})
	if errors.Is(err, domain.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, storageError(err)
	}
	return true, nil
}

func (s *templateService) toDTO(t *domain.Template) *dto.TemplateDTO {
	out := &dto.TemplateDTO{}
	_ = copier.Copy(out, t)
	return out
}

func (s *templateService) load(ctx context.Context, id string) (*domain.Template, error) {
	t, err := s.templateRepo.GetByID(ctx, id)
	if errors.Is(err, domain.ErrRecordNotFound) {
		return nil, code.ErrorTemplateNotFound.WithDetails(id)
	}
	if err != nil {
		return nil, storageError(err)
	}
	return t, nil
}

// mutate runs a read-modify-write on a template, re-reading after revision conflicts
// mutate 对模板执行读-改-写，修订号冲突时重新读取
func (s *templateService) mutate(ctx context.Context, id, method string, apply func(t *domain.Template, now time.Time) (bool, error)) (*domain.Template, error) {
	for attempt := 0; attempt <= s.config.ConflictRetries; attempt++ {
		cur, err := s.load(ctx, id)
		if err != nil {
			return nil, err
		}
		next := cur.Clone()
		changed, err := apply(next, s.now())
		if err != nil {
			return nil, err
		}
		if !changed {
			return cur, nil
		}

		saved, err := s.templateRepo.Save(ctx, next, cur.Revision)
		switch {
		case err == nil:
			return saved, nil
		case errors.Is(err, domain.ErrRevisionMismatch):
			s.metrics.ObserveConflict(entityTemplate)
			s.logger.Debug("template save conflict, retrying",
				zap.String(logger.FieldMethod, method),
				zap.String(logger.FieldTemplateID, id),
				zap.Int(logger.FieldAttempt, attempt+1))
		case errors.Is(err, domain.ErrRecordNotFound):
			return nil, code.ErrorTemplateNotFound.WithDetails(id)
		default:
			return nil, storageError(err)
		}
	}
	return nil, code.ErrorVersionConflict.WithDetails(id)
}

// Create 新增模板
func (s *templateService) Create(ctx context.Context, params *dto.TemplateCreateRequest) (_ *dto.TemplateDTO, err error) {
	defer func() { s.metrics.ObserveOperation(entityTemplate, "create", err) }()

	if err := validateParams(params); err != nil {
		return nil, err
	}
	base := NormalizeSlug(params.Name)
	if base == "" {
		return nil, code.ErrorInvalidSlugSource.WithDetails(params.Name)
	}
	ctx, cancel := withTimeout(ctx, s.config)
	defer cancel()

	unlock, err := s.locker.Lock(ctx, "slug:"+entityTemplate+":"+base)
	if err != nil {
		return nil, storageError(err)
	}
	defer unlock()

	if exists, err := s.nameExists(ctx, params.Name); err != nil {
		return nil, err
	} else if exists {
		return nil, code.ErrorTemplateNameExists.WithDetails(params.Name)
	}

	now := s.now()
	t := &domain.Template{
		Name:           params.Name,
		Description:    params.Description,
		Category:       params.Category,
		Tags:           append([]string(nil), params.Tags...),
		Thumbnail:      params.Thumbnail,
		IsPremium:      params.IsPremium,
		Structure:      params.Structure.Clone(),
		DefaultContent: params.DefaultContent.Clone(),
		Styles:         params.Styles.Clone(),
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	for attempt := 0; attempt < s.config.SlugMaxAttempts; attempt++ {
		slug, err := s.slugs.allocateBase(ctx, base, "")
		if err != nil {
			return nil, err
		}
		t.Slug = slug
		created, err := s.templateRepo.Insert(ctx, t)
		if err == nil {
			s.logger.Info("template created",
				zap.String(logger.FieldTemplateID, created.ID),
				zap.String(logger.FieldSlug, created.Slug))
			return s.toDTO(created), nil
		}
		if !errors.Is(err, domain.ErrDuplicateKey) {
			return nil, storageError(err)
		}
		if exists, err := s.nameExists(ctx, params.Name); err != nil {
			return nil, err
		} else if exists {
			return nil, code.ErrorTemplateNameExists.WithDetails(params.Name)
		}
		s.metrics.ObserveConflict(entityTemplate)
	}
	return nil, code.ErrorSlugExhausted.WithDetails(base)
}

// Get 获取模板详情
func (s *templateService) Get(ctx context.Context, id string) (_ *dto.TemplateDTO, err error) {
	defer func() { s.metrics.ObserveOperation(entityTemplate, "get", err) }()

	ctx, cancel := withTimeout(ctx, s.config)
	defer cancel()

	// the shared load must not inherit any single caller's cancellation
	ch := s.sf.DoChan(id, func() (any, error) {
		lctx, lcancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.OperationTimeout)
		defer lcancel()
		return s.load(lctx, id)
	})
	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, storageError(ctx.Err())
	}
	if res.Err != nil {
		return nil, res.Err
	}
	// shared between coalesced callers
	t := res.Val.(*domain.Template).Clone()

	if err := s.addPopularity(ctx, id, domain.ViewPopularityIncrement); err != nil {
		return nil, err
	}
	t.Popularity += domain.ViewPopularityIncrement
	return s.toDTO(t), nil
}

// List 获取有效模板
func (s *templateService) List(ctx context.Context, params *dto.TemplateListRequest) (_ []*dto.TemplateDTO, err error) {
	defer func() { s.metrics.ObserveOperation(entityTemplate, "list", err) }()

	if params == nil {
		params = &dto.TemplateListRequest{}
	}
	if err := validateParams(params); err != nil {
		return nil, err
	}
	ctx, cancel := withTimeout(ctx, s.config)
	defer cancel()

	sort := domain.Sort{Field: domain.SortByPopularity, Desc: true}
	switch params.SortBy {
	case "usage":
		sort.Field = domain.SortByUsage
	case "rating":
		sort.Field = domain.SortByRating
	case "newest":
		sort.Field = domain.SortByCreatedAt
	}

	active := true
	list, err := s.templateRepo.Find(ctx, domain.TemplateFilter{Category: params.Category, Active: &active}, sort)
	if err != nil {
		return nil, storageError(err)
	}
	out := make([]*dto.TemplateDTO, 0, len(list))
	for _, t := range list {
		out = append(out, s.toDTO(t))
	}
	return out, nil
}

func (s *templateService) addPopularity(ctx context.Context, id string, delta float64) error {
	err := s.templateRepo.AddPopularity(ctx, id, delta)
	if errors.Is(err, domain.ErrRecordNotFound) {
		return code.ErrorTemplateNotFound.WithDetails(id)
	}
	return storageError(err)
}

// RecordView 记录一次浏览
func (s *templateService) RecordView(ctx context.Context, id string) (err error) {
	defer func() { s.metrics.ObserveOperation(entityTemplate, "record_view", err) }()

	ctx, cancel := withTimeout(ctx, s.config)
	defer cancel()
	return s.addPopularity(ctx, id, domain.ViewPopularityIncrement)
}

// Rate 评分
func (s *templateService) Rate(ctx context.Context, id string, rating int) (_ *dto.TemplateDTO, err error) {
	defer func() { s.metrics.ObserveOperation(entityTemplate, "rate", err) }()

	if rating < minRating || rating > maxRating {
		return nil, code.ErrorInvalidRating.WithDetails(strconv.Itoa(rating))
	}
	ctx, cancel := withTimeout(ctx, s.config)
	defer cancel()

	saved, err := s.mutate(ctx, id, "Rate", func(t *domain.Template, now time.Time) (bool, error) {
		t.Rating = t.Rating.Add(rating)
		t.Popularity += float64(rating) * domain.RatingPopularityWeight
		t.UpdatedAt = now
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return s.toDTO(saved), nil
}

// Deactivate 停用模板
func (s *templateService) Deactivate(ctx context.Context, id string) (_ *dto.TemplateDTO, err error) {
	defer func() { s.metrics.ObserveOperation(entityTemplate, "deactivate", err) }()

	ctx, cancel := withTimeout(ctx, s.config)
	defer cancel()

	saved, err := s.mutate(ctx, id, "Deactivate", func(t *domain.Template, now time.Time) (bool, error) {
		if !t.IsActive {
			return false, nil
		}
		t.IsActive = false
		t.UpdatedAt = now
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("template deactivated", zap.String(logger.FieldTemplateID, id))
	return s.toDTO(saved), nil
}
