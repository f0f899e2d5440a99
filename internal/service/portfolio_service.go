package service

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/bytedance/sonic"
	"github.com/haierkeys/folio-lifecycle-service/internal/domain"
	"github.com/haierkeys/folio-lifecycle-service/internal/dto"
	"github.com/haierkeys/folio-lifecycle-service/pkg/code"
	"github.com/haierkeys/folio-lifecycle-service/pkg/locker"
	"github.com/haierkeys/folio-lifecycle-service/pkg/logger"
	"github.com/haierkeys/folio-lifecycle-service/pkg/metrics"
	"github.com/jinzhu/copier"
	"github.com/sergi/go-diff/diffmatchpatch"
	"go.uber.org/zap"
)

const (
	entityPortfolio = "portfolio"
	maxTitleLength  = 100
	copySuffix      = " (Copy)"
)

// PortfolioService defines the portfolio lifecycle business service interface
// PortfolioService 定义作品集生命周期业务服务接口
type PortfolioService interface {
	// Create creates a portfolio, optionally seeded from an active template
	// Create 创建作品集，可选择基于有效模板初始化
	Create(ctx context.Context, params *dto.PortfolioCreateRequest) (*dto.PortfolioDTO, error)

	// List returns the portfolios of an owner, most recently updated first
	// List 获取所有者的作品集，按更新时间倒序
	List(ctx context.Context, ownerID string) ([]*dto.PortfolioDTO, error)

	// Update applies a partial patch, archiving the previous content when it changes
	// Update 应用部分更新，内容变化时归档修改前的内容
	Update(ctx context.Context, id, requesterID string, params *dto.PortfolioUpdateRequest) (*dto.PortfolioDTO, error)

	// TogglePublish flips the publish state
	// TogglePublish 切换发布状态
	TogglePublish(ctx context.Context, id, requesterID string) (*dto.PublishResult, error)

	// Delete 永久删除作品集
	Delete(ctx context.Context, id, requesterID string) error

	// Duplicate creates an unpublished copy owned by the same user
	// Duplicate 创建同一所有者的未发布副本
	Duplicate(ctx context.Context, id, requesterID string) (*dto.PortfolioDTO, error)

	// Restore brings back the content and customizations of a history version
	// Restore 恢复历史版本的内容与样式
	Restore(ctx context.Context, id, requesterID string, version int64) (*dto.PortfolioDTO, error)

	// History lists archived snapshots, newest first, each diffed against the current content
	// History 列出历史快照（从新到旧），并与当前内容做差异比较
	History(ctx context.Context, id, requesterID string) ([]*dto.PortfolioHistoryDTO, error)

	// ViewPublic returns a published portfolio by slug and counts the view
	// ViewPublic 通过别名获取已发布的作品集并计入访问量
	ViewPublic(ctx context.Context, slug string) (*dto.PortfolioDTO, error)

	// ViewByID returns a portfolio by id, viewerID may be empty for anonymous visitors
	// ViewByID 通过 ID 获取作品集，匿名访问者 viewerID 为空
	ViewByID(ctx context.Context, id, viewerID string) (*dto.PortfolioDTO, error)
}

// portfolioService implementation of PortfolioService interface
// portfolioService 实现 PortfolioService 接口
type portfolioService struct {
	portfolioRepo domain.PortfolioRepository // Portfolio repository // 作品集仓储
	templateRepo  domain.TemplateRepository  // Template repository // 模板仓储
	slugs         *slugAllocator             // Slug allocator // 别名分配器
	locker        locker.Locker              // Per-slug lock // 别名锁
	metrics       *metrics.Metrics           // Counters // 计数器
	logger        *zap.Logger                // Logger // 日志对象
	config        *ServiceConfig             // Service configuration // 服务配置
	now           func() time.Time
}

// NewPortfolioService creates PortfolioService instance
// NewPortfolioService 创建 PortfolioService 实例
func NewPortfolioService(portfolioRepo domain.PortfolioRepository, templateRepo domain.TemplateRepository, lk locker.Locker, m *metrics.Metrics, log *zap.Logger, config *ServiceConfig) PortfolioService {
	return newPortfolioService(portfolioRepo, templateRepo, lk, m, log, config)
}

func newPortfolioService(portfolioRepo domain.PortfolioRepository, templateRepo domain.TemplateRepository, lk locker.Locker, m *metrics.Metrics, log *zap.Logger, config *ServiceConfig) *portfolioService {
	config = config.withDefaults()
	if lk == nil {
		lk = locker.NewLocal()
	}
	if log == nil {
		log = zap.NewNop()
	}
	s := &portfolioService{
		portfolioRepo: portfolioRepo,
		templateRepo:  templateRepo,
		locker:        lk,
		metrics:       m,
		logger:        log,
		config:        config,
		now:           func() time.Time { return time.Now().UTC() },
	}
	s.slugs = &slugAllocator{exists: s.slugExists, maxProbe: config.SlugMaxProbe, metrics: m}
	return s
}

func (s *portfolioService) slugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	_, err := s.portfolioRepo.FindOne(ctx, domain.PortfolioFilter{Slug: slug, ExcludeID: excludeID})
	if errors.Is(err, domain.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *portfolioService) lockSlug(ctx context.Context, base string) (locker.Unlock, error) {
	unlock, err := s.locker.Lock(ctx, "slug:"+entityPortfolio+":"+base)
	if err != nil {
		return nil, storageError(err)
	}
	return unlock, nil
}

func (s *portfolioService) toDTO(p *domain.Portfolio) *dto.PortfolioDTO {
	out := &dto.PortfolioDTO{}
	_ = copier.Copy(out, p)
	out.HistoryCount = len(p.History)
	if p.IsPublished {
		out.PublicURL = publicURL(s.config.PublicURLPrefix, p.Slug)
	}
	return out
}

func (s *portfolioService) load(ctx context.Context, id string) (*domain.Portfolio, error) {
	p, err := s.portfolioRepo.GetByID(ctx, id)
	if errors.Is(err, domain.ErrRecordNotFound) {
		return nil, code.ErrorPortfolioNotFound.WithDetails(id)
	}
	if err != nil {
		return nil, storageError(err)
	}
	return p, nil
}

func (s *portfolioService) loadOwned(ctx context.Context, id, requesterID string) (*domain.Portfolio, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if requesterID == "" || p.OwnerID != requesterID {
		return nil, code.ErrorPortfolioForbidden
	}
	return p, nil
}

// mutate runs a read-modify-write on an owned portfolio, re-reading after revision conflicts
// mutate 对所有者的作品集执行读-改-写，修订号冲突时重新读取
func (s *portfolioService) mutate(ctx context.Context, id, requesterID, method string, apply func(p *domain.Portfolio, now time.Time) error) (*domain.Portfolio, error) {
	for attempt := 0; attempt <= s.config.ConflictRetries; attempt++ {
		cur, err := s.loadOwned(ctx, id, requesterID)
		if err != nil {
			return nil, err
		}
		next := cur.Clone()
		if err := apply(next, s.now()); err != nil {
			return nil, err
		}

		saved, err := s.portfolioRepo.Save(ctx, next, cur.Revision)
		switch {
		case err == nil:
			return saved, nil
		case errors.Is(err, domain.ErrRevisionMismatch), errors.Is(err, domain.ErrDuplicateKey):
			s.metrics.ObserveConflict(entityPortfolio)
			s.logger.Warn("portfolio save conflict, retrying",
				zap.String(logger.FieldMethod, method),
				zap.String(logger.FieldPortfolioID, id),
				zap.Int64(logger.FieldRevision, cur.Revision),
				zap.Int(logger.FieldAttempt, attempt+1),
				zap.Error(err))
		case errors.Is(err, domain.ErrRecordNotFound):
			return nil, code.ErrorPortfolioNotFound.WithDetails(id)
		default:
			return nil, storageError(err)
		}
	}
	return nil, code.ErrorVersionConflict.WithDetails(id)
}

// insertWithSlug inserts p under the first free slug for its title while holding the base slug lock
// insertWithSlug 持有基础别名锁，以标题对应的第一个可用别名插入 p
func (s *portfolioService) insertWithSlug(ctx context.Context, p *domain.Portfolio) (*domain.Portfolio, error) {
	base := NormalizeSlug(p.Title)
	if base == "" {
		return nil, code.ErrorInvalidSlugSource.WithDetails(p.Title)
	}
	unlock, err := s.lockSlug(ctx, base)
	if err != nil {
		return nil, err
	}
	defer unlock()

	for attempt := 0; attempt < s.config.SlugMaxAttempts; attempt++ {
		slug, err := s.slugs.allocateBase(ctx, base, "")
		if err != nil {
			return nil, err
		}
		p.Slug = slug
		created, err := s.portfolioRepo.Insert(ctx, p)
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, domain.ErrDuplicateKey) {
			return nil, storageError(err)
		}
		s.metrics.ObserveConflict(entityPortfolio)
		s.logger.Warn("portfolio slug taken concurrently, reallocating",
			zap.String(logger.FieldSlug, slug),
			zap.Int(logger.FieldAttempt, attempt+1))
	}
	return nil, code.ErrorSlugExhausted.WithDetails(base)
}

// Create 创建作品集
func (s *portfolioService) Create(ctx context.Context, params *dto.PortfolioCreateRequest) (_ *dto.PortfolioDTO, err error) {
	defer func() { s.metrics.ObserveOperation(entityPortfolio, "create", err) }()

	if err := validateParams(params); err != nil {
		return nil, err
	}
	ctx, cancel := withTimeout(ctx, s.config)
	defer cancel()

	var tpl *domain.Template
	if params.TemplateID != "" {
		tpl, err = s.templateRepo.GetByID(ctx, params.TemplateID)
		if errors.Is(err, domain.ErrRecordNotFound) || (err == nil && !tpl.IsActive) {
			return nil, code.ErrorTemplateNotFound.WithDetails(params.TemplateID)
		}
		if err != nil {
			return nil, storageError(err)
		}
	}

	now := s.now()
	p := &domain.Portfolio{
		OwnerID:      params.OwnerID,
		Title:        params.Title,
		Content:      domain.EmptyContent(),
		Version:      1,
		History:      domain.History{},
		CreatedAt:    now,
		UpdatedAt:    now,
		LastEditedAt: now,
	}
	if tpl != nil {
		p.TemplateID = tpl.ID
		p.Content = tpl.SeedContent()
		p.Customizations = tpl.Styles.Clone()
	}

	created, err := s.insertWithSlug(ctx, p)
	if err != nil {
		return nil, err
	}

	if tpl != nil {
		if err := s.templateRepo.IncrementUsage(ctx, tpl.ID); err != nil {
			s.rollbackCreate(ctx, created, err)
			if errors.Is(err, domain.ErrRecordNotFound) {
				return nil, code.ErrorTemplateNotFound.WithDetails(tpl.ID)
			}
			return nil, storageError(err)
		}
	}

	s.logger.Info("portfolio created",
		zap.String(logger.FieldPortfolioID, created.ID),
		zap.String(logger.FieldOwnerID, created.OwnerID),
		zap.String(logger.FieldTemplateID, created.TemplateID),
		zap.String(logger.FieldSlug, created.Slug))
	return s.toDTO(created), nil
}

// rollbackCreate removes a portfolio whose template usage could not be recorded
// rollbackCreate 删除无法记录模板使用次数的作品集
func (s *portfolioService) rollbackCreate(ctx context.Context, created *domain.Portfolio, cause error) {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.OperationTimeout)
	defer cancel()
	if err := s.portfolioRepo.Delete(rctx, created.ID, created.Revision); err != nil {
		s.logger.Error("portfolio create rollback failed",
			zap.String(logger.FieldPortfolioID, created.ID),
			zap.NamedError("cause", cause),
			zap.Error(err))
		return
	}
	s.logger.Warn("portfolio create rolled back",
		zap.String(logger.FieldPortfolioID, created.ID),
		zap.NamedError("cause", cause))
}

// List 获取所有者的作品集
func (s *portfolioService) List(ctx context.Context, ownerID string) (_ []*dto.PortfolioDTO, err error) {
	defer func() { s.metrics.ObserveOperation(entityPortfolio, "list", err) }()

	if ownerID == "" {
		return nil, code.ErrorInvalidParams.WithDetails("ownerId is required")
	}
	ctx, cancel := withTimeout(ctx, s.config)
	defer cancel()

	list, err := s.portfolioRepo.Find(ctx, domain.PortfolioFilter{OwnerID: ownerID}, domain.Sort{Field: domain.SortByUpdatedAt, Desc: true})
	if err != nil {
		return nil, storageError(err)
	}
	out := make([]*dto.PortfolioDTO, 0, len(list))
	for _, p := range list {
		out = append(out, s.toDTO(p))
	}
	return out, nil
}

// Update 更新作品集
func (s *portfolioService) Update(ctx context.Context, id, requesterID string, params *dto.PortfolioUpdateRequest) (_ *dto.PortfolioDTO, err error) {
	defer func() { s.metrics.ObserveOperation(entityPortfolio, "update", err) }()

	if err := validateParams(params); err != nil {
		return nil, err
	}
	ctx, cancel := withTimeout(ctx, s.config)
	defer cancel()

	if params.Title != nil {
		base := NormalizeSlug(*params.Title)
		if base == "" {
			return nil, code.ErrorInvalidSlugSource.WithDetails(*params.Title)
		}
		// non-owners are rejected before they can hold the slug lock
		if _, err := s.loadOwned(ctx, id, requesterID); err != nil {
			return nil, err
		}
		unlock, err := s.lockSlug(ctx, base)
		if err != nil {
			return nil, err
		}
		defer unlock()
	}

	saved, err := s.mutate(ctx, id, requesterID, "Update", func(p *domain.Portfolio, now time.Time) error {
		if params.Title != nil {
			slug, err := s.slugs.Allocate(ctx, *params.Title, p.ID)
			if err != nil {
				return err
			}
			p.Title = *params.Title
			p.Slug = slug
		}
		if params.Content != nil {
			if !p.Content.Equal(*params.Content) {
				p.History = p.History.Push(domain.HistorySnapshot{
					Version:        p.Version,
					Content:        p.Content,
					Customizations: p.Customizations,
					SavedAt:        now,
				})
				p.Version++
			}
			p.Content = params.Content.Clone()
		}
		if params.Customizations != nil {
			p.Customizations = p.Customizations.Merge(*params.Customizations)
		}
		if params.SEOSettings != nil {
			p.SEOSettings = params.SEOSettings.Clone()
		}
		p.UpdatedAt = now
		p.LastEditedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.toDTO(saved), nil
}

// TogglePublish 切换发布状态
func (s *portfolioService) TogglePublish(ctx context.Context, id, requesterID string) (_ *dto.PublishResult, err error) {
	defer func() { s.metrics.ObserveOperation(entityPortfolio, "toggle_publish", err) }()

	ctx, cancel := withTimeout(ctx, s.config)
	defer cancel()

	saved, err := s.mutate(ctx, id, requesterID, "TogglePublish", func(p *domain.Portfolio, now time.Time) error {
		p.IsPublished = !p.IsPublished
		if p.IsPublished {
			at := now
			p.PublishedAt = &at
		} else {
			p.PublishedAt = nil
		}
		p.UpdatedAt = now
		p.LastEditedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("portfolio publish state changed",
		zap.String(logger.FieldPortfolioID, saved.ID),
		zap.Bool("isPublished", saved.IsPublished))

	res := &dto.PublishResult{IsPublished: saved.IsPublished, PublishedAt: saved.PublishedAt}
	if saved.IsPublished {
		res.PublicURL = publicURL(s.config.PublicURLPrefix, saved.Slug)
	}
	return res, nil
}

// Delete 删除作品集
func (s *portfolioService) Delete(ctx context.Context, id, requesterID string) (err error) {
	defer func() { s.metrics.ObserveOperation(entityPortfolio, "delete", err) }()

	ctx, cancel := withTimeout(ctx, s.config)
	defer cancel()

	for attempt := 0; attempt <= s.config.ConflictRetries; attempt++ {
		cur, err := s.loadOwned(ctx, id, requesterID)
		if err != nil {
			return err
		}
		err = s.portfolioRepo.Delete(ctx, id, cur.Revision)
		switch {
		case err == nil:
			s.logger.Info("portfolio deleted", zap.String(logger.FieldPortfolioID, id))
			return nil
		case errors.Is(err, domain.ErrRevisionMismatch):
			s.metrics.ObserveConflict(entityPortfolio)
		case errors.Is(err, domain.ErrRecordNotFound):
			return code.ErrorPortfolioNotFound.WithDetails(id)
		default:
			return storageError(err)
		}
	}
	return code.ErrorVersionConflict.WithDetails(id)
}

// Duplicate 复制作品集
func (s *portfolioService) Duplicate(ctx context.Context, id, requesterID string) (_ *dto.PortfolioDTO, err error) {
	defer func() { s.metrics.ObserveOperation(entityPortfolio, "duplicate", err) }()

	ctx, cancel := withTimeout(ctx, s.config)
	defer cancel()

	src, err := s.loadOwned(ctx, id, requesterID)
	if err != nil {
		return nil, err
	}
	title := src.Title + copySuffix
	if utf8.RuneCountInString(title) > maxTitleLength {
		return nil, code.ErrorInvalidTitle.WithDetails(title)
	}

	dup := &domain.Portfolio{}
	if err := copier.Copy(dup, src); err != nil {
		return nil, code.ErrorServerInternal.WithDetails(err.Error())
	}
	now := s.now()
	dup.ID = ""
	dup.Title = title
	dup.Content = src.Content.Clone()
	dup.Customizations = src.Customizations.Clone()
	dup.SEOSettings = src.SEOSettings.Clone()
	dup.IsPublished = false
	dup.PublishedAt = nil
	dup.Views = 0
	dup.Version = 1
	dup.History = domain.History{}
	dup.Revision = 0
	dup.CreatedAt = now
	dup.UpdatedAt = now
	dup.LastEditedAt = now

	created, err := s.insertWithSlug(ctx, dup)
	if err != nil {
		return nil, err
	}
	s.logger.Info("portfolio duplicated",
		zap.String(logger.FieldPortfolioID, created.ID),
		zap.String("sourceId", src.ID),
		zap.String(logger.FieldSlug, created.Slug))
	return s.toDTO(created), nil
}

// Restore 从历史版本恢复
func (s *portfolioService) Restore(ctx context.Context, id, requesterID string, version int64) (_ *dto.PortfolioDTO, err error) {
	defer func() { s.metrics.ObserveOperation(entityPortfolio, "restore", err) }()

	ctx, cancel := withTimeout(ctx, s.config)
	defer cancel()

	saved, err := s.mutate(ctx, id, requesterID, "Restore", func(p *domain.Portfolio, now time.Time) error {
		snap, ok := p.History.Find(version)
		if !ok {
			return code.ErrorHistoryVersionNotFound.WithDetails(id)
		}
		p.Content = snap.Content.Clone()
		p.Customizations = snap.Customizations.Clone()
		p.UpdatedAt = now
		p.LastEditedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("portfolio restored",
		zap.String(logger.FieldPortfolioID, id),
		zap.Int64(logger.FieldVersion, version))
	return s.toDTO(saved), nil
}

// History 获取历史快照列表
func (s *portfolioService) History(ctx context.Context, id, requesterID string) (_ []*dto.PortfolioHistoryDTO, err error) {
	defer func() { s.metrics.ObserveOperation(entityPortfolio, "history", err) }()

	ctx, cancel := withTimeout(ctx, s.config)
	defer cancel()

	p, err := s.loadOwned(ctx, id, requesterID)
	if err != nil {
		return nil, err
	}

	current, err := prettyJSON(p.Content)
	if err != nil {
		return nil, code.ErrorServerInternal.WithDetails(err.Error())
	}
	dmp := diffmatchpatch.New()
	out := make([]*dto.PortfolioHistoryDTO, 0, len(p.History))
	for i := len(p.History) - 1; i >= 0; i-- {
		snap := p.History[i]
		old, err := prettyJSON(snap.Content)
		if err != nil {
			return nil, code.ErrorServerInternal.WithDetails(err.Error())
		}
		diffs := dmp.DiffMain(old, current, false)
		out = append(out, &dto.PortfolioHistoryDTO{
			Version:        snap.Version,
			SavedAt:        snap.SavedAt,
			Content:        snap.Content,
			Customizations: snap.Customizations,
			Diffs:          dmp.DiffCleanupSemantic(diffs),
		})
	}
	return out, nil
}

func prettyJSON(v any) (string, error) {
	raw, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// ViewPublic 公开访问
func (s *portfolioService) ViewPublic(ctx context.Context, slug string) (_ *dto.PortfolioDTO, err error) {
	defer func() { s.metrics.ObserveOperation(entityPortfolio, "view_public", err) }()

	if slug == "" {
		return nil, code.ErrorPortfolioNotFound
	}
	ctx, cancel := withTimeout(ctx, s.config)
	defer cancel()

	published := true
	p, err := s.portfolioRepo.FindOne(ctx, domain.PortfolioFilter{Slug: slug, Published: &published})
	if errors.Is(err, domain.ErrRecordNotFound) {
		return nil, code.ErrorPortfolioNotFound.WithDetails(slug)
	}
	if err != nil {
		return nil, storageError(err)
	}
	if err := s.countView(ctx, p); err != nil {
		return nil, err
	}
	return s.toDTO(p), nil
}

// ViewByID 按 ID 访问
func (s *portfolioService) ViewByID(ctx context.Context, id, viewerID string) (_ *dto.PortfolioDTO, err error) {
	defer func() { s.metrics.ObserveOperation(entityPortfolio, "view_by_id", err) }()

	ctx, cancel := withTimeout(ctx, s.config)
	defer cancel()

	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	isOwner := viewerID != "" && viewerID == p.OwnerID
	if !p.IsPublished && !isOwner {
		return nil, code.ErrorPortfolioNotPublished
	}
	if !isOwner {
		if err := s.countView(ctx, p); err != nil {
			return nil, err
		}
	}
	return s.toDTO(p), nil
}

func (s *portfolioService) countView(ctx context.Context, p *domain.Portfolio) error {
	err := s.portfolioRepo.IncrementViews(ctx, p.ID)
	if errors.Is(err, domain.ErrRecordNotFound) {
		return code.ErrorPortfolioNotFound.WithDetails(p.ID)
	}
	if err != nil {
		return storageError(err)
	}
	p.Views++
	return nil
}
