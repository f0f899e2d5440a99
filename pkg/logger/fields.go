package logger

// 统一的日志字段命名常量
// 用于确保整个项目中日志字段命名的一致性，便于日志查询和分析
const (
	// FieldOwnerID 所有者 ID 字段
	FieldOwnerID = "ownerId"

	// FieldViewerID 访问者 ID 字段
	FieldViewerID = "viewerId"

	// FieldPortfolioID 作品集 ID 字段
	FieldPortfolioID = "portfolioId"

	// FieldTemplateID 模板 ID 字段
	FieldTemplateID = "templateId"

	// FieldSlug 别名字段
	FieldSlug = "slug"

	// FieldVersion 内容版本字段
	FieldVersion = "version"

	// FieldRevision 并发修订号字段
	FieldRevision = "revision"

	// FieldAttempt 重试次数字段
	FieldAttempt = "attempt"

	// FieldMethod 方法名称字段
	FieldMethod = "method"

	// FieldDuration 耗时字段
	FieldDuration = "duration"

	// FieldCollection 集合名称字段
	FieldCollection = "collection"

	// FieldError 错误信息字段
	FieldError = "error"
)
