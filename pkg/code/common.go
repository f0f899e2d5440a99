package code

var (
	ErrorServerInternal = NewError(500, KindInternal, lang{en: "Internal server error", zh_cn: "服务器内部错误"})

	// 参数
	ErrorInvalidParams     = NewError(400, KindInvalidInput, lang{en: "Invalid parameters", zh_cn: "参数错误"})
	ErrorInvalidTitle      = NewError(401, KindInvalidInput, lang{en: "Title must be between 1 and 100 characters", zh_cn: "标题长度必须在 1 到 100 个字符之间"})
	ErrorInvalidSlugSource = NewError(402, KindInvalidInput, lang{en: "Text does not contain any slug characters", zh_cn: "文本中不包含可用于生成别名的字符"})
	ErrorInvalidRating     = NewError(403, KindInvalidInput, lang{en: "Rating must be an integer between 1 and 5", zh_cn: "评分必须是 1 到 5 之间的整数"})

	// 作品集
	ErrorPortfolioNotFound      = NewError(404, KindNotFound, lang{en: "Portfolio not found", zh_cn: "作品集不存在"})
	ErrorPortfolioForbidden     = NewError(405, KindForbidden, lang{en: "You do not own this portfolio", zh_cn: "您不是该作品集的所有者"})
	ErrorPortfolioNotPublished  = NewError(406, KindForbidden, lang{en: "Portfolio is not published", zh_cn: "作品集尚未发布"})
	ErrorHistoryVersionNotFound = NewError(407, KindNotFound, lang{en: "History version not found", zh_cn: "历史版本不存在"})

	// 模板
	ErrorTemplateNotFound   = NewError(410, KindNotFound, lang{en: "Template not found", zh_cn: "模板不存在"})
	ErrorTemplateNameExists = NewError(411, KindConflict, lang{en: "Template name already exists", zh_cn: "模板名称已存在"})

	// 并发
	ErrorVersionConflict = NewError(420, KindConflict, lang{en: "Document was modified concurrently, please retry", zh_cn: "文档已被并发修改，请重试"})
	ErrorSlugExhausted   = NewError(421, KindConflict, lang{en: "Could not allocate a unique slug, please retry", zh_cn: "无法分配唯一别名，请重试"})

	// 存储
	ErrorStorageUnavailable = NewError(430, KindStorageUnavailable, lang{en: "Storage is temporarily unavailable", zh_cn: "存储暂时不可用"})
	ErrorStorageTimeout     = NewError(431, KindStorageUnavailable, lang{en: "Storage operation timed out", zh_cn: "存储操作超时"})
)
