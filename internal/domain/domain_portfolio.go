package domain

import "time"

// HistoryCapacity maximum number of snapshots a portfolio keeps
// HistoryCapacity 作品集保留的最大历史快照数
const HistoryCapacity = 10

// HistorySnapshot an archived pre-change state of a portfolio
// HistorySnapshot 作品集修改前的归档状态
type HistorySnapshot struct {
	Version        int64          `json:"version"`
	Content        Content        `json:"content"`
	Customizations Customizations `json:"customizations"`
	SavedAt        time.Time      `json:"savedAt"`
}

// History snapshots ordered oldest first, never longer than HistoryCapacity
// History 按时间从旧到新排列的快照，长度不超过 HistoryCapacity
type History []HistorySnapshot

// Push appends a snapshot and evicts the oldest entries beyond capacity
// Push 追加快照，超出容量时淘汰最旧的记录
func (h History) Push(s HistorySnapshot) History {
	out := make(History, 0, HistoryCapacity)
	out = append(out, h...)
	out = append(out, s)
	if over := len(out) - HistoryCapacity; over > 0 {
		out = append(History(nil), out[over:]...)
	}
	return out
}

// Find looks up a snapshot by exact version
// Find 按版本号精确查找快照
func (h History) Find(version int64) (HistorySnapshot, bool) {
	for _, s := range h {
		if s.Version == version {
			return s, true
		}
	}
	return HistorySnapshot{}, false
}

// Clone 返回深拷贝
func (h History) Clone() History {
	out := make(History, len(h))
	for i, s := range h {
		out[i] = HistorySnapshot{
			Version:        s.Version,
			Content:        s.Content.Clone(),
			Customizations: s.Customizations.Clone(),
			SavedAt:        s.SavedAt,
		}
	}
	return out
}

// Portfolio 作品集领域模型
type Portfolio struct {
	ID             string
	Slug           string
	OwnerID        string
	TemplateID     string // empty when created without a template // 未使用模板创建时为空
	Title          string
	Content        Content
	Customizations Customizations
	SEOSettings    Document
	IsPublished    bool
	PublishedAt    *time.Time
	Views          int64
	Version        int64
	History        History
	Revision       int64 // optimistic concurrency token // 乐观并发令牌
	CreatedAt      time.Time
	UpdatedAt      time.Time
	LastEditedAt   time.Time
}

// Clone 返回深拷贝
func (p *Portfolio) Clone() *Portfolio {
	if p == nil {
		return nil
	}
	c := *p
	c.Content = p.Content.Clone()
	c.Customizations = p.Customizations.Clone()
	c.SEOSettings = p.SEOSettings.Clone()
	c.History = p.History.Clone()
	if p.PublishedAt != nil {
		t := *p.PublishedAt
		c.PublishedAt = &t
	}
	return &c
}
