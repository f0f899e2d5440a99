package domain

import "time"

// Popularity adjustments
// 热度调整系数
const (
	ViewPopularityIncrement = 0.1
	RatingPopularityWeight  = 0.2
)

// Structure the ordered section layout a template hands to new portfolios
// Structure 模板提供给新作品集的有序区块布局
type Structure struct {
	Sections []Section `json:"sections" yaml:"sections"`
}

// Clone 返回深拷贝
func (s Structure) Clone() Structure {
	return Structure{Sections: cloneSections(s.Sections)}
}

// Rating running mean of all ratings received
// Rating 所有评分的滑动平均值
type Rating struct {
	Average float64 `json:"average"`
	Count   int64   `json:"count"`
}

// Add folds one more rating into the running mean
// Add 将一次新评分计入滑动平均值
func (r Rating) Add(value int) Rating {
	return Rating{
		Average: (r.Average*float64(r.Count) + float64(value)) / float64(r.Count+1),
		Count:   r.Count + 1,
	}
}

// Template 模板领域模型
type Template struct {
	ID             string
	Name           string
	Slug           string
	Description    string
	Category       string
	Tags           []string
	Thumbnail      string
	IsPremium      bool
	Structure      Structure
	DefaultContent Document
	Styles         Customizations
	Popularity     float64
	UsageCount     int64
	Rating         Rating
	IsActive       bool
	Revision       int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Clone 返回深拷贝
func (t *Template) Clone() *Template {
	if t == nil {
		return nil
	}
	c := *t
	c.Tags = append([]string(nil), t.Tags...)
	c.Structure = t.Structure.Clone()
	c.DefaultContent = t.DefaultContent.Clone()
	c.Styles = t.Styles.Clone()
	return &c
}

// SeedContent builds the initial content of a portfolio created from this template
// SeedContent 构建基于此模板创建的作品集的初始内容
func (t *Template) SeedContent() Content {
	return Content{
		Sections: cloneSections(t.Structure.Sections),
		Data:     t.DefaultContent.Clone(),
	}
}
