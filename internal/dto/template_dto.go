package dto

import (
	"time"

	"github.com/haierkeys/folio-lifecycle-service/internal/domain"
)

// TemplateDTO Template data transfer object
// TemplateDTO 模板数据传输对象
type TemplateDTO struct {
	ID             string                `json:"id"`
	Name           string                `json:"name"`
	Slug           string                `json:"slug"`
	Description    string                `json:"description,omitempty"`
	Category       string                `json:"category,omitempty"`
	Tags           []string              `json:"tags,omitempty"`
	Thumbnail      string                `json:"thumbnail,omitempty"`
	IsPremium      bool                  `json:"isPremium"`
	Structure      domain.Structure      `json:"structure"`
	DefaultContent domain.Document       `json:"defaultContent,omitempty"`
	Styles         domain.Customizations `json:"styles"`
	Popularity     float64               `json:"popularity"`
	UsageCount     int64                 `json:"usageCount"`
	Rating         domain.Rating         `json:"rating"`
	IsActive       bool                  `json:"isActive"`
	CreatedAt      time.Time             `json:"createdAt"`
	UpdatedAt      time.Time             `json:"updatedAt"`
}

// TemplateCreateRequest Catalog entry to create, also the YAML import format
// TemplateCreateRequest 新建模板参数，同时也是 YAML 导入格式
type TemplateCreateRequest struct {
	Name           string                `json:"name" yaml:"name" validate:"required,max=100"`
	Description    string                `json:"description" yaml:"description" validate:"max=1000"`
	Category       string                `json:"category" yaml:"category" validate:"max=50"`
	Tags           []string              `json:"tags" yaml:"tags" validate:"max=20,dive,max=30"`
	Thumbnail      string                `json:"thumbnail" yaml:"thumbnail" validate:"omitempty,url"`
	IsPremium      bool                  `json:"isPremium" yaml:"isPremium"`
	Structure      domain.Structure      `json:"structure" yaml:"structure"`
	DefaultContent domain.Document       `json:"defaultContent" yaml:"defaultContent"`
	Styles         domain.Customizations `json:"styles" yaml:"styles"`
}

// TemplateListRequest Catalog listing parameters
// TemplateListRequest 模板目录查询参数
type TemplateListRequest struct {
	Category string `json:"category" form:"category"`
	SortBy   string `json:"sortBy" form:"sortBy" validate:"omitempty,oneof=popularity usage rating newest"`
}
