// Package domain 定义领域模型和接口
package domain

import (
	"bytes"

	"github.com/bytedance/sonic"
)

// Document is an opaque structured document the engines copy or replace wholesale
// Document 不透明的结构化文档，引擎只整体复制或替换
type Document map[string]any

// Clone returns a deep copy
// Clone 返回深拷贝
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	raw, err := sonic.ConfigStd.Marshal(d)
	if err == nil {
		var out Document
		if err = sonic.ConfigStd.Unmarshal(raw, &out); err == nil {
			return out
		}
	}
	// values that cannot round-trip through JSON are copied by reference
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Canonical encodes v as JSON with sorted map keys
// Canonical 将 v 编码为键有序的 JSON
func Canonical(v any) ([]byte, error) {
	return sonic.ConfigStd.Marshal(v)
}

func canonicalEqual(a, b any) bool {
	ra, errA := Canonical(a)
	rb, errB := Canonical(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(ra, rb)
}

// Section one block of a page layout
// Section 页面布局中的一个区块
type Section struct {
	ID        string   `json:"id" yaml:"id"`
	Type      string   `json:"type" yaml:"type"`
	Title     string   `json:"title,omitempty" yaml:"title,omitempty"`
	Order     int      `json:"order" yaml:"order"`
	Required  bool     `json:"required" yaml:"required"`
	Removable bool     `json:"removable" yaml:"removable"`
	Props     Document `json:"props,omitempty" yaml:"props,omitempty"`
}

func cloneSections(in []Section) []Section {
	out := make([]Section, len(in))
	for i, s := range in {
		s.Props = s.Props.Clone()
		out[i] = s
	}
	return out
}

// Content is the body of a portfolio: its section list plus free-form data
// Content 作品集正文：区块列表与自由格式数据
type Content struct {
	Sections []Section `json:"sections" yaml:"sections"`
	Data     Document  `json:"data,omitempty" yaml:"data,omitempty"`
}

// EmptyContent returns content with an empty section list
// EmptyContent 返回区块列表为空的内容
func EmptyContent() Content {
	return Content{Sections: []Section{}}
}

// Clone 返回深拷贝
func (c Content) Clone() Content {
	return Content{Sections: cloneSections(c.Sections), Data: c.Data.Clone()}
}

// Equal compares the canonical JSON form of both contents
// Equal 比较两份内容的规范 JSON 形式
func (c Content) Equal(o Content) bool {
	return canonicalEqual(c.normalized(), o.normalized())
}

func (c Content) normalized() Content {
	if c.Sections == nil {
		c.Sections = []Section{}
	}
	return c
}

// Customizations styling groups of a portfolio
// Customizations 作品集的样式分组
type Customizations struct {
	Colors     Document `json:"colors,omitempty" yaml:"colors,omitempty"`
	Fonts      Document `json:"fonts,omitempty" yaml:"fonts,omitempty"`
	Layout     Document `json:"layout,omitempty" yaml:"layout,omitempty"`
	Animations Document `json:"animations,omitempty" yaml:"animations,omitempty"`
}

// Clone 返回深拷贝
func (c Customizations) Clone() Customizations {
	return Customizations{
		Colors:     c.Colors.Clone(),
		Fonts:      c.Fonts.Clone(),
		Layout:     c.Layout.Clone(),
		Animations: c.Animations.Clone(),
	}
}

// Merge merges every group key by key, keys in patch override, absent keys are kept
// Merge 按键合并每个分组，patch 中的键覆盖原值，缺失的键保留原值
func (c Customizations) Merge(patch Customizations) Customizations {
	return Customizations{
		Colors:     mergeGroup(c.Colors, patch.Colors),
		Fonts:      mergeGroup(c.Fonts, patch.Fonts),
		Layout:     mergeGroup(c.Layout, patch.Layout),
		Animations: mergeGroup(c.Animations, patch.Animations),
	}
}

func mergeGroup(base, patch Document) Document {
	if len(patch) == 0 {
		return base.Clone()
	}
	out := base.Clone()
	if out == nil {
		out = make(Document, len(patch))
	}
	for k, v := range patch.Clone() {
		out[k] = v
	}
	return out
}
