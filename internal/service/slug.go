package service

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/haierkeys/folio-lifecycle-service/pkg/code"
	"github.com/haierkeys/folio-lifecycle-service/pkg/metrics"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var nonSlugRun = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeSlug lowercases text, collapses every run outside [a-z0-9] to one hyphen and trims hyphens
// NormalizeSlug 转为小写，将 [a-z0-9] 以外的连续字符替换为单个连字符并去除首尾连字符
func NormalizeSlug(text string) string {
	// a Caser keeps state, one per call
	s := cases.Lower(language.Und).String(text)
	s = nonSlugRun.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// slugExistsFunc reports whether slug is used by a document other than excludeID
// slugExistsFunc 判断别名是否已被 excludeID 以外的文档使用
type slugExistsFunc func(ctx context.Context, slug, excludeID string) (bool, error)

// slugAllocator probes base, base-1, base-2 ... until a free slug is found
// slugAllocator 依次探测 base、base-1、base-2 ... 直到找到未使用的别名
type slugAllocator struct {
	exists   slugExistsFunc
	maxProbe int
	metrics  *metrics.Metrics
}

// Allocate derives a slug from text, excludeID is the document being renamed in place
// Allocate 从文本生成别名，excludeID 为原地改名的文档
func (a *slugAllocator) Allocate(ctx context.Context, text, excludeID string) (string, error) {
	base := NormalizeSlug(text)
	if base == "" {
		return "", code.ErrorInvalidSlugSource.WithDetails(text)
	}
	return a.allocateBase(ctx, base, excludeID)
}

func (a *slugAllocator) allocateBase(ctx context.Context, base, excludeID string) (string, error) {
	for n := 0; n <= a.maxProbe; n++ {
		candidate := base
		if n > 0 {
			candidate = base + "-" + strconv.Itoa(n)
		}
		a.metrics.ObserveSlugProbe()
		taken, err := a.exists(ctx, candidate, excludeID)
		if err != nil {
			return "", storageError(err)
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", code.ErrorSlugExhausted.WithDetails(base)
}
