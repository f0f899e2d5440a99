package dao

import (
	"errors"

	"github.com/bytedance/sonic"
	"github.com/haierkeys/folio-lifecycle-service/internal/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// sortColumns whitelists the sortable columns
var sortColumns = map[domain.SortField]string{
	domain.SortByCreatedAt:  "created_at",
	domain.SortByUpdatedAt:  "updated_at",
	domain.SortByPopularity: "popularity",
	domain.SortByUsage:      "usage_count",
	domain.SortByRating:     "rating_average",
}

// orderBy builds the ORDER BY clause, unknown fields fall back to created_at, id breaks ties
// orderBy 构建排序子句，未知字段回退为 created_at，以 id 保证顺序稳定
func orderBy(s domain.Sort, allowed ...domain.SortField) clause.OrderBy {
	column := "created_at"
	for _, f := range allowed {
		if f == s.Field {
			column = sortColumns[f]
			break
		}
	}
	return clause.OrderBy{Columns: []clause.OrderByColumn{
		{Column: clause.Column{Name: column}, Desc: s.Desc},
		{Column: clause.Column{Name: "id"}},
	}}
}

func marshalJSON(v any) (datatypes.JSON, error) {
	raw, err := sonic.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

func unmarshalJSON(raw datatypes.JSON, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return sonic.Unmarshal(raw, v)
}

// translateError maps gorm errors onto the repository sentinels
// translateError 将 gorm 错误映射为仓储哨兵错误
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.ErrRecordNotFound
	case isDuplicateKey(err):
		return domain.ErrDuplicateKey
	}
	return err
}

// missingOrStale decides why a conditional write matched no row
// missingOrStale 判断条件写入未命中任何行的原因
func missingOrStale(tx *gorm.DB, m any, id string) error {
	var n int64
	if err := tx.Model(m).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrRecordNotFound
	}
	return domain.ErrRevisionMismatch
}
