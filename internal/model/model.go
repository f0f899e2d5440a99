// Package model 定义数据模型
package model

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// AutoMigrate migrates the table registered under key
// AutoMigrate 迁移 key 对应的数据表
func AutoMigrate(db *gorm.DB, key string) error {
	switch key {

	case "Portfolio":
		return db.AutoMigrate(Portfolio{})

	case "Template":
		return db.AutoMigrate(Template{})
	}
	return errors.Errorf("unknown model %q", key)
}

// AutoMigrateAll 迁移全部数据表
func AutoMigrateAll(db *gorm.DB) error {
	for _, key := range []string{"Template", "Portfolio"} {
		if err := AutoMigrate(db, key); err != nil {
			return errors.Wrapf(err, "auto migrate %s", key)
		}
	}
	return nil
}
