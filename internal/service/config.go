// Package service implements the business logic layer
// Package service 实现业务逻辑层
package service

import "time"

// ServiceConfig service layer configuration
// ServiceConfig 服务层配置
type ServiceConfig struct {
	PublicURLPrefix  string        // Prefix of the public address, the slug is appended // 公开地址前缀，后接别名
	OperationTimeout time.Duration // Upper bound for one engine call // 单次引擎调用的超时上限
	ConflictRetries  int           // Re-runs of a read-modify-write after a revision conflict // 修订号冲突后的重试次数
	SlugMaxAttempts  int           // Inserts tried when a slug is taken concurrently // 别名被并发占用时的插入尝试次数
	SlugMaxProbe     int           // Highest numeric suffix probed // 探测的最大数字后缀
}

// DefaultServiceConfig returns the default configuration
// DefaultServiceConfig 返回默认配置
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		PublicURLPrefix:  "http://localhost:3000/p/",
		OperationTimeout: 10 * time.Second,
		ConflictRetries:  5,
		SlugMaxAttempts:  5,
		SlugMaxProbe:     1000,
	}
}

func (c *ServiceConfig) withDefaults() *ServiceConfig {
	d := DefaultServiceConfig()
	if c == nil {
		return &d
	}
	out := *c
	if out.PublicURLPrefix == "" {
		out.PublicURLPrefix = d.PublicURLPrefix
	}
	if out.OperationTimeout <= 0 {
		out.OperationTimeout = d.OperationTimeout
	}
	if out.ConflictRetries < 0 {
		out.ConflictRetries = 0
	}
	if out.SlugMaxAttempts <= 0 {
		out.SlugMaxAttempts = d.SlugMaxAttempts
	}
	if out.SlugMaxProbe <= 0 {
		out.SlugMaxProbe = d.SlugMaxProbe
	}
	return &out
}
