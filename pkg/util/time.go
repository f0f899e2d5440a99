// Package util holds small parsing helpers shared by config loading
// Package util 存放配置加载共用的小型解析工具
package util

import (
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// ParseDuration parses a duration string, accepting a 'd' (day) suffix and bare seconds
// ParseDuration 解析时长字符串，支持 'd'（天）后缀与纯数字秒
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty duration")
	}
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, errors.Wrapf(err, "invalid day duration %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	// 纯数字按秒处理
	if _, err := strconv.Atoi(s); err == nil {
		s += "s"
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid duration %q", s)
	}
	return d, nil
}
