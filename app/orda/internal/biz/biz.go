package biz

import (
	"github.com/go-kratos/kratos/v2/errors"
)

// ErrDatabaseUnavailable 未配置数据库
var ErrDatabaseUnavailable = errors.ServiceUnavailable("DATABASE_UNAVAILABLE", "database is not configured")
