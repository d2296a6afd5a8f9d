package postgres

import (
	"context"
	"fmt"

	gormLogger "gorm.io/gorm/logger"
)

const defaultMaxLoggedParamLength = 256

// truncatingParamsLogger filters oversized SQL parameters before GORM prints SQL logs.
type truncatingParamsLogger struct {
	gormLogger.Interface
	maxLoggedParamLength int
}

// ParamsFilter truncates oversized parameter values to keep SQL logs concise.
func (l *truncatingParamsLogger) ParamsFilter(_ context.Context, sql string, params ...any) (string, []any) {
	if len(params) == 0 {
		return sql, params
	}

	filtered := make([]any, len(params))
	for idx, param := range params {
		filtered[idx] = sanitizeLoggedSQLParam(param, l.maxLoggedParamLength)
	}

	return sql, filtered
}

// newTruncatingParamsLogger wraps a GORM logger with parameter truncation.
func newTruncatingParamsLogger(base gormLogger.Interface) gormLogger.Interface {
	return &truncatingParamsLogger{
		Interface:            base,
		maxLoggedParamLength: defaultMaxLoggedParamLength,
	}
}

// sanitizeLoggedSQLParam converts oversized parameter values into compact log-safe summaries.
func sanitizeLoggedSQLParam(param any, maxLoggedParamLength int) any {
	switch value := param.(type) {
	case string:
		if len(value) > maxLoggedParamLength {
			return fmt.Sprintf("<string:len=%d,truncated>", len(value))
		}
		return value
	case []byte:
		if len(value) > maxLoggedParamLength {
			return fmt.Sprintf("<bytes:len=%d,truncated>", len(value))
		}
		return value
	default:
		return param
	}
}
