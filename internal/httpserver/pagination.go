package httpserver

import "strconv"

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

// page turns 1-based page and size into offset and limit.
func page(p, size int) (offset, limit int) {
	if p < 1 {
		p = 1
	}
	if size <= 0 || size > MaxPageSize {
		size = DefaultPageSize
	}
	return (p - 1) * size, size
}
