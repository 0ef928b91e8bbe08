package observability

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Field limits for values copied from requests into logs and spans.
const (
	routeLimit   = 180
	methodLimit  = 10
	browserLimit = 64
	ipLimit      = 64
)

// clean strips control characters (tabs survive) and cuts value to at most
// limit bytes without splitting a rune.
func clean(value string, limit int) string {
	value = strings.Map(func(r rune) rune {
		if r != '\t' && unicode.IsControl(r) {
			return -1
		}
		return r
	}, value)
	if len(value) <= limit {
		return value
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(value[cut]) {
		cut--
	}
	return value[:cut]
}

// SanitizeRoute returns a loggable route, "/" when empty.
func SanitizeRoute(route string) string {
	if route = clean(route, routeLimit); route == "" {
		return "/"
	}
	return route
}

func SanitizeMethod(method string) string { return clean(method, methodLimit) }

// SanitizeBrowserID bounds browser ids taken from cookies before logging them.
func SanitizeBrowserID(id string) string { return clean(id, browserLimit) }
