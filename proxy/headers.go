package proxy

import (
	"net/http"
	"net/url"
	"strings"
)

// mergeHeader builds a single header set from the single and multi value
// maps of an event. Keys are assigned directly, so they keep their case.
// Non-empty multi value entries win over single value entries.
func mergeHeader(single map[string]string, multi map[string][]string) http.Header {
	header := make(http.Header, max(len(single), len(multi)))

	for key, values := range multi {
		if len(values) == 0 {
			continue
		}
		header[key] = append([]string(nil), values...)
	}

	for key, value := range single {
		if _, ok := header[key]; !ok {
			header[key] = []string{value}
		}
	}

	return header
}

// mergeQuery is the query string equivalent of mergeHeader.
func mergeQuery(single map[string]string, multi map[string][]string) url.Values {
	return url.Values(mergeHeader(single, multi))
}

// splitHeader converts a header set into the single and multi value maps
// of a response event. A key with exactly one value goes to the single map,
// a key with several values to the multi map. The single map is never nil.
func splitHeader(header http.Header) (map[string]string, map[string][]string) {
	single := make(map[string]string, len(header))

	var multi map[string][]string

	for key, values := range header {
		switch len(values) {
		case 0:
			single[key] = ""
		case 1:
			single[key] = values[0]
		default:
			if multi == nil {
				multi = make(map[string][]string)
			}
			multi[key] = append([]string(nil), values...)
		}
	}

	return single, multi
}

// joinHeader flattens a header set into a single value map, joining
// repeated values with a comma. Set-Cookie values are returned separately,
// as they cannot be joined.
func joinHeader(header http.Header) (map[string]string, []string) {
	joined := make(map[string]string, len(header))

	var cookies []string

	for key, values := range header {
		if strings.EqualFold(key, "Set-Cookie") {
			cookies = append(cookies, values...)
			continue
		}

		joined[key] = strings.Join(values, ",")
	}

	return joined, cookies
}

// headerValue returns the first value of key, matching case-insensitively.
func headerValue(header http.Header, key string) string {
	if values, ok := header[key]; ok && len(values) > 0 {
		return values[0]
	}

	for k, values := range header {
		if strings.EqualFold(k, key) && len(values) > 0 {
			return values[0]
		}
	}

	return ""
}
