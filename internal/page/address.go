package page

import (
	"net/url"
	"strings"

	"vote-preview/internal/domain"
)

var addressParams = []string{"ca", "address", "token"}

const minPathAddressLen = 11

// ResolveAddress takes the address from the query string or, failing that,
// from the last non-empty path segment when it looks like an address.
func ResolveAddress(path string, query url.Values) (string, bool) {
	for _, k := range addressParams {
		if v := strings.TrimSpace(query.Get(k)); v != "" {
			if domain.ValidateAddress(v) != nil {
				return "", false
			}
			return v, true
		}
	}

	segments := strings.Split(path, "/")
	for i := len(segments) - 1; i >= 0; i-- {
		seg := segments[i]
		if seg == "" {
			continue
		}
		if len(seg) < minPathAddressLen || domain.ValidateAddress(seg) != nil {
			return "", false
		}
		return seg, true
	}
	return "", false
}
