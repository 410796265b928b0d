package cryptox

import (
	_ "embed"
	"strings"
	"sync"
)

//go:embed blacklist.txt
var blacklistRaw string

var (
	blacklistOnce sync.Once
	blacklist     map[string]struct{}
)

// IsBlacklisted reports whether password is one of the well-known weak
// passwords that are refused on signup and password change.
func IsBlacklisted(password string) bool {
	blacklistOnce.Do(func() {
		lines := strings.Split(blacklistRaw, "\n")
		blacklist = make(map[string]struct{}, len(lines))
		for _, l := range lines {
			l = strings.TrimSpace(l)
			if l == "" || strings.HasPrefix(l, "#") {
				continue
			}
			blacklist[l] = struct{}{}
		}
	})
	_, ok := blacklist[password]
	return ok
}
