package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/usxc/classroom-library-backend/api/responses"
	pkgerrors "github.com/usxc/classroom-library-backend/pkg/errors"
	"github.com/usxc/classroom-library-backend/pkg/logger"
)

// Classroom restricts borrow and return endpoints to the classroom
// network. An empty allow-list disables the guard entirely. Entries
// with a trailing dot match as address prefixes ("10.0.1." admits the
// whole subnet); anything else must match exactly.
func Classroom(allowed []string, logg *logger.Logger) func(http.Handler) http.Handler {
	rules := make([]string, 0, len(allowed))
	for _, entry := range allowed {
		entry = strings.TrimSpace(entry)
		if entry != "" {
			rules = append(rules, entry)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(rules) == 0 {
				next.ServeHTTP(w, r)
				return
			}

			ip := ClientIP(r)
			if !ipAllowed(ip, rules) {
				ctx := r.Context()
				if logg != nil {
					ctx = logg.WithField(ctx, "client_ip", ip)
					logg.Warn(ctx, "classroom.rejected")
				}
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "classroom network required"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP resolves the caller address, trusting the first entry of
// X-Forwarded-For when a proxy sits in front of the API.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first := strings.TrimSpace(strings.Split(fwd, ",")[0])
		if first != "" {
			return first
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}

func ipAllowed(ip string, rules []string) bool {
	if ip == "" {
		return false
	}
	for _, rule := range rules {
		if strings.HasSuffix(rule, ".") {
			if strings.HasPrefix(ip, rule) {
				return true
			}
			continue
		}
		if ip == rule {
			return true
		}
	}
	return false
}
