package middleware

import (
	"net/http"
	"strings"
)

// TrimSlash redirects paths with a trailing slash to the bare path.
// GET and HEAD get 301; other methods get 308 so uploads keep their body.
func TrimSlash() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if path == "/" || !strings.HasSuffix(path, "/") {
				next.ServeHTTP(w, r)
				return
			}

			u := *r.URL
			u.Path = strings.TrimRight(path, "/")
			if u.Path == "" {
				u.Path = "/"
			}
			u.RawPath = ""

			code := http.StatusPermanentRedirect
			if r.Method == http.MethodGet || r.Method == http.MethodHead {
				code = http.StatusMovedPermanently
			}
			http.Redirect(w, r, u.RequestURI(), code)
		})
	}
}
