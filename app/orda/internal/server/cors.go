package server

import (
	nethttp "net/http"
	"slices"
	"strings"

	"github.com/go-kratos/kratos/v2/transport/http"
)

// originAllowed 列表中包含 * 时允许任意来源
func originAllowed(origins []string, origin string) bool {
	if origin == "" {
		return false
	}
	return slices.Contains(origins, "*") || slices.Contains(origins, origin)
}

// corsFilter 按白名单回写跨域响应头，并直接应答预检请求
func corsFilter(origins []string) http.FilterFunc {
	return func(next nethttp.Handler) nethttp.Handler {
		return nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
			origin := r.Header.Get("Origin")
			if originAllowed(origins, origin) {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Credentials", "true")
				h.Add("Vary", "Origin")
				if r.Method == nethttp.MethodOptions {
					h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
					reqHeaders := r.Header.Get("Access-Control-Request-Headers")
					if reqHeaders == "" {
						reqHeaders = "Authorization, Content-Type"
					}
					h.Set("Access-Control-Allow-Headers", strings.TrimSpace(reqHeaders))
					w.WriteHeader(nethttp.StatusNoContent)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
