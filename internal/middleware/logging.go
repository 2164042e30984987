package middleware

import (
	"net/http"

	"github.com/rsvphq/firstaccess/pkg"

	log "github.com/sirupsen/logrus"
)

func LogRequest() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userAgent := r.Header.Get("User-Agent")

			userIp, err := pkg.ReadUserIP(r)
			if err != nil {
				userIp = "unknown"
			} else if pkg.IPIsLocal(userIp) {
				userIp = "local"
			}

			log.Tracef(" ====> request [%s] path: [%s] [ip: %s] [UA: %s]", r.Method, r.URL.Path, userIp, userAgent)
			next.ServeHTTP(w, r)
		})
	}
}
