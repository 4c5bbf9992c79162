package middleware

import (
	"regexp"
	"time"

	"github.com/labstack/echo/v4"

	"dermacare/pkg/logger"
)

var skipLogPaths = map[string]bool{
	"/health": true,
}

var (
	xssPattern           = regexp.MustCompile(`(?i)<script>|javascript:|on\w+\s*=|data:`)
	sqlInjectionPattern  = regexp.MustCompile(`(?i)(%27)|(')|(--)|(%23)|(#)`)
	pathTraversalPattern = regexp.MustCompile(`\.\./`)
)

// PerformanceLogger records the wall-clock duration of every request.
func PerformanceLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if skipLogPaths[c.Path()] {
				return next(c)
			}

			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			uid := "anonymous"
			if v, ok := c.Get("uid").(string); ok {
				uid = v
			}

			logger.Info("performance: method=%s path=%s status=%d duration=%.2fms user=%s",
				c.Request().Method, c.Request().URL.Path, c.Response().Status,
				float64(duration.Microseconds())/1000, uid)

			return err
		}
	}
}

// SecurityLogger flags request URLs carrying common injection markers. It
// only logs; rejection stays with input validation.
func SecurityLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			url := c.Request().URL.String()

			hasXSS := xssPattern.MatchString(url)
			hasSQLInjection := sqlInjectionPattern.MatchString(url)
			hasPathTraversal := pathTraversalPattern.MatchString(url)

			if hasXSS || hasSQLInjection || hasPathTraversal {
				logger.Warn("security: method=%s url=%s ip=%s userAgent=%q xss=%t sqli=%t traversal=%t",
					c.Request().Method, url, c.RealIP(), c.Request().UserAgent(),
					hasXSS, hasSQLInjection, hasPathTraversal)
			}

			return next(c)
		}
	}
}
