package api

import (
	"log/slog"
	"net"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/cryptforge/forge-studio/internal/errors"
)

// rateLimited is huma operation middleware that limits requests per client
// IP with the server's sync limiter.
func (s *Server) rateLimited(ctx huma.Context, next func(huma.Context)) {
	key := clientIP(ctx.RemoteAddr())
	if !s.syncLimiter.Allow(key) {
		s.logger.Warn("Rate limit exceeded",
			slog.String("ip", key),
			slog.String("path", ctx.URL().Path),
		)
		_ = huma.WriteErr(s.api, ctx, http.StatusTooManyRequests,
			"too many sync requests, try again later", domainerrors.ErrRateLimited)
		return
	}
	next(ctx)
}

// clientIP strips the port from a remote address. chi's RealIP middleware
// has already applied X-Forwarded-For and X-Real-IP.
func clientIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
