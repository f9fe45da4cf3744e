package http

import (
	"net/http"

	"github.com/Yaroher2442/FORTIFIED/internal/common/constants"
	"github.com/Yaroher2442/FORTIFIED/internal/common/httpmetrics"
	"github.com/Yaroher2442/FORTIFIED/internal/common/logger"
)

// BuildBaseHandler wraps handler with the middleware every service shares.
// Trace ids are attached before recovery so panics are logged with one.
func BuildBaseHandler(log *logger.Logger, handler http.Handler) http.Handler {
	collector := httpmetrics.New()
	recovery := RecoveryMiddleware(log)
	maxRequestSize := MaxRequestSizeMiddleware(constants.DefaultMaxRequestSize)

	return SecurityHeadersMiddleware(TraceIDMiddleware(recovery(maxRequestSize(collector.Wrap(handler)))))
}
