package rest

import (
	"net/http"
	"regexp"

	"web-larek/internal/constants"
	"web-larek/internal/contextkeys"
	"web-larek/internal/core/port"

	"github.com/google/uuid"
)

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{8,64}$`)

// SessionMiddleware берет id сессии из X-Session-ID или выдает новый.
// Итоговый id возвращается в том же заголовке ответа.
func SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.Header.Get(constants.HeaderXSessionID)
		if !sessionIDPattern.MatchString(sessionID) {
			sessionID = uuid.New().String()
		}
		w.Header().Set(constants.HeaderXSessionID, sessionID)

		ctx := contextkeys.ContextWithSessionID(r.Context(), sessionID)
		logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{"session_id": sessionID})
		ctx = contextkeys.ContextWithLogger(ctx, logger)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
