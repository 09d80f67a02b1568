package main

import (
	"net/http"
	"time"
)

// deadlineMargin leaves the timeout handler room to answer before the server drops the connection.
const deadlineMargin = 500 * time.Millisecond

// timeoutHandler answers 503 when a handler misses the deadline. The hint event stream bypasses it because
// http.TimeoutHandler buffers the whole response, so that route sets its own write deadline.
func timeoutHandler(h http.Handler, serverTimeout time.Duration) http.Handler {
	body := http.StatusText(http.StatusServiceUnavailable) + ": the game engine did not answer in time\n"
	buffered := http.TimeoutHandler(h, serverTimeout-deadlineMargin, body)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet && r.URL.Path == hintStreamPath {
			h.ServeHTTP(w, r)
			return
		}
		buffered.ServeHTTP(w, r)
	})
}
