package health

import (
	"encoding/json"
	"net/http"
	"strings"
)

// LivenessHandler always answers OK while the process serves requests.
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		write(w, r, &Report{Status: StatusHealthy})
	}
}

// ReadinessHandler runs the checks on every request and answers 503 when
// any of them fails.
func ReadinessHandler(checks Checks, opts ...Option) http.HandlerFunc {
	c := NewChecker(checks, opts...)
	return func(w http.ResponseWriter, r *http.Request) {
		write(w, r, c.Run(r.Context()))
	}
}

func write(w http.ResponseWriter, r *http.Request, rep *Report) {
	status := http.StatusOK
	if !rep.Healthy() {
		status = http.StatusServiceUnavailable
	}

	if wantsJSON(r) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(rep)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(http.StatusText(status)))
}

// wantsJSON honours ?format=json as well as the Accept header.
func wantsJSON(r *http.Request) bool {
	if r.URL.Query().Get("format") == "json" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
