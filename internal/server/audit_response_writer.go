package server

import "net/http"

// auditResponseWriter records the status code and the response size for the
// audit entry. Bodies are not captured; admin order responses can carry
// whole receipt images.
type auditResponseWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func newAuditResponseWriter(w http.ResponseWriter) *auditResponseWriter {
	return &auditResponseWriter{
		ResponseWriter: w,
		status:         http.StatusOK,
	}
}

func (w *auditResponseWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *auditResponseWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}
