package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func TestErrorClassification(t *testing.T) {
	convey.Convey("Status codes map onto the error types the handlers produce", t, func() {
		convey.So(getErrorType(http.StatusBadRequest), convey.ShouldEqual, "client_error")
		convey.So(getErrorType(http.StatusNotFound), convey.ShouldEqual, "not_found")
		convey.So(getErrorType(http.StatusRequestEntityTooLarge), convey.ShouldEqual, "too_large")
		convey.So(getErrorType(http.StatusUnsupportedMediaType), convey.ShouldEqual, "client_error")
		convey.So(getErrorType(http.StatusTooManyRequests), convey.ShouldEqual, "client_error")
		convey.So(getErrorType(http.StatusInternalServerError), convey.ShouldEqual, "server_error")
		convey.So(getErrorSeverity(http.StatusInternalServerError), convey.ShouldEqual, "high")
		convey.So(getErrorSeverity(http.StatusNotFound), convey.ShouldEqual, "medium")
	})

	convey.Convey("The middleware passes the handler's status through", t, func() {
		h := MetricsMiddleware(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
		}, "test")
		w := httptest.NewRecorder()
		h(w, httptest.NewRequest(http.MethodPost, "/v1/analyses", http.NoBody))
		convey.So(w.Code, convey.ShouldEqual, http.StatusRequestEntityTooLarge)
	})
}
