package middleware

import (
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/tdy-voucher/pkg/logger"
)

var _ = Describe("Sensitive data filtering", func() {
	It("should mask tokens and secrets in nested JSON", func() {
		out := filterSensitiveBody([]byte(`{"trip":{"id":"t-1"},"access_token":"abc","rates":{"api_key":"k"}}`))
		Expect(out).To(ContainSubstring(`"id":"t-1"`))
		Expect(out).To(ContainSubstring(`"access_token":"[FILTERED]"`))
		Expect(out).To(ContainSubstring(`"api_key":"[FILTERED]"`))
		Expect(out).NotTo(ContainSubstring("abc"))
	})

	It("should mask the authorization header", func() {
		h := http.Header{}
		h.Set("Authorization", "Bearer abc")
		h.Set("Content-Type", "application/json")
		filtered := filterSensitiveHeaders(h)
		Expect(filtered["Authorization"]).To(Equal("[FILTERED]"))
		Expect(filtered["Content-Type"]).To(Equal("application/json"))
	})

	It("should truncate large bodies", func() {
		big := make([]byte, maxLoggedBody*2)
		for i := range big {
			big[i] = 'x'
		}
		Expect(len(filterSensitiveBody(big))).To(Equal(maxLoggedBody))
	})
})

var _ = Describe("RecoveryMiddleware", func() {
	It("should turn a panic into a JSON 500", func() {
		h := RecoveryMiddleware(logger.Discard())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("boom")
		}))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		Expect(w.Code).To(Equal(http.StatusInternalServerError))
		Expect(w.Header().Get("Content-Type")).To(Equal("application/json"))
		Expect(w.Body.String()).To(ContainSubstring(`"code":"INTERNAL_ERROR"`))
	})
})

var _ = Describe("CORS", func() {
	It("should only allow configured origins", func() {
		h := CORS("https://travel.example.mil")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://travel.example.mil")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		Expect(w.Header().Get("Access-Control-Allow-Origin")).To(Equal("https://travel.example.mil"))

		req.Header.Set("Origin", "https://elsewhere.example.com")
		w = httptest.NewRecorder()
		h.ServeHTTP(w, req)
		Expect(w.Header().Get("Access-Control-Allow-Origin")).To(BeEmpty())
	})

	It("should short-circuit preflight requests", func() {
		h := CORS("*")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/estimates", nil)
		req.Header.Set("Origin", "https://a.example")
		req.Header.Set("Access-Control-Request-Method", "POST")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		Expect(w.Code).To(Equal(http.StatusNoContent))
	})
})
