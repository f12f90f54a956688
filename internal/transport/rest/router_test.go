package rest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/tdy-voucher/api"
	"github.com/frahmantamala/tdy-voucher/internal/auth"
	"github.com/frahmantamala/tdy-voucher/internal/core/calendar"
	"github.com/frahmantamala/tdy-voucher/internal/estimate"
	"github.com/frahmantamala/tdy-voucher/internal/rate"
	"github.com/frahmantamala/tdy-voucher/internal/transport/middleware"
	"github.com/frahmantamala/tdy-voucher/internal/transport/rest"
	"github.com/frahmantamala/tdy-voucher/pkg/logger"
)

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }

var _ = Describe("Router", func() {
	var (
		router *chi.Mux
		token  string
		pinger fakePinger
	)

	BeforeEach(func() {
		lg := logger.Discard()
		tokens := auth.NewJWTTokenGenerator("router-test-secret-router-test-secret", "tdy-voucher", time.Minute)
		var err error
		token, err = tokens.GenerateAccessToken("traveler-9", false)
		Expect(err).NotTo(HaveOccurred())

		provider := rate.ProviderFunc(func(_ context.Context, locality string, date calendar.Date) (rate.Snapshot, error) {
			return rate.Snapshot{Locality: locality, Date: date, MIERateCents: 5900, LodgingCapCents: 15000, MileageRateCents: 67}, nil
		})
		resolver := rate.NewResolver(provider, time.Second)

		doc, err := middleware.LoadOpenAPI(context.Background(), api.OpenAPISpec)
		Expect(err).NotTo(HaveOccurred())
		validate, err := middleware.OpenAPIValidator(doc, lg)
		Expect(err).NotTo(HaveOccurred())

		authHandler := auth.NewHandler(tokens)
		authHandler.Logger = lg
		estimateHandler := estimate.NewHandler(estimate.NewService(estimate.NewEngine(resolver, 2), nil, lg))
		estimateHandler.Logger = lg
		rateHandler := rate.NewHandler(resolver)
		rateHandler.Logger = lg

		pinger = fakePinger{}
		router = chi.NewRouter()
		rest.RegisterAllRoutes(router, rest.Handlers{
			Health:   rest.NewHealthHandler(map[string]rest.Pinger{"postgres": &pinger, "archive": nil}),
			Auth:     authHandler,
			Rate:     rateHandler,
			Estimate: estimateHandler,
		}, rest.RouterOptions{OpenAPISpec: api.OpenAPISpec, Validate: validate}, lg)
	})

	do := func(method, path, body, bearer string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
		if body != "" {
			req.Header.Set("Content-Type", "application/json")
		}
		if bearer != "" {
			req.Header.Set("Authorization", "Bearer "+bearer)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	errorCode := func(w *httptest.ResponseRecorder) string {
		var body struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
		return body.Error.Code
	}

	It("should answer ping without a token and echo a trace ID", func() {
		w := do(http.MethodGet, "/api/v1/ping", "", "")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Header().Get(middleware.TraceHeader)).NotTo(BeEmpty())
	})

	It("should report unhealthy when a component fails to ping", func() {
		Expect(do(http.MethodGet, "/api/v1/health", "", "").Code).To(Equal(http.StatusOK))

		pinger.err = errors.New("connection refused")
		w := do(http.MethodGet, "/api/v1/health", "", "")
		Expect(w.Code).To(Equal(http.StatusServiceUnavailable))
		Expect(w.Body.String()).To(ContainSubstring("connection refused"))
		Expect(w.Body.String()).NotTo(ContainSubstring("archive"))
	})

	It("should serve the OpenAPI document", func() {
		w := do(http.MethodGet, "/openapi.yml", "", "")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring("/api/v1/estimates"))
	})

	It("should require a bearer token on the API", func() {
		w := do(http.MethodPost, "/api/v1/estimates", `{}`, "")
		Expect(w.Code).To(Equal(http.StatusUnauthorized))
		Expect(errorCode(w)).To(Equal("INVALID_TOKEN"))
	})

	It("should reject a request body that does not match the document", func() {
		w := do(http.MethodPost, "/api/v1/estimates", `{"items":[]}`, token)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(errorCode(w)).To(Equal("INVALID_INPUT"))
	})

	It("should reject a rate query missing its locality", func() {
		w := do(http.MethodGet, "/api/v1/rates?date=2024-03-04", "", token)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("should pass a well-formed estimate through to the handler", func() {
		w := do(http.MethodPost, "/api/v1/estimates", `{
			"trip": {"id":"trip-1","departure_date":"2024-03-04","return_date":"2024-03-05","locality":"OH-DAYTON"},
			"items": []
		}`, token)
		Expect(w.Code).To(Equal(http.StatusOK))

		var resp estimate.EstimateResponse
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp.Trip.TravelerID).To(Equal("traveler-9"))
		Expect(resp.Totals.GrandTotalCents).To(Equal(int64(4425 + 4425)))
	})

	It("should return 404 for routes that were not mounted", func() {
		w := do(http.MethodGet, "/api/v1/vouchers", "", token)
		Expect(w.Code).To(Equal(http.StatusNotFound))
	})
})
