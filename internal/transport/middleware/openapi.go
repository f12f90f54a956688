package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	legacyrouter "github.com/getkin/kin-openapi/routers/legacy"
	json "github.com/goccy/go-json"

	"github.com/frahmantamala/tdy-voucher/internal"
)

// LoadOpenAPI parses and validates an OpenAPI 3 document.
func LoadOpenAPI(ctx context.Context, spec []byte) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(spec)
	if err != nil {
		return nil, fmt.Errorf("load openapi document: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid openapi document: %w", err)
	}
	return doc, nil
}

// OpenAPIValidator rejects requests whose shape does not match the document
// before they reach a handler. Paths the document does not describe pass
// through untouched so the router can answer them. Authentication is left to
// the auth middleware.
func OpenAPIValidator(doc *openapi3.T, logger *slog.Logger) (func(http.Handler) http.Handler, error) {
	router, err := legacyrouter.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("build openapi router: %w", err)
	}
	options := &openapi3filter.Options{
		AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
		MultiError:         true,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route, pathParams, err := router.FindRoute(r)
			if err != nil {
				var routeErr *routers.RouteError
				if errors.As(err, &routeErr) {
					next.ServeHTTP(w, r)
					return
				}
				logger.Error("openapi route lookup failed", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			input := &openapi3filter.RequestValidationInput{
				Request:    r,
				PathParams: pathParams,
				Route:      route,
				Options:    options,
			}
			if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
				writeSchemaError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}, nil
}

func writeSchemaError(w http.ResponseWriter, err error) {
	var failures []internal.ValidationError
	var multi openapi3.MultiError
	if errors.As(err, &multi) {
		for _, e := range multi {
			failures = append(failures, schemaFailure(e))
		}
	} else {
		failures = append(failures, schemaFailure(err))
	}

	status, body := internal.NewInvalidInputError(failures).ToHTTPResponse()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func schemaFailure(err error) internal.ValidationError {
	field := "body"
	var reqErr *openapi3filter.RequestError
	if errors.As(err, &reqErr) && reqErr.Parameter != nil {
		field = reqErr.Parameter.Name
	}
	var schemaErr *openapi3.SchemaError
	if errors.As(err, &schemaErr) {
		if path := schemaErr.JSONPointer(); len(path) > 0 {
			field = joinPointer(path)
		}
		return internal.ValidationError{Field: field, Message: schemaErr.Reason, Code: string(internal.ErrCodeInvalidInput)}
	}
	if reqErr != nil && reqErr.Reason != "" {
		return internal.ValidationError{Field: field, Message: reqErr.Reason, Code: string(internal.ErrCodeInvalidInput)}
	}
	return internal.ValidationError{Field: field, Message: err.Error(), Code: string(internal.ErrCodeInvalidInput)}
}

func joinPointer(path []string) string {
	out := path[0]
	for _, p := range path[1:] {
		out += "." + p
	}
	return out
}
