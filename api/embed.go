// Package api carries the OpenAPI description served by and validated against the HTTP API.
package api

import _ "embed"

//go:embed openapi.yml
var OpenAPISpec []byte
