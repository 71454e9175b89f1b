// Package platformrest provides REST API utilities with CORS support and
// common middleware for the analytics platform's HTTP Lambdas.
package platformrest

import (
	"fmt"
	"net/http"

	platformcli "github.com/Abhinav-Kukreti/analytics-platform/platform-cli"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/savaki/apigateway"
)

func Middlewares(service platformcli.Service, routes chi.Router) chi.Router {
	routes.Use(
		withCORS(),
		withLogger(platformcli.Logger(service)),
		middleware.Recoverer,
	)
	return routes
}

func Webserver(service platformcli.Service, routes chi.Router) error {
	logger := platformcli.Logger(service)

	if platformcli.CommonOpts.Console {
		logger.Info().Int("port", platformcli.CommonOpts.Port).Msg("starting http server")
		addr := fmt.Sprintf(":%v", platformcli.CommonOpts.Port)
		return http.ListenAndServe(addr, routes)
	}

	lambda.Start(apigateway.Wrap(routes, platformcli.CommonOpts.Env))
	return nil
}

func withCORS() func(next http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
	})
}

func withLogger(logger zerolog.Logger) func(handler http.Handler) http.Handler {
	return func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := logger.WithContext(req.Context())
			req = req.WithContext(ctx)
			handler.ServeHTTP(w, req)
		})
	}
}
