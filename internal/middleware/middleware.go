// Package middleware stores global and route-specific middleware.
//
// These intercept requests to handle cross-cutting concerns such as request
// ids, request logging, CORS, rate limiting, panic recovery and connecting
// the listings store before the API handlers run.
package middleware
