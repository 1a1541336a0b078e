// Package service holds the listing operations the HTTP layer calls.
//
// Services take already validated input, apply the listing rules (ids are
// always store assigned, page sizes are capped) and pass store errors back
// unchanged so handlers decide the response.
package service
