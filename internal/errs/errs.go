// Package errs defines the error types the API hands back to clients.
//
// Its purpose is to give every failure a predictable JSON shape
// (HTTPError) so clients of the listings API can tell apart bad input,
// missing documents and store failures without parsing free text.
package errs
