// Package handler is the HTTP layer, the first entry point after the
// router.
//
// It binds and validates requests using the validation package, calls the
// service layer and turns its errors into *errs.HTTPError values for the
// global error handler.
package handler
