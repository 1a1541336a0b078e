// Package validation contains the logic for binding and validating
// request data.
//
// It uses the `validator` library to enforce rules defined in struct tags
// and extracts validation errors into a format the client can understand.
// Request types that need a fixed client message (the list query) return an
// *errs.HTTPError from Validate, which is passed through as-is.
package validation

import "github.com/go-playground/validator/v10"

var validate = validator.New(validator.WithRequiredStructEnabled())
