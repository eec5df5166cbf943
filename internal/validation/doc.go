// Redline - security event ingestion and incident triage pipeline
// Copyright 2026 Redline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/redline-soc/redline

// Package validation provides struct validation using go-playground/validator v10.
//
// This package wraps the go-playground/validator library to provide a thread-safe
// singleton validator instance and user-friendly error messages. It integrates
// with internal/api's {detail: string} error envelope for consistent 422
// responses on the ingest and approve-action endpoints.
//
// # Overview
//
// The package provides:
//   - Thread-safe singleton validator (initialized once, cached struct info)
//   - Error translation to human-readable messages
//   - APIError conversion matching the application's error format
//   - WithRequiredStructEnabled for v11 compatibility
//
// # Quick Start
//
//	type IngestRequest struct {
//	    Events []LogEventRequest `validate:"dive"`
//	}
//
//	type LogEventRequest struct {
//	    Message string `validate:"required"`
//	}
//
//	func (h *Handler) IngestLogs(w http.ResponseWriter, r *http.Request) {
//	    var req IngestRequest
//	    if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
//	        writeError(w, http.StatusUnprocessableEntity, "malformed request body")
//	        return
//	    }
//
//	    if verr := validation.ValidateStruct(&req); verr != nil {
//	        writeError(w, http.StatusUnprocessableEntity, verr.Error())
//	        return
//	    }
//	}
//
// # Common Validation Tags
//
// String validations:
//   - required: Field must not be empty
//   - min=n: Minimum length n characters
//   - max=n: Maximum length n characters
//   - email: Valid email format
//
// Numeric validations:
//   - gte=n, lte=n, gt=n, lt=n: bound comparisons
//   - min=n, max=n: Minimum/maximum value n
//
// Collection validations:
//   - dive: apply validation tags to each element of a slice (used on
//     IngestRequest.Events so every event in a batch is checked)
//
// # Error Types
//
// ValidationError represents a single field validation failure:
//
//	type ValidationError struct {
//	    Field()   string      // Struct field name
//	    Tag()     string      // Validation tag that failed
//	    Param()   string      // Tag parameter (e.g., "1" for min=1)
//	    Value()   interface{} // Actual value that failed
//	    Error()   string      // Human-readable message
//	}
//
// RequestValidationError aggregates multiple field errors:
//
//	type RequestValidationError struct {
//	    Errors() []ValidationError
//	    Error()  string           // Combined message
//	    ToAPIError() *APIError    // Convert to API error format
//	}
//
// # Error Message Translation
//
//	required  -> "Message is required"
//	min=1     -> "Events must be at least 1"
//	email     -> "Email must be a valid email address"
//
// # Thread Safety
//
// The singleton validator is initialized once and safe for concurrent use:
//
//	validate := validation.GetValidator()  // Thread-safe
//	err := validation.ValidateStruct(&req) // Thread-safe
//
// # See Also
//
//   - internal/api: Request handlers using validation
//   - github.com/go-playground/validator/v10: Underlying library
package validation
