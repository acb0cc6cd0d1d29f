package core

// error_messages.go maps technical errors to user-facing messages with codes
// support staff can look up.
//
// # Error Codes Reference
//
// Typed errors are matched first with errors.As / errors.Is:
//
//	VAL001 - Invalid field value (*ValidationError)
//	VAL002 - Missing fields in a request or row (*ValidationError, "missing fields")
//	NF001  - Book not found (ErrNotFound)
//	SCH001 - Import file lacks required columns (*SchemaError)
//	IMP001 - Too many imports in progress (ErrTooManyImports)
//
// Anything else falls back to case-insensitive substring patterns:
//
//	FILE001 - "file too large"
//	FILE002 - "unsupported file type"
//	FILE003 - "invalid csv" / "invalid xlsx"
//	FILE004 - "no file provided"
//	FILE005 - "empty file"
//	FILE006 - "too many rows"
//	IMP002  - "context canceled"
//	IMP003  - "context deadline exceeded"
//	DB001   - "connection refused"
//	DB002   - "connection reset"
//	DB003   - "timeout"
//	DB004   - "database is locked" / "deadlock"
//	RATE001 - "rate limit"
//	ERR000  - fallback; check the server log for the original error
//
// The first matching pattern wins, so specific patterns come first.

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var (
	msgValidation = UserMessage{
		Message: "A field has an invalid value",
		Action:  "Quantities and prices must be non-negative numbers",
		Code:    "VAL001",
	}
	msgMissingFields = UserMessage{
		Message: "Required fields are missing",
		Action:  "Provide zone, grade, sku, book_name, book_category, qty, selling_price and cost_price",
		Code:    "VAL002",
	}
	msgNotFound = UserMessage{
		Message: "Book not found",
		Action:  "Refresh the list; the record may have been deleted",
		Code:    "NF001",
	}
	msgSchema = UserMessage{
		Message: "The file is missing required columns",
		Action:  "Download the template and copy your data into it",
		Code:    "SCH001",
	}
	msgBusy = UserMessage{
		Message: "System is busy processing other imports",
		Action:  "Please wait a moment and try again",
		Code:    "IMP001",
	}
)

var errorPatterns = []errorPattern{
	// =========================================================================
	// File Errors
	// =========================================================================
	{"file too large", UserMessage{"File exceeds the maximum upload size", "Split the file into smaller parts", "FILE001"}},
	{"unsupported file type", UserMessage{"Only .xlsx and .csv files are accepted", "Save the sheet as .xlsx or .csv", "FILE002"}},
	{"invalid csv", UserMessage{"File is not a valid CSV", "Ensure the file is comma-separated with consistent columns", "FILE003"}},
	{"invalid xlsx", UserMessage{"File is not a valid Excel workbook", "Re-save the workbook as .xlsx", "FILE003"}},
	{"no file provided", UserMessage{"No file was selected", "Please select a file to import", "FILE004"}},
	{"empty file", UserMessage{"The uploaded file is empty", "Please upload a file with a header row", "FILE005"}},
	{"too many rows", UserMessage{"The file has more rows than allowed", "Split the file into smaller parts", "FILE006"}},

	// =========================================================================
	// Request lifecycle
	// =========================================================================
	{"context canceled", UserMessage{"Request was cancelled", "Please try again", "IMP002"}},
	{"context deadline exceeded", UserMessage{"Request timed out", "Try a smaller file or try again later", "IMP003"}},

	// =========================================================================
	// Storage
	// =========================================================================
	{"connection refused", UserMessage{"Unable to connect to the database", "Please try again in a few moments", "DB001"}},
	{"connection reset", UserMessage{"Database connection was interrupted", "Please try again", "DB002"}},
	{"timeout", UserMessage{"Operation timed out", "Please try again later", "DB003"}},
	{"database is locked", UserMessage{"Database was busy", "Please try again", "DB004"}},
	{"deadlock", UserMessage{"Database was busy", "Please try again", "DB004"}},

	// =========================================================================
	// Rate Limiting
	// =========================================================================
	{"rate limit", UserMessage{"Too many requests", "Please wait a moment before trying again", "RATE001"}},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		if strings.HasPrefix(ve.Message, "missing fields") {
			return msgMissingFields
		}
		return msgValidation
	}
	if IsSchema(err) {
		return msgSchema
	}
	if errors.Is(err, ErrNotFound) {
		return msgNotFound
	}
	if errors.Is(err, ErrTooManyImports) {
		return msgBusy
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError renders "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
