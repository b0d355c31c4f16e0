package core

// error_messages.go defines user-friendly error messages with codes for
// support reference. When users encounter errors, they can quote the code to
// support staff for faster diagnosis.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - Wrong extension: Only .csv files are accepted
//	          Patterns: "invalid file extension"
//	FILE002 - Empty file: The uploaded file is empty
//	          Patterns: "empty file", "no file provided"
//	FILE003 - File too large: File exceeds the maximum size
//	          Patterns: "file too large"
//	FILE004 - Encoding error: File is not readable text
//	          Patterns: "encoding error"
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Missing columns: Required columns are missing
//	         Patterns: "missing required columns"
//	VAL002 - Too few lines: Header and at least one data row are required
//	         Patterns: "at least one data row"
//	VAL003 - No valid rows: Every data row was rejected
//	         Patterns: "no valid rows"
//	VAL004 - Row rejected: A row has the wrong number of columns
//	         Patterns: "wrong number of columns"
//
// # Import Errors (IMP001-IMP099)
//
//	IMP001 - Cancelled: The import was stopped
//	         Patterns: "import cancelled", "context canceled"
//	IMP002 - Declined: Category creation was declined
//	         Patterns: "category creation declined"
//	IMP003 - System busy: Too many imports in progress
//	         Patterns: "too many imports"
//	IMP004 - Not found: Import session expired or unknown
//	         Patterns: "import not found"
//	IMP005 - Not waiting: Import is not waiting for confirmation
//	         Patterns: "not awaiting confirmation"
//	IMP006 - In progress: Result requested before the import finished
//	         Patterns: "import still in progress"
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Duplicate key          Patterns: "duplicate key"
//	DB002 - Unique constraint      Patterns: "unique constraint", "violates unique"
//	DB003 - Foreign key            Patterns: "foreign key constraint", "violates foreign key"
//	DB004 - Connection refused     Patterns: "connection refused"
//	DB005 - Connection reset       Patterns: "connection reset"
//	DB006 - Timeout                Patterns: "timeout", "deadline exceeded"
//	DB007 - Deadlock               Patterns: "deadlock"
//
// # Rate Limiting and Default
//
//	RATE001 - Rate limited         Patterns: "rate limit"
//	ERR000  - Unknown error; check application logs for the technical error
//
// Patterns are matched case-insensitively using strings.Contains. The first
// matching pattern wins, so more specific patterns come first.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened (user-friendly)
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Error code for support reference
}

// errorPattern maps any of its substrings to one message.
type errorPattern struct {
	patterns []string
	msg      UserMessage
}

func userMessage(code, message, action string) UserMessage {
	return UserMessage{Message: message, Action: action, Code: code}
}

// errorPatterns is searched in order; keep specific patterns above generic
// ones ("duplicate key" must win over "unique constraint").
var errorPatterns = []errorPattern{
	// File errors
	{[]string{"invalid file extension"}, userMessage("FILE001",
		"Only .csv files are accepted",
		"Export the spreadsheet as CSV and upload it again")},
	{[]string{"empty file"}, userMessage("FILE002",
		"The uploaded file is empty",
		"Please upload a CSV file with data rows")},
	{[]string{"no file provided"}, userMessage("FILE002",
		"No file was selected",
		"Please select a CSV file to upload")},
	{[]string{"file too large"}, userMessage("FILE003",
		"File exceeds the maximum size",
		"Split the file into smaller files")},
	{[]string{"encoding error"}, userMessage("FILE004",
		"File is not readable text",
		"Save the file as CSV (UTF-8)")},

	// Validation errors
	{[]string{"missing required columns"}, userMessage("VAL001",
		"Required columns are missing",
		"Download the import template and compare the header row")},
	{[]string{"at least one data row"}, userMessage("VAL002",
		"The file has no data rows",
		"Add at least one product below the header row")},
	{[]string{"no valid rows"}, userMessage("VAL003",
		"No row in the file could be imported",
		"Review the row errors and fix the file")},
	{[]string{"wrong number of columns"}, userMessage("VAL004",
		"A row has the wrong number of columns",
		"Check for unquoted commas in product names")},

	// Import errors
	{[]string{"import cancelled"}, userMessage("IMP001",
		"The import was cancelled",
		"Rows inserted before cancelling were kept; start a new import for the rest")},
	{[]string{"context canceled"}, userMessage("IMP001",
		"The request was cancelled",
		"Please try again")},
	{[]string{"category creation declined"}, userMessage("IMP002",
		"Category creation was declined; nothing was imported",
		"Create the categories first or fix the category names")},
	{[]string{"too many imports"}, userMessage("IMP003",
		"Too many imports in progress",
		"Please wait a moment and try again")},
	{[]string{"import not found"}, userMessage("IMP004",
		"Import session not found",
		"The import may have expired. Please start a new import")},
	{[]string{"not awaiting confirmation"}, userMessage("IMP005",
		"This import is not waiting for confirmation",
		"Refresh the import status")},
	{[]string{"import still in progress"}, userMessage("IMP006",
		"The import is still running",
		"Wait for the import to finish")},

	// Database errors
	{[]string{"duplicate key"}, userMessage("DB001",
		"A product with this key already exists",
		"Remove rows that were already imported and try again")},
	{[]string{"unique constraint", "violates unique"}, userMessage("DB002",
		"This value must be unique but already exists",
		"Check for duplicate entries in your CSV")},
	{[]string{"foreign key constraint", "violates foreign key"}, userMessage("DB003",
		"Referenced record does not exist",
		"Make sure the categories exist before importing")},
	{[]string{"connection refused"}, userMessage("DB004",
		"Unable to connect to database",
		"Please try again in a few moments")},
	{[]string{"connection reset"}, userMessage("DB005",
		"Database connection was interrupted",
		"Please try again")},
	{[]string{"timeout", "deadline exceeded"}, userMessage("DB006",
		"Operation timed out",
		"Try importing a smaller file or try again later")},
	{[]string{"deadlock"}, userMessage("DB007",
		"Database was busy with conflicting operations",
		"Please try again")},

	{[]string{"rate limit"}, userMessage("RATE001",
		"Too many requests",
		"Please wait a moment before trying again")},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = userMessage("ERR000",
	"An unexpected error occurred",
	"Please try again or contact support")

// MapError converts a technical error to a user-friendly message.
// It searches through known error patterns (case-insensitive) and returns
// the first match. If no pattern matches, a generic fallback message with
// code ERR000 is returned.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		for _, p := range ep.patterns {
			if strings.Contains(errStr, p) {
				return ep.msg
			}
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}
