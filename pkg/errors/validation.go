package errors

import (
	"os"
	"path/filepath"
	"strings"
)

// ValidationResult holds validation results
type ValidationResult struct {
	IsValid bool
	Errors  []*AppError
}

// AddError adds an error to the validation result
func (vr *ValidationResult) AddError(err *AppError) {
	vr.IsValid = false
	vr.Errors = append(vr.Errors, err)
}

// GetFirstError returns the first error or nil
func (vr *ValidationResult) GetFirstError() *AppError {
	if len(vr.Errors) > 0 {
		return vr.Errors[0]
	}
	return nil
}

// Validator provides validation utilities
type Validator struct{}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateDocumentID validates document ID format
func (v *Validator) ValidateDocumentID(id string) *ValidationResult {
	result := &ValidationResult{IsValid: true}

	if strings.TrimSpace(id) == "" {
		result.AddError(New(ErrTypeValidation, "ID_EMPTY", "document ID cannot be empty").
			WithUserMessage("Document ID is required"))
		return result
	}

	if len(id) < 8 {
		result.AddError(New(ErrTypeValidation, "ID_INVALID", "invalid document ID format").
			WithUserMessage("Invalid document ID format"))
	}

	return result
}

// ValidateTitle validates a document title
func (v *Validator) ValidateTitle(title string) *ValidationResult {
	result := &ValidationResult{IsValid: true}

	if len(title) > 256 {
		result.AddError(New(ErrTypeValidation, "TITLE_TOO_LONG", "document title too long").
			WithUserMessage("Title is too long. Maximum length is 256 characters").
			WithContext("length", len(title)))
	}

	return result
}

// ValidateBody validates document body text
func (v *Validator) ValidateBody(body string) *ValidationResult {
	result := &ValidationResult{IsValid: true}

	// Check for extremely large content (> 1MB of plain text)
	if len(body) > 1024*1024 {
		result.AddError(New(ErrTypeValidation, "CONTENT_TOO_LARGE", "document body too large").
			WithUserMessage("Document body is too large. Maximum size is 1MB").
			WithContext("size", len(body)))
	}

	return result
}

// ValidateDirectoryPath validates directory path and permissions
func (v *Validator) ValidateDirectoryPath(path string) *ValidationResult {
	result := &ValidationResult{IsValid: true}

	if strings.TrimSpace(path) == "" {
		result.AddError(New(ErrTypeValidation, "PATH_EMPTY", "directory path cannot be empty").
			WithUserMessage("Directory path cannot be empty"))
		return result
	}

	// Check if we can create the directory
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		result.AddError(Wrap(err, ErrTypeFileSystem, "DIR_CREATE_FAILED", "cannot create directory").
			WithUserMessage("Cannot create directory. Check permissions").
			WithContext("path", path))
	}

	return result
}
