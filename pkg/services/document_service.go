package services

import (
	"log"

	"inkwell/pkg/errors"
	"inkwell/pkg/models"
	"inkwell/pkg/storage"
)

// DocumentService handles document business logic on top of the
// repository: validation, retries for transient persistence failures
// and user-facing error mapping. This is the surface the presentation
// layer calls.
type DocumentService struct {
	store *storage.DocumentStore
}

// NewDocumentService creates a new document service
func NewDocumentService(store *storage.DocumentStore) *DocumentService {
	return &DocumentService{
		store: store,
	}
}

// LoadDocuments initializes the in-memory collection from disk.
func (s *DocumentService) LoadDocuments() ([]*models.Document, error) {
	return s.store.LoadAll()
}

// ListDocuments returns all documents, newest first.
func (s *DocumentService) ListDocuments() []*models.Document {
	return s.store.GetAll()
}

// GetDocument returns a specific document by ID with validation
func (s *DocumentService) GetDocument(id string) (*models.Document, error) {
	validator := errors.NewValidator()
	if result := validator.ValidateDocumentID(id); !result.IsValid {
		err := result.GetFirstError()
		err.Log()
		return nil, err
	}

	doc, err := s.store.Get(id)
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			appErr.Log()
			return nil, appErr
		}

		appErr := errors.Wrap(err, errors.ErrTypeFileSystem, "DOCUMENT_READ_FAILED",
			"failed to read document").
			WithUserMessage("Unable to load the requested document").
			WithContext("docId", id)
		appErr.Log()
		return nil, appErr
	}

	return doc, nil
}

// CreateDocument creates a new document with validation and retry
// handling. An empty title defaults to "Untitled" in the store.
func (s *DocumentService) CreateDocument(title, body string) (*models.Document, error) {
	validator := errors.NewValidator()
	if result := validator.ValidateTitle(title); !result.IsValid {
		err := result.GetFirstError()
		err.Log()
		return nil, err
	}
	if result := validator.ValidateBody(body); !result.IsValid {
		err := result.GetFirstError()
		err.Log()
		return nil, err
	}

	// Create document with retry logic for transient failures
	retryHandler := errors.NewRetryHandler(3)
	var doc *models.Document

	err := retryHandler.Execute(func() error {
		var err error
		doc, err = s.store.Add(title, body)
		if err != nil {
			return errors.Wrap(err, errors.ErrTypeFileSystem, "DOCUMENT_CREATE_FAILED",
				"failed to create document").
				WithUserMessage("Unable to save the document. Please try again").
				WithRetryable(true)
		}
		return nil
	})

	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			appErr.Log()
			return nil, appErr
		}
		return nil, err
	}

	log.Printf("Document created successfully: %s", doc.ID)
	return doc, nil
}

// UpdateDocument replaces a stored record with validation and retry
// handling.
func (s *DocumentService) UpdateDocument(doc *models.Document) error {
	validator := errors.NewValidator()
	if result := validator.ValidateDocumentID(doc.ID); !result.IsValid {
		err := result.GetFirstError()
		err.Log()
		return err
	}
	if result := validator.ValidateBody(doc.PlainText); !result.IsValid {
		err := result.GetFirstError()
		err.Log()
		return err
	}

	retryHandler := errors.NewRetryHandler(3)
	err := retryHandler.Execute(func() error {
		if err := s.store.Update(doc); err != nil {
			return errors.Wrap(err, errors.ErrTypeFileSystem, "DOCUMENT_UPDATE_FAILED",
				"failed to update document").
				WithUserMessage("Unable to save changes. Please try again").
				WithRetryable(true).
				WithContext("docId", doc.ID)
		}
		return nil
	})

	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			appErr.Log()
			return appErr
		}
		return err
	}

	log.Printf("Document updated successfully: %s", doc.ID)
	return nil
}

// RenameDocument updates a document's title
func (s *DocumentService) RenameDocument(id, newTitle string) error {
	validator := errors.NewValidator()
	if result := validator.ValidateDocumentID(id); !result.IsValid {
		err := result.GetFirstError()
		err.Log()
		return err
	}
	if result := validator.ValidateTitle(newTitle); !result.IsValid {
		err := result.GetFirstError()
		err.Log()
		return err
	}

	return s.store.Rename(id, newTitle)
}

// DeleteDocument deletes a document and its cache file. Unknown IDs
// are a no-op.
func (s *DocumentService) DeleteDocument(id string) error {
	return s.store.Delete(id)
}

// SearchDocuments searches for documents containing the query
func (s *DocumentService) SearchDocuments(query string) []*models.Document {
	return s.store.Search(query)
}
