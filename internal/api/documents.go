// internal/api/documents.go
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "jobtracker/internal/common/errors"
	"jobtracker/internal/common/validation"
	"jobtracker/internal/models"
)

func unknownKind() error {
	return apperrors.NewValidationError([]apperrors.FieldError{
		{Field: "kind", Message: "must be one of resumes, cover-letters, portfolio, certificates"},
	})
}

func (s *Server) documentKind(c *gin.Context) (models.DocumentKind, bool) {
	kind := models.DocumentKind(c.Param("kind"))
	if !kind.Valid() {
		s.fail(c, unknownKind())
		return "", false
	}
	return kind, true
}

func (s *Server) listAllDocuments(c *gin.Context) {
	c.JSON(http.StatusOK, s.deps.Store.Documents())
}

func (s *Server) listDocuments(c *gin.Context) {
	kind, ok := s.documentKind(c)
	if !ok {
		return
	}
	docs := s.deps.Store.Documents()
	var items interface{}
	switch kind {
	case models.DocumentResumes:
		items = nonNil(docs.Resumes)
	case models.DocumentCoverLetters:
		items = nonNil(docs.CoverLetters)
	case models.DocumentPortfolio:
		items = nonNil(docs.Portfolio)
	case models.DocumentCertificates:
		items = nonNil(docs.Certificates)
	}
	c.JSON(http.StatusOK, gin.H{"kind": kind, "items": items})
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func (s *Server) addDocument(c *gin.Context) {
	kind, ok := s.documentKind(c)
	if !ok {
		return
	}

	var (
		out interface{}
		err error
	)
	switch kind {
	case models.DocumentResumes:
		var r models.Resume
		if !s.bind(c, &r) {
			return
		}
		r.ID = ""
		if err = validation.Validate(validation.Resume, r); err == nil {
			out = s.deps.Store.AddResume(r)
		}
	case models.DocumentCoverLetters:
		var t models.CoverLetterTemplate
		if !s.bind(c, &t) {
			return
		}
		t.ID = ""
		if err = validation.Validate(validation.CoverLetter, t); err == nil {
			out = s.deps.Store.AddCoverLetter(t)
		}
	case models.DocumentPortfolio:
		var l models.PortfolioLink
		if !s.bind(c, &l) {
			return
		}
		l.ID = ""
		if err = validation.Validate(validation.PortfolioLink, l); err == nil {
			out = s.deps.Store.AddPortfolioLink(l)
		}
	case models.DocumentCertificates:
		var ct models.Certificate
		if !s.bind(c, &ct) {
			return
		}
		ct.ID = ""
		if err = validation.Validate(validation.Certificate, ct); err == nil {
			out = s.deps.Store.AddCertificate(ct)
		}
	}
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (s *Server) updateDocument(c *gin.Context) {
	kind, ok := s.documentKind(c)
	if !ok {
		return
	}
	id := c.Param("id")

	var (
		out interface{}
		err error
	)
	switch kind {
	case models.DocumentResumes:
		var r models.Resume
		if !s.bind(c, &r) {
			return
		}
		r.ID = id
		if err = validation.Validate(validation.Resume, r); err == nil {
			out, err = s.deps.Store.UpdateResume(r)
		}
	case models.DocumentCoverLetters:
		var t models.CoverLetterTemplate
		if !s.bind(c, &t) {
			return
		}
		t.ID = id
		if err = validation.Validate(validation.CoverLetter, t); err == nil {
			out, err = s.deps.Store.UpdateCoverLetter(t)
		}
	case models.DocumentPortfolio:
		var l models.PortfolioLink
		if !s.bind(c, &l) {
			return
		}
		l.ID = id
		if err = validation.Validate(validation.PortfolioLink, l); err == nil {
			out, err = s.deps.Store.UpdatePortfolioLink(l)
		}
	case models.DocumentCertificates:
		var ct models.Certificate
		if !s.bind(c, &ct) {
			return
		}
		ct.ID = id
		if err = validation.Validate(validation.Certificate, ct); err == nil {
			out, err = s.deps.Store.UpdateCertificate(ct)
		}
	}
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) deleteDocument(c *gin.Context) {
	kind, ok := s.documentKind(c)
	if !ok {
		return
	}
	id := c.Param("id")

	var err error
	switch kind {
	case models.DocumentResumes:
		err = s.deps.Store.DeleteResume(id)
	case models.DocumentCoverLetters:
		err = s.deps.Store.DeleteCoverLetter(id)
	case models.DocumentPortfolio:
		err = s.deps.Store.DeletePortfolioLink(id)
	case models.DocumentCertificates:
		err = s.deps.Store.DeleteCertificate(id)
	}
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// setPrimaryDocument marks a resume primary or a cover letter default.
func (s *Server) setPrimaryDocument(c *gin.Context) {
	kind, ok := s.documentKind(c)
	if !ok {
		return
	}
	id := c.Param("id")

	var err error
	switch kind {
	case models.DocumentResumes:
		err = s.deps.Store.SetPrimaryResume(id)
	case models.DocumentCoverLetters:
		err = s.deps.Store.SetDefaultCoverLetter(id)
	default:
		err = apperrors.NewValidationError([]apperrors.FieldError{
			{Field: "kind", Message: "only resumes and cover-letters have a primary entry"},
		})
	}
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.deps.Store.Documents())
}
