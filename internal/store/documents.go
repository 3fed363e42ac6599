// internal/store/documents.go
package store

import (
	"time"

	apperrors "jobtracker/internal/common/errors"
	"jobtracker/internal/models"
)

func (s *Store) Documents() models.Documents {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Documents.Clone()
}

func (s *Store) stamp(id *string, created, updated *time.Time) {
	now := s.now()
	if *id == "" {
		*id = s.newID()
	}
	*created = now
	*updated = now
}

// --- resumes ---

// AddResume stores r. The first resume, or one flagged primary, becomes
// the only primary resume.
func (s *Store) AddResume(r models.Resume) models.Resume {
	s.stamp(&r.ID, &r.CreatedAt, &r.UpdatedAt)
	s.mutate(Change{Kind: ChangeDocuments}, func(st *Snapshot) bool {
		list := st.Documents.Resumes
		if len(list) == 0 {
			r.IsPrimary = true
		}
		if r.IsPrimary {
			for i := range list {
				list[i].IsPrimary = false
			}
		}
		st.Documents.Resumes = append(list, r)
		return true
	})
	return r
}

// UpdateResume replaces the editable fields of an existing resume. The
// primary flag can be gained here but only lost through SetPrimaryResume or
// deletion.
func (s *Store) UpdateResume(r models.Resume) (models.Resume, error) {
	var out models.Resume
	found := s.mutate(Change{Kind: ChangeDocuments}, func(st *Snapshot) bool {
		list := st.Documents.Resumes
		i := resumeIndex(list, r.ID)
		if i < 0 {
			return false
		}
		r.CreatedAt = list[i].CreatedAt
		r.UpdatedAt = s.now()
		if r.IsPrimary {
			for k := range list {
				list[k].IsPrimary = false
			}
		} else {
			r.IsPrimary = list[i].IsPrimary
		}
		list[i] = r
		out = r
		return true
	})
	if !found {
		return models.Resume{}, apperrors.NewNotFoundError("resume", r.ID)
	}
	return out, nil
}

// DeleteResume removes a resume. Deleting the primary promotes the most
// recently updated remaining one.
func (s *Store) DeleteResume(id string) error {
	found := s.mutate(Change{Kind: ChangeDocuments}, func(st *Snapshot) bool {
		list := st.Documents.Resumes
		i := resumeIndex(list, id)
		if i < 0 {
			return false
		}
		wasPrimary := list[i].IsPrimary
		list = append(list[:i:i], list[i+1:]...)
		if wasPrimary && len(list) > 0 {
			newest := 0
			for k := range list {
				if list[k].UpdatedAt.After(list[newest].UpdatedAt) {
					newest = k
				}
			}
			list[newest].IsPrimary = true
		}
		st.Documents.Resumes = list
		return true
	})
	if !found {
		return apperrors.NewNotFoundError("resume", id)
	}
	return nil
}

func (s *Store) SetPrimaryResume(id string) error {
	found := s.mutate(Change{Kind: ChangeDocuments}, func(st *Snapshot) bool {
		list := st.Documents.Resumes
		if resumeIndex(list, id) < 0 {
			return false
		}
		for k := range list {
			list[k].IsPrimary = list[k].ID == id
		}
		return true
	})
	if !found {
		return apperrors.NewNotFoundError("resume", id)
	}
	return nil
}

func resumeIndex(list []models.Resume, id string) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}

// --- cover letter templates ---

// AddCoverLetter stores t; the first template becomes the default.
func (s *Store) AddCoverLetter(t models.CoverLetterTemplate) models.CoverLetterTemplate {
	s.stamp(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	s.mutate(Change{Kind: ChangeDocuments}, func(st *Snapshot) bool {
		list := st.Documents.CoverLetters
		if len(list) == 0 {
			t.IsDefault = true
		}
		if t.IsDefault {
			for i := range list {
				list[i].IsDefault = false
			}
		}
		st.Documents.CoverLetters = append(list, t)
		return true
	})
	return t
}

func (s *Store) UpdateCoverLetter(t models.CoverLetterTemplate) (models.CoverLetterTemplate, error) {
	var out models.CoverLetterTemplate
	found := s.mutate(Change{Kind: ChangeDocuments}, func(st *Snapshot) bool {
		list := st.Documents.CoverLetters
		i := coverLetterIndex(list, t.ID)
		if i < 0 {
			return false
		}
		t.CreatedAt = list[i].CreatedAt
		t.UpdatedAt = s.now()
		if t.IsDefault {
			for k := range list {
				list[k].IsDefault = false
			}
		} else {
			t.IsDefault = list[i].IsDefault
		}
		list[i] = t
		out = t
		return true
	})
	if !found {
		return models.CoverLetterTemplate{}, apperrors.NewNotFoundError("cover letter", t.ID)
	}
	return out, nil
}

func (s *Store) DeleteCoverLetter(id string) error {
	found := s.mutate(Change{Kind: ChangeDocuments}, func(st *Snapshot) bool {
		list := st.Documents.CoverLetters
		i := coverLetterIndex(list, id)
		if i < 0 {
			return false
		}
		wasDefault := list[i].IsDefault
		list = append(list[:i:i], list[i+1:]...)
		if wasDefault && len(list) > 0 {
			newest := 0
			for k := range list {
				if list[k].UpdatedAt.After(list[newest].UpdatedAt) {
					newest = k
				}
			}
			list[newest].IsDefault = true
		}
		st.Documents.CoverLetters = list
		return true
	})
	if !found {
		return apperrors.NewNotFoundError("cover letter", id)
	}
	return nil
}

func (s *Store) SetDefaultCoverLetter(id string) error {
	found := s.mutate(Change{Kind: ChangeDocuments}, func(st *Snapshot) bool {
		list := st.Documents.CoverLetters
		if coverLetterIndex(list, id) < 0 {
			return false
		}
		for k := range list {
			list[k].IsDefault = list[k].ID == id
		}
		return true
	})
	if !found {
		return apperrors.NewNotFoundError("cover letter", id)
	}
	return nil
}

func coverLetterIndex(list []models.CoverLetterTemplate, id string) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}

// --- portfolio links ---

func (s *Store) AddPortfolioLink(l models.PortfolioLink) models.PortfolioLink {
	s.stamp(&l.ID, &l.CreatedAt, &l.UpdatedAt)
	s.mutate(Change{Kind: ChangeDocuments}, func(st *Snapshot) bool {
		st.Documents.Portfolio = append(st.Documents.Portfolio, l)
		return true
	})
	return l
}

func (s *Store) UpdatePortfolioLink(l models.PortfolioLink) (models.PortfolioLink, error) {
	found := s.mutate(Change{Kind: ChangeDocuments}, func(st *Snapshot) bool {
		for i := range st.Documents.Portfolio {
			if st.Documents.Portfolio[i].ID == l.ID {
				l.CreatedAt = st.Documents.Portfolio[i].CreatedAt
				l.UpdatedAt = s.now()
				st.Documents.Portfolio[i] = l
				return true
			}
		}
		return false
	})
	if !found {
		return models.PortfolioLink{}, apperrors.NewNotFoundError("portfolio link", l.ID)
	}
	return l, nil
}

func (s *Store) DeletePortfolioLink(id string) error {
	found := s.mutate(Change{Kind: ChangeDocuments}, func(st *Snapshot) bool {
		list := st.Documents.Portfolio
		for i := range list {
			if list[i].ID == id {
				st.Documents.Portfolio = append(list[:i:i], list[i+1:]...)
				return true
			}
		}
		return false
	})
	if !found {
		return apperrors.NewNotFoundError("portfolio link", id)
	}
	return nil
}

// --- certificates ---

func (s *Store) AddCertificate(c models.Certificate) models.Certificate {
	s.stamp(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	s.mutate(Change{Kind: ChangeDocuments}, func(st *Snapshot) bool {
		st.Documents.Certificates = append(st.Documents.Certificates, c)
		return true
	})
	return c
}

func (s *Store) UpdateCertificate(c models.Certificate) (models.Certificate, error) {
	found := s.mutate(Change{Kind: ChangeDocuments}, func(st *Snapshot) bool {
		for i := range st.Documents.Certificates {
			if st.Documents.Certificates[i].ID == c.ID {
				c.CreatedAt = st.Documents.Certificates[i].CreatedAt
				c.UpdatedAt = s.now()
				st.Documents.Certificates[i] = c
				return true
			}
		}
		return false
	})
	if !found {
		return models.Certificate{}, apperrors.NewNotFoundError("certificate", c.ID)
	}
	return c, nil
}

func (s *Store) DeleteCertificate(id string) error {
	found := s.mutate(Change{Kind: ChangeDocuments}, func(st *Snapshot) bool {
		list := st.Documents.Certificates
		for i := range list {
			if list[i].ID == id {
				st.Documents.Certificates = append(list[:i:i], list[i+1:]...)
				return true
			}
		}
		return false
	})
	if !found {
		return apperrors.NewNotFoundError("certificate", id)
	}
	return nil
}
