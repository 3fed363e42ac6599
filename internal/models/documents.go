// internal/models/documents.go
package models

import "time"

type DocumentKind string

const (
	DocumentResumes      DocumentKind = "resumes"
	DocumentCoverLetters DocumentKind = "cover-letters"
	DocumentPortfolio    DocumentKind = "portfolio"
	DocumentCertificates DocumentKind = "certificates"
)

func (k DocumentKind) Valid() bool {
	switch k {
	case DocumentResumes, DocumentCoverLetters, DocumentPortfolio, DocumentCertificates:
		return true
	}
	return false
}

type Resume struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Content   string    `json:"content,omitempty"`
	FileURL   string    `json:"file_url,omitempty"`
	IsPrimary bool      `json:"is_primary"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CoverLetterTemplate struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Content   string    `json:"content"`
	IsDefault bool      `json:"is_default"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type PortfolioLink struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Certificate struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Issuer        string     `json:"issuer,omitempty"`
	IssueDate     *time.Time `json:"issue_date,omitempty"`
	ExpiryDate    *time.Time `json:"expiry_date,omitempty"`
	CredentialURL string     `json:"credential_url,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type Documents struct {
	Resumes      []Resume              `json:"resumes"`
	CoverLetters []CoverLetterTemplate `json:"cover_letters"`
	Portfolio    []PortfolioLink       `json:"portfolio"`
	Certificates []Certificate         `json:"certificates"`
}

func (d Documents) Clone() Documents {
	return Documents{
		Resumes:      append([]Resume(nil), d.Resumes...),
		CoverLetters: append([]CoverLetterTemplate(nil), d.CoverLetters...),
		Portfolio:    append([]PortfolioLink(nil), d.Portfolio...),
		Certificates: append([]Certificate(nil), d.Certificates...),
	}
}
