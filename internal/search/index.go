// internal/search/index.go
package search

import (
	"context"
	"strings"

	"jobtracker/internal/models"
)

const DefaultLimit = 20

// Hit is one search result.
type Hit struct {
	ID       string        `json:"id"`
	Company  string        `json:"company"`
	Title    string        `json:"title"`
	Location string        `json:"location,omitempty"`
	Status   models.Status `json:"status"`
	Score    float64       `json:"score"`
}

// Index is a full-text mirror of the job list. An empty userID addresses
// jobs created while signed out.
type Index interface {
	IndexJob(ctx context.Context, job models.Job) error
	DeleteJob(ctx context.Context, id string) error
	Search(ctx context.Context, userID, query string, limit int) ([]Hit, error)
}

// NopIndex is used when no search cluster is configured.
type NopIndex struct{}

func (NopIndex) IndexJob(context.Context, models.Job) error { return nil }
func (NopIndex) DeleteJob(context.Context, string) error    { return nil }
func (NopIndex) Search(context.Context, string, string, int) ([]Hit, error) {
	return []Hit{}, nil
}

// MatchLocal scans jobs in order and keeps those where every query term
// appears in one of the searchable fields.
func MatchLocal(jobs []models.Job, query string, limit int) []Hit {
	if limit <= 0 {
		limit = DefaultLimit
	}
	terms := strings.Fields(strings.ToLower(query))
	hits := []Hit{}
	for _, j := range jobs {
		if len(hits) == limit {
			break
		}
		haystack := strings.ToLower(strings.Join([]string{
			j.Company, j.Title, j.Location, j.Notes, j.RecruiterName, j.HiringManager,
		}, "\n"))
		matched := 0
		for _, t := range terms {
			if strings.Contains(haystack, t) {
				matched++
			}
		}
		if len(terms) > 0 && matched < len(terms) {
			continue
		}
		hits = append(hits, hitFromJob(j, float64(matched)))
	}
	return hits
}

func hitFromJob(j models.Job, score float64) Hit {
	return Hit{
		ID:       j.ID,
		Company:  j.Company,
		Title:    j.Title,
		Location: j.Location,
		Status:   j.Status,
		Score:    score,
	}
}
