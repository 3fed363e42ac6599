// internal/search/elastic.go
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	apperrors "jobtracker/internal/common/errors"
	"jobtracker/internal/common/logger"
	"jobtracker/internal/models"
)

var indexMapping = map[string]interface{}{
	"mappings": map[string]interface{}{
		"properties": map[string]interface{}{
			"user_id":        map[string]string{"type": "keyword"},
			"company":        map[string]string{"type": "text"},
			"title":          map[string]string{"type": "text"},
			"location":       map[string]string{"type": "text"},
			"notes":          map[string]string{"type": "text"},
			"recruiter_name": map[string]string{"type": "text"},
			"status":         map[string]string{"type": "keyword"},
			"job_type":       map[string]string{"type": "keyword"},
			"updated_at":     map[string]string{"type": "date"},
		},
	},
}

type jobDocument struct {
	UserID        string        `json:"user_id,omitempty"`
	Company       string        `json:"company"`
	Title         string        `json:"title"`
	Location      string        `json:"location,omitempty"`
	Notes         string        `json:"notes,omitempty"`
	RecruiterName string        `json:"recruiter_name,omitempty"`
	Status        models.Status `json:"status"`
	JobType       string        `json:"job_type,omitempty"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string      `json:"_id"`
			Score  float64     `json:"_score"`
			Source jobDocument `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

type ElasticIndex struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewElasticIndex(client *elasticsearch.Client, index string, log logger.Logger) *ElasticIndex {
	return &ElasticIndex{
		client: client,
		index:  index,
		logger: logger.Component(log, "search"),
	}
}

// EnsureIndex creates the index with its mapping if it does not exist.
func (e *ElasticIndex) EnsureIndex(ctx context.Context) error {
	res, err := esapi.IndicesExistsRequest{Index: []string{e.index}}.Do(ctx, e.client)
	if err != nil {
		return fmt.Errorf("check index %s: %w", e.index, err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	body, _ := json.Marshal(indexMapping)
	res, err = esapi.IndicesCreateRequest{Index: e.index, Body: bytes.NewReader(body)}.Do(ctx, e.client)
	if err != nil {
		return fmt.Errorf("create index %s: %w", e.index, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("create index %s: %s", e.index, res.String())
	}
	e.logger.Info("Created search index", map[string]interface{}{"index": e.index})
	return nil
}

func (e *ElasticIndex) IndexJob(ctx context.Context, job models.Job) error {
	body, err := json.Marshal(jobDocument{
		UserID:        job.UserID,
		Company:       job.Company,
		Title:         job.Title,
		Location:      job.Location,
		Notes:         job.Notes,
		RecruiterName: job.RecruiterName,
		Status:        job.Status,
		JobType:       job.JobType,
		UpdatedAt:     job.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("encode job %s: %w", job.ID, err)
	}

	res, err := esapi.IndexRequest{
		Index:      e.index,
		DocumentID: job.ID,
		Body:       bytes.NewReader(body),
	}.Do(ctx, e.client)
	if err != nil {
		return fmt.Errorf("index job %s: %w", job.ID, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index job %s: %s", job.ID, res.String())
	}
	return nil
}

// DeleteJob treats a missing document as already deleted.
func (e *ElasticIndex) DeleteJob(ctx context.Context, id string) error {
	res, err := esapi.DeleteRequest{Index: e.index, DocumentID: id}.Do(ctx, e.client)
	if err != nil {
		return fmt.Errorf("delete job %s: %w", id, err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("delete job %s: %s", id, res.String())
	}
	return nil
}

func (e *ElasticIndex) Search(ctx context.Context, userID, query string, limit int) ([]Hit, error) {
	if limit <= 0 || limit > 100 {
		limit = DefaultLimit
	}

	body, _ := json.Marshal(buildQuery(userID, query))
	res, err := esapi.SearchRequest{
		Index: []string{e.index},
		Body:  bytes.NewReader(body),
		Size:  &limit,
	}.Do(ctx, e.client)
	if err != nil {
		return nil, apperrors.NewSearchFailedError(err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, apperrors.NewSearchFailedError(fmt.Errorf("search: %s", res.String()))
	}

	var r searchResponse
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, apperrors.NewSearchFailedError(fmt.Errorf("decode search response: %w", err))
	}

	hits := make([]Hit, 0, len(r.Hits.Hits))
	for _, h := range r.Hits.Hits {
		hits = append(hits, Hit{
			ID:       h.ID,
			Company:  h.Source.Company,
			Title:    h.Source.Title,
			Location: h.Source.Location,
			Status:   h.Source.Status,
			Score:    h.Score,
		})
	}
	return hits, nil
}

func buildQuery(userID, query string) map[string]interface{} {
	boolQuery := map[string]interface{}{}
	if userID != "" {
		boolQuery["filter"] = []interface{}{
			map[string]interface{}{"term": map[string]interface{}{"user_id": userID}},
		}
	} else {
		boolQuery["must_not"] = []interface{}{
			map[string]interface{}{"exists": map[string]interface{}{"field": "user_id"}},
		}
	}

	if query != "" {
		boolQuery["must"] = []interface{}{
			map[string]interface{}{
				"multi_match": map[string]interface{}{
					"query":     query,
					"fields":    []string{"company^3", "title^2", "location", "notes", "recruiter_name"},
					"type":      "best_fields",
					"fuzziness": "AUTO",
				},
			},
		}
	}

	return map[string]interface{}{
		"query": map[string]interface{}{"bool": boolQuery},
		"sort":  []interface{}{"_score", map[string]interface{}{"updated_at": "desc"}},
	}
}
