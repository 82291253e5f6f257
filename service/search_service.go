package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	model "github.com/Itish41/complytrack/models"
	"github.com/elastic/go-elasticsearch/v8"
)

const taskIndex = "compliance_tasks"

// ErrSearchDisabled is returned by SearchTasks when no elasticsearch URL is configured.
var ErrSearchDisabled = errors.New("task search is not configured")

// TaskIndexer keeps a search index in step with task writes.
type TaskIndexer interface {
	IndexTask(ctx context.Context, task *model.ComplianceTask) error
	DeleteTask(ctx context.Context, id uint) error
}

// SearchService indexes compliance tasks in elasticsearch.
type SearchService struct {
	esClient *elasticsearch.Client
}

// NewSearchService connects to url. An empty url gives a service that skips
// indexing and refuses searches.
func NewSearchService(url string) (*SearchService, error) {
	if url == "" {
		log.Println("ELASTICSEARCH_URL not set, task search disabled")
		return &SearchService{}, nil
	}
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{url},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}
	return &SearchService{esClient: client}, nil
}

func (s *SearchService) Enabled() bool { return s != nil && s.esClient != nil }

func (s *SearchService) IndexTask(ctx context.Context, task *model.ComplianceTask) error {
	if !s.Enabled() {
		return nil
	}
	doc := map[string]interface{}{
		"id":           task.ID,
		"company_id":   task.CompanyID,
		"ai_system_id": task.AISystemID,
		"title":        task.Title,
		"description":  task.Description,
		"notes":        task.Notes,
		"reference":    task.Reference,
		"status":       task.Status,
		"severity":     task.Severity,
		"due_date":     task.DueDate,
		"timestamp":    time.Now().UTC(),
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal task for indexing: %w", err)
	}

	res, err := s.esClient.Index(
		taskIndex,
		bytes.NewReader(body),
		s.esClient.Index.WithDocumentID(strconv.FormatUint(uint64(task.ID), 10)),
		s.esClient.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("index request failed: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch indexing failed: %s", res.String())
	}
	return nil
}

func (s *SearchService) DeleteTask(ctx context.Context, id uint) error {
	if !s.Enabled() {
		return nil
	}
	res, err := s.esClient.Delete(
		taskIndex,
		strconv.FormatUint(uint64(id), 10),
		s.esClient.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("delete request failed: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("elasticsearch delete failed: %s", res.String())
	}
	return nil
}

// SearchTasks runs a full-text query over a company's indexed tasks and
// returns the stored documents.
func (s *SearchService) SearchTasks(ctx context.Context, companyID uint, query string) ([]map[string]interface{}, error) {
	if !s.Enabled() {
		return nil, ErrSearchDisabled
	}
	if query == "" {
		return nil, invalid("search query is required")
	}

	searchQuery := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": map[string]interface{}{
					"multi_match": map[string]interface{}{
						"query":  query,
						"fields": []string{"title^2", "description", "notes", "reference"},
					},
				},
				"filter": map[string]interface{}{
					"term": map[string]interface{}{"company_id": companyID},
				},
			},
		},
	}
	body, err := json.Marshal(searchQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search query: %w", err)
	}

	res, err := s.esClient.Search(
		s.esClient.Search.WithContext(ctx),
		s.esClient.Search.WithIndex(taskIndex),
		s.esClient.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch search failed: %s", res.String())
	}

	var result struct {
		Hits struct {
			Hits []struct {
				Source map[string]interface{} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	tasks := make([]map[string]interface{}, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		if hit.Source != nil {
			tasks = append(tasks, hit.Source)
		}
	}
	return tasks, nil
}
