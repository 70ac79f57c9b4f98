package search

import (
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	meili "github.com/meilisearch/meilisearch-go"
	"go.uber.org/zap"
)

const idxTasks = "pragati_tasks"

// Meili implements Engine on Meilisearch.
type Meili struct {
	client  meili.ServiceManager
	log     *zap.Logger
	healthy atomic.Bool
	done    chan struct{}
}

// NewMeili connects to Meilisearch and configures the task index. An
// unreachable server is not an error: the engine reports unhealthy and a
// background loop keeps checking.
func NewMeili(url, apiKey string, log *zap.Logger) *Meili {
	m := &Meili{
		client: meili.New(url, meili.WithAPIKey(apiKey)),
		log:    log,
		done:   make(chan struct{}),
	}
	if _, err := m.client.Health(); err != nil {
		log.Warn("meilisearch unavailable", zap.String("url", url), zap.Error(err))
		m.healthy.Store(false)
	} else {
		m.healthy.Store(true)
		m.configureIndex()
	}
	go m.healthLoop()
	return m
}

func (m *Meili) configureIndex() {
	if _, err := m.client.CreateIndex(&meili.IndexConfig{Uid: idxTasks, PrimaryKey: "id"}); err != nil {
		m.log.Debug("create index (may already exist)", zap.String("index", idxTasks), zap.Error(err))
	}
	index := m.client.Index(idxTasks)
	filterable := []interface{}{"collection", "status", "priority", "assignee"}
	if _, err := index.UpdateFilterableAttributes(&filterable); err != nil {
		m.log.Warn("update filterable attributes", zap.Error(err))
	}
	searchable := []string{"title", "description"}
	if _, err := index.UpdateSearchableAttributes(&searchable); err != nil {
		m.log.Warn("update searchable attributes", zap.Error(err))
	}
}

func (m *Meili) healthLoop() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			_, err := m.client.Health()
			was := m.healthy.Load()
			m.healthy.Store(err == nil)
			if err == nil && !was {
				m.log.Info("meilisearch recovered, reconfiguring index")
				m.configureIndex()
			}
		}
	}
}

// Close stops the health loop.
func (m *Meili) Close() {
	close(m.done)
}

// Healthy implements Engine.
func (m *Meili) Healthy() bool {
	return m.healthy.Load()
}

// SearchTasks implements Engine.
func (m *Meili) SearchTasks(collection, q string, limit int) ([]string, error) {
	if !m.healthy.Load() {
		return nil, fmt.Errorf("meilisearch unhealthy")
	}
	resp, err := m.client.MultiSearch(&meili.MultiSearchRequest{
		Queries: []*meili.SearchRequest{{
			IndexUID: idxTasks,
			Query:    q,
			Limit:    int64(limit),
			Filter:   fmt.Sprintf("collection = %q", collection),
		}},
	})
	if err != nil {
		m.healthy.Store(false)
		return nil, fmt.Errorf("meilisearch search: %w", err)
	}
	var ids []string
	for _, r := range resp.Results {
		for _, hit := range r.Hits {
			var id string
			if raw, ok := hit["id"]; ok && json.Unmarshal(raw, &id) == nil && id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids, nil
}

// IndexTask implements Engine.
func (m *Meili) IndexTask(rec TaskRecord) error {
	_, err := m.client.Index(idxTasks).AddDocuments([]TaskRecord{rec}, nil)
	return err
}

// DeleteTask implements Engine.
func (m *Meili) DeleteTask(id string) error {
	_, err := m.client.Index(idxTasks).DeleteDocument(id, nil)
	return err
}
