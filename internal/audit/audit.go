// Package audit keeps a searchable trail of session transitions in
// Elasticsearch. Indexing is best-effort, same as event publishing: the
// relational session ledger stays the source of truth.
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/google/uuid"
)

const Index = "passport-audit"

type Entry struct {
	Username   string    `json:"username"`
	Action     string    `json:"action"`
	SessionID  string    `json:"session_id,omitempty"`
	IPAddress  string    `json:"ip_address,omitempty"`
	DeviceInfo string    `json:"device_info,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

type Config struct {
	URL      string
	Username string
	Password string
}

func NewClient(cfg Config, l *slog.Logger) (*elasticsearch.Client, error) {
	l.Info("connecting to elasticsearch", "url", cfg.URL)

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}

	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("elasticsearch error: %s: %s", res.Status(), body)
	}

	return client, nil
}

type Trail struct {
	ES *elasticsearch.Client
}

func (t *Trail) Record(ctx context.Context, entry Entry) error {
	if t == nil || t.ES == nil {
		return nil
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(entry); err != nil {
		return fmt.Errorf("audit encode: %w", err)
	}

	res, err := t.ES.Index(
		Index,
		&buf,
		t.ES.Index.WithContext(ctx),
		t.ES.Index.WithDocumentID(uuid.NewString()),
	)
	if err != nil {
		return fmt.Errorf("audit index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("audit index: %s", res.Status())
	}
	return nil
}

// Search matches username and action, newest first.
func (t *Trail) Search(ctx context.Context, query string, from, size int) (int64, []Entry, error) {
	if t == nil || t.ES == nil {
		return 0, nil, nil
	}

	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  query,
				"fields": []string{"username^2", "action"},
			},
		},
		"sort": []map[string]any{{"timestamp": map[string]any{"order": "desc"}}},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("audit search encode: %w", err)
	}

	res, err := t.ES.Search(
		t.ES.Search.WithContext(ctx),
		t.ES.Search.WithIndex(Index),
		t.ES.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("audit search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("audit search: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct{ Value int64 } `json:"total"`
			Hits  []struct {
				Source Entry `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, err
	}

	entries := make([]Entry, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		entries[i] = hit.Source
	}
	return r.Hits.Total.Value, entries, nil
}
