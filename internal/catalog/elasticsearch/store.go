// Package elasticsearch serves the catalog contracts from Elasticsearch
// indices of items and vendors.
package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/utafrali/discovery/internal/catalog"
)

// maxEligibleVendors bounds the eligibility query.
const maxEligibleVendors = 10000

// Store is an Elasticsearch-backed catalog.
type Store struct {
	client       *elasticsearch.Client
	itemsIndex   string
	vendorsIndex string
	logger       *slog.Logger
}

var (
	_ catalog.EligibilityResolver = (*Store)(nil)
	_ catalog.ItemLookup          = (*Store)(nil)
	_ catalog.VendorLookup        = (*Store)(nil)
)

// esErrorResponse is used to decode Elasticsearch error responses.
type esErrorResponse struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
	Status int `json:"status"`
}

// esHits decodes the hits section of a search response.
type esHits[T any] struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			Source T `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// New connects to the cluster at esURL and ensures both indices exist.
// Empty index names fall back to the defaults.
func New(ctx context.Context, esURL, itemsIndex, vendorsIndex string, logger *slog.Logger) (*Store, error) {
	if itemsIndex == "" {
		itemsIndex = DefaultItemsIndex
	}
	if vendorsIndex == "" {
		vendorsIndex = DefaultVendorsIndex
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{esURL},
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: create client: %w", err)
	}

	s := &Store{
		client:       client,
		itemsIndex:   itemsIndex,
		vendorsIndex: vendorsIndex,
		logger:       logger,
	}

	if err := s.ensureIndex(ctx, itemsIndex, buildItemsMapping()); err != nil {
		return nil, fmt.Errorf("elasticsearch: ensure items index: %w", err)
	}
	if err := s.ensureIndex(ctx, vendorsIndex, buildVendorsMapping()); err != nil {
		return nil, fmt.Errorf("elasticsearch: ensure vendors index: %w", err)
	}

	return s, nil
}

// Ping checks whether the Elasticsearch cluster is reachable.
func (s *Store) Ping(ctx context.Context) error {
	res, err := s.client.Ping(s.client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping: unexpected status %s", res.Status())
	}
	return nil
}

// ensureIndex creates index with mapping unless it already exists.
func (s *Store) ensureIndex(ctx context.Context, index, mapping string) error {
	res, err := s.client.Indices.Exists([]string{index}, s.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index exists: %w", err)
	}
	_ = res.Body.Close()

	if res.StatusCode == http.StatusOK {
		s.logger.Info("elasticsearch index already exists", slog.String("index", index))
		return nil
	}

	res, err = s.client.Indices.Create(
		index,
		s.client.Indices.Create.WithBody(strings.NewReader(mapping)),
		s.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return responseError("create index", res)
	}

	s.logger.Info("elasticsearch index created", slog.String("index", index))
	return nil
}

// DeleteIndices removes both indices. A missing index is not an error.
func (s *Store) DeleteIndices(ctx context.Context) error {
	res, err := s.client.Indices.Delete(
		[]string{s.itemsIndex, s.vendorsIndex},
		s.client.Indices.Delete.WithContext(ctx),
		s.client.Indices.Delete.WithIgnoreUnavailable(true),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch delete indices: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return responseError("elasticsearch delete indices", res)
	}
	return nil
}

// search runs body against index and decodes the response into dst.
func (s *Store) search(ctx context.Context, op, index string, body map[string]any, dst any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%s: marshal query: %w", op, err)
	}

	res, err := s.client.Search(
		s.client.Search.WithIndex(index),
		s.client.Search.WithBody(bytes.NewReader(data)),
		s.client.Search.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return responseError(op, res)
	}

	if err := json.NewDecoder(res.Body).Decode(dst); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

// bulkIndex writes documents keyed by id with the bulk NDJSON API.
func (s *Store) bulkIndex(ctx context.Context, index string, ids []string, docs []any) error {
	if len(docs) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i := range docs {
		action := map[string]any{"index": map[string]any{"_index": index, "_id": ids[i]}}
		if err := enc.Encode(action); err != nil {
			return fmt.Errorf("encode action: %w", err)
		}
		if err := enc.Encode(docs[i]); err != nil {
			return fmt.Errorf("encode document: %w", err)
		}
	}

	res, err := s.client.Bulk(
		bytes.NewReader(buf.Bytes()),
		s.client.Bulk.WithIndex(index),
		s.client.Bulk.WithRefresh("true"),
		s.client.Bulk.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("bulk index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return responseError("bulk index", res)
	}

	var bulkResp struct {
		Errors bool `json:"errors"`
		Items  []struct {
			Index struct {
				ID    string `json:"_id"`
				Error struct {
					Type   string `json:"type"`
					Reason string `json:"reason"`
				} `json:"error"`
			} `json:"index"`
		} `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&bulkResp); err != nil {
		return fmt.Errorf("bulk index: decode response: %w", err)
	}
	if bulkResp.Errors {
		var msgs []string
		for _, item := range bulkResp.Items {
			if item.Index.Error.Type != "" {
				msgs = append(msgs, fmt.Sprintf("id=%s: %s: %s", item.Index.ID, item.Index.Error.Type, item.Index.Error.Reason))
			}
		}
		return fmt.Errorf("bulk index: partial errors: %s", strings.Join(msgs, "; "))
	}

	s.logger.Debug("bulk indexed documents", slog.String("index", index), slog.Int("count", len(docs)))
	return nil
}

func responseError(op string, res *esapi.Response) error {
	body, _ := io.ReadAll(res.Body)
	var errResp esErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Type != "" {
		return fmt.Errorf("%s: %s: %s", op, errResp.Error.Type, errResp.Error.Reason)
	}
	return fmt.Errorf("%s: unexpected status %s", op, res.Status())
}

// wildcardEscaper escapes the wildcard query metacharacters.
var wildcardEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)

// containsPattern builds a lowercase "*text*" wildcard pattern.
func containsPattern(text string) string {
	return "*" + wildcardEscaper.Replace(strings.ToLower(text)) + "*"
}

func terms(field string, values []string) map[string]any {
	return map[string]any{"terms": map[string]any{field: values}}
}

func term(field string, value any) map[string]any {
	return map[string]any{"term": map[string]any{field: value}}
}
