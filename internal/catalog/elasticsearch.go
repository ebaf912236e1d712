package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"menu-recommender/internal/common/config"
	"menu-recommender/internal/common/errors"
	"menu-recommender/internal/common/validation"
	"menu-recommender/internal/models"
)

const menuDocumentSchema = `{
	"type": "object",
	"required": ["menu_id", "restaurant_id"],
	"properties": {
		"menu_id":       {"type": ["integer", "string"]},
		"restaurant_id": {"type": ["integer", "string"]},
		"place_name":    {"type": "string"},
		"menu_name":     {"type": "string"},
		"menu_price":    {"type": ["number", "string"]},
		"region":        {"type": "string"},
		"address":       {"type": ["string", "null"]},
		"url":           {"type": ["string", "null"]},
		"allergy":       {"type": ["string", "array", "null"], "items": {"type": "string"}}
	}
}`

const defaultPageSize = 500

// ESSource pages through a menu index with search_after on menu_id.
type ESSource struct {
	client    *elasticsearch.Client
	index     string
	pageSize  int
	validator *validation.DocumentValidator
}

func NewESSource(client *elasticsearch.Client, index string, pageSize int) (*ESSource, error) {
	if index == "" {
		return nil, fmt.Errorf("catalog index is required")
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	validator, err := validation.NewDocumentValidator(menuDocumentSchema)
	if err != nil {
		return nil, err
	}
	return &ESSource{client: client, index: index, pageSize: pageSize, validator: validator}, nil
}

func (s *ESSource) Name() string { return config.CatalogSourceElasticsearch }

func (s *ESSource) Load(ctx context.Context) ([]models.MenuItem, error) {
	var (
		items       []models.MenuItem
		searchAfter []interface{}
	)

	for {
		hits, err := s.page(ctx, searchAfter)
		if err != nil {
			return nil, err
		}
		if len(hits) == 0 {
			break
		}

		for _, hit := range hits {
			item, err := s.toItem(hit)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}

		last := hits[len(hits)-1]
		sortValues, ok := last["sort"].([]interface{})
		if !ok || len(hits) < s.pageSize {
			break
		}
		searchAfter = sortValues
	}

	return items, nil
}

func (s *ESSource) page(ctx context.Context, searchAfter []interface{}) ([]map[string]interface{}, error) {
	query := map[string]interface{}{
		"size":  s.pageSize,
		"query": map[string]interface{}{"match_all": map[string]interface{}{}},
		"sort":  []interface{}{map[string]interface{}{"menu_id": "asc"}},
	}
	if len(searchAfter) > 0 {
		query["search_after"] = searchAfter
	}
	body, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}

	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  strings.NewReader(string(body)),
	}

	res, err := req.Do(ctx, s.client)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.NewSearchTimeoutError(s.index)
		}
		return nil, errors.NewSearchQueryFailedError(s.index, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, errors.NewIndexNotFoundError(s.index)
	}
	if res.IsError() {
		return nil, errors.NewSearchQueryFailedError(s.index, fmt.Errorf("search failed: %s", res.String()))
	}

	var r map[string]interface{}
	dec := json.NewDecoder(res.Body)
	dec.UseNumber()
	if err := dec.Decode(&r); err != nil {
		return nil, errors.NewSearchQueryFailedError(s.index, err)
	}

	outer, _ := r["hits"].(map[string]interface{})
	raw, _ := outer["hits"].([]interface{})

	hits := make([]map[string]interface{}, 0, len(raw))
	for _, h := range raw {
		if hit, ok := h.(map[string]interface{}); ok {
			hits = append(hits, hit)
		}
	}
	return hits, nil
}

func (s *ESSource) toItem(hit map[string]interface{}) (models.MenuItem, error) {
	docID, _ := hit["_id"].(string)
	source, ok := hit["_source"].(map[string]interface{})
	if !ok {
		return models.MenuItem{}, integrityError(s.Name(), "document %s has no _source", docID)
	}

	result, err := s.validator.Validate(source)
	if err != nil {
		return models.MenuItem{}, errors.NewCatalogLoadFailedError(s.Name(), err)
	}
	if !result.Valid {
		return models.MenuItem{}, integrityError(s.Name(), "document %s: %s", docID, strings.Join(result.GetErrorMessages(), "; "))
	}

	rec := make(rawRecord, len(RequiredColumns))
	for _, col := range RequiredColumns {
		rec[col] = fieldString(source[col])
	}
	item, err := toMenuItem(rec, "document "+docID)
	if err != nil {
		return models.MenuItem{}, integrityError(s.Name(), "%v", err)
	}
	return item, nil
}

// fieldString renders a decoded JSON value the way the tabular sources store it.
func fieldString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case []interface{}:
		parts := make([]string, 0, len(val))
		for _, p := range val {
			parts = append(parts, fieldString(p))
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(val)
	}
}
