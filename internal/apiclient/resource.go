package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/teamdash/team-dashboard/internal/listquery"
)

type normalizer interface {
	Normalize()
}

// Resource is a REST collection with list/get/create/update/delete
type Resource[T any] struct {
	c    *Client
	path string
	key  string
}

// List fetches one page. It has the listquery.FetchFunc signature.
func (r Resource[T]) List(ctx context.Context, q listquery.Query) (listquery.Result[T], error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(q.Page))
	params.Set("page_size", strconv.Itoa(q.PageSize))
	if q.SearchActive() {
		params.Set("search", q.Search)
	}

	var raw json.RawMessage
	if err := r.c.do(ctx, http.MethodGet, r.path, params, nil, &raw); err != nil {
		return listquery.Result[T]{}, err
	}

	return decodePage[T](raw, r.key)
}

func (r Resource[T]) Get(ctx context.Context, id int64) (*T, error) {
	var item T
	if err := r.c.do(ctx, http.MethodGet, r.itemPath(id), nil, nil, &item); err != nil {
		return nil, err
	}
	normalize(&item)
	return &item, nil
}

func (r Resource[T]) Create(ctx context.Context, body any) (*T, error) {
	var item T
	if err := r.c.do(ctx, http.MethodPost, r.path, nil, body, &item); err != nil {
		return nil, err
	}
	normalize(&item)
	return &item, nil
}

func (r Resource[T]) Update(ctx context.Context, id int64, body any) (*T, error) {
	var item T
	if err := r.c.do(ctx, http.MethodPut, r.itemPath(id), nil, body, &item); err != nil {
		return nil, err
	}
	normalize(&item)
	return &item, nil
}

func (r Resource[T]) Delete(ctx context.Context, id int64) error {
	return r.c.do(ctx, http.MethodDelete, r.itemPath(id), nil, nil, nil)
}

func (r Resource[T]) itemPath(id int64) string {
	return fmt.Sprintf("%s%d/", r.path, id)
}

func normalize[T any](item *T) {
	if n, ok := any(item).(normalizer); ok {
		n.Normalize()
	}
}

type pageEnvelope struct {
	Count    *int            `json:"count"`
	Next     *string         `json:"next"`
	Previous *string         `json:"previous"`
	Results  json.RawMessage `json:"results"`
}

// decodePage reads {count, next, previous, results: {<key>: [...],
// filtered_count}}. Missing pieces degrade: no items means an empty page, no
// filtered_count means the total count. A bare array or a results array
// without the wrapping object is accepted as well.
func decodePage[T any](raw json.RawMessage, key string) (listquery.Result[T], error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return listquery.Result[T]{Items: []T{}}, nil
	}

	if raw[0] == '[' {
		items, err := decodeItems[T](raw)
		if err != nil {
			return listquery.Result[T]{}, err
		}
		return listquery.Result[T]{Items: items, TotalCount: len(items), FilteredCount: len(items)}, nil
	}

	var env pageEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return listquery.Result[T]{}, fmt.Errorf("%w: decode page: %w", ErrUpstream, err)
	}

	items := []T{}
	filtered := -1

	results := bytes.TrimSpace(env.Results)
	switch {
	case len(results) == 0 || bytes.Equal(results, []byte("null")):
	case results[0] == '[':
		decoded, err := decodeItems[T](results)
		if err != nil {
			return listquery.Result[T]{}, err
		}
		items = decoded
	default:
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(results, &fields); err != nil {
			return listquery.Result[T]{}, fmt.Errorf("%w: decode results: %w", ErrUpstream, err)
		}
		if data, ok := fields[key]; ok {
			decoded, err := decodeItems[T](data)
			if err != nil {
				return listquery.Result[T]{}, err
			}
			items = decoded
		}
		if data, ok := fields["filtered_count"]; ok {
			var n int
			if err := json.Unmarshal(data, &n); err == nil {
				filtered = n
			}
		}
	}

	total := len(items)
	if env.Count != nil {
		total = *env.Count
	}
	if filtered < 0 {
		filtered = total
	}

	return listquery.Result[T]{Items: items, TotalCount: total, FilteredCount: filtered}, nil
}

func decodeItems[T any](raw json.RawMessage) ([]T, error) {
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: decode items: %w", ErrUpstream, err)
	}
	if items == nil {
		items = []T{}
	}
	for i := range items {
		normalize(&items[i])
	}
	return items, nil
}
