package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

const maxPages = 100

type page[T any] struct {
	Count   int    `json:"count"`
	Next    string `json:"next"`
	Results []T    `json:"results"`
}

// listAll fetches a collection endpoint that answers either with a bare JSON
// array or with REST framework pages, following next links.
func listAll[T any](ctx context.Context, c *Client, path string, query url.Values) ([]T, error) {
	items := make([]T, 0)
	next := path

	for pageNo := 0; next != ""; pageNo++ {
		if pageNo == maxPages {
			return nil, fmt.Errorf("list %s: more than %d pages", path, maxPages)
		}

		resp, err := c.Send(ctx, Request{Path: next, Query: query})
		if err != nil {
			return nil, err
		}
		// next links already carry the query string.
		query = nil

		body := bytes.TrimSpace(resp.Body)
		if len(body) > 0 && body[0] == '[' {
			var batch []T
			if err := json.Unmarshal(body, &batch); err != nil {
				return nil, fmt.Errorf("decode %s response: %w", path, err)
			}
			return append(items, batch...), nil
		}

		var current page[T]
		if err := json.Unmarshal(body, &current); err != nil {
			return nil, fmt.Errorf("decode %s response: %w", path, err)
		}
		items = append(items, current.Results...)
		next = current.Next
	}

	return items, nil
}
