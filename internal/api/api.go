// Package api exposes one access service per backend collection. Services
// shape payloads, inject the authenticated user where ownership demands it,
// and normalize every failure; they hold no record state of their own.
package api

import (
	"encoding/json"

	"github.com/fishlogapp/fishlog-go/pkg/recordstore"
)

// Collection names on the backend.
const (
	CollectionCatches    = "catches"
	CollectionGroups     = "fishing_groups"
	CollectionEvents     = "events"
	CollectionChallenges = "challenges"
	CollectionComments   = "comments"
	CollectionUsers      = "users"
)

// defaultPerPage matches every current call site; there is no pagination UI.
const defaultPerPage = 50

// AuthSession is the slice of the session that services need: who, if
// anyone, is signed in.
type AuthSession interface {
	CurrentUserID() string
}

// ListOptions narrow a service listing. Zero values fall back to the
// collection's defaults (sort -created, its usual expands).
type ListOptions struct {
	Filter     string
	Sort       string
	Expand     string
	RequestKey string
}

// List is one decoded page of records.
type List[T any] struct {
	Items      []T
	TotalItems int
	TotalPages int
	Page       int
}

func decodeList[T any](res *recordstore.ListResult) (*List[T], error) {
	list := &List[T]{
		Items:      make([]T, 0, len(res.Items)),
		TotalItems: res.TotalItems,
		TotalPages: res.TotalPages,
		Page:       res.Page,
	}
	for _, raw := range res.Items {
		var item T
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, err
		}
		list.Items = append(list.Items, item)
	}
	return list, nil
}

func decodeRecord[T any](raw json.RawMessage) (*T, error) {
	var item T
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (o ListOptions) withDefaults(sort, expand string) ListOptions {
	if o.Sort == "" {
		o.Sort = sort
	}
	if o.Expand == "" {
		o.Expand = expand
	}
	return o
}

func (o ListOptions) storeOptions() recordstore.ListOptions {
	return recordstore.ListOptions{
		Filter:     o.Filter,
		Sort:       o.Sort,
		Expand:     o.Expand,
		RequestKey: o.RequestKey,
	}
}
