// Package memory is an in-process implementation of the store contracts.
// Every mutation runs under one mutex, which gives the same per-document
// atomicity the Mongo implementation gets from conditional updates.
package memory

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	models "github.com/phillip/community-platform-go/models"
	store "github.com/phillip/community-platform-go/store"
)

type db struct {
	mu         sync.RWMutex
	users      map[primitive.ObjectID]*models.User
	posts      map[primitive.ObjectID]*models.Post
	comments   map[primitive.ObjectID]*models.Comment
	businesses map[primitive.ObjectID]*models.Business
	resources  map[primitive.ObjectID]*models.Resource
	events     map[primitive.ObjectID]*models.Event
}

// New returns a fresh, empty set of stores.
func New() *store.Stores {
	d := &db{
		users:      map[primitive.ObjectID]*models.User{},
		posts:      map[primitive.ObjectID]*models.Post{},
		comments:   map[primitive.ObjectID]*models.Comment{},
		businesses: map[primitive.ObjectID]*models.Business{},
		resources:  map[primitive.ObjectID]*models.Resource{},
		events:     map[primitive.ObjectID]*models.Event{},
	}
	return &store.Stores{
		Users:      &Users{d},
		Posts:      &Posts{d},
		Comments:   &Comments{d},
		Businesses: &Businesses{d},
		Resources:  &Resources{d},
		Events:     &Events{d},
		Ping:       func(context.Context) error { return nil },
	}
}

// clone deep-copies a document through its BSON form, so callers never share
// memory with the store and values round-trip the way they would through Mongo.
func clone[T any](v *T) *T {
	raw, err := bson.Marshal(v)
	if err != nil {
		panic("memory: marshal " + err.Error())
	}
	out := new(T)
	if err := bson.Unmarshal(raw, out); err != nil {
		panic("memory: unmarshal " + err.Error())
	}
	return out
}

func values[T any](m map[primitive.ObjectID]*T, keep func(*T) bool) []T {
	out := make([]T, 0, len(m))
	for _, v := range m {
		if keep == nil || keep(v) {
			out = append(out, *clone(v))
		}
	}
	return out
}

func paginate[T any](items []T, p store.Page) []T {
	skip := int(p.Skip())
	if skip >= len(items) {
		return []T{}
	}
	items = items[skip:]
	if p.Limit > 0 && p.Limit < len(items) {
		items = items[:p.Limit]
	}
	return items
}

// containsFold mirrors a case-insensitive $regex match on a literal.
func containsFold(q string, fields ...string) bool {
	q = strings.ToLower(q)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

func sortBy[T any](items []T, less func(a, b *T) bool) {
	sort.SliceStable(items, func(i, j int) bool { return less(&items[i], &items[j]) })
}

func idLess(a, b primitive.ObjectID) bool {
	return bytes.Compare(a[:], b[:]) < 0
}
