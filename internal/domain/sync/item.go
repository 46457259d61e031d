// Package sync models resource records pushed by the system of record.
package sync

import (
	"fmt"

	"github.com/kailas-cloud/vecsync/internal/domain/point"
	"github.com/kailas-cloud/vecsync/internal/domain/value"
)

// Payload keys derived from the record text.
const (
	PayloadTitle       = "title"
	PayloadDescription = "description"
)

// Item is a resource record to be embedded and indexed.
type Item struct {
	id          point.ID
	title       string
	description string
	metadata    value.Map
}

// NewItem validates and creates an Item. Title and description may be empty.
func NewItem(id point.ID, title, description string, metadata value.Map) (Item, error) {
	if id.IsZero() {
		return Item{}, fmt.Errorf("id is required")
	}
	for k, v := range metadata {
		if k == "" {
			return Item{}, fmt.Errorf("metadata key is required")
		}
		if v.Kind() == value.KindInvalid {
			return Item{}, fmt.Errorf("metadata %q has no value", k)
		}
	}
	return Item{id: id, title: title, description: description, metadata: metadata}, nil
}

// ID returns the record identifier.
func (i Item) ID() point.ID { return i.id }

// Title returns the record title.
func (i Item) Title() string { return i.title }

// Description returns the record description.
func (i Item) Description() string { return i.description }

// Metadata returns the filterable attributes.
func (i Item) Metadata() value.Map { return i.metadata }

// Payload merges title and description with metadata.
// Metadata is applied last, so a metadata "title" overrides the record title.
func (i Item) Payload() value.Map {
	p := make(value.Map, len(i.metadata)+2)
	p[PayloadTitle] = value.String(i.title)
	p[PayloadDescription] = value.String(i.description)
	for k, v := range i.metadata {
		p[k] = v
	}
	return p
}
