// Package memory is an in-process implementation of db.Collection. It backs
// the mock REST collaborator and tests.
package memory

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/smart715/jobsify/pkg/db"
	v1 "github.com/smart715/jobsify/pkg/types/v1"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type Collection struct {
	*sync.Mutex
	name     string
	idField  string
	required []string

	order   []v1.ID
	entries map[v1.ID]v1.Record
	nextID  int64
}

var _ db.Collection[v1.Record] = (*Collection)(nil)

// New returns an empty collection. Creating or updating a record without one
// of the required fields fails the way the REST server does, with status 400
// and a "<Field> required" message.
func New(name, idField string, required ...string) *Collection {
	if idField == "" {
		idField = v1.DefaultIDField
	}
	return &Collection{
		Mutex:    &sync.Mutex{},
		name:     name,
		idField:  idField,
		required: required,
		entries:  map[v1.ID]v1.Record{},
	}
}

func (c *Collection) Name() string { return c.name }

func (c *Collection) IDField() string { return c.idField }

// Seed appends records, assigning ids to those without one.
func (c *Collection) Seed(records ...v1.Record) {
	c.Lock()
	defer c.Unlock()
	for _, r := range records {
		r = r.Clone()
		id, ok := r.Identifier(c.idField)
		if !ok {
			id = c.allocateID()
			r[c.idField] = json.Number(id)
		}
		c.bumpNextID(id)
		if _, exists := c.entries[id]; !exists {
			c.order = append(c.order, id)
		}
		c.entries[id] = r
	}
}

func (c *Collection) Count() int {
	c.Lock()
	defer c.Unlock()
	return len(c.order)
}

func (c *Collection) Get(id v1.ID) (v1.Record, bool) {
	c.Lock()
	defer c.Unlock()
	r, ok := c.entries[id]
	return r.Clone(), ok
}

func (c *Collection) List(ctx context.Context) ([]v1.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, db.FetchError(c.name, 0, "", err)
	}
	c.Lock()
	defer c.Unlock()
	out := make([]v1.Record, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.entries[id].Clone())
	}
	return out, nil
}

func (c *Collection) Create(ctx context.Context, payload v1.Record) (v1.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, db.MutationError("create", c.name, 0, "", err)
	}
	if err := c.checkRequired("create", payload); err != nil {
		return nil, err
	}

	c.Lock()
	defer c.Unlock()
	r := payload.Clone()
	if r == nil {
		r = v1.Record{}
	}
	id, ok := r.Identifier(c.idField)
	if ok {
		if _, exists := c.entries[id]; exists {
			return nil, db.MutationError("create", c.name, http.StatusConflict, "id "+id.String()+" already exists", nil)
		}
		c.bumpNextID(id)
	} else {
		id = c.allocateID()
		r[c.idField] = json.Number(id)
	}
	c.entries[id] = r
	c.order = append(c.order, id)
	return r.Clone(), nil
}

func (c *Collection) Update(ctx context.Context, id v1.ID, payload v1.Record) (v1.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, db.MutationError("update", c.name, 0, "", err)
	}
	if err := c.checkRequired("update", payload); err != nil {
		return nil, err
	}

	c.Lock()
	defer c.Unlock()
	prev, ok := c.entries[id]
	if !ok {
		return nil, db.MutationError("update", c.name, http.StatusNotFound, "not found", db.ErrNoEntryFound)
	}
	r := payload.Clone()
	if r == nil {
		r = v1.Record{}
	}
	// PUT replaces the record but never its identifier
	r[c.idField] = prev[c.idField]
	c.entries[id] = r
	return r.Clone(), nil
}

func (c *Collection) Delete(ctx context.Context, id v1.ID) error {
	if err := ctx.Err(); err != nil {
		return db.MutationError("delete", c.name, 0, "", err)
	}
	c.Lock()
	defer c.Unlock()
	if _, ok := c.entries[id]; !ok {
		return db.MutationError("delete", c.name, http.StatusNotFound, "not found", db.ErrNoEntryFound)
	}
	delete(c.entries, id)
	for i, o := range c.order {
		if o == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

func (c *Collection) checkRequired(op string, payload v1.Record) error {
	title := cases.Title(language.English)
	for _, f := range c.required {
		v := payload.Get(f)
		if v == nil || strings.TrimSpace(toString(v)) == "" {
			return db.MutationError(op, c.name, http.StatusBadRequest, title.String(f)+" required", nil)
		}
	}
	return nil
}

// allocateID must be called with the lock held.
func (c *Collection) allocateID() v1.ID {
	c.nextID++
	return v1.ID(strconv.FormatInt(c.nextID, 10))
}

func (c *Collection) bumpNextID(id v1.ID) {
	if n, err := strconv.ParseInt(id.String(), 10, 64); err == nil && n > c.nextID {
		c.nextID = n
	}
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}
