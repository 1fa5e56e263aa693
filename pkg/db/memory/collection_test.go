package memory

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/go-faster/errors"
	"github.com/smart715/jobsify/pkg/db"
	v1 "github.com/smart715/jobsify/pkg/types/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAssignsIDs(t *testing.T) {
	ctx := context.Background()
	c := New("companies", "id", "name")
	c.Seed(v1.Record{"id": json.Number("7"), "name": "Acme"})

	r, err := c.Create(ctx, v1.Record{"name": "Bento"})
	require.NoError(t, err)
	assert.Equal(t, json.Number("8"), r["id"])

	all, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Acme", all[0]["name"])
	assert.Equal(t, "Bento", all[1]["name"])
}

func TestCreateRequiredField(t *testing.T) {
	c := New("companies", "", "name")
	_, err := c.Create(context.Background(), v1.Record{"name": "  "})
	require.Error(t, err)

	var e *db.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, http.StatusBadRequest, e.Status)
	assert.Equal(t, "Name required", e.Message)
	assert.Zero(t, c.Count())
}

func TestCreateDuplicateID(t *testing.T) {
	c := New("companies", "id")
	c.Seed(v1.Record{"id": "a"})
	_, err := c.Create(context.Background(), v1.Record{"id": "a"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, db.ErrMutationFailed))
}

func TestUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	c := New("invoices", "id")
	c.Seed(v1.Record{"number": "INV-1"}, v1.Record{"number": "INV-2"})

	r, err := c.Update(ctx, "1", v1.Record{"id": "99", "number": "INV-1b"})
	require.NoError(t, err)
	assert.Equal(t, json.Number("1"), r["id"], "identifier is never replaced")

	_, err = c.Update(ctx, "42", v1.Record{})
	assert.True(t, errors.Is(err, db.ErrNoEntryFound))

	require.NoError(t, c.Delete(ctx, "1"))
	err = c.Delete(ctx, "1")
	assert.True(t, errors.Is(err, db.ErrNoEntryFound))

	all, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "INV-2", all[0]["number"])
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New("tasks", "").List(ctx)
	assert.True(t, errors.Is(err, db.ErrFetchFailed))
	assert.True(t, errors.Is(err, context.Canceled))
}
