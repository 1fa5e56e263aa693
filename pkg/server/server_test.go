package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"
	"github.com/smart715/jobsify/pkg/config"
	"github.com/smart715/jobsify/pkg/db"
	"github.com/smart715/jobsify/pkg/db/rest"
	v1 "github.com/smart715/jobsify/pkg/types/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	cfg := config.Default()
	s, err := New(cfg, logrus.NewEntry(logrus.New()))
	require.NoError(t, err)
	hs := httptest.NewServer(s)
	t.Cleanup(hs.Close)
	return s, hs
}

func client(t *testing.T, hs *httptest.Server, entity, envelope string) *rest.Client {
	t.Helper()
	opts := []rest.Option{rest.WithHTTPClient(hs.Client())}
	if envelope != "" {
		opts = append(opts, rest.WithEnvelope(envelope))
	}
	c, err := rest.New(hs.URL+"/api", entity, opts...)
	require.NoError(t, err)
	return c
}

func TestCRUDThroughRESTClient(t *testing.T) {
	_, hs := newServer(t)
	c := client(t, hs, "companies", "")
	ctx := context.Background()

	created, err := c.Create(ctx, v1.Record{"name": "Acme"})
	require.NoError(t, err)
	id, ok := created.Identifier("id")
	require.True(t, ok)

	updated, err := c.Update(ctx, id, v1.Record{"name": "Acme Inc"})
	require.NoError(t, err)
	assert.Equal(t, "Acme Inc", updated["name"])

	rows, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Acme Inc", rows[0]["name"])

	require.NoError(t, c.Delete(ctx, id))
	rows, err = c.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestRequiredFieldIsRejected(t *testing.T) {
	_, hs := newServer(t)
	c := client(t, hs, "companies", "")

	_, err := c.Create(context.Background(), v1.Record{"name": ""})
	require.Error(t, err)
	assert.True(t, errors.Is(err, db.ErrMutationFailed))
	assert.Equal(t, "Name required", db.UserMessage(err))
}

func TestEnvelopedList(t *testing.T) {
	s, hs := newServer(t)
	col, ok := s.Collection("super-admins")
	require.True(t, ok)
	col.Seed(v1.Record{"name": "Ada Lovelace", "email": "ada@example.test"})

	res, err := http.Get(hs.URL + "/api/super-admins")
	require.NoError(t, err)
	defer res.Body.Close()
	var body map[string][]map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	require.Len(t, body["superadmins"], 1)

	rows, err := client(t, hs, "super-admins", "superadmins").List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", rows[0]["name"])
}

func TestErrors(t *testing.T) {
	_, hs := newServer(t)

	res, err := http.Get(hs.URL + "/api/widgets")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	req, err := http.NewRequest(http.MethodDelete, hs.URL+"/api/companies/404", nil)
	require.NoError(t, err)
	res, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	var body map[string]string
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	res.Body.Close()
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Equal(t, "not found", body["error"])

	res, err = http.Post(hs.URL+"/api/companies", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestSeedIsDeterministic(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	a, _ := newServer(t)
	b, _ := newServer(t)
	a.Seed(5, 42, now)
	b.Seed(5, 42, now)

	ca, _ := a.Collection("invoices")
	cb, _ := b.Collection("invoices")
	ra, err := ca.List(context.Background())
	require.NoError(t, err)
	rb, err := cb.List(context.Background())
	require.NoError(t, err)
	require.Len(t, ra, 5)
	assert.Equal(t, ra, rb)
	assert.Equal(t, "INV-0001", ra[0]["invoice_number"])
	assert.NotNil(t, ra[0].Get("client.name"))
}
