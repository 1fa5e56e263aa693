// Package rest implements db.Collection against the back office REST API:
//
//	GET    {base}/{entity}       array, or {"{entity}": [...]}
//	POST   {base}/{entity}       200/201 with the created record
//	PUT    {base}/{entity}/{id}  200 with the updated record
//	DELETE {base}/{entity}/{id}  200/204
//
// Non-2xx responses may carry {"error": "..."}.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"
	"github.com/smart715/jobsify/pkg/db"
	v1 "github.com/smart715/jobsify/pkg/types/v1"
)

var (
	ErrUnexpectedShape = errors.New("unexpected response shape")
)

type Client struct {
	base     *url.URL
	entity   string
	envelope string
	idField  string
	http     *http.Client
	log      *logrus.Entry
}

var _ db.Collection[v1.Record] = (*Client)(nil)

type Option func(*Client)

// WithHTTPClient replaces the client used for requests. The default client
// has no timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithEnvelope names the key wrapping the list array. Defaults to the entity
// name.
func WithEnvelope(key string) Option {
	return func(c *Client) {
		if key != "" {
			c.envelope = key
		}
	}
}

func WithIDField(field string) Option {
	return func(c *Client) {
		if field != "" {
			c.idField = field
		}
	}
}

func WithLogger(l *logrus.Entry) Option {
	return func(c *Client) { c.log = l }
}

func New(baseURL, entity string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrapf(err, "parse base url %q", baseURL)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.Errorf("base url %q must be absolute", baseURL)
	}
	if entity == "" {
		return nil, errors.New("entity is required")
	}

	c := &Client{
		base:     u,
		entity:   entity,
		envelope: entity,
		idField:  v1.DefaultIDField,
		http:     http.DefaultClient,
		log:      logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, o := range opts {
		o(c)
	}
	c.log = c.log.WithField("entity", entity)
	return c, nil
}

func (c *Client) Entity() string { return c.entity }

func (c *Client) List(ctx context.Context) ([]v1.Record, error) {
	status, body, err := c.do(ctx, http.MethodGet, c.collectionURL(), nil)
	if err != nil {
		return nil, db.FetchError(c.entity, 0, "", err)
	}
	if !ok(status) {
		return nil, db.FetchError(c.entity, status, errorMessage(body, status), nil)
	}

	rows, err := decodeList(body, c.envelope)
	if err != nil {
		return nil, db.FetchError(c.entity, status, "", err)
	}
	return rows, nil
}

// Create posts payload. When the server answers 2xx without a body the
// payload is returned unchanged, without an identifier.
func (c *Client) Create(ctx context.Context, payload v1.Record) (v1.Record, error) {
	status, body, err := c.do(ctx, http.MethodPost, c.collectionURL(), payload)
	if err != nil {
		return nil, db.MutationError("create", c.entity, 0, "", err)
	}
	if !ok(status) {
		return nil, db.MutationError("create", c.entity, status, errorMessage(body, status), nil)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return payload, nil
	}

	r, err := decodeRecord(body, c.idField)
	if err != nil {
		return nil, db.MutationError("create", c.entity, status, "", err)
	}
	return r, nil
}

func (c *Client) Update(ctx context.Context, id v1.ID, payload v1.Record) (v1.Record, error) {
	status, body, err := c.do(ctx, http.MethodPut, c.itemURL(id), payload)
	if err != nil {
		return nil, db.MutationError("update", c.entity, 0, "", err)
	}
	if !ok(status) {
		return nil, db.MutationError("update", c.entity, status, errorMessage(body, status), nil)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		r := payload.Clone()
		if r == nil {
			r = v1.Record{}
		}
		r[c.idField] = id.String()
		return r, nil
	}

	r, err := decodeRecord(body, c.idField)
	if err != nil {
		return nil, db.MutationError("update", c.entity, status, "", err)
	}
	return r, nil
}

func (c *Client) Delete(ctx context.Context, id v1.ID) error {
	status, body, err := c.do(ctx, http.MethodDelete, c.itemURL(id), nil)
	if err != nil {
		return db.MutationError("delete", c.entity, 0, "", err)
	}
	if !ok(status) {
		return db.MutationError("delete", c.entity, status, errorMessage(body, status), nil)
	}
	return nil
}

func (c *Client) collectionURL() string {
	return c.base.JoinPath(c.entity).String()
}

func (c *Client) itemURL(id v1.ID) string {
	return c.base.JoinPath(c.entity, id.String()).String()
}

func (c *Client) do(ctx context.Context, method, u string, args any) (int, []byte, error) {
	var reqBody io.Reader
	if args != nil {
		b, err := json.Marshal(args)
		if err != nil {
			return 0, nil, errors.Wrap(err, "encode request")
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return 0, nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	r, err := c.http.Do(req)
	if err != nil {
		c.log.WithError(err).WithFields(logrus.Fields{"method": method, "url": u}).Debug("request failed")
		return 0, nil, err
	}
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	c.log.WithFields(logrus.Fields{
		"method":   method,
		"url":      u,
		"status":   r.StatusCode,
		"duration": time.Since(start),
	}).Debug("request done")
	if err != nil {
		return r.StatusCode, nil, errors.Wrap(err, "read response")
	}
	return r.StatusCode, body, nil
}

func ok(status int) bool {
	return status >= 200 && status < 300
}

type errorBody struct {
	Error string `json:"error"`
}

// errorMessage extracts {"error": "..."} from a failed response, falling
// back to a generic message.
func errorMessage(body []byte, status int) string {
	var e errorBody
	if err := json.Unmarshal(body, &e); err == nil && e.Error != "" {
		return e.Error
	}
	return db.GenericStatusMessage(status)
}

func decode[R any](body []byte) (R, error) {
	var out R
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil {
		return out, errors.Wrap(err, "decode response")
	}
	return out, nil
}

// decodeList accepts a bare array or an object holding the array under
// envelope. An object with exactly one array member is accepted as well.
func decodeList(body []byte, envelope string) ([]v1.Record, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, errors.Wrap(ErrUnexpectedShape, "empty body")
	}

	switch body[0] {
	case '[':
		return decode[[]v1.Record](body)
	case '{':
		wrapped, err := decode[map[string]json.RawMessage](body)
		if err != nil {
			return nil, err
		}
		if raw, found := wrapped[envelope]; found {
			return decode[[]v1.Record](raw)
		}
		var only json.RawMessage
		arrays := 0
		for _, raw := range wrapped {
			if t := bytes.TrimSpace(raw); len(t) > 0 && t[0] == '[' {
				only = t
				arrays++
			}
		}
		if arrays == 1 {
			return decode[[]v1.Record](only)
		}
		return nil, errors.Wrapf(ErrUnexpectedShape, "no %q array in object", envelope)
	}
	return nil, errors.Wrap(ErrUnexpectedShape, "expected array or object")
}

// decodeRecord accepts a record, or an object wrapping a single record.
func decodeRecord(body []byte, idField string) (v1.Record, error) {
	r, err := decode[v1.Record](body)
	if err != nil {
		return nil, err
	}
	if _, found := r[idField]; found || len(r) != 1 {
		return r, nil
	}
	for _, v := range r {
		if inner, isObject := v.(map[string]any); isObject {
			return v1.Record(inner), nil
		}
	}
	return r, nil
}
