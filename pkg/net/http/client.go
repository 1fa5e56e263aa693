package http

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/smart715/jobsify/pkg/metrics"
	"golang.org/x/oauth2"
)

const RequestIDHeader = "X-Request-ID"

type Options struct {
	// Timeout of each request, none when 0.
	Timeout time.Duration
	// Token is sent as a bearer token when set.
	Token   string
	Metrics *metrics.Metrics
	Log     *logrus.Entry
	// Base is the transport requests finally go through.
	Base http.RoundTripper
}

// RoundTripperFunc adapts a function to http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// NewClient builds the client used for one entity's REST calls. Each request
// gets a request id, the bearer token and, when o.Metrics is set, a
// request counter and latency sample labelled with entity.
func NewClient(entity string, o Options) *http.Client {
	base := o.Base
	if base == nil {
		base = http.DefaultTransport
	}
	log := o.Log
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	rt := base
	if o.Metrics != nil {
		rt = instrument(entity, o.Metrics, rt)
	}
	rt = requestID(log.WithField("entity", entity), rt)
	if o.Token != "" {
		rt = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: o.Token, TokenType: "Bearer"}),
			Base:   rt,
		}
	}
	return &http.Client{Transport: rt, Timeout: o.Timeout}
}

func requestID(log *logrus.Entry, next http.RoundTripper) http.RoundTripper {
	return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		if r.Header.Get(RequestIDHeader) == "" {
			r = r.Clone(r.Context())
			r.Header.Set(RequestIDHeader, uuid.NewString())
		}
		log.WithFields(logrus.Fields{
			"method":     r.Method,
			"url":        r.URL.String(),
			"request_id": r.Header.Get(RequestIDHeader),
		}).Trace("sending request")
		return next.RoundTrip(r)
	})
}

func instrument(entity string, m *metrics.Metrics, next http.RoundTripper) http.RoundTripper {
	return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		start := time.Now()
		res, err := next.RoundTrip(r)
		code := 0
		if err == nil {
			code = res.StatusCode
		}
		m.ObserveRequest(entity, r.Method, code, time.Since(start))
		return res, err
	})
}
