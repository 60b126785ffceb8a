package records

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harrisonrobin/sonrisas/pkg/config"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"google.golang.org/api/googleapi"
)

const requestIDHeader = "X-Request-ID"

// Client talks to one resource collection of the Record Store and keeps the
// last fetched collection in memory. Successful mutations are applied to the
// cache; failed ones leave it untouched.
type Client[T Record] struct {
	resource string
	baseURL  string
	http     *http.Client
	breaker  *gobreaker.CircuitBreaker
	log      logrus.FieldLogger
	cache    Cache[T]
}

type options struct {
	http    *http.Client
	log     logrus.FieldLogger
	breaker config.Breaker
}

type Option func(*options)

// WithHTTPClient sets the client used for requests, e.g. one carrying a
// bearer token transport.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.http = c }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) { o.log = l }
}

func WithBreaker(b config.Breaker) Option {
	return func(o *options) { o.breaker = b }
}

// NewClient creates a client for the collection at baseURL, e.g.
// https://host/tareas.
func NewClient[T Record](resource, baseURL string, opts ...Option) *Client[T] {
	o := options{breaker: config.Default().Breaker}
	for _, opt := range opts {
		opt(&o)
	}
	if o.http == nil {
		o.http = &http.Client{Timeout: config.Default().API.Timeout}
	}
	if o.log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		o.log = l
	}

	b := o.breaker
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        resource,
		MaxRequests: b.HalfOpenRequests,
		Timeout:     b.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < b.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= b.MaxFailureRatio
		},
		// only transport and server failures count against the Record Store
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, ErrNetwork)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			o.log.WithFields(logrus.Fields{"resource": name, "from": from.String(), "to": to.String()}).
				Warn("circuit breaker state changed")
		},
	})

	return &Client[T]{
		resource: resource,
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     o.http,
		breaker:  cb,
		log:      o.log.WithField("resource", resource),
	}
}

// Resource returns the collection name, e.g. "tareas".
func (c *Client[T]) Resource() string { return c.resource }

// List fetches the whole collection and replaces the cache.
func (c *Client[T]) List(ctx context.Context) ([]T, error) {
	var items []T
	if err := c.do(ctx, "list", "", http.MethodGet, "", nil, &items); err != nil {
		return nil, err
	}
	c.cache.Replace(items)
	return append([]T(nil), items...), nil
}

// Create persists a draft and appends the stored record to the cache.
func (c *Client[T]) Create(ctx context.Context, draft T) (T, error) {
	var created T
	if err := c.do(ctx, "create", "", http.MethodPost, "", draft, &created); err != nil {
		return created, err
	}
	c.cache.Append(created)
	return created, nil
}

// Update replaces the record with the given id.
func (c *Client[T]) Update(ctx context.Context, id string, draft T) (T, error) {
	var updated T
	if err := c.do(ctx, "update", id, http.MethodPut, "/"+url.PathEscape(id), draft, &updated); err != nil {
		return updated, err
	}
	c.cache.Put(id, updated)
	return updated, nil
}

func (c *Client[T]) Delete(ctx context.Context, id string) error {
	if err := c.do(ctx, "delete", id, http.MethodDelete, "/"+url.PathEscape(id), nil, nil); err != nil {
		return err
	}
	c.cache.Remove(id)
	return nil
}

// ToggleStatus flips the record between activo and inactivo.
func (c *Client[T]) ToggleStatus(ctx context.Context, id string) (T, error) {
	var updated T
	path := "/" + url.PathEscape(id) + "/estado"
	if err := c.do(ctx, "toggle", id, http.MethodPatch, path, struct{}{}, &updated); err != nil {
		return updated, err
	}
	c.cache.Put(id, updated)
	return updated, nil
}

// Cached returns the collection as of the last list call and the mutations
// since.
func (c *Client[T]) Cached() []T { return c.cache.All() }

// Get resolves a record by id from the cache, fetching the collection when
// the cache is cold or does not hold it.
func (c *Client[T]) Get(ctx context.Context, id string) (T, error) {
	if it, ok := c.cache.Find(id); ok {
		return it, nil
	}
	if _, err := c.List(ctx); err != nil {
		var zero T
		return zero, err
	}
	if it, ok := c.cache.Find(id); ok {
		return it, nil
	}
	var zero T
	return zero, &Error{Kind: KindNotFound, Op: "get", Resource: c.resource, ID: id}
}

func (c *Client[T]) do(ctx context.Context, op, id, method, path string, body, out any) error {
	reqID := uuid.NewString()
	log := c.log.WithFields(logrus.Fields{"op": op, "request_id": reqID})
	if id != "" {
		log = log.WithField("id", id)
	}
	start := time.Now()

	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.roundTrip(ctx, reqID, method, path, body, out)
	})
	if err != nil {
		e := c.normalize(err)
		e.Op, e.ID = op, id
		log.WithFields(logrus.Fields{"kind": e.Kind.String(), "status": e.Status}).WithError(err).
			Errorf("error on %s %s", op, c.resource)
		return e
	}
	log.WithField("elapsed", time.Since(start).Round(time.Millisecond)).Debugf("%s %s ok", op, c.resource)
	return nil
}

func (c *Client[T]) roundTrip(ctx context.Context, reqID, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return &Error{Kind: KindValidation, Err: fmt.Errorf("failed to encode request: %w", err)}
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return &Error{Kind: KindNetwork, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, reqID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.http.Do(req)
	if err != nil {
		return &Error{Kind: KindNetwork, Err: err}
	}
	defer googleapi.CloseBody(res)

	if err := googleapi.CheckResponse(res); err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) {
			return fromResponse(gerr)
		}
		return &Error{Kind: KindNetwork, Status: res.StatusCode, Err: err}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return &Error{Kind: KindNetwork, Status: res.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

// normalize makes sure nothing but *Error leaves the package.
func (c *Client[T]) normalize(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		cp := *e
		cp.Resource = c.resource
		return &cp
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &Error{Kind: KindNetwork, Resource: c.resource, Message: "el servicio no está disponible, intente más tarde", Err: err}
	}
	return &Error{Kind: KindNetwork, Resource: c.resource, Err: err}
}
