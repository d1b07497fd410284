// Package connector mediates access to the external document store.
//
// Initialization runs at most once per process. The first caller starts it,
// concurrent callers wait for the same attempt, and later callers get the
// cached state. A failed attempt leaves the connector Unavailable for the
// rest of the process lifetime.
package connector

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"nmo-web-backend/internal/domain"
	"nmo-web-backend/pkg/logger"
)

// Handle is a live connection to the document store
type Handle interface {
	// Locate returns a reference to a named collection
	Locate(collection string) (Collection, error)
	Close() error
}

// Collection accepts new documents
type Collection interface {
	// Insert stores fields as a new document and returns its store-assigned id
	Insert(ctx context.Context, fields map[string]any) (string, error)
}

// Driver connects to a concrete store using its fixed configuration
type Driver interface {
	Name() string
	Connect(ctx context.Context) (Handle, error)
}

// Options tune the connector
type Options struct {
	// Collection is located during initialization to prove the store is usable
	Collection     string
	ConnectTimeout time.Duration
	Now            func() time.Time
}

type Connector struct {
	driver Driver
	opts   Options

	mu          sync.Mutex
	state       domain.ConnectorState
	done        chan struct{}
	handle      Handle
	collections map[string]Collection
}

var _ domain.StoreConnector = (*Connector)(nil)

// New creates an uninitialized connector
func New(driver Driver, opts Options) *Connector {
	if opts.Collection == "" {
		opts.Collection = domain.RecordKindRequest
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 10 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Connector{
		driver:      driver,
		opts:        opts,
		collections: make(map[string]Collection),
	}
}

// Start kicks off initialization in the background
func (c *Connector) Start() {
	c.begin()
}

// Initialize resolves the connector, waiting for an in-flight attempt if one
// exists. If ctx ends first the current (possibly Uninitialized) state is
// returned; the shared attempt keeps running.
func (c *Connector) Initialize(ctx context.Context) domain.ConnectorState {
	done := c.begin()
	select {
	case <-done:
	case <-ctx.Done():
	}
	return c.State()
}

// State returns the cached readiness without blocking
func (c *Connector) State() domain.ConnectorState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Connector) begin() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done == nil {
		c.done = make(chan struct{})
		go c.resolve(c.done)
	}
	return c.done
}

func (c *Connector) resolve(done chan struct{}) {
	ctx, cancel := context.WithTimeout(context.Background(), c.opts.ConnectTimeout)
	defer cancel()

	handle, coll, err := c.connect(ctx)

	c.mu.Lock()
	if err != nil {
		c.state = domain.ConnectorUnavailable
		logger.Log.Warn("Store not available, using fallback", "driver", c.driver.Name(), "error", err)
	} else {
		c.state = domain.ConnectorReady
		c.handle = handle
		c.collections[c.opts.Collection] = coll
		logger.Log.Info("Store ready", "driver", c.driver.Name(), "collection", c.opts.Collection)
	}
	c.mu.Unlock()
	close(done)
}

// connect never panics; a driver panic is reported as an error
func (c *Connector) connect(ctx context.Context) (handle Handle, coll Collection, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("store driver panicked: %v", r)
		}
		if err != nil && handle != nil {
			_ = handle.Close()
			handle = nil
		}
	}()

	handle, err = c.driver.Connect(ctx)
	if err != nil {
		return handle, nil, fmt.Errorf("connect: %w", err)
	}
	if handle == nil {
		return nil, nil, errors.New("connect: driver returned no handle")
	}
	coll, err = handle.Locate(c.opts.Collection)
	if err != nil {
		return handle, nil, fmt.Errorf("locate %q: %w", c.opts.Collection, err)
	}
	if coll == nil {
		return handle, nil, fmt.Errorf("locate %q: driver returned no collection", c.opts.Collection)
	}
	return handle, coll, nil
}

// Write stores fields in recordKind with a timestamp and pending status.
// It fails with domain.ErrConnectorUnavailable unless the connector is Ready;
// remote rejections are returned as *domain.StoreError.
func (c *Connector) Write(ctx context.Context, recordKind string, fields map[string]any) (string, error) {
	coll, err := c.collection(recordKind)
	if err != nil {
		return "", err
	}

	doc := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		doc[k] = v
	}
	doc["timestamp"] = c.opts.Now().UTC()
	doc["status"] = domain.SubmissionStatusPending

	id, err := coll.Insert(ctx, doc)
	if err != nil {
		var se *domain.StoreError
		if errors.As(err, &se) {
			return "", err
		}
		return "", &domain.StoreError{Kind: domain.StoreErrorOther, Op: "insert", Err: err}
	}
	return id, nil
}

func (c *Connector) collection(recordKind string) (Collection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != domain.ConnectorReady || c.handle == nil {
		return nil, domain.ErrConnectorUnavailable
	}
	if coll, ok := c.collections[recordKind]; ok {
		return coll, nil
	}
	coll, err := c.handle.Locate(recordKind)
	if err != nil {
		return nil, &domain.StoreError{Kind: domain.StoreErrorOther, Op: "locate", Err: err}
	}
	if coll == nil {
		return nil, domain.ErrConnectorUnavailable
	}
	c.collections[recordKind] = coll
	return coll, nil
}

// Close releases the store handle, if any
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.handle == nil {
		return nil
	}
	err := c.handle.Close()
	c.handle = nil
	c.state = domain.ConnectorUnavailable
	return err
}
