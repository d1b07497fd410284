// Package firestore stores project requests in Cloud Firestore through the
// REST API, authenticated with the site's web API key.
package firestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strconv"
	"time"

	fsapi "google.golang.org/api/firestore/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"nmo-web-backend/internal/connector"
	"nmo-web-backend/internal/domain"
)

// Config identifies the Firestore database
type Config struct {
	ProjectID string
	APIKey    string
	Database  string // defaults to "(default)"
	Endpoint  string // optional, e.g. an emulator
}

type Driver struct {
	cfg  Config
	opts []option.ClientOption
}

var _ connector.Driver = (*Driver)(nil)

// NewDriver creates a Firestore driver. Extra client options are appended
// after the ones derived from cfg.
func NewDriver(cfg Config, opts ...option.ClientOption) *Driver {
	if cfg.Database == "" {
		cfg.Database = "(default)"
	}
	return &Driver{cfg: cfg, opts: opts}
}

func (d *Driver) Name() string {
	return "firestore"
}

// Connect builds the REST client. No request is sent until the first insert.
func (d *Driver) Connect(ctx context.Context) (connector.Handle, error) {
	if d.cfg.ProjectID == "" {
		return nil, errors.New("firestore: project id not configured")
	}
	if d.cfg.APIKey == "" {
		return nil, errors.New("firestore: api key not configured")
	}

	opts := []option.ClientOption{option.WithAPIKey(d.cfg.APIKey)}
	if d.cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(d.cfg.Endpoint+"/"))
	}
	opts = append(opts, d.opts...)

	svc, err := fsapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestore: create service: %w", err)
	}

	return &handle{
		docs:   svc.Projects.Databases.Documents,
		parent: fmt.Sprintf("projects/%s/databases/%s/documents", d.cfg.ProjectID, d.cfg.Database),
	}, nil
}

type handle struct {
	docs   *fsapi.ProjectsDatabasesDocumentsService
	parent string
}

func (h *handle) Locate(collection string) (connector.Collection, error) {
	if collection == "" {
		return nil, errors.New("firestore: empty collection name")
	}
	return &collectionRef{docs: h.docs, parent: h.parent, id: collection}, nil
}

// Close is a no-op, the REST client holds no connection of its own
func (h *handle) Close() error {
	return nil
}

type collectionRef struct {
	docs   *fsapi.ProjectsDatabasesDocumentsService
	parent string
	id     string
}

func (c *collectionRef) Insert(ctx context.Context, fields map[string]any) (string, error) {
	doc, err := toDocument(fields)
	if err != nil {
		return "", &domain.StoreError{Kind: domain.StoreErrorOther, Op: "encode", Err: err}
	}

	created, err := c.docs.CreateDocument(c.parent, c.id, doc).Context(ctx).Do()
	if err != nil {
		return "", wrapError(err)
	}
	// Name is projects/{p}/databases/{d}/documents/{collection}/{id}
	return path.Base(created.Name), nil
}

// wrapError converts a Firestore API error to a store error
func wrapError(err error) error {
	kind := domain.StoreErrorOther
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusForbidden {
		kind = domain.StoreErrorPermissionDenied
	}
	return &domain.StoreError{Kind: kind, Op: "insert", Err: err}
}

// toDocument encodes fields using the REST representation of Firestore values
func toDocument(fields map[string]any) (*fsapi.Document, error) {
	encoded := make(map[string]map[string]any, len(fields))
	for name, v := range fields {
		value, err := encodeValue(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		encoded[name] = value
	}

	raw, err := json.Marshal(map[string]any{"fields": encoded})
	if err != nil {
		return nil, err
	}
	var doc fsapi.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func encodeValue(v any) (map[string]any, error) {
	switch t := v.(type) {
	case nil:
		return map[string]any{"nullValue": "NULL_VALUE"}, nil
	case string:
		return map[string]any{"stringValue": t}, nil
	case bool:
		return map[string]any{"booleanValue": t}, nil
	case int:
		return map[string]any{"integerValue": strconv.Itoa(t)}, nil
	case int64:
		return map[string]any{"integerValue": strconv.FormatInt(t, 10)}, nil
	case float64:
		return map[string]any{"doubleValue": t}, nil
	case time.Time:
		return map[string]any{"timestampValue": t.UTC().Format(time.RFC3339Nano)}, nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}
