package designs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"apparel-configurator/internal/shopify"
)

const (
	TypeDesign          = "design"
	TypeProductTemplate = "product_template"

	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"

	listPageSize = 100
)

var (
	ErrNotFound           = errors.New("design not found")
	ErrDesignDataRequired = errors.New("design data is required")
)

// Design is a metaobject flattened to {"id": handle, field: value, ...}.
type Design map[string]any

type MetaobjectStore interface {
	ListMetaobjects(ctx context.Context, typ string, first int, query string) ([]shopify.Metaobject, error)
	MetaobjectByHandle(ctx context.Context, typ, handle string) (*shopify.Metaobject, error)
	CreateMetaobject(ctx context.Context, typ, handle string, fields []shopify.FieldValue) (string, error)
	UpdateMetaobject(ctx context.Context, id string, fields []shopify.FieldValue) error
}

type Service struct {
	store     MetaobjectStore
	logger    *zap.Logger
	newHandle func() string
	now       func() time.Time
}

func NewService(store MetaobjectStore, logger *zap.Logger) *Service {
	return &Service{
		store:     store,
		logger:    logger,
		newHandle: func() string { return "design-" + uuid.NewString() },
		now:       time.Now,
	}
}

func (s *Service) List(ctx context.Context) ([]Design, error) {
	return s.list(ctx, TypeDesign, "")
}

// ListPending returns designs awaiting review.
func (s *Service) ListPending(ctx context.Context) ([]Design, error) {
	return s.list(ctx, TypeDesign, "status:"+StatusPending)
}

func (s *Service) ListTemplates(ctx context.Context) ([]Design, error) {
	return s.list(ctx, TypeProductTemplate, "")
}

func (s *Service) Get(ctx context.Context, handle string) (Design, error) {
	m, err := s.store.MetaobjectByHandle(ctx, TypeDesign, handle)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, handle)
	}
	return flatten(*m), nil
}

// Create stores a new design and echoes it back with its handle as id.
// Designs without a status start as pending.
func (s *Service) Create(ctx context.Context, data map[string]any) (Design, error) {
	if len(data) == 0 {
		return nil, ErrDesignDataRequired
	}
	out := Design{}
	for k, v := range data {
		out[k] = v
	}
	if _, ok := out["status"]; !ok {
		out["status"] = StatusPending
	}

	handle, err := s.store.CreateMetaobject(ctx, TypeDesign, s.newHandle(), toFields(out))
	if err != nil {
		return nil, err
	}

	s.logger.Info("Design created", zap.String("handle", handle))

	out["id"] = handle
	return out, nil
}

func (s *Service) Update(ctx context.Context, handle string, data map[string]any) (Design, error) {
	if len(data) == 0 {
		return nil, ErrDesignDataRequired
	}
	if err := s.update(ctx, handle, toFields(data)); err != nil {
		return nil, err
	}

	out := Design{}
	for k, v := range data {
		out[k] = v
	}
	out["id"] = handle
	out["updated"] = s.now().UTC().Format(time.RFC3339)
	return out, nil
}

func (s *Service) Approve(ctx context.Context, handle string) error {
	if err := s.update(ctx, handle, []shopify.FieldValue{{Key: "status", Value: StatusApproved}}); err != nil {
		return err
	}
	s.logger.Info("Design approved", zap.String("handle", handle))
	return nil
}

// Reject marks a design rejected, recording the reason when one is given.
func (s *Service) Reject(ctx context.Context, handle, reason string) error {
	fields := []shopify.FieldValue{{Key: "status", Value: StatusRejected}}
	if reason != "" {
		fields = append(fields, shopify.FieldValue{Key: "rejection_reason", Value: reason})
	}
	if err := s.update(ctx, handle, fields); err != nil {
		return err
	}
	s.logger.Info("Design rejected",
		zap.String("handle", handle),
		zap.String("reason", reason))
	return nil
}

func (s *Service) list(ctx context.Context, typ, query string) ([]Design, error) {
	nodes, err := s.store.ListMetaobjects(ctx, typ, listPageSize, query)
	if err != nil {
		return nil, err
	}
	out := make([]Design, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, flatten(n))
	}
	return out, nil
}

// update resolves the handle to a metaobject id before writing.
func (s *Service) update(ctx context.Context, handle string, fields []shopify.FieldValue) error {
	m, err := s.store.MetaobjectByHandle(ctx, TypeDesign, handle)
	if err != nil {
		return err
	}
	if m == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, handle)
	}
	return s.store.UpdateMetaobject(ctx, m.ID, fields)
}

func flatten(m shopify.Metaobject) Design {
	d := Design{}
	for _, f := range m.Fields {
		d[f.Key] = f.Value
	}
	d["id"] = m.Handle
	return d
}

// toFields stores strings as-is and everything else as JSON.
func toFields(data map[string]any) []shopify.FieldValue {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]shopify.FieldValue, 0, len(keys))
	for _, k := range keys {
		var value string
		switch v := data[k].(type) {
		case string:
			value = v
		default:
			b, err := json.Marshal(v)
			if err != nil {
				value = fmt.Sprint(v)
			} else {
				value = string(b)
			}
		}
		fields = append(fields, shopify.FieldValue{Key: k, Value: value})
	}
	return fields
}
