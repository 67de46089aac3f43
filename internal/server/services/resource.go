package services

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/fitkeeper/internal/common"
	"github.com/dmitrijs2005/fitkeeper/internal/server/auth"
	"github.com/dmitrijs2005/fitkeeper/internal/server/models"
	"github.com/dmitrijs2005/fitkeeper/internal/server/store"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Access is the authorization model of a resource.
type Access int

const (
	// AccessCatalog: any user may create; non-admins see system records and
	// their own, and mutate only their own custom records.
	AccessCatalog Access = iota
	// AccessOwned: admin-only writes; non-admins read their own records.
	AccessOwned
	// AccessAdmin: admin only.
	AccessAdmin
)

type ParamType int

const (
	ParamString ParamType = iota
	ParamBool
	ParamNumber
)

// FilterParam maps a query parameter onto a store condition.
type FilterParam struct {
	Param string
	Field string
	Op    store.Op
	Type  ParamType
}

// Values is the read side of a normalised request.
type Values interface {
	Has(name string) bool
	GetString(name string) string
	GetInt(name string) (int, bool)
}

type ResourceConfig[D store.Document] struct {
	// Name is used in client-facing messages, e.g. "body part".
	Name   string
	Access Access
	NewDoc func() D

	Filters     []FilterParam
	SortFields  []string
	DefaultSort []store.SortField

	// OrderScope lists the fields whose values group documents for automatic
	// order assignment. Empty means one group per collection.
	OrderScope []string
}

type ListQuery struct {
	Page   int
	Limit  int
	Filter store.Filter
	Sort   []store.SortField
}

type Page[D any] struct {
	Items []D
	Total int64
	Page  int
	Limit int
}

// ResourceService implements list/get/create/update/delete for one
// collection. It holds no per-request state.
type ResourceService[D store.Document] struct {
	cfg  ResourceConfig[D]
	coll store.Collection[D]
	now  func() time.Time
}

func NewResourceService[D store.Document](coll store.Collection[D], cfg ResourceConfig[D]) *ResourceService[D] {
	return &ResourceService[D]{cfg: cfg, coll: coll, now: utcNow}
}

// utcNow is the service clock. Stores keep millisecond precision, so
// timestamps are truncated to match what a later read returns.
func utcNow() time.Time { return time.Now().UTC().Truncate(time.Millisecond) }

func (s *ResourceService[D]) Name() string { return s.cfg.Name }

func (s *ResourceService[D]) New() D { return s.cfg.NewDoc() }

// ScopeFilter returns the filter a mutation by p on id must match. Admins
// reach any document; everyone else only their own custom documents, so
// foreign and system records are indistinguishable from missing ones.
func ScopeFilter(p auth.Principal, id string) store.Filter {
	if p.IsAdmin() {
		return store.ByID(id)
	}
	return store.ByID(id).And(
		store.Eq(models.FieldUserID, p.UserID),
		store.Eq(models.FieldIsCustom, true),
	)
}

func (s *ResourceService[D]) visibility(p auth.Principal) (store.Filter, error) {
	if p.IsAdmin() {
		return nil, nil
	}
	switch s.cfg.Access {
	case AccessCatalog:
		return store.Filter{store.Or(
			store.Filter{store.Eq(models.FieldIsCustom, false)},
			store.Filter{store.Eq(models.FieldUserID, p.UserID)},
		)}, nil
	case AccessOwned:
		return store.Filter{store.Eq(models.FieldUserID, p.UserID)}, nil
	}
	return nil, common.Forbidden("admin role required")
}

func (s *ResourceService[D]) authorizeWrite(p auth.Principal) error {
	if p.IsAdmin() || s.cfg.Access == AccessCatalog {
		return nil
	}
	return common.Forbidden("admin role required")
}

// Query builds a ListQuery from request values. Supplied-but-invalid page,
// limit, filter or sort values are rejected rather than defaulted.
func (s *ResourceService[D]) Query(v Values) (ListQuery, error) {
	q := ListQuery{Page: DefaultPage, Limit: DefaultLimit}

	for _, p := range []struct {
		name string
		dst  *int
	}{{"page", &q.Page}, {"limit", &q.Limit}} {
		if !v.Has(p.name) {
			continue
		}
		n, ok := v.GetInt(p.name)
		if !ok || n < 1 {
			return q, common.BadRequest("%s must be a positive integer", p.name)
		}
		*p.dst = n
	}

	for _, fp := range s.cfg.Filters {
		if !v.Has(fp.Param) {
			continue
		}
		raw := strings.TrimSpace(v.GetString(fp.Param))
		if raw == "" {
			continue
		}
		var value any = raw
		switch fp.Type {
		case ParamBool:
			b, err := strconv.ParseBool(raw)
			if err != nil {
				return q, common.BadRequest("%s must be true or false", fp.Param)
			}
			value = b
		case ParamNumber:
			f, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return q, common.BadRequest("%s must be a number", fp.Param)
			}
			value = f
		}
		q.Filter = append(q.Filter, store.Condition{Field: fp.Field, Op: fp.Op, Value: value})
	}

	sort, err := s.sort(v.GetString("sortBy"), v.GetString("sortOrder"))
	if err != nil {
		return q, err
	}
	q.Sort = sort
	return q, nil
}

func (s *ResourceService[D]) sort(by, order string) ([]store.SortField, error) {
	dir := store.Asc
	switch strings.ToLower(order) {
	case "", "asc":
	case "desc":
		dir = store.Desc
	default:
		return nil, common.BadRequest("sortOrder must be asc or desc")
	}

	var out []store.SortField
	if by == "" {
		out = append(out, s.cfg.DefaultSort...)
	} else {
		allowed := false
		for _, f := range s.cfg.SortFields {
			if f == by {
				allowed = true
				break
			}
		}
		if !allowed {
			return nil, common.BadRequest("cannot sort by %q", by)
		}
		out = append(out, store.SortField{Field: by, Dir: dir})
	}
	// identity breaks ties so pages do not overlap
	return append(out, store.SortField{Field: models.FieldID, Dir: store.Asc}), nil
}

func (s *ResourceService[D]) List(ctx context.Context, p auth.Principal, q ListQuery) (*Page[D], error) {
	if q.Page < 1 {
		return nil, common.BadRequest("page must be a positive integer")
	}
	if q.Limit < 1 {
		return nil, common.BadRequest("limit must be a positive integer")
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	if int64(q.Page-1) > math.MaxInt64/int64(q.Limit) {
		return nil, common.BadRequest("page is out of range")
	}

	vis, err := s.visibility(p)
	if err != nil {
		return nil, err
	}
	f := q.Filter.And(vis...)

	total, err := s.coll.Count(ctx, f)
	if err != nil {
		return nil, err
	}
	items, err := s.coll.Find(ctx, f, store.FindOptions{
		Sort:  q.Sort,
		Skip:  int64(q.Page-1) * int64(q.Limit),
		Limit: int64(q.Limit),
	})
	if err != nil {
		return nil, err
	}

	return &Page[D]{Items: items, Total: total, Page: q.Page, Limit: q.Limit}, nil
}

func (s *ResourceService[D]) Get(ctx context.Context, p auth.Principal, id string) (D, error) {
	var zero D
	if id == "" {
		return zero, common.BadRequest("id is required")
	}
	vis, err := s.visibility(p)
	if err != nil {
		return zero, err
	}
	doc, err := s.coll.FindOne(ctx, store.ByID(id).And(vis...))
	if common.KindOf(err) == common.KindNotFound {
		return zero, common.NotFound("%s not found", s.cfg.Name)
	}
	return doc, err
}

// Create validates doc, applies ownership and timestamps, assigns an order
// when none was given and stores it. The identity is always store-assigned.
func (s *ResourceService[D]) Create(ctx context.Context, p auth.Principal, doc D) (D, error) {
	var zero D
	if err := s.authorizeWrite(p); err != nil {
		return zero, err
	}

	if od, ok := any(doc).(models.Owned); ok {
		o := od.Owner()
		if !p.IsAdmin() {
			o.UserID = p.UserID
		}
		o.IsCustom = o.UserID != ""
	}

	if err := models.Validate(doc); err != nil {
		return zero, err
	}

	meta := doc.Meta()
	meta.ID = ""
	now := s.now()
	meta.CreatedAt, meta.UpdatedAt = now, now

	if od, ok := any(doc).(models.Ordered); ok && od.GetOrder() == 0 {
		next, err := s.nextOrder(ctx, doc)
		if err != nil {
			return zero, err
		}
		od.SetOrder(next)
	}

	if err := s.coll.Create(ctx, doc); err != nil {
		if common.KindOf(err) == common.KindDuplicateEntry {
			return zero, common.Wrap(common.KindDuplicateEntry, err, s.cfg.Name+" already exists")
		}
		return zero, err
	}
	return doc, nil
}

func (s *ResourceService[D]) nextOrder(ctx context.Context, doc D) (int, error) {
	present := make(map[string]bool, len(s.cfg.OrderScope))
	for _, f := range s.cfg.OrderScope {
		present[f] = true
	}
	var scope store.Filter
	for field, v := range models.PatchFields(doc, present) {
		scope = append(scope, store.Eq(field, v))
	}

	last, err := s.coll.Find(ctx, scope, store.FindOptions{
		Sort:  []store.SortField{{Field: models.FieldOrder, Dir: store.Desc}},
		Limit: 1,
	})
	if err != nil {
		return 0, err
	}
	if len(last) == 0 {
		return 1, nil
	}
	return any(last[0]).(models.Ordered).GetOrder() + 1, nil
}

// protected returns the JSON keys an update may never change.
func (s *ResourceService[D]) protected() []string {
	keys := []string{"id", models.FieldID, models.FieldCreatedAt, models.FieldUpdatedAt}
	if _, ok := any(s.cfg.NewDoc()).(models.Owned); ok {
		keys = append(keys, models.FieldUserID, models.FieldIsCustom)
	}
	return keys
}

// Update applies the fields of doc named in present to the document id.
func (s *ResourceService[D]) Update(ctx context.Context, p auth.Principal, id string, doc D, present map[string]bool) (D, error) {
	var zero D
	if id == "" {
		return zero, common.BadRequest("id is required")
	}
	if err := s.authorizeWrite(p); err != nil {
		return zero, err
	}
	if err := models.ValidateFields(doc, present); err != nil {
		return zero, err
	}
	return s.Patch(ctx, p, id, store.Patch(models.PatchFields(doc, present, s.protected()...)))
}

// Patch sets raw store fields on the document id within p's scope and
// stamps updatedAt.
func (s *ResourceService[D]) Patch(ctx context.Context, p auth.Principal, id string, patch store.Patch) (D, error) {
	var zero D
	if id == "" {
		return zero, common.BadRequest("id is required")
	}
	if err := s.authorizeWrite(p); err != nil {
		return zero, err
	}

	if patch == nil {
		patch = store.Patch{}
	}
	patch[models.FieldUpdatedAt] = s.now()

	updated, err := s.coll.FindOneAndUpdate(ctx, ScopeFilter(p, id), patch)
	if err != nil {
		if common.KindOf(err) == common.KindDuplicateEntry {
			return zero, common.Wrap(common.KindDuplicateEntry, err, s.cfg.Name+" already exists")
		}
		return zero, err
	}
	if updated == zero {
		return zero, common.NotFound("%s not found", s.cfg.Name)
	}
	return updated, nil
}

func (s *ResourceService[D]) Delete(ctx context.Context, p auth.Principal, id string) error {
	if id == "" {
		return common.BadRequest("id is required")
	}
	if err := s.authorizeWrite(p); err != nil {
		return err
	}

	n, err := s.coll.DeleteOne(ctx, ScopeFilter(p, id))
	if err != nil {
		return err
	}
	if n == 0 {
		return common.NotFound("%s not found", s.cfg.Name)
	}
	return nil
}
