package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	otrace "github.com/opentracing/opentracing-go"

	"github.com/firebrand/go-firebrand-common/errhandling"
	"github.com/firebrand/go-firebrand-common/logger"
)

type Logger = logger.Logger

// Store reads and writes records of type T as described by a Mapping. Writes
// run the ChangeTracker rules and the max length checks first; deletes of
// records with a status are soft.
type Store[T any] struct {
	db      *sqlx.DB
	mapping *Mapping
	tracker *ChangeTracker
	log     Logger

	insertQuery     string
	updateQuery     string
	deleteQuery     string
	modifiedByQuery string
	getQuery        string
	listQuery       string
	listAllQuery    string
}

type storeOptions struct {
	log Logger
	now func() time.Time
}

type StoreOption func(*storeOptions)

func WithStoreLogger(log Logger) StoreOption {
	return func(o *storeOptions) {
		o.log = log
	}
}

// WithClock sets the time source of the audit stamps.
func WithClock(now func() time.Time) StoreOption {
	return func(o *storeOptions) {
		o.now = now
	}
}

// NewStore fails with a ConfigurationError when mapping was not built for T.
func NewStore[T any](db *sqlx.DB, mapping *Mapping, opts ...StoreOption) (*Store[T], error) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	if mapping == nil || mapping.Type != t {
		return nil, errhandling.ConfigurationErrorf(t, "Mapping", "mapping is not for %s", t)
	}
	o := storeOptions{log: logger.Sugar}
	for _, opt := range opts {
		opt(&o)
	}
	return &Store[T]{
		db:              db,
		mapping:         mapping,
		tracker:         NewChangeTracker(o.now),
		log:             o.log.WithComponent("data").WithIndex("table", mapping.Table),
		insertQuery:     mapping.insertQuery(),
		updateQuery:     mapping.updateQuery(),
		deleteQuery:     mapping.deleteQuery(),
		modifiedByQuery: mapping.modifiedByQuery(),
		getQuery:        mapping.selectQuery(true, true),
		listQuery:       mapping.selectQuery(false, true),
		listAllQuery:    mapping.selectQuery(false, false),
	}, nil
}

func (s *Store[T]) Mapping() *Mapping {
	return s.mapping
}

// Insert writes a new record. A zero generated key is assigned first.
func (s *Store[T]) Insert(ctx context.Context, entity *T) error {
	span, ctx := otrace.StartSpanFromContext(ctx, "data.store.Insert")
	defer span.Finish()

	log := s.log.FromContext(ctx)
	defer log.Close()

	v := reflect.ValueOf(entity).Elem()
	if s.mapping.GeneratedKey {
		key := s.mapping.keyValue(v)
		if key.Interface().(uuid.UUID) == uuid.Nil {
			key.Set(reflect.ValueOf(uuid.New()))
		}
	}

	entry := &Entry{Entity: entity, State: StateAdded}
	s.tracker.SavingChanges(entry)
	if err := s.mapping.validateLengths(v); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, s.insertQuery, s.mapping.values(v, s.mapping.Columns)...); err != nil {
		return translateError(err)
	}
	log.Debugf("Insert: %v", s.mapping.keyValue(v))
	return nil
}

// Update writes every column of an existing record.
func (s *Store[T]) Update(ctx context.Context, entity *T) error {
	span, ctx := otrace.StartSpanFromContext(ctx, "data.store.Update")
	defer span.Finish()

	return s.save(ctx, &Entry{Entity: entity, State: StateModified})
}

// Delete marks a record with a status as Removed, hiding it from Get and
// List. Records without a status are deleted. When the delete fails entity is
// left as it was.
func (s *Store[T]) Delete(ctx context.Context, entity *T) error {
	span, ctx := otrace.StartSpanFromContext(ctx, "data.store.Delete")
	defer span.Finish()

	restore := snapshot(entity)
	entry := &Entry{Entity: entity, State: StateDeleted}
	s.tracker.Track(entry)
	if err := s.save(ctx, entry); err != nil {
		restore()
		return err
	}
	return nil
}

// snapshot returns a func putting back the fields a soft delete changes.
func snapshot(entity any) func() {
	var restores []func()
	if st, ok := entity.(Statused); ok {
		base := st.Base()
		status := base.Status
		restores = append(restores, func() { base.Status = status })
	}
	if au, ok := entity.(Audited); ok {
		audit := au.Audit()
		modifiedDate, modifiedBy := audit.ModifiedDate, audit.ModifiedBy
		restores = append(restores, func() {
			audit.ModifiedDate = modifiedDate
			audit.ModifiedBy = modifiedBy
		})
	}
	return func() {
		for _, r := range restores {
			r()
		}
	}
}

func (s *Store[T]) save(ctx context.Context, entry *Entry) error {
	log := s.log.FromContext(ctx)
	defer log.Close()

	v := reflect.ValueOf(entry.Entity).Elem()
	key := s.mapping.keyValue(v).Interface()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			log.Infof("save: rollback: %v", err)
		}
	}()

	var result sql.Result
	switch entry.State {
	case StateDeleted:
		result, err = tx.ExecContext(ctx, s.deleteQuery, key)
	case StateModified:
		if s.mapping.Audited {
			err = tx.GetContext(ctx, &entry.OriginalModifiedBy, s.modifiedByQuery, key)
			if errors.Is(err, sql.ErrNoRows) {
				return entityNotFoundError(s.mapping.Table, key)
			}
			if err != nil {
				return err
			}
		}
		s.tracker.SavingChanges(entry)
		if err = s.mapping.validateLengths(v); err != nil {
			return err
		}
		args := append(s.mapping.values(v, s.mapping.nonKeyColumns()), key)
		result, err = tx.ExecContext(ctx, s.updateQuery, args...)
	default:
		return fmt.Errorf("cannot save entry in state %s", entry.State)
	}
	if err != nil {
		return translateError(err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConcurrencyFailure.WithCause(fmt.Errorf("%s %v", s.mapping.Table, key))
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	log.Debugf("save: %s %v", entry.State, key)
	return nil
}

// Get returns the record with the given key unless it was removed.
func (s *Store[T]) Get(ctx context.Context, key any) (*T, error) {
	span, ctx := otrace.StartSpanFromContext(ctx, "data.store.Get")
	defer span.Finish()

	var entity T
	err := s.db.GetContext(ctx, &entity, s.getQuery, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entityNotFoundError(s.mapping.Table, key)
	}
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

// List returns every record not removed, ordered by key.
func (s *Store[T]) List(ctx context.Context) ([]T, error) {
	span, ctx := otrace.StartSpanFromContext(ctx, "data.store.List")
	defer span.Finish()

	return s.list(ctx, s.listQuery)
}

// ListAll is List including removed records.
func (s *Store[T]) ListAll(ctx context.Context) ([]T, error) {
	span, ctx := otrace.StartSpanFromContext(ctx, "data.store.ListAll")
	defer span.Finish()

	return s.list(ctx, s.listAllQuery)
}

func (s *Store[T]) list(ctx context.Context, query string) ([]T, error) {
	entities := []T{}
	if err := s.db.SelectContext(ctx, &entities, query); err != nil {
		return nil, err
	}
	return entities, nil
}
