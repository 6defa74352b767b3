package data

import (
	"fmt"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/reflectx"

	"github.com/firebrand/go-firebrand-common/errhandling"
)

const (
	// DefaultKeyColumn is the key column unless WithKey says otherwise.
	DefaultKeyColumn = "id"

	statusColumn     = "status"
	createdByColumn  = "created_by"
	modifiedByColumn = "modified_by"
)

var (
	statusedType = reflect.TypeOf((*Statused)(nil)).Elem()
	auditedType  = reflect.TypeOf((*Audited)(nil)).Elem()
	uuidType     = reflect.TypeOf(uuid.UUID{})
)

// Mapping describes how a record type is stored: where, under which key, and
// with which constraints. Build one with Configure.
type Mapping struct {
	Type    reflect.Type
	Dialect Dialect
	Schema  string
	Table   string
	Key     string
	// Columns lists every mapped column, key included, in field order.
	Columns    []string
	MaxLengths map[string]int
	// Temporal marks a system-versioned table (SQL Server only).
	Temporal bool
	// GeneratedKey assigns a random uuid to a zero key on insert.
	GeneratedKey bool
	// Filter is the condition applied to every filtered query; empty for
	// types without a status.
	Filter string
	Audited bool

	fields map[string][]int
}

type mappingConfig struct {
	schema       *string
	table        string
	key          string
	maxLengths   map[string]int
	temporal     bool
	generatedKey bool
}

type MappingOption func(*mappingConfig)

// WithSchema overrides the dialect's default schema.
func WithSchema(schema string) MappingOption {
	return func(c *mappingConfig) {
		c.schema = &schema
	}
}

// WithTable overrides the table name derived from the type name.
func WithTable(table string) MappingOption {
	return func(c *mappingConfig) {
		c.table = table
	}
}

func WithKey(column string) MappingOption {
	return func(c *mappingConfig) {
		c.key = column
	}
}

// WithMaxLength bounds a string column, in characters.
func WithMaxLength(column string, length int) MappingOption {
	return func(c *mappingConfig) {
		c.maxLengths[column] = length
	}
}

func WithTemporal() MappingOption {
	return func(c *mappingConfig) {
		c.temporal = true
	}
}

// WithGeneratedKey requires a uuid.UUID key.
func WithGeneratedKey() MappingOption {
	return func(c *mappingConfig) {
		c.generatedKey = true
	}
}

// TableName strips EntitySuffix from the type's name.
func TableName(t reflect.Type) string {
	return strings.TrimSuffix(t.Name(), EntitySuffix)
}

// Configure builds the mapping of T, which must be a struct. Columns are named
// by their db tag, or the lower-cased field name, exactly as sqlx scans them;
// embedded structs contribute their columns in place.
//
// Types embedding AuditEntity get a maximum length of AuditActorMaxLength on
// both actor columns. Types embedding BaseEntity get the filter excluding
// removed rows.
func Configure[T any](dialect Dialect, opts ...MappingOption) (*Mapping, error) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	if t.Kind() != reflect.Struct {
		return nil, errhandling.ConfigurationErrorf(t, "Type", "%s is not a struct", t.Kind())
	}

	cfg := mappingConfig{key: DefaultKeyColumn, maxLengths: map[string]int{}}
	m := &Mapping{
		Type:       t,
		Dialect:    dialect,
		Schema:     dialect.DefaultSchema,
		Table:      TableName(t),
		MaxLengths: map[string]int{},
		fields:     map[string][]int{},
	}
	if reflect.PointerTo(t).Implements(auditedType) {
		m.Audited = true
		m.MaxLengths[createdByColumn] = AuditActorMaxLength
		m.MaxLengths[modifiedByColumn] = AuditActorMaxLength
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.schema != nil {
		m.Schema = *cfg.schema
	}
	if cfg.table != "" {
		m.Table = cfg.table
	}
	m.Key = cfg.key
	m.Temporal = cfg.temporal
	m.GeneratedKey = cfg.generatedKey

	if m.Schema == "" {
		return nil, errhandling.ConfigurationErrorf(t, "Schema", "empty schema")
	}
	if m.Table == "" {
		return nil, errhandling.ConfigurationErrorf(t, "Table", "empty table name")
	}
	if m.Temporal && !dialect.Temporal {
		return nil, errhandling.ConfigurationErrorf(t, "Temporal", "%s has no temporal tables", dialect)
	}

	m.collect(t, nil)
	if err := m.checkScannable(); err != nil {
		return nil, err
	}

	keyField, ok := m.field(m.Key)
	if !ok {
		return nil, errhandling.ConfigurationErrorf(t, "Key", "unknown column %q", m.Key)
	}
	if m.GeneratedKey && keyField.Type != uuidType {
		return nil, errhandling.ConfigurationErrorf(t, "Key", "generated key %q is %s, not uuid.UUID", m.Key, keyField.Type)
	}

	for column, length := range cfg.maxLengths {
		f, ok := m.field(column)
		if !ok {
			return nil, errhandling.ConfigurationErrorf(t, column, "unknown column")
		}
		if f.Type.Kind() != reflect.String || length < 1 {
			return nil, errhandling.ConfigurationErrorf(t, column, "cannot bound %s to %d", f.Type, length)
		}
		m.MaxLengths[column] = length
	}

	if reflect.PointerTo(t).Implements(statusedType) {
		m.Filter = fmt.Sprintf("%s <> %d", dialect.Quote(statusColumn), StatusRemoved)
	}
	return m, nil
}

// collect walks the exported fields of t depth first. Embedded structs are
// flattened, fields tagged db:"-" are skipped.
func (m *Mapping) collect(t reflect.Type, index []int) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		path := append(append([]int{}, index...), i)
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			m.collect(f.Type, path)
			continue
		}
		if !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("db"), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = sqlx.NameMapper(f.Name)
		}
		if _, dup := m.fields[name]; dup {
			continue
		}
		m.Columns = append(m.Columns, name)
		m.fields[name] = path
	}
}

// checkScannable makes sure sqlx resolves every column to the same field.
func (m *Mapping) checkScannable() error {
	tm := reflectx.NewMapperFunc("db", sqlx.NameMapper).TypeMap(m.Type)
	for _, column := range m.Columns {
		fi := tm.GetByPath(column)
		if fi == nil {
			return errhandling.ConfigurationErrorf(m.Type, column, "column not resolvable by sqlx")
		}
		if !reflect.DeepEqual(fi.Index, m.fields[column]) {
			return errhandling.ConfigurationErrorf(m.Type, column, "column is ambiguous")
		}
	}
	return nil
}

func (m *Mapping) field(column string) (reflect.StructField, bool) {
	index, ok := m.fields[column]
	if !ok {
		return reflect.StructField{}, false
	}
	return m.Type.FieldByIndex(index), true
}

// QualifiedTable is the quoted schema and table.
func (m *Mapping) QualifiedTable() string {
	return m.Dialect.Quote(m.Schema) + "." + m.Dialect.Quote(m.Table)
}

func (m *Mapping) quoted(columns []string) string {
	q := make([]string, len(columns))
	for i, c := range columns {
		q[i] = m.Dialect.Quote(c)
	}
	return strings.Join(q, ", ")
}

func (m *Mapping) nonKeyColumns() []string {
	columns := make([]string, 0, len(m.Columns)-1)
	for _, c := range m.Columns {
		if c != m.Key {
			columns = append(columns, c)
		}
	}
	return columns
}

func (m *Mapping) insertQuery() string {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(m.Columns)), ", ")
	return m.Dialect.Rebind(fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		m.QualifiedTable(), m.quoted(m.Columns), placeholders))
}

func (m *Mapping) updateQuery() string {
	columns := m.nonKeyColumns()
	set := make([]string, len(columns))
	for i, c := range columns {
		set[i] = m.Dialect.Quote(c) + " = ?"
	}
	return m.Dialect.Rebind(fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?",
		m.QualifiedTable(), strings.Join(set, ", "), m.Dialect.Quote(m.Key)))
}

func (m *Mapping) deleteQuery() string {
	return m.Dialect.Rebind(fmt.Sprintf("DELETE FROM %s WHERE %s = ?",
		m.QualifiedTable(), m.Dialect.Quote(m.Key)))
}

func (m *Mapping) modifiedByQuery() string {
	return m.Dialect.Rebind(fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?",
		m.Dialect.Quote(modifiedByColumn), m.QualifiedTable(), m.Dialect.Quote(m.Key)))
}

// selectQuery selects by key when byKey is set, otherwise every row ordered
// by key. filtered applies the mapping's Filter.
func (m *Mapping) selectQuery(byKey, filtered bool) string {
	var where []string
	if filtered && m.Filter != "" {
		where = append(where, m.Filter)
	}
	if byKey {
		where = append(where, m.Dialect.Quote(m.Key)+" = ?")
	}
	q := fmt.Sprintf("SELECT %s FROM %s", m.quoted(m.Columns), m.QualifiedTable())
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	if !byKey {
		q += " ORDER BY " + m.Dialect.Quote(m.Key)
	}
	return m.Dialect.Rebind(q)
}

// values returns the column values of v, a struct of the mapped type.
func (m *Mapping) values(v reflect.Value, columns []string) []any {
	args := make([]any, len(columns))
	for i, c := range columns {
		args[i] = v.FieldByIndex(m.fields[c]).Interface()
	}
	return args
}

func (m *Mapping) keyValue(v reflect.Value) reflect.Value {
	return v.FieldByIndex(m.fields[m.Key])
}

// validateLengths checks every bounded column of v.
func (m *Mapping) validateLengths(v reflect.Value) error {
	for _, column := range m.Columns {
		limit, ok := m.MaxLengths[column]
		if !ok {
			continue
		}
		if n := utf8.RuneCountInString(v.FieldByIndex(m.fields[column]).String()); n > limit {
			return maxLengthError(column, n, limit)
		}
	}
	return nil
}
