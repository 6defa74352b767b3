package data

import (
	"context"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Dialect holds what differs between the supported databases.
type Dialect struct {
	Name string
	// DriverName is the database/sql driver the dialect is used with.
	DriverName    string
	DefaultSchema string
	// BindType is the sqlx placeholder style (sqlx.DOLLAR, sqlx.AT, ...).
	BindType int
	// Temporal reports whether system-versioned tables are available.
	Temporal bool

	quoteOpen, quoteClose string
}

var (
	PostgreSQL = Dialect{
		Name:          "PostgreSQL",
		DriverName:    "postgres",
		DefaultSchema: "public",
		BindType:      sqlx.DOLLAR,
		quoteOpen:     `"`,
		quoteClose:    `"`,
	}
	SQLServer = Dialect{
		Name:          "SQLServer",
		DriverName:    "sqlserver",
		DefaultSchema: "dbo",
		BindType:      sqlx.AT,
		Temporal:      true,
		quoteOpen:     "[",
		quoteClose:    "]",
	}
)

// Quote quotes an identifier, doubling any embedded closing quote.
func (d Dialect) Quote(identifier string) string {
	return d.quoteOpen + strings.ReplaceAll(identifier, d.quoteClose, d.quoteClose+d.quoteClose) + d.quoteClose
}

// Rebind converts a query written with ? placeholders to the dialect's style.
func (d Dialect) Rebind(query string) string {
	return sqlx.Rebind(d.BindType, query)
}

func (d Dialect) String() string {
	return d.Name
}

// OpenPostgres connects to PostgreSQL through lib/pq and pings it.
func OpenPostgres(ctx context.Context, dsn string) (*sqlx.DB, error) {
	return sqlx.ConnectContext(ctx, PostgreSQL.DriverName, dsn)
}

const pqUniqueViolation = "23505"

// translateError maps driver errors onto the package's coded errors.
func translateError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		return ErrDuplicateKey.WithCause(err)
	}
	return err
}
