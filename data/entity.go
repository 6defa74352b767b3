package data

import (
	"strconv"
	"time"
)

const (
	// FirebrandSchema is the schema holding the framework's own tables.
	FirebrandSchema = "FB"
	// EntitySuffix is stripped from type names to form table names.
	EntitySuffix = "Entity"
	// DefaultActor is recorded when a change carries no actor.
	DefaultActor = "System"
	// AuditActorMaxLength bounds CreatedBy and ModifiedBy.
	AuditActorMaxLength = 50
)

// EntityStatus is the lifecycle status of a record. It is stored as an
// integer.
type EntityStatus int

const (
	StatusUndefined EntityStatus = iota
	StatusActive
	StatusPassive
	StatusDraft
	StatusRemoved
)

func (s EntityStatus) String() string {
	switch s {
	case StatusUndefined:
		return "Undefined"
	case StatusActive:
		return "Active"
	case StatusPassive:
		return "Passive"
	case StatusDraft:
		return "Draft"
	case StatusRemoved:
		return "Removed"
	default:
		return "EntityStatus(" + strconv.Itoa(int(s)) + ")"
	}
}

// BaseEntity is embedded by records that carry a lifecycle status. Records
// with status Removed are hidden from filtered queries.
type BaseEntity struct {
	Status EntityStatus `db:"status"`
}

// NewBaseEntity returns an Active entity.
func NewBaseEntity() BaseEntity {
	return BaseEntity{Status: StatusActive}
}

// Base gives change tracking access to the embedded BaseEntity.
func (e *BaseEntity) Base() *BaseEntity {
	return e
}

// AuditEntity adds creation and modification stamps to BaseEntity. The stamps
// are maintained by ChangeTracker, not by application code.
type AuditEntity struct {
	BaseEntity
	CreatedDate  time.Time  `db:"created_date"`
	CreatedBy    string     `db:"created_by"`
	ModifiedDate *time.Time `db:"modified_date"`
	ModifiedBy   string     `db:"modified_by"`
}

// NewAuditEntity returns an Active entity created at now (in UTC).
func NewAuditEntity(now time.Time) AuditEntity {
	return AuditEntity{
		BaseEntity:  NewBaseEntity(),
		CreatedDate: now.UTC(),
	}
}

func (e *AuditEntity) Audit() *AuditEntity {
	return e
}

// Statused is implemented by every type embedding BaseEntity.
type Statused interface {
	Base() *BaseEntity
}

// Audited is implemented by every type embedding AuditEntity.
type Audited interface {
	Audit() *AuditEntity
}
