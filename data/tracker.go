package data

import (
	"time"
)

// EntryState is what a save will do with a tracked entity.
type EntryState int

const (
	StateUnchanged EntryState = iota
	StateAdded
	StateModified
	StateDeleted
)

func (s EntryState) String() string {
	switch s {
	case StateAdded:
		return "Added"
	case StateModified:
		return "Modified"
	case StateDeleted:
		return "Deleted"
	default:
		return "Unchanged"
	}
}

// Entry is one entity about to be saved.
type Entry struct {
	// Entity is a pointer to the record.
	Entity any
	State  EntryState
	// OriginalModifiedBy is the ModifiedBy value as last read from the
	// database.
	OriginalModifiedBy string
}

// ChangeTracker applies the audit rules to entries before they are written.
type ChangeTracker struct {
	now func() time.Time
}

// NewChangeTracker uses time.Now when now is nil.
func NewChangeTracker(now func() time.Time) *ChangeTracker {
	if now == nil {
		now = time.Now
	}
	return &ChangeTracker{now: now}
}

// Track turns the deletion of an entity with a status into a soft delete:
// the status becomes Removed and the entry is saved as a modification.
func (ct *ChangeTracker) Track(e *Entry) {
	if e.State != StateDeleted {
		return
	}
	s, ok := e.Entity.(Statused)
	if !ok {
		return
	}
	s.Base().Status = StatusRemoved
	e.State = StateModified
}

// SavingChanges stamps every audited entry with the same UTC time.
//
// Added entries get CreatedDate, and CreatedBy DefaultActor unless set.
// Modified entries get ModifiedDate, and ModifiedBy DefaultActor unless the
// caller changed it from its original value.
func (ct *ChangeTracker) SavingChanges(entries ...*Entry) {
	now := ct.now().UTC()
	for _, e := range entries {
		a, ok := e.Entity.(Audited)
		if !ok {
			continue
		}
		audit := a.Audit()
		switch e.State {
		case StateAdded:
			audit.CreatedDate = now
			if audit.CreatedBy == "" {
				audit.CreatedBy = DefaultActor
			}
		case StateModified:
			modified := now
			audit.ModifiedDate = &modified
			if audit.ModifiedBy == e.OriginalModifiedBy {
				audit.ModifiedBy = DefaultActor
			}
		}
	}
}
