package policy

// Action is something an identity wants to do
type Action string

const (
	// ActionTaskCreate creates and assigns a task
	ActionTaskCreate Action = "task:create"
	// ActionTaskReadAll reads tasks of other users
	ActionTaskReadAll Action = "task:read-all"
	// ActionTaskUpdateProgress changes status, times and subtask completion
	ActionTaskUpdateProgress Action = "task:update-progress"
	// ActionTaskUpdateAll changes any field of a task
	ActionTaskUpdateAll Action = "task:update-all"
	// ActionTaskDelete removes a task
	ActionTaskDelete Action = "task:delete"
	// ActionAttendanceMark checks in for the day
	ActionAttendanceMark Action = "attendance:mark"
	// ActionAttendanceReadAll reads attendance of other users
	ActionAttendanceReadAll Action = "attendance:read-all"
	// ActionUserManage creates, updates and deletes users
	ActionUserManage Action = "user:manage"
	// ActionWorkManage handles client engagements
	ActionWorkManage Action = "work:manage"
)

// CanPerform decides whether role may do action. isOwner tells whether the
// identity owns the record in question, it only matters for owner actions.
func CanPerform(role Role, action Action, isOwner bool) bool {
	if !role.IsValid() {
		return false
	}

	switch action {
	case ActionTaskCreate, ActionTaskReadAll, ActionTaskUpdateAll, ActionTaskDelete,
		ActionAttendanceReadAll, ActionUserManage, ActionWorkManage:
		return role.IsAdmin()
	case ActionTaskUpdateProgress:
		return role.IsAdmin() || isOwner
	case ActionAttendanceMark:
		return true
	}

	return false
}

// Scope restricts which records a list call returns
type Scope struct {
	// Unrestricted is set for roles that see every record
	Unrestricted bool
	// OwnerID is the only owner visible when Unrestricted is false
	OwnerID string
}

// ScopeFilter returns the record scope of role. Managers see all records, same as seniors.
func ScopeFilter(role Role, subjectID string) Scope {
	if role.IsAdmin() {
		return Scope{Unrestricted: true}
	}

	return Scope{OwnerID: subjectID}
}

// Allows is the scope as a predicate over the owner of a record
func (s Scope) Allows(ownerID string) bool {
	if s.Unrestricted {
		return true
	}

	return s.OwnerID != "" && s.OwnerID == ownerID
}
