package policy

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Role is one of the three authorization roles
type Role int

const (
	// RoleUnknown is the zero value and never passes a policy check
	RoleUnknown Role = iota
	// RoleStaff can only see and progress their own records
	RoleStaff
	// RoleManager has full visibility and can assign work
	RoleManager
	// RoleSenior has full visibility and can assign work
	RoleSenior
)

var roleNames = map[Role]string{
	RoleSenior:  "Senior",
	RoleManager: "Manager",
	RoleStaff:   "Staff",
}

// legacy spellings found in stored documents and old tokens
var roleAliases = map[string]Role{
	"senior":    RoleSenior,
	"ceo":       RoleSenior,
	"manager":   RoleManager,
	"team lead": RoleManager,
	"teamlead":  RoleManager,
	"team_lead": RoleManager,
	"staff":     RoleStaff,
}

// ParseRole normalizes a role name
func ParseRole(value string) (Role, error) {
	role, ok := roleAliases[strings.ToLower(strings.TrimSpace(value))]
	if !ok {
		return RoleUnknown, fmt.Errorf("unknown role %q", value)
	}

	return role, nil
}

// String returns the canonical role name
func (r Role) String() string {
	name, ok := roleNames[r]
	if !ok {
		return "Unknown"
	}

	return name
}

// IsValid reports whether r is one of the three roles
func (r Role) IsValid() bool {
	_, ok := roleNames[r]
	return ok
}

// IsAdmin reports whether r has the full scope
func (r Role) IsAdmin() bool {
	return r == RoleSenior || r == RoleManager
}

// MarshalJSON encodes the canonical name
func (r Role) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// UnmarshalJSON accepts the canonical name or a legacy alias
func (r *Role) UnmarshalJSON(data []byte) error {
	var value string
	err := json.Unmarshal(data, &value)
	if err != nil {
		return err
	}

	role, err := ParseRole(value)
	if err != nil {
		return err
	}

	*r = role
	return nil
}

// MarshalBSONValue stores the canonical name
func (r Role) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(r.String())
}

// UnmarshalBSONValue accepts the canonical name or a legacy alias
func (r *Role) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	var value string
	err := bson.RawValue{Type: t, Value: data}.Unmarshal(&value)
	if err != nil {
		return err
	}

	role, err := ParseRole(value)
	if err != nil {
		return err
	}

	*r = role
	return nil
}

// Spellings returns every name ParseRole maps to r, lower case and canonical name first.
// Stored documents may use any casing of them.
func (r Role) Spellings() []string {
	canonical := strings.ToLower(r.String())
	if _, ok := roleAliases[canonical]; !ok {
		return nil
	}

	spellings := []string{canonical}
	for alias, role := range roleAliases {
		if role == r && alias != canonical {
			spellings = append(spellings, alias)
		}
	}
	sort.Strings(spellings[1:])

	return spellings
}
