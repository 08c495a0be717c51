package policy

import (
	"encoding/json"
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{"Senior", RoleSenior, false},
		{"CEO", RoleSenior, false},
		{"Manager", RoleManager, false},
		{"Team Lead", RoleManager, false},
		{"TeamLead", RoleManager, false},
		{" staff ", RoleStaff, false},
		{"Intern", RoleUnknown, true},
		{"", RoleUnknown, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRole(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRole() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseRole() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRole_JSON(t *testing.T) {
	binary, err := json.Marshal(struct {
		Role Role `json:"role"`
	}{RoleManager})
	if err != nil {
		t.Fatal(err)
	}
	if string(binary) != `{"role":"Manager"}` {
		t.Errorf("got %s", binary)
	}

	var decoded struct {
		Role Role `json:"role"`
	}
	err = json.Unmarshal([]byte(`{"role":"Team Lead"}`), &decoded)
	if err != nil {
		t.Fatal(err)
	}
	if decoded.Role != RoleManager {
		t.Errorf("got %v", decoded.Role)
	}

	err = json.Unmarshal([]byte(`{"role":"Boss"}`), &decoded)
	if err == nil {
		t.Error("expected error for unknown role")
	}
}

func TestRole_BSON(t *testing.T) {
	type doc struct {
		Role Role `bson:"role"`
	}

	binary, err := bson.Marshal(doc{Role: RoleSenior})
	if err != nil {
		t.Fatal(err)
	}

	raw := bson.Raw(binary)
	if raw.Lookup("role").StringValue() != "Senior" {
		t.Errorf("stored %s", raw.Lookup("role"))
	}

	legacy, err := bson.Marshal(bson.M{"role": "CEO"})
	if err != nil {
		t.Fatal(err)
	}

	var decoded doc
	err = bson.Unmarshal(legacy, &decoded)
	if err != nil {
		t.Fatal(err)
	}
	if decoded.Role != RoleSenior {
		t.Errorf("got %v", decoded.Role)
	}
}

func TestCanPerform(t *testing.T) {
	tests := []struct {
		name    string
		role    Role
		action  Action
		isOwner bool
		want    bool
	}{
		{"senior creates task", RoleSenior, ActionTaskCreate, false, true},
		{"manager creates task", RoleManager, ActionTaskCreate, false, true},
		{"staff creates task", RoleStaff, ActionTaskCreate, false, false},
		{"staff reads all tasks", RoleStaff, ActionTaskReadAll, false, false},
		{"staff progresses own task", RoleStaff, ActionTaskUpdateProgress, true, true},
		{"staff progresses foreign task", RoleStaff, ActionTaskUpdateProgress, false, false},
		{"manager progresses foreign task", RoleManager, ActionTaskUpdateProgress, false, true},
		{"staff edits own task fully", RoleStaff, ActionTaskUpdateAll, true, false},
		{"staff marks attendance", RoleStaff, ActionAttendanceMark, false, true},
		{"staff reads all attendance", RoleStaff, ActionAttendanceReadAll, false, false},
		{"staff manages users", RoleStaff, ActionUserManage, false, false},
		{"senior manages users", RoleSenior, ActionUserManage, false, true},
		{"manager manages works", RoleManager, ActionWorkManage, false, true},
		{"unknown role marks attendance", RoleUnknown, ActionAttendanceMark, true, false},
		{"unknown action", RoleSenior, Action("launch"), true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanPerform(tt.role, tt.action, tt.isOwner); got != tt.want {
				t.Errorf("CanPerform() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScopeFilter(t *testing.T) {
	for _, role := range []Role{RoleSenior, RoleManager} {
		scope := ScopeFilter(role, "a")
		if !scope.Unrestricted || !scope.Allows("b") {
			t.Errorf("%s should see all records", role)
		}
	}

	scope := ScopeFilter(RoleStaff, "a")
	if scope.Unrestricted {
		t.Fatal("staff scope must be restricted")
	}
	if !scope.Allows("a") {
		t.Error("staff should see own records")
	}
	if scope.Allows("b") {
		t.Error("staff should not see foreign records")
	}

	if ScopeFilter(RoleStaff, "").Allows("") {
		t.Error("empty subject must not match empty owner")
	}
}

func TestRole_SpellingsCoverParseRole(t *testing.T) {
	for alias, role := range roleAliases {
		if !containsSpelling(role.Spellings(), alias) {
			t.Errorf("%q parses to %s but is missing from %v", alias, role, role.Spellings())
		}
	}

	stored := []string{"TeamLead", "team lead", "Team_Lead", "ceo", "senior", "MANAGER", " Staff "}
	for _, value := range stored {
		role, err := ParseRole(value)
		if err != nil {
			t.Fatal(err)
		}
		if !containsSpelling(role.Spellings(), strings.ToLower(strings.TrimSpace(value))) {
			t.Errorf("%q parses to %s but is missing from %v", value, role, role.Spellings())
		}
	}

	if got := RoleManager.Spellings(); got[0] != "manager" {
		t.Errorf("canonical spelling not first: %v", got)
	}
	if RoleUnknown.Spellings() != nil {
		t.Error("unknown role has spellings")
	}
}

func containsSpelling(spellings []string, value string) bool {
	for _, spelling := range spellings {
		if spelling == value {
			return true
		}
	}
	return false
}
