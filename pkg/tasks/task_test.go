package tasks

import (
	"encoding/json"
	"testing"

	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/communication"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    Status
		wantErr bool
	}{
		{"Pending", StatusPending, false},
		{"In Progress", StatusInProgress, false},
		{"InProgress", StatusInProgress, false},
		{"work started", StatusWorkStarted, false},
		{"Completed", StatusCompleted, false},
		{"Correction", StatusCorrection, false},
		{"Done", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStatus(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseStatus() error = %v", err)
			}
			if err != nil && !errors.Is(err, communication.ErrValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseStatus() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestAcceptTransition(t *testing.T) {
	for _, from := range statuses {
		for _, to := range statuses {
			if !AcceptTransition(from, to) {
				t.Errorf("%s -> %s refused", from, to)
			}
		}
	}

	if AcceptTransition(StatusPending, "Archived") {
		t.Error("unknown target accepted")
	}
}

func TestTaskPatch_TouchesOnlyProgress(t *testing.T) {
	current := &Task{Subtasks: []Subtask{{Title: "a"}, {Title: "b"}}}
	title := "new"
	status := StatusCompleted

	tests := []struct {
		name  string
		patch TaskPatch
		want  bool
	}{
		{"status", TaskPatch{Status: &status}, true},
		{"completion map", TaskPatch{SubtaskCompletion: map[string]bool{"x": true}}, true},
		{"subtasks toggled", TaskPatch{Subtasks: &[]Subtask{{Title: "a", IsCompleted: true}, {Title: "b"}}}, true},
		{"subtask renamed", TaskPatch{Subtasks: &[]Subtask{{Title: "a"}, {Title: "c"}}}, false},
		{"subtask added", TaskPatch{Subtasks: &[]Subtask{{Title: "a"}, {Title: "b"}, {Title: "c"}}}, false},
		{"title", TaskPatch{Title: &title, Status: &status}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.patch.TouchesOnlyProgress(current); got != tt.want {
				t.Errorf("TouchesOnlyProgress() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTaskPatch_Apply(t *testing.T) {
	first := primitive.NewObjectID()
	task := &Task{
		Title:       "Landing page",
		Description: "hero section",
		Status:      StatusPending,
		Subtasks:    []Subtask{{ID: first, Title: "copy"}},
	}

	patch := TaskPatch{}
	err := json.Unmarshal([]byte(`{"status":"Work Started","subtaskCompletion":{"`+first.Hex()+`":true}}`), &patch)
	if err != nil {
		t.Fatal(err)
	}

	err = patch.Apply(task)
	if err != nil {
		t.Fatal(err)
	}

	if task.Status != StatusWorkStarted || !task.Subtasks[0].IsCompleted {
		t.Errorf("patch not applied: %+v", task)
	}
	if task.Title != "Landing page" || task.Description != "hero section" {
		t.Errorf("untouched fields changed: %+v", task)
	}

	set := patch.setDocument(task)
	if _, ok := set["title"]; ok {
		t.Error("title written although not patched")
	}
	if set["status"] != StatusWorkStarted || set["subtasks"] == nil {
		t.Errorf("unexpected $set %v", set)
	}

	unknown := TaskPatch{SubtaskCompletion: map[string]bool{primitive.NewObjectID().Hex(): true}}
	if err := unknown.Apply(task); !errors.Is(err, communication.ErrValidation) {
		t.Errorf("unknown subtask: %v", err)
	}
}

func TestTaskPatch_ApplyKeepsSubtaskIDs(t *testing.T) {
	id := primitive.NewObjectID()
	task := &Task{Subtasks: []Subtask{{ID: id, Title: "copy"}}}
	patch := TaskPatch{Subtasks: &[]Subtask{{Title: "copy", IsCompleted: true}, {Title: "images"}}}

	err := patch.Apply(task)
	if err != nil {
		t.Fatal(err)
	}

	if task.Subtasks[0].ID != id || task.Subtasks[1].ID.IsZero() {
		t.Errorf("unexpected ids %+v", task.Subtasks)
	}
}

func TestStatus_UnmarshalJSON(t *testing.T) {
	var task Task
	err := json.Unmarshal([]byte(`{"title":"x","status":"In Progress"}`), &task)
	if err != nil || task.Status != StatusInProgress {
		t.Errorf("status = %s, err = %v", task.Status, err)
	}

	err = json.Unmarshal([]byte(`{"status":"Later"}`), &task)
	if err == nil {
		t.Error("unknown status accepted")
	}
}
