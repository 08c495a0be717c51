package tasks

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/communication"
	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/users"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Status is the lifecycle state of a task
type Status string

const (
	// StatusPending is the initial state
	StatusPending Status = "Pending"
	// StatusInProgress means the assignee picked the task up
	StatusInProgress Status = "In Progress"
	// StatusWorkStarted means work on the task began
	StatusWorkStarted Status = "Work Started"
	// StatusCompleted is reported by the assignee when done
	StatusCompleted Status = "Completed"
	// StatusCorrection sends a completed task back
	StatusCorrection Status = "Correction"
)

var statuses = []Status{StatusPending, StatusInProgress, StatusWorkStarted, StatusCompleted, StatusCorrection}

// ParseStatus accepts the stored spelling as well as the spelling without blanks
func ParseStatus(value string) (Status, error) {
	normalized := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(value), " ", ""))
	for _, status := range statuses {
		if strings.ToLower(strings.ReplaceAll(string(status), " ", "")) == normalized {
			return status, nil
		}
	}

	return "", errors.Wrapf(communication.ErrValidation, "unknown task status %q", value)
}

// IsValid reports whether s is one of the five states
func (s Status) IsValid() bool {
	for _, status := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

// UnmarshalJSON normalizes the status spelling
func (s *Status) UnmarshalJSON(data []byte) error {
	var value string
	err := json.Unmarshal(data, &value)
	if err != nil {
		return err
	}

	if value == "" {
		*s = ""
		return nil
	}

	status, err := ParseStatus(value)
	if err != nil {
		return err
	}

	*s = status
	return nil
}

// AcceptTransition tells whether a task may move from one state to another.
// Every state is reachable from every other one, only unknown states are refused.
func AcceptTransition(from Status, to Status) bool {
	return to.IsValid()
}

// Subtask is one step of a task
type Subtask struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id"`
	Title       string             `json:"title" bson:"title" validate:"required"`
	IsCompleted bool               `json:"isCompleted" bson:"isCompleted"`
}

// Task is the model for a task
type Task struct {
	ID             primitive.ObjectID `json:"_id" bson:"_id"`
	Title          string             `json:"title" bson:"title" validate:"required"`
	Description    string             `json:"description,omitempty" bson:"description,omitempty"`
	SubCategory    string             `json:"subCategory,omitempty" bson:"subCategory,omitempty"`
	Subtasks       []Subtask          `json:"subtasks" bson:"subtasks" validate:"dive"`
	AssignedTo     primitive.ObjectID `json:"assignedTo" bson:"assignedTo"`
	AssignedBy     primitive.ObjectID `json:"assignedBy" bson:"assignedBy"`
	DueDate        *time.Time         `json:"dueDate,omitempty" bson:"dueDate,omitempty"`
	Status         Status             `json:"status" bson:"status" validate:"required"`
	StartTime      *time.Time         `json:"startTime,omitempty" bson:"startTime,omitempty"`
	EndTime        *time.Time         `json:"endTime,omitempty" bson:"endTime,omitempty"`
	CreatedAt      time.Time          `json:"createdAt" bson:"createdAt"`
	LastModifiedAt time.Time          `json:"lastModifiedAt" bson:"lastModifiedAt"`
}

// TaskView is a task with its assignee populated
type TaskView struct {
	Task     `bson:",inline"`
	Assignee *users.Summary `json:"assignee,omitempty" bson:"assignee,omitempty"`
}

// TaskPatch holds the fields of a partial update, nil fields stay untouched
type TaskPatch struct {
	Title       *string             `json:"title"`
	Description *string             `json:"description"`
	SubCategory *string             `json:"subCategory"`
	Subtasks    *[]Subtask          `json:"subtasks"`
	AssignedTo  *primitive.ObjectID `json:"assignedTo"`
	DueDate     *time.Time          `json:"dueDate"`

	Status            *Status         `json:"status"`
	StartTime         *time.Time      `json:"startTime"`
	EndTime           *time.Time      `json:"endTime"`
	SubtaskCompletion map[string]bool `json:"subtaskCompletion"`
}

// IsEmpty reports whether the patch changes nothing
func (p *TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.SubCategory == nil && p.Subtasks == nil &&
		p.AssignedTo == nil && p.DueDate == nil && p.Status == nil && p.StartTime == nil &&
		p.EndTime == nil && len(p.SubtaskCompletion) == 0
}

// TouchesOnlyProgress reports whether the patch only reports progress on current: status, times
// and subtask completion. A subtask list that keeps every title in place counts as progress.
func (p *TaskPatch) TouchesOnlyProgress(current *Task) bool {
	if p.Title != nil || p.Description != nil || p.SubCategory != nil || p.AssignedTo != nil || p.DueDate != nil {
		return false
	}

	if p.Subtasks == nil {
		return true
	}

	subtasks := *p.Subtasks
	if len(subtasks) != len(current.Subtasks) {
		return false
	}
	for i := range subtasks {
		if subtasks[i].Title != current.Subtasks[i].Title {
			return false
		}
	}

	return true
}

// Apply copies the present fields onto task
func (p *TaskPatch) Apply(task *Task) error {
	if p.Title != nil {
		task.Title = *p.Title
	}
	if p.Description != nil {
		task.Description = *p.Description
	}
	if p.SubCategory != nil {
		task.SubCategory = *p.SubCategory
	}
	if p.AssignedTo != nil {
		task.AssignedTo = *p.AssignedTo
	}
	if p.DueDate != nil {
		task.DueDate = p.DueDate
	}
	if p.Status != nil {
		task.Status = *p.Status
	}
	if p.StartTime != nil {
		task.StartTime = p.StartTime
	}
	if p.EndTime != nil {
		task.EndTime = p.EndTime
	}

	if p.Subtasks != nil {
		subtasks := make([]Subtask, len(*p.Subtasks))
		copy(subtasks, *p.Subtasks)
		for i := range subtasks {
			if subtasks[i].ID.IsZero() {
				if i < len(task.Subtasks) && task.Subtasks[i].Title == subtasks[i].Title {
					subtasks[i].ID = task.Subtasks[i].ID
				} else {
					subtasks[i].ID = primitive.NewObjectID()
				}
			}
		}
		task.Subtasks = subtasks
	}

	for id, completed := range p.SubtaskCompletion {
		found := false
		for i := range task.Subtasks {
			if task.Subtasks[i].ID.Hex() == id {
				task.Subtasks[i].IsCompleted = completed
				found = true
				break
			}
		}
		if !found {
			return errors.Wrap(communication.ErrValidation, fmt.Sprintf("unknown subtask %s", id))
		}
	}

	return nil
}

// setDocument returns the $set document of the fields the patch touched, read from the patched task
func (p *TaskPatch) setDocument(task *Task) bson.M {
	set := bson.M{"lastModifiedAt": task.LastModifiedAt}

	if p.Title != nil {
		set["title"] = task.Title
	}
	if p.Description != nil {
		set["description"] = task.Description
	}
	if p.SubCategory != nil {
		set["subCategory"] = task.SubCategory
	}
	if p.AssignedTo != nil {
		set["assignedTo"] = task.AssignedTo
	}
	if p.DueDate != nil {
		set["dueDate"] = task.DueDate
	}
	if p.Status != nil {
		set["status"] = task.Status
	}
	if p.StartTime != nil {
		set["startTime"] = task.StartTime
	}
	if p.EndTime != nil {
		set["endTime"] = task.EndTime
	}
	if p.Subtasks != nil || len(p.SubtaskCompletion) > 0 {
		set["subtasks"] = task.Subtasks
	}

	return set
}
