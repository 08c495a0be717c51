package tasks

import "fmt"

// TaskTextRenderer renders notification messages based on the tasks state
type TaskTextRenderer struct{}

// RenderAssignedMessage renders the message an assignee receives
func (t *TaskTextRenderer) RenderAssignedMessage(task *Task) string {
	return fmt.Sprintf("New Task Assigned: %s", task.Title)
}

// RenderCompletedMessage renders the message admins receive when a task is done
func (t *TaskTextRenderer) RenderCompletedMessage(task *Task) string {
	return fmt.Sprintf("Task Completed: %s", task.Title)
}
