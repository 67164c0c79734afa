package service

import (
	"context"
	"time"

	"github.com/derril-tech/ai-powered-project-management-tool/internal/core/automation"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/model"
)

type noopDispatcher struct{}

func (noopDispatcher) Dispatch(context.Context, automation.Event) {}

func dispatcherOrNoop(d automation.Dispatcher) automation.Dispatcher {
	if d == nil {
		return noopDispatcher{}
	}
	return d
}

func taskPayload(task *model.Task) map[string]interface{} {
	payload := map[string]interface{}{
		"id":         task.ID,
		"title":      task.Title,
		"status":     task.Status,
		"priority":   task.Priority,
		"project_id": task.ProjectID,
	}
	if task.Description != nil {
		payload["description"] = *task.Description
	}
	if task.EstimatedHours != nil {
		payload["estimated_hours"] = *task.EstimatedHours
	}
	if task.ActualHours != nil {
		payload["actual_hours"] = *task.ActualHours
	}
	if task.DueDate != nil {
		payload["due_date"] = task.DueDate.UTC().Format(time.RFC3339)
	}
	if task.AssigneeID != nil {
		payload["assignee_id"] = *task.AssigneeID
	}
	if task.SprintID != nil {
		payload["sprint_id"] = *task.SprintID
	}
	return payload
}

func sprintPayload(sprint *model.Sprint) map[string]interface{} {
	payload := map[string]interface{}{
		"id":            sprint.ID,
		"name":          sprint.Name,
		"status":        sprint.Status,
		"project_id":    sprint.ProjectID,
		"start_date":    sprint.StartDate.UTC().Format(time.RFC3339),
		"end_date":      sprint.EndDate.UTC().Format(time.RFC3339),
		"duration_days": sprint.DurationDays(),
	}
	if sprint.Goal != nil {
		payload["goal"] = *sprint.Goal
	}
	return payload
}

// sprintEvent 状态变为 active 或 completed 时产生事件
func sprintEvent(sprint *model.Sprint, previous string) (automation.Event, bool) {
	if sprint.Status == previous {
		return automation.Event{}, false
	}
	var eventType string
	switch sprint.Status {
	case model.SprintStatusActive:
		eventType = model.TriggerSprintStarted
	case model.SprintStatusCompleted:
		eventType = model.TriggerSprintCompleted
	default:
		return automation.Event{}, false
	}

	payload := sprintPayload(sprint)
	if previous != "" {
		payload["previous_status"] = previous
	}
	return automation.Event{Type: eventType, ProjectID: sprint.ProjectID, Payload: payload}, true
}
