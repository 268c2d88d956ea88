// Package linear integrates with the Linear issue tracker: inbound webhook
// envelopes and the outbound GraphQL API.
package linear

import "strings"

// WebhookEvent is the envelope Linear posts to webhook consumers.
type WebhookEvent struct {
	Action         string     `json:"action"`
	Type           string     `json:"type"`
	OrganizationID string     `json:"organizationId"`
	Data           IssueData  `json:"data"`
	UpdatedFrom    *IssueDiff `json:"updatedFrom,omitempty"`
}

// IssueData carries the issue fields present on the event.
type IssueData struct {
	ID       string    `json:"id"`
	StateID  string    `json:"stateId"`
	Assignee *Assignee `json:"assignee,omitempty"`
}

// Assignee identifies the Linear user assigned to the issue.
type Assignee struct {
	ID string `json:"id"`
}

// IssueDiff carries the previous values of changed issue fields.
type IssueDiff struct {
	StateID string `json:"stateId"`
}

// IssueUpdate is a classified event: an issue whose workflow state changed
// while an assignee is set.
type IssueUpdate struct {
	OrganizationID  string
	IssueID         string
	AssigneeID      string
	StateID         string
	PreviousStateID string
}

// ClassifyIssueUpdate decides whether an event is worth evaluating for a
// reward claim. Only issue updates that carry both a workflow-state change
// and a non-empty assignee pass; everything else is ignored without side
// effects.
func ClassifyIssueUpdate(ev WebhookEvent) (*IssueUpdate, bool) {
	if ev.Type != "Issue" || ev.Action != "update" {
		return nil, false
	}
	if ev.UpdatedFrom == nil || strings.TrimSpace(ev.UpdatedFrom.StateID) == "" {
		return nil, false
	}
	if ev.Data.Assignee == nil || strings.TrimSpace(ev.Data.Assignee.ID) == "" {
		return nil, false
	}

	return &IssueUpdate{
		OrganizationID:  strings.TrimSpace(ev.OrganizationID),
		IssueID:         strings.TrimSpace(ev.Data.ID),
		AssigneeID:      strings.TrimSpace(ev.Data.Assignee.ID),
		StateID:         strings.TrimSpace(ev.Data.StateID),
		PreviousStateID: strings.TrimSpace(ev.UpdatedFrom.StateID),
	}, true
}
