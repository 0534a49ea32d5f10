package services

import (
	"strconv"

	"github.com/MikkelWestermann/turn-signal-sub000/models"
)

type CategorizePolicy struct {
	PlannedLabel        string
	InProgressLabel     string
	DoneLabel           string
	ClosedIssueBehavior models.ClosedIssueBehavior
}

func PolicyForRoadmap(roadmap *models.Roadmap) CategorizePolicy {
	return CategorizePolicy{
		PlannedLabel:        roadmap.PlannedLabel,
		InProgressLabel:     roadmap.InProgressLabel,
		DoneLabel:           roadmap.DoneLabel,
		ClosedIssueBehavior: roadmap.ClosedIssueBehavior,
	}
}

type Columns struct {
	Planned    []Issue `json:"planned"`
	InProgress []Issue `json:"inProgress"`
	Done       []Issue `json:"done"`
}

// Categorize partitions issues into the three roadmap columns. Every issue
// lands in exactly one column, or in none when the closed-issue behavior is
// "filter" and the issue is closed.
//
// Closed issues are handled first: "filter" drops them, "done" forces them
// into Done without looking at labels, and "label" treats them like open
// issues. Labels are then checked in the fixed order done, in progress,
// planned; an issue carrying both the done and the planned label resolves
// to Done regardless of label array order. Issues with no status label land
// in Planned, the default bucket.
func Categorize(issues []Issue, policy CategorizePolicy) Columns {
	columns := Columns{
		Planned:    make([]Issue, 0),
		InProgress: make([]Issue, 0),
		Done:       make([]Issue, 0),
	}

	for _, issue := range issues {
		if issue.State == "closed" {
			switch policy.ClosedIssueBehavior {
			case models.ClosedIssueFilter:
				continue
			case models.ClosedIssueDone:
				columns.Done = append(columns.Done, issue)
				continue
			case models.ClosedIssueLabel:
				// fall through to label inspection
			default:
				continue
			}
		}

		switch {
		case hasLabel(issue, policy.DoneLabel):
			columns.Done = append(columns.Done, issue)
		case hasLabel(issue, policy.InProgressLabel):
			columns.InProgress = append(columns.InProgress, issue)
		default:
			columns.Planned = append(columns.Planned, issue)
		}
	}
	return columns
}

func hasLabel(issue Issue, name string) bool {
	for _, label := range issue.Labels {
		if label.Name == name {
			return true
		}
	}
	return false
}

// MergeVotes fills each issue's vote count from the ledger aggregate. The
// ledger keys votes by the GitHub issue id in string form.
func MergeVotes(issues []Issue, counts map[string]int) []Issue {
	for i := range issues {
		issues[i].VoteCount = counts[strconv.FormatInt(issues[i].Id, 10)]
	}
	return issues
}
