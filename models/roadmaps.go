package models

import (
	"time"

	"gorm.io/gorm"
)

type ClosedIssueBehavior string

const (
	ClosedIssueFilter ClosedIssueBehavior = "filter"
	ClosedIssueLabel  ClosedIssueBehavior = "label"
	ClosedIssueDone   ClosedIssueBehavior = "done"
)

const (
	DefaultPlannedLabel    = "planned"
	DefaultInProgressLabel = "in progress"
	DefaultDoneLabel       = "done"
)

// MaxRoadmapRepositories caps the repository set per roadmap. Enforced at
// the update boundary, not in storage.
const MaxRoadmapRepositories = 5

type Roadmap struct {
	gorm.Model
	OrganisationID      uint `gorm:"index:idx_roadmap_org"`
	Organisation        *Organisation
	Name                string
	Slug                string `gorm:"uniqueIndex:idx_roadmap_slug"`
	Description         string
	PrimaryLabel        string
	PlannedLabel        string
	InProgressLabel     string
	DoneLabel           string
	ShowComments        bool
	ShowCommentProfiles bool
	ClosedIssueBehavior ClosedIssueBehavior `gorm:"size:10"`
}

type RoadmapRepository struct {
	gorm.Model
	RoadmapID uint `gorm:"index:idx_roadmap_repository"`
	Owner     string
	Repo      string
}

// IssueVote is an anonymous upvote. The uuid primary key is the only
// credential needed to retract the vote, so no user identity is attached.
type IssueVote struct {
	ID             string `gorm:"primary_key"`
	OrganisationID uint
	RoadmapID      uint   `gorm:"index:idx_issue_vote_roadmap"`
	IssueId        string `gorm:"index:idx_issue_vote_roadmap"`
	CreatedAt      time.Time
}
