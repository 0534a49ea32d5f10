package services

import (
	"context"
	"errors"
	"time"

	"github.com/MikkelWestermann/turn-signal-sub000/models"
	"golang.org/x/sync/errgroup"
)

var ErrRoadmapNotFound = errors.New("roadmap not found")

// RoadmapView is the payload the rendering layer consumes for a public
// roadmap page. Timestamp is the capture time of the read so a viewer can
// reconcile an optimistic local vote against the server aggregate.
type RoadmapView struct {
	Id                  uint                       `json:"id"`
	Name                string                     `json:"name"`
	Description         string                     `json:"description"`
	Slug                string                     `json:"slug"`
	PrimaryLabel        string                     `json:"primaryLabel"`
	PlannedLabel        string                     `json:"plannedLabel"`
	InProgressLabel     string                     `json:"inProgressLabel"`
	DoneLabel           string                     `json:"doneLabel"`
	ClosedIssueBehavior models.ClosedIssueBehavior `json:"closedIssueBehavior"`
	ShowComments        bool                       `json:"showComments"`
	Columns             Columns                    `json:"columns"`
	Timestamp           time.Time                  `json:"timestamp"`
}

// GetPublicRoadmap resolves a public roadmap page by slug. Issue content is
// always re-fetched from GitHub; only vote counts are durable. The issue
// fetch and the vote aggregate run concurrently. Issue links are stripped
// for callers outside the owning organisation.
func GetPublicRoadmap(ctx context.Context, db *models.Database, provider GithubClientProvider, slug string, callerOrgId *uint) (*RoadmapView, error) {
	roadmap, err := db.GetRoadmapBySlug(slug)
	if err != nil {
		return nil, err
	}
	if roadmap == nil {
		return nil, ErrRoadmapNotFound
	}

	isMember := callerOrgId != nil && *callerOrgId == roadmap.OrganisationID

	// a roadmap with no working GitHub connection cannot be rendered;
	// ErrInstallationNotFound stays distinct from ErrRoadmapNotFound
	client, _, err := ResolveInstallation(ctx, db, provider, roadmap.OrganisationID)
	if err != nil {
		return nil, err
	}

	repos, err := db.GetRoadmapRepositories(roadmap.ID)
	if err != nil {
		return nil, err
	}

	var perRepo [][]Issue
	var counts map[string]int

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var fetchErr error
		perRepo, fetchErr = FetchIssues(gctx, client, repos, roadmap.PrimaryLabel)
		return fetchErr
	})
	g.Go(func() error {
		var countErr error
		counts, countErr = db.CountVotesByIssue(roadmap.ID)
		return countErr
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	issues := make([]Issue, 0)
	for _, repoIssues := range perRepo {
		issues = append(issues, repoIssues...)
	}
	issues = MergeVotes(issues, counts)

	if !isMember {
		for i := range issues {
			issues[i].HtmlUrl = ""
		}
	}

	return &RoadmapView{
		Id:                  roadmap.ID,
		Name:                roadmap.Name,
		Description:         roadmap.Description,
		Slug:                roadmap.Slug,
		PrimaryLabel:        roadmap.PrimaryLabel,
		PlannedLabel:        roadmap.PlannedLabel,
		InProgressLabel:     roadmap.InProgressLabel,
		DoneLabel:           roadmap.DoneLabel,
		ClosedIssueBehavior: roadmap.ClosedIssueBehavior,
		ShowComments:        roadmap.ShowComments,
		Columns:             Categorize(issues, PolicyForRoadmap(roadmap)),
		Timestamp:           time.Now().UTC(),
	}, nil
}
