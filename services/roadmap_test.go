package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-github/v55/github"
	"github.com/migueleliasweb/go-github-mock/src/mock"
	"github.com/stretchr/testify/assert"
)

func mockedRoadmapGithub() *GithubClientMock {
	now := github.Timestamp{Time: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	issues := []github.Issue{
		{
			ID:        github.Int64(101),
			Number:    github.Int(1),
			Title:     github.String("Dark mode"),
			State:     github.String("open"),
			HTMLURL:   github.String("https://github.com/turnsignal/demo/issues/1"),
			CreatedAt: &now,
			UpdatedAt: &now,
			Labels:    []*github.Label{{Name: github.String("roadmap")}, {Name: github.String("planned")}},
		},
		{
			ID:        github.Int64(102),
			Number:    github.Int(2),
			Title:     github.String("Exports"),
			State:     github.String("closed"),
			HTMLURL:   github.String("https://github.com/turnsignal/demo/issues/2"),
			CreatedAt: &now,
			UpdatedAt: &now,
			Labels:    []*github.Label{{Name: github.String("roadmap")}, {Name: github.String("done")}},
		},
	}

	return &GithubClientMock{MockedHTTPClient: mock.NewMockedHTTPClient(
		mock.WithRequestMatch(
			mock.GetAppInstallationsByInstallationId,
			github.Installation{ID: github.Int64(41584295)},
		),
		mock.WithRequestMatch(
			mock.GetReposIssuesByOwnerByRepo,
			issues,
		),
	)}
}

func TestGetPublicRoadmapUnknownSlug(t *testing.T) {
	teardownSuite, database, _, _ := setupSuite(t)
	defer teardownSuite(t)

	_, err := GetPublicRoadmap(context.Background(), database, mockedRoadmapGithub(), "no-such-roadmap", nil)
	assert.ErrorIs(t, err, ErrRoadmapNotFound)
}

func TestGetPublicRoadmapStripsLinksForNonMembers(t *testing.T) {
	teardownSuite, database, _, roadmap := setupSuite(t)
	defer teardownSuite(t)

	view, err := GetPublicRoadmap(context.Background(), database, mockedRoadmapGithub(), roadmap.Slug, nil)
	assert.NoError(t, err)

	all := append(append(view.Columns.Planned, view.Columns.InProgress...), view.Columns.Done...)
	assert.Len(t, all, 2)
	for _, issue := range all {
		assert.Empty(t, issue.HtmlUrl)
	}
}

func TestGetPublicRoadmapKeepsLinksForMembers(t *testing.T) {
	teardownSuite, database, org, roadmap := setupSuite(t)
	defer teardownSuite(t)

	view, err := GetPublicRoadmap(context.Background(), database, mockedRoadmapGithub(), roadmap.Slug, &org.ID)
	assert.NoError(t, err)

	all := append(append(view.Columns.Planned, view.Columns.InProgress...), view.Columns.Done...)
	assert.Len(t, all, 2)
	for _, issue := range all {
		assert.NotEmpty(t, issue.HtmlUrl)
	}
}

func TestGetPublicRoadmapCategorizesAndMergesVotes(t *testing.T) {
	teardownSuite, database, org, roadmap := setupSuite(t)
	defer teardownSuite(t)

	_, err := database.CreateIssueVote(org.ID, roadmap.ID, "101")
	assert.NoError(t, err)
	_, err = database.CreateIssueVote(org.ID, roadmap.ID, "101")
	assert.NoError(t, err)

	view, err := GetPublicRoadmap(context.Background(), database, mockedRoadmapGithub(), roadmap.Slug, nil)
	assert.NoError(t, err)

	assert.Len(t, view.Columns.Planned, 1)
	assert.Equal(t, int64(101), view.Columns.Planned[0].Id)
	assert.Equal(t, 2, view.Columns.Planned[0].VoteCount)
	assert.Len(t, view.Columns.Done, 1)
	assert.Equal(t, int64(102), view.Columns.Done[0].Id)
	assert.False(t, view.Timestamp.IsZero())
}

func TestGetPublicRoadmapFailsWithoutInstallation(t *testing.T) {
	teardownSuite, database, _, roadmap := setupSuite(t)
	defer teardownSuite(t)

	err := database.DeleteGithubInstallation("41584295")
	assert.NoError(t, err)

	_, err = GetPublicRoadmap(context.Background(), database, mockedRoadmapGithub(), roadmap.Slug, nil)
	assert.ErrorIs(t, err, ErrInstallationNotFound)
}
