package models

import (
	"log"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupSuite(tb testing.TB) (func(tb testing.TB), *Database, *Organisation, *Roadmap) {
	log.Println("setup suite")

	// database file name
	dbName := "database_test.db"

	// remove old database
	e := os.Remove(dbName)
	if e != nil {
		if !strings.Contains(e.Error(), "no such file or directory") {
			log.Fatal(e)
		}
	}

	// open and create a new database
	gdb, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{})
	if err != nil {
		log.Fatal(err)
	}

	// migrate tables
	err = gdb.AutoMigrate(&Organisation{}, &Token{}, &Roadmap{}, &RoadmapRepository{},
		&GithubInstallation{}, &IssueVote{})
	if err != nil {
		log.Fatal(err)
	}

	database := &Database{GormDB: gdb}
	DB = database

	org, err := database.CreateOrganisation("testOrg", "test", "11111111-1111-1111-1111-111111111111")
	if err != nil {
		log.Fatal(err)
	}

	roadmap := &Roadmap{
		OrganisationID: org.ID,
		Name:           "Test Roadmap",
		Slug:           "test-roadmap",
		PrimaryLabel:   "roadmap",
	}
	err = database.CreateRoadmap(roadmap)
	if err != nil {
		log.Fatal(err)
	}

	// Return a function to teardown the test
	return func(tb testing.TB) {
		log.Println("teardown suite")
	}, database, org, roadmap
}

func TestCreateRoadmapAppliesDefaults(t *testing.T) {
	teardownSuite, database, org, _ := setupSuite(t)
	defer teardownSuite(t)

	roadmap := &Roadmap{OrganisationID: org.ID, Name: "Second", Slug: "second", PrimaryLabel: "roadmap"}
	err := database.CreateRoadmap(roadmap)
	assert.NoError(t, err)

	assert.Equal(t, DefaultPlannedLabel, roadmap.PlannedLabel)
	assert.Equal(t, DefaultInProgressLabel, roadmap.InProgressLabel)
	assert.Equal(t, DefaultDoneLabel, roadmap.DoneLabel)
	assert.Equal(t, ClosedIssueFilter, roadmap.ClosedIssueBehavior)
}

func TestGetRoadmapScopedToOrganisation(t *testing.T) {
	teardownSuite, database, _, roadmap := setupSuite(t)
	defer teardownSuite(t)

	otherOrg, err := database.CreateOrganisation("otherOrg", "test", "22222222-2222-2222-2222-222222222222")
	assert.NoError(t, err)

	found, err := database.GetRoadmap(otherOrg.ID, roadmap.ID)
	assert.NoError(t, err)
	assert.Nil(t, found)

	found, err = database.GetRoadmap(roadmap.OrganisationID, roadmap.ID)
	assert.NoError(t, err)
	assert.NotNil(t, found)
}

func TestSlugTaken(t *testing.T) {
	teardownSuite, database, _, roadmap := setupSuite(t)
	defer teardownSuite(t)

	taken, err := database.SlugTaken("test-roadmap", 0)
	assert.NoError(t, err)
	assert.True(t, taken)

	// the roadmap's own slug does not conflict with itself
	taken, err = database.SlugTaken("test-roadmap", roadmap.ID)
	assert.NoError(t, err)
	assert.False(t, taken)

	taken, err = database.SlugTaken("unused", 0)
	assert.NoError(t, err)
	assert.False(t, taken)
}

func TestVoteLedgerCounts(t *testing.T) {
	teardownSuite, database, org, roadmap := setupSuite(t)
	defer teardownSuite(t)

	votes := make([]*IssueVote, 0)
	for i := 0; i < 3; i++ {
		vote, err := database.CreateIssueVote(org.ID, roadmap.ID, "101")
		assert.NoError(t, err)
		votes = append(votes, vote)
	}
	_, err := database.CreateIssueVote(org.ID, roadmap.ID, "102")
	assert.NoError(t, err)

	counts, err := database.CountVotesByIssue(roadmap.ID)
	assert.NoError(t, err)
	assert.Equal(t, 3, counts["101"])
	assert.Equal(t, 1, counts["102"])

	found, err := database.DeleteIssueVote(votes[0].ID)
	assert.NoError(t, err)
	assert.True(t, found)

	counts, err = database.CountVotesByIssue(roadmap.ID)
	assert.NoError(t, err)
	assert.Equal(t, 2, counts["101"])
}

func TestDeleteUnknownVoteReportsNotFound(t *testing.T) {
	teardownSuite, database, _, _ := setupSuite(t)
	defer teardownSuite(t)

	found, err := database.DeleteIssueVote("not-a-vote-id")
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestDeleteRoadmapCascades(t *testing.T) {
	teardownSuite, database, org, roadmap := setupSuite(t)
	defer teardownSuite(t)

	err := database.ReplaceRoadmapRepositories(roadmap.ID, []RoadmapRepository{
		{Owner: "turnsignal", Repo: "demo"},
	})
	assert.NoError(t, err)
	_, err = database.CreateIssueVote(org.ID, roadmap.ID, "101")
	assert.NoError(t, err)

	err = database.DeleteRoadmap(roadmap)
	assert.NoError(t, err)

	repos, err := database.GetRoadmapRepositories(roadmap.ID)
	assert.NoError(t, err)
	assert.Empty(t, repos)

	counts, err := database.CountVotesByIssue(roadmap.ID)
	assert.NoError(t, err)
	assert.Empty(t, counts)

	found, err := database.GetRoadmapBySlug("test-roadmap")
	assert.NoError(t, err)
	assert.Nil(t, found)
}

func TestReplaceRoadmapRepositories(t *testing.T) {
	teardownSuite, database, _, roadmap := setupSuite(t)
	defer teardownSuite(t)

	err := database.ReplaceRoadmapRepositories(roadmap.ID, []RoadmapRepository{
		{Owner: "turnsignal", Repo: "one"},
		{Owner: "turnsignal", Repo: "two"},
	})
	assert.NoError(t, err)

	err = database.ReplaceRoadmapRepositories(roadmap.ID, []RoadmapRepository{
		{Owner: "turnsignal", Repo: "three"},
	})
	assert.NoError(t, err)

	repos, err := database.GetRoadmapRepositories(roadmap.ID)
	assert.NoError(t, err)
	assert.Len(t, repos, 1)
	assert.Equal(t, "three", repos[0].Repo)
}

func TestGithubInstallationLifecycle(t *testing.T) {
	teardownSuite, database, org, _ := setupSuite(t)
	defer teardownSuite(t)

	installation, err := database.GetGithubInstallationForOrg(org.ID)
	assert.NoError(t, err)
	assert.Nil(t, installation)

	_, err = database.CreateGithubInstallation("12345", org.ID)
	assert.NoError(t, err)

	// creating the same installation again is a no-op
	_, err = database.CreateGithubInstallation("12345", org.ID)
	assert.NoError(t, err)

	installation, err = database.GetGithubInstallationForOrg(org.ID)
	assert.NoError(t, err)
	assert.Equal(t, "12345", installation.InstallationId)

	// but linking it to another org is rejected
	otherOrg, err := database.CreateOrganisation("otherOrg", "test", "33333333-3333-3333-3333-333333333333")
	assert.NoError(t, err)
	_, err = database.CreateGithubInstallation("12345", otherOrg.ID)
	assert.Error(t, err)

	err = database.DeleteGithubInstallation("12345")
	assert.NoError(t, err)

	installation, err = database.GetGithubInstallationForOrg(org.ID)
	assert.NoError(t, err)
	assert.Nil(t, installation)
}
