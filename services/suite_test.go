package services

import (
	"log"
	"os"
	"strings"
	"testing"

	"github.com/MikkelWestermann/turn-signal-sub000/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupSuite(tb testing.TB) (func(tb testing.TB), *models.Database, *models.Organisation, *models.Roadmap) {
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
	err = gdb.AutoMigrate(&models.Organisation{}, &models.Token{}, &models.Roadmap{}, &models.RoadmapRepository{},
		&models.GithubInstallation{}, &models.IssueVote{})
	if err != nil {
		log.Fatal(err)
	}

	database := &models.Database{GormDB: gdb}
	models.DB = database

	orgTenantId := "11111111-1111-1111-1111-111111111111"
	externalSource := "test"
	orgName := "testOrg"
	org, err := database.CreateOrganisation(orgName, externalSource, orgTenantId)
	if err != nil {
		log.Fatal(err)
	}

	roadmap := &models.Roadmap{
		OrganisationID:      org.ID,
		Name:                "Test Roadmap",
		Slug:                "test-roadmap",
		PrimaryLabel:        "roadmap",
		ClosedIssueBehavior: models.ClosedIssueLabel,
		ShowComments:        true,
	}
	err = database.CreateRoadmap(roadmap)
	if err != nil {
		log.Fatal(err)
	}

	err = database.ReplaceRoadmapRepositories(roadmap.ID, []models.RoadmapRepository{
		{Owner: "turnsignal", Repo: "demo"},
	})
	if err != nil {
		log.Fatal(err)
	}

	_, err = database.CreateGithubInstallation("41584295", org.ID)
	if err != nil {
		log.Fatal(err)
	}

	// Return a function to teardown the test
	return func(tb testing.TB) {
		log.Println("teardown suite")
	}, database, org, roadmap
}
