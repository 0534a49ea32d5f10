package controllers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MikkelWestermann/turn-signal-sub000/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestCreateRoadmapDuplicateSlugConflicts(t *testing.T) {
	teardownSuite, database, org := setupSuite(t)
	defer teardownSuite(t)
	createTestRoadmap(t, database, org)

	body := `{"name": "Another", "slug": "test-roadmap", "primaryLabel": "roadmap"}`

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set(middleware.ORGANISATION_ID_KEY, org.ID)
	c.Request = jsonRequest(http.MethodPost, "/roadmaps", body)
	CreateRoadmap(c)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCreateRoadmapGeneratesSlug(t *testing.T) {
	teardownSuite, database, org := setupSuite(t)
	defer teardownSuite(t)

	body := `{"name": "My Product Roadmap", "primaryLabel": "roadmap"}`

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set(middleware.ORGANISATION_ID_KEY, org.ID)
	c.Request = jsonRequest(http.MethodPost, "/roadmaps", body)
	CreateRoadmap(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "my-product-roadmap-")

	roadmaps, err := database.ListRoadmaps(org.ID)
	assert.NoError(t, err)
	assert.Len(t, roadmaps, 1)
	assert.Equal(t, "planned", roadmaps[0].PlannedLabel)
}

func TestCreateRoadmapRejectsUnknownClosedIssueBehavior(t *testing.T) {
	teardownSuite, _, org := setupSuite(t)
	defer teardownSuite(t)

	body := `{"name": "X", "primaryLabel": "roadmap", "closedIssueBehavior": "archive"}`

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set(middleware.ORGANISATION_ID_KEY, org.ID)
	c.Request = jsonRequest(http.MethodPost, "/roadmaps", body)
	CreateRoadmap(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateRepositoriesEnforcesCap(t *testing.T) {
	teardownSuite, database, org := setupSuite(t)
	defer teardownSuite(t)
	roadmap := createTestRoadmap(t, database, org)

	repos := `[
		{"owner": "o", "repo": "r1"}, {"owner": "o", "repo": "r2"}, {"owner": "o", "repo": "r3"},
		{"owner": "o", "repo": "r4"}, {"owner": "o", "repo": "r5"}, {"owner": "o", "repo": "r6"}
	]`
	body := fmt.Sprintf(`{"repositories": %s}`, repos)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set(middleware.ORGANISATION_ID_KEY, org.ID)
	c.Params = gin.Params{{Key: "id", Value: fmt.Sprintf("%d", roadmap.ID)}}
	c.Request = jsonRequest(http.MethodPut, "/roadmaps/1/repositories", body)
	UpdateRepositories(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// nothing was written
	stored, err := database.GetRoadmapRepositories(roadmap.ID)
	assert.NoError(t, err)
	assert.Empty(t, stored)
}

func TestUpdateRepositoriesReplacesSet(t *testing.T) {
	teardownSuite, database, org := setupSuite(t)
	defer teardownSuite(t)
	roadmap := createTestRoadmap(t, database, org)

	body := `{"repositories": [{"owner": "turnsignal", "repo": "demo"}]}`

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set(middleware.ORGANISATION_ID_KEY, org.ID)
	c.Params = gin.Params{{Key: "id", Value: fmt.Sprintf("%d", roadmap.ID)}}
	c.Request = jsonRequest(http.MethodPut, "/roadmaps/1/repositories", body)
	UpdateRepositories(c)
	assert.Equal(t, http.StatusOK, w.Code)

	stored, err := database.GetRoadmapRepositories(roadmap.ID)
	assert.NoError(t, err)
	assert.Len(t, stored, 1)
	assert.Equal(t, "demo", stored[0].Repo)
}

func TestGetRoadmapForOtherOrgIsNotFound(t *testing.T) {
	teardownSuite, database, org := setupSuite(t)
	defer teardownSuite(t)
	roadmap := createTestRoadmap(t, database, org)

	otherOrg, err := database.CreateOrganisation("otherOrg", "test", "55555555-5555-5555-5555-555555555555")
	assert.NoError(t, err)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set(middleware.ORGANISATION_ID_KEY, otherOrg.ID)
	c.Params = gin.Params{{Key: "id", Value: fmt.Sprintf("%d", roadmap.ID)}}
	c.Request = httptest.NewRequest(http.MethodGet, "/roadmaps/1", nil)
	GetRoadmap(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
