package controllers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/MikkelWestermann/turn-signal-sub000/middleware"
	"github.com/MikkelWestermann/turn-signal-sub000/models"
	"github.com/MikkelWestermann/turn-signal-sub000/services"
	"github.com/dchest/uniuri"
	"github.com/gin-gonic/gin"
	"github.com/google/go-github/v55/github"
)

type RoadmapRequest struct {
	Name                string `json:"name" binding:"required"`
	Slug                string `json:"slug"`
	Description         string `json:"description"`
	PrimaryLabel        string `json:"primaryLabel" binding:"required"`
	PlannedLabel        string `json:"plannedLabel"`
	InProgressLabel     string `json:"inProgressLabel"`
	DoneLabel           string `json:"doneLabel"`
	ShowComments        bool   `json:"showComments"`
	ShowCommentProfiles bool   `json:"showCommentProfiles"`
	ClosedIssueBehavior string `json:"closedIssueBehavior"`
}

func validClosedIssueBehavior(behavior string) bool {
	switch models.ClosedIssueBehavior(behavior) {
	case models.ClosedIssueFilter, models.ClosedIssueLabel, models.ClosedIssueDone:
		return true
	}
	return behavior == ""
}

func slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.Join(strings.Fields(slug), "-")
	return slug + "-" + strings.ToLower(uniuri.NewLen(6))
}

func CreateRoadmap(c *gin.Context) {
	orgId, exists := c.Get(middleware.ORGANISATION_ID_KEY)
	if !exists {
		c.String(http.StatusForbidden, "Not allowed to access this resource")
		return
	}

	var request RoadmapRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !validClosedIssueBehavior(request.ClosedIssueBehavior) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "closedIssueBehavior must be one of filter, label, done"})
		return
	}

	slug := request.Slug
	if slug == "" {
		slug = slugify(request.Name)
	}

	taken, err := models.DB.SlugTaken(slug, 0)
	if err != nil {
		log.Printf("Error checking slug: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unknown error occurred while fetching database"})
		return
	}
	if taken {
		c.JSON(http.StatusConflict, gin.H{"error": "Slug is already in use: " + slug})
		return
	}

	roadmap := models.Roadmap{
		OrganisationID:      orgId.(uint),
		Name:                request.Name,
		Slug:                slug,
		Description:         request.Description,
		PrimaryLabel:        request.PrimaryLabel,
		PlannedLabel:        request.PlannedLabel,
		InProgressLabel:     request.InProgressLabel,
		DoneLabel:           request.DoneLabel,
		ShowComments:        request.ShowComments,
		ShowCommentProfiles: request.ShowCommentProfiles,
		ClosedIssueBehavior: models.ClosedIssueBehavior(request.ClosedIssueBehavior),
	}
	err = models.DB.CreateRoadmap(&roadmap)
	if err != nil {
		log.Printf("Error creating roadmap: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating roadmap"})
		return
	}

	c.JSON(http.StatusOK, roadmapToJson(&roadmap, nil))
}

func ListRoadmaps(c *gin.Context) {
	orgId, exists := c.Get(middleware.ORGANISATION_ID_KEY)
	if !exists {
		c.String(http.StatusForbidden, "Not allowed to access this resource")
		return
	}

	roadmaps, err := models.DB.ListRoadmaps(orgId)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unknown error occurred while fetching database"})
		return
	}

	response := make([]interface{}, 0)
	for i := range roadmaps {
		response = append(response, roadmapToJson(&roadmaps[i], nil))
	}
	c.JSON(http.StatusOK, response)
}

func GetRoadmap(c *gin.Context) {
	roadmap, ok := roadmapFromContext(c)
	if !ok {
		return
	}

	repos, err := models.DB.GetRoadmapRepositories(roadmap.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unknown error occurred while fetching database"})
		return
	}

	c.JSON(http.StatusOK, roadmapToJson(roadmap, repos))
}

func UpdateRoadmap(c *gin.Context) {
	roadmap, ok := roadmapFromContext(c)
	if !ok {
		return
	}

	var request RoadmapRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !validClosedIssueBehavior(request.ClosedIssueBehavior) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "closedIssueBehavior must be one of filter, label, done"})
		return
	}

	if request.Slug != "" && request.Slug != roadmap.Slug {
		taken, err := models.DB.SlugTaken(request.Slug, roadmap.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Unknown error occurred while fetching database"})
			return
		}
		if taken {
			c.JSON(http.StatusConflict, gin.H{"error": "Slug is already in use: " + request.Slug})
			return
		}
		roadmap.Slug = request.Slug
	}

	roadmap.Name = request.Name
	roadmap.Description = request.Description
	roadmap.PrimaryLabel = request.PrimaryLabel
	if request.PlannedLabel != "" {
		roadmap.PlannedLabel = request.PlannedLabel
	}
	if request.InProgressLabel != "" {
		roadmap.InProgressLabel = request.InProgressLabel
	}
	if request.DoneLabel != "" {
		roadmap.DoneLabel = request.DoneLabel
	}
	roadmap.ShowComments = request.ShowComments
	roadmap.ShowCommentProfiles = request.ShowCommentProfiles
	if request.ClosedIssueBehavior != "" {
		roadmap.ClosedIssueBehavior = models.ClosedIssueBehavior(request.ClosedIssueBehavior)
	}

	err := models.DB.UpdateRoadmap(roadmap)
	if err != nil {
		log.Printf("Error updating roadmap: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating roadmap"})
		return
	}

	c.JSON(http.StatusOK, roadmapToJson(roadmap, nil))
}

func DeleteRoadmap(c *gin.Context) {
	roadmap, ok := roadmapFromContext(c)
	if !ok {
		return
	}

	err := models.DB.DeleteRoadmap(roadmap)
	if err != nil {
		log.Printf("Error deleting roadmap: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error deleting roadmap"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

type UpdateRepositoriesRequest struct {
	Repositories []struct {
		Owner string `json:"owner" binding:"required"`
		Repo  string `json:"repo" binding:"required"`
	} `json:"repositories"`
}

// UpdateRepositories replaces the roadmap's full repository set. The cap is
// checked here, before anything is written or fetched.
func UpdateRepositories(c *gin.Context) {
	roadmap, ok := roadmapFromContext(c)
	if !ok {
		return
	}

	var request UpdateRepositoriesRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if len(request.Repositories) > models.MaxRoadmapRepositories {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("A roadmap can have at most %d repositories", models.MaxRoadmapRepositories)})
		return
	}

	repos := make([]models.RoadmapRepository, 0, len(request.Repositories))
	for _, repo := range request.Repositories {
		repos = append(repos, models.RoadmapRepository{Owner: repo.Owner, Repo: repo.Repo})
	}

	err := models.DB.ReplaceRoadmapRepositories(roadmap.ID, repos)
	if err != nil {
		log.Printf("Error updating repositories: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating repositories"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

type LabelsRequest struct {
	Labels []services.RepoLabel `json:"labels"`
}

// FindMissingLabels reports which of the roadmap's status labels are absent
// from at least one linked repository.
func FindMissingLabels(c *gin.Context) {
	roadmap, ok := roadmapFromContext(c)
	if !ok {
		return
	}

	client, repos, ok := installationForRoadmap(c, roadmap)
	if !ok {
		return
	}

	required := []string{roadmap.PlannedLabel, roadmap.InProgressLabel, roadmap.DoneLabel}
	missing, err := services.FindMissingLabels(c.Request.Context(), client, repos, required)
	if err != nil {
		log.Printf("Error finding missing labels: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching labels from GitHub"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"missing": missing})
}

// CreateLabels provisions labels on the roadmap's repositories,
// best-effort per repository/label pair.
func CreateLabels(c *gin.Context) {
	roadmap, ok := roadmapFromContext(c)
	if !ok {
		return
	}

	var request LabelsRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	client, repos, ok := installationForRoadmap(c, roadmap)
	if !ok {
		return
	}

	results, allCreated := services.CreateLabels(c.Request.Context(), client, repos, request.Labels)
	c.JSON(http.StatusOK, gin.H{"results": results, "allLabelsCreated": allCreated})
}

// GetPublicRoadmap renders the public kanban payload for a slug. Anyone may
// call it; a valid member credential only adds issue links to the response.
func GetPublicRoadmap(c *gin.Context) {
	slug := c.Param("slug")

	var callerOrgId *uint
	if orgId, exists := c.Get(middleware.ORGANISATION_ID_KEY); exists {
		if id, ok := orgId.(uint); ok {
			callerOrgId = &id
		}
	}

	view, err := services.GetPublicRoadmap(c.Request.Context(), models.DB, GithubClientProvider, slug, callerOrgId)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrRoadmapNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Roadmap not found"})
		case errors.Is(err, services.ErrInstallationNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "GitHub installation missing or broken for this roadmap"})
		default:
			log.Printf("Error fetching public roadmap %v: %v", slug, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching roadmap"})
		}
		return
	}

	c.JSON(http.StatusOK, view)
}

// GetRoadmapComments returns the comments of one roadmap issue, honoring
// the roadmap's comment visibility flags.
func GetRoadmapComments(c *gin.Context) {
	slug := c.Param("slug")
	issueNumber, err := strconv.Atoi(c.Param("number"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue number"})
		return
	}
	owner := c.Query("owner")
	repoName := c.Query("repo")

	roadmap, err := models.DB.GetRoadmapBySlug(slug)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unknown error occurred while fetching database"})
		return
	}
	if roadmap == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Roadmap not found"})
		return
	}

	repos, err := models.DB.GetRoadmapRepositories(roadmap.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unknown error occurred while fetching database"})
		return
	}

	// only repositories linked to the roadmap may be read through this route
	linked := false
	for _, repo := range repos {
		if repo.Owner == owner && repo.Repo == repoName {
			linked = true
			break
		}
	}
	if !linked {
		c.JSON(http.StatusNotFound, gin.H{"error": "Repository is not part of this roadmap"})
		return
	}

	client, _, err := services.ResolveInstallation(c.Request.Context(), models.DB, GithubClientProvider, roadmap.OrganisationID)
	if err != nil {
		if errors.Is(err, services.ErrInstallationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "GitHub installation missing or broken for this roadmap"})
			return
		}
		log.Printf("Error resolving installation: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error resolving GitHub installation"})
		return
	}

	comments, err := services.FetchComments(c.Request.Context(), client, roadmap, owner, repoName, issueNumber)
	if err != nil {
		log.Printf("Error fetching comments: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching comments"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

func roadmapFromContext(c *gin.Context) (*models.Roadmap, bool) {
	orgId, exists := c.Get(middleware.ORGANISATION_ID_KEY)
	if !exists {
		c.String(http.StatusForbidden, "Not allowed to access this resource")
		return nil, false
	}

	roadmap, err := models.DB.GetRoadmap(orgId, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unknown error occurred while fetching database"})
		return nil, false
	}
	if roadmap == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Roadmap not found"})
		return nil, false
	}
	return roadmap, true
}

func installationForRoadmap(c *gin.Context, roadmap *models.Roadmap) (*github.Client, []models.RoadmapRepository, bool) {
	client, _, err := services.ResolveInstallation(c.Request.Context(), models.DB, GithubClientProvider, roadmap.OrganisationID)
	if err != nil {
		if errors.Is(err, services.ErrInstallationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No GitHub installation for this organisation"})
			return nil, nil, false
		}
		log.Printf("Error resolving installation: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error resolving GitHub installation"})
		return nil, nil, false
	}

	repos, err := models.DB.GetRoadmapRepositories(roadmap.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unknown error occurred while fetching database"})
		return nil, nil, false
	}
	return client, repos, true
}

func roadmapToJson(roadmap *models.Roadmap, repos []models.RoadmapRepository) interface{} {
	type repoJson struct {
		Owner string `json:"owner"`
		Repo  string `json:"repo"`
	}
	repoList := make([]repoJson, 0, len(repos))
	for _, repo := range repos {
		repoList = append(repoList, repoJson{Owner: repo.Owner, Repo: repo.Repo})
	}
	return struct {
		Id                  uint                       `json:"id"`
		Name                string                     `json:"name"`
		Slug                string                     `json:"slug"`
		Description         string                     `json:"description"`
		PrimaryLabel        string                     `json:"primaryLabel"`
		PlannedLabel        string                     `json:"plannedLabel"`
		InProgressLabel     string                     `json:"inProgressLabel"`
		DoneLabel           string                     `json:"doneLabel"`
		ShowComments        bool                       `json:"showComments"`
		ShowCommentProfiles bool                       `json:"showCommentProfiles"`
		ClosedIssueBehavior models.ClosedIssueBehavior `json:"closedIssueBehavior"`
		Repositories        []repoJson                 `json:"repositories,omitempty"`
	}{
		Id:                  roadmap.ID,
		Name:                roadmap.Name,
		Slug:                roadmap.Slug,
		Description:         roadmap.Description,
		PrimaryLabel:        roadmap.PrimaryLabel,
		PlannedLabel:        roadmap.PlannedLabel,
		InProgressLabel:     roadmap.InProgressLabel,
		DoneLabel:           roadmap.DoneLabel,
		ShowComments:        roadmap.ShowComments,
		ShowCommentProfiles: roadmap.ShowCommentProfiles,
		ClosedIssueBehavior: roadmap.ClosedIssueBehavior,
		Repositories:        repoList,
	}
}
