package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/MikkelWestermann/turn-signal-sub000/middleware"
	"github.com/MikkelWestermann/turn-signal-sub000/models"
	"github.com/MikkelWestermann/turn-signal-sub000/services"
	"github.com/gin-gonic/gin"
	"github.com/google/go-github/v55/github"
	"golang.org/x/oauth2"
)

// GithubClientProvider is swapped in tests for a mocked GitHub surface.
var GithubClientProvider services.GithubClientProvider = services.DefaultGithubClientProvider{}

// GitHubAppWebHook handles the signed webhook callbacks GitHub sends to the
// app. The only event acted on is installation deletion: the local record
// for that installation is removed so the org's roadmaps stop resolving it.
func GitHubAppWebHook(c *gin.Context) {
	payload, err := github.ValidatePayload(c.Request, []byte(os.Getenv("GITHUB_WEBHOOK_SECRET")))
	if err != nil {
		log.Printf("Error validating payload: %v", err)
		c.String(http.StatusBadRequest, "Error validating payload")
		return
	}

	event, err := github.ParseWebHook(github.WebHookType(c.Request), payload)
	if err != nil {
		log.Printf("Error parsing webhook: %v", err)
		c.String(http.StatusBadRequest, "Error parsing webhook")
		return
	}

	switch event := event.(type) {
	case *github.InstallationEvent:
		log.Printf("Got installation event for %v", event.GetInstallation().GetAccount().GetLogin())
		if event.GetAction() == "deleted" {
			installationId := strconv.FormatInt(event.GetInstallation().GetID(), 10)
			err := models.DB.DeleteGithubInstallation(installationId)
			if err != nil {
				log.Printf("Error deleting installation %v: %v", installationId, err)
				c.String(http.StatusInternalServerError, "Failed to remove installation")
				return
			}
		}
	default:
		log.Printf("Unhandled event type: %T", event)
	}

	c.String(http.StatusOK, "OK")
}

// GitHubAppCallbackPage completes GitHub App setup: the browser lands here
// with an installation id and an OAuth code, and the installation gets
// linked to the logged-in organisation.
func GitHubAppCallbackPage(c *gin.Context) {
	installationId := c.Query("installation_id")
	code := c.Query("code")
	clientId := os.Getenv("GITHUB_APP_CLIENT_ID")
	clientSecret := os.Getenv("GITHUB_APP_CLIENT_SECRET")

	orgId, exists := c.Get(middleware.ORGANISATION_ID_KEY)
	if !exists {
		c.String(http.StatusForbidden, "Not allowed to access this resource")
		return
	}

	installationId64, err := strconv.ParseInt(installationId, 10, 64)
	if err != nil {
		fmt.Printf("err: %v", err)
		c.String(http.StatusInternalServerError, "Failed to parse installation_id.")
		return
	}

	result, err := validateGitHubCallback(clientId, clientSecret, code, installationId64)
	if !result {
		fmt.Printf("Failed to validate installation id, %v\n", err)
		c.String(http.StatusInternalServerError, "Failed to validate installation_id.")
		return
	}

	org, err := models.DB.GetOrganisationById(orgId)
	if err != nil {
		log.Printf("Error fetching organisation: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching organisation"})
		return
	}

	_, err = models.DB.CreateGithubInstallation(installationId, org.ID)
	if err != nil {
		log.Printf("Error saving GitHub installation to database: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating GitHub installation"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListInstallationRepos returns the repositories the org's installation can
// reach, for the repository picker.
func ListInstallationRepos(c *gin.Context) {
	orgId, exists := c.Get(middleware.ORGANISATION_ID_KEY)
	if !exists {
		c.String(http.StatusForbidden, "Not allowed to access this resource")
		return
	}

	client, _, err := services.ResolveInstallation(c.Request.Context(), models.DB, GithubClientProvider, orgId.(uint))
	if err != nil {
		if err == services.ErrInstallationNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "No GitHub installation for this organisation"})
			return
		}
		log.Printf("Error resolving installation: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error resolving GitHub installation"})
		return
	}

	type repoEntry struct {
		Owner    string `json:"owner"`
		Repo     string `json:"repo"`
		FullName string `json:"full_name"`
		Private  bool   `json:"private"`
	}

	repos := make([]repoEntry, 0)
	opts := &github.ListOptions{PerPage: 100}
	for {
		page, resp, err := client.Apps.ListRepos(c.Request.Context(), opts)
		if err != nil {
			log.Printf("Error listing repositories: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error listing repositories"})
			return
		}
		for _, repo := range page.Repositories {
			repos = append(repos, repoEntry{
				Owner:    repo.GetOwner().GetLogin(),
				Repo:     repo.GetName(),
				FullName: repo.GetFullName(),
				Private:  repo.GetPrivate(),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	c.JSON(http.StatusOK, gin.H{"repositories": repos})
}

// why this validation is needed: https://roadie.io/blog/avoid-leaking-github-org-data/
// validation based on https://docs.github.com/en/apps/creating-github-apps/authenticating-with-a-github-app/generating-a-user-access-token-for-a-github-app , step 3
func validateGitHubCallback(clientId string, clientSecret string, code string, installationId int64) (bool, error) {
	ctx := context.Background()
	type OAuthAccessResponse struct {
		AccessToken string `json:"access_token"`
	}
	httpClient := http.Client{}

	reqURL := fmt.Sprintf("https://github.com/login/oauth/access_token?client_id=%s&client_secret=%s&code=%s", clientId, clientSecret, code)
	req, err := http.NewRequest(http.MethodPost, reqURL, nil)
	if err != nil {
		return false, fmt.Errorf("could not create HTTP request: %v", err)
	}
	req.Header.Set("accept", "application/json")

	res, err := httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("request to login/oauth/access_token failed: %v", err)
	}
	defer res.Body.Close()

	var t OAuthAccessResponse
	if err := json.NewDecoder(res.Body).Decode(&t); err != nil {
		return false, fmt.Errorf("could not parse JSON response: %v", err)
	}

	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: t.AccessToken},
	)
	tc := oauth2.NewClient(ctx, ts)
	client := github.NewClient(tc)

	installationIdMatch := false
	// list all installations for the user
	installations, _, err := client.Apps.ListUserInstallations(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("could not list installations for user: %v", err)
	}
	for _, v := range installations {
		if v.GetID() == installationId {
			installationIdMatch = true
		}
	}
	if !installationIdMatch {
		return false, fmt.Errorf("installationId %v doesn't match any id for specified user", installationId)
	}
	return true, nil
}
