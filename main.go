package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/MikkelWestermann/turn-signal-sub000/auth"
	"github.com/MikkelWestermann/turn-signal-sub000/controllers"
	"github.com/MikkelWestermann/turn-signal-sub000/middleware"
	"github.com/MikkelWestermann/turn-signal-sub000/models"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
)

func main() {
	cfg := viper.New()
	cfg.AutomaticEnv()
	cfg.SetDefault("port", 3000)

	//database migrations
	models.ConnectDatabase()

	r := gin.Default()

	version, _ := os.ReadFile("version.txt")
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"build_date":  cfg.GetString("build_date"),
			"deployed_at": cfg.GetString("deployed_at"),
			"version":     string(version),
		})
	})

	// webhook ingress
	r.POST("/webhooks/github", controllers.GitHubAppWebHook)
	r.POST("/webhooks/tenant", middleware.SecretCodeAuth(), controllers.CreateOrgFromWebhook)

	// GitHub App setup callback arrives in the browser with the session cookie
	r.GET("/github/callback", middleware.WebAuth(), controllers.GitHubAppCallbackPage)

	// public roadmap surface; a member credential only unlocks issue links
	public := r.Group("/")
	public.Use(middleware.OptionalBearerTokenAuth())
	public.GET("/r/:slug", controllers.GetPublicRoadmap)
	public.GET("/r/:slug/issues/:number/comments", controllers.GetRoadmapComments)
	public.POST("/votes", controllers.CreateVote)
	public.DELETE("/votes/:id", controllers.DeleteVote)

	authorized := r.Group("/")
	authorized.Use(middleware.BearerTokenAuth(), middleware.AccessLevel(models.AccessPolicyType, models.AdminPolicyType))

	admin := r.Group("/")
	admin.Use(middleware.BearerTokenAuth(), middleware.AccessLevel(models.AdminPolicyType))

	authorized.GET("/roadmaps", controllers.ListRoadmaps)
	authorized.GET("/roadmaps/:id", controllers.GetRoadmap)
	authorized.GET("/github/repos", controllers.ListInstallationRepos)

	admin.POST("/roadmaps", controllers.CreateRoadmap)
	admin.PUT("/roadmaps/:id", controllers.UpdateRoadmap)
	admin.DELETE("/roadmaps/:id", controllers.DeleteRoadmap)
	admin.PUT("/roadmaps/:id/repositories", controllers.UpdateRepositories)
	admin.POST("/roadmaps/:id/labels/missing", controllers.FindMissingLabels)
	admin.POST("/roadmaps/:id/labels", controllers.CreateLabels)
	admin.POST("/tokens/issue-access-token", controllers.IssueAccessTokenForOrg)

	// dashboard SPA calls with Auth0-issued user tokens
	web := r.Group("/web")
	web.Use(auth.AuthRequired())
	web.GET("/roadmaps", controllers.ListRoadmaps)
	web.GET("/roadmaps/:id", controllers.GetRoadmap)
	web.GET("/github/repos", controllers.ListInstallationRepos)

	r.Run(fmt.Sprintf(":%d", cfg.GetInt("port")))
}
