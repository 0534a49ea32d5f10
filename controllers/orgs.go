package controllers

import (
	"log"
	"net/http"

	"github.com/MikkelWestermann/turn-signal-sub000/middleware"
	"github.com/MikkelWestermann/turn-signal-sub000/models"
	"github.com/gin-gonic/gin"
)

type TenantCreatedEvent struct {
	TenantId string `json:"tenantId,omitempty"`
	Name     string `json:"name,omitempty"`
}

// CreateOrgFromWebhook mirrors a tenant created in the auth provider into a
// local organisation row.
func CreateOrgFromWebhook(c *gin.Context) {
	var json TenantCreatedEvent

	if err := c.ShouldBindJSON(&json); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	source := c.GetHeader("x-tenant-source")

	_, err := models.DB.CreateOrganisation(json.Name, source, json.TenantId)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create organisation"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func IssueAccessTokenForOrg(c *gin.Context) {
	orgId, exists := c.Get(middleware.ORGANISATION_ID_KEY)

	if !exists {
		c.String(http.StatusUnauthorized, "Not authorized")
		return
	}

	org, err := models.DB.GetOrganisationById(orgId)
	if err != nil {
		log.Printf("Could not find organisation: %v", orgId)
		c.String(http.StatusInternalServerError, "Unexpected error")
		return
	}

	token, err := models.DB.CreateToken(org.ID, models.AccessPolicyType)
	if err != nil {
		log.Printf("Error creating token: %v", err)
		c.String(http.StatusInternalServerError, "Unexpected error")
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token.Value})
}
