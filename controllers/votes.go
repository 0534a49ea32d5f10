package controllers

import (
	"log"
	"net/http"

	"github.com/MikkelWestermann/turn-signal-sub000/models"
	"github.com/gin-gonic/gin"
)

type CreateVoteRequest struct {
	RoadmapId      uint   `json:"roadmapId" binding:"required"`
	IssueId        string `json:"issueId" binding:"required"`
	OrganisationId uint   `json:"organizationId" binding:"required"`
}

// CreateVote records an anonymous upvote. No caller identity exists, so no
// deduplication either: repeated calls are repeated votes. The returned id
// is the capability for retracting the vote.
func CreateVote(c *gin.Context) {
	var request CreateVoteRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	roadmap, err := models.DB.GetRoadmap(request.OrganisationId, request.RoadmapId)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unknown error occurred while fetching database"})
		return
	}
	if roadmap == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Roadmap not found"})
		return
	}

	vote, err := models.DB.CreateIssueVote(request.OrganisationId, roadmap.ID, request.IssueId)
	if err != nil {
		log.Printf("Error creating vote: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating vote"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": vote.ID})
}

// DeleteVote retracts a vote. Anyone holding the vote id may call this.
func DeleteVote(c *gin.Context) {
	voteId := c.Param("id")

	found, err := models.DB.DeleteIssueVote(voteId)
	if err != nil {
		log.Printf("Error deleting vote: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error deleting vote"})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Vote not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
