package controllers

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"civicreport-be/config"
	"civicreport-be/geo"
	"civicreport-be/middlewares"
	"civicreport-be/models"
	"civicreport-be/services"
	"civicreport-be/uploads"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type IssueController struct {
	service *services.IssueService
	blobs   *uploads.Store
}

func NewIssueController(service *services.IssueService, blobs *uploads.Store) *IssueController {
	return &IssueController{service: service, blobs: blobs}
}

// formatIssue builds the wire representation of an issue.
func formatIssue(d services.Detail, principal *models.Principal) gin.H {
	var user gin.H
	if !d.Issue.IsAnonymous && d.Owner != nil {
		user = gin.H{
			"id":       d.Owner.ID,
			"username": d.Owner.Username,
		}
	}

	logs := make([]gin.H, 0, len(d.Logs))
	for _, entry := range d.Logs {
		var admin gin.H
		if entry.Admin != nil {
			admin = gin.H{
				"id":       entry.Admin.ID,
				"username": entry.Admin.Username,
			}
		}
		logs = append(logs, gin.H{
			"status":    entry.Status,
			"timestamp": entry.Timestamp.Format(time.RFC3339),
			"admin":     admin,
		})
	}

	canEdit := principal != nil && principal.UserID == d.Issue.UserID

	return gin.H{
		"id":          d.Issue.ID,
		"title":       d.Issue.Title,
		"description": d.Issue.Description,
		"category":    d.Issue.Category,
		"latitude":    d.Issue.Latitude,
		"longitude":   d.Issue.Longitude,
		"status":      d.Issue.Status,
		"created_at":  d.Issue.CreatedAt.Format(time.RFC3339),
		"user":        user,
		"upvotes":     d.Issue.Upvotes,
		"flags":       d.Issue.Flags,
		"images":      d.Images,
		"can_edit":    canEdit,
		"logs":        logs,
	}
}

// ListIssues returns issues near the requester, filtered by optional
// category and status
func (ic *IssueController) ListIssues(c *gin.Context) {
	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lon, lonErr := strconv.ParseFloat(c.Query("lon"), 64)
	if latErr != nil || lonErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid coordinates"})
		return
	}

	radius := config.DefaultRadiusKm
	if radiusParam := c.Query("radius"); radiusParam != "" {
		parsed, err := strconv.ParseFloat(radiusParam, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid radius"})
			return
		}
		radius = parsed
	}

	principal := middlewares.CurrentPrincipal(c)

	issues, err := ic.service.List(c.Request.Context(), services.ListQuery{
		Center:   geo.Point{Latitude: lat, Longitude: lon},
		RadiusKm: radius,
		Category: c.Query("category"),
		Status:   c.Query("status"),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	details, err := ic.service.Details(c.Request.Context(), issues)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]gin.H, 0, len(details))
	for _, d := range details {
		response = append(response, formatIssue(d, principal))
	}
	c.JSON(http.StatusOK, response)
}

// CreateIssue handles a new issue report with optional photo uploads
func (ic *IssueController) CreateIssue(c *gin.Context) {
	principal := middlewares.CurrentPrincipal(c)
	if principal == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	lat, latErr := strconv.ParseFloat(c.PostForm("latitude"), 64)
	lon, lonErr := strconv.ParseFloat(c.PostForm("longitude"), 64)
	if latErr != nil || lonErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid coordinates"})
		return
	}

	var filenames []string
	if form, err := c.MultipartForm(); err == nil {
		for _, file := range form.File["images"] {
			filename, ok, err := ic.blobs.Save(c, file)
			if err != nil {
				log.Println("Error saving uploaded file:", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store image"})
				return
			}
			if ok {
				filenames = append(filenames, filename)
			}
		}
	}

	issue, err := ic.service.Create(c.Request.Context(), principal, services.CreateInput{
		Title:          c.PostForm("title"),
		Description:    c.PostForm("description"),
		Category:       c.PostForm("category"),
		Latitude:       lat,
		Longitude:      lon,
		IsAnonymous:    c.PostForm("is_anonymous") == "true",
		ImageFilenames: filenames,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	detail, err := ic.service.Detail(c.Request.Context(), issue.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, formatIssue(*detail, principal))
}

// UpdateIssue lets the owner or an admin edit title, description and
// category
func (ic *IssueController) UpdateIssue(c *gin.Context) {
	issueID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue ID"})
		return
	}

	var input struct {
		Title       *string `json:"title,omitempty"`
		Description *string `json:"description,omitempty"`
		Category    *string `json:"category,omitempty"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	principal := middlewares.CurrentPrincipal(c)
	issue, err := ic.service.Edit(c.Request.Context(), principal, issueID, services.EditInput{
		Title:       input.Title,
		Description: input.Description,
		Category:    input.Category,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	detail, err := ic.service.Detail(c.Request.Context(), issue.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, formatIssue(*detail, principal))
}

// UpdateIssueStatus lets an admin move an issue through the workflow
func (ic *IssueController) UpdateIssueStatus(c *gin.Context) {
	issueID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue ID"})
		return
	}

	var input struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}

	principal := middlewares.CurrentPrincipal(c)
	issue, err := ic.service.SetStatus(c.Request.Context(), principal, issueID, models.IssueStatus(input.Status))
	if err != nil {
		respondError(c, err)
		return
	}

	detail, err := ic.service.Detail(c.Request.Context(), issue.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, formatIssue(*detail, principal))
}

// UpvoteIssue increments the upvote count
func (ic *IssueController) UpvoteIssue(c *gin.Context) {
	issueID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue ID"})
		return
	}

	count, err := ic.service.Upvote(c.Request.Context(), middlewares.CurrentPrincipal(c), issueID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"upvotes": count})
}

// FlagIssue increments the flag count, auto-hiding past the threshold
func (ic *IssueController) FlagIssue(c *gin.Context) {
	issueID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue ID"})
		return
	}

	count, err := ic.service.Flag(c.Request.Context(), middlewares.CurrentPrincipal(c), issueID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"flags": count})
}

// ListAllIssues returns every issue for the admin dashboard
func (ic *IssueController) ListAllIssues(c *gin.Context) {
	principal := middlewares.CurrentPrincipal(c)

	issues, err := ic.service.All(c.Request.Context(), principal)
	if err != nil {
		respondError(c, err)
		return
	}

	details, err := ic.service.Details(c.Request.Context(), issues)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]gin.H, 0, len(details))
	for _, d := range details {
		response = append(response, formatIssue(d, principal))
	}
	c.JSON(http.StatusOK, response)
}

// DeleteIssue removes an issue and everything attached to it
func (ic *IssueController) DeleteIssue(c *gin.Context) {
	issueID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue ID"})
		return
	}

	if err := ic.service.Delete(c.Request.Context(), middlewares.CurrentPrincipal(c), issueID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Issue deleted"})
}
