package routes

import (
	"civicreport-be/controllers"
	"civicreport-be/middlewares"
	"civicreport-be/store"

	"github.com/gin-gonic/gin"
)

// AdminRoutes sets up the admin triage routes
func AdminRoutes(r *gin.Engine, ctrl *controllers.IssueController, st store.Store) {
	admin := r.Group("/api/admin", middlewares.Authenticate(st, true))
	{
		admin.GET("/issues", ctrl.ListAllIssues)
		admin.DELETE("/issues/:id", ctrl.DeleteIssue)
	}
}
