package routes

import (
	"civicreport-be/controllers"
	"civicreport-be/middlewares"
	"civicreport-be/store"

	"github.com/gin-gonic/gin"
)

// IssueRoutes sets up the issue routes
func IssueRoutes(r *gin.Engine, ctrl *controllers.IssueController, st store.Store, issueLimit int) {
	issues := r.Group("/api/issues")
	{
		issues.GET("", middlewares.Authenticate(st, false), ctrl.ListIssues)
		issues.POST("", middlewares.Authenticate(st, true), middlewares.IssueRateLimiter(issueLimit), ctrl.CreateIssue)
		issues.PUT("/:id", middlewares.Authenticate(st, true), ctrl.UpdateIssue)
		issues.PUT("/:id/status", middlewares.Authenticate(st, true), ctrl.UpdateIssueStatus)
		issues.POST("/:id/upvote", middlewares.Authenticate(st, true), ctrl.UpvoteIssue)
		issues.POST("/:id/flag", middlewares.Authenticate(st, true), ctrl.FlagIssue)
	}
}
