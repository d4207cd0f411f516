package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/pkontaxis/thesisdesk/internal/app/controllers"
	"github.com/pkontaxis/thesisdesk/internal/app/models"
	"github.com/pkontaxis/thesisdesk/internal/app/models/dto"
	"github.com/pkontaxis/thesisdesk/internal/middleware"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	authController *controllers.AuthController,
	topicController *controllers.TopicController,
	thesisController *controllers.ThesisController,
	invitationController *controllers.InvitationController,
	attachmentController *controllers.AttachmentController,
	presentationController *controllers.PresentationController,
	gradeController *controllers.GradeController,
	secretaryController *controllers.SecretaryController,
	authMiddleware *middleware.AuthMiddleware,
) {
	v1 := router.Group("/api/v1")

	// --- Public routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/login", authController.Login)
	}

	// Public defense announcement feed
	v1.GET("/presentations/public", presentationController.PublicFeed)

	// Liveness endpoint (the secretary health report lives under /secretary)
	v1.GET("/health", func(c *gin.Context) {
		c.JSON(200, dto.NewStructuredResponse(gin.H{"status": "ok"}, "Service is up"))
	})

	// --- Authenticated routes ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())
	{
		authenticated.POST("/auth/logout", authController.Logout)
		authenticated.POST("/auth/register",
			authMiddleware.RoleRequired(models.RoleSecretary), authController.Register)

		profile := authenticated.Group("/auth/profile")
		{
			profile.GET("", authController.GetProfile)
			profile.PUT("", authController.UpdateProfile)
		}

		topics := authenticated.Group("/topics")
		{
			topics.GET("", topicController.List)
			topics.GET("/:id", topicController.Get)

			// Topic authorship is restricted to instructors; the secretary
			// may correct or remove existing topics
			topicsInstructorProtected := topics.Group("")
			topicsInstructorProtected.Use(authMiddleware.RoleRequired(models.RoleInstructor))
			{
				topicsInstructorProtected.POST("", topicController.Create)
			}
			topicsEditProtected := topics.Group("")
			topicsEditProtected.Use(authMiddleware.RoleRequired(models.RoleInstructor, models.RoleSecretary))
			{
				topicsEditProtected.PUT("/:id", topicController.Update)
				topicsEditProtected.PUT("/:id/description", topicController.UploadDescription)
				topicsEditProtected.DELETE("/:id", topicController.Delete)
			}
		}

		theses := authenticated.Group("/theses")
		{
			theses.GET("", thesisController.List)
			theses.GET("/stats", thesisController.Stats)
			theses.GET("/:id", thesisController.Get)
			theses.PUT("/:id/state", thesisController.UpdateState)

			thesesAssignProtected := theses.Group("")
			thesesAssignProtected.Use(authMiddleware.RoleRequired(models.RoleInstructor, models.RoleSecretary))
			{
				thesesAssignProtected.POST("", thesisController.Create)
			}
		}

		invitations := authenticated.Group("/invitations")
		{
			invitations.GET("", invitationController.ListMine)
			invitations.POST("/:id/respond", invitationController.Respond)
			invitations.POST("/theses/:id/invite", invitationController.Invite)
			invitations.GET("/theses/:id/committee", invitationController.Committee)
			invitations.GET("/theses/:id/available-instructors", invitationController.AvailableInstructors)
		}

		attachments := authenticated.Group("/attachments")
		{
			attachments.GET("/theses/:id", attachmentController.List)
			attachments.POST("/theses/:id", attachmentController.Upload)
			attachments.GET("/:id/download", attachmentController.Download)
			attachments.PUT("/:id", attachmentController.Update)
			attachments.DELETE("/:id", attachmentController.Delete)
		}

		presentations := authenticated.Group("/presentations")
		{
			presentations.GET("", presentationController.List)
			presentations.POST("", presentationController.Create)
			presentations.GET("/:id", presentationController.Get)
			presentations.PUT("/:id", presentationController.Update)
			presentations.DELETE("/:id", presentationController.Delete)
		}

		grades := authenticated.Group("/grades")
		{
			grades.POST("", gradeController.Create)
			grades.GET("/theses/:id", gradeController.ListByThesis)
			grades.GET("/instructor/summary", gradeController.InstructorSummary)
			grades.GET("/statistics", gradeController.Statistics)
			grades.PUT("/:id", gradeController.Update)
			grades.DELETE("/:id", gradeController.Delete)
		}

		secretary := authenticated.Group("/secretary")
		secretary.Use(authMiddleware.RoleRequired(models.RoleSecretary))
		{
			secretary.GET("/export/theses", secretaryController.ExportTheses)
			secretary.GET("/reports/comprehensive", secretaryController.ComprehensiveReport)
			secretary.GET("/system/health", secretaryController.SystemHealth)
		}
	}
}
