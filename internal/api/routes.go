package api

import (
	"net/http"

	"peakform/coaching-platform/internal/domain"
	"peakform/coaching-platform/internal/payments"
	"peakform/coaching-platform/internal/service"

	"github.com/gin-gonic/gin"
)

// SetupRoutes wires every handler into the versioned route tree. The Stripe
// webhook stays outside the auth group since the provider signs its own calls.
func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authService service.AuthService,
	rosterService service.CoachClientService,
	exerciseService service.ExerciseService,
	programService service.ProgramService,
	assignmentService service.AssignmentService,
	coachRequestService service.CoachRequestService,
	subscriptionService service.SubscriptionService,
	paymentService service.PaymentService,
	gateway payments.Gateway,
) {
	authHandler := NewAuthHandler(authService)
	rosterHandler := NewCoachClientHandler(rosterService)
	exerciseHandler := NewExerciseHandler(exerciseService)
	programHandler := NewProgramHandler(programService)
	assignmentHandler := NewAssignmentHandler(assignmentService, authService)
	coachServiceHandler := NewCoachServiceHandler(coachRequestService)
	subscriptionHandler := NewSubscriptionHandler(subscriptionService)
	paymentHandler := NewPaymentHandler(paymentService, gateway)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}

		// Signed by the provider, not by a user token.
		apiV1.POST("/payments/webhook/stripe", paymentHandler.StripeWebhook)

		apiV1.GET("/subscriptions/plans", subscriptionHandler.ListPlans)
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		// --- Profile ---
		protected.GET("/me", authHandler.GetProfile)
		protected.PUT("/me", authHandler.UpdateProfile)
		protected.POST("/me/become-coach", authHandler.BecomeCoach)
		protected.GET("/coaches", authHandler.ListCoaches)

		// --- Roster ---
		coachGroup := protected.Group("/coach")
		coachGroup.Use(RequireCapability(domain.CapCoach))
		{
			coachGroup.POST("/clients", rosterHandler.AddClient)
			coachGroup.GET("/clients", rosterHandler.MyClients)
			coachGroup.DELETE("/clients/:clientId", rosterHandler.RemoveClient)
			coachGroup.PUT("/clients/:clientId/notes", rosterHandler.UpdateNotes)

			coachGroup.POST("/services", coachServiceHandler.CreateService)
			coachGroup.PUT("/services/:id", coachServiceHandler.UpdateService)
		}
		protected.GET("/my-coaches", rosterHandler.MyCoaches)
		protected.GET("/coaches/:coachId/services", coachServiceHandler.ListServices)

		// --- Exercise library ---
		exerciseGroup := protected.Group("/exercises")
		{
			exerciseGroup.POST("", RequireCapability(domain.CapCoach, domain.CapStaff), exerciseHandler.Create)
			exerciseGroup.GET("", exerciseHandler.List)
			exerciseGroup.GET("/:id", exerciseHandler.Get)
			exerciseGroup.PUT("/:id", exerciseHandler.Update)
			exerciseGroup.DELETE("/:id", exerciseHandler.Delete)
			exerciseGroup.POST("/:id/video/upload-url", exerciseHandler.VideoUploadURL)
			exerciseGroup.GET("/:id/video/download-url", exerciseHandler.VideoDownloadURL)
		}

		// --- Programs ---
		programGroup := protected.Group("/programs")
		{
			programGroup.POST("", RequireCapability(domain.CapCoach, domain.CapStaff), programHandler.Create)
			programGroup.GET("", programHandler.List)
			programGroup.GET("/:id", programHandler.Get)
			programGroup.PUT("/:id", programHandler.Update)
			programGroup.DELETE("/:id", programHandler.Delete)
			programGroup.POST("/:id/clone", programHandler.Clone)
			programGroup.POST("/:id/publish", programHandler.Publish)
			programGroup.POST("/:id/video/upload-url", programHandler.VideoUploadURL)
		}

		// --- Assignments ---
		protected.POST("/assignments", assignmentHandler.Assign)
		protected.DELETE("/assignments/:id", assignmentHandler.Unassign)
		protected.GET("/assignments/:id/audit", assignmentHandler.AuditTrail)
		protected.GET("/clients/:clientId/assignments", assignmentHandler.History)

		// --- Coach service requests ---
		requestGroup := protected.Group("/coach-requests")
		{
			requestGroup.POST("", coachServiceHandler.CreateRequest)
			requestGroup.GET("/my", coachServiceHandler.MyRequests)
			requestGroup.GET("/incoming", RequireCapability(domain.CapCoach), coachServiceHandler.IncomingRequests)
			requestGroup.POST("/:id/accept", RequireCapability(domain.CapCoach), coachServiceHandler.AcceptRequest)
			requestGroup.POST("/:id/reject", RequireCapability(domain.CapCoach), coachServiceHandler.RejectRequest)
			requestGroup.POST("/:id/pay", coachServiceHandler.PayRequest)
		}

		// --- Subscriptions ---
		protected.POST("/subscriptions/plans/:planId/subscribe", subscriptionHandler.Subscribe)
		protected.DELETE("/subscriptions/plans/:planId", subscriptionHandler.Cancel)
		protected.GET("/subscriptions/my", subscriptionHandler.MySubscriptions)

		// --- Payments ---
		protected.GET("/payments/transactions", paymentHandler.MyTransactions)
		protected.GET("/payments/earnings", RequireCapability(domain.CapCoach, domain.CapGymOwner), paymentHandler.MyEarnings)
	}
}
