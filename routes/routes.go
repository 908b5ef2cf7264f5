package routes

import (
	"log"
	"os"

	controller "teamnest/controllers"
	"teamnest/middleware"
	"teamnest/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"gorm.io/gorm"
)

func SetupAuthRoutes(app *fiber.App, db *gorm.DB) {
	// Initialize logger
	authLogger := log.New(os.Stdout, "AUTH: ", log.Ldate|log.Ltime|log.Lshortfile)

	// Auth routes group with logging and throttling middleware
	auth := app.Group("/auth", logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Public auth endpoints (no authentication required)
	auth.Post("/register", middleware.AuthRateLimiter(), controller.Register)
	auth.Post("/login", middleware.AuthRateLimiter(), controller.Login)
	auth.Post("/refresh", controller.RefreshToken)

	// Protected auth endpoints (require valid JWT)
	protectedAuth := auth.Group("", middleware.Protected())
	protectedAuth.Get("/me", controller.GetCurrentUser)
	protectedAuth.Post("/change-password", controller.ChangePassword)

	authLogger.Println("Authentication routes initialized successfully")
}

func SetupAPIRoutes(app *fiber.App, db *gorm.DB) {
	// Initialize controllers with their respective loggers
	teamController := controller.NewTeamController(db, log.New(os.Stdout, "TEAM: ", log.LstdFlags))
	invitationController := controller.NewInvitationController(db, log.New(os.Stdout, "INVITE: ", log.LstdFlags), utils.NewSMTPMailer())
	taskController := controller.NewTaskController(db, log.New(os.Stdout, "TASK: ", log.LstdFlags))

	// API group with versioning and protection
	api := app.Group("/api/v1", middleware.Protected(), logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Team routes
	teams := api.Group("/teams")
	teams.Post("/", teamController.CreateTeam)
	teams.Get("/", teamController.ListTeams)
	teams.Get("/:id", teamController.GetTeam)
	teams.Put("/:id", teamController.UpdateTeam)
	teams.Delete("/:id", teamController.DeleteTeam)
	teams.Post("/:id/switch", teamController.SwitchTeam)

	// Membership routes
	teams.Get("/:id/members", teamController.ListMembers)
	teams.Post("/:id/members", teamController.AddMember)
	teams.Patch("/:id/members/:userID", teamController.UpdateMemberRole)
	teams.Delete("/:id/members/:userID", teamController.RemoveMember)

	// Invitation routes
	teams.Post("/:id/invitations", invitationController.CreateInvitation)
	teams.Get("/:id/invitations", invitationController.ListInvitations)
	api.Post("/invitations/:token/accept", invitationController.AcceptInvitation)
	api.Post("/invitations/:token/reject", invitationController.RejectInvitation)

	// Task routes
	teams.Post("/:id/tasks", taskController.CreateTask)
	teams.Get("/:id/tasks", taskController.ListTasks)
	api.Get("/tasks/:taskID", taskController.GetTask)
	api.Put("/tasks/:taskID", taskController.UpdateTask)
	api.Delete("/tasks/:taskID", taskController.DeleteTask)
	api.Post("/tasks/:taskID/complete", taskController.CompleteTask)
	api.Post("/tasks/:taskID/start", taskController.StartTask)
	api.Post("/tasks/:taskID/cancel", taskController.CancelTask)
}

func SetupRoutes(app *fiber.App, db *gorm.DB) {
	SetupAuthRoutes(app, db)
	SetupAPIRoutes(app, db)
}
