package app

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"comms-backend/internal/call"
	"comms-backend/internal/db"
	"comms-backend/internal/handlers"
	"comms-backend/internal/hub"
	"comms-backend/internal/logging"
	"comms-backend/internal/services"
	"comms-backend/internal/utils"
)

func Run() {
	// Load Env
	if err := utils.LoadEnv(); err != nil {
		log.Println("Warning: .env file not found")
	}

	appLog := logging.New("comms-backend")

	// Init DB
	connString := utils.GetEnv("DATABASE_URL", "")
	if connString == "" {
		// Fallback to individual vars
		connString = "postgres://" + utils.GetEnv("POSTGRES_USER", "postgres") + ":" +
			utils.GetEnv("POSTGRES_PASSWORD", "postgres") + "@" +
			utils.GetEnv("POSTGRES_HOST", "localhost") + ":" +
			utils.GetEnv("POSTGRES_PORT", "5432") + "/" +
			utils.GetEnv("POSTGRES_DB", "commsdb") + "?sslmode=disable"
	}

	if err := db.InitDB(connString); err != nil {
		appLog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.CloseDB()
	if err := db.EnsureSchema(context.Background()); err != nil {
		appLog.Error("failed to ensure schema", "error", err)
		os.Exit(1)
	}
	appLog.Info("connected to PostgreSQL")

	// Services
	userService := services.NewUserService()
	chatService := services.NewChatService()
	messageService := services.NewMessageService()
	callService := services.NewCallService()

	// Real-time hub and call manager
	h := hub.New(userService, logging.New("hub"))
	calls := call.NewManager(callService, userService, h.Router, logging.New("call"))

	// Fiber App
	app := fiber.New()

	// Middleware
	app.Use(logger.New())
	app.Use(recover.New())
	app.Use(cors.New())

	// Routes
	api := app.Group("/api")

	// Public Routes
	api.Post("/auth/login", handlers.Login(userService))

	// Protected Routes
	protected := api.Group("/")
	protected.Use(handlers.AuthMiddleware)

	// Users & presence
	protected.Get("/users", handlers.ListUsers(userService))
	protected.Put("/users/status", handlers.UpdateStatus(h.Presence))

	// Direct messages
	protected.Post("/messages", handlers.SendMessage(userService, messageService, h.Router))
	protected.Get("/messages/user/:userId", handlers.GetMessages(userService, messageService, h.Router))
	protected.Get("/messages/unread", handlers.UnreadMessageCount(messageService))
	protected.Delete("/messages/:messageId", handlers.DeleteMessage(messageService, h.Router))

	// Chat rooms
	protected.Post("/chatrooms", handlers.CreateChatRoom(chatService, h.Router))
	protected.Get("/chatrooms", handlers.ListChatRooms(chatService))
	protected.Get("/chatrooms/:roomId", handlers.GetChatRoom(chatService))
	protected.Post("/chatrooms/:roomId/participants", handlers.AddParticipants(chatService, h.Router))
	protected.Delete("/chatrooms/:roomId/participants/:userId", handlers.RemoveParticipant(chatService, h.Router))
	protected.Post("/chatrooms/:roomId/messages", handlers.SendRoomMessage(chatService, messageService, h.Router))
	protected.Get("/chatrooms/:roomId/messages", handlers.GetRoomMessages(chatService, messageService))

	// Calls
	protected.Post("/calls", handlers.InitiateCall(calls))
	protected.Put("/calls/:callId/accept", handlers.AcceptCall(calls))
	protected.Put("/calls/:callId/reject", handlers.RejectCall(calls))
	protected.Put("/calls/:callId/end", handlers.EndCall(calls))
	protected.Get("/calls/history", handlers.CallHistory(calls))

	// Health Check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// WebSocket Route
	// Note: Middleware order matters. AuthMiddleware checks token.
	// WSUpgradeMiddleware checks if it's a WS request.
	app.Use("/ws", handlers.WSUpgradeMiddleware)
	app.Use("/ws", handlers.AuthMiddleware)
	app.Get("/ws", handlers.WebSocketHandler(h))

	// Start Server
	port := utils.GetEnv("PORT", "3001")
	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Panic(err)
		}
	}()

	// Graceful Shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	<-c // Block until signal
	appLog.Info("gracefully shutting down")
	_ = app.Shutdown()
	appLog.Info("server shutdown complete")
}
