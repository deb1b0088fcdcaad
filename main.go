package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"messenger-service/internal/blob"
	"messenger-service/internal/chatlog"
	"messenger-service/internal/conversation"
	"messenger-service/internal/handlers"
	"messenger-service/internal/index"
	"messenger-service/internal/middleware"
	"messenger-service/internal/observability"
	"messenger-service/internal/rabbitmq"
	"messenger-service/internal/session"
	"messenger-service/internal/store"
	"messenger-service/internal/telemetry"
	"messenger-service/internal/users"
	"messenger-service/internal/ws"
)

func main() {
	ctx := context.Background()

	shutdownTracing, err := observability.InitTracing(ctx, "messenger-service", getEnv("OTLP_ENDPOINT", ""))
	if err != nil {
		log.Fatalf("failed to init tracing: %v", err)
	}
	defer func() {
		if err := shutdownTracing(ctx); err != nil {
			log.Printf("tracing shutdown: %v", err)
		}
	}()

	documentStore, err := store.Connect()
	if err != nil {
		log.Fatalf("failed to connect to document store: %v", err)
	}

	publisher := rabbitmq.NewPublisher(getEnv("AMQP_URL", ""), getEnv("AMQP_EXCHANGE", "messenger_events"))
	defer publisher.Close()
	if mode := rabbitmq.PublisherMode(publisher); mode == "noop" {
		log.Printf("event publisher mode=%s reason=%q", mode, rabbitmq.PublisherNoopReason(publisher))
	} else {
		log.Printf("event publisher mode=%s", mode)
	}

	var wsEvents observability.EventPublisher
	if amqpURL := getEnv("AMQP_URL", ""); amqpURL != "" {
		wsPublisher, err := observability.NewAMQPEventPublisher(amqpURL, getEnv("AMQP_WS_EXCHANGE", "messenger_ws_events"))
		if err != nil {
			log.Printf("ws event publisher disabled: %v", err)
		} else {
			wsEvents = wsPublisher
			defer wsPublisher.Close()
		}
	}

	audit := telemetry.NewChatEmitter(publisher, getEnv("AUDIT_ROUTING_KEY", "chat_events"),
		"messenger-service", getEnv("ENVIRONMENT", "dev"))

	tokens := session.NewTokenManager(getEnv("JWT_SECRET", "dev-secret"), 24*time.Hour)

	directory := users.NewStoreDirectory(documentStore)
	indexManager := index.NewStoreManager(documentStore)
	logManager := chatlog.NewStoreManager(documentStore)
	controller := conversation.NewController(indexManager, logManager, directory)

	hub := ws.NewHub(wsEvents)
	streamHandler := ws.NewStreamHandler(hub, tokens, directory, indexManager, logManager)

	authHandler := handlers.NewAuthHandler(directory, tokens)
	conversationHandler := handlers.NewConversationHandler(controller, indexManager, logManager, audit)
	userHandler := handlers.NewUserHandler(directory)

	router := gin.Default()
	router.Use(middleware.RequestIDMiddleware())
	router.Use(otelgin.Middleware("messenger-service"))
	router.Use(observability.HTTPMetricsMiddleware())

	authMiddleware := middleware.AuthMiddleware(tokens, directory)

	router.POST("/auth/register", authHandler.Register)
	router.POST("/auth/login", authHandler.Login)

	router.GET("/users", authMiddleware, userHandler.ListUsers)

	router.GET("/conversations", authMiddleware, conversationHandler.ListConversations)
	router.POST("/conversations", authMiddleware, conversationHandler.StartConversation)
	router.GET("/conversations/with", authMiddleware, conversationHandler.ConversationWith)
	router.GET("/conversations/:conversation_id/messages", authMiddleware, conversationHandler.GetMessages)
	router.POST("/conversations/:conversation_id/messages", authMiddleware, conversationHandler.SendMessage)
	router.DELETE("/conversations/:conversation_id", authMiddleware, conversationHandler.DeleteConversation)

	router.GET("/ws/conversations", streamHandler.HandleSummaries)
	router.GET("/ws/conversations/:conversation_id/messages", streamHandler.HandleMessages)

	if endpoint := getEnv("MINIO_ENDPOINT", ""); endpoint != "" {
		blobs, err := blob.NewMinioStore(
			endpoint,
			getEnv("MINIO_ACCESS_KEY", "minioadmin"),
			getEnv("MINIO_SECRET_KEY", "minioadmin"),
			getEnv("MINIO_BUCKET", "messenger-media"),
			getEnv("MINIO_USE_SSL", "") == "true",
		)
		if err != nil {
			log.Fatalf("failed to connect to blob store: %v", err)
		}
		mediaHandler := handlers.NewMediaHandler(blobs)
		router.POST("/media/message-photo", authMiddleware, mediaHandler.UploadMessagePhoto)
		router.POST("/media/message-video", authMiddleware, mediaHandler.UploadMessageVideo)
		router.POST("/me/profile-picture", authMiddleware, mediaHandler.UploadProfilePicture)
	} else {
		log.Printf("blob store disabled, media endpoints not registered: empty minio endpoint")
	}

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	port := getEnv("PORT", "8083")
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}
