package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"social-service/internal/config"
	"social-service/internal/conversations"
	"social-service/internal/discover"
	"social-service/internal/docstore"
	"social-service/internal/handlers"
	"social-service/internal/middleware"
	"social-service/internal/observability"
	"social-service/internal/rabbitmq"
	"social-service/internal/repositories"
	"social-service/internal/telemetry"
	"social-service/internal/ws"
)

const (
	serviceName = "social-service"

	// only accepted when SERVICE_ENV is local
	devJWTSecret = "local-dev-secret"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		log.Fatalf("%v", err)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           serviceName,
		Short:         "Matches, friends and one-to-one chat over a document store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", getEnv("CONFIG_FILE", ""), "path to a YAML config file")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and websocket server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}

	var ttl time.Duration
	tokenCmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Mint a bearer token for local testing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			secret, err := jwtSecret(cfg)
			if err != nil {
				return err
			}
			signed, err := middleware.NewTokenValidator(secret).Issue(args[0], ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), signed)
			return nil
		},
	}
	tokenCmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")

	root.AddCommand(serveCmd, tokenCmd)
	return root
}

func serve(parent context.Context, cfg config.Config) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, cfg.OTLPEndpoint, serviceName, cfg.Environment)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Printf("tracing shutdown failed: %v", err)
		}
	}()

	secret, err := jwtSecret(cfg)
	if err != nil {
		return err
	}

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer publisher.Close()
	log.Printf("event publisher mode=%s reason=%q", rabbitmq.PublisherMode(publisher), rabbitmq.PublisherNoopReason(publisher))
	emitter := telemetry.NewEventEmitter(publisher, serviceName, cfg.Environment)

	store := newStore(cfg)
	chatRepo := repositories.NewChatRepo(store)
	messageRepo := repositories.NewMessageRepo(store, chatRepo)
	matchRepo := repositories.NewMatchRepo(store, chatRepo)
	friendRepo := repositories.NewFriendRepo(store)
	profileRepo := repositories.NewProfileRepo(store)

	hub := ws.NewHub(emitter)
	validator := middleware.NewTokenValidator(secret)

	chatHandler := handlers.NewChatHandler(chatRepo, messageRepo, matchRepo, friendRepo, hub, emitter, cfg.MessagePageSize)
	conversationHandler := handlers.NewConversationHandler(conversations.NewService(chatRepo, messageRepo, matchRepo, friendRepo, profileRepo))
	matchHandler := handlers.NewMatchHandler(matchRepo, emitter)
	friendHandler := handlers.NewFriendHandler(friendRepo, emitter)
	discoverHandler := handlers.NewDiscoverHandler(discover.NewRegistry(profileRepo, matchRepo), emitter)
	chatWS := ws.NewChatWebSocketHandler(hub, chatRepo, validator, emitter)

	router := gin.New()

	// middlewares
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(observability.HTTPMetricsMiddleware())
	router.Use(handlers.RequestID())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	authMiddleware := middleware.AuthMiddleware(validator)
	api := router.Group("/", authMiddleware)

	api.POST("/chats/start", chatHandler.StartChat)
	api.GET("/chats/:chat_id/messages", chatHandler.GetChatMessages)
	api.POST("/chats/:chat_id/messages", chatHandler.PostChatMessage)
	api.POST("/chats/:chat_id/read", chatHandler.MarkRead)

	api.GET("/conversations", conversationHandler.ListConversations)
	api.POST("/conversations/:other_id/favorite", conversationHandler.ToggleFavorite)
	api.POST("/conversations/:other_id/block", conversationHandler.Block)
	api.DELETE("/conversations/:other_id/block", conversationHandler.Unblock)
	api.DELETE("/conversations/:other_id", conversationHandler.DeleteConversation)
	api.POST("/conversations/:other_id/unhide", conversationHandler.Unhide)

	api.POST("/likes/:target_id", matchHandler.Like)
	api.DELETE("/likes/:target_id", matchHandler.Dislike)
	api.GET("/matches", matchHandler.ListMatches)
	api.POST("/matches/repair", matchHandler.RepairMatches)

	api.GET("/friends", friendHandler.ListFriends)
	api.GET("/friends/requests", friendHandler.ListRequests)
	api.POST("/friends/requests/:other_id", friendHandler.SendRequest)
	api.POST("/friends/requests/:other_id/accept", friendHandler.AcceptRequest)
	api.POST("/friends/requests/:other_id/reject", friendHandler.RejectRequest)
	api.GET("/friends/:other_id", friendHandler.FriendStatus)

	api.POST("/discover/filters", discoverHandler.ApplyFilters)
	api.GET("/discover/current", discoverHandler.Current)
	api.POST("/discover/like", discoverHandler.Like)
	api.POST("/discover/dislike", discoverHandler.Dislike)
	api.POST("/discover/rewind", discoverHandler.Rewind)

	// websockets authenticate themselves so browsers can pass ?token=
	router.GET("/ws/chats/:chat_id", chatWS.Handle)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("listening port=%s env=%s", cfg.Port, cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	log.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newStore(cfg config.Config) docstore.Store {
	if cfg.UsesMemoryStore() {
		log.Printf("DOCSTORE_URL not set, using in-memory store")
		return docstore.NewMemoryStore()
	}
	log.Printf("docstore url=%s timeout=%s", cfg.DocstoreURL, cfg.DocstoreTimeout)
	return docstore.NewHTTPStore(cfg.DocstoreURL, cfg.DocstoreAuth, cfg.DocstoreTimeout)
}

func jwtSecret(cfg config.Config) (string, error) {
	if cfg.JWTSecret != "" {
		return cfg.JWTSecret, nil
	}
	if cfg.Environment == "local" {
		log.Printf("JWT_SECRET not set, using development secret")
		return devJWTSecret, nil
	}
	return "", errors.New("JWT_SECRET is required outside the local environment")
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}
