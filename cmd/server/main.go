package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"peakform/coaching-platform/internal/api"
	"peakform/coaching-platform/internal/config"
	"peakform/coaching-platform/internal/payments"
	"peakform/coaching-platform/internal/repository/mongo"
	"peakform/coaching-platform/internal/service"
	"peakform/coaching-platform/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// @title Coaching Platform API
// @version 1.0
// @description API for coaches, clients, workout programs, assignments and payments.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatal().Err(err).Msg("could not load config")
	}
	setupLogging(cfg.Log)
	log.Info().Msg("configuration loaded")

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.Fatal().Err(err).Msg("could not connect to MongoDB")
	}
	defer func() {
		log.Info().Msg("disconnecting MongoDB")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.Error().Err(err).Msg("failed to disconnect MongoDB")
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	log.Info().Str("database", cfg.Database.Name).Msg("database connection established")

	// --- Ensure Indexes ---
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		ensure := func(name string, err error) {
			if err != nil {
				log.Error().Err(err).Str("target", name).Msg("index creation failed")
			}
		}
		ensure("users", mongo.EnsureUserIndexes(ctx, appDB.Collection("users")))
		ensure("coach_clients", mongo.EnsureCoachClientIndexes(ctx, appDB.Collection("coach_clients")))
		ensure("exercises", mongo.EnsureExerciseIndexes(ctx, appDB.Collection("exercises")))
		ensure("programs", mongo.EnsureProgramIndexes(ctx, appDB))
		ensure("assignments", mongo.EnsureAssignmentIndexes(ctx, appDB.Collection("program_assignments")))
		ensure("assignment_audit", mongo.EnsureAuditIndexes(ctx, appDB.Collection("assignment_audit")))
		ensure("coach_services", mongo.EnsureCoachServiceIndexes(ctx, appDB))
		ensure("payments", mongo.EnsurePaymentIndexes(ctx, appDB))
		ensure("subscriptions", mongo.EnsureSubscriptionIndexes(ctx, appDB))
		log.Info().Msg("index creation process completed")
	}()

	// --- Initialize Storage ---
	fileStorage, err := storage.NewS3Storage(cfg.S3)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize S3 storage")
	}

	// --- Initialize Payment Gateway ---
	gateway, err := payments.NewStripeGateway(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret, cfg.Stripe.SuccessURL, cfg.Stripe.CancelURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize Stripe gateway")
	}

	platformAccountID, err := primitive.ObjectIDFromHex(cfg.Platform.AccountID)
	if err != nil {
		log.Fatal().Err(err).Msg("platform.account_id must be a valid object id")
	}

	// --- Initialize Repositories ---
	userRepo := mongo.NewMongoUserRepository(appDB)
	linkRepo := mongo.NewMongoCoachClientRepository(appDB)
	exerciseRepo := mongo.NewMongoExerciseRepository(appDB)
	programRepo := mongo.NewMongoProgramRepository(appDB)
	assignmentRepo := mongo.NewMongoAssignmentRepository(appDB)
	auditRepo := mongo.NewMongoAuditRepository(appDB)
	serviceRepo := mongo.NewMongoCoachServiceRepository(appDB)
	requestRepo := mongo.NewMongoCoachServiceRequestRepository(appDB)
	txRepo := mongo.NewMongoTransactionRepository(appDB)
	splitRepo := mongo.NewMongoRevenueSplitRepository(appDB)
	planRepo := mongo.NewMongoSubscriptionPlanRepository(appDB)
	subRepo := mongo.NewMongoSubscriptionRepository(appDB)
	txRunner := mongo.NewMongoTxRunner(dbClient)

	// --- Initialize Services ---
	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	rosterService := service.NewCoachClientService(linkRepo, userRepo)
	exerciseService := service.NewExerciseService(exerciseRepo, fileStorage)
	programService := service.NewProgramService(programRepo, exerciseRepo, assignmentRepo, fileStorage, txRunner)
	assignmentService := service.NewAssignmentService(assignmentRepo, auditRepo, userRepo, programRepo, linkRepo, requestRepo, txRunner)
	coachRequestService := service.NewCoachRequestService(serviceRepo, requestRepo, txRepo, userRepo, gateway)
	subscriptionService := service.NewSubscriptionService(planRepo, subRepo, txRepo, userRepo, gateway)
	paymentService := service.NewPaymentService(txRepo, splitRepo, requestRepo, subRepo, planRepo, txRunner, platformAccountID, cfg.Platform.CoachPercentage)

	// --- Initialize Gin Engine ---
	router := gin.Default()

	// --- Setup Routes ---
	api.SetupRoutes(
		router,
		cfg.JWT.Secret,
		authService,
		rosterService,
		exerciseService,
		programService,
		assignmentService,
		coachRequestService,
		subscriptionService,
		paymentService,
		gateway,
	)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Info().Str("address", cfg.Server.Address).Msg("server starting")

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen and serve error")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exiting")
}

func setupLogging(cfg config.LogConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}
