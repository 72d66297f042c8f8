package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	clerk "github.com/clerk/clerk-sdk-go/v2"
	gorilllaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"questHuntAPI/handlers"
	"questHuntAPI/internal/access"
	"questHuntAPI/internal/ledger"
	"questHuntAPI/internal/notification"
	"questHuntAPI/internal/storage"
	"questHuntAPI/internal/verifier"
	"questHuntAPI/middleware"
	"questHuntAPI/services"

	_ "net/http/pprof"
)

var (
	dbPool             *pgxpool.Pool
	entityStore        storage.Store
	accessService      *access.Service
	dispatcher         *services.EventDispatcher
	feedHub            *services.FeedHub
	huntService        *services.HuntService
	challengeService   *services.ChallengeService
	streakService      *services.StreakService
	leaderboardService *services.LeaderboardService
	rewardService      *services.RewardService
	referralService    *services.ReferralService
	integrationService *services.IntegrationService
	fcmService         *notification.FCMService
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	clerkSecretKey := os.Getenv("CLERK_SECRET_KEY")
	if clerkSecretKey == "" {
		log.Fatal("CLERK_SECRET_KEY environment variable is not set")
	}
	clerk.SetKey(clerkSecretKey)
	log.Println("Clerk initialized successfully")

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		log.Fatal("Failed to parse database URL:", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	dbPool, err = pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		log.Fatal("Failed to create connection pool:", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Fatal("Failed to ping database:", err)
	}

	log.Println("Successfully connected to database")

	pgStore := storage.NewPostgresStore(dbPool)
	if err := pgStore.EnsureSchema(ctx); err != nil {
		log.Fatal("Failed to ensure schema:", err)
	}
	entityStore = pgStore

	superAdmin := os.Getenv("SUPER_ADMIN_ID")
	if superAdmin == "" {
		log.Println("Warning: SUPER_ADMIN_ID not set, no super admin configured")
	}
	engineID := os.Getenv("ENGINE_ID")
	if engineID == "" {
		engineID = "engine"
	}

	accessService = access.NewService(entityStore, superAdmin)
	dispatcher = services.NewEventDispatcher(entityStore)
	feedHub = services.NewFeedHub()

	streakService = services.NewStreakService(entityStore)
	leaderboardService = services.NewLeaderboardService(entityStore, accessService, dispatcher)
	huntService = services.NewHuntService(entityStore, accessService, dispatcher)
	rewardService = services.NewRewardService(entityStore, accessService, ledger.NewStoreNFT(), dispatcher, engineID)
	challengeService = services.NewChallengeService(
		entityStore,
		accessService,
		huntService,
		streakService,
		leaderboardService,
		verifier.Digest(),
		dispatcher,
		services.ChallengeServiceConfig{
			OpenAuthoring: os.Getenv("OPEN_AUTHORING") == "true",
			EngineID:      engineID,
		},
	)
	challengeService.SetRewardIssuer(rewardService)
	referralService = services.NewReferralService(entityStore, accessService, ledger.NewStoreLedger(), challengeService, dispatcher)
	integrationService = services.NewIntegrationService(entityStore, accessService, rewardService, leaderboardService, 256, 64)

	dispatcher.SetFeedHub(feedHub)
	dispatcher.SetIntegration(integrationService)

	fcmService, err = notification.NewFCMService("./serviceAccountKey.json")
	if err != nil {
		log.Printf("Warning: Could not initialize FCM: %v", err)
	} else {
		dispatcher.SetPushProvider(fcmService)
		log.Println("FCM Push Provider initialized successfully")
	}

	middleware.InitPrometheus()
}

func main() {
	defer func() {
		log.Println("Closing database connection pool...")
		dbPool.Close()
	}()

	// Initialize handlers
	huntHandler := handlers.NewHuntHandler(huntService)
	challengeHandler := handlers.NewChallengeHandler(challengeService)
	streakHandler := handlers.NewStreakHandler(streakService)
	leaderboardHandler := handlers.NewLeaderboardHandler(leaderboardService)
	rewardHandler := handlers.NewRewardHandler(rewardService)
	referralHandler := handlers.NewReferralHandler(referralService)
	integrationHandler := handlers.NewIntegrationHandler(integrationService, dispatcher, feedHub)
	accessHandler := handlers.NewAccessHandler(accessService)

	r := mux.NewRouter()

	standardRouter := r.PathPrefix("/").Subrouter()

	go middleware.CleanupVisitors()

	standardRouter.Use(middleware.RateLimitMiddleware)
	standardRouter.Use(middleware.MonitorMiddleware)

	standardRouter.Handle("/metrics", middleware.BasicAuthMiddleware(promhttp.Handler()))
	standardRouter.PathPrefix("/debug/pprof/").Handler(middleware.PprofSecurityMiddleware(http.DefaultServeMux))

	standardRouter.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := dbPool.Ping(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "unhealthy", "error": "database connection failed"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "questHunt-api"}`))
	}).Methods("GET")

	// -------------------------------------------------------------------------
	// API V1 SUBROUTER
	// -------------------------------------------------------------------------
	// This inherits middleware from standardRouter
	api := standardRouter.PathPrefix("/api/v1").Subrouter()

	// -------------------------------------------------------------------------
	// PROTECTED ROUTES (REQUIRE AUTH HEADER)
	// -------------------------------------------------------------------------
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.ClerkAuthMiddleware)

	protected.HandleFunc("/hunts", huntHandler.CreateHunt).Methods("POST")
	protected.HandleFunc("/hunts/mine", huntHandler.GetAdminHunts).Methods("GET")
	protected.HandleFunc("/hunts/{huntID}", huntHandler.GetHunt).Methods("GET")
	protected.HandleFunc("/hunts/{huntID}", huntHandler.UpdateHunt).Methods("PUT")
	protected.HandleFunc("/hunts/{huntID}/active", huntHandler.SetHuntActive).Methods("PUT")

	protected.HandleFunc("/hunts/{huntID}/challenges", challengeHandler.AddChallenge).Methods("POST")
	protected.HandleFunc("/hunts/{huntID}/challenges/{index}", challengeHandler.GetChallengeByIndex).Methods("GET")
	protected.HandleFunc("/hunts/{huntID}/challenges/{challengeID}/active", challengeHandler.SetChallengeActive).Methods("PUT")
	protected.HandleFunc("/hunts/{huntID}/challenges/{challengeID}/submit", challengeHandler.SubmitAnswer).Methods("POST")
	protected.HandleFunc("/hunts/{huntID}/challenges/{challengeID}/submit-proof", challengeHandler.SubmitProof).Methods("POST")
	protected.HandleFunc("/hunts/{huntID}/challenges/{challengeID}/verification-key", challengeHandler.SetVerificationKey).Methods("PUT")
	protected.HandleFunc("/hunts/{huntID}/assign-puzzle", challengeHandler.AssignPuzzle).Methods("POST")
	protected.HandleFunc("/hunts/{huntID}/completed", challengeHandler.GetCompletedChallenges).Methods("GET")

	protected.HandleFunc("/streak", streakHandler.GetUserStreak).Methods("GET")
	protected.HandleFunc("/streak/detail", streakHandler.GetStreak).Methods("GET")

	protected.HandleFunc("/leaderboard", leaderboardHandler.GetLeaderboard).Methods("GET")
	protected.HandleFunc("/leaderboard/stats", leaderboardHandler.GetUserStats).Methods("GET")
	protected.HandleFunc("/leaderboard/points", leaderboardHandler.AddPoints).Methods("POST")
	protected.HandleFunc("/leaderboard/max-size", leaderboardHandler.SetMaxSize).Methods("PUT")

	protected.HandleFunc("/rewards/mint", rewardHandler.MintReward).Methods("POST")
	protected.HandleFunc("/rewards/mine", rewardHandler.GetUserTokens).Methods("GET")
	protected.HandleFunc("/rewards/{tokenID}", rewardHandler.GetToken).Methods("GET")
	protected.HandleFunc("/rewards/{tokenID}/upgrade", rewardHandler.UpgradeReward).Methods("POST")

	protected.HandleFunc("/referrals/register", referralHandler.RegisterWithReferral).Methods("POST")
	protected.HandleFunc("/referrals/claim", referralHandler.ClaimReferralReward).Methods("POST")
	protected.HandleFunc("/referrals", referralHandler.GetReferral).Methods("GET")
	protected.HandleFunc("/referrals/invite-code", referralHandler.GetInviteCode).Methods("GET")
	protected.HandleFunc("/referrals/config/required-completions", referralHandler.SetRequiredCompletions).Methods("PUT")
	protected.HandleFunc("/referrals/config/reward-amount", referralHandler.SetRewardAmount).Methods("PUT")
	protected.HandleFunc("/referrals/pool", referralHandler.GetPoolBalance).Methods("GET")
	protected.HandleFunc("/referrals/pool/fund", referralHandler.FundPool).Methods("POST")
	protected.HandleFunc("/referrals/pool/withdraw", referralHandler.WithdrawPool).Methods("POST")

	protected.HandleFunc("/integration/batch-mint", integrationHandler.BatchMintRewards).Methods("POST")
	protected.HandleFunc("/integration/batch-progress", integrationHandler.BatchUpdateProgress).Methods("POST")
	protected.HandleFunc("/integration/batch-verify", integrationHandler.BatchVerifySolutions).Methods("POST")
	protected.HandleFunc("/integration/system-events", integrationHandler.GetSystemEvents).Methods("GET")
	protected.HandleFunc("/integration/activity-feed", integrationHandler.GetActivityFeed).Methods("GET")
	protected.HandleFunc("/feed/ws", integrationHandler.HandleFeedSocket)

	protected.HandleFunc("/notifications/register-device", integrationHandler.RegisterDevice).Methods("POST")

	protected.HandleFunc("/admin/roles/grant", accessHandler.GrantRole).Methods("POST")
	protected.HandleFunc("/admin/roles/revoke", accessHandler.RevokeRole).Methods("POST")
	protected.HandleFunc("/admin/roles/check", accessHandler.CheckRole).Methods("GET")

	// CORS configuration
	corsHandler := gorilllaHandlers.CORS(
		gorilllaHandlers.AllowedOrigins([]string{"*"}),
		gorilllaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorilllaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Pprof-Secret"}),
		gorilllaHandlers.ExposedHeaders([]string{"Content-Length"}),
		gorilllaHandlers.AllowCredentials(),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3333"
	}
	port = ":" + port

	server := http.Server{
		Addr:         port,
		Handler:      corsHandler(r), // Pass the root router 'r'
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Error starting server:", err)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	sig := <-sigChan
	log.Println("Got signal:", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	dispatcher.Stop()

	log.Println("Server shutdown complete")
}
