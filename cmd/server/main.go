package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron"
	config "github.com/velora-labs/video-api/configs"
	"github.com/velora-labs/video-api/internal/api/handlers"
	"github.com/velora-labs/video-api/internal/api/middleware"
	job "github.com/velora-labs/video-api/internal/jobs"
	"github.com/velora-labs/video-api/internal/queue"
	"github.com/velora-labs/video-api/internal/repository"
	"github.com/velora-labs/video-api/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisURI})
	defer rdb.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    500 * 1024 * 1024, // uploads go through this process
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	userRepo := repository.NewUserRepository(db)
	videoRepo := repository.NewVideoRepository(db)
	mediaFileRepo := repository.NewMediaFileRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)
	purchaseRepo := repository.NewPurchaseRepository(db)

	mediaStore := service.NewS3MediaStore(*cfg, mediaFileRepo)
	transcoder := queue.NewTranscoder(client)
	eventBus := queue.NewRedisEventBus(rdb, cfg.CountUpdatedChannel, cfg.VideosDeletedChannel)

	authService := service.NewAuthService(*cfg, userRepo)
	userService := service.NewUserService(userRepo)
	videoService := service.NewVideoService(videoRepo, mediaStore, transcoder, eventBus)
	accessService := service.NewAccessService(videoRepo, subscriptionRepo, purchaseRepo, videoService, mediaStore)

	authMiddleware := middleware.NewAuthMiddleware(*cfg)

	auth := handlers.NewAuthHandler(*cfg, authService)
	app.Get("/login", auth.Login)
	app.Get("/login/callback", auth.LoginCallbackHandler)

	feed := handlers.NewFeedHandler(videoRepo, accessService)
	public := app.Group("/videos")
	public.Use(authMiddleware.OptionalAuth())
	video := handlers.NewVideoHandler(videoService, accessService)
	public.Get("/", feed.ListActiveVideos)
	public.Get("/:id", video.VideoDetails)

	api := app.Group("/api")
	api.Use(authMiddleware.RequireAuth())

	user := handlers.NewUserHandler(userService)
	api.Get("/user/info", user.GetUserInfo)

	api.Post("/videos/create", video.CreateVideo)
	api.Put("/videos/update", video.UpdateVideo)
	api.Post("/videos/remove", video.RemoveVideo)
	api.Post("/videos/remove-file", video.RemoveVideoFile)
	api.Get("/videos/mine", video.ListMyVideos)
	api.Get("/videos/check-auth", video.CheckAuth)

	// cron jobs
	requeueAfter := 60
	if n, err := strconv.Atoi(cfg.RequeueAfterMinutes); err == nil && n > 0 {
		requeueAfter = n
	}
	requeueJob := job.NewTranscodeRequeueJob(videoRepo, transcoder, time.Duration(requeueAfter)*time.Minute)

	c := cron.New()
	c.AddFunc("@every 00h10m00s", requeueJob.Requeue)
	c.Start()

	// queue
	queueW := queue.NewQueue(videoRepo, mediaStore, eventBus)

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 10,
		})

		mux := asynq.NewServeMux()
		queueW.Register(mux)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(":3000"); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Println("Server is running on http://localhost:3000")

	gracefulShutdown(app, db)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, db *sql.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}
