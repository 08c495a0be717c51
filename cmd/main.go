package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/profiler"
	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/nikhilkumar202002/domain-dude-attendance/internal/database"
	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/attendance"
	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/auth"
	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/communication"
	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/environment"
	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/locking"
	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/logger"
	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/notifications"
	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/presence"
	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/realtime"
	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/storage"
	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/tasks"
	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/users"
	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/works"
)

const (
	uploadsPrefix     = "/uploads/"
	recipientCacheTTL = 5 * time.Minute
)

func main() {
	environment.Initialize()
	env := environment.Global

	var logging logger.Interface = logger.Logger{}
	fmt.Println("Server is starting up...")

	if env.IsProduction() && env.GCPProjectID != "" {
		cloudLogger, err := logger.NewGoogleCloudLogger(context.Background(), env.GCPProjectID, "domain-dude-backend")
		if err != nil {
			logging.Fatal(err)
		}
		defer cloudLogger.Close()
		logging = cloudLogger

		err = profiler.Start(profiler.Config{
			Service:        "domain-dude-backend",
			ServiceVersion: "1.0.0",
			ProjectID:      env.GCPProjectID,
		})
		if err != nil {
			logging.Warning("Profiler could not be started", err)
		}
	}

	if env.Secret == "" {
		logging.Fatal(fmt.Errorf("SECRET is not set"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, db, err := database.Connect(ctx, env.DatabaseURL, env.Database, logging)
	if err != nil {
		logging.Fatal(err)
	}

	defer func() {
		err := client.Disconnect(context.Background())
		if err != nil {
			logging.Error("Problem disconnecting from the database", err)
		}
	}()

	userRepository := users.UserRepository{DB: db.Collection(database.CollectionUsers), Logger: logging}
	taskRepository := &tasks.MongoDBTaskRepository{
		DB:              db.Collection(database.CollectionTasks),
		UsersCollection: database.CollectionUsers,
		Logger:          logging,
	}
	recordRepository := &attendance.MongoDBRecordRepository{
		DB:              db.Collection(database.CollectionAttendance),
		UsersCollection: database.CollectionUsers,
		Logger:          logging,
	}
	engagementRepository := &works.MongoDBEngagementRepository{
		DB:     db.Collection(database.CollectionWorks),
		Logger: logging,
	}

	err = database.EnsureIndexes(ctx, userRepository, taskRepository, recordRepository, engagementRepository)
	if err != nil {
		logging.Fatal(err)
	}

	var locker locking.LockerInterface = locking.NewLockerMemory()
	var recipientCache notifications.RecipientCacheInterface
	if env.Redis != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     env.Redis,
			Password: env.RedisPassword,
			DB:       0,
		})
		defer redisClient.Close()

		err = redisClient.Ping(ctx).Err()
		if err != nil {
			logging.Fatal(err)
		}

		locker = locking.NewLockerRedis(redisClient)
		recipientCache = notifications.NewRecipientCacheRedis(redisClient, recipientCacheTTL)
		logging.Info("Redis connected")
	} else {
		recipientCache, err = notifications.NewRecipientCacheMemory(16, recipientCacheTTL)
		if err != nil {
			logging.Fatal(err)
		}
	}

	var imageStorage storage.Storage
	if env.StorageBucket != "" {
		cloudStorage, err := storage.NewCloudStorage(context.Background(), env.StorageBucket, "profiles")
		if err != nil {
			logging.Fatal(err)
		}
		defer cloudStorage.Close()
		imageStorage = cloudStorage
	} else {
		diskStorage, err := storage.NewDiskStorage(env.UploadDir, uploadsPrefix)
		if err != nil {
			logging.Fatal(err)
		}
		imageStorage = diskStorage
	}

	responseManager := communication.ResponseManager{Logger: logging}
	verifier := &auth.Verifier{Secret: env.Secret}
	authMiddleware := auth.AuthenticationMiddleware{
		Verifier:        verifier,
		ResponseManager: &responseManager,
	}

	registry := presence.NewRegistry()
	hub := realtime.NewHub(registry, env.Cors, logging)
	hub.Verifier = verifier
	hub.RequireToken = env.SocketRequiresToken()
	dispatcher := notifications.NewDispatcher(registry, logging)

	recipients := &notifications.CachedResolver{
		Resolver: &notifications.RepositoryResolver{UserRepository: userRepository},
		Cache:    recipientCache,
		Logger:   logging,
	}
	notificationController := notifications.NewNotificationController(dispatcher, recipients, logging)

	userHandler := users.Handler{
		UserRepository:  userRepository,
		Logger:          logging,
		ResponseManager: &responseManager,
		Storage:         imageStorage,
		Secret:          env.Secret,
		TokenTTL:        env.TokenDuration(),
		Observers:       []users.ChangeObserver{recipients},
	}

	taskService := &tasks.Service{
		TaskRepository: taskRepository,
		UserRepository: userRepository,
		Logger:         logging,
		Locker:         locker,
	}
	taskService.Subscribe(notificationController)
	taskHandler := tasks.Handler{Service: taskService, Logger: logging, ResponseManager: &responseManager}

	attendanceService := &attendance.Service{RecordRepository: recordRepository, Locker: locker, Logger: logging}
	attendanceHandler := attendance.Handler{Service: attendanceService, Logger: logging, ResponseManager: &responseManager}

	workHandler := works.Handler{
		EngagementRepository: engagementRepository,
		Logger:               logging,
		ResponseManager:      &responseManager,
	}

	r := mux.NewRouter()
	r.HandleFunc("/", func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusOK)

		_, err := fmt.Fprint(writer, "Welcome to the API! ✔")
		if err != nil {
			logging.Error("Problem writing welcome", err)
		}
	})
	r.Handle("/socket", hub).Methods(http.MethodGet)
	r.PathPrefix(uploadsPrefix).Handler(http.StripPrefix(uploadsPrefix, http.FileServer(http.Dir(env.UploadDir))))

	api := r.PathPrefix("/api").Subrouter()
	api.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("Content-Type", "application/json")
			next.ServeHTTP(w, r)
		})
	})

	open := api.PathPrefix("/auth").Subrouter()
	open.HandleFunc("/login", userHandler.UserLogin).Methods(http.MethodPost)
	open.Handle("/register", authMiddleware.OptionalMiddleware(http.HandlerFunc(userHandler.UserRegister))).
		Methods(http.MethodPost)

	authenticated := api.NewRoute().Subrouter()
	authenticated.Use(authMiddleware.Middleware)

	authenticated.HandleFunc("/auth/users", userHandler.UserList).Methods(http.MethodGet)
	authenticated.HandleFunc("/auth/me", userHandler.UserGet).Methods(http.MethodGet)
	authenticated.HandleFunc("/auth/users/{userID}", userHandler.UserUpdate).Methods(http.MethodPut)
	authenticated.HandleFunc("/auth/users/{userID}", userHandler.UserDelete).Methods(http.MethodDelete)

	authenticated.HandleFunc("/tasks", taskHandler.TaskAdd).Methods(http.MethodPost)
	authenticated.HandleFunc("/tasks", taskHandler.GetAllTasks).Methods(http.MethodGet)
	authenticated.HandleFunc("/tasks/update", taskHandler.TaskUpdateByBody).Methods(http.MethodPut)
	authenticated.HandleFunc("/tasks/{taskID}", taskHandler.TaskGet).Methods(http.MethodGet)
	authenticated.HandleFunc("/tasks/{taskID}", taskHandler.TaskUpdate).Methods(http.MethodPut)
	authenticated.HandleFunc("/tasks/{taskID}", taskHandler.TaskDelete).Methods(http.MethodDelete)

	authenticated.HandleFunc("/attendance", attendanceHandler.AttendanceMark).Methods(http.MethodPost)
	authenticated.HandleFunc("/attendance", attendanceHandler.AttendanceList).Methods(http.MethodGet)

	authenticated.HandleFunc("/works", workHandler.WorkAdd).Methods(http.MethodPost)
	authenticated.HandleFunc("/works", workHandler.WorkList).Methods(http.MethodGet)
	authenticated.HandleFunc("/works/{workID}", workHandler.WorkUpdate).Methods(http.MethodPut)
	authenticated.HandleFunc("/works/{workID}", workHandler.WorkDelete).Methods(http.MethodDelete)

	handler := responseManager.RecoveryMiddleware(communication.CORSMiddleware(env.Cors)(r))

	server := &http.Server{
		Addr:              ":" + env.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logging.Info(fmt.Sprintf("Listening on port %s", env.Port))
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			logging.Fatal(err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logging.Info("Server is shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	hub.Close()
	err = server.Shutdown(shutdownCtx)
	if err != nil {
		logging.Error("Server did not shut down cleanly", err)
	}
}
