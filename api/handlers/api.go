package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/linesmerrill/civic-report-api/api"
	"github.com/linesmerrill/civic-report-api/api/scheduler"
	"github.com/linesmerrill/civic-report-api/config"
	"github.com/linesmerrill/civic-report-api/databases"
	"github.com/linesmerrill/civic-report-api/models"
	"github.com/linesmerrill/civic-report-api/notifications"
	"github.com/linesmerrill/civic-report-api/storage"
)

// App stores the router and db connection, so it can be reused
type App struct {
	Router    *mux.Router
	Config    config.Config
	Storage   storage.FileStorage
	Mailer    notifications.Mailer
	Feed      *ReportFeed
	Metrics   *api.MetricsCollector
	Scheduler *scheduler.Scheduler
	dbHelper  databases.DatabaseHelper
	client    databases.ClientHelper
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	if a.Metrics == nil {
		a.Metrics = api.NewMetricsCollector()
	}
	r := mux.NewRouter()
	r.Use(api.RequestLogger, a.Metrics.Middleware)

	u := User{DB: databases.NewUserDatabase(a.dbHelper)}
	report := Report{
		DB:      databases.NewReportDatabase(a.dbHelper),
		UDB:     databases.NewUserDatabase(a.dbHelper),
		Storage: a.Storage,
		Mailer:  a.Mailer,
		Feed:    a.Feed,
	}

	// healthchex
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	r.Handle("/ws/reports", a.Feed).Methods("GET")
	r.HandleFunc("/uploads/{filename}", report.UploadHandler).Methods("GET")

	apiCreate := r.PathPrefix("/api").Subrouter()
	apiCreate.Use(api.TimeoutMiddleware(a.Config.RequestTimeout))

	apiCreate.HandleFunc("/metrics", a.Metrics.Handler).Methods("GET")

	apiCreate.HandleFunc("/register", u.RegisterHandler).Methods("POST")
	apiCreate.HandleFunc("/login", u.LoginHandler).Methods("POST")

	apiCreate.HandleFunc("/reports", report.ReportsHandler).Methods("GET")
	apiCreate.HandleFunc("/reports", report.CreateReportHandler).Methods("POST")
	apiCreate.HandleFunc("/reports/{id}", report.UpdateReportStatusHandler).Methods("PUT")
	apiCreate.HandleFunc("/reports/{id}", report.DeleteReportHandler).Methods("DELETE")

	// the reporting page is hosted at "/"
	r.PathPrefix("/").Handler(http.FileServer(http.Dir(a.Config.PublicDir)))
	return r
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize() error {
	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a.client = client
	a.dbHelper = databases.NewDatabase(&a.Config, client)
	err = client.Connect(ctx)
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("civic-report-api has connected to the database")

	if err = databases.NewUserDatabase(a.dbHelper).EnsureIndexes(ctx); err != nil {
		// without these indexes duplicate registrations could slip through concurrently
		zap.S().With(err).Error("failed to create user indexes")
		return err
	}
	if err = databases.NewReportDatabase(a.dbHelper).EnsureIndexes(ctx); err != nil {
		zap.S().Warnw("failed to create report indexes", "error", err)
	}

	a.Storage, err = newStorage(a.Config)
	if err != nil {
		zap.S().With(err).Error("failed to set up file storage")
		return err
	}
	a.Mailer = notifications.NewMailer(a.Config.SendgridAPIKey, a.Config.MailFrom)
	a.Feed = NewReportFeed()
	a.Scheduler = scheduler.NewScheduler(databases.NewReportDatabase(a.dbHelper), a.Storage, a.Config.OrphanGracePeriod)

	// initialize api router
	a.initializeRoutes()
	return nil
}

// Close releases what Initialize acquired
func (a *App) Close(ctx context.Context) error {
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	a.Feed.Close()
	if a.client == nil {
		return nil
	}
	return a.client.Disconnect(ctx)
}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

func newStorage(conf config.Config) (storage.FileStorage, error) {
	switch conf.StorageBackend {
	case "", "local":
		return storage.NewLocal(conf.UploadDir), nil
	case "cloudinary":
		c, err := storage.NewCloudinary(conf.CloudinaryCloudName, conf.CloudinaryAPIKey, conf.CloudinaryAPISecret, conf.CloudinaryFolder)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", conf.StorageBackend)
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}
