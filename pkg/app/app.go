package app

import (
	"github.com/arnavshah/assign-api-go/pkg/auth"
	"github.com/arnavshah/assign-api-go/pkg/config"
	"github.com/arnavshah/assign-api-go/pkg/database"
	"github.com/arnavshah/assign-api-go/pkg/handlers"
	"github.com/arnavshah/assign-api-go/pkg/logging"
	"github.com/arnavshah/assign-api-go/pkg/metrics"
	"github.com/arnavshah/assign-api-go/pkg/scheduler"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// App holds the wired service shared by the server command and the
// serverless entry point
type App struct {
	Config  *config.Config
	DB      *gorm.DB
	Handler *handlers.Handler
	Router  *gin.Engine
}

// NewEngine builds the assignment engine from the config
func NewEngine(cfg *config.Config, logger log.FieldLogger) (*scheduler.Engine, error) {
	engineCfg, err := cfg.Scheduler()
	if err != nil {
		return nil, err
	}
	return scheduler.NewEngine(engineCfg, nil, logger), nil
}

// New sets up logging, opens the database, makes sure an admin exists and
// builds the router
func New(cfg *config.Config) (*App, error) {
	if err := logging.Setup(cfg.Log); err != nil {
		return nil, errors.Wrap(err, "invalid log config")
	}
	if cfg.Server.GinMode != "" {
		gin.SetMode(cfg.Server.GinMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := auth.EnsureAdminExists(db, cfg.Auth); err != nil {
		return nil, err
	}

	logger := log.StandardLogger()
	engine, err := NewEngine(cfg, logger)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	h := &handlers.Handler{
		DB:        db,
		Store:     database.NewStore(db),
		Engine:    engine,
		Auth:      auth.New(cfg.Auth),
		Metrics:   metrics.New(reg),
		Log:       logger,
		RateLimit: cfg.Auth.DefaultLimit,
	}
	return &App{
		Config:  cfg,
		DB:      db,
		Handler: h,
		Router:  handlers.NewRouter(h, reg),
	}, nil
}
