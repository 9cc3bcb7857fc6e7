package handler

import (
	"net/http"

	"github.com/arnavshah/assign-api-go/pkg/app"
	"github.com/arnavshah/assign-api-go/pkg/config"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

var service *app.App

func init() {
	// Load .env if it exists (for local testing with vercel dev)
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")

	cfg, err := config.Load(config.Path())
	if err != nil {
		log.WithError(err).Fatal("Could not load config")
	}

	service, err = app.New(cfg)
	if err != nil {
		log.WithError(err).Fatal("Could not start service")
	}
}

// Handler is the entry point for Vercel Go Runtime
func Handler(w http.ResponseWriter, r *http.Request) {
	service.Router.ServeHTTP(w, r)
}
