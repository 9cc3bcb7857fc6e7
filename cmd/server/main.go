package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arnavshah/assign-api-go/pkg/app"
	"github.com/arnavshah/assign-api-go/pkg/auth"
	"github.com/arnavshah/assign-api-go/pkg/config"
	"github.com/arnavshah/assign-api-go/pkg/database"
	"github.com/arnavshah/assign-api-go/pkg/logging"
	"github.com/arnavshah/assign-api-go/pkg/models"
	"github.com/arnavshah/assign-api-go/pkg/scheduler"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var rootCmd = &cobra.Command{
	Use:   "assign-api",
	Short: "Worker to task assignment service",
	Long:  "assign-api assigns worker hours to tasks with an exact LP solver or a greedy heuristic and serves the results over HTTP.",
	RunE:  runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE:  runMigrate,
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load workers, tasks and assignments from JSON files",
	RunE:  runSeed,
}

var keygenCmd = &cobra.Command{
	Use:   "keygen <userID>",
	Short: "Print a signed API key for a user",
	Args:  cobra.ExactArgs(1),
	RunE:  runKeygen,
}

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Solve an assignment input file and print the result",
	RunE:  runSolve,
}

func init() {
	seedCmd.Flags().String("dir", "seed_data", "Directory containing workers.json, tasks.json and assignments.json")
	seedCmd.Flags().Bool("truncate", false, "Delete existing workers, tasks and assignments before loading")

	solveCmd.Flags().StringP("input", "i", "", "JSON file with workers and tasks (- for stdin)")
	solveCmd.Flags().StringP("method", "m", string(scheduler.MethodLP), "Solving method: lp or greedy")
	solveCmd.Flags().Duration("budget", 0, "Time budget for the lp method (defaults to engine.time_budget)")
	_ = solveCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(keygenCmd)
	rootCmd.AddCommand(solveCmd)
}

func main() {
	// Load .env if it exists
	// Try root and parent directories for flexibility
	for _, p := range []string{".env", "../.env", "../../.env"} {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
			break
		}
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(config.Path())
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := logging.Setup(cfg.Log); err != nil {
		return nil, fmt.Errorf("configuring logging: %w", err)
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Auth.JWTSecret == "" || cfg.Auth.APIMasterSecret == "" {
		log.Warn("JWT_SECRET or API_MASTER_SECRET is empty, tokens and keys are signed with an empty secret")
	}

	a, err := app.New(cfg)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: a.Router,
	}

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.Server.Port).Info("Server starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("could not run server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if _, err := database.Open(cfg.Database); err != nil {
		return err
	}
	log.Info("Schema migrated")
	return nil
}

func runSeed(cmd *cobra.Command, args []string) error {
	dir, _ := cmd.Flags().GetString("dir")
	truncate, _ := cmd.Flags().GetBool("truncate")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		return err
	}

	if truncate {
		log.Info("Deleting existing records")
	}
	summary, err := database.NewStore(db).Seed(cmd.Context(), dir, truncate)
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"dir":         dir,
		"workers":     summary.Workers,
		"tasks":       summary.Tasks,
		"assignments": summary.Assignments,
	}).Info("Seed data loaded")
	return nil
}

func runKeygen(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Auth.APIMasterSecret == "" {
		return fmt.Errorf("API_MASTER_SECRET is not configured")
	}

	userID := args[0]
	key := auth.New(cfg.Auth).GenerateHMACKey(userID)
	fmt.Fprintf(cmd.OutOrStdout(), "Generated Key for %s:\n%s\n", userID, key)
	return nil
}

func runSolve(cmd *cobra.Command, args []string) error {
	input, _ := cmd.Flags().GetString("input")
	methodRaw, _ := cmd.Flags().GetString("method")
	budget, _ := cmd.Flags().GetDuration("budget")

	method, err := scheduler.ParseMethod(methodRaw)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var data []byte
	if input == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(input)
	}
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	var in models.AssignInput
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("parsing input: %w", err)
	}

	engine, err := app.NewEngine(cfg, log.StandardLogger())
	if err != nil {
		return err
	}
	res, err := engine.Assign(cmd.Context(), in.Workers, in.Tasks, method, budget)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(models.AssignResponse{
		Method:      res.Solution.Method,
		Status:      res.Solution.Status,
		Assignments: res.Solution.Assignments,
		KPIs:        res.KPIs,
		ElapsedMS:   res.Elapsed.Milliseconds(),
	})
}
