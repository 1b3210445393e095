package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"example.com/carbonlog/internal/api"
	"example.com/carbonlog/internal/auth"
	"example.com/carbonlog/internal/carbon"
	"example.com/carbonlog/internal/config"
	"example.com/carbonlog/internal/events"
	"example.com/carbonlog/internal/extract"
	"example.com/carbonlog/internal/persistence/postgres"
	"example.com/carbonlog/internal/persistence/sqlitedoc"
	"example.com/carbonlog/internal/transcribe"
	httptransport "example.com/carbonlog/internal/transport/http"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	history, err := sqlitedoc.Open(cfg.HistoryDir)
	if err != nil {
		log.Fatalf("failed to open history store: %v", err)
	}
	defer history.Close()

	catalog := postgres.NewRepository(pool)

	var oracle extract.Oracle
	if cfg.OracleEndpoint != "" {
		oracle = extract.NewLLMOracle(extract.OracleConfig{
			Endpoint: cfg.OracleEndpoint,
			APIKey:   cfg.OracleAPIKey,
			Model:    cfg.OracleModel,
			Timeout:  cfg.OracleTimeout,
		})
	} else {
		log.Printf("no oracle endpoint configured, fallback classifier only")
	}

	var publisher extract.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.ActivityTopic)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
	}

	classifier := extract.NewClassifier(catalog)
	calculator := carbon.NewCalculator(carbon.NewResolver(catalog))
	pipeline := extract.NewOrchestrator(oracle, classifier, calculator, history, publisher)

	var transcriber api.Transcriber
	if cfg.STTEndpoint != "" {
		transcriber = transcribe.NewClient(transcribe.Config{
			Endpoint: cfg.STTEndpoint,
			APIKey:   cfg.STTAPIKey,
			Model:    cfg.STTModel,
			Timeout:  cfg.STTTimeout,
		})
	}

	authConfig := auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer, TTL: cfg.TokenTTL}

	handler := api.NewHandler(pipeline, history, catalog, catalog, transcriber, authConfig, cfg.HistoryLimit)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())

	// Simple CORS middleware for local dev
	cors := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "http://localhost:5173")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}

	// Basic request logger
	logger := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Printf("%s %s", r.Method, r.URL.Path)
			next.ServeHTTP(w, r)
		})
	}

	authMiddleware := auth.NewMiddleware(authConfig, func(r *http.Request) bool {
		return r.URL.Path == "/healthz" || r.URL.Path == "/metrics"
	})

	server := httptransport.NewServer(httptransport.ServerConfig{
		Address: cfg.HTTPAddress,
	}, authMiddleware.Wrap(logger(cors(mux))))

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("carbonlog listening on %s", cfg.HTTPAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-shutdownCh
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}
