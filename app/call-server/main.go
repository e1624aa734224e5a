package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/yootranslate/config"
	"github.com/yoockh/yootranslate/internal/api/handlers"
	"github.com/yoockh/yootranslate/internal/api/middleware"
	"github.com/yoockh/yootranslate/internal/api/routes"
	"github.com/yoockh/yootranslate/internal/cache"
	"github.com/yoockh/yootranslate/internal/events"
	"github.com/yoockh/yootranslate/internal/logger"
	"github.com/yoockh/yootranslate/internal/providers/llm"
	"github.com/yoockh/yootranslate/internal/providers/stt"
	"github.com/yoockh/yootranslate/internal/providers/tts"
	"github.com/yoockh/yootranslate/internal/providers/vad"
	mongorepo "github.com/yoockh/yootranslate/internal/repositories/mongo"
	pgrepo "github.com/yoockh/yootranslate/internal/repositories/postgres"
	"github.com/yoockh/yootranslate/internal/room"
	"github.com/yoockh/yootranslate/internal/services"
	"github.com/yoockh/yootranslate/internal/storage"
	"github.com/yoockh/yootranslate/internal/tools"
	"github.com/yoockh/yootranslate/internal/workers"
)

func main() {
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Stores are optional; a call runs without any of them.
	var (
		sessions mongorepo.CallSessionRepository
		turns    mongorepo.TurnRepository
		records  pgrepo.CallRecordRepo
		ledger   cache.Ledger = cache.NewMemoryLedger()
		pub      events.Publisher
	)

	switch err := config.InitMongo(ctx); {
	case errors.Is(err, config.ErrNotConfigured):
		log.Info("MongoDB not configured; transcripts kept in memory only")
	case err != nil:
		log.WithError(err).Fatal("MongoDB init")
	default:
		if err := config.EnsureMongoIndexes(ctx); err != nil {
			log.WithError(err).Fatal("MongoDB indexes")
		}
		db := config.MongoDatabase()
		sessions = mongorepo.NewCallSessionRepo(db)
		turns = mongorepo.NewTurnRepo(db)
		log.Info("MongoDB connected")
	}

	switch err := config.InitPostgres(); {
	case errors.Is(err, config.ErrNotConfigured):
		log.Info("PostgreSQL not configured; call records disabled")
	case err != nil:
		log.WithError(err).Fatal("PostgreSQL init")
	default:
		records = pgrepo.NewCallRecordRepo(config.PostgresDB)
		log.Info("PostgreSQL connected")
	}

	switch err := config.InitRedis(ctx); {
	case errors.Is(err, config.ErrNotConfigured):
		log.Info("Redis not configured; token ledger is process-local")
	case err != nil:
		log.WithError(err).Fatal("Redis init")
	default:
		ledger = cache.NewRedisLedger(config.RedisClient, "admission:used:")
		pub = events.NewRedisPublisher(config.RedisClient)
		log.Info("Redis connected")
	}

	var archive services.TranscriptStore
	if cfg.Google.ArchiveBucket != "" {
		gcsw, err := storage.NewGCSWriter(ctx, cfg.Google.ArchiveBucket)
		if err != nil {
			log.WithError(err).Fatal("GCS init")
		}
		defer gcsw.Close()
		archive = storage.NewTranscriptArchive(gcsw, "")
	}

	var admin room.Admin
	if cfg.LiveKit.URL != "" {
		admin = room.NewLiveKitAdmin(cfg.LiveKit.URL, cfg.LiveKit.APIKey, cfg.LiveKit.APISecret, services.RoomPrefix)
	}

	admission := services.NewAdmissionService(services.AdmissionOptions{
		APIKey:      cfg.LiveKit.APIKey,
		APISecret:   cfg.LiveKit.APISecret,
		DefaultRoom: cfg.Admission.DefaultRoom,
		TokenTTL:    cfg.Admission.TokenTTL,
		Ledger:      ledger,
	})

	registry := tools.NewRegistry(cfg.Call.Fallback, log, &tools.EndCall{Farewell: cfg.Call.Farewell})

	speech, err := stt.NewGoogleSpeech(ctx, cfg.Google.SampleRateHz, cfg.Call.Languages)
	if err != nil {
		log.WithError(err).Fatal("speech-to-text init")
	}
	defer speech.Close()

	gemini, err := llm.NewVertexGemini(ctx, llm.VertexOptions{
		ProjectID:    cfg.Google.ProjectID,
		Location:     cfg.Google.Location,
		Model:        cfg.Google.LLMModel,
		Instructions: cfg.Call.Instructions,
		Temperature:  cfg.Google.Temperature,
		Tools:        registry.Declarations(),
	})
	if err != nil {
		log.WithError(err).Fatal("Vertex AI init")
	}
	defer gemini.Close()

	voice, err := tts.NewGoogleTTS(ctx, cfg.Google.SampleRateHz, tts.NewSelector(cfg.Call.Languages, cfg.Google.TTSVoices))
	if err != nil {
		log.WithError(err).Fatal("text-to-speech init")
	}
	defer voice.Close()

	recorder := services.NewCallRecorder(services.RecorderDeps{
		Sessions: sessions,
		Turns:    turns,
		Records:  records,
		Archive:  archive,
		Events:   pub,
		TurnTTL:  cfg.Call.TranscriptTTL,
	})

	manager, err := workers.NewManager(workers.Deps{
		STT:         speech,
		LLM:         gemini,
		TTS:         voice,
		Tools:       registry,
		Recorder:    recorder,
		Admin:       admin,
		VAD:         vad.DefaultConfig(int(cfg.Google.SampleRateHz)),
		Greeting:    cfg.Call.Greeting,
		Fallback:    cfg.Call.Fallback,
		TurnTimeout: cfg.Call.TurnTimeout,
		Logger:      log,
	})
	if err != nil {
		log.WithError(err).Fatal("call manager")
	}

	var history services.CallHistoryService
	if sessions != nil || records != nil {
		history = services.NewCallHistoryService(sessions, turns, records)
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.RequestLogger(log), gin.Recovery())
	routes.RegisterRoutes(r, routes.Deps{
		Admission: handlers.NewAdmissionHandler(admission),
		Room:      handlers.NewRoomHandler(admission, manager, log),
		Ops:       handlers.NewOpsHandler(manager, admin, history),
		OpsSecret: cfg.Ops.JWTSecret,
	})

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-Id"},
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           corsHandler.Handler(r),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("addr", srv.Addr).Info("call server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("http server")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := manager.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("calls did not finish in time")
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http shutdown")
	}
	closeStores(shutdownCtx, log)
}

func closeStores(ctx context.Context, log *logrus.Logger) {
	if config.MongoClient != nil {
		if err := config.MongoClient.Disconnect(ctx); err != nil {
			log.WithError(err).Warn("MongoDB disconnect")
		}
	}
	if config.RedisClient != nil {
		_ = config.RedisClient.Close()
	}
	if config.PostgresDB != nil {
		if db, err := config.PostgresDB.DB(); err == nil {
			_ = db.Close()
		}
	}
}
