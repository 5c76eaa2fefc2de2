package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"plume/plume/config"
	"plume/plume/controllers"
	"plume/plume/routes"
	"plume/plume/services/llm"
	"plume/plume/sources/mongo"
	"plume/plume/sources/mongo/dao"
	"plume/plume/sources/storage"
	"plume/plume/utils/logging"
)

func main() {
	logging.InitLogger()
	cfg := config.LoadConfig()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	db, err := mongo.NewDatabase(ctx, cfg)
	if err != nil {
		logging.ErrorLogger.Error("store connection error", zap.Error(err))
		os.Exit(1)
	}

	chatDAO := dao.NewChatDAO(db.Chats())
	indexDAO := dao.NewUserChatsDAO(db.UserChats())

	images, err := storage.NewImageStore(cfg)
	if err != nil {
		logging.ErrorLogger.Error("image store error", zap.Error(err))
		os.Exit(1)
	}
	if err := images.EnsureBucket(ctx); err != nil {
		logging.ErrorLogger.Error("image bucket error", zap.Error(err))
		os.Exit(1)
	}

	gen := llm.NewGeminiClient(cfg)

	chatCtrl := controllers.NewChatController(chatDAO, indexDAO)
	uploadCtrl := controllers.NewUploadController(images)
	healthCtrl := controllers.NewHealthController(db)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.ClientURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Mount("/api/upload", routes.UploadRoutes(uploadCtrl))
	r.Mount("/api/chats", routes.ChatRoutes(chatCtrl, gen, cfg))
	r.Mount("/api/userchats", routes.UserChatRoutes(chatCtrl, cfg))
	r.Mount("/health", routes.HealthRoutes(healthCtrl))
	r.NotFound(routes.SPAHandler(cfg.StaticDir))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}
	go func() {
		logging.AppLogger.Info("server listening on :" + cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.ErrorLogger.Error("server listen error", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.ErrorLogger.Error("server shutdown error", zap.Error(err))
	}
	if err := db.Close(shutdownCtx); err != nil {
		logging.ErrorLogger.Error("store close error", zap.Error(err))
	}
	logging.AppLogger.Info("server shutdown complete")
}
