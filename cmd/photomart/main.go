package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"photomart/internal/config"
	"photomart/internal/database"
	"photomart/internal/handler"
	"photomart/internal/idempotency"
	"photomart/internal/mw"
	"photomart/internal/processor"
	"photomart/internal/service"
	"photomart/internal/storage"
	"photomart/internal/transform"
	"photomart/internal/webhook"
	"photomart/internal/worker"
)

func main() {
	cfg := config.New()

	db, err := database.NewDB(cfg.DatabaseURI)
	if err != nil {
		slog.Error("failed to connect to DB", "error", err)
		os.Exit(1)
	}
	defer database.CloseDB(db)

	if err := database.InitSchema(db); err != nil {
		slog.Error("failed to init DB schema", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	objects, err := storage.NewS3Store(ctx)
	if err != nil {
		slog.Error("failed to init object storage", "error", err)
		os.Exit(1)
	}

	// Collaborator clients
	processorClient := processor.NewClient(cfg.ProcessorAddress, cfg.ProcessorAccessToken)
	watermarker := transform.NewClient(cfg.TransformAddress)

	// Services
	orderSvc := service.NewOrderService(db, objects, cfg.WatermarkedBucket)
	albumSvc := service.NewAlbumService(db)
	photoSvc := service.NewPhotoService(db, objects, watermarker, cfg.OriginalsBucket, cfg.WatermarkedBucket)
	photographerSvc := service.NewPhotographerService(db)
	checkoutSvc := service.NewCheckoutService(orderSvc, processorClient, cfg.PublicBaseURL, cfg.FrontendURL)
	reconciler := service.NewReconciler(processorClient, orderSvc)
	downloadGate := service.NewDownloadGate(orderSvc, objects, cfg.OriginalsBucket, cfg.MaxDownloads)

	// Webhook verification and replay protection
	verifier := webhook.NewVerifier(cfg.WebhookSecret, 5*time.Minute)
	var guard idempotency.Store
	if cfg.RedisAddr != "" {
		guard = idempotency.NewRedisStore(cfg.RedisAddr)
		slog.Info("using redis idempotency store", "addr", cfg.RedisAddr)
	} else {
		memStore := idempotency.NewMemoryStore()
		go memStore.Sweep(ctx, time.Minute)
		guard = memStore
	}

	// Worker
	expiryWorker := worker.NewExpiryWorker(orderSvc)

	// Router
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.FrontendURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Public routes
	r.Group(func(r chi.Router) {
		r.Use(httprate.LimitByIP(120, time.Minute))
		r.Post("/payment-webhook", handler.PaymentWebhookHandler(verifier, guard, reconciler))
	})
	r.Group(func(r chi.Router) {
		r.Use(httprate.LimitByIP(20, time.Minute))
		r.Post("/create-payment-preference", handler.CreateCheckoutHandler(checkoutSvc))
	})
	r.Get("/order-details/{orderID}/{customerEmail}", handler.OrderDetailsHandler(orderSvc))
	r.Get("/download-photo/{photoID}/{orderID}/{customerEmail}", handler.DownloadPhotoHandler(downloadGate))
	r.Get("/albums/{albumID}/photos", handler.AlbumGalleryHandler(photoSvc))

	// Photographer routes
	r.Group(func(r chi.Router) {
		r.Use(mw.Auth(cfg.JWTSecret, photographerSvc))

		r.Get("/albums", handler.ListAlbumsHandler(albumSvc))
		r.Post("/albums", handler.CreateAlbumHandler(albumSvc))
		r.Put("/albums/{albumID}", handler.UpdateAlbumHandler(albumSvc))
		r.Delete("/albums/{albumID}", handler.DeleteAlbumHandler(albumSvc, photoSvc))
		r.Post("/albums/{albumID}/photos", handler.UploadPhotosHandler(albumSvc, photoSvc))
		r.Delete("/photos/{photoID}", handler.DeletePhotoHandler(photoSvc))

		r.Get("/orders", handler.ListOrdersHandler(orderSvc))
		r.Delete("/orders", handler.DeleteAllOrdersHandler(orderSvc))
		r.Delete("/orders/{orderID}", handler.DeleteOrderHandler(orderSvc))

		r.Get("/subscriptions/status", handler.SubscriptionStatusHandler())
	})

	srv := &http.Server{
		Addr:         cfg.RunAddress,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go expiryWorker.Start(ctx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	slog.Info("starting server", "addr", cfg.RunAddress)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	<-quit
	slog.Info("shutting down...")

	cancel() // stop worker and sweeps
	ctxShut, cancelShut := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShut()

	if err := srv.Shutdown(ctxShut); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}

	slog.Info("server stopped")
}
