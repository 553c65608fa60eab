package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/anjiri1684/learnhub/configs"
	"github.com/anjiri1684/learnhub/database"
	"github.com/anjiri1684/learnhub/handlers"
	"github.com/anjiri1684/learnhub/jobs"
	"github.com/anjiri1684/learnhub/media"
	"github.com/anjiri1684/learnhub/middleware"
	"github.com/anjiri1684/learnhub/monitoring"
	"github.com/anjiri1684/learnhub/notifications"
	"github.com/anjiri1684/learnhub/payments"
	"github.com/anjiri1684/learnhub/server"
	"github.com/anjiri1684/learnhub/services"
	"github.com/anjiri1684/learnhub/websocket"
)

var version = "dev"

func main() {
	cfg := config.Load()

	monitoring.Init(cfg.RollbarToken, cfg.AppEnv, version)
	defer monitoring.Close()

	db := database.ConnectDB(cfg.DatabaseURL)
	if err := database.Migrate(db); err != nil {
		log.Fatalf("🔥 Failed to migrate database: %v", err)
	}
	log.Println("✅ Database migrated")

	hub := websocket.NewHub()
	go hub.Run()

	mailer := notifications.NewMailer(cfg.SendgridAPIKey, cfg.EmailSender, cfg.EmailSenderName)
	paymentSettings := services.PaymentSettings{
		Gateway:  payments.NewRazorpayClient(cfg.RazorpayAPIBaseURL, cfg.RazorpayKeyID, cfg.RazorpayKeySecret),
		Verifier: payments.NewSignatureVerifier(cfg.RazorpayKeySecret),
		KeyID:    cfg.RazorpayKeyID,
		Currency: cfg.PaymentCurrency,
	}

	var uploads handlers.UploadSigner
	var certificates services.CertificateIssuer
	certificateService := services.NewCertificateService(db, services.ChromePDFRenderer{}, nil, mailer, hub)
	if cfg.CloudinaryURL == "" {
		log.Println("⚠️ CLOUDINARY_URL not set, uploads and certificates are disabled.")
	} else if cld, err := media.NewCloudinary(cfg.CloudinaryURL); err != nil {
		log.Printf("🔥 Failed to initialize Cloudinary: %v", err)
	} else {
		uploads = cld
		certificateService.Store = cld
		certificates = certificateService
	}

	orderService := services.NewOrderService(db, paymentSettings, mailer, hub)
	h := &handlers.Handler{
		Quizzes:      services.NewQuizService(db, hub),
		Courses:      services.NewCourseService(db),
		Enrollments:  services.NewEnrollmentService(db, paymentSettings, certificates, mailer, hub),
		Certificates: certificateService,
		Products:     services.NewProductService(db),
		Carts:        services.NewCartService(db),
		Orders:       orderService,
		Admin:        services.NewAdminService(db),
		Uploads:      uploads,
		Hub:          hub,
		JWTSecret:    cfg.JWTSecret,
	}

	scheduler, err := jobs.Schedule(orderService, cfg.PendingOrderTTL)
	if err != nil {
		log.Fatalf("🔥 Failed to schedule jobs: %v", err)
	}
	scheduler.Start()
	log.Println("✅ Cron job for stale orders scheduled successfully.")

	app := server.New(h, middleware.Protected(cfg.JWTSecret, db), cfg.CORSOrigins)

	go func() {
		log.Printf("✅ Server is running on port %s", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("🔥 Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = app.ShutdownWithContext(ctx)
	<-scheduler.Stop().Done()
	hub.Stop()

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
