package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"invoicehub-backend/internal/config"
	"invoicehub-backend/internal/database"
	"invoicehub-backend/internal/handler"
	"invoicehub-backend/internal/queue"
	"invoicehub-backend/internal/repository"
	"invoicehub-backend/internal/router"
)

func main() {
	// Load .env if present; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil {
		log.Printf(".env not loaded: %v", err)
	}
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Optional: rate limiting and report caching degrade to no-ops
	// when Redis is unreachable.
	rdb := config.NewRedisClient()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	clients := repository.NewClientRepo(db)
	projects := repository.NewProjectRepo(db)
	comments := repository.NewCommentRepo(db)
	tasks := repository.NewCommentTaskRepo(db)
	invoices := repository.NewInvoiceRepo(db)
	payments := repository.NewPaymentRepo(db)
	notifications := repository.NewNotificationRepo(db)

	authH := handler.NewAuthHandler(cfg, users, tokens)
	commentH := handler.NewCommentHandler(comments, tasks, projects, users, notifications)
	taskH := handler.NewCommentTaskHandler(tasks)
	invoiceH := handler.NewInvoiceHandler(cfg, invoices, clients, projects)
	paymentH := handler.NewPaymentHandler(payments, invoices)
	reportH := handler.NewReportHandler(invoices)
	notificationH := handler.NewNotificationHandler(notifications)

	e := echo.New()
	router.RegisterRoutes(e, invoiceH)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterComments(e, commentH, taskH, cfg.JWTSecret)
	router.RegisterNotifications(e, notificationH, cfg.JWTSecret)
	router.RegisterInvoices(e, invoiceH, paymentH, cfg.JWTSecret)
	router.RegisterReports(e, reportH, cfg.JWTSecret, rdb)

	// Mirror the comment change feed into the activity log.
	go func() {
		if err := queue.StartCommentConsumer(); err != nil {
			log.Printf("comment consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
