package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/mux"

	"github.com/akshayak12345/Library-Management-System/configs"
	"github.com/akshayak12345/Library-Management-System/internal/daemon"
	"github.com/akshayak12345/Library-Management-System/internal/db"
	"github.com/akshayak12345/Library-Management-System/internal/handlers"
	"github.com/akshayak12345/Library-Management-System/internal/middleware"
	"github.com/akshayak12345/Library-Management-System/internal/models"
	"github.com/akshayak12345/Library-Management-System/internal/utils"
)

func main() {
	cfg := configs.LoadConfig()
	db.Connect(cfg.MongoURI)
	tokens := utils.NewTokenIssuer(cfg.JWTSecret)

	userCol := db.GetCollection(cfg.DBName, "users")
	bookCol := db.GetCollection(cfg.DBName, "books")
	borrowCol := db.GetCollection(cfg.DBName, "borrows")
	reviewCol := db.GetCollection(cfg.DBName, "reviews")
	revokedCol := db.GetCollection(cfg.DBName, "revoked_tokens")
	auditCol := db.GetCollection(cfg.DBName, "audit_logs")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := db.EnsureIndexes(ctx, userCol); err != nil {
		log.Fatalf("Index creation failed: %v", err)
	}
	cancel()

	auditLogger := utils.Logger{Collection: auditCol}

	var mailer utils.Mailer = utils.LogMailer{}
	if cfg.SMTPHost != "" {
		mailer = &utils.SMTPMailer{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			From:     cfg.EmailSender,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
		}
	}

	r := mux.NewRouter()
	r.Use(middleware.JSONMiddleware)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "OK")
	})

	authHandler := handlers.NewAuthHandler(userCol, revokedCol, tokens, auditLogger)
	r.HandleFunc("/register", authHandler.Register).Methods("POST")
	r.HandleFunc("/login", authHandler.Login).Methods("POST")
	r.HandleFunc("/refreshtoken", authHandler.Refresh).Methods("POST")

	authRequired := middleware.JWTAuthMiddleware(tokens)
	anyRole := middleware.RequireRole(userCol, models.RoleLibrarian, models.RoleRegular)
	librarianOnly := middleware.RequireRole(userCol, models.RoleLibrarian)
	regularOnly := middleware.RequireRole(userCol, models.RoleRegular)

	userHandler := handlers.NewUserHandler(userCol, borrowCol, reviewCol, auditLogger)

	userRouter := r.PathPrefix("/").Subrouter()
	userRouter.Use(authRequired, anyRole)
	userRouter.HandleFunc("/getuser", userHandler.GetUser).Methods("GET")
	userRouter.HandleFunc("/updateuser", userHandler.UpdateUser).Methods("PUT")
	userRouter.HandleFunc("/deleteuser", userHandler.DeleteUser).Methods("DELETE")
	userRouter.HandleFunc("/logout", authHandler.Logout).Methods("POST")

	bookHandler := handlers.NewBookHandler(bookCol, auditLogger)

	booksRouter := r.PathPrefix("/").Subrouter()
	booksRouter.Use(authRequired, anyRole)
	booksRouter.HandleFunc("/getbooks", bookHandler.GetBooks).Methods("GET")
	booksRouter.HandleFunc("/books/search", bookHandler.SearchBooks).Methods("GET")

	catalogRouter := r.PathPrefix("/").Subrouter()
	catalogRouter.Use(authRequired, librarianOnly)
	catalogRouter.HandleFunc("/addbook", bookHandler.AddBook).Methods("POST")
	catalogRouter.HandleFunc("/updatebook/{bookid}", bookHandler.UpdateBook).Methods("PUT")
	catalogRouter.HandleFunc("/deletebook/{bookid}", bookHandler.DeleteBook).Methods("DELETE")

	borrowHandler := &handlers.BorrowHandler{
		BookCol:     bookCol,
		BorrowCol:   borrowCol,
		UserCol:     userCol,
		Mailer:      mailer,
		AuditLogger: auditLogger,
	}

	borrowRouter := r.PathPrefix("/").Subrouter()
	borrowRouter.Use(authRequired, regularOnly)
	borrowRouter.HandleFunc("/borrowbook/{bookid}", borrowHandler.Borrow).Methods("GET")
	borrowRouter.HandleFunc("/bookreturn/{bookid}", borrowHandler.Return).Methods("POST")

	librarianRouter := r.PathPrefix("/").Subrouter()
	librarianRouter.Use(authRequired, librarianOnly)
	librarianRouter.HandleFunc("/listborrowedbooks", borrowHandler.ListBorrowed).Methods("GET")
	librarianRouter.HandleFunc("/overdue/sendemail", borrowHandler.NotifyOverdue).Methods("POST")

	reviewHandler := &handlers.ReviewHandler{
		ReviewCol:   reviewCol,
		BookCol:     bookCol,
		AuditLogger: auditLogger,
	}

	addReviewRouter := r.PathPrefix("/").Subrouter()
	addReviewRouter.Use(authRequired, regularOnly)
	addReviewRouter.HandleFunc("/add/review/{bookid}", reviewHandler.AddReview).Methods("POST")

	reviewsRouter := r.PathPrefix("/").Subrouter()
	reviewsRouter.Use(authRequired, anyRole)
	reviewsRouter.HandleFunc("/books/{bookid}/reviews", reviewHandler.ListReviews).Methods("GET")
	reviewsRouter.HandleFunc("/books/{bookid}/average-rating", reviewHandler.AverageRating).Methods("GET")

	metricsHandler := handlers.MetricsHandler{
		BookCol:   bookCol,
		UserCol:   userCol,
		BorrowCol: borrowCol,
	}

	metricsRouter := r.PathPrefix("/").Subrouter()
	metricsRouter.Use(authRequired, librarianOnly)
	metricsRouter.HandleFunc("/admin/metrics", metricsHandler.GetMetrics).Methods("GET")

	exporter := daemon.LogExporter{AuditCol: auditCol, RevokedCol: revokedCol}
	exporter.InitLogExporter()

	var server = http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Println("Server starting on port", cfg.Port)
		log.Fatal(server.ListenAndServe())
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	log.Println("Shutting down gracefully...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Graceful shutdown failed: %v", err)
	}
	db.Disconnect(context.Background())
	log.Println("Server shut down.")
}
