package main

import (
	"chatline-server/internal/metrics"
	"chatline-server/internal/repository/postgres"
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
)

func main() {
	app, cleanup, err := InitializeApp()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer cleanup()

	if err := postgres.RunMigrations(app.Config.PostgresURL); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	r := mux.NewRouter()
	r.HandleFunc("/ws", app.WSHandler.HandleConnection).Methods("GET")
	r.HandleFunc("/api/register", app.AuthHandler.Register).Methods("POST")
	r.HandleFunc("/api/login", app.AuthHandler.Login).Methods("POST")
	r.Handle("/metrics", metrics.Handler()).Methods("GET")

	srv := &http.Server{Addr: app.Config.Port, Handler: r}

	go func() {
		log.Printf("Server starting on %s", app.Config.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
