package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"amc.com/dart-feedback/internal/api"
	"amc.com/dart-feedback/internal/config"
	"amc.com/dart-feedback/internal/core"
	"amc.com/dart-feedback/internal/logging"
	"amc.com/dart-feedback/internal/store"
	log "github.com/sirupsen/logrus"
)

func main() {
	// Command line flags for bulk comment import
	importFile := flag.String("import", "", "Import comments from this CSV file and exit")
	importEvent := flag.Int64("event", 0, "Event ID to import comments into (with -import)")
	importUser := flag.String("user", "", "External user ID recorded as the comment author (with -import)")
	flag.Parse()

	config.LoadConfig()
	logging.Setup(config.AppConfig.LogLevel)
	log.Debug("Service starting in DEBUG mode")

	dbStore, err := store.NewSQLiteStore(config.AppConfig.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer dbStore.Close()

	if *importFile != "" {
		if err := runImport(dbStore, *importFile, *importEvent, *importUser); err != nil {
			dbStore.Close()
			log.Fatalf("Comment import failed: %v", err)
		}
		return
	}

	llm := core.NewGenerator(context.Background(), config.AppConfig)
	defer llm.Close()

	queryService := core.NewQueryService(dbStore, llm, config.AppConfig.DefaultModel)
	chatService := core.NewChatService(dbStore, queryService)
	eventService := core.NewEventService(dbStore, llm, config.AppConfig.DefaultModel)
	userService := core.NewUserService(dbStore)

	apiHandler := api.NewAPIHandler(userService, eventService, chatService, llm, config.AppConfig.DefaultModel)
	router := api.NewRouter(apiHandler)

	serverAddr := fmt.Sprintf(":%s", config.AppConfig.HTTPPort)

	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: config.AppConfig.GenerationTimeout + 30*time.Second, // summaries wait on the backend
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Starting server on %s. Press Ctrl+C to quit.", serverAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v", serverAddr, err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting gracefully")
}

func runImport(dbStore *store.SQLiteStore, path string, eventID int64, externalUserID string) error {
	if eventID <= 0 || externalUserID == "" {
		return fmt.Errorf("-import needs -event and -user")
	}
	user, err := dbStore.GetUserByExternalID(externalUserID)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("user %q: %w", externalUserID, store.ErrNotFound)
	}

	count, err := dbStore.ImportCommentsFromFile(path, eventID, user.ID)
	if err != nil {
		return err
	}
	log.Printf("Comment import complete. Imported %d comments into event %d.", count, eventID)
	return nil
}
