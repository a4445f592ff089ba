package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/chatkit/push-dispatch-go/internal/config"
	appHTTP "github.com/chatkit/push-dispatch-go/internal/handler/http"
	"github.com/chatkit/push-dispatch-go/internal/pkg/credentials"
	"github.com/chatkit/push-dispatch-go/internal/pkg/cron"
	"github.com/chatkit/push-dispatch-go/internal/pkg/database"
	"github.com/chatkit/push-dispatch-go/internal/pkg/fetch"
	"github.com/chatkit/push-dispatch-go/internal/pkg/receipt"
	"github.com/chatkit/push-dispatch-go/internal/pkg/session"
	"github.com/chatkit/push-dispatch-go/internal/pkg/signal"
	"github.com/chatkit/push-dispatch-go/internal/pkg/signature"
	"github.com/chatkit/push-dispatch-go/internal/pkg/tray"
	"github.com/chatkit/push-dispatch-go/internal/repository/postgresql"
	callService "github.com/chatkit/push-dispatch-go/internal/service/call"
	dispatcherService "github.com/chatkit/push-dispatch-go/internal/service/dispatcher"
	ledgerService "github.com/chatkit/push-dispatch-go/internal/service/ledger"
	serverService "github.com/chatkit/push-dispatch-go/internal/service/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	db, err := database.NewPostgreSQLDB(cfg.DatabaseURL())
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		return
	}

	if err := postgresql.Migrate(context.Background(), db); err != nil {
		log.Fatal("Failed to apply schema:", err)
	}

	ledgerRepo := postgresql.NewLedgerRepository(db)
	serverRepo := postgresql.NewServerRepository(db)

	hub := signal.NewHub()
	renderer := tray.New()
	creds := credentials.NewMemoryStore()

	ackClient := receipt.NewClient(creds, receipt.RetryPolicy{
		MaxRetries:        cfg.Ack.MaxRetries,
		BackoffBase:       cfg.Ack.BackoffBase,
		BackoffScale:      cfg.Ack.BackoffScale,
		PerAttemptTimeout: cfg.Ack.PerAttemptTimeout,
		TotalTimeout:      cfg.Ack.TotalTimeout,
	})
	fetchClient := fetch.NewClient(creds)

	resolver := serverService.NewResolver(serverRepo)
	ledgerSvc := ledgerService.NewLedgerService(ledgerRepo)
	callMgr := callService.NewCallManager(renderer, hub)
	dispatcher := dispatcherService.NewDispatcher(resolver, ledgerSvc, callMgr, renderer, fetchClient, ackClient, hub)

	initCtx, cancelInit := context.WithTimeout(context.Background(), 30*time.Second)
	if err := dispatcher.Init(initCtx); err != nil {
		cancelInit()
		log.Fatal("Failed to initialize dispatcher:", err)
	}
	cancelInit()

	sessions := session.New(cfg.Auth.PairingSecretHash, cfg.Auth.SessionSecret, cfg.Auth.SessionExpiration)
	verifier := signature.NewVerifier(cfg.Push.ProviderSecret)

	scheduler := cron.NewScheduler()
	cron.NewLedgerJobs(ledgerSvc, renderer).RegisterJobs(scheduler)
	scheduler.Start()
	defer scheduler.Stop()

	pushHandler := appHTTP.NewPushHandler(dispatcher, callMgr, verifier)
	sessionHandler := appHTTP.NewSessionHandler(sessions)
	serverHandler := appHTTP.NewServerHandler(serverRepo)
	eventsHandler := appHTTP.NewEventsHandler(hub)

	router := appHTTP.NewRouter(
		sessions,
		pushHandler,
		sessionHandler,
		serverHandler,
		eventsHandler,
	)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	fmt.Printf("Dispatcher running at http://localhost%s\n", port)
	if err := http.ListenAndServe(port, router); err != nil {
		fmt.Println("Server error:", err)
	}
}
