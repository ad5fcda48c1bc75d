package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campaign-engine/internal/campaign"
	"campaign-engine/internal/config"
	"campaign-engine/internal/conversation"
	"campaign-engine/internal/httpapi"
	"campaign-engine/internal/messaging"
	"campaign-engine/internal/notify"
	"campaign-engine/internal/telephony"
	"campaign-engine/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Root context that cancels on shutdown.
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Env file is a local convenience; missing is fine.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Orchestration state: one object, one lock, reaped on a timer.
	state := campaign.NewState()
	state.StartReaper(rootCtx, 10*time.Minute, cfg.Dispatch.ReapAfter)

	ledger := conversation.NewLedger()
	broadcast := campaign.NewBroadcaster()

	var calls telephony.CallProvider
	if cfg.CallReady() {
		calls = telephony.NewVapiProvider(cfg.Vapi)
	}
	var sms messaging.SMSProvider
	if cfg.SMSReady() {
		sms = messaging.NewTwilioProvider(cfg.Twilio)
	}

	var reports *notify.ReportClient
	if cfg.Dispatch.ReportWebhookURL != "" {
		reports, err = notify.NewReportClient(notify.ReportClientConfig{
			WebhookURL: cfg.Dispatch.ReportWebhookURL,
			RetryLimit: 2,
		})
		if err != nil {
			log.Error("report client init failed", "err", err)
			os.Exit(1)
		}
	}
	notifier := notify.NewService(sms, cfg.Twilio.AlertNumber, reports, log)

	dispatcher := &campaign.Dispatcher{
		State:     state,
		Ledger:    ledger,
		Calls:     calls,
		SMS:       sms,
		Broadcast: broadcast,
		Notify:    notifier,
		Cfg:       cfg.Dispatch,
		Log:       log,
	}
	scheduler := &campaign.Scheduler{
		State:      state,
		Dispatcher: dispatcher,
		Delay:      cfg.Dispatch.RetryDelay,
		Log:        log,
	}
	reporter := &campaign.Reporter{State: state, Notify: notifier, Log: log}
	engine := &campaign.Engine{
		State:     state,
		Ledger:    ledger,
		Broadcast: broadcast,
		Notify:    notifier,
		Scheduler: scheduler,
		Reporter:  reporter,
		Log:       log,
	}
	reconciler := &campaign.Reconciler{State: state, Calls: calls, Engine: engine, Log: log}

	// Point the call provider's end-of-call reports at this process.
	// Best-effort: a failure is logged, never fatal.
	if calls != nil && cfg.App.PublicBaseURL != "" {
		regCtx, cancel := context.WithTimeout(rootCtx, 10*time.Second)
		if err := calls.RegisterWebhook(regCtx, cfg.App.PublicBaseURL+"/webhooks/call-ended"); err != nil {
			log.Warn("webhook self-registration failed", "err", err)
		}
		cancel()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	h := &httpapi.Handlers{
		Cfg:        cfg,
		State:      state,
		Dispatcher: dispatcher,
		Engine:     engine,
		Reconciler: reconciler,
		Broadcast:  broadcast,
		Ledger:     ledger,
	}
	registerRoutes(r, h)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
		// No WriteTimeout: the job event stream is long-lived.
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}
