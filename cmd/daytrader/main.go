package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/tradeforge/daytrader/internal/bot"
	"github.com/tradeforge/daytrader/internal/broker/alpaca"
	"github.com/tradeforge/daytrader/internal/config"
	"github.com/tradeforge/daytrader/internal/logger"
	"github.com/tradeforge/daytrader/internal/marketdata"
	"github.com/tradeforge/daytrader/internal/monitoring"
	"github.com/tradeforge/daytrader/internal/notifications"
	"github.com/tradeforge/daytrader/internal/risk"
	"github.com/tradeforge/daytrader/internal/strategy"
	"github.com/tradeforge/daytrader/internal/trade"
)

func main() {
	configFile := flag.String("config", "daytrader.json", "Configuration file (in configs/ unless a path is given)")
	flag.Parse()

	// Credentials come from .env or the process environment.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using process environment")
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	sessionLog, err := logger.New("daytrader")
	if err != nil {
		log.Fatalf("Failed to create session logger: %v", err)
	}
	defer sessionLog.Close()

	brokerClient, err := alpaca.NewClient(alpaca.Config{
		APIKey:    cfg.APIKey,
		APISecret: cfg.APISecret,
		Paper:     cfg.Paper,
	})
	if err != nil {
		log.Fatalf("Failed to create broker client: %v", err)
	}

	barProvider, err := marketdata.NewAlpacaBars(cfg.APIKey, cfg.APISecret)
	if err != nil {
		log.Fatalf("Failed to create market data client: %v", err)
	}

	riskCalc, err := risk.NewCalculator(cfg.RiskConfig())
	if err != nil {
		log.Fatalf("Invalid risk configuration: %v", err)
	}

	var notifier notifications.Notifier = notifications.NopNotifier{}
	if cfg.Notifications.Enabled && cfg.Notifications.TelegramToken != "" {
		notifier = notifications.NewTelegramNotifier(
			cfg.Notifications.TelegramToken, cfg.Notifications.TelegramChatID)
	}

	health := monitoring.NewHealthChecker()
	if cfg.Monitoring.Enabled {
		go serveMonitoring(cfg.Monitoring.Port, health)
	}

	clock := trade.NewRealClock()
	trader := trade.NewManager(brokerClient, clock, sessionLog, trade.Config{
		FillWaitTimeout: cfg.Session.FillWaitTimeout.Std(),
	})

	tradingBot, err := bot.New(cfg, bot.Deps{
		Broker:   brokerClient,
		Bars:     barProvider,
		Strategy: strategy.NewSMACrossStrategy(cfg.Strategy.FastPeriod, cfg.Strategy.SlowPeriod, cfg.Strategy.RSIPeriod),
		Risk:     riskCalc,
		Trader:   trader,
		Clock:    clock,
		Logger:   sessionLog,
		Notifier: notifier,
		Health:   health,
	})
	if err != nil {
		log.Fatalf("Failed to build bot: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		log.Println("Shutting down...")
		cancel()
	}()

	if err := notifier.SendAlert("info", "Day trader started"); err != nil {
		sessionLog.Warning("Failed to send startup notification: %v", err)
	}

	if err := tradingBot.Run(ctx); err != nil {
		log.Fatalf("Session loop error: %v", err)
	}

	if err := notifier.SendAlert("info", "Day trader stopped"); err != nil {
		sessionLog.Warning("Failed to send shutdown notification: %v", err)
	}
	log.Println("Day trader stopped")
}

func serveMonitoring(port int, health *monitoring.HealthChecker) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", monitoring.Handler())
	mux.Handle("/health", health)

	log.Printf("Monitoring server listening on :%d", port)
	if err := http.ListenAndServe(fmt.Sprintf(":%d", port), mux); err != nil {
		log.Printf("Monitoring server error: %v", err)
	}
}
