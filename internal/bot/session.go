// Package bot runs the trading session loop: a state machine over the market
// phase that drives per-symbol evaluation, risk sizing, and the order
// lifecycle. Single-threaded by design; correctness comes from re-fetching
// authoritative broker state at each decision point, not from locking.
package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/tradeforge/daytrader/internal/broker"
	"github.com/tradeforge/daytrader/internal/config"
	"github.com/tradeforge/daytrader/internal/logger"
	"github.com/tradeforge/daytrader/internal/marketdata"
	"github.com/tradeforge/daytrader/internal/monitoring"
	"github.com/tradeforge/daytrader/internal/notifications"
	"github.com/tradeforge/daytrader/internal/risk"
	"github.com/tradeforge/daytrader/internal/safety"
	"github.com/tradeforge/daytrader/internal/strategy"
	"github.com/tradeforge/daytrader/internal/trade"
)

// Phase is the market phase driving the session state machine.
type Phase int

const (
	PhaseClosed Phase = iota
	PhaseTrading
	PhaseFlattening
)

func (p Phase) String() string {
	switch p {
	case PhaseTrading:
		return "TRADING"
	case PhaseFlattening:
		return "FLATTENING"
	default:
		return "CLOSED"
	}
}

// Bot is the trading session loop with its collaborators injected.
type Bot struct {
	cfg      *config.Config
	broker   broker.Broker
	bars     marketdata.BarProvider
	strategy strategy.Strategy
	riskCalc *risk.Calculator
	trader   *trade.Manager
	clock    trade.Clock
	log      *logger.Logger
	notifier notifications.Notifier
	health   *monitoring.HealthChecker

	marketDataGuard *safety.Guard
	accountGuard    *safety.Guard
}

// Deps are the bot's injected collaborators.
type Deps struct {
	Broker   broker.Broker
	Bars     marketdata.BarProvider
	Strategy strategy.Strategy
	Risk     *risk.Calculator
	Trader   *trade.Manager
	Clock    trade.Clock
	Logger   *logger.Logger
	Notifier notifications.Notifier
	Health   *monitoring.HealthChecker
}

// New wires a session loop. All collaborators are explicit so tests can run
// isolated instances against fakes.
func New(cfg *config.Config, deps Deps) (*Bot, error) {
	if deps.Broker == nil || deps.Bars == nil || deps.Strategy == nil ||
		deps.Risk == nil || deps.Trader == nil || deps.Logger == nil {
		return nil, fmt.Errorf("missing bot dependencies")
	}
	if deps.Clock == nil {
		deps.Clock = trade.NewRealClock()
	}
	if deps.Notifier == nil {
		deps.Notifier = notifications.NopNotifier{}
	}
	if deps.Health == nil {
		deps.Health = monitoring.NewHealthChecker()
	}

	b := &Bot{
		cfg:      cfg,
		broker:   deps.Broker,
		bars:     deps.Bars,
		strategy: deps.Strategy,
		riskCalc: deps.Risk,
		trader:   deps.Trader,
		clock:    deps.Clock,
		log:      deps.Logger,
		notifier: deps.Notifier,
		health:   deps.Health,
		marketDataGuard: safety.NewGuard("market_data", 50, 50, safety.CircuitBreakerConfig{
			FailureThreshold: 5,
			SuccessThreshold: 3,
			Timeout:          time.Minute,
		}),
		accountGuard: safety.NewGuard("account_data", 20, 20, safety.CircuitBreakerConfig{
			FailureThreshold: 3,
			SuccessThreshold: 2,
			Timeout:          2 * time.Minute,
		}),
	}

	b.marketDataGuard.Breaker().SetStateChangeCallback(func(from, to safety.CircuitBreakerState) {
		b.log.Warning("Market data circuit breaker: %s -> %s", from, to)
	})
	b.accountGuard.Breaker().SetStateChangeCallback(func(from, to safety.CircuitBreakerState) {
		b.log.Warning("Account circuit breaker: %s -> %s", from, to)
	})

	return b, nil
}

// PhaseDecision is one evaluation of the market clock.
type PhaseDecision struct {
	Phase Phase
	Sleep time.Duration
}

// DecidePhase maps the market clock onto the session state machine. Pure, so
// the transition table is testable without a broker.
func DecidePhase(clock broker.Clock, startBuffer, flattenThreshold time.Duration) PhaseDecision {
	tradingStart := clock.NextOpen.Add(startBuffer)

	if !clock.IsOpen {
		sleep := tradingStart.Sub(clock.Timestamp)
		if sleep < 0 {
			sleep = 0
		}
		return PhaseDecision{Phase: PhaseClosed, Sleep: sleep}
	}

	if clock.NextClose.Sub(clock.Timestamp) <= flattenThreshold {
		sleep := tradingStart.Sub(clock.Timestamp)
		if sleep < 0 {
			sleep = 0
		}
		return PhaseDecision{Phase: PhaseFlattening, Sleep: sleep}
	}

	return PhaseDecision{Phase: PhaseTrading}
}

// CycleSleep bounds the inter-cycle sleep by the time remaining until close.
func CycleSleep(timeUntilClose, cap time.Duration) time.Duration {
	if timeUntilClose < cap {
		if timeUntilClose < 0 {
			return 0
		}
		return timeUntilClose
	}
	return cap
}

// Run drives the session until the context is canceled. Per-symbol and
// per-order failures never terminate the loop.
func (b *Bot) Run(ctx context.Context) error {
	b.log.Info("Starting day trader: %d symbols, timeframe %s, paper=%v",
		len(b.cfg.Symbols), b.cfg.Timeframe, b.cfg.Paper)
	b.health.SetConnected(true)

	if err := b.PrintAccountSummary(ctx); err != nil {
		b.log.Warning("Could not fetch account summary: %v", err)
	}

	for {
		if err := ctx.Err(); err != nil {
			b.log.Info("Session loop stopped")
			return nil
		}

		clock, err := b.getClock(ctx)
		if err != nil {
			b.log.Error("Failed to fetch market clock: %v", err)
			monitoring.RecordError("transport")
			if serr := b.clock.Sleep(ctx, time.Minute); serr != nil {
				return nil
			}
			continue
		}

		decision := DecidePhase(clock, b.cfg.Session.TradingStartBuffer.Std(), b.cfg.Session.FlattenThreshold.Std())
		b.health.SetPhase(decision.Phase.String())

		switch decision.Phase {
		case PhaseClosed:
			b.log.Status("Market closed at %s. Sleeping %s until trading starts.",
				clock.Timestamp.Format("2006-01-02 15:04:05"), decision.Sleep.Round(time.Minute))
			if err := b.clock.Sleep(ctx, decision.Sleep); err != nil {
				return nil
			}

		case PhaseFlattening:
			b.log.Status("Market closes within %s. Flattening all positions.",
				b.cfg.Session.FlattenThreshold.Std())
			b.flatten(ctx)
			if err := b.clock.Sleep(ctx, decision.Sleep); err != nil {
				return nil
			}

		case PhaseTrading:
			start := time.Now()
			b.runCycle(ctx)
			monitoring.ObserveCycle(time.Since(start).Seconds())
			b.health.MarkCycle()

			sleep := CycleSleep(clock.NextClose.Sub(clock.Timestamp), b.cfg.Session.CycleSleepCap.Std())
			b.log.Status("Cycle complete. Sleeping %s before next check.", sleep.Round(time.Second))
			if err := b.clock.Sleep(ctx, sleep); err != nil {
				return nil
			}
		}
	}
}

func (b *Bot) getClock(ctx context.Context) (broker.Clock, error) {
	var clock broker.Clock
	err := b.accountGuard.Do(ctx, func() error {
		var cerr error
		clock, cerr = b.broker.GetClock(ctx)
		return cerr
	})
	return clock, err
}

// flatten cancels all working orders and closes every open position ahead of
// the close. No new entries happen until the next trading window.
func (b *Bot) flatten(ctx context.Context) {
	if err := b.broker.CancelAllOrders(ctx); err != nil {
		b.log.Error("Failed to cancel open orders: %v", err)
		monitoring.RecordError("order")
	}
	if err := b.broker.CloseAllPositions(ctx); err != nil {
		b.log.Error("Failed to close positions: %v", err)
		monitoring.RecordError("position")
		b.alert("error", fmt.Sprintf("End-of-day flatten failed: %v", err))
		return
	}
	b.log.Info("All positions closed ahead of market close.")
	b.alert("info", "All positions flattened ahead of market close.")
}

func (b *Bot) alert(level, message string) {
	if err := b.notifier.SendAlert(level, message); err != nil {
		b.log.Warning("Failed to send notification: %v", err)
	}
}
