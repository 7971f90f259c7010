// Package risk gates orders before they reach execution.
package risk

import (
	"sync"
	"time"

	"github.com/BSmick6/aurabot/internal/metrics"
)

// Limits expresses the configured ceilings the manager enforces.
type Limits struct {
	MaxNotionalPerTrade  float64
	MaxDailyLoss         float64
	KillSwitchDrawdown   float64
	MaxPortfolioNotional float64
}

// Rejection reasons reported through metrics and logs.
const (
	ReasonTradeNotional     = "trade_notional"
	ReasonPortfolioNotional = "portfolio_notional"
	ReasonDailyLoss         = "daily_loss"
	ReasonKillSwitch        = "kill_switch"
)

// Manager tracks realized losses and open exposure against the limits.
// The kill switch latches: once tripped it stays tripped for the run.
type Manager struct {
	limits Limits

	mu           sync.Mutex
	day          string // UTC date of the loss counter
	realizedLoss float64
	peakEquity   float64
	tripped      bool
	now          func() time.Time
}

// NewManager builds a manager with the supplied limits.
func NewManager(limits Limits) *Manager {
	return &Manager{limits: limits, now: func() time.Time { return time.Now().UTC() }}
}

// Allow reports whether an order of the given notional may be placed while
// the account holds openNotional of marked exposure. A rejection returns the
// reason constant.
func (m *Manager) Allow(notional, openNotional float64) (bool, string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.tripped {
		metrics.RiskRejections.WithLabelValues(ReasonKillSwitch).Inc()
		return false, ReasonKillSwitch
	}
	if m.limits.MaxNotionalPerTrade > 0 && notional > m.limits.MaxNotionalPerTrade {
		metrics.RiskRejections.WithLabelValues(ReasonTradeNotional).Inc()
		return false, ReasonTradeNotional
	}
	if m.limits.MaxPortfolioNotional > 0 && openNotional+notional > m.limits.MaxPortfolioNotional {
		metrics.RiskRejections.WithLabelValues(ReasonPortfolioNotional).Inc()
		return false, ReasonPortfolioNotional
	}
	m.rollDayLocked()
	if m.limits.MaxDailyLoss > 0 && m.realizedLoss >= m.limits.MaxDailyLoss {
		metrics.RiskRejections.WithLabelValues(ReasonDailyLoss).Inc()
		return false, ReasonDailyLoss
	}
	return true, ""
}

// RecordPnL feeds a realized trade result into the daily loss counter.
// Losses are passed as negative pnl.
func (m *Manager) RecordPnL(pnl float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rollDayLocked()
	if pnl < 0 {
		m.realizedLoss += -pnl
	}
}

// MarkEquity updates the drawdown watermark and trips the kill switch when
// equity has fallen past the configured fraction of the peak.
func (m *Manager) MarkEquity(equity float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if equity > m.peakEquity {
		m.peakEquity = equity
	}
	if m.tripped || m.limits.KillSwitchDrawdown <= 0 || m.peakEquity <= 0 {
		return
	}
	drawdown := (m.peakEquity - equity) / m.peakEquity
	if drawdown >= m.limits.KillSwitchDrawdown {
		m.tripped = true
	}
}

// Tripped reports whether the kill switch has latched.
func (m *Manager) Tripped() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tripped
}

// rollDayLocked resets the loss counter when the UTC date changes.
func (m *Manager) rollDayLocked() {
	day := m.now().Format("2006-01-02")
	if day != m.day {
		m.day = day
		m.realizedLoss = 0
	}
}
