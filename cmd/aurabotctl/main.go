// Binary aurabotctl is a small terminal menu for editing config and launching
// the collector or paper bot.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BSmick6/aurabot/internal/config"
	"github.com/BSmick6/aurabot/internal/dataset"
)

const defaultConfigPath = "internal/config/config.yaml"

func main() {
	reader := bufio.NewReader(os.Stdin)

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	for {
		fmt.Println("\n=== Aurabot Control ===")
		fmt.Println("1) Show configuration summary")
		fmt.Println("2) Edit bankroll and risk knobs")
		fmt.Println("3) Edit aura keywords")
		fmt.Println("4) Show dataset stats")
		fmt.Println("5) Save config")
		fmt.Println("6) Launch collector")
		fmt.Println("7) Launch paper bot")
		fmt.Println("8) Reload config from disk")
		fmt.Println("0) Exit")
		fmt.Print("Select option: ")

		input, _ := reader.ReadString('\n')
		choice := strings.TrimSpace(input)

		switch choice {
		case "1":
			printSummary(cfg)
		case "2":
			editRisk(reader, cfg)
		case "3":
			editKeywords(reader, cfg)
		case "4":
			printDatasetStats(cfg)
		case "5":
			if err := saveConfig(cfg); err != nil {
				fmt.Fprintf(os.Stderr, "save failed: %v\n", err)
			} else {
				fmt.Println("config saved")
			}
		case "6":
			launch(reader, "./cmd/collector")
		case "7":
			launch(reader, "./cmd/paper")
		case "8":
			reloaded, err := loadConfig()
			if err != nil {
				fmt.Fprintf(os.Stderr, "reload failed: %v\n", err)
			} else {
				cfg = reloaded
				fmt.Println("config reloaded")
			}
		case "0":
			return
		default:
			fmt.Println("unknown option")
		}
	}
}

func printSummary(cfg *config.Config) {
	fmt.Println("\n--- Configuration Summary ---")
	fmt.Printf("Feed provider: %s\n", cfg.Exchange.Provider)
	fmt.Printf("Strategy mode: %s\n", cfg.Strategy.Mode)
	fmt.Printf("Starting cash: $%.2f\n", cfg.Paper.StartingCash)
	fmt.Printf("Per-trade notional cap: $%.2f\n", cfg.Risk.MaxNotionalPerTrade)
	fmt.Printf("Portfolio notional cap: $%.2f\n", cfg.Risk.MaxPortfolioNotional)
	fmt.Printf("Daily loss limit: $%.2f\n", cfg.Risk.MaxDailyLoss)
	fmt.Printf("Kill switch drawdown: %.2f%%\n", cfg.Risk.KillSwitchDrawdown*100)
	fmt.Println("Aura keywords:", strings.Join(cfg.Social.Keywords, ", "))
	fmt.Printf("Sample store: %s\n", cfg.Dataset.SQLitePath)
	fmt.Printf("Model weights: %s\n", cfg.Model.Path)
}

func editRisk(reader *bufio.Reader, cfg *config.Config) {
	fmt.Println("\n--- Edit Risk / Bankroll ---")
	cfg.Paper.StartingCash = promptFloat(reader, "Starting cash", cfg.Paper.StartingCash)
	cfg.Paper.MaxPositionNotionalUSD = promptFloat(reader, "Max position notional (USD)", cfg.Paper.MaxPositionNotionalUSD)
	cfg.Risk.MaxNotionalPerTrade = promptFloat(reader, "Max notional per trade (USD)", cfg.Risk.MaxNotionalPerTrade)
	cfg.Risk.MaxPortfolioNotional = promptFloat(reader, "Max portfolio notional (USD)", cfg.Risk.MaxPortfolioNotional)
	cfg.Risk.MaxDailyLoss = promptFloat(reader, "Max daily loss (USD)", cfg.Risk.MaxDailyLoss)
	cfg.Risk.KillSwitchDrawdown = promptPercent(reader, "Kill switch drawdown (%)", cfg.Risk.KillSwitchDrawdown)
}

func editKeywords(reader *bufio.Reader, cfg *config.Config) {
	fmt.Println("\n--- Edit Aura Keywords ---")
	fmt.Printf("Current keywords: %s\n", strings.Join(cfg.Social.Keywords, ", "))
	fmt.Print("Enter keywords comma-separated (blank to keep): ")
	if line, _ := reader.ReadString('\n'); strings.TrimSpace(line) != "" {
		parts := strings.Split(strings.TrimSpace(line), ",")
		cfg.Social.Keywords = nil
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				cfg.Social.Keywords = append(cfg.Social.Keywords, trimmed)
			}
		}
	}
	cfg.Social.WindowSecs = int(promptFloat(reader, "Aura window (secs)", float64(cfg.Social.WindowSecs)))
	cfg.Social.PollInterval = int(promptFloat(reader, "Poll interval (ms)", float64(cfg.Social.PollInterval)))
}

func printDatasetStats(cfg *config.Config) {
	store, err := dataset.Open(cfg.Dataset.SQLitePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open store: %v\n", err)
		return
	}
	defer store.Close()

	ctx := context.Background()
	count, err := store.Count(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "count samples: %v\n", err)
		return
	}
	symbols, err := store.Symbols(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "list symbols: %v\n", err)
		return
	}
	fmt.Printf("\n%d samples across %d symbols\n", count, len(symbols))
	if len(symbols) > 0 {
		fmt.Println("Symbols:", strings.Join(symbols, ", "))
	}
}

func launch(reader *bufio.Reader, pkg string) {
	fmt.Printf("Launching %s (Ctrl+C to stop)...\n", pkg)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmd := exec.CommandContext(ctx, "go", "run", pkg)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	if err := cmd.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start: %v\n", err)
		return
	}

	go func() {
		_ = cmd.Wait()
		cancel()
	}()

	fmt.Print("\nPress ENTER to stop and return to menu...")
	_, _ = reader.ReadString('\n')
	cancel()
	time.Sleep(500 * time.Millisecond)
}

func promptFloat(reader *bufio.Reader, label string, current float64) float64 {
	fmt.Printf("%s [%.2f]: ", label, current)
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return current
	}
	val, err := strconv.ParseFloat(line, 64)
	if err != nil {
		fmt.Printf("invalid number, keeping %.2f\n", current)
		return current
	}
	return val
}

func promptPercent(reader *bufio.Reader, label string, current float64) float64 {
	pct := promptFloat(reader, label, current*100)
	return pct / 100
}

func loadConfig() (*config.Config, error) {
	return config.Load(locateConfig())
}

func saveConfig(cfg *config.Config) error {
	return config.Save(locateConfig(), cfg)
}

func locateConfig() string {
	if filepath.IsAbs(defaultConfigPath) {
		return defaultConfigPath
	}
	return filepath.Clean(defaultConfigPath)
}
