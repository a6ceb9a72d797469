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

	"github.com/Qwalex/IntradayBot/internal/config"
)

func main() {
	reader := bufio.NewReader(os.Stdin)

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	for {
		fmt.Println("\n=== IntradayBot Control ===")
		fmt.Println("1) Show configuration summary")
		fmt.Println("2) Edit market (symbol, timeframe, category)")
		fmt.Println("3) Edit sizing and mode (notional, leverage, paper)")
		fmt.Println("4) Edit strategy periods")
		fmt.Println("5) Save config")
		fmt.Println("6) Launch bot")
		fmt.Println("7) Reload config from disk")
		fmt.Println("0) Exit")
		fmt.Print("Select option: ")

		input, _ := reader.ReadString('\n')
		choice := strings.TrimSpace(input)

		switch choice {
		case "1":
			printSummary(cfg)
		case "2":
			editMarket(reader, cfg)
		case "3":
			editSizing(reader, cfg)
		case "4":
			editStrategy(reader, cfg)
		case "5":
			if err := saveConfig(cfg); err != nil {
				fmt.Fprintf(os.Stderr, "save failed: %v\n", err)
			} else {
				fmt.Println("config saved")
			}
		case "6":
			launchBot(reader)
		case "7":
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
	fmt.Printf("Exchange: %s (%s)\n", cfg.Exchange.BaseURL, cfg.Exchange.Category)
	fmt.Printf("Symbol: %s | timeframe: %s\n", cfg.Exchange.Symbol, cfg.Exchange.Timeframe)
	fmt.Printf("Order notional: $%.2f | leverage: %.1fx\n", cfg.Risk.OrderNotional, cfg.Risk.Leverage)
	fmt.Printf("Paper trading: %t | credentials set: %t\n", cfg.Paper.Enabled, cfg.HasCredentials())
	fmt.Printf("SMA periods: %d / %d\n", cfg.Strategy.Params.ShortPeriod, cfg.Strategy.Params.LongPeriod)
	fmt.Printf("Poll interval: %s | candles per tick: %d\n", cfg.Interval(), cfg.Scheduler.CandleLimit)
	fmt.Printf("Dashboard port: %d | journal: %s\n", cfg.Web.Port, cfg.Journal.Driver)
}

func editMarket(reader *bufio.Reader, cfg *config.Config) {
	fmt.Println("\n--- Edit Market ---")
	cfg.Exchange.Symbol = strings.ToUpper(promptString(reader, "Symbol", cfg.Exchange.Symbol))
	cfg.Exchange.Timeframe = promptString(reader, "Timeframe (1,3,5,15,60,D...)", cfg.Exchange.Timeframe)
	cfg.Exchange.Category = promptString(reader, "Category (linear, inverse, option, spot)", cfg.Exchange.Category)
}

func editSizing(reader *bufio.Reader, cfg *config.Config) {
	fmt.Println("\n--- Edit Sizing / Mode ---")
	cfg.Risk.OrderNotional = promptFloat(reader, "Order notional (USD)", cfg.Risk.OrderNotional)
	cfg.Risk.Leverage = promptFloat(reader, "Leverage", cfg.Risk.Leverage)
	cfg.Paper.Enabled = promptBool(reader, "Paper trading", cfg.Paper.Enabled)
}

func editStrategy(reader *bufio.Reader, cfg *config.Config) {
	fmt.Println("\n--- Edit Strategy ---")
	cfg.Strategy.Params.ShortPeriod = int(promptFloat(reader, "Short SMA period", float64(cfg.Strategy.Params.ShortPeriod)))
	cfg.Strategy.Params.LongPeriod = int(promptFloat(reader, "Long SMA period", float64(cfg.Strategy.Params.LongPeriod)))
}

func launchBot(reader *bufio.Reader) {
	fmt.Println("Launching bot (Ctrl+C to stop)...")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmd := exec.CommandContext(ctx, "go", "run", "./cmd/bot", "-config", locateConfig())
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	if err := cmd.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start bot: %v\n", err)
		return
	}

	go func() {
		_ = cmd.Wait()
		cancel()
	}()

	fmt.Print("\nPress ENTER to stop the bot and return to menu...")
	_, _ = reader.ReadString('\n')
	cancel()
	time.Sleep(500 * time.Millisecond)
}

func promptString(reader *bufio.Reader, label, current string) string {
	fmt.Printf("%s [%s]: ", label, current)
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return current
	}
	return line
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

func promptBool(reader *bufio.Reader, label string, current bool) bool {
	fmt.Printf("%s [%t]: ", label, current)
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return current
	}
	val, err := strconv.ParseBool(line)
	if err != nil {
		fmt.Printf("invalid value, keeping %t\n", current)
		return current
	}
	return val
}

func loadConfig() (*config.Config, error) {
	return config.LoadOrDefault(locateConfig())
}

// saveConfig refuses to write a config the bot would reject at startup.
func saveConfig(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	return config.Save(locateConfig(), cfg)
}

func locateConfig() string {
	if len(os.Args) > 1 {
		return filepath.Clean(os.Args[1])
	}
	return filepath.Clean(config.DefaultPath)
}
