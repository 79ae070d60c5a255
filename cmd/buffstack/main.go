package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/eqmac/buffstack/internal/config"
	"github.com/eqmac/buffstack/internal/core/event"
	coresys "github.com/eqmac/buffstack/internal/core/system"
	"github.com/eqmac/buffstack/internal/handler"
	"github.com/eqmac/buffstack/internal/logging"
	gonet "github.com/eqmac/buffstack/internal/net"
	"github.com/eqmac/buffstack/internal/net/packet"
	"github.com/eqmac/buffstack/internal/persist"
	"github.com/eqmac/buffstack/internal/scripting"
	"github.com/eqmac/buffstack/internal/spell"
	"github.com/eqmac/buffstack/internal/system"
	"github.com/eqmac/buffstack/internal/world"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(serverName string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m              buffstack  v0.1.0            \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m        增益堆疊修補 · 區域伺服器          \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1m伺服器:\033[0m %s\n\n", serverName)
}

// displayWidth counts CJK runes as two columns.
func displayWidth(s string) int {
	w := 0
	for _, r := range s {
		if r > 0x7F {
			w += 2
		} else {
			w++
		}
	}
	return w
}

func printSection(title string) {
	lineLen := 46 - displayWidth(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - displayWidth(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main server logic ─────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfg, err := config.Load(config.Path())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Server.Name)

	// 3. Spell data and effect formulas
	printSection("法術資料")
	catalog, err := spell.LoadCatalog(cfg.Data.Spells)
	if err != nil {
		return fmt.Errorf("spells: %w", err)
	}
	printStat("法術", catalog.Count())

	luaEngine, err := scripting.NewEngine(cfg.Data.ScriptsDir, catalog, log)
	if err != nil {
		return fmt.Errorf("scripting: %w", err)
	}
	defer luaEngine.Close()
	for _, fn := range []string{"calc_spell_effect_value", "is_stack_blocked"} {
		if luaEngine.Has(fn) {
			printOK(fmt.Sprintf("Lua 覆寫 %s", fn))
		}
	}
	fmt.Println()

	// 4. Buff snapshot storage
	printSection("資料庫")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := persist.Open(ctx, cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	defer store.Close()
	printOK(fmt.Sprintf("增益存檔後端: %s", storageName(cfg.Storage.Driver)))
	fmt.Println()

	// 5. Packet handlers
	worldState := world.NewState()
	bus := event.NewBus()
	system.SubscribeBuffEvents(bus, worldState, log)

	pktReg := packet.NewRegistry(log)
	deps := &handler.Deps{
		Config:  cfg,
		Log:     log,
		World:   worldState,
		Catalog: catalog,
		Effects: luaEngine,
		Store:   store,
		Bus:     bus,
	}
	handler.RegisterAll(pktReg, deps)

	// 6. Network server
	netServer, err := gonet.NewServer(cfg.Network.BindAddress, gonet.SessionOptions{
		InQueueSize:      cfg.Network.InQueueSize,
		OutQueueSize:     cfg.Network.OutQueueSize,
		PacketsPerSecond: cfg.Network.PacketsPerSecond,
		ReadTimeout:      cfg.Network.ReadTimeout,
		WriteTimeout:     cfg.Network.WriteTimeout,
	}, log)
	if err != nil {
		return fmt.Errorf("net server: %w", err)
	}
	go netServer.AcceptLoop()

	// 7. Systems
	sessions := gonet.NewSessionStore()
	persistSys := system.NewPersistenceSystem(worldState, deps, cfg.Storage.SaveInterval)
	runner := coresys.NewRunner()
	runner.Register(
		system.NewInputSystem(netServer, pktReg, sessions, cfg.Network.MaxPacketsPerTick, deps),
		system.NewEventDispatchSystem(bus),
		system.NewBuffTickSystem(worldState, deps, cfg.Buffs.TickInterval),
		system.NewOutputSystem(sessions),
		persistSys,
	)

	// 8. Game loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Network.TickRate)
	defer ticker.Stop()

	printSection("伺服器就緒")
	printReady(fmt.Sprintf("監聽位址 %s", netServer.Addr().String()))
	printReady(fmt.Sprintf("遊戲迴圈啟動 (tick: %s, 增益 tick: %s)", cfg.Network.TickRate, cfg.Buffs.TickInterval))
	fmt.Println()

	for {
		select {
		case <-ticker.C:
			runner.Tick(cfg.Network.TickRate)
		case sig := <-shutdownCh:
			log.Info("收到關閉信號", zap.String("signal", sig.String()))
			persistSys.SaveAllPlayers()
			netServer.Shutdown()
			log.Info("伺服器已停止", zap.Int("玩家數", worldState.PlayerCount()))
			return nil
		}
	}
}

func storageName(driver string) string {
	if driver == "" || driver == "none" {
		return "不保存"
	}
	return driver
}
