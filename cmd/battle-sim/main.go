package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"tsu-battle/internal/modules/battle/domain"
	"tsu-battle/internal/modules/battle/service"
	"tsu-battle/internal/pkg/config"
	"tsu-battle/internal/pkg/log"
	"tsu-battle/internal/pkg/notify"
	"tsu-battle/internal/repository/impl"
)

func main() {
	catalogPath := flag.String("catalog", "./configs/catalog.yaml", "Monster/move/item catalog (YAML)")
	rulesPath := flag.String("rules", "", "Battle rules YAML, defaults built in")
	seed := flag.Uint64("seed", 0, "Random seed, 0 picks one")
	teamA := flag.String("a", "", "Comma separated monster IDs for side A (required)")
	teamB := flag.String("b", "", "Comma separated monster IDs for side B (required)")
	difficultyA := flag.String("difficulty-a", "", "AI difficulty for side A")
	difficultyB := flag.String("difficulty-b", "", "AI difficulty for side B")
	wild := flag.Bool("wild", false, "Side B is a wild monster instead of a trainer")
	natsAddr := flag.String("nats", "", "Optional NATS address for publishing turn/end events")
	logLevel := flag.String("log-level", "warn", "Log level: debug | info | warn | error")
	flag.Parse()

	log.Init(log.ParseLevel(*logLevel), "development")
	logger := log.GetLogger()

	if *teamA == "" || *teamB == "" {
		fmt.Fprintln(os.Stderr, "-a and -b are required")
		flag.Usage()
		os.Exit(2)
	}

	rules, err := config.LoadBattleRules(*rulesPath)
	if err != nil {
		logger.Error("加载战斗规则失败", err)
		os.Exit(1)
	}
	catalog, err := impl.LoadCatalog(*catalogPath)
	if err != nil {
		logger.Error("加载目录失败", err, "path", *catalogPath)
		os.Exit(1)
	}
	source, err := impl.NewStaticSnapshotSource(catalog)
	if err != nil {
		logger.Error("目录无效", err)
		os.Exit(1)
	}

	if *natsAddr != "" {
		nc, err := nats.Connect("nats://"+*natsAddr, nats.Name("battle-sim"))
		if err != nil {
			logger.Error("连接 NATS 失败", err)
			os.Exit(1)
		}
		defer nc.Drain()
		notify.SetNatsConn(nc)
	}

	container := service.NewServiceContainer(source, rules, service.ContainerDeps{Logger: logger})
	manager := container.GetBattleManager()

	kindB := domain.ControllerNPC
	if *wild {
		kindB = domain.ControllerWild
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	b, err := manager.StartBattle(ctx, service.StartBattleRequest{
		Seed: *seed,
		Participants: []service.ParticipantSpec{
			{ID: "side-a", Name: "Side A", Kind: domain.ControllerNPC, Team: domain.TeamPlayers, MonsterIDs: splitIDs(*teamA), Difficulty: *difficultyA},
			{ID: "side-b", Name: "Side B", Kind: kindB, Team: domain.TeamOpponents, MonsterIDs: splitIDs(*teamB), Difficulty: *difficultyB},
		},
	})
	if err != nil {
		logger.Error("开战失败", err)
		os.Exit(1)
	}
	fmt.Printf("Battle %s started (seed %d)\n", b.ID, b.Seed)

	for {
		report, err := manager.AdvanceTurn(ctx, b.ID)
		if err != nil {
			logger.Error("回合结算失败", err, "battle_id", b.ID)
			os.Exit(1)
		}
		printTurn(report)
		if report.End != nil {
			printEnd(report.End)
			return
		}
	}
}

func splitIDs(s string) []string {
	var ids []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			ids = append(ids, part)
		}
	}
	return ids
}

func printTurn(report *service.TurnReport) {
	fmt.Printf("\n--- Turn %d ---\n", report.Turn)
	for _, r := range report.Results {
		for _, line := range r.Log {
			fmt.Printf("  [%s] %s\n", r.Phase, line)
		}
	}
}

func printEnd(end *domain.BattleEndResult) {
	fmt.Println()
	fmt.Println("==============================================")
	fmt.Printf("  Result: %s (%s) after %d turns\n", end.State, end.Reason, end.Turns)
	if end.Winner != domain.TeamNone {
		fmt.Printf("  Winner: %s\n", end.Winner)
	}
	fmt.Printf("  Experience %d / Coins %d / Items %v\n", end.TotalExperience, end.TotalCoins, end.TotalItems)
	for _, r := range end.Rewards {
		fmt.Printf("  %-8s dmg=%-5d part=%-3d exp=%-5d coins=%-5d items=%v captured=%v\n",
			r.ParticipantID, r.DamageDealt, r.Participation, r.Experience, r.Coins, r.Items, r.Captured)
	}
	fmt.Println("==============================================")
}
