// Command cashflowctl is the operator CLI: migrations, manual syncs and
// category or account maintenance without going through the HTTP API.
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"cashflow/internal/amqp"
	"cashflow/internal/config"
	"cashflow/internal/core"
	"cashflow/internal/log"
	"cashflow/internal/provider"
	"cashflow/internal/services"
	"cashflow/internal/storage"
	"cashflow/internal/worker"
)

type globals struct {
	cfg    *config.Config
	logger *log.Logger
}

var cli struct {
	Migrate  migrateCmd  `cmd:"" help:"Run database migrations and exit."`
	Sync     syncCmd     `cmd:"" help:"Reconcile provider transactions into the local mirror."`
	Category categoryCmd `cmd:"" help:"Manage categories."`
	Account  accountCmd  `cmd:"" help:"Manage accounts."`
}

type migrateCmd struct{}

func (c *migrateCmd) Run(g *globals) error {
	if err := storage.RunMigrations(g.cfg.SQLiteDBPath); err != nil {
		return err
	}
	fmt.Println("migrations applied")
	return nil
}

type syncCmd struct {
	Days    int    `default:"1" help:"Trailing days to sync."`
	Start   string `help:"Explicit range start (YYYY-MM-DD)."`
	End     string `help:"Explicit range end (YYYY-MM-DD)."`
	Enqueue bool   `help:"Publish to the worker queue instead of syncing inline."`
}

func (c *syncCmd) Run(g *globals) error {
	msg := &amqp.SyncRequestMessage{
		Days:      c.Days,
		Start:     c.Start,
		End:       c.End,
		Timestamp: time.Now(),
	}
	from, to, err := msg.Window(core.DateOf(time.Now()))
	if err != nil {
		return err
	}

	if c.Enqueue {
		client, err := amqp.NewClient(g.cfg.AMQPURL, g.cfg.AMQPExchange, g.cfg.AMQPQueue)
		if err != nil {
			return fmt.Errorf("connect queue: %w", err)
		}
		defer client.Close()
		if err := client.PublishSyncRequest(context.Background(), msg); err != nil {
			return err
		}
		fmt.Printf("sync request queued for %s..%s\n", from, to)
		return nil
	}

	if g.cfg.ProviderToken == "" {
		return fmt.Errorf("LM_API_TOKEN is required for an inline sync")
	}
	repo, err := storage.NewSQLiteRepository(g.cfg.SQLiteDBPath)
	if err != nil {
		return err
	}
	defer repo.Close()

	source := provider.NewLunchMoney(g.cfg.ProviderBaseURL, g.cfg.ProviderToken, g.cfg.ProviderTimeout)
	w := worker.NewSyncWorker(source,
		services.NewReconciler(repo, g.logger),
		services.NewAccountIngester(repo, g.logger),
		g.logger)
	return w.Sync(context.Background(), from, to)
}

type categoryCmd struct {
	Add  categoryAddCmd  `cmd:"" help:"Create a category."`
	List categoryListCmd `cmd:"" help:"List categories."`
}

type categoryAddCmd struct {
	ID              string `arg:"" help:"Category id (free-text tag)."`
	Name            string `arg:"" help:"Display name."`
	ExcludeCashflow bool   `help:"Exclude the category's transactions from cashflow arithmetic."`
	NoBudget        bool   `help:"Forbid budgets against the category."`
	Income          bool   `help:"Treat inflows in this category as income."`
}

func (c *categoryAddCmd) Run(g *globals) error {
	repo, err := storage.NewSQLiteRepository(g.cfg.SQLiteDBPath)
	if err != nil {
		return err
	}
	defer repo.Close()

	category := core.Category{
		ID:              c.ID,
		Name:            c.Name,
		AffectsCashflow: !c.ExcludeCashflow,
		Budgetable:      !c.NoBudget && !c.ExcludeCashflow,
		IsIncome:        c.Income,
	}
	if err := category.Validate(); err != nil {
		return err
	}
	return repo.CreateCategory(context.Background(), category)
}

type categoryListCmd struct{}

func (c *categoryListCmd) Run(g *globals) error {
	repo, err := storage.NewSQLiteRepository(g.cfg.SQLiteDBPath)
	if err != nil {
		return err
	}
	defer repo.Close()

	categories, err := repo.ListCategories(context.Background())
	if err != nil {
		return err
	}
	for _, cat := range categories {
		fmt.Printf("%-20s %-30s cashflow=%t budgetable=%t income=%t\n",
			cat.ID, cat.Name, cat.AffectsCashflow, cat.Budgetable, cat.IsIncome)
	}
	return nil
}

type accountCmd struct {
	List      accountListCmd      `cmd:"" help:"List accounts."`
	SetLiquid accountSetLiquidCmd `cmd:"" name:"set-liquid" help:"Toggle an account's liquidity flag."`
}

type accountListCmd struct{}

func (c *accountListCmd) Run(g *globals) error {
	repo, err := storage.NewSQLiteRepository(g.cfg.SQLiteDBPath)
	if err != nil {
		return err
	}
	defer repo.Close()

	accounts, err := repo.ListAccounts(context.Background())
	if err != nil {
		return err
	}
	for _, a := range accounts {
		fmt.Printf("%-24s %-30s %-10s %s/%s liquid=%t\n",
			a.ID, a.Name, a.Provider, a.Type, a.Subtype, a.IsLiquid)
	}
	return nil
}

type accountSetLiquidCmd struct {
	ID     string `arg:"" help:"Account id."`
	Liquid bool   `arg:"" help:"true or false."`
}

func (c *accountSetLiquidCmd) Run(g *globals) error {
	repo, err := storage.NewSQLiteRepository(g.cfg.SQLiteDBPath)
	if err != nil {
		return err
	}
	defer repo.Close()
	return repo.SetAccountLiquid(context.Background(), c.ID, c.Liquid)
}

func main() {
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	ctx := kong.Parse(&cli,
		kong.Name("cashflowctl"),
		kong.Description("Operator tooling for the cashflow service."))

	err := ctx.Run(&globals{cfg: config.Load(), logger: logger})
	ctx.FatalIfErrorf(err)
}
