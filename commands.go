package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"wfseller/internal/catalog"
	"wfseller/internal/config"
	"wfseller/internal/credentials"
	"wfseller/internal/database"
	"wfseller/internal/gamedata"
	"wfseller/internal/market"
	"wfseller/internal/parser"
	"wfseller/internal/rate_limiter"
	"wfseller/internal/session"
	"wfseller/internal/webhook"
	"wfseller/internal/worker"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v2"
)

var (
	cfg      *config.ConfigStruct
	sessions *session.Manager
	notifier *webhook.Notifier
)

// setup loads configuration and builds the shared session before any command runs.
func setup(ctx *cli.Context) error {
	var err error
	cfg, err = config.LoadConfig(ctx.String("config"))
	if err != nil {
		return fmt.Errorf("load config %s: %w", ctx.String("config"), err)
	}

	if cfg.Verbose {
		log.SetLevel(log.DebugLevel)
	}
	log.Debug("🔧 Configuration Has Been Loaded", "Market", cfg.MarketURL, "GameData", cfg.GameDataURL)

	httpClient := &http.Client{Timeout: cfg.RequestTimeout()}
	sessions = session.NewManager(cfg.MarketURL, httpClient, credentials.NewStore(cfg.CredentialsPath))
	notifier = webhook.NewNotifier(cfg.WebhookURL)

	return nil
}

func itemArg(ctx *cli.Context) (string, error) {
	name := strings.TrimSpace(strings.Join(ctx.Args().Slice(), " "))
	if name == "" {
		return "", cli.Exit("Provide an item name, e.g. \"Abating Link\".", 1)
	}
	return name, nil
}

func login(ctx context.Context) error {
	if err := sessions.Login(ctx); err != nil {
		return err
	}
	log.Info("🪙 Signed in to warframe.market")
	return nil
}

func loginAction(ctx *cli.Context) error {
	return login(ctx.Context)
}

func refreshCatalogAction(ctx *cli.Context) error {
	if err := login(ctx.Context); err != nil {
		return err
	}

	cat, err := catalog.LoadOrEmpty(cfg.CatalogPath)
	if err != nil {
		return err
	}

	source := gamedata.NewClient(cfg.GameDataURL, cfg.RequestTimeout())
	resolver := market.NewClient(sessions, nil)
	limiter := rate_limiter.CreateLimiter(cfg.RateLimit())

	_, err = cat.Refresh(ctx.Context, source, resolver, limiter)
	return err
}

func seedAction(ctx *cli.Context) error {
	augments, err := gamedata.NewClient(cfg.GameDataURL, cfg.RequestTimeout()).Augments(ctx.Context)
	if err != nil {
		return err
	}

	db, err := database.LoadOrEmpty(cfg.DatabasePath)
	if err != nil {
		return err
	}

	added := db.Seed(augments)
	if err := db.Save(); err != nil {
		return err
	}

	log.Info("🛒 Listings database seeded", "Added", added, "Total", len(db.Listings))
	return nil
}

func lookupAction(ctx *cli.Context) error {
	name, err := itemArg(ctx)
	if err != nil {
		return err
	}

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return err
	}

	id, err := cat.Lookup(name)
	if err != nil {
		return err
	}

	fmt.Println(id)
	return nil
}

func priceAction(ctx *cli.Context) error {
	name, err := itemArg(ctx)
	if err != nil {
		return err
	}
	if err := login(ctx.Context); err != nil {
		return err
	}

	price, ok, err := market.NewClient(sessions, nil).AveragePrice(ctx.Context, name)
	if err != nil {
		return err
	}
	if !ok {
		log.Warn("No sell statistics in the last 48 hours", "Item", name)
		return nil
	}

	fmt.Println(price)
	return nil
}

func sellAction(ctx *cli.Context) error {
	var entries []parser.SellEntry
	if path := ctx.String("file"); path != "" {
		parsed, err := parser.FromFile(path)
		if err != nil {
			return err
		}
		entries = parsed
	} else {
		name, err := itemArg(ctx)
		if err != nil {
			return err
		}
		entries = []parser.SellEntry{{
			Name:       name,
			Price:      ctx.Int("price"),
			UseAverage: !ctx.IsSet("price"),
			Quantity:   ctx.Int("quantity"),
		}}
	}

	if err := login(ctx.Context); err != nil {
		return err
	}

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return err
	}
	db, err := database.LoadOrEmpty(cfg.DatabasePath)
	if err != nil {
		return err
	}

	client := market.NewClient(sessions, cat)
	var (
		errs   []error
		posted []webhook.EmbedField
		failed []string
	)
	for _, entry := range entries {
		if err := sellOne(ctx.Context, client, db, entry); err != nil {
			log.Error("Could not list item", "Item", entry.Name, "Error", err)
			errs = append(errs, fmt.Errorf("%s: %w", entry.Name, err))
			failed = append(failed, fmt.Sprintf("`%s`: %v", entry.Name, err))
			continue
		}
		l, _ := db.Get(entry.Name)
		posted = append(posted, webhook.EmbedField{
			Name:   entry.Name,
			Value:  fmt.Sprintf("%dp x%d", l.SellPrice, l.Quantity),
			Inline: true,
		})
	}

	if err := db.Save(); err != nil {
		errs = append(errs, err)
	}
	notifySell(ctx.Context, posted, failed)
	return errors.Join(errs...)
}

func notifySell(ctx context.Context, posted []webhook.EmbedField, failed []string) {
	var embeds []webhook.Embed
	if len(posted) > 0 {
		embeds = append(embeds, webhook.Embed{
			Title:       "Orders Posted",
			Description: fmt.Sprintf("%d order(s) listed", len(posted)),
			Fields:      posted,
			Color:       webhook.ColorPosted,
		})
	}
	if len(failed) > 0 {
		embeds = append(embeds, webhook.Embed{
			Title:       "Orders Failed",
			Description: strings.Join(failed, "\n"),
			Color:       webhook.ColorError,
		})
	}
	if err := notifier.Send(ctx, embeds...); err != nil {
		log.Warn("Failed to send webhook", "Error", err)
	}
}

// sellOne posts a new order, or reprices the existing one when the item is
// already listed.
func sellOne(ctx context.Context, client *market.Client, db *database.Database, entry parser.SellEntry) error {
	price := entry.Price
	if entry.UseAverage {
		avg, ok, err := client.AveragePrice(ctx, entry.Name)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("no sell statistics in the last 48 hours, give an explicit price")
		}
		price = avg
	}

	if l, ok := db.Get(entry.Name); ok && l.HasOrder() {
		visible := true
		quantity := entry.Quantity
		if err := client.UpdateOrder(ctx, l.OrderID, market.OrderUpdate{
			Platinum: &price,
			Quantity: &quantity,
			Visible:  &visible,
		}); err != nil {
			return err
		}
		db.MarkPosted(entry.Name, l.OrderID, price, quantity)
		log.Info("💱 Order repriced", "Item", entry.Name, "Price", price, "Quantity", quantity)
		return nil
	}

	orderID, err := client.CreateOrder(ctx, market.OrderRequest{
		ItemName:  entry.Name,
		SellPrice: price,
		Quantity:  entry.Quantity,
	})
	if err != nil {
		return err
	}

	db.MarkPosted(entry.Name, orderID, price, entry.Quantity)
	log.Info("💱 Order posted", "Item", entry.Name, "Price", price, "Quantity", entry.Quantity, "Order", orderID)
	return nil
}

func deleteAction(ctx *cli.Context) error {
	orderID := ctx.String("order")

	var (
		db   *database.Database
		name string
		err  error
	)
	if orderID == "" {
		name, err = itemArg(ctx)
		if err != nil {
			return err
		}
		db, err = database.Load(cfg.DatabasePath)
		if err != nil {
			return err
		}
		l, ok := db.Get(name)
		if !ok || !l.HasOrder() {
			log.Warn("No open order recorded for item, nothing to delete", "Item", name)
			return nil
		}
		orderID = l.OrderID
	}

	if err := login(ctx.Context); err != nil {
		return err
	}
	if err := market.NewClient(sessions, nil).DeleteOrder(ctx.Context, orderID); err != nil {
		return err
	}
	log.Info("🗑️ Order removed", "Order", orderID)

	if db == nil {
		return nil
	}
	db.MarkDeleted(name)
	return db.Save()
}

func syncAction(ctx *cli.Context) error {
	if err := login(ctx.Context); err != nil {
		return err
	}

	syncer := worker.NewSyncer(cfg.DatabasePath, market.NewClient(sessions, nil), notifier)
	res, err := syncer.SyncOnce(ctx.Context)
	log.Info("👁️ Visibility sync done", "Checked", res.Checked, "Changed", len(res.Changes), "Failed", res.Failed)
	return err
}

func watchAction(ctx *cli.Context) error {
	interval := cfg.SyncInterval()
	if ctx.IsSet("interval") {
		interval = ctx.Duration("interval")
	}
	if interval <= 0 {
		return cli.Exit("The sync interval must be positive.", 1)
	}

	runCtx, stop := signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := login(runCtx); err != nil {
		return err
	}

	syncer := worker.NewSyncer(cfg.DatabasePath, market.NewClient(sessions, nil), notifier)
	return syncer.Run(runCtx, interval)
}
