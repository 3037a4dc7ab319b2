package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pinocoladium/marketplace/app/cmd"
	"github.com/pinocoladium/marketplace/app/configs"
	"github.com/pinocoladium/marketplace/app/handlers"
	"github.com/pinocoladium/marketplace/app/notifications"
	"github.com/pinocoladium/marketplace/app/repositories"
	"github.com/pinocoladium/marketplace/app/routes"
	"github.com/pinocoladium/marketplace/app/services"
	"github.com/pinocoladium/marketplace/app/utils/sessions"
	"github.com/unrolled/render"
)

func buildBus(env configs.ENV) interface {
	notifications.Bus
	Start()
	Close()
} {
	switch env.NotifyDriver {
	case "kafka":
		return notifications.NewKafkaBus(env.KafkaBrokers, env.KafkaTopic, 256)
	case "mail":
		sink := notifications.NewMailSink(notifications.MailConfig{
			Host:     env.EmailHost,
			Port:     env.EmailPort,
			Username: env.EmailUsername,
			Password: env.EmailPassword,
			From:     env.EmailFrom,
		})
		return notifications.NewChannelBus(sink, 256)
	default:
		return notifications.NewChannelBus(notifications.LogSink{}, 256)
	}
}

func main() {
	env := configs.LoadEnv()
	if len(os.Args) > 1 {
		cmd.RunCli()
		return
	}

	db, err := configs.OpenConnection()
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}
	log.Println("✅ Database connected.")

	keys, err := configs.LoadSessionKeysFromEnv()
	if err != nil {
		log.Fatal("Session keys failed:", err)
	}
	sessionStore := sessions.NewCookieSessionStore(keys.AuthKey, keys.EncKey)
	log.Println("✅ Session store initialized.")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := buildBus(env)
	bus.Start()
	log.Printf("✅ Notification bus initialized (driver=%s).", env.NotifyDriver)

	clientRepo := repositories.NewClientRepository(db)
	shopRepo := repositories.NewShopRepository(db)
	catalogRepo := repositories.NewCatalogRepository(db)
	orderRepo := repositories.NewOrderRepository(db)
	lineRepo := repositories.NewOrderLineRepository(db)
	contactRepo := repositories.NewContactRepository(db)
	tokenRepo := repositories.NewTokenRepository(db)

	accountSvc := services.NewAccountService(db, clientRepo, shopRepo, contactRepo, tokenRepo, orderRepo, catalogRepo, bus)
	importSvc := services.NewImportService(db, catalogRepo, shopRepo, bus)
	basketSvc := services.NewBasketService(db, orderRepo, lineRepo, catalogRepo, contactRepo, clientRepo, bus)
	orderSvc := services.NewOrderService(orderRepo, shopRepo, bus, nil)

	importQueue := services.NewImportQueue(importSvc, env.ImportQueueSize, env.ImportWorkers)
	importQueue.Start()
	log.Printf("✅ Import queue started (%d workers).", env.ImportWorkers)

	rnd := render.New()

	router := routes.NewRouter(rnd, sessionStore, clientRepo, routes.Handlers{
		Account:   handlers.NewAccountHandler(rnd, accountSvc, sessionStore),
		Shop:      handlers.NewShopHandler(rnd, accountSvc, shopRepo),
		Pricelist: handlers.NewPricelistHandler(rnd, importQueue, shopRepo, catalogRepo),
		Product:   handlers.NewProductHandler(rnd, catalogRepo),
		Basket:    handlers.NewBasketHandler(rnd, basketSvc),
		Order:     handlers.NewOrderHandler(rnd, orderSvc, shopRepo),
	})

	server := http.Server{
		Addr:    env.Port,
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		log.Println("shutting down...")
		if err := server.Shutdown(context.Background()); err != nil {
			log.Printf("server shutdown: %v", err)
		}
	}()

	log.Printf("🚀 Server starting on %s", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("server failed:", err)
	}

	// Drain order matters: handlers finish first (server has returned), then
	// queued imports run and publish their outcomes, then the bus flushes.
	importQueue.Close()
	bus.Close()
}
