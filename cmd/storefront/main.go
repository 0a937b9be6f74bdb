package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/nattapatNtp/furniture-Frontend/internal/api"
	"github.com/nattapatNtp/furniture-Frontend/internal/backend"
	"github.com/nattapatNtp/furniture-Frontend/internal/bus"
	"github.com/nattapatNtp/furniture-Frontend/internal/config"
	"github.com/nattapatNtp/furniture-Frontend/internal/session"
	"github.com/nattapatNtp/furniture-Frontend/internal/view/badge"
	cartview "github.com/nattapatNtp/furniture-Frontend/internal/view/cart"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[Storefront] configuration error: %v", err)
	}

	log.Println("[Storefront] ========================================")
	log.Println("[Storefront] Kaokai Office Furniture - storefront")
	log.Println("[Storefront] ========================================")
	log.Printf("[Storefront] Backend: %s", cfg.APIBaseURL)
	log.Printf("[Storefront] Listen:  %s", cfg.ListenAddr)

	sessions := session.NewStore(cfg.TokenFile)
	client := backend.NewClient(cfg.APIBaseURL, sessions, cfg.ReadTimeout, cfg.MutationTimeout)

	cartBus := bus.New()
	notifier := bus.Notifier(cartBus)

	var wg sync.WaitGroup

	// Optional cross-process relay: the storage-event analog. Without
	// brokers the signal stays in-process.
	if len(cfg.Brokers) > 0 {
		relay := bus.NewRelay(cartBus, cfg.Brokers, cfg.RelayTopic, uuid.NewString())
		defer relay.Close()
		notifier = bus.WithRelay(ctx, cartBus, relay)

		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Printf("[Storefront] cart-changed relay on %v", cfg.Brokers)
			if err := relay.Run(ctx); err != nil && ctx.Err() == nil {
				log.Printf("[Storefront] relay stopped: %v", err)
			}
		}()
	}

	cart := cartview.NewStore(client, sessions, notifier)

	watcher := badge.NewWatcher(client, sessions, cartBus, badge.DefaultInterval)
	wg.Add(1)
	go func() {
		defer wg.Done()
		watcher.Run(ctx)
	}()

	handlers := api.NewHandlers(client, sessions, cart, watcher, cfg.PublicURL)
	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: api.NewRouter(handlers),
	}

	go func() {
		log.Printf("[Storefront] serving on %s", cfg.ListenAddr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("[Storefront] server error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[Storefront] shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	server.Shutdown(shutdownCtx)

	wg.Wait()
}
