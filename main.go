package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"ballpit/config"
	"ballpit/network"
	"ballpit/room"
)

func main() {
	config.InitConfig()

	settings, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mgr := room.NewManager(settings.Game, settings.Seed)
	if err := network.NewServer(mgr).ListenAndServe(ctx, settings.Addr); err != nil {
		log.Fatal(err)
	}
}
