package main

import (
	"context"
	"log"

	"github.com/inqbatorchris/fieldsync/internal/app"
	"github.com/inqbatorchris/fieldsync/internal/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	a, err := app.NewApp(cfg)

	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	if err := a.Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}
}
