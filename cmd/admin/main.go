package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/codifyr/internal/server"
	"github.com/dmitrijs2005/codifyr/internal/server/admin"
	"github.com/dmitrijs2005/codifyr/internal/server/config"
)

func main() {
	ctx := context.Background()
	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("%v", err)
	}

	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	runErr := admin.Run(ctx, os.Args[1:], app.Verifications(), app.Profiles(), os.Stdout)
	if err := app.Close(ctx); err != nil {
		log.Printf("close: %v", err)
	}
	if runErr != nil {
		log.Fatalf("%v", runErr)
	}
}
