package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/triagekeeper/internal/server"
	"github.com/dmitrijs2005/triagekeeper/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg, err := config.LoadConfig(os.Args[1:], os.LookupEnv)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app.Run(ctx)

}
