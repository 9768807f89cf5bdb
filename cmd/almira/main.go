package main

import (
	stdlog "log"

	"almira/internal/config"
	"almira/internal/http/handlers"
	applog "almira/internal/log"
	"almira/internal/repos"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		stdlog.Fatal(err)
	}
	applog.Setup(cfg.LogLevel)

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		stdlog.Fatal(err)
	}

	deps := handlers.NewDeps(db, cfg)
	app := handlers.NewApp(deps)

	applog.Info(nil, "server.start", map[string]any{"port": cfg.Port})
	stdlog.Fatal(app.Listen(":" + cfg.Port))
}
