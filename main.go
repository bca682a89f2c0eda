// @title Sky266 Training Portal API
// @version 1.0
// @description Backend for the Sky266 cybersecurity awareness training portal.

// @contact.name API Support
// @contact.email it@sky266.example

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization

package main

import (
	"flag"
	"log"
	"path/filepath"

	"sky266_backend/internal/app"
	"sky266_backend/internal/config"
	"sky266_backend/pkg/configwatcher"
	"sky266_backend/pkg/logger"
)

func main() {
	configDir := flag.String("config", "configs", "directory containing config.yaml")
	watch := flag.Bool("watch-config", false, "hot-reload configuration on file change")
	flag.Parse()

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	if *watch {
		go configwatcher.WatchConfig(filepath.Join(*configDir, "config.yaml"), application.ApplyConfig)
	}

	application.Run()
}
