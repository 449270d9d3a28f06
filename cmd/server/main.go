package main

import (
	"flag"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	_ "dbscanner/internal/db/catalogs"

	"dbscanner/internal/db"
	"dbscanner/internal/logger"
	"dbscanner/internal/server"
	"dbscanner/pkg/config"
)

const defaultPort = 8080

func main() {
	cfgPath := flag.String("config", filepath.Join(".", "configs", "appconfig.yaml"), "path to config YAML")
	driverFlag := flag.String("driver", "", "db driver override (postgres,mysql,sqlite,sqlserver,godror)")
	dsnFlag := flag.String("dsn", "", "dsn override")
	port := flag.Int("port", 0, "http port (overrides config, default"+fmt.Sprintf(" %d)", defaultPort))
	timeout := flag.Int("timeout", 10, "per-request db timeout seconds")
	flag.Parse()

	// config file is optional; flags can carry the whole connection
	var appCfg config.AppConfig
	if c, err := config.LoadFile(*cfgPath); err == nil {
		appCfg = c
	} else {
		logger.Warn("config file %s not loaded: %v", *cfgPath, err)
	}

	if err := logger.Init(appCfg.Logging); err != nil {
		logger.Fatal("init logger: %v", err)
	}

	if *driverFlag != "" && *dsnFlag != "" {
		appCfg.Database = config.DBConfig{Type: *driverFlag, DSN: *dsnFlag}
	}

	srv, err := server.New(appCfg, time.Duration(*timeout)*time.Second)
	if err != nil {
		logger.Fatal("configure server: %v", err)
	}

	if *port == 0 {
		*port = appCfg.Server.Port
	}
	if *port == 0 {
		*port = defaultPort
	}
	addr := fmt.Sprintf(":%d", *port)
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	logger.Info("listening on %s", addr)
	logger.Info("registered dialects: %v", db.RegisteredDialects())
	if err := httpSrv.ListenAndServe(); err != nil {
		logger.Fatal("%v", err)
	}
}
