package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/oficinatec/oficina/internal/config"
	"github.com/oficinatec/oficina/internal/db"
	"github.com/oficinatec/oficina/internal/logging"
	"github.com/oficinatec/oficina/internal/pdf"
	"github.com/oficinatec/oficina/internal/photostore/local"
	"github.com/oficinatec/oficina/internal/server"
)

var (
	migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")
	createUserFlag  = flag.String("create-user", "", "Create a staff user as name:password and exit")
	deleteUserFlag  = flag.String("delete-user", "", "Delete the staff user by username and exit")
)

func main() {
	flag.Parse()
	_ = godotenv.Load()

	cfg := config.Load()
	logging.New(cfg.LogLevel)
	pdf.ShopName = cfg.ShopName

	dbConn, err := db.ConnectAndMigrate(cfg.DatabaseDSN)
	if err != nil {
		slog.Error("conectando ao banco", "error", err)
		os.Exit(1)
	}

	if *migrateOnlyFlag {
		slog.Info("migrações concluídas")
		return
	}
	if *createUserFlag != "" {
		if err := createStaffUser(dbConn, *createUserFlag); err != nil {
			slog.Error("criando usuário", "error", err)
			os.Exit(1)
		}
		return
	}
	if *deleteUserFlag != "" {
		if err := deleteStaffUser(dbConn, *deleteUserFlag); err != nil {
			slog.Error("removendo usuário", "error", err)
			os.Exit(1)
		}
		return
	}

	photos, err := local.New(cfg.PhotoDir)
	if err != nil {
		slog.Error("preparando diretório de fotos", "dir", cfg.PhotoDir, "error", err)
		os.Exit(1)
	}

	handler := server.New(dbConn, photos)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("servidor ouvindo", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("servidor", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("sinal de desligamento recebido")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("desligando servidor", "error", err)
	}
	slog.Info("servidor encerrado")
}
