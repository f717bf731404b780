package db

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	migrate "github.com/golang-migrate/migrate/v4"
	// Blank imports register the postgres driver and file source for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/oficinatec/oficina/internal/config"
	"github.com/oficinatec/oficina/internal/models"
)

// ConnectAndMigrate opens the database named by DATABASE_DSN and brings the
// schema up to date. A postgres:// DSN selects the postgres driver; anything
// else is treated as a sqlite file path (the shop's default deployment).
func ConnectAndMigrate(dsn string) (*gorm.DB, error) {
	dsn = NormalizeDSN(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_DSN vazio, verifique a configuração do ambiente")
	}
	logLevel := logger.Silent
	if config.ParseBool("DB_DEBUG", false) {
		logLevel = logger.Info
	}
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logLevel)}

	var db *gorm.DB
	var err error
	if IsPostgres(dsn) {
		for i := 0; i < 10; i++ {
			db, err = gorm.Open(postgres.Open(dsn), cfg)
			if err == nil {
				break
			}
			fmt.Println("Aguardando banco de dados...", err)
			time.Sleep(2 * time.Second)
		}
	} else {
		db, err = gorm.Open(sqlite.Open(dsn), cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("conexão com o banco falhou: %w", err)
	}

	if pingErr := db.Exec("SELECT 1").Error; pingErr != nil {
		return nil, fmt.Errorf("ping no banco falhou: %w", pingErr)
	}
	if !IsPostgres(dsn) {
		// sqlite only enforces the schema's ON DELETE clauses with this on.
		if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			return nil, fmt.Errorf("habilitando foreign keys: %w", err)
		}
	}

	// MIGRATIONS=1 runs the SQL files via golang-migrate (postgres
	// deployments); otherwise AutoMigrate keeps dev setups frictionless.
	if config.ParseBool("MIGRATIONS", false) {
		if err := runSQLMigrations(dsn); err != nil {
			return nil, fmt.Errorf("migrações SQL falharam: %w", err)
		}
	} else {
		if err := AutoMigrate(db); err != nil {
			return nil, err
		}
	}

	for _, table := range []string{"customers", "work_orders", "quotes"} {
		if !db.Migrator().HasTable(table) {
			return nil, errors.New("tabela ausente após migração: " + table)
		}
	}
	if config.ParseBool("DB_SEED", false) {
		seed(db)
	}
	return db, nil
}

// AutoMigrate creates or updates every table. Exported so tests can build
// in-memory databases with the same schema.
func AutoMigrate(db *gorm.DB) error {
	toMigrate := []interface{}{
		&models.StaffUser{}, &models.Customer{},
		&models.CatalogService{}, &models.CatalogPart{},
		&models.Quote{}, &models.WorkOrder{},
		&models.WorkOrderServiceItem{}, &models.WorkOrderPartItem{},
		&models.QuoteServiceItem{}, &models.QuotePartItem{},
		&models.Photo{},
	}
	for _, m := range toMigrate {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("automigrate %T: %w", m, err)
		}
	}
	return nil
}

func seed(db *gorm.DB) {
	baseServices := []models.CatalogService{
		{Name: "Diagnóstico", UnitPrice: 50, Unit: "un"},
		{Name: "Limpeza interna", UnitPrice: 80, Unit: "un"},
		{Name: "Mão de obra (hora)", UnitPrice: 120, Unit: "h"},
	}
	for _, svc := range baseServices {
		var existing models.CatalogService
		if err := db.Where("name = ?", svc.Name).First(&existing).Error; err == gorm.ErrRecordNotFound {
			db.Create(&svc)
		}
	}
}

// runSQLMigrations executes migrations in ./migrations using the file source.
func runSQLMigrations(dsn string) error {
	m, err := migrate.New("file://migrations", dsn)
	if err != nil {
		return err
	}
	if err = m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

// IsPostgres reports whether the DSN targets postgres.
func IsPostgres(dsn string) bool {
	lower := strings.ToLower(strings.TrimSpace(dsn))
	return strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") ||
		kvPairRegex.MatchString(dsn)
}

var kvPairRegex = regexp.MustCompile(`(?i)\b(host|user|password|dbname|sslmode)=`)

// NormalizeDSN trims quotes/whitespace and, for key=value postgres form,
// supplements sslmode when missing. Sqlite paths pass through untouched.
func NormalizeDSN(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.Trim(s, "\"'")
	if s == "" {
		return s
	}
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return s
	}
	if !kvPairRegex.MatchString(s) {
		return s
	}
	cleaned := strings.Join(strings.Fields(s), " ")
	if !strings.Contains(strings.ToLower(cleaned), "sslmode=") {
		cleaned += " sslmode=disable"
	}
	return cleaned
}
