package main

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/damoang/angple-pages/internal/config"
	"github.com/damoang/angple-pages/internal/domain"
	"github.com/damoang/angple-pages/internal/migration"
	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "configs/config.local.yaml", "config file path")
	dryRun := flag.Bool("dry-run", false, "show the tables and row counts without migrating")
	rollback := flag.Bool("rollback", false, "drop the page tables")
	verbose := flag.Bool("verbose", false, "verbose SQL logging")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logLevel := gormlogger.Warn
	if *verbose {
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(mysql.Open(cfg.Database.GetDSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get underlying DB: %v", err)
	}
	defer sqlDB.Close()

	switch {
	case *dryRun:
		runDryRun(db)
	case *rollback:
		runRollback(db)
	default:
		start := time.Now()
		if err := migration.Run(db); err != nil {
			log.Printf("[migrate] failed: %v", err)
			os.Exit(1)
		}
		log.Printf("[migrate] done in %s", time.Since(start).Round(time.Millisecond))
	}
}

func runDryRun(db *gorm.DB) {
	models := map[string]interface{}{
		"pages":          &domain.Page{},
		"page_revisions": &domain.PageRevision{},
		"page_autosaves": &domain.PageAutosave{},
	}
	for _, table := range migration.Tables {
		if !db.Migrator().HasTable(table) {
			log.Printf("[dry-run:%s] would be created", table)
			continue
		}
		var count int64
		db.Model(models[table]).Count(&count)
		log.Printf("[dry-run:%s] exists with %d rows", table, count)
	}
}

func runRollback(db *gorm.DB) {
	log.Println("[rollback] WARNING: This will DROP all page tables!")
	log.Println("[rollback] Press Ctrl+C to cancel within 5 seconds...")
	time.Sleep(5 * time.Second)

	if err := migration.Drop(db); err != nil {
		log.Fatalf("[rollback] %v", err)
	}
	log.Println("[rollback] Dropped", migration.Tables)
}
