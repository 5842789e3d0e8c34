package repo

import (
	"fmt"
	"strings"

	gormpg "gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	_ "modernc.org/sqlite"

	"BabyKeeper/internal/model"
)

// InitDB opens the server database and migrates the schema. A postgres URL
// selects the postgres driver; anything else is treated as a SQLite file
// path, which keeps single-household deployments dependency-free.
func InitDB(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		dsn = "babykeeper.sqlite"
	}
	var dial gorm.Dialector
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		dial = gormpg.Open(dsn)
	} else {
		dial = gormsqlite.Dialector{DriverName: "sqlite", DSN: dsn}
	}
	db, err := gorm.Open(dial, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(
		&model.User{}, &model.Baby{}, &model.BabyAccess{},
		&model.LogEntry{}, &model.ChangeEntry{},
	); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return db, nil
}
