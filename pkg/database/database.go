package database

import (
	"fmt"
	"log"

	"sky266_backend/internal/config"
	"sky266_backend/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB connects to the remote mirror database and migrates the three
// mirror tables. Only called when remote.enabled is set.
func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Remote mirror database connection established")

	err = db.AutoMigrate(
		&model.User{},
		&model.TrainingProgress{},
		&model.Certificate{},
	)
	if err != nil {
		return nil, err
	}

	log.Println("Remote mirror migration completed")

	return db, nil
}
