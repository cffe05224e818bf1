package db

import (
	"log"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"videowall/internal/video"
)

// Connect opens the submissions database and migrates its schema. The DSN
// selects the driver: mysql when it looks like a tcp DSN, sqlite otherwise.
func Connect(dsn string) *gorm.DB {
	var dialector gorm.Dialector
	if strings.Contains(dsn, "@tcp(") {
		dialector = mysql.Open(dsn)
	} else {
		dialector = sqlite.Open(dsn)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := gdb.AutoMigrate(&video.Submission{}); err != nil {
		log.Fatalf("db migrate: %v", err)
	}
	return gdb
}
