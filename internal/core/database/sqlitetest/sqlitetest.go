// Package sqlitetest opens migrated in-memory databases for specs.
package sqlitetest

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	infodeskDatamodel "github.com/frahmantamala/attendance-management/internal/core/datamodel/infodesk"
	requestDatamodel "github.com/frahmantamala/attendance-management/internal/core/datamodel/request"
	userDatamodel "github.com/frahmantamala/attendance-management/internal/core/datamodel/user"
)

// Open returns a fresh in-memory database holding every table. The pool is
// pinned to one connection because each sqlite memory connection is its own
// database.
func Open() (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&userDatamodel.User{},
		&userDatamodel.LeaveBalance{},
		&requestDatamodel.AttendanceRequest{},
		&infodeskDatamodel.Feedback{},
		&infodeskDatamodel.InfoRequest{},
	)
	if err != nil {
		return nil, err
	}
	return db, nil
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
