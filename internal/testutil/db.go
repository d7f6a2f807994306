// Package testutil builds throwaway databases and fixtures for package tests.
package testutil

import (
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/frahmantamala/discharge-registry/internal/auth"
	auditDatamodel "github.com/frahmantamala/discharge-registry/internal/core/datamodel/audit"
	correctionDatamodel "github.com/frahmantamala/discharge-registry/internal/core/datamodel/correction"
	departmentDatamodel "github.com/frahmantamala/discharge-registry/internal/core/datamodel/department"
	recordDatamodel "github.com/frahmantamala/discharge-registry/internal/core/datamodel/record"
	userDatamodel "github.com/frahmantamala/discharge-registry/internal/core/datamodel/user"
)

// NewSQLiteDB opens a private in-memory database with every table migrated.
// The pool is pinned to one connection because each sqlite :memory:
// connection is a separate database.
func NewSQLiteDB() (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&userDatamodel.User{},
		&departmentDatamodel.Department{},
		&recordDatamodel.Record{},
		&correctionDatamodel.Correction{},
		&auditDatamodel.AuditLog{},
	); err != nil {
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

// CreateUser inserts a user with a cheap bcrypt hash of password.
func CreateUser(db *gorm.DB, username, password string, role auth.Role) (*userDatamodel.User, error) {
	hash, err := auth.HashPassword(password, 4)
	if err != nil {
		return nil, err
	}
	u := &userDatamodel.User{Username: username, PasswordHash: hash, Role: string(role)}
	if err := db.Create(u).Error; err != nil {
		return nil, err
	}
	return u, nil
}

func CreateDepartment(db *gorm.DB, name string) (*departmentDatamodel.Department, error) {
	d := &departmentDatamodel.Department{Name: name}
	if err := db.Create(d).Error; err != nil {
		return nil, err
	}
	return d, nil
}

// Date returns midnight UTC of the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func Str(s string) *string {
	return &s
}
