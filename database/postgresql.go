package database

import (
	"JagannathOPD/models"
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB initializes the database connection and configures it.
func InitDB(ctx context.Context, dsn string, development bool, log *zap.Logger) (*gorm.DB, error) {
	// Configure logging level based on environment
	logMode := logger.Silent
	if development {
		logMode = logger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: false,
		PrepareStmt:                              true,
		TranslateError:                           true,
		Logger:                                   logger.Default.LogMode(logMode),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database connection")
	}

	if err := configureConnectionPool(db); err != nil {
		return nil, err
	}

	if err := testDatabaseConnection(ctx, db); err != nil {
		return nil, err
	}

	if err := runMigrations(db); err != nil {
		return nil, errors.Wrap(err, "failed to run migrations")
	}

	if err := seedInitialData(db); err != nil {
		return nil, err
	}

	log.Info("Database initialized successfully")
	return db, nil
}

// configureConnectionPool sets up the connection pool settings for the database.
func configureConnectionPool(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return errors.Wrap(err, "failed to get sql.DB from GORM")
	}
	sqlDB.SetMaxOpenConns(40)
	sqlDB.SetMaxIdleConns(20)
	sqlDB.SetConnMaxLifetime(10 * time.Minute)
	return nil
}

func testDatabaseConnection(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return errors.Wrap(err, "failed to get sql.DB from GORM")
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return errors.Wrap(err, "failed to ping database")
	}
	return nil
}

// Ping checks the connection for the health endpoint.
func Ping(ctx context.Context, db *gorm.DB) error {
	return testDatabaseConnection(ctx, db)
}

func runMigrations(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Department{},
		&models.Consultant{},
		&models.Shift{},
		&models.ConsultantShift{},
		&models.TimeSlot{},
		&models.OnlineAppointment{},
		&models.MrMaster{},
		&models.MrParameter{},
		&models.Registration{},
		&models.Consultation{},
		&models.Payment{},
		&models.ProcessedPaymentEvent{},
	)
}

// seedInitialData makes sure the MR counter row exists. An existing row is
// left untouched.
func seedInitialData(db *gorm.DB) error {
	counter := models.MrParameter{ID: 1, MRCounter: 1}
	if err := db.Where(models.MrParameter{ID: 1}).FirstOrCreate(&counter).Error; err != nil {
		return errors.Wrap(err, "failed to seed MR counter")
	}
	return nil
}
