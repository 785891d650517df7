package repository

import (
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// Open connects to MySQL or to a SQLite file. MySQL DSNs get parseTime and multiStatements
// forced on, the latter because migrations are applied one file per statement batch.
func Open(driver, dsn string) (*sqlx.DB, error) {
	switch driver {
	case DriverMySQL:
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return nil, errors.Wrap(err, "parse mysql dsn")
		}
		cfg.ParseTime = true
		cfg.MultiStatements = true
		cfg.Loc = time.UTC

		db, err := sqlx.Connect(DriverMySQL, cfg.FormatDSN())
		if err != nil {
			return nil, errors.Wrap(err, "connect to mysql")
		}
		db.SetConnMaxLifetime(3 * time.Minute)
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		return db, nil
	case DriverSQLite:
		db, err := sqlx.Connect(DriverSQLite, sqliteDSN(dsn))
		if err != nil {
			return nil, errors.Wrap(err, "open sqlite database")
		}
		// A single connection serialises writers instead of surfacing SQLITE_BUSY.
		db.SetMaxOpenConns(1)
		return db, nil
	}
	return nil, errors.Errorf("unsupported database driver %q", driver)
}

func sqliteDSN(dsn string) string {
	params := "_time_format=sqlite&_pragma=foreign_keys(1)"
	if strings.Contains(dsn, "?") {
		return dsn + "&" + params
	}
	return dsn + "?" + params
}
