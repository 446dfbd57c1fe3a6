package database_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/GTDGit/tirestore_api/internal/config"
	"github.com/GTDGit/tirestore_api/internal/database"
)

func TestDSNEscapesCredentials(t *testing.T) {
	c := qt.New(t)

	dsn := database.DSN(&config.DatabaseConfig{
		Host:     "db",
		Port:     "5432",
		User:     "tire admin",
		Password: "p@ss/word",
		Name:     "storefront",
		SSLMode:  "disable",
	})
	c.Assert(dsn, qt.Equals, "postgres://tire+admin:p%40ss%2Fword@db:5432/storefront?sslmode=disable")
}

func TestConnectNilConfig(t *testing.T) {
	c := qt.New(t)

	_, err := database.Connect(nil)
	c.Assert(err, qt.ErrorMatches, "nil database config")
}
