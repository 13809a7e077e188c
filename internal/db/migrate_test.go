package db

import (
	"testing"

	"github.com/driveboard/driveboard/internal/config"
)

func TestRunMigrateUnknownCommand(t *testing.T) {
	cfg := config.PostgresConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "driveboard",
		Password: "secret",
		Database: "driveboard",
		SSLMode:  "disable",
	}
	if err := RunMigrate(nil, cfg, nil, "invalid", nil); err == nil {
		t.Fatal("expected error for unknown command")
	}
}

func TestRunMigrateForceWithoutVersion(t *testing.T) {
	cfg := config.PostgresConfig{Host: "localhost", Port: 5432}
	if err := RunMigrate(nil, cfg, nil, "force", nil); err == nil {
		t.Fatal("expected error for force without a version argument")
	}
}
