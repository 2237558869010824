package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDSN(t *testing.T) {
	cfg := ClientConfig{
		Host:     "db.internal",
		Port:     5433,
		Database: "arbscan",
		User:     "scanner",
		Password: "pw",
		SSLMode:  "require",
	}
	assert.Equal(t, "postgres://scanner:pw@db.internal:5433/arbscan?sslmode=require", DSN(cfg))
}

func TestDSNDefaults(t *testing.T) {
	cfg := ClientConfig{Host: "localhost", Database: "arbscan", User: "postgres"}
	assert.Equal(t, "postgres://postgres:@localhost:5432/arbscan?sslmode=disable", DSN(cfg))
}

func TestDSNPassthrough(t *testing.T) {
	cfg := ClientConfig{DSN: "postgres://u:p@h:1/db", Host: "ignored"}
	assert.Equal(t, "postgres://u:p@h:1/db", DSN(cfg))
}
