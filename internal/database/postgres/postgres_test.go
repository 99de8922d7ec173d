package postgres

import (
	"net/url"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_DSN(t *testing.T) {
	cfg := &Config{Host: "db", Port: "5432", User: "pmc", Password: "secret", DBName: "pmc"}
	assert.Equal(t, "postgres://pmc:secret@db:5432/pmc?sslmode=disable", cfg.DSN())

	cfg.SSLMode = "require"
	assert.Contains(t, cfg.DSN(), "sslmode=require")
}

func TestConfig_DSN_EscapesCredentials(t *testing.T) {
	cfg := &Config{Host: "db", Port: "5432", User: "pmc admin", Password: "p@ss word='x'", DBName: "pmc"}

	u, err := url.Parse(cfg.DSN())
	require.NoError(t, err)
	assert.Equal(t, "pmc admin", u.User.Username())
	password, ok := u.User.Password()
	require.True(t, ok)
	assert.Equal(t, "p@ss word='x'", password)
	assert.Equal(t, "db:5432", u.Host)
	assert.Equal(t, "/pmc", u.Path)

	// lib/pq accepts the URL and quotes the values itself.
	kv, err := pq.ParseURL(cfg.DSN())
	require.NoError(t, err)
	assert.Contains(t, kv, `dbname='pmc'`)
	assert.Contains(t, kv, `user='pmc admin'`)
	assert.Contains(t, kv, `password='p@ss word=\'x\''`)
}
