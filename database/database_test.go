package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/possibull/possiblejourney-sub000/config"
)

func TestInit_InMemory(t *testing.T) {
	config.AppConfig.Database.DSN = "memory"
	defer func() { config.AppConfig.Database.DSN = "" }()

	db, err := Init()
	assert.NoError(t, err)
	assert.NotNil(t, db)
}
