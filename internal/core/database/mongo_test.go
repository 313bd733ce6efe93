package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMongoDatabaseName(t *testing.T) {
	assert.Equal(t, "mz", MongoDatabaseName("mongodb+srv://u:p@cluster0.example.net/mz?retryWrites=true", "other"))
	assert.Equal(t, "other", MongoDatabaseName("mongodb://localhost:27017", "other"))
	assert.Equal(t, "other", MongoDatabaseName("mongodb://localhost:27017/?tls=true", "other"))
	assert.Equal(t, "mangazone", MongoDatabaseName("mongodb://localhost:27017", ""))
}
