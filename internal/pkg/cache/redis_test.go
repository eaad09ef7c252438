package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateKey(t *testing.T) {
	c := &redisCache{serviceName: "order-service"}
	assert.Equal(t, "order-service:create-order:abc", c.GenerateKey("create-order", "abc"))
	assert.Equal(t, GenerateKey("order-service", "create-order", "abc"), c.GenerateKey("create-order", "abc"))
}
