package router

import (
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"mangazone-api/internal/transport/http/ez"
)

type orderProbe struct {
	name  string
	prio  int
	order *[]string
}

func (p orderProbe) Priority() int { return p.prio }

func (p orderProbe) MountAPI(api ez.EZ) { *p.order = append(*p.order, "api:"+p.name) }

type adminOnly struct{ order *[]string }

func (a adminOnly) MountAdmin(ez.EZ) { *a.order = append(*a.order, "admin") }

func TestRegistry_Order(t *testing.T) {
	var order []string
	reg := &Registry{}
	reg.Add(
		orderProbe{name: "late", prio: 50, order: &order},
		adminOnly{order: &order},
		orderProbe{name: "early", prio: 5, order: &order},
		"not a module",
	)

	gin.SetMode(gin.TestMode)
	e := ez.New(gin.New().Group("/"), zap.NewNop(), false)
	reg.MountAPI(e)
	reg.MountAdmin(e)

	assert.Equal(t, []string{"api:early", "api:late", "admin"}, order)
}

func TestRegistry_DefaultPriority(t *testing.T) {
	assert.Equal(t, 100, priorityOf(adminOnly{}))
	assert.Equal(t, 7, priorityOf(orderProbe{prio: 7}))
}
