package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func pageContext(t *testing.T, query string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?"+query, nil)
	return c
}

func TestParsePageParams(t *testing.T) {
	c := pageContext(t, "page=3&page_size=50&ordering=-priority")
	params := ParsePageParams(c, "name")
	assert.Equal(t, 3, params.Page)
	assert.Equal(t, 50, params.PageSize)
	assert.Equal(t, "-priority", params.Ordering)
}

func TestParsePageParamsDefaults(t *testing.T) {
	c := pageContext(t, "")
	params := ParsePageParams(c, "name")
	assert.Equal(t, 1, params.Page)
	assert.Equal(t, 20, params.PageSize)
	assert.Equal(t, "name", params.Ordering)
}

func TestParsePageParamsClampsSize(t *testing.T) {
	c := pageContext(t, "page=0&page_size=500")
	params := ParsePageParams(c, "")
	assert.Equal(t, 1, params.Page)
	assert.Equal(t, 100, params.PageSize)
}

func TestOrderClause(t *testing.T) {
	allowed := map[string]string{
		"priority":    "priority",
		"required_by": "required_by",
	}

	assert.Equal(t, "priority DESC", OrderClause("-priority", allowed, "id ASC"))
	assert.Equal(t, "priority ASC, required_by DESC", OrderClause("priority,-required_by", allowed, "id ASC"))

	// unknown fields are dropped, never interpolated
	assert.Equal(t, "id ASC", OrderClause("password; DROP TABLE users", allowed, "id ASC"))
	assert.Equal(t, "id ASC", OrderClause("", allowed, "id ASC"))
	assert.Equal(t, "priority ASC", OrderClause("priority,unknown", allowed, "id ASC"))
}
