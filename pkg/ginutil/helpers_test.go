package ginutil

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func testContext(target string, params ...gin.Param) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", target, nil)
	c.Params = params
	return c
}

func TestPagination(t *testing.T) {
	tests := []struct {
		target    string
		wantPage  int
		wantLimit int
	}{
		{"/pages", 1, 20},
		{"/pages?page=3&limit=50", 3, 50},
		{"/pages?page=0&limit=500", 1, 20},
		{"/pages?page=abc&limit=-1", 1, 20},
	}
	for _, tt := range tests {
		page, limit := Pagination(testContext(tt.target), 20, 100)
		assert.Equal(t, tt.wantPage, page, tt.target)
		assert.Equal(t, tt.wantLimit, limit, tt.target)
	}
}

func TestParamPositiveInt(t *testing.T) {
	v, err := ParamPositiveInt(testContext("/", gin.Param{Key: "version", Value: "4"}), "version")
	assert.NoError(t, err)
	assert.Equal(t, 4, v)

	_, err = ParamPositiveInt(testContext("/", gin.Param{Key: "version", Value: "0"}), "version")
	assert.Error(t, err)

	_, err = ParamPositiveInt(testContext("/", gin.Param{Key: "version", Value: "v1"}), "version")
	assert.Error(t, err)
}
