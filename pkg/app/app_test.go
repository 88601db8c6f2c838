package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nexdoc/doc-persist-service/pkg/code"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext(t *testing.T, url string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	c.Request = req
	return c, w
}

func TestGetPage(t *testing.T) {
	c, _ := testContext(t, "/api/documents?page=3")
	assert.Equal(t, 3, GetPage(c))

	c, _ = testContext(t, "/api/documents?page=-1")
	assert.Equal(t, 1, GetPage(c))

	c, _ = testContext(t, "/api/documents")
	assert.Equal(t, 1, GetPage(c))
}

func TestGetPageSizeWithConfig(t *testing.T) {
	cfg := PaginationConfig{DefaultPageSize: 20, MaxPageSize: 50}

	c, _ := testContext(t, "/api/documents?pageSize=30")
	assert.Equal(t, 30, GetPageSizeWithConfig(c, cfg))

	c, _ = testContext(t, "/api/documents?pageSize=999")
	assert.Equal(t, 50, GetPageSizeWithConfig(c, cfg))

	c, _ = testContext(t, "/api/documents")
	assert.Equal(t, 20, GetPageSizeWithConfig(c, cfg))
}

func TestGetPageOffset(t *testing.T) {
	assert.Equal(t, 0, GetPageOffset(1, 10))
	assert.Equal(t, 20, GetPageOffset(3, 10))
	assert.Equal(t, 0, GetPageOffset(0, 10))
}

func TestToResponse(t *testing.T) {
	c, w := testContext(t, "/api/documents/1")

	NewResponse(c).ToResponse(code.ErrorDocumentNotFound)

	assert.Equal(t, code.ErrorDocumentNotFound.StatusCode(), w.Code)

	var res Res
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, code.ErrorDocumentNotFound.Code(), res.Code)
	assert.False(t, res.Status)
}

func TestToResponseList(t *testing.T) {
	c, w := testContext(t, "/api/documents?page=2&pageSize=5")

	NewResponse(c).ToResponseList([]string{"a", "b"}, 12)

	assert.Equal(t, http.StatusOK, w.Code)

	var res Res
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, code.Success.Code(), res.Code)

	data, ok := res.Data.(map[string]interface{})
	require.True(t, ok)
	pager, ok := data["pager"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(2), pager["page"])
	assert.Equal(t, float64(5), pager["pageSize"])
	assert.Equal(t, float64(12), pager["totalRows"])
}
