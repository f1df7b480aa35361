package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/recordbook/recordbook/internal/person"
	"github.com/recordbook/recordbook/internal/person/service"
	"github.com/stretchr/testify/require"
)

func do(g *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	g.ServeHTTP(w, req)
	return w
}

func newEngine(guard ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	g := gin.New()
	RegisterPersonRoutes(g, service.NewMemoryService(), guard...)
	return g
}

func TestPersonHandler_CRUD(t *testing.T) {
	g := newEngine()

	w := do(g, http.MethodPost, "/person", `{"firstName":"Amy","age":30,"addresses":[{"city":"Austin"}]}`)
	require.Equal(t, http.StatusOK, w.Code)
	var cr map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cr))
	id := cr["personId"]
	require.NotEmpty(t, id)

	w = do(g, http.MethodGet, "/person/"+id, "")
	require.Equal(t, http.StatusOK, w.Code)
	var p person.Person
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	require.Equal(t, "Amy", p.FirstName)
	require.Equal(t, "Austin", p.Addresses[0].City)

	w = do(g, http.MethodGet, "/person?name=Am", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []person.Person
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)

	w = do(g, http.MethodDelete, "/person/"+id, "")
	require.Equal(t, http.StatusNoContent, w.Code)

	w = do(g, http.MethodGet, "/person/"+id, "")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestPersonHandler_SearchAndReports(t *testing.T) {
	g := newEngine()
	for _, body := range []string{
		`{"firstName":"Amy","age":30,"addresses":[{"city":"Austin"}]}`,
		`{"firstName":"Bo","age":45,"addresses":[{"city":"Austin"}]}`,
		`{"firstName":"Cy","age":50,"addresses":[{"city":"Dallas"}]}`,
	} {
		require.Equal(t, http.StatusOK, do(g, http.MethodPost, "/person", body).Code)
	}

	w := do(g, http.MethodGet, "/person/search?city=Austin&minAge=40&maxAge=50&size=1&sort=age,desc", "")
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Content       []person.Person `json:"content"`
		TotalElements int64           `json:"totalElements"`
		TotalPages    int             `json:"totalPages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.EqualValues(t, 1, page.TotalElements)
	require.Equal(t, "Bo", page.Content[0].FirstName)

	w = do(g, http.MethodGet, "/person/search?minAge=abc", "")
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = do(g, http.MethodGet, "/person/search?sort=addresses", "")
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = do(g, http.MethodGet, "/person/populationByCity", "")
	require.Equal(t, http.StatusOK, w.Code)
	var pop []person.CityPopulation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pop))
	require.Equal(t, []person.CityPopulation{{City: "Austin", Count: 2}, {City: "Dallas", Count: 1}}, pop)

	w = do(g, http.MethodGet, "/person/oldestPerson", "")
	require.Equal(t, http.StatusOK, w.Code)
	var oldest []person.CityOldest
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &oldest))
	require.Len(t, oldest, 2)

	w = do(g, http.MethodGet, "/person/age?minAge=29&maxAge=46", "")
	require.Equal(t, http.StatusOK, w.Code)
	var aged []person.Person
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &aged))
	require.Len(t, aged, 2)

	w = do(g, http.MethodGet, "/person/age?minAge=29", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPersonHandler_GuardOnlyOnWrites(t *testing.T) {
	deny := func(c *gin.Context) { c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "denied"}) }
	g := newEngine(deny)

	require.Equal(t, http.StatusUnauthorized, do(g, http.MethodPost, "/person", `{"firstName":"X"}`).Code)
	require.Equal(t, http.StatusUnauthorized, do(g, http.MethodDelete, "/person/x", "").Code)
	require.Equal(t, http.StatusOK, do(g, http.MethodGet, "/person/populationByCity", "").Code)
}
