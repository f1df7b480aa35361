package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/recordbook/recordbook/internal/person"
	"github.com/recordbook/recordbook/internal/person/query"
	"github.com/recordbook/recordbook/internal/person/service"
)

// RegisterPersonRoutes mounts the person API on r. Write routes get the
// extra middleware (typically auth) in guard.
func RegisterPersonRoutes(r gin.IRouter, svc *service.Service, guard ...gin.HandlerFunc) {
	g := r.Group("/person")

	g.POST("", chain(guard, func(c *gin.Context) {
		var p person.Person
		if err := c.ShouldBindJSON(&p); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		id, err := svc.Save(c.Request.Context(), &p)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"personId": id})
	})...)

	g.GET("", func(c *gin.Context) {
		var (
			list []*person.Person
			err  error
		)
		if name, ok := c.GetQuery("name"); ok {
			list, err = svc.GetPersonStartWith(c.Request.Context(), name)
		} else {
			list, err = svc.GetAll(c.Request.Context())
		}
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	})

	g.GET("/age", func(c *gin.Context) {
		minAge, err1 := strconv.Atoi(c.Query("minAge"))
		maxAge, err2 := strconv.Atoi(c.Query("maxAge"))
		if err1 != nil || err2 != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "minAge and maxAge must be integers"})
			return
		}
		list, err := svc.GetByPersonAge(c.Request.Context(), minAge, maxAge)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	})

	g.GET("/search", func(c *gin.Context) {
		crit := query.Criteria{Name: c.Query("name"), City: c.Query("city")}
		var err error
		if crit.MinAge, err = optionalInt(c, "minAge"); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if crit.MaxAge, err = optionalInt(c, "maxAge"); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		pg := person.Pageable{Sort: query.ParseSort(c.QueryArray("sort"))}
		if pg.Page, err = intOr(c, "page", 0); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if pg.Size, err = intOr(c, "size", person.DefaultPageSize); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		page, err := svc.Search(c.Request.Context(), crit, pg)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"content":       page.Items,
			"totalElements": page.Total,
			"totalPages":    page.TotalPages(),
			"number":        page.Page,
			"size":          page.Size,
		})
	})

	g.GET("/oldestPerson", func(c *gin.Context) {
		rows, err := svc.GetOldestPersonByCity(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, rows)
	})

	g.GET("/populationByCity", func(c *gin.Context) {
		rows, err := svc.GetPopulationByCity(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, rows)
	})

	g.GET("/:id", func(c *gin.Context) {
		p, err := svc.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	})

	g.DELETE("/:id", chain(guard, func(c *gin.Context) {
		if err := svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})...)
}

func chain(guard []gin.HandlerFunc, h gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(guard)+1)
	return append(append(out, guard...), h)
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, person.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, query.ErrUnknownSortField):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "data access failure"})
	}
}

// optionalInt returns nil when the parameter is absent or blank.
func optionalInt(c *gin.Context, key string) (*int, error) {
	v := c.Query(key)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, errors.New(key + " must be an integer")
	}
	return &n, nil
}

func intOr(c *gin.Context, key string, def int) (int, error) {
	n, err := optionalInt(c, key)
	if err != nil || n == nil {
		return def, err
	}
	return *n, nil
}
