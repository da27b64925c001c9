/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package httpapi

import (
	"errors"
	"net/http"
	"slices"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tomoncle/structure/pagination"
	"github.com/tomoncle/structure/query"
	"github.com/tomoncle/structure/translation"
	"github.com/tomoncle/structure/utils"
)

var log = utils.NewLogger("HTTPAPI")

// Source is the part of a repository a listing needs.
type Source[T any] interface {
	Pager(c query.Criteria, maxPerPage, currentPage int) (*pagination.Pager[T], error)
	Translator() *translation.Translator
}

// ListConfig bounds what a client may ask for. An empty Fields list allows
// any field reference in filter[], like[] and sort; expressions are always
// rejected.
type ListConfig struct {
	DefaultLimit int
	MaxLimit     int
	Fields       []string
	DefaultSort  query.Sort
}

func DefaultListConfig() ListConfig {
	return ListConfig{DefaultLimit: 20, MaxLimit: 100}
}

// ListHandler serves GET listings:
//
//	?page=2&limit=10&sort=name,-created_at&filter[status]=active&like[name]=Go%25&locale=fr
//
// Bad numbers and unknown fields answer 400, a page past the end 404.
func ListHandler[T any](src Source[T], cfg ListConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := intParam(c, "page", 1)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		limit, err := intParam(c, "limit", cfg.DefaultLimit)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if cfg.MaxLimit > 0 && limit > cfg.MaxLimit {
			limit = cfg.MaxLimit
		}

		criteria, err := parseCriteria(c, cfg)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		pager, err := src.Pager(criteria, limit, page)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		ctx := c.Request.Context()
		result, err := pager.ToPagination(ctx)
		if err != nil {
			writeError(c, err)
			return
		}
		if err := translation.Apply(ctx, src.Translator(), c.Query("locale"), result.Items); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func parseCriteria(c *gin.Context, cfg ListConfig) (query.Criteria, error) {
	var criteria query.Criteria

	filters := c.QueryMap("filter")
	for _, field := range sortedKeys(filters) {
		if !allowed(cfg, field) {
			return criteria, fieldError("filter", field)
		}
		criteria.Conditions = criteria.Conditions.And(field, filters[field])
	}

	likes := c.QueryMap("like")
	for _, field := range sortedKeys(likes) {
		if !allowed(cfg, field) {
			return criteria, fieldError("like", field)
		}
		if criteria.Extras == nil {
			criteria.Extras = &query.Extras{}
		}
		criteria.Extras.Likes = append(criteria.Extras.Likes, query.Condition{Field: field, Value: likes[field]})
	}

	criteria.Sort = cfg.DefaultSort
	if s := c.Query("sort"); s != "" {
		criteria.Sort = query.ParseSort(s)
		for _, o := range criteria.Sort {
			if !allowed(cfg, o.Field) {
				return criteria, fieldError("sort", o.Field)
			}
		}
	}
	return criteria, nil
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, pagination.ErrOutOfRangeCurrentPage):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		log.WithError(err).WithField("path", c.FullPath()).Error("listing failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func intParam(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New("invalid " + name + ": " + raw)
	}
	return v, nil
}

func allowed(cfg ListConfig, field string) bool {
	if !query.IsFieldRef(field) {
		return false
	}
	return len(cfg.Fields) == 0 || slices.Contains(cfg.Fields, field)
}

func fieldError(param, field string) error {
	return errors.New("field not allowed in " + param + ": " + field)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
