package middleware

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ExtractUintParam валидирует числовой path-параметр до входа в обработчик.
// Распарсенное значение кладется в контекст Gin под ключом contextKey,
// поэтому обработчики читают его через c.GetUint без повторного парсинга.
func ExtractUintParam(paramName, contextKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.Param(paramName)

		value, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":      fmt.Sprintf("Invalid %s: must be a non-negative integer", paramName),
				"error_type": "validation",
			})
			return
		}

		c.Set(contextKey, uint(value))
		c.Next()
	}
}
