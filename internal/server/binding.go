package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// fieldMessages maps "Field.tag" to the message shown to the client.
type fieldMessages map[string]string

func bindJSON(c *gin.Context, req any, messages fieldMessages, fallback string) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindMessage(err, messages, fallback)})
		return false
	}
	return true
}

func bindURI(c *gin.Context, req any) bool {
	if err := c.ShouldBindUri(req); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Game not found"})
		return false
	}
	return true
}

func bindMessage(err error, messages fieldMessages, fallback string) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, verr := range verrs {
			if msg, ok := messages[verr.Field()+"."+verr.Tag()]; ok {
				return msg
			}
		}
		return fallback
	}
	var syntax *json.SyntaxError
	if errors.As(err, &syntax) {
		return "Malformed JSON body"
	}
	return fallback
}
