package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"
)

const qrSize = 256

type codeURI struct {
	Code string `uri:"code" binding:"required,roomcode"`
}

func (s *Server) handleQRCode(c *gin.Context) {
	var req codeURI
	if !bindURI(c, &req) {
		return
	}
	session, err := s.registry.Lookup(c.Request.Context(), req.Code)
	if err != nil {
		s.writeGameError(c, err, "Failed to render code")
		return
	}
	png, err := qrcode.Encode(s.joinURL(session.Code()), qrcode.Medium, qrSize)
	if err != nil {
		s.writeGameError(c, err, "Failed to render code")
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}

func (s *Server) joinURL(code string) string {
	return s.cfg.PublicBaseURL + "/join/" + code
}
