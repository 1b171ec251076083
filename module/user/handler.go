package user

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"campusmatch/logger"
	sec "campusmatch/tools/security"
)

// The actual account store lives in the profile service; this endpoint
// only exchanges an already-validated identity for a gateway token so the
// realtime subsystem is runnable on its own.
type loginRequest struct {
	UserID      string `json:"userId" binding:"required"`
	DisplayName string `json:"displayName"`
}

func HandlerLogin(opts sec.Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
			return
		}
		token, exp, err := sec.Generate(opts, req.UserID, req.DisplayName)
		if err != nil {
			logger.Errorf("[login] token generate user=%s: %v", req.UserID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token generation failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"token":    token,
			"expireAt": exp.UnixMilli(),
			"user": gin.H{
				"id":   req.UserID,
				"name": req.DisplayName,
			},
		})
	}
}
