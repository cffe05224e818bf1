package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

type testVoiceReq struct {
	Speaker string  `json:"speaker"`
	Speed   float64 `json:"speed"`
	Volume  float64 `json:"volume"`
}

// TestVoice synthesizes the fixed preview phrase with the requested voice
// settings and returns the audio URL.
func (h *Handler) TestVoice(c *gin.Context) {
	var req testVoiceReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, gin.H{"error": "无效的请求数据"})
		return
	}
	if req.Speed == 0 {
		req.Speed = 1
	}
	if req.Volume == 0 {
		req.Volume = 100
	}

	audioURL, err := h.TTS.TestVoice(c.Request.Context(), req.Speaker, req.Speed, req.Volume)
	if err != nil {
		log.Printf("test voice: %v", err)
		c.JSON(http.StatusOK, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "success",
		"audioUrl": audioURL,
	})
}
