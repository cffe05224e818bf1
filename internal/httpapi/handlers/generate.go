package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"videowall/internal/common"
	"videowall/internal/video"
)

type generatePromptsReq struct {
	Content     string `json:"content"`
	Style       string `json:"style"`
	Model       string `json:"model"`
	NumSegments int    `json:"num_segments"`
}

// GeneratePrompts splits copy into per-segment generation prompts.
func (h *Handler) GeneratePrompts(c *gin.Context) {
	var req generatePromptsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusOK, "无效的请求数据")
		return
	}
	if req.Content == "" {
		common.Fail(c, http.StatusOK, "缺少必要参数")
		return
	}

	prompts, err := h.Prompts.Generate(c.Request.Context(), req.Content, req.Style, req.Model, req.NumSegments)
	if err != nil {
		log.Printf("generate prompts: %v", err)
		common.Fail(c, http.StatusOK, err.Error())
		return
	}
	common.OK(c, gin.H{"prompts": prompts})
}

type generateVideoReq struct {
	Prompt        string `json:"prompt"`
	Model         string `json:"model"`
	BatchID       string `json:"batch_id"`
	SegmentIndex  *int   `json:"segment_index"`
	TotalSegments int    `json:"total_segments"`
	Content       string `json:"content"`
}

// GenerateVideo submits one segment to the generation server.
func (h *Handler) GenerateVideo(c *gin.Context) {
	var req generateVideoReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusOK, "无效的请求数据")
		return
	}
	if req.Prompt == "" || req.Model == "" {
		common.Fail(c, http.StatusOK, "缺少必要参数")
		return
	}

	promptID, err := h.Gen.Submit(c.Request.Context(), video.SubmitRequest{
		Prompt:        req.Prompt,
		Model:         req.Model,
		Content:       req.Content,
		BatchID:       req.BatchID,
		SegmentIndex:  req.SegmentIndex,
		TotalSegments: req.TotalSegments,
	})
	if err != nil {
		log.Printf("generate video: %v", err)
		common.Fail(c, http.StatusOK, "视频生成失败")
		return
	}
	common.OK(c, gin.H{
		"prompt_id": promptID,
		"status":    "pending",
		"message":   "视频生成任务已提交",
	})
}

type generateVideosReq struct {
	Prompts  []string `json:"prompts"`
	Model    string   `json:"model"`
	TestMode bool     `json:"test_mode"`
}

// GenerateVideos submits a prompt batch in one call. With test_mode the
// tasks are simulated instead of sent to the generation server.
func (h *Handler) GenerateVideos(c *gin.Context) {
	var req generateVideosReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusOK, "无效的请求数据")
		return
	}
	if len(req.Prompts) == 0 {
		common.Fail(c, http.StatusOK, "提示词列表为空")
		return
	}
	if req.Model == "" {
		common.Fail(c, http.StatusOK, "未指定模型")
		return
	}

	submitter := h.Gen
	if req.TestMode {
		submitter = h.Mock
	}

	clientID := uuid.NewString()
	batchID := uuid.NewString()
	total := len(req.Prompts)

	tasks := make([]gin.H, 0, total)
	for i, prompt := range req.Prompts {
		idx := i
		promptID, err := submitter.Submit(c.Request.Context(), video.SubmitRequest{
			Prompt:        prompt,
			Model:         req.Model,
			BatchID:       batchID,
			SegmentIndex:  &idx,
			TotalSegments: total,
			ClientID:      clientID,
		})
		if err != nil {
			log.Printf("generate video segment %d: %v", i+1, err)
			common.Fail(c, http.StatusOK, "视频生成失败")
			return
		}
		tasks = append(tasks, gin.H{"prompt_id": promptID, "prompt": prompt})
	}

	common.OK(c, gin.H{
		"tasks":     tasks,
		"batch_id":  batchID,
		"client_id": clientID,
	})
}

// testPrompts is the canned set used when exercising the wall without an
// AI provider.
var testPrompts = []string{
	"清晨的古镇小巷，青石板路上薄雾弥漫，一位老人提着灯笼缓缓走过，暖黄的光晕映照着斑驳的砖墙",
	"午后的湖面波光粼粼，一叶扁舟划过水面，远处青山如黛，白鹭掠过芦苇丛，留下一圈圈涟漪",
	"夜晚的城市天台，霓虹灯光在雨后的地面上倒映成流动的色彩，一只猫沿着栏杆轻盈地走过",
}

// TestPrompts returns the canned prompt set.
func (h *Handler) TestPrompts(c *gin.Context) {
	common.OK(c, gin.H{"prompts": testPrompts})
}

// TestConnection probes the generation server and reports reachability.
func (h *Handler) TestConnection(c *gin.Context) {
	if err := h.Comfy.TestConnection(c.Request.Context()); err != nil {
		c.JSON(http.StatusOK, gin.H{
			"status":  "error",
			"message": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "connected",
		"message": "Successfully connected to ComfyUI server",
	})
}
