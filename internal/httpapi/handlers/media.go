package handlers

import (
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"videowall/internal/common"
	"videowall/internal/store/rabbitmq"
)

// View serves a generated file by name, mirroring the generation server's
// /view contract. type selects the output or input directory.
func (h *Handler) View(c *gin.Context) {
	filename := c.Query("filename")
	if filename == "" {
		c.String(http.StatusBadRequest, "缺少文件名参数")
		return
	}

	baseDir := h.Cfg.OutputDir
	if c.DefaultQuery("type", "output") != "output" {
		baseDir = h.Cfg.InputDir
	}
	if sub := c.Query("subfolder"); sub != "" {
		baseDir = filepath.Join(baseDir, sub)
	}

	// keep requests inside the media directories
	path := filepath.Join(baseDir, filename)
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		c.String(http.StatusInternalServerError, err.Error())
		return
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		c.String(http.StatusInternalServerError, err.Error())
		return
	}
	if absPath != absBase && !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		c.String(http.StatusBadRequest, "非法的文件路径")
		return
	}

	if _, err := os.Stat(absPath); err != nil {
		c.String(http.StatusNotFound, "文件不存在: %s", filename)
		return
	}

	if c.Query("preview") == "true" {
		c.File(absPath)
		return
	}
	c.FileAttachment(absPath, filename)
}

type mergeVideosReq struct {
	BatchID    string   `json:"batch_id"`
	VideoPaths []string `json:"video_paths"`
	Content    string   `json:"content"`
}

// MergeVideos queues a merge job for the worker. The merge result lands in
// batch_status once the worker finishes.
func (h *Handler) MergeVideos(c *gin.Context) {
	var req mergeVideosReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusOK, "无效的请求数据")
		return
	}
	if req.BatchID == "" || len(req.VideoPaths) == 0 {
		common.Fail(c, http.StatusOK, "缺少必要参数")
		return
	}

	err := h.Merge.PublishMerge(c.Request.Context(), rabbitmq.MergeMessage{
		BatchID:    req.BatchID,
		VideoPaths: req.VideoPaths,
		Content:    req.Content,
	})
	if err != nil {
		log.Printf("publish merge %s: %v", req.BatchID, err)
		common.Fail(c, http.StatusOK, "视频合并失败")
		return
	}
	common.OK(c, gin.H{
		"batch_id": req.BatchID,
		"message":  "合并任务已提交",
	})
}
