package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"videowall/internal/common"
)

// TaskStatus returns the merged active and completed task map. The monitor
// wall polls this endpoint.
func (h *Handler) TaskStatus(c *gin.Context) {
	tasks, err := h.Store.AllTasks(c.Request.Context())
	if err != nil {
		log.Printf("fetch task status: %v", err)
		common.Fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// TaskStatusByID returns a single task record.
func (h *Handler) TaskStatusByID(c *gin.Context) {
	id := c.Param("task_id")
	rec, ok, err := h.Store.GetTask(c.Request.Context(), id)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		common.Fail(c, http.StatusNotFound, "任务不存在")
		return
	}
	c.JSON(http.StatusOK, rec)
}

// DeleteTask drops a task from every redis structure. Deleting an id the
// store does not know still succeeds.
func (h *Handler) DeleteTask(c *gin.Context) {
	id := c.Param("task_id")
	if err := h.Store.Delete(c.Request.Context(), id); err != nil {
		log.Printf("delete task %s: %v", id, err)
		common.Fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	common.OK(c, gin.H{"message": "任务已删除"})
}
