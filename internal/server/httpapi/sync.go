package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/investsync/internal/server/services"
	"github.com/dmitrijs2005/investsync/internal/timex"
	"github.com/gin-gonic/gin"
)

func (h *Handler) serverTimestamp() string {
	return timex.ISO(h.svc.Sync.Now())
}

func (h *Handler) syncStatus(c *gin.Context) {
	status, err := h.svc.Sync.Status(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{"data": status})
}

func (h *Handler) syncPush(c *gin.Context) {
	var req services.PushRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.svc.Sync.Push(c.Request.Context(), currentUser(c).ID, req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{"synced": result, "serverTimestamp": h.serverTimestamp()})
}

func (h *Handler) syncPull(c *gin.Context) {
	since, err := queryInt64(c, "since")
	if err != nil {
		h.writeError(c, err)
		return
	}

	result, err := h.svc.Sync.Pull(c.Request.Context(), currentUser(c), since)
	if err != nil {
		h.writeError(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{"data": result, "serverTimestamp": h.serverTimestamp()})
}

// export returns the bare snapshot so the body can be saved and re-imported.
func (h *Handler) export(c *gin.Context) {
	archive := c.Query("archive") == "true"

	snapshot, err := h.svc.Sync.Export(c.Request.Context(), currentUser(c), archive)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// importData reports inserted record counts under imported; per-kind
// outcomes are in details.
func (h *Handler) importData(c *gin.Context) {
	var req services.ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.svc.Sync.Import(c.Request.Context(), currentUser(c).ID, req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{
		"imported": gin.H{
			"investments": result.Investments.Created,
			"configSites": result.ConfigSites.Created,
		},
		"failed":  result.Totals().Failed,
		"details": result,
	})
}
