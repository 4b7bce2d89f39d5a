package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/investsync/internal/server/models"
	"github.com/gin-gonic/gin"
)

func (h *Handler) listSites(c *gin.Context) {
	sites, err := h.svc.Sites.List(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{"data": sites})
}

func (h *Handler) createSite(c *gin.Context) {
	var in models.SiteConfigInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}

	site, isUpdate, err := h.svc.Sites.Create(c.Request.Context(), currentUser(c).ID, in)
	if err != nil {
		h.writeError(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{"data": site, "isUpdate": isUpdate})
}

func (h *Handler) updateSite(c *gin.Context) {
	var patch models.SiteConfigPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}

	site, err := h.svc.Sites.Update(c.Request.Context(), currentUser(c).ID, c.Param("id"), patch)
	if err != nil {
		h.writeError(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{"data": site})
}

func (h *Handler) deleteSite(c *gin.Context) {
	if err := h.svc.Sites.Delete(c.Request.Context(), currentUser(c).ID, c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{"message": "site config deleted"})
}

func (h *Handler) getPreferences(c *gin.Context) {
	prefs, err := h.svc.Preferences.Get(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{"data": prefs})
}

func (h *Handler) updatePreferences(c *gin.Context) {
	var patch models.PreferencesPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}

	prefs, err := h.svc.Preferences.Update(c.Request.Context(), currentUser(c).ID, patch)
	if err != nil {
		h.writeError(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{"data": prefs})
}
