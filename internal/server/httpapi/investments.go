package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/investsync/internal/common"
	"github.com/dmitrijs2005/investsync/internal/server/models"
	"github.com/gin-gonic/gin"
)

type bulkRequest struct {
	Records []models.InvestmentInput `json:"records"`
}

// queryInt64 returns nil when the parameter is absent.
func queryInt64(c *gin.Context, name string) (*int64, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be an integer", common.ErrValidation, name)
	}
	return &v, nil
}

func queryInt(c *gin.Context, name string, def int) (int, error) {
	v, err := queryInt64(c, name)
	if err != nil {
		return 0, err
	}
	if v == nil {
		return def, nil
	}
	return int(*v), nil
}

func (h *Handler) listInvestments(c *gin.Context) {
	filter := models.InvestmentFilter{Entity: c.Query("entity")}

	var (
		page models.Page
		err  error
	)
	if filter.DateFrom, err = queryInt64(c, "dateFrom"); err != nil {
		h.writeError(c, err)
		return
	}
	if filter.DateTo, err = queryInt64(c, "dateTo"); err != nil {
		h.writeError(c, err)
		return
	}
	if page.Limit, err = queryInt(c, "limit", common.MaxPageSize); err != nil {
		h.writeError(c, err)
		return
	}
	if page.Offset, err = queryInt(c, "offset", 0); err != nil {
		h.writeError(c, err)
		return
	}

	items, pagination, err := h.svc.Investments.List(c.Request.Context(), currentUser(c).ID, filter, page)
	if err != nil {
		h.writeError(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{"data": items, "pagination": pagination})
}

func (h *Handler) createInvestment(c *gin.Context) {
	var in models.InvestmentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}

	id, isUpdate, err := h.svc.Investments.Create(c.Request.Context(), currentUser(c).ID, in)
	if err != nil {
		h.writeError(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{"data": gin.H{"id": id}, "isUpdate": isUpdate})
}

func (h *Handler) bulkInvestments(c *gin.Context) {
	var req bulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	stats, err := h.svc.Investments.Bulk(c.Request.Context(), currentUser(c).ID, req.Records)
	if err != nil {
		h.writeError(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{"summary": stats})
}

func (h *Handler) updateInvestment(c *gin.Context) {
	var patch models.InvestmentPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}

	inv, err := h.svc.Investments.Update(c.Request.Context(), currentUser(c).ID, c.Param("id"), patch)
	if err != nil {
		h.writeError(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{"data": inv})
}

func (h *Handler) deleteInvestment(c *gin.Context) {
	if err := h.svc.Investments.Delete(c.Request.Context(), currentUser(c).ID, c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{"message": "investment deleted"})
}

func (h *Handler) deleteAllInvestments(c *gin.Context) {
	n, err := h.svc.Investments.DeleteAll(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{"deleted": n})
}
