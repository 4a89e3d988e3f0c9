package handlers

import (
	"net/http"
	"strconv"

	"finance_tracker/internal/service"

	"github.com/gin-gonic/gin"
)

type categoryCreateRequest struct {
	Name        string  `json:"name" binding:"required,max=100" example:"Groceries"`
	Description *string `json:"description" binding:"omitempty,max=500"`
	Icon        string  `json:"icon" binding:"omitempty,max=50" example:"cart"`
}

type categoryUpdateRequest struct {
	Name        *string `json:"name" binding:"omitempty,max=100"`
	Description *string `json:"description" binding:"omitempty,max=500"`
	Icon        *string `json:"icon" binding:"omitempty,max=50"`
}

// pageQuery is skip/limit pagination shared by list endpoints.
type pageQuery struct {
	Skip  int `form:"skip" binding:"min=0"`
	Limit int `form:"limit" binding:"omitempty,min=1,max=1000"`
}

func (q pageQuery) page() service.Page {
	return service.Page{Skip: q.Skip, Limit: q.Limit}
}

// parseID reads the :id path parameter. It writes a 400 and returns false
// when the value is not a positive integer.
func (h *Handler) parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		h.logAndJSONError(c, http.StatusBadRequest, errInvalidID, "bad_path_id", err, "id", c.Param("id"))
		return 0, false
	}
	return id, true
}

// bindQueryOrBadRequest is the query-string twin of bindJSONOrBadRequest.
func (h *Handler) bindQueryOrBadRequest(c *gin.Context, dst any) bool {
	if err := c.ShouldBindQuery(dst); err != nil {
		h.logAndJSONError(c, http.StatusBadRequest, errInvalidQuery+err.Error(), "bad_request_query", err)
		return false
	}
	return true
}

// @Summary      Create category
// @Tags         categories
// @Accept       json
// @Produce      json
// @Param        body  body      categoryCreateRequest  true  "Category"
// @Success      201   {object}  models.Category
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /api/v1/categories [post]
// @Security     BearerAuth
func (h *Handler) createCategory(c *gin.Context) {
	var req categoryCreateRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}

	cat, err := h.services.CreateCategory(c.Request.Context(), currentUser(c), service.CategoryInput{
		Name:        req.Name,
		Description: req.Description,
		Icon:        req.Icon,
	})
	if err != nil {
		h.fail(c, err, "category_create_failed")
		return
	}
	c.JSON(http.StatusCreated, cat)
}

// @Summary      List categories
// @Tags         categories
// @Produce      json
// @Param        skip   query     int  false  "Offset"
// @Param        limit  query     int  false  "Page size (max 1000)"
// @Success      200    {array}   models.Category
// @Failure      401    {object}  map[string]string
// @Router       /api/v1/categories [get]
// @Security     BearerAuth
func (h *Handler) listCategories(c *gin.Context) {
	var q pageQuery
	if ok := h.bindQueryOrBadRequest(c, &q); !ok {
		return
	}

	cats, err := h.services.ListCategories(c.Request.Context(), currentUser(c), q.page())
	if err != nil {
		h.fail(c, err, "category_list_failed")
		return
	}
	c.JSON(http.StatusOK, cats)
}

// @Summary      Get category
// @Tags         categories
// @Produce      json
// @Param        id   path      int  true  "Category id"
// @Success      200  {object}  models.Category
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/categories/{id} [get]
// @Security     BearerAuth
func (h *Handler) getCategory(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	cat, err := h.services.GetCategory(c.Request.Context(), currentUser(c), id)
	if err != nil {
		h.fail(c, err, "category_get_failed", "id", id)
		return
	}
	c.JSON(http.StatusOK, cat)
}

// @Summary      Update category
// @Tags         categories
// @Accept       json
// @Produce      json
// @Param        id    path      int                    true  "Category id"
// @Param        body  body      categoryUpdateRequest  true  "Fields to change"
// @Success      200   {object}  models.Category
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/v1/categories/{id} [put]
// @Security     BearerAuth
func (h *Handler) updateCategory(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	var req categoryUpdateRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}

	cat, err := h.services.UpdateCategory(c.Request.Context(), currentUser(c), id, service.CategoryPatch{
		Name:        req.Name,
		Description: req.Description,
		Icon:        req.Icon,
	})
	if err != nil {
		h.fail(c, err, "category_update_failed", "id", id)
		return
	}
	c.JSON(http.StatusOK, cat)
}

// @Summary      Delete category
// @Description  Transactions in the category keep existing without a category.
// @Tags         categories
// @Param        id   path  int  true  "Category id"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/categories/{id} [delete]
// @Security     BearerAuth
func (h *Handler) deleteCategory(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	if err := h.services.DeleteCategory(c.Request.Context(), currentUser(c), id); err != nil {
		h.fail(c, err, "category_delete_failed", "id", id)
		return
	}
	c.Status(http.StatusNoContent)
}
