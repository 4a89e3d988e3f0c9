package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"finance_tracker/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	importFileField = "file"
	errImportFile   = "A JSON file is required in form field \"file\""
)

type userUpdateRequest struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
	IsActive *bool   `json:"is_active"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// @Summary      Current user
// @Tags         users
// @Produce      json
// @Success      200  {object}  models.User
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/users/me [get]
// @Security     BearerAuth
func (h *Handler) getMe(c *gin.Context) {
	u, err := h.services.GetProfile(c.Request.Context(), currentUser(c))
	if err != nil {
		h.fail(c, err, "user_get_failed")
		return
	}
	c.JSON(http.StatusOK, u)
}

// @Summary      Update current user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      userUpdateRequest  true  "Fields to change"
// @Success      200   {object}  models.User
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /api/v1/users/me [put]
// @Security     BearerAuth
func (h *Handler) updateMe(c *gin.Context) {
	var req userUpdateRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}

	u, err := h.services.UpdateProfile(c.Request.Context(), currentUser(c), service.UserPatch{
		Username: req.Username,
		Password: req.Password,
		IsActive: req.IsActive,
	})
	if err != nil {
		h.fail(c, err, "user_update_failed")
		return
	}
	c.JSON(http.StatusOK, u)
}

// @Summary      Delete current user
// @Description  Deletes the account with its categories, transactions and sessions.
// @Tags         users
// @Success      204
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/users/me [delete]
// @Security     BearerAuth
func (h *Handler) deleteMe(c *gin.Context) {
	if err := h.services.DeleteAccount(c.Request.Context(), currentUser(c)); err != nil {
		h.fail(c, err, "user_delete_failed")
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary      Export data
// @Tags         users
// @Produce      json
// @Success      200  {object}  models.ExportDocument
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/users/me/export [get]
// @Security     BearerAuth
func (h *Handler) exportData(c *gin.Context) {
	doc, err := h.services.ExportData(c.Request.Context(), currentUser(c))
	if err != nil {
		h.fail(c, err, "user_export_failed")
		return
	}

	name := fmt.Sprintf("finance-export-%s-%s.json", safeFilePart(doc.User.Username), doc.ExportDate.Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.JSON(http.StatusOK, doc)
}

// @Summary      Import data
// @Tags         users
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "Export JSON file"
// @Success      200   {object}  models.ImportResult
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /api/v1/users/me/import [post]
// @Security     BearerAuth
func (h *Handler) importData(c *gin.Context) {
	fh, err := c.FormFile(importFileField)
	if err != nil {
		h.logAndJSONError(c, http.StatusBadRequest, errImportFile, "user_import_no_file", err)
		return
	}
	f, err := fh.Open()
	if err != nil {
		h.logAndJSONError(c, http.StatusBadRequest, errImportFile, "user_import_open_failed", err)
		return
	}
	defer f.Close()

	res, err := h.services.ImportData(c.Request.Context(), currentUser(c), f)
	if err != nil {
		h.fail(c, err, "user_import_failed")
		return
	}
	c.JSON(http.StatusOK, res)
}

// safeFilePart keeps letters, digits, '-' and '_' of s.
func safeFilePart(s string) string {
	out := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return -1
	}, s)
	if out == "" {
		return "user"
	}
	return out
}
