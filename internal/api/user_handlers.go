package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lmehdi/libraryms-server/internal/apperrors"
	"github.com/lmehdi/libraryms-server/internal/models"
)

func (h *Handler) SignUp(c *gin.Context) {
	var req models.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, apperrors.InvalidInput("user", err.Error()))
		return
	}

	resp, err := h.svc.SignUp(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, apperrors.InvalidInput("user", err.Error()))
		return
	}

	resp, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		// Invalid credentials are reported as unauthorized, not 400
		h.respondErrorStatus(c, err, http.StatusUnauthorized)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) GetAllUsers(c *gin.Context) {
	users, err := h.svc.GetAllUsers(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, users)
}

func (h *Handler) GetUser(c *gin.Context) {
	user, err := h.svc.GetUser(c.Request.Context(), c.Param("username"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *Handler) UpdateUser(c *gin.Context) {
	var req models.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, apperrors.InvalidInput("user", err.Error()))
		return
	}

	user, err := h.svc.UpdateUser(c.Request.Context(), c.Param("username"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *Handler) DeleteUser(c *gin.Context) {
	deleted, err := h.svc.DeleteUser(c.Request.Context(), c.Param("username"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.DeleteResponse{Status: "success", Deleted: deleted})
}
