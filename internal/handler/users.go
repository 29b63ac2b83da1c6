package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hospital-portal/internal/middleware"
	"github.com/iliyamo/hospital-portal/internal/model"
	"github.com/iliyamo/hospital-portal/internal/repository"
)

// UserStore is the part of the Credential Store the CRUD endpoints use.
type UserStore interface {
	List(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, id uint64, upd repository.UserUpdate) (model.User, error)
	Delete(ctx context.Context, id uint64) error
}

// UserHandler serves the user listing and the role/name updates.
type UserHandler struct {
	Users UserStore
	Cache *middleware.ResponseCache
	Log   *slog.Logger
}

func NewUserHandler(users UserStore, cache *middleware.ResponseCache, log *slog.Logger) *UserHandler {
	return &UserHandler{Users: users, Cache: cache, Log: log}
}

type updateUserReq struct {
	Role      *string `json:"role"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
}

// List returns every user (without password hashes) and the total.
func (h *UserHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, err := h.Users.List(ctx)
	if err != nil {
		h.Log.Error("list users failed", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"total": len(users), "users": users})
}

// Update changes a user's role and/or names.
func (h *UserHandler) Update(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	var req updateUserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	upd := repository.UserUpdate{}
	if req.Role != nil {
		role := strings.ToLower(strings.TrimSpace(*req.Role))
		if !model.ValidRole(role) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid role"})
		}
		upd.Role = &role
	}
	if req.FirstName != nil {
		if v := strings.TrimSpace(*req.FirstName); v != "" {
			upd.FirstName = &v
		}
	}
	if req.LastName != nil {
		if v := strings.TrimSpace(*req.LastName); v != "" {
			upd.LastName = &v
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.Update(ctx, id, upd)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "User not found"})
		}
		h.Log.Error("update user failed", "user_id", id, "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Database error"})
	}
	h.Cache.Invalidate(ctx, "/users")
	return c.JSON(http.StatusOK, echo.Map{"message": "User updated successfully", "user": u})
}

// Delete removes a user.  Sessions held by the user fail on their next use.
func (h *UserHandler) Delete(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "User not found"})
		}
		h.Log.Error("delete user failed", "user_id", id, "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Database error"})
	}
	h.Cache.Invalidate(ctx, "/users")
	return c.JSON(http.StatusOK, echo.Map{"message": "User deleted successfully"})
}

func parseID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}
