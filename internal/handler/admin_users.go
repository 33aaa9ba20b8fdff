package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking/internal/middleware"
	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/repository"
	"github.com/iliyamo/cinema-booking/internal/utils"
)

type userReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Status   string `json:"status"`
}

// userFromReq validates the payload.  The password is required on create
// and optional on update.
func (h *AdminHandler) userFromReq(r userReq, create bool) (model.User, error) {
	u := model.User{
		Name:   strings.TrimSpace(r.Name),
		Email:  repository.NormalizeEmail(r.Email),
		Phone:  strings.TrimSpace(r.Phone),
		Role:   strings.ToLower(strings.TrimSpace(r.Role)),
		Status: strings.ToLower(strings.TrimSpace(r.Status)),
	}
	if u.Name == "" || u.Email == "" {
		return u, fmt.Errorf("name and email are required")
	}
	switch u.Role {
	case "":
		u.Role = model.RoleUser
	case model.RoleUser, model.RoleAdmin:
	default:
		return u, fmt.Errorf("role must be user or admin")
	}
	switch u.Status {
	case "":
		u.Status = model.UserActive
	case model.UserActive, model.UserInactive:
	default:
		return u, fmt.Errorf("status must be active or inactive")
	}
	if r.Password == "" && !create {
		return u, nil
	}
	if err := utils.CheckPassword(r.Password); err != nil {
		return u, err
	}
	hash, err := utils.HashPassword(r.Password, h.BcryptCost)
	if err != nil {
		return u, err
	}
	u.PasswordHash = hash
	return u, nil
}

func (h *AdminHandler) ListUsers(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	items, err := h.Users.List(ctx)
	if err != nil {
		return repoError(c, err, "user")
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

func (h *AdminHandler) CreateUser(c echo.Context) error {
	var req userReq
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid body")
	}
	u, err := h.userFromReq(req, true)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := h.Users.Create(ctx, &u); err != nil {
		return repoError(c, err, "user")
	}
	h.record(c, model.ActivityUserAdded, fmt.Sprintf("User %s added", u.Email))
	return c.JSON(http.StatusCreated, u)
}

func (h *AdminHandler) UpdateUser(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid user id")
	}
	var req userReq
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid body")
	}
	u, err := h.userFromReq(req, false)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}
	u.ID = id
	ctx, cancel := withTimeout(c)
	defer cancel()

	if _, err := h.Users.GetByID(ctx, id); err != nil {
		return repoError(c, err, "user")
	}
	if err := h.Users.Update(ctx, &u); err != nil {
		return repoError(c, err, "user")
	}
	h.record(c, model.ActivityUserUpdated, fmt.Sprintf("User %s updated", u.Email))
	return c.JSON(http.StatusOK, u)
}

// DeleteUser refuses to remove the caller or users that own bookings.
func (h *AdminHandler) DeleteUser(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid user id")
	}
	if uid, _ := middleware.UserID(c); uid == id {
		return errorJSON(c, http.StatusConflict, "cannot delete yourself")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := h.Users.Delete(ctx, id); err != nil {
		return repoError(c, err, "user")
	}
	h.record(c, model.ActivityUserDeleted, fmt.Sprintf("User %d deleted", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "user deleted"})
}
