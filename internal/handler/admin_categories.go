package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking/internal/model"
)

type categoryReq struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

func (r categoryReq) toModel() model.Category {
	return model.Category{
		Name:        strings.TrimSpace(r.Name),
		Description: strings.TrimSpace(r.Description),
		Color:       strings.TrimSpace(r.Color),
	}
}

func (h *AdminHandler) CreateCategory(c echo.Context) error {
	var req categoryReq
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid body")
	}
	cat := req.toModel()
	if cat.Name == "" {
		return errorJSON(c, http.StatusBadRequest, "name is required")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := h.Categories.Create(ctx, &cat); err != nil {
		return repoError(c, err, "category")
	}
	h.record(c, model.ActivityCategoryAdded, fmt.Sprintf("Category %q added", cat.Name))
	h.catalogChanged(c)
	return c.JSON(http.StatusCreated, cat)
}

func (h *AdminHandler) UpdateCategory(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid category id")
	}
	var req categoryReq
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid body")
	}
	cat := req.toModel()
	if cat.Name == "" {
		return errorJSON(c, http.StatusBadRequest, "name is required")
	}
	cat.ID = id
	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := h.Categories.Update(ctx, &cat); err != nil {
		return repoError(c, err, "category")
	}
	h.record(c, model.ActivityCategoryUpdated, fmt.Sprintf("Category %q updated", cat.Name))
	h.catalogChanged(c)
	return c.JSON(http.StatusOK, cat)
}

func (h *AdminHandler) DeleteCategory(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid category id")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := h.Categories.Delete(ctx, id); err != nil {
		return repoError(c, err, "category")
	}
	h.record(c, model.ActivityCategoryDeleted, fmt.Sprintf("Category %d deleted", id))
	h.catalogChanged(c)
	return c.JSON(http.StatusOK, echo.Map{"message": "category deleted"})
}
