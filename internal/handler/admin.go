package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinema-booking/internal/middleware"
	"github.com/iliyamo/cinema-booking/internal/model"
)

// AdminHandler bundles the catalog stores and the ledger for the admin
// API.  Purge, when set, drops cached public responses after a catalog
// write.
type AdminHandler struct {
	Movies     MovieStore
	Categories CategoryStore
	Users      UserStore
	Showtimes  ShowtimeStore
	Activities ActivityStore
	Ledger     SeatLedger
	BcryptCost int
	Purge      func(ctx context.Context)
}

// record appends an audit entry.  Failures are logged, not returned:
// the write it describes has already happened.
func (h *AdminHandler) record(c echo.Context, kind, desc string) {
	var actor *uint64
	if uid, ok := middleware.UserID(c); ok {
		actor = &uid
	}
	if err := h.Activities.Record(c.Request().Context(), kind, desc, actor); err != nil {
		logrus.WithError(err).WithField("type", kind).Warn("record activity failed")
	}
}

func (h *AdminHandler) catalogChanged(c echo.Context) {
	if h.Purge != nil {
		h.Purge(c.Request().Context())
	}
}

// ListActivities handles GET /api/admin/activities?limit=&type=.
func (h *AdminHandler) ListActivities(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	limit := queryInt(c, "limit", 0)
	if limit > maxListLimit*5 {
		limit = maxListLimit * 5
	}
	items, err := h.Activities.List(ctx, limit, strings.TrimSpace(c.QueryParam("type")))
	if err != nil {
		return repoError(c, err, "activity")
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// defaultActivityKeep is how many entries a cleanup keeps without ?keep.
const defaultActivityKeep = 100

// CleanupActivities handles POST /api/admin/activities/cleanup?keep=N.
func (h *AdminHandler) CleanupActivities(c echo.Context) error {
	keep := defaultActivityKeep
	if raw := strings.TrimSpace(c.QueryParam("keep")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return errorJSON(c, http.StatusBadRequest, "keep must be a positive integer")
		}
		keep = n
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	deleted, err := h.Activities.Prune(ctx, keep)
	if err != nil {
		return repoError(c, err, "activity")
	}
	h.record(c, model.ActivityActivitiesCleaned, fmt.Sprintf("Activity log pruned: %d removed, newest %d kept", deleted, keep))
	return c.JSON(http.StatusOK, echo.Map{"deleted": deleted, "kept": keep})
}
