package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ViniDeiro/newalavancagem/internal/auth"
	"github.com/ViniDeiro/newalavancagem/internal/leverage"
)

// leverageView is a progression plus its derived quantities, so the
// dashboard never recomputes the math.
type leverageView struct {
	*leverage.Leverage
	CurrentValue    float64 `json:"current_value"`
	NextValue       float64 `json:"next_value"`
	TargetValue     float64 `json:"target_value"`
	TargetProfit    float64 `json:"target_profit"`
	ProgressPercent float64 `json:"progress_percent"`
}

func newLeverageView(lev *leverage.Leverage) leverageView {
	return leverageView{
		Leverage:        lev,
		CurrentValue:    lev.CurrentValue(),
		NextValue:       lev.NextValue(),
		TargetValue:     lev.TargetValue(),
		TargetProfit:    lev.TargetProfit(),
		ProgressPercent: lev.ProgressPercent(),
	}
}

func newLeverageViews(levs []*leverage.Leverage) []leverageView {
	views := make([]leverageView, 0, len(levs))
	for _, lev := range levs {
		views = append(views, newLeverageView(lev))
	}
	return views
}

// respondError maps domain errors onto HTTP statuses with the flat
// {"error": message} body every endpoint uses.
func (s *Server) respondError(c *gin.Context, err error) {
	var validationErr leverage.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error()})
		return
	}
	if errors.Is(err, leverage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "leverage not found"})
		return
	}
	if authErr, ok := err.(auth.AuthError); ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": authErr.Message})
		return
	}

	s.logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

// handleGetUser returns the caller's profile with the derived available
// bankroll.
// GET /api/user
func (s *Server) handleGetUser(c *gin.Context) {
	userID := auth.GetUserID(c)

	user, err := s.authService.GetUser(c.Request.Context(), userID)
	if err != nil {
		s.respondError(c, err)
		return
	}

	available, facts, err := s.levService.Bankroll(c.Request.Context(), userID)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":                 user.ID,
		"name":               user.Name,
		"age":                user.Age,
		"bankroll":           user.Bankroll,
		"available_bankroll": available,
		"active_stake":       facts.ActiveStake,
		"realized_profit":    facts.RealizedProfit,
	})
}

// handleListLeverages lists the caller's progressions, filtered by the
// status query parameter (active by default).
// GET /api/leverages?status=active|completed
func (s *Server) handleListLeverages(c *gin.Context) {
	userID := auth.GetUserID(c)
	status := leverage.Status(c.Query("status"))

	levs, err := s.levService.List(c.Request.Context(), userID, status)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newLeverageViews(levs))
}

// handleCreateLeverage creates a progression.
// POST /api/leverages
func (s *Server) handleCreateLeverage(c *gin.Context) {
	var req leverage.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	lev, err := s.levService.Create(c.Request.Context(), auth.GetUserID(c), req)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newLeverageView(lev))
}

// handleUpdateLeverageDay moves an active progression to a new day.
// PUT /api/leverages/:id
func (s *Server) handleUpdateLeverageDay(c *gin.Context) {
	var req struct {
		CurrentDay int `json:"currentDay"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	userID := auth.GetUserID(c)
	id := c.Param("id")

	if err := s.levService.SetDay(c.Request.Context(), userID, id, req.CurrentDay); err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "leverage updated"})
}

// handleResetLeverage puts an active progression back to day 1.
// PUT /api/leverages/:id/reset
func (s *Server) handleResetLeverage(c *gin.Context) {
	if err := s.levService.Reset(c.Request.Context(), auth.GetUserID(c), c.Param("id")); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "leverage reset"})
}

// handleCompleteLeverage closes a progression and returns the realized
// numbers.
// PATCH /api/leverages/:id/complete
func (s *Server) handleCompleteLeverage(c *gin.Context) {
	result, err := s.levService.Complete(c.Request.Context(), auth.GetUserID(c), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// handleDeleteLeverage removes a progression.
// DELETE /api/leverages/:id
func (s *Server) handleDeleteLeverage(c *gin.Context) {
	if err := s.levService.Delete(c.Request.Context(), auth.GetUserID(c), c.Param("id")); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "leverage deleted"})
}
