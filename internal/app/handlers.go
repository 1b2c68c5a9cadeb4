package app

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"agency-scheduler/internal/metrics"
)

type availabilityPayload struct {
	Days      []int  `json:"days"`
	StartTime string `json:"start_time" binding:"required"`
	EndTime   string `json:"end_time" binding:"required"`
	TimeZone  string `json:"time_zone"`
}

// GET /api/users/:id/availability
// Unconfigured users get the default Monday-Friday 09:00-17:00 UTC rule.
func (a *App) GetAvailabilityHandler(c *gin.Context) {
	userID := c.Param("id")
	rule, err := a.Store.GetRule(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if rule == nil {
		def := DefaultRule(userID)
		rule = &def
	}
	c.JSON(http.StatusOK, rule)
}

// POST /api/users/:id/availability
func (a *App) SetAvailabilityHandler(c *gin.Context) {
	userID := c.Param("id")
	var payload availabilityPayload
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rule := AvailabilityRule{
		UserID:    userID,
		Days:      payload.Days,
		StartTime: payload.StartTime,
		EndTime:   payload.EndTime,
		TimeZone:  payload.TimeZone,
	}
	if rule.TimeZone == "" {
		rule.TimeZone = "UTC"
	}
	if err := a.Store.SetRule(c.Request.Context(), rule); err != nil {
		if errors.Is(err, ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rule)
}

// GET /api/users/:id/slots?date=YYYY-MM-DD
func (a *App) GetSlotsHandler(c *gin.Context) {
	userID := c.Param("id")
	dateStr := c.Query("date")
	if dateStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date required (YYYY-MM-DD)"})
		return
	}
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date"})
		return
	}
	ctx := c.Request.Context()

	exists, err := a.Store.UserExists(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	rule, err := a.Store.GetRule(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if rule == nil {
		def := DefaultRule(userID)
		rule = &def
	}

	winStart, winEnd := dayWindow(*rule, date)
	busy, err := a.Busy.BusyIntervals(ctx, userID, winStart, winEnd)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	began := time.Now()
	slots, err := ComputeSlots(*rule, date, busy)
	metrics.ObserveSlotComputation(time.Since(began))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if slots == nil {
		slots = []Interval{}
	}
	c.JSON(http.StatusOK, slots)
}

type bookMeetingReq struct {
	GuestName   string `json:"guest_name" binding:"required"`
	GuestEmail  string `json:"guest_email" binding:"required,email"`
	GuestNotes  string `json:"guest_notes,omitempty"`
	StartTimeRF string `json:"start_time" binding:"required"` // RFC3339
	EndTimeRF   string `json:"end_time" binding:"required"`
}

// POST /api/users/:id/meetings
func (a *App) BookMeetingHandler(c *gin.Context) {
	userID := c.Param("id")
	var req bookMeetingReq
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	start, err := time.Parse(time.RFC3339, req.StartTimeRF)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_time"})
		return
	}
	end, err := time.Parse(time.RFC3339, req.EndTimeRF)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end_time"})
		return
	}

	meeting, err := a.Booking.Book(c.Request.Context(), BookingRequest{
		UserID:     userID,
		GuestName:  req.GuestName,
		GuestEmail: req.GuestEmail,
		GuestNotes: req.GuestNotes,
		Start:      start,
		End:        end,
	})
	switch {
	case errors.Is(err, ErrValidation):
		metrics.IncBooking("invalid")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, ErrNotFound):
		metrics.IncBooking("not_found")
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	case errors.Is(err, ErrSlotTaken):
		metrics.IncBooking("conflict")
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case err != nil:
		metrics.IncBooking("error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	metrics.IncBooking("booked")
	c.JSON(http.StatusCreated, gin.H{
		"meeting_id":      meeting.ID,
		"start_time":      meeting.StartTime,
		"end_time":        meeting.EndTime,
		"google_event_id": meeting.GoogleEventID,
	})
}

// GET /api/users/:id/meetings?from=ISO&to=ISO
func (a *App) ListMeetingsHandler(c *gin.Context) {
	userID := c.Param("id")
	ctx := c.Request.Context()

	from := time.Time{}
	to := time.Unix(1<<40, 0) // effectively unbounded
	if fromStr := c.Query("from"); fromStr != "" {
		var err error
		from, err = time.Parse(time.RFC3339, fromStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from"})
			return
		}
	}
	if toStr := c.Query("to"); toStr != "" {
		var err error
		to, err = time.Parse(time.RFC3339, toStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to"})
			return
		}
	}
	if !from.Before(to) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from must be before to"})
		return
	}

	exists, err := a.Store.UserExists(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	meetings, err := a.Store.ListMeetings(ctx, userID, from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if meetings == nil {
		meetings = []Meeting{}
	}
	c.JSON(http.StatusOK, meetings)
}
