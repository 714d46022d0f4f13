package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lipril/academic/internal/metrics"
	"github.com/lipril/academic/internal/portal"
	"github.com/lipril/academic/internal/session"
	"github.com/lipril/academic/internal/store"
)

// VerificationAccepted is the sentinel value the external biometric system
// asserts after verifying the requester. Anything else rejects the login.
const VerificationAccepted = "verified"

// Handler serves the portal's HTTP surface.
type Handler struct {
	svc      *portal.Service
	sessions *session.Manager
	db       *store.DB
	rdb      *store.Redis
}

// New creates a handler. rdb may be nil when the cache is not configured.
func New(svc *portal.Service, sessions *session.Manager, db *store.DB, rdb *store.Redis) *Handler {
	return &Handler{svc: svc, sessions: sessions, db: db, rdb: rdb}
}

// Healthz reports db and cache connectivity.
func (h *Handler) Healthz(c *gin.Context) {
	dbHealthy := h.db.Healthy(c.Request.Context())
	redisHealthy := h.rdb.Healthy(c.Request.Context())
	status := http.StatusOK
	if !dbHealthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"status": "ok", "db": dbHealthy, "redis": redisHealthy})
}

// GetFaceEncoding returns the stored vector for a student, for the
// browser-side verification collaborator.
func (h *Handler) GetFaceEncoding(c *gin.Context) {
	externalID := c.Param("student_id")
	enc, err := h.svc.FaceEncoding(c.Request.Context(), externalID)
	if err != nil {
		if errors.Is(err, portal.ErrNotFound) {
			metrics.EncodingLookups.WithLabelValues("missing").Inc()
			c.JSON(http.StatusNotFound, gin.H{"error": "No encoding found"})
			return
		}
		log.Printf("face encoding lookup failed for %s: %v", externalID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage failure"})
		return
	}
	metrics.EncodingLookups.WithLabelValues("found").Inc()
	c.JSON(http.StatusOK, gin.H{"encoding": enc})
}

type loginRequest struct {
	StudentID         string `form:"student_id" binding:"required"`
	VerificationToken string `form:"verification_token"`
}

// Login establishes a session once the external verification signal is
// presented, records today's attendance for known students, and redirects to
// the dashboard. Unverified requests get a 401 with no side effects.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.String(http.StatusBadRequest, "student_id is required.")
		return
	}
	if req.VerificationToken != VerificationAccepted {
		metrics.LoginAttempts.WithLabelValues("rejected").Inc()
		c.String(http.StatusUnauthorized, "Verification failed.")
		return
	}

	ctx := c.Request.Context()
	st, err := h.svc.FindStudent(ctx, req.StudentID)
	switch {
	case err == nil:
		marked, err := h.svc.RecordDailyAttendance(ctx, st.ID, portal.Today())
		if err != nil {
			log.Printf("attendance record failed for %s: %v", req.StudentID, err)
			c.String(http.StatusInternalServerError, "Login failed, try again.")
			return
		}
		if marked {
			metrics.AttendanceMarked.Inc()
		}
	case errors.Is(err, portal.ErrNotFound):
		// The session is established regardless; the dashboard reports
		// not-found for ids the store does not know.
	default:
		log.Printf("student lookup failed for %s: %v", req.StudentID, err)
		c.String(http.StatusInternalServerError, "Login failed, try again.")
		return
	}

	token, err := h.sessions.Issue(req.StudentID)
	if err != nil {
		log.Printf("session issue failed for %s: %v", req.StudentID, err)
		c.String(http.StatusInternalServerError, "Login failed, try again.")
		return
	}
	metrics.LoginAttempts.WithLabelValues("verified").Inc()
	c.SetCookie(session.CookieName, token, int(h.sessions.TTL().Seconds()), "/", "", false, true)
	c.Redirect(http.StatusSeeOther, "/dashboard")
}

// Logout clears the session cookie.
func (h *Handler) Logout(c *gin.Context) {
	c.SetCookie(session.CookieName, "", -1, "/", "", false, true)
	c.Redirect(http.StatusSeeOther, "/")
}

// Dashboard renders the academic snapshot for the session's student. Runs
// behind session.Required.
func (h *Handler) Dashboard(c *gin.Context) {
	externalID := c.GetString(session.ContextKey)
	view, err := h.svc.BuildDashboard(c.Request.Context(), externalID)
	if err != nil {
		if errors.Is(err, portal.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "student not found"})
			return
		}
		log.Printf("dashboard build failed for %s: %v", externalID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage failure"})
		return
	}
	c.JSON(http.StatusOK, view)
}
