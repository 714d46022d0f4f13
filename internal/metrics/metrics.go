package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters exported on /metrics.
var (
	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_login_attempts_total",
		Help: "Login attempts by outcome (verified or rejected).",
	}, []string{"outcome"})

	AttendanceMarked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portal_attendance_marked_total",
		Help: "Attendance rows written by the login flow.",
	})

	EncodingLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_face_encoding_lookups_total",
		Help: "Face-encoding lookups by result (found or missing).",
	}, []string{"result"})
)
