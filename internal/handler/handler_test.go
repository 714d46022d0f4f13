package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lipril/academic/internal/portal"
	"github.com/lipril/academic/internal/session"
	"github.com/lipril/academic/internal/store"
)

func newTestRouter(t *testing.T) (*gin.Engine, *portal.Repository, *portal.Service, *session.Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := store.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := portal.NewRepository(db.Client)
	svc := portal.NewService(repo, nil)
	sessions := session.NewManager("test-secret", time.Hour)
	h := New(svc, sessions, db, nil)

	r := gin.New()
	r.GET("/healthz", h.Healthz)
	r.GET("/get_face_encoding/:student_id", h.GetFaceEncoding)
	r.POST("/login", h.Login)
	r.POST("/logout", h.Logout)
	r.GET("/dashboard", session.Required(sessions), h.Dashboard)
	return r, repo, svc, sessions
}

func postForm(r *gin.Engine, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func getWithCookie(r *gin.Engine, path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == session.CookieName && c.Value != "" {
			return c
		}
	}
	return nil
}

func createStudent(t *testing.T, repo *portal.Repository, externalID, name string) portal.Student {
	t.Helper()
	st := portal.Student{ExternalID: externalID, Name: name}
	require.NoError(t, repo.InsertStudent(context.Background(), &st))
	return st
}

func testEncoding() portal.FaceEncoding {
	enc := make(portal.FaceEncoding, portal.EncodingDim)
	for i := range enc {
		enc[i] = float32(i) * 0.015625
	}
	return enc
}

func TestLoginRejectedWithoutVerification(t *testing.T) {
	r, repo, _, _ := newTestRouter(t)
	st := createStudent(t, repo, "CS001", "John Doe")

	w := postForm(r, "/login", url.Values{
		"student_id":         {"CS001"},
		"verification_token": {"nope"},
	})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Verification failed.", w.Body.String())
	assert.Nil(t, sessionCookie(w), "no session on rejected login")

	rows, err := repo.ListAttendance(context.Background(), st.ID)
	require.NoError(t, err)
	assert.Empty(t, rows, "no attendance on rejected login")
}

func TestLoginVerifiedMarksAttendanceOnce(t *testing.T) {
	r, repo, _, _ := newTestRouter(t)
	st := createStudent(t, repo, "CS001", "John Doe")

	form := url.Values{
		"student_id":         {"CS001"},
		"verification_token": {"verified"},
	}
	for i := 0; i < 2; i++ {
		w := postForm(r, "/login", form)
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/dashboard", w.Header().Get("Location"))
		assert.NotNil(t, sessionCookie(w))
	}

	rows, err := repo.ListAttendance(context.Background(), st.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 1, "same-day logins mark attendance at most once")
}

func TestLoginUnknownStudentStillEstablishesSession(t *testing.T) {
	r, _, _, _ := newTestRouter(t)

	w := postForm(r, "/login", url.Values{
		"student_id":         {"ZZ999"},
		"verification_token": {"verified"},
	})
	require.Equal(t, http.StatusSeeOther, w.Code)
	cookie := sessionCookie(w)
	require.NotNil(t, cookie)

	dash := getWithCookie(r, "/dashboard", cookie)
	assert.Equal(t, http.StatusNotFound, dash.Code)
}

func TestLoginRequiresStudentID(t *testing.T) {
	r, _, _, _ := newTestRouter(t)

	w := postForm(r, "/login", url.Values{"verification_token": {"verified"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDashboardRedirectsWithoutSession(t *testing.T) {
	r, _, _, _ := newTestRouter(t)

	w := getWithCookie(r, "/dashboard", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	w = getWithCookie(r, "/dashboard", &http.Cookie{Name: session.CookieName, Value: "garbage"})
	assert.Equal(t, http.StatusFound, w.Code)
}

func TestDashboardRendersAggregatedView(t *testing.T) {
	r, repo, _, _ := newTestRouter(t)
	ctx := context.Background()
	st := createStudent(t, repo, "CS001", "John Doe")
	require.NoError(t, repo.InsertResult(ctx, &portal.Result{
		StudentID: st.ID, Semester: "Fall 2023", Course: "Data Structures",
		Grade: "A", Credits: 3, Teacher: "Dr. Smith",
	}))
	require.NoError(t, repo.InsertAssignment(ctx, &portal.Assignment{
		StudentID: st.ID, Course: "Data Structures", Title: "Lab 1",
		DueDate: time.Date(2023, time.December, 1, 0, 0, 0, 0, time.UTC), Status: portal.AssignmentCompleted,
	}))

	login := postForm(r, "/login", url.Values{
		"student_id":         {"CS001"},
		"verification_token": {"verified"},
	})
	cookie := sessionCookie(login)
	require.NotNil(t, cookie)

	w := getWithCookie(r, "/dashboard", cookie)
	require.Equal(t, http.StatusOK, w.Code)

	var view struct {
		Student struct {
			Name string `json:"name"`
		} `json:"student"`
		TotalCourses   int               `json:"total_courses"`
		CompletedCount int               `json:"completed_count"`
		DueAssignments []json.RawMessage `json:"due_assignments"`
		Attendance     []json.RawMessage `json:"attendance"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, "John Doe", view.Student.Name)
	assert.Equal(t, 1, view.TotalCourses)
	assert.Equal(t, 1, view.CompletedCount)
	assert.Empty(t, view.DueAssignments)
	assert.Len(t, view.Attendance, 1, "login marked today present")
}

func TestGetFaceEncoding(t *testing.T) {
	r, repo, svc, _ := newTestRouter(t)
	ctx := context.Background()
	createStudent(t, repo, "CS001", "John Doe")

	w := getWithCookie(r, "/get_face_encoding/CS001", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error": "No encoding found"}`, w.Body.String())

	w = getWithCookie(r, "/get_face_encoding/ZZ999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	enc := testEncoding()
	require.NoError(t, svc.SetFaceEncoding(ctx, "CS001", enc))

	w = getWithCookie(r, "/get_face_encoding/CS001", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Encoding []float32 `json:"encoding"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []float32(enc), resp.Encoding)
}

func TestLogoutClearsSession(t *testing.T) {
	r, _, _, _ := newTestRouter(t)

	w := postForm(r, "/logout", url.Values{})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	var cleared bool
	for _, c := range w.Result().Cookies() {
		if c.Name == session.CookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared, "logout must expire the session cookie")
}

func TestHealthz(t *testing.T) {
	r, _, _, _ := newTestRouter(t)

	w := getWithCookie(r, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		DB    bool `json:"db"`
		Redis bool `json:"redis"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.DB)
	assert.False(t, body.Redis, "no cache configured in tests")
}
