package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core/class"
	"github.com/trezcool/darasa/core/enroll"
)

func Test_enrollApi_enrollmentCreate(t *testing.T) {
	_, classRepo, enrollRepo := setupDB(t)
	classSvc := class.NewService(classRepo, enrollRepo, nil, nil)
	enrollSvc := enroll.NewService(enrollRepo)
	app, v1, jwt := initApp()
	RegisterEnrollAPI(v1, jwt, enrollSvc, classSvc)

	cls := createClass(t, classRepo, "creator-1", "Guitar Basics")
	studentToken := getStudentToken(t, "student-1")
	body := []byte(`{"student_email":"Stu@Test.CD","price_paid":25}`)

	t.Run("creator is rejected", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/classes/"+cls.ID+"/enroll", getCreatorToken(t, "creator-1"), body)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("unknown class", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/classes/nope/enroll", studentToken, body)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("enrollment is recorded with a normalized email", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/classes/"+cls.ID+"/enroll", studentToken, body)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var e enroll.Enrollment
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
		assert.Equal(t, cls.ID, e.ClassID)
		assert.Equal(t, "student-1", e.StudentID)
		assert.Equal(t, "stu@test.cd", e.StudentEmail)
		assert.False(t, e.Rating.Valid)
	})

	t.Run("double enrollment conflicts", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/classes/"+cls.ID+"/enroll", studentToken, body)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("invalid email is rejected", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/classes/"+cls.ID+"/enroll",
			getStudentToken(t, "student-2"), []byte(`{"student_email":"not-an-email"}`))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func Test_enrollApi_enrollmentRate(t *testing.T) {
	_, classRepo, enrollRepo := setupDB(t)
	classSvc := class.NewService(classRepo, enrollRepo, nil, nil)
	enrollSvc := enroll.NewService(enrollRepo)
	app, v1, jwt := initApp()
	RegisterEnrollAPI(v1, jwt, enrollSvc, classSvc)

	cls := createClass(t, classRepo, "creator-1", "Guitar Basics")
	e := createEnrollment(t, enrollRepo, cls.ID, "student-1", "stu@test.cd")
	path := "/v1/enrollments/" + e.ID + "/rating"

	t.Run("owner rates the class", func(t *testing.T) {
		body := []byte(`{"rating":5,"feedback":"great pacing"}`)
		req, rec := newAuthRequest(http.MethodPut, path, getStudentToken(t, "student-1"), body)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var updated enroll.Enrollment
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
		assert.Equal(t, 5, updated.Rating.Int)
		assert.Equal(t, "great pacing", updated.Feedback.String)
	})

	t.Run("re-rating overwrites", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, path, getStudentToken(t, "student-1"), []byte(`{"rating":3}`))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var updated enroll.Enrollment
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
		assert.Equal(t, 3, updated.Rating.Int)
		assert.False(t, updated.Feedback.Valid)
	})

	t.Run("out-of-range rating is rejected", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, path, getStudentToken(t, "student-1"), []byte(`{"rating":6}`))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("foreign enrollment reads as not found", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, path, getStudentToken(t, "student-2"), []byte(`{"rating":1}`))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func Test_enrollApi_enrollmentMarkAttendance(t *testing.T) {
	_, classRepo, enrollRepo := setupDB(t)
	classSvc := class.NewService(classRepo, enrollRepo, nil, nil)
	enrollSvc := enroll.NewService(enrollRepo)
	app, v1, jwt := initApp()
	RegisterClassAPI(v1, jwt, classSvc)
	RegisterEnrollAPI(v1, jwt, enrollSvc, classSvc)

	cls := createClass(t, classRepo, "creator-1", "Guitar Basics")
	otherCls := createClass(t, classRepo, "creator-1", "Drum Circle")
	e := createEnrollment(t, enrollRepo, cls.ID, "student-1", "stu@test.cd")

	// plan the sessions so they have real ids
	req, rec := newAuthRequest(http.MethodPut, "/v1/classes/"+cls.ID+"/sessions",
		getCreatorToken(t, "creator-1"), validPlanBody())
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var planned class.Class
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &planned))

	req, rec = newAuthRequest(http.MethodPut, "/v1/classes/"+otherCls.ID+"/sessions",
		getCreatorToken(t, "creator-1"), validPlanBody())
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var otherPlanned class.Class
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &otherPlanned))

	studentToken := getStudentToken(t, "student-1")
	sessionID := planned.Sessions[1].ID
	path := "/v1/enrollments/" + e.ID + "/attendance/" + sessionID

	t.Run("mark present", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, path, studentToken, []byte(`{"attended":true}`))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var updated enroll.Enrollment
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
		require.Contains(t, updated.Attendance, sessionID)
		assert.True(t, updated.Attendance[sessionID].Attended)
		assert.Equal(t, 2, updated.Attendance[sessionID].SessionNumber)
	})

	t.Run("recorded absence differs from no record", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, path, studentToken, []byte(`{"attended":false}`))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var updated enroll.Enrollment
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
		require.Contains(t, updated.Attendance, sessionID)
		assert.False(t, updated.Attendance[sessionID].Attended)
		assert.Len(t, updated.Attendance, 1)
	})

	t.Run("session of another class is not found", func(t *testing.T) {
		foreign := "/v1/enrollments/" + e.ID + "/attendance/" + otherPlanned.Sessions[0].ID
		req, rec := newAuthRequest(http.MethodPut, foreign, studentToken, []byte(`{"attended":true}`))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
