package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core/analytics"
	"github.com/trezcool/darasa/core/class"
)

func Test_dashboardApi(t *testing.T) {
	_, classRepo, enrollRepo := setupDB(t)
	classSvc := class.NewService(classRepo, enrollRepo, nil, nil)
	engine := analytics.NewEngine(classRepo, enrollRepo)
	app, v1, jwt := initApp()
	RegisterDashboardAPI(v1, jwt, engine, classSvc)

	cls := createClass(t, classRepo, "creator-1", "Guitar Basics")
	e1 := createEnrollment(t, enrollRepo, cls.ID, "student-1", "s1@test.cd")
	e2 := createEnrollment(t, enrollRepo, cls.ID, "student-2", "s2@test.cd")

	// student-1 rated 5, student-2 rated 4
	e1.Rating = null.IntFrom(5)
	e2.Rating = null.IntFrom(4)
	e1.UpdatedAt, e2.UpdatedAt = time.Now(), time.Now()
	_, err := enrollRepo.UpdateEnrollment(context.Background(), e1)
	require.NoError(t, err)
	_, err = enrollRepo.UpdateEnrollment(context.Background(), e2)
	require.NoError(t, err)

	creatorToken := getCreatorToken(t, "creator-1")

	t.Run("student is rejected", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/creator/dashboard", getStudentToken(t, "student-1"))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("dashboard aggregates per class", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/creator/dashboard", creatorToken)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var dash analytics.Dashboard
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dash))
		require.Len(t, dash.Classes, 1)
		assert.Equal(t, 2, dash.TotalEnrollments)
		assert.Equal(t, 50.0, dash.TotalRevenue)
		assert.Equal(t, cls.ID, dash.Classes[0].ClassID)
		require.True(t, dash.Classes[0].AverageRating.Valid)
		assert.Equal(t, 4.5, dash.Classes[0].AverageRating.Float64)
	})

	t.Run("empty dashboard degrades to zeros", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/creator/dashboard", getCreatorToken(t, "creator-2"))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var dash analytics.Dashboard
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dash))
		assert.Empty(t, dash.Classes)
		assert.Zero(t, dash.TotalEnrollments)
		assert.Zero(t, dash.TotalRevenue)
	})

	t.Run("class snapshot is owner-only", func(t *testing.T) {
		path := "/v1/creator/classes/" + cls.ID + "/analytics"

		req, rec := newAuthRequest(http.MethodGet, path, getCreatorToken(t, "creator-2"))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		req, rec = newAuthRequest(http.MethodGet, path, creatorToken)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var snap analytics.Snapshot
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
		assert.Equal(t, 2, snap.Enrollments)
		assert.Equal(t, 50.0, snap.TotalRevenue)
	})
}
