package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core/catalog"
	"github.com/trezcool/darasa/core/class"
)

func Test_catalogApi_recommendationsRetrieve(t *testing.T) {
	_, classRepo, enrollRepo := setupDB(t)
	scorer := catalog.NewScorer(classRepo, enrollRepo)
	app, v1, jwt := initApp()
	RegisterCatalogAPI(v1, jwt, scorer)

	guitar := createClass(t, classRepo, "creator-1", "Guitar Basics")
	drums := createClass(t, classRepo, "creator-1", "Drum Circle")
	painting := createClass(t, classRepo, "creator-2", "Watercolor", func(c *class.Class) {
		c.Category = "Art"
		c.SubCategory = "Painting"
	})
	createEnrollment(t, enrollRepo, guitar.ID, "student-1", "s1@test.cd")

	t.Run("creator is rejected", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/catalog/recommendations", getCreatorToken(t, "creator-1"))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("enrolled classes are excluded, category affinity ranks first", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/catalog/recommendations?interests=drum",
			getStudentToken(t, "student-1"))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var recs catalog.Recommendations
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &recs))
		require.Len(t, recs.Recommended, 2)
		assert.Equal(t, drums.ID, recs.Recommended[0].ClassID) // Music affinity + interest match
		assert.Equal(t, painting.ID, recs.Recommended[1].ClassID)
		assert.Greater(t, recs.Recommended[0].Score, recs.Recommended[1].Score)

		for _, item := range append(recs.Recommended, recs.Trending...) {
			assert.NotEqual(t, guitar.ID, item.ClassID)
		}
	})

	t.Run("fresh student sees the whole catalog", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/catalog/recommendations", getStudentToken(t, "student-9"))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var recs catalog.Recommendations
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &recs))
		assert.Len(t, recs.Recommended, 3)
		assert.Len(t, recs.Trending, 3)
	})
}
