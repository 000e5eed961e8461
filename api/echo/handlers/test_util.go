package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/darasa/api/echo/helpers"
	"github.com/trezcool/darasa/core/class"
	"github.com/trezcool/darasa/core/enroll"
	dummydb "github.com/trezcool/darasa/storage/database/dummy"
)

var (
	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errForbidden    = httpErr{Error: "permission denied"}
)

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func initApp() (*echo.Echo, *echo.Group, echo.MiddlewareFunc) {
	app := echo.New()
	app.Pre(middleware.RemoveTrailingSlash())
	app.HTTPErrorHandler = helpers.NewAppHTTPErrorHandler(nil, nil)
	v1 := app.Group("/v1")
	jwt := middleware.JWTWithConfig(helpers.AppJWTConfig)
	return app, v1, jwt
}

func setupDB(t *testing.T) (*dummydb.DB, class.Repository, enroll.Repository) {
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setupDB() failed: %v", err)
	}
	return db, dummydb.NewClassRepository(db), dummydb.NewEnrollRepository(db)
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getCreatorToken(t *testing.T, userID string) string {
	return getToken(t, userID, true, false)
}

func getStudentToken(t *testing.T, userID string) string {
	return getToken(t, userID, false, true)
}

func getToken(t *testing.T, userID string, isCreator, isStudent bool) string {
	claims := helpers.GetUserClaims(userID, isCreator, isStudent)
	token, err := helpers.GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func createClass(t *testing.T, repo class.Repository, creatorID, title string, override ...func(*class.Class)) class.Class {
	now := time.Now().UTC()
	cls := class.Class{
		CreatorID:    creatorID,
		Title:        title,
		Category:     "Music",
		SubCategory:  "Guitar",
		Price:        25,
		Kind:         class.KindRecurring,
		StartDate:    time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2024, 6, 17, 0, 0, 0, 0, time.UTC),
		Weekdays:     []string{"Monday", "Wednesday"},
		StartTime:    "18:00",
		EndTime:      "19:00",
		SessionCount: 5,
		AvgGapDays:   3,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for _, fn := range override {
		fn(&cls)
	}
	cls, err := repo.CreateClass(context.Background(), cls)
	if err != nil {
		t.Fatalf("createClass() failed: %v", err)
	}
	return cls
}

func createEnrollment(t *testing.T, repo enroll.Repository, classID, studentID, email string) enroll.Enrollment {
	now := time.Now().UTC()
	e, err := repo.CreateEnrollment(context.Background(), enroll.Enrollment{
		ClassID:      classID,
		StudentID:    studentID,
		StudentEmail: email,
		PricePaid:    25,
		Attendance:   make(map[string]enroll.AttendanceMark),
		EnrolledAt:   now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("createEnrollment() failed: %v", err)
	}
	return e
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
