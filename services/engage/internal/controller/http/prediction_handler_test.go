package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"engage-predict/pkg/apperror"
	"engage-predict/pkg/identity"
	"engage-predict/pkg/logger"
	"engage-predict/pkg/middleware"
	"engage-predict/pkg/schema"
	"engage-predict/services/engage/internal/entity"
	"engage-predict/services/engage/internal/media"
	"engage-predict/services/engage/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockPredictionUseCase is a mock implementation of PredictionUseCase
type MockPredictionUseCase struct {
	mock.Mock
}

func (m *MockPredictionUseCase) Predict(ctx context.Context, userID string, post entity.PostDescription, upload *usecase.Upload) (*entity.Prediction, error) {
	args := m.Called(ctx, userID, post, upload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Prediction), args.Error(1)
}

func (m *MockPredictionUseCase) Analyze(ctx context.Context, userID string, post entity.PostDescription) (*entity.Prediction, error) {
	args := m.Called(ctx, userID, post)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Prediction), args.Error(1)
}

func (m *MockPredictionUseCase) AnalyzeMedia(ctx context.Context, upload *usecase.Upload) (entity.MediaInfo, error) {
	args := m.Called(ctx, upload)
	return args.Get(0).(entity.MediaInfo), args.Error(1)
}

func (m *MockPredictionUseCase) History(ctx context.Context, userID string) ([]*entity.Prediction, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Prediction), args.Error(1)
}

func (m *MockPredictionUseCase) Delete(ctx context.Context, id, userID string) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

var _ usecase.PredictionUseCase = (*MockPredictionUseCase)(nil)

// MockVerifier is a mock implementation of identity.Verifier
type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) Verify(ctx context.Context, token string) (*identity.User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

var testUser = &identity.User{UID: "user-123", Email: "maya@example.com", Name: "maya"}

func setupTestRouter(uc usecase.PredictionUseCase, verifier identity.Verifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewPredictionHandler(uc, verifier, schema.MustNewValidator(), logger.NewWithWriter(io.Discard, logger.LevelDebug))

	r := gin.New()
	r.POST("/auth/verify", handler.Verify)

	api := r.Group("")
	api.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserID, testUser.UID)
		c.Set(middleware.ContextUser, testUser)
		c.Next()
	})
	api.GET("/auth/me", handler.Me)
	api.POST("/predict", handler.Predict)
	api.POST("/analyze", handler.Analyze)
	api.POST("/analyze-media", handler.AnalyzeMedia)
	api.GET("/history", handler.History)
	api.DELETE("/history/:id", handler.DeletePrediction)
	return r
}

type filePart struct {
	name        string
	contentType string
	content     []byte
}

func multipartBody(t *testing.T, fields map[string]string, file *filePart) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if file != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="media"; filename="`+file.name+`"`)
		h.Set("Content-Type", file.contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(file.content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

func samplePrediction() *entity.Prediction {
	return &entity.Prediction{
		ID:     "01J5V4Q7J3ZK8W6M2N1P0R9S8T",
		UserID: testUser.UID,
		PredictionResult: entity.PredictionResult{
			Score:             85,
			EngagementLevel:   entity.LevelHigh,
			Feedback:          []entity.Feedback{{Kind: entity.FeedbackSuccess, Message: "Great posting time for maximum engagement", Impact: "+10%"}},
			Tips:              []string{"a", "b", "c"},
			PredictedReach:    8700,
			PredictedLikes:    870,
			PredictedComments: 175,
		},
		Source:    entity.SourceLocal,
		CreatedAt: time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestPredict_Multipart(t *testing.T) {
	mockUseCase := new(MockPredictionUseCase)
	router := setupTestRouter(mockUseCase, nil)

	expectedPost := entity.PostDescription{
		Caption:   "Morning run",
		Hashtags:  "#run #fit #morning",
		Platform:  entity.PlatformTikTok,
		DayOfWeek: "Tuesday",
		MediaInfo: &entity.MediaInfo{Type: "image", Orientation: "Portrait", Resolution: "1080p"},
	}
	mockUseCase.On("Predict", mock.Anything, "user-123", expectedPost, (*usecase.Upload)(nil)).
		Return(samplePrediction(), nil)

	body, contentType := multipartBody(t, map[string]string{
		"caption":   "Morning run",
		"hashtags":  "#run #fit #morning",
		"platform":  "tiktok",
		"dayOfWeek": "Tuesday",
		"mediaInfo": `{"type":"image","orientation":"Portrait","resolution":"1080p"}`,
	}, nil)
	req := httptest.NewRequest(http.MethodPost, "/predict", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	response := decode(t, w)
	assert.Equal(t, "01J5V4Q7J3ZK8W6M2N1P0R9S8T", response["id"])
	assert.Equal(t, float64(85), response["score"])
	assert.Equal(t, "High", response["engagementLevel"])
	assert.Equal(t, float64(8700), response["predictedReach"])
	feedback := response["feedback"].([]interface{})
	assert.Equal(t, "success", feedback[0].(map[string]interface{})["type"])
	assert.Equal(t, "+10%", feedback[0].(map[string]interface{})["impact"])
	mockUseCase.AssertExpectations(t)
}

func TestPredict_WithMediaFile(t *testing.T) {
	mockUseCase := new(MockPredictionUseCase)
	router := setupTestRouter(mockUseCase, nil)

	mockUseCase.On("Predict", mock.Anything, "user-123", mock.Anything, mock.MatchedBy(func(u *usecase.Upload) bool {
		return u != nil && u.Filename == "clip.mp4" && u.ContentType == "video/mp4"
	})).Return(samplePrediction(), nil)

	body, contentType := multipartBody(t, map[string]string{"platform": "youtube"},
		&filePart{name: "clip.mp4", contentType: "video/mp4", content: []byte("fake video bytes")})
	req := httptest.NewRequest(http.MethodPost, "/predict", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockUseCase.AssertExpectations(t)
}

func TestPredict_DisallowedFileType(t *testing.T) {
	mockUseCase := new(MockPredictionUseCase)
	router := setupTestRouter(mockUseCase, nil)

	body, contentType := multipartBody(t, nil,
		&filePart{name: "notes.txt", contentType: "text/plain", content: []byte("hello")})
	req := httptest.NewRequest(http.MethodPost, "/predict", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid file type. Only images and videos are allowed.", decode(t, w)["error"])
	mockUseCase.AssertNotCalled(t, "Predict", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPredict_BodyTooLarge(t *testing.T) {
	mockUseCase := new(MockPredictionUseCase)
	router := setupTestRouter(mockUseCase, nil)

	big := bytes.Repeat([]byte{0xff}, media.MaxUploadSize+formOverhead+1)
	body, contentType := multipartBody(t, nil,
		&filePart{name: "huge.jpg", contentType: "image/jpeg", content: big})
	req := httptest.NewRequest(http.MethodPost, "/predict", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	mockUseCase.AssertNotCalled(t, "Predict", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPredict_InvalidMediaInfo(t *testing.T) {
	mockUseCase := new(MockPredictionUseCase)
	router := setupTestRouter(mockUseCase, nil)

	cases := map[string]string{
		"not json":      `{orientation:`,
		"bad enum":      `{"orientation":"Diagonal"}`,
		"bad aspect":    `{"aspectRatio":"wide"}`,
		"negative size": `{"width":-1}`,
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			body, contentType := multipartBody(t, map[string]string{"mediaInfo": raw}, nil)
			req := httptest.NewRequest(http.MethodPost, "/predict", body)
			req.Header.Set("Content-Type", contentType)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
	mockUseCase.AssertNotCalled(t, "Predict", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPredict_ErrorMapping(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"invalid platform", apperror.Validation(`Invalid platform "myspace"`), http.StatusBadRequest, `Invalid platform "myspace"`},
		{"unexpected", errors.New("nil pointer somewhere"), http.StatusInternalServerError, "Failed to analyze content"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mockUseCase := new(MockPredictionUseCase)
			router := setupTestRouter(mockUseCase, nil)
			mockUseCase.On("Predict", mock.Anything, "user-123", mock.Anything, mock.Anything).Return(nil, tc.err)

			body, contentType := multipartBody(t, map[string]string{"platform": "myspace"}, nil)
			req := httptest.NewRequest(http.MethodPost, "/predict", body)
			req.Header.Set("Content-Type", contentType)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.message, decode(t, w)["error"])
		})
	}
}

func TestPredict_WithoutIDWhenNotPersisted(t *testing.T) {
	mockUseCase := new(MockPredictionUseCase)
	router := setupTestRouter(mockUseCase, nil)

	unsaved := samplePrediction()
	unsaved.ID = ""
	mockUseCase.On("Predict", mock.Anything, "user-123", mock.Anything, mock.Anything).Return(unsaved, nil)

	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(`{"platform":"instagram"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	response := decode(t, w)
	_, hasID := response["id"]
	assert.False(t, hasID)
	assert.Equal(t, float64(85), response["score"])
}

func TestAnalyze(t *testing.T) {
	mockUseCase := new(MockPredictionUseCase)
	router := setupTestRouter(mockUseCase, nil)

	post := entity.PostDescription{Caption: "hi", Platform: entity.PlatformInstagram}
	mockUseCase.On("Analyze", mock.Anything, "user-123", post).Return(samplePrediction(), nil)

	req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(`{"caption":"hi","platform":"instagram"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	response := decode(t, w)
	assert.Equal(t, float64(85), response["score"])
	_, hasID := response["id"]
	assert.False(t, hasID)
	mockUseCase.AssertExpectations(t)
}

func TestAnalyze_InvalidBody(t *testing.T) {
	mockUseCase := new(MockPredictionUseCase)
	router := setupTestRouter(mockUseCase, nil)

	req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(`{"caption":`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalyzeMedia(t *testing.T) {
	mockUseCase := new(MockPredictionUseCase)
	router := setupTestRouter(mockUseCase, nil)

	info := entity.MediaInfo{Type: "image", Width: 1080, Height: 1350, Orientation: "Portrait", AspectRatio: "4:5", Resolution: "1080p", QualityScore: "High"}
	mockUseCase.On("AnalyzeMedia", mock.Anything, mock.AnythingOfType("*usecase.Upload")).Return(info, nil)

	body, contentType := multipartBody(t, nil,
		&filePart{name: "photo.jpg", contentType: "image/jpeg", content: []byte("jpeg")})
	req := httptest.NewRequest(http.MethodPost, "/analyze-media", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	response := decode(t, w)
	assert.Equal(t, "4:5", response["aspectRatio"])
	assert.Equal(t, "Portrait", response["orientation"])
}

func TestAnalyzeMedia_NoFile(t *testing.T) {
	mockUseCase := new(MockPredictionUseCase)
	router := setupTestRouter(mockUseCase, nil)
	mockUseCase.On("AnalyzeMedia", mock.Anything, (*usecase.Upload)(nil)).
		Return(entity.MediaInfo{}, apperror.Validation("No file uploaded"))

	body, contentType := multipartBody(t, map[string]string{"other": "x"}, nil)
	req := httptest.NewRequest(http.MethodPost, "/analyze-media", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No file uploaded", decode(t, w)["error"])
}

func TestHistory(t *testing.T) {
	mockUseCase := new(MockPredictionUseCase)
	router := setupTestRouter(mockUseCase, nil)
	mockUseCase.On("History", mock.Anything, "user-123").Return([]*entity.Prediction{samplePrediction()}, nil)

	req := httptest.NewRequest(http.MethodGet, "/history", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response, 1)
	assert.Equal(t, "01J5V4Q7J3ZK8W6M2N1P0R9S8T", response[0]["id"])
	assert.Equal(t, "user-123", response[0]["userId"])
	assert.Equal(t, "2026-04-01T10:00:00Z", response[0]["createdAt"])
}

func TestHistory_Empty(t *testing.T) {
	mockUseCase := new(MockPredictionUseCase)
	router := setupTestRouter(mockUseCase, nil)
	mockUseCase.On("History", mock.Anything, "user-123").Return([]*entity.Prediction{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/history", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())
}

func TestHistory_StoreFailure(t *testing.T) {
	mockUseCase := new(MockPredictionUseCase)
	router := setupTestRouter(mockUseCase, nil)
	mockUseCase.On("History", mock.Anything, "user-123").
		Return(nil, apperror.Wrap(apperror.KindPersistence, "Failed to fetch history", errors.New("timeout")))

	req := httptest.NewRequest(http.MethodGet, "/history", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to fetch history", decode(t, w)["error"])
}

func TestDeletePrediction(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"owner", nil, http.StatusOK},
		{"not owner", apperror.Forbidden("Not authorized to delete this prediction"), http.StatusForbidden},
		{"missing", apperror.NotFound("Prediction not found"), http.StatusNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mockUseCase := new(MockPredictionUseCase)
			router := setupTestRouter(mockUseCase, nil)
			mockUseCase.On("Delete", mock.Anything, "pred-1", "user-123").Return(tc.err)

			req := httptest.NewRequest(http.MethodDelete, "/history/pred-1", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tc.status, w.Code)
			if tc.err == nil {
				assert.Equal(t, true, decode(t, w)["success"])
			}
			mockUseCase.AssertExpectations(t)
		})
	}
}

func TestVerify(t *testing.T) {
	verifier := new(MockVerifier)
	router := setupTestRouter(new(MockPredictionUseCase), verifier)

	verifier.On("Verify", mock.Anything, "good-token").Return(testUser, nil)
	verifier.On("Verify", mock.Anything, "bad-token").
		Return(nil, apperror.Wrap(apperror.KindAuth, "Invalid token", errors.New("token is expired")))

	req := httptest.NewRequest(http.MethodPost, "/auth/verify", strings.NewReader(`{"token":"good-token"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	response := decode(t, w)
	assert.Equal(t, true, response["valid"])
	assert.Equal(t, "user-123", response["uid"])
	assert.Equal(t, "maya@example.com", response["email"])

	req = httptest.NewRequest(http.MethodPost, "/auth/verify", strings.NewReader(`{"token":"bad-token"}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	response = decode(t, w)
	assert.Equal(t, false, response["valid"])
	assert.Equal(t, "token is expired", response["error"])
}

func TestVerify_MissingToken(t *testing.T) {
	router := setupTestRouter(new(MockPredictionUseCase), new(MockVerifier))

	req := httptest.NewRequest(http.MethodPost, "/auth/verify", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Token required", decode(t, w)["error"])
}

func TestMe(t *testing.T) {
	router := setupTestRouter(new(MockPredictionUseCase), nil)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	response := decode(t, w)
	assert.Equal(t, "user-123", response["uid"])
	assert.Equal(t, "maya", response["displayName"])
}
