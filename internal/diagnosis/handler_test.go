package diagnosis

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medassist/telehealth-platform/internal/chatlog"
	"github.com/medassist/telehealth-platform/internal/doctors"
	"github.com/medassist/telehealth-platform/internal/http/middleware"
	"github.com/medassist/telehealth-platform/internal/patients"
	"github.com/medassist/telehealth-platform/pkg/logging"
)

type fakeResolver struct{}

func (fakeResolver) GetByAccountID(_ context.Context, accountID string) (*patients.Patient, error) {
	if accountID == "acc-pat" {
		return &patients.Patient{ID: "pat-1", AccountID: "acc-pat"}, nil
	}
	return nil, patients.ErrPatientNotFound
}

type fakeHistoryLister struct {
	messages []string
	err      error
}

func (f *fakeHistoryLister) List(_ context.Context, _ string) ([]string, error) {
	return f.messages, f.err
}

func withSession(req *http.Request) *http.Request {
	return req.WithContext(middleware.WithIdentity(req.Context(), middleware.Identity{
		AccountID: "acc-pat", Role: "patient",
	}))
}

func newIntakeHandler(t *testing.T, classifier *fakeClassifier, lister *fakeLister, history *fakeHistoryLister) *Handler {
	t.Helper()
	svc, _ := newIntakeService(t, classifier, lister, nil)
	var hl HistoryLister
	if history != nil {
		hl = history
	}
	return NewHandler(svc, fakeResolver{}, hl, logging.Default())
}

func TestHandlerAnalyze(t *testing.T) {
	classifier := &fakeClassifier{analysis: flu()}
	lister := &fakeLister{doctors: []*doctors.Doctor{{ID: "doc-1", Name: "Alice Hart", Specialization: "General Medicine"}}}
	h := newIntakeHandler(t, classifier, lister, nil)

	body := `{"user_input":"I have a fever"}`
	rr := httptest.NewRecorder()
	h.Analyze(rr, withSession(httptest.NewRequest(http.MethodPost, "/intake/analyze", strings.NewReader(body))))

	require.Equal(t, http.StatusOK, rr.Code)
	var state State
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &state))
	assert.Equal(t, "flu", state.Result.Diagnosis)
	require.Len(t, state.Doctors, 1)
	assert.Equal(t, "Alice Hart", state.Doctors[0].Name)
}

func TestHandlerAnalyzeEmptyInput(t *testing.T) {
	h := newIntakeHandler(t, &fakeClassifier{analysis: flu()}, &fakeLister{}, nil)

	rr := httptest.NewRecorder()
	h.Analyze(rr, withSession(httptest.NewRequest(http.MethodPost, "/intake/analyze", strings.NewReader(`{"user_input":"  "}`))))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandlerAnalyzeClassifierDown(t *testing.T) {
	h := newIntakeHandler(t, &fakeClassifier{err: errors.New("model offline")}, &fakeLister{}, nil)

	rr := httptest.NewRecorder()
	h.Analyze(rr, withSession(httptest.NewRequest(http.MethodPost, "/intake/analyze", strings.NewReader(`{"user_input":"fever"}`))))
	assert.Equal(t, http.StatusBadGateway, rr.Code)
}

func TestHandlerAnalyzeWithoutSession(t *testing.T) {
	h := newIntakeHandler(t, &fakeClassifier{analysis: flu()}, &fakeLister{}, nil)

	rr := httptest.NewRecorder()
	h.Analyze(rr, httptest.NewRequest(http.MethodPost, "/intake/analyze", strings.NewReader(`{"user_input":"fever"}`)))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestHandlerGetStateEmpty(t *testing.T) {
	h := newIntakeHandler(t, &fakeClassifier{analysis: flu()}, &fakeLister{}, nil)

	rr := httptest.NewRecorder()
	h.GetState(rr, withSession(httptest.NewRequest(http.MethodGet, "/intake/state", nil)))

	require.Equal(t, http.StatusOK, rr.Code)
	var state State
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &state))
	assert.Empty(t, state.UserInput)
}

func TestHandlerChatHistory(t *testing.T) {
	legacy := "User Input: I have a fever\nDiagnosis: flu\nSymptoms: fever\nSuggested Fields: General Medicine\nDoctors: Alice Hart - General Medicine\n"
	tagged, err := chatlog.EncodeJSON(chatlog.Consultation{UserInput: "rash on my arm", Diagnosis: "dermatitis"})
	require.NoError(t, err)

	history := &fakeHistoryLister{messages: []string{legacy, tagged}}
	h := newIntakeHandler(t, &fakeClassifier{analysis: flu()}, &fakeLister{}, history)

	rr := httptest.NewRecorder()
	h.ChatHistory(rr, withSession(httptest.NewRequest(http.MethodGet, "/patients/me/chat-history", nil)))

	require.Equal(t, http.StatusOK, rr.Code)
	var resp ChatHistoryResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.Count)

	// Legacy and tagged entries decode through the same endpoint.
	assert.Equal(t, "flu", resp.Consultations[0].Diagnosis)
	assert.Equal(t, []string{"Alice Hart - General Medicine"}, resp.Consultations[0].Doctors)
	assert.Equal(t, "dermatitis", resp.Consultations[1].Diagnosis)
}

func TestHandlerChatHistoryListFailure(t *testing.T) {
	history := &fakeHistoryLister{err: errors.New("dynamo down")}
	h := newIntakeHandler(t, &fakeClassifier{analysis: flu()}, &fakeLister{}, history)

	rr := httptest.NewRecorder()
	h.ChatHistory(rr, withSession(httptest.NewRequest(http.MethodGet, "/patients/me/chat-history", nil)))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
