package diagnosis

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"

	"github.com/medassist/telehealth-platform/internal/chatlog"
	"github.com/medassist/telehealth-platform/internal/doctors"
	"github.com/medassist/telehealth-platform/internal/observability/metrics"
	"github.com/medassist/telehealth-platform/pkg/logging"
)

var intakeTracer = otel.Tracer("telehealth.internal.diagnosis")

// ErrClassifierUnavailable masks classifier transport details from callers.
var ErrClassifierUnavailable = errors.New("diagnosis: classifier unavailable")

// Classifier analyzes a free-text symptom description.
type Classifier interface {
	Analyze(ctx context.Context, userInput string) (*Analysis, error)
}

// DoctorLister returns doctors matching the suggested specializations.
type DoctorLister interface {
	ListBySpecializations(ctx context.Context, specializations []string) ([]*doctors.Doctor, error)
}

// HistoryAppender records consultation messages in the patient's chat
// history.
type HistoryAppender interface {
	Append(ctx context.Context, patientID, message string) error
}

// Service runs the intake flow end to end.
type Service struct {
	classifier Classifier
	cache      *SessionCache
	doctors    DoctorLister
	history    HistoryAppender
	logger     *logging.Logger
	metrics    *metrics.IntakeMetrics
}

// NewService constructs a diagnosis service.
func NewService(classifier Classifier, cache *SessionCache, lister DoctorLister, history HistoryAppender, logger *logging.Logger, m *metrics.IntakeMetrics) *Service {
	if classifier == nil || cache == nil || lister == nil {
		panic("diagnosis: classifier, cache, and doctor lister required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		classifier: classifier,
		cache:      cache,
		doctors:    lister,
		history:    history,
		logger:     logger,
		metrics:    m,
	}
}

// Analyze classifies the input, caches the intake state, resolves doctor
// candidates from the suggested specializations, and appends the
// consultation to the patient's chat history. A classifier failure leaves
// the cached state untouched. A history write failure is logged but does not
// fail the intake.
func (s *Service) Analyze(ctx context.Context, patientID, userInput string) (State, error) {
	ctx, span := intakeTracer.Start(ctx, "diagnosis.analyze")
	defer span.End()

	analysis, err := s.classifier.Analyze(ctx, userInput)
	if err != nil {
		span.RecordError(err)
		s.metrics.ObserveRequest("classifier_error")
		s.logger.Error("symptom classification failed", "patient_id", patientID, "error", err)
		return State{}, ErrClassifierUnavailable
	}

	candidates, err := s.doctors.ListBySpecializations(ctx, analysis.SuggestedFields)
	if err != nil {
		span.RecordError(err)
		s.metrics.ObserveRequest("error")
		return State{}, fmt.Errorf("diagnosis: list doctors: %w", err)
	}

	state := State{
		UserInput:       userInput,
		Result:          analysis,
		Specializations: analysis.SuggestedFields,
		Doctors:         candidates,
	}
	if err := s.cache.Put(ctx, patientID, state); err != nil {
		span.RecordError(err)
		s.metrics.ObserveRequest("error")
		return State{}, err
	}

	s.recordConsultation(ctx, patientID, state)
	s.metrics.ObserveRequest("ok")
	return state, nil
}

// StateFor returns the patient's cached intake state.
func (s *Service) StateFor(ctx context.Context, patientID string) (State, error) {
	return s.cache.Get(ctx, patientID)
}

func (s *Service) recordConsultation(ctx context.Context, patientID string, state State) {
	if s.history == nil {
		return
	}
	names := make([]string, 0, len(state.Doctors))
	for _, d := range state.Doctors {
		names = append(names, d.Name+" - "+d.Specialization)
	}
	message, err := chatlog.EncodeJSON(chatlog.Consultation{
		UserInput:       state.UserInput,
		Diagnosis:       state.Result.Diagnosis,
		Symptoms:        state.Result.Symptoms,
		SuggestedFields: state.Specializations,
		Doctors:         names,
	})
	if err != nil {
		s.logger.Error("failed to encode consultation", "patient_id", patientID, "error", err)
		return
	}
	if err := s.history.Append(ctx, patientID, message); err != nil {
		s.logger.Error("failed to append chat history", "patient_id", patientID, "error", err)
	}
}
