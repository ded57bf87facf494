package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/lumen-studio/booking-engine/internal/availability"
)

type fakeService struct {
	day *availability.DayAvailability
}

func (f *fakeService) GetDayStatus(ctx context.Context, offeringID string, date time.Time) (*availability.DayAvailability, error) {
	return f.day, nil
}

func (f *fakeService) GetSlotStatus(ctx context.Context, offeringID string, windowStart, windowEnd time.Time) (*availability.SlotAvailability, error) {
	return &availability.SlotAvailability{Status: availability.StatusAvailable}, nil
}

func (f *fakeService) GetMonthStatus(ctx context.Context, offeringID string, year int, month time.Month) (map[string]*availability.DayAvailability, error) {
	return map[string]*availability.DayAvailability{}, nil
}

func (f *fakeService) GetRequestStatus(ctx context.Context, offeringID string, date time.Time, selectedTime *string) (*availability.SlotAvailability, error) {
	return &availability.SlotAvailability{Status: availability.StatusAvailable}, nil
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(&fakeService{day: &availability.DayAvailability{
		Status: availability.StatusAvailable,
	}})
	RegisterRoutes(r.Group(""), h)
	return r
}

func TestGetDayQueryValidation(t *testing.T) {
	r := newTestRouter()
	offeringID := uuid.New().String()

	t.Run("valid query", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/availability/day?offering_id="+offeringID+"&date=2026-08-15", nil)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"available"`)
	})

	t.Run("malformed date is rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/availability/day?offering_id="+offeringID+"&date=15.08.2026", nil)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing offering id is rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/availability/day?date=2026-08-15", nil)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGetMonthQueryValidation(t *testing.T) {
	r := newTestRouter()
	offeringID := uuid.New().String()

	t.Run("valid query", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/availability/month?offering_id="+offeringID+"&month=2026-08", nil)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("malformed month is rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/availability/month?offering_id="+offeringID+"&month=August", nil)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
