package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/AliShamas2000/codelance-web-v2-sub000/internal/appointments"
	"github.com/AliShamas2000/codelance-web-v2-sub000/internal/availability"
	"github.com/AliShamas2000/codelance-web-v2-sub000/internal/booking"
	httpmiddleware "github.com/AliShamas2000/codelance-web-v2-sub000/internal/http/middleware"
	"github.com/AliShamas2000/codelance-web-v2-sub000/internal/observability/metrics"
	"github.com/AliShamas2000/codelance-web-v2-sub000/internal/session"
	"github.com/AliShamas2000/codelance-web-v2-sub000/pkg/logging"
)

// SurfaceKind selects how a handler set opens its booking sessions. The
// three HTTP families share one handler implementation; the differences are
// seeding and auth, not booking logic.
type SurfaceKind string

const (
	SurfacePublic SurfaceKind = "public"
	SurfaceAdmin  SurfaceKind = "admin"
	SurfaceBarber SurfaceKind = "barber"
)

// Catalog lists barbers and services for the surface's pickers.
type Catalog interface {
	GetBarbers(ctx context.Context) ([]availability.Barber, error)
	GetServices(ctx context.Context) ([]availability.Service, error)
}

// Submitter creates appointments on the collaborator.
type Submitter interface {
	Submit(ctx context.Context, appt appointments.Appointment) (*appointments.Record, error)
}

// RecordLoader loads existing appointments; the admin edit surface seeds
// from them.
type RecordLoader interface {
	Get(ctx context.Context, id int) (*appointments.Record, error)
}

// BookingDeps wires one endpoint family's collaborators into a handler set.
type BookingDeps struct {
	Sessions  *session.Store
	Gateway   booking.Gateway
	Catalog   Catalog
	Submitter Submitter
	Records   RecordLoader
	Logger    *logging.Logger
	Metrics   *metrics.BookingMetrics
}

// BookingHandler exposes one booking surface family over REST. A session is
// one open surface; its controller owns the selection and availability
// state between requests.
type BookingHandler struct {
	kind      SurfaceKind
	sessions  *session.Store
	gateway   booking.Gateway
	catalog   Catalog
	submitter Submitter
	records   RecordLoader
	logger    *logging.Logger
	metrics   *metrics.BookingMetrics
}

// NewBookingHandler creates the handler set for one surface family.
func NewBookingHandler(kind SurfaceKind, deps BookingDeps) *BookingHandler {
	if deps.Sessions == nil {
		panic("handlers: session store required")
	}
	if deps.Gateway == nil {
		panic("handlers: availability gateway required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &BookingHandler{
		kind:      kind,
		sessions:  deps.Sessions,
		gateway:   deps.Gateway,
		catalog:   deps.Catalog,
		submitter: deps.Submitter,
		records:   deps.Records,
		logger:    logger,
		metrics:   deps.Metrics,
	}
}

// Routes mounts the booking session endpoints.
func (h *BookingHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Open)
	r.Get("/meta/barbers", h.ListBarbers)
	r.Get("/meta/services", h.ListServices)
	r.Route("/{sessionID}", func(r chi.Router) {
		r.Get("/", h.GetState)
		r.Delete("/", h.Close)
		r.Put("/barber", h.SetBarber)
		r.Put("/services", h.SetServices)
		r.Put("/date", h.SetDate)
		r.Put("/time", h.SetTime)
		r.Get("/calendar", h.GetCalendar)
		r.Get("/slots", h.GetSlots)
		r.Post("/submit", h.Submit)
	})
	return r
}

type openRequest struct {
	// AppointmentID seeds an admin session from an existing appointment
	// (edit mode). Ignored on the other surfaces.
	AppointmentID int `json:"appointment_id,omitempty"`
}

// Open starts a booking session and issues the initial fetches for seeded
// selections.
func (h *BookingHandler) Open(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	surface, ok := h.openSurface(w, r, req)
	if !ok {
		return
	}

	ctrl := booking.NewController(surface, h.gateway, h.logger, h.metrics)
	ctrl.Start(r.Context())
	sess := h.sessions.Create(ctrl)
	h.metrics.SetOpenSessions(h.sessions.Len())

	writeJSON(w, http.StatusCreated, h.stateResponse(sess))
}

// openSurface builds the SurfaceConfig for this family; on failure it has
// already written the error response.
func (h *BookingHandler) openSurface(w http.ResponseWriter, r *http.Request, req openRequest) (booking.SurfaceConfig, bool) {
	switch h.kind {
	case SurfaceAdmin:
		if req.AppointmentID == 0 {
			return booking.AdminNewSurface(), true
		}
		if h.records == nil {
			writeError(w, http.StatusNotImplemented, "editing is not available")
			return booking.SurfaceConfig{}, false
		}
		rec, err := h.records.Get(r.Context(), req.AppointmentID)
		if err != nil {
			h.logger.Error("load appointment for edit failed",
				"appointment_id", req.AppointmentID, "error", err)
			writeError(w, http.StatusNotFound, "appointment not found")
			return booking.SurfaceConfig{}, false
		}
		return booking.AdminEditSurface(booking.Seed{
			BarberID:   rec.BarberID,
			ServiceIDs: rec.ServiceIDs,
			Date:       rec.Date,
			Time:       rec.Time,
		}), true
	case SurfaceBarber:
		barberID := httpmiddleware.BarberIDFromContext(r.Context())
		if barberID == 0 {
			writeError(w, http.StatusUnauthorized, "barber identity required")
			return booking.SurfaceConfig{}, false
		}
		return booking.StaffSurface(barberID), true
	default:
		return booking.PublicSurface(), true
	}
}

// GetState returns the current selection and loading flags.
func (h *BookingHandler) GetState(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.stateResponse(sess))
}

// Close discards the session.
func (h *BookingHandler) Close(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown session")
		return
	}
	h.sessions.Delete(id)
	h.metrics.SetOpenSessions(h.sessions.Len())
	w.WriteHeader(http.StatusNoContent)
}

type setBarberRequest struct {
	BarberID int `json:"barber_id"`
}

// SetBarber changes the barber; downstream selections reset and the barber's
// open dates are fetched.
func (h *BookingHandler) SetBarber(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var req setBarberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := sess.Controller.SetBarber(r.Context(), req.BarberID); err != nil {
		h.writeControllerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.stateResponse(sess))
}

type setServicesRequest struct {
	ServiceIDs []int `json:"service_ids"`
}

// SetServices replaces the service selection; with a date picked the slots
// are re-fetched for the new total duration.
func (h *BookingHandler) SetServices(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var req setServicesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := sess.Controller.SetServices(r.Context(), req.ServiceIDs); err != nil {
		h.writeControllerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.stateResponse(sess))
}

type setDateRequest struct {
	Date string `json:"date"` // "YYYY-MM-DD"
}

// SetDate picks a day; the slot fetch for it is issued before we answer.
func (h *BookingHandler) SetDate(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var req setDateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	day, err := booking.ParseLocalISODate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	if err := sess.Controller.SetDate(r.Context(), day); err != nil {
		h.writeControllerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.stateResponse(sess))
}

type setTimeRequest struct {
	Time string `json:"time"` // "10:00 AM" or "10:00"
}

// SetTime picks a slot; terminal selection, no further fetch.
func (h *BookingHandler) SetTime(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var req setTimeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := sess.Controller.SetTime(req.Time); err != nil {
		h.writeControllerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.stateResponse(sess))
}

// GetCalendar renders the month grid. The month cursor is view state: it
// defaults to the selected date's month, then today's, and never changes
// the selection.
func (h *BookingHandler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	sel := sess.Controller.Selection()
	cursor := booking.DefaultMonthCursor(sel.Date, time.Now())
	if raw := r.URL.Query().Get("month"); raw != "" {
		parsed, err := time.ParseInLocation("2006-01", raw, time.Local)
		if err != nil {
			writeError(w, http.StatusBadRequest, "month must be YYYY-MM")
			return
		}
		cursor = parsed
	}
	writeJSON(w, http.StatusOK, sess.Controller.Calendar(cursor))
}

// GetSlots renders the slot list for the current selection.
func (h *BookingHandler) GetSlots(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Controller.Slots())
}

type submitResponse struct {
	Appointment *appointments.Record `json:"appointment"`
}

// Submit validates the selection plus client details and creates the
// appointment. The collaborator remains authoritative: a slot taken between
// fetch and submit comes back as a conflict and the user must re-pick.
func (h *BookingHandler) Submit(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if h.submitter == nil {
		writeError(w, http.StatusNotImplemented, "submission is not available")
		return
	}

	var info booking.ClientInfo
	if err := json.NewDecoder(r.Body).Decode(&info); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	surface := sess.Controller.Surface().Name
	sel := sess.Controller.Selection()
	if fieldErrs := booking.ValidateSubmission(sel, info); len(fieldErrs) > 0 {
		h.metrics.ObserveSubmission(surface, "invalid")
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": fieldErrs})
		return
	}

	appt := appointments.Appointment{
		FullName:   info.FullName,
		Phone:      info.Phone,
		Email:      info.Email,
		Date:       booking.LocalISODate(*sel.Date),
		Time:       sel.Time,
		ServiceIDs: sel.ServiceIDs,
		BarberID:   sel.BarberID,
		Notes:      info.Notes,
	}

	rec, err := h.submitter.Submit(r.Context(), appt)
	switch {
	case errors.Is(err, appointments.ErrConflict):
		// Keep the session; the user re-picks date/time, which re-runs
		// the fetch cycle.
		h.metrics.ObserveSubmission(surface, "conflict")
		writeError(w, http.StatusConflict, "that slot was just taken, please pick another time")
		return
	case err != nil:
		h.logger.Error("appointment submission failed", "surface", surface, "error", err)
		h.metrics.ObserveSubmission(surface, "error")
		writeError(w, http.StatusBadGateway, "could not create the appointment, please try again")
		return
	}

	h.sessions.Delete(sess.ID)
	h.metrics.ObserveSubmission(surface, "created")
	h.metrics.SetOpenSessions(h.sessions.Len())
	writeJSON(w, http.StatusCreated, submitResponse{Appointment: rec})
}

// ListBarbers proxies the staff catalog. Fetch failures degrade to an empty
// list, same as availability.
func (h *BookingHandler) ListBarbers(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil {
		writeJSON(w, http.StatusOK, []availability.Barber{})
		return
	}
	barbers, err := h.catalog.GetBarbers(r.Context())
	if err != nil {
		h.logger.Error("barber catalog fetch failed", "error", err)
		barbers = []availability.Barber{}
	}
	if barbers == nil {
		barbers = []availability.Barber{}
	}
	writeJSON(w, http.StatusOK, barbers)
}

// ListServices proxies the service catalog.
func (h *BookingHandler) ListServices(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil {
		writeJSON(w, http.StatusOK, []availability.Service{})
		return
	}
	services, err := h.catalog.GetServices(r.Context())
	if err != nil {
		h.logger.Error("service catalog fetch failed", "error", err)
		services = []availability.Service{}
	}
	if services == nil {
		services = []availability.Service{}
	}
	writeJSON(w, http.StatusOK, services)
}

func (h *BookingHandler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown session")
		return nil, false
	}
	sess, err := h.sessions.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown session")
		return nil, false
	}
	return sess, true
}

func (h *BookingHandler) writeControllerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrBarberLocked):
		writeError(w, http.StatusForbidden, "the barber is fixed for this booking")
	case errors.Is(err, booking.ErrUnknownBarber):
		writeError(w, http.StatusUnprocessableEntity, "pick a barber")
	case errors.Is(err, booking.ErrDateUnavailable):
		writeError(w, http.StatusUnprocessableEntity, "that date is not available")
	case errors.Is(err, booking.ErrNoDateSelected):
		writeError(w, http.StatusUnprocessableEntity, "pick a date first")
	case errors.Is(err, booking.ErrSlotUnavailable):
		writeError(w, http.StatusUnprocessableEntity, "that time slot is not available")
	default:
		writeError(w, http.StatusInternalServerError, "something went wrong")
	}
}

type selectionResponse struct {
	BarberID   int     `json:"barber_id"`
	ServiceIDs []int   `json:"service_ids"`
	Date       *string `json:"date"` // "YYYY-MM-DD"
	Time       string  `json:"time"` // "HH:MM"
}

type stateResponse struct {
	SessionID           string            `json:"session_id"`
	Surface             string            `json:"surface"`
	HideBarberSelection bool              `json:"hide_barber_selection"`
	Selection           selectionResponse `json:"selection"`
	LoadingDates        bool              `json:"loading_dates"`
	LoadingSlots        bool              `json:"loading_slots"`
}

func (h *BookingHandler) stateResponse(sess *session.Session) stateResponse {
	state := sess.Controller.State()
	sel := selectionResponse{
		BarberID:   state.Selection.BarberID,
		ServiceIDs: state.Selection.ServiceIDs,
		Time:       state.Selection.Time,
	}
	if sel.ServiceIDs == nil {
		sel.ServiceIDs = []int{}
	}
	if state.Selection.Date != nil {
		iso := booking.LocalISODate(*state.Selection.Date)
		sel.Date = &iso
	}
	return stateResponse{
		SessionID:           sess.ID.String(),
		Surface:             state.Surface,
		HideBarberSelection: sess.Controller.Surface().HideBarberSelection,
		Selection:           sel,
		LoadingDates:        state.LoadingDates,
		LoadingSlots:        state.LoadingSlots,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
