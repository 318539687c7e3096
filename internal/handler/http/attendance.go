package http

import (
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/aggregate"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/punch"
	"github.com/cmlabs-hris/attendance-engine-go/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-engine-go/internal/service/aggregation"
	"github.com/cmlabs-hris/attendance-engine-go/internal/service/derivation"
)

type AttendanceHandler interface {
	MonthStatuses(w http.ResponseWriter, r *http.Request)
	Daily(w http.ResponseWriter, r *http.Request)
	Departments(w http.ResponseWriter, r *http.Request)
	Grid(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	derivationService  derivation.Service
	aggregationService aggregation.Service
}

func NewAttendanceHandler(derivationService derivation.Service, aggregationService aggregation.Service) AttendanceHandler {
	return &attendanceHandlerImpl{
		derivationService:  derivationService,
		aggregationService: aggregationService,
	}
}

// parseMonthYear reads the month and year query parameters. Missing or
// non-numeric values become zero and fail request validation downstream.
func parseMonthYear(r *http.Request) (int, int) {
	month, _ := strconv.Atoi(r.URL.Query().Get("month"))
	year, _ := strconv.Atoi(r.URL.Query().Get("year"))
	return month, year
}

func optionalParam(r *http.Request, name string) *string {
	if v := r.URL.Query().Get(name); v != "" {
		return &v
	}
	return nil
}

// MonthStatuses implements AttendanceHandler.
func (h *attendanceHandlerImpl) MonthStatuses(w http.ResponseWriter, r *http.Request) {
	month, year := parseMonthYear(r)
	req := punch.MonthRequest{
		EmployeeID: optionalParam(r, "employee_id"),
		Month:      month,
		Year:       year,
	}

	result, err := h.derivationService.DeriveMonth(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Daily implements AttendanceHandler.
func (h *attendanceHandlerImpl) Daily(w http.ResponseWriter, r *http.Request) {
	req := aggregate.DailyRequest{
		Date:         r.URL.Query().Get("date"),
		DepartmentID: optionalParam(r, "department_id"),
	}

	result, err := h.aggregationService.AggregateDaily(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Departments implements AttendanceHandler.
func (h *attendanceHandlerImpl) Departments(w http.ResponseWriter, r *http.Request) {
	month, year := parseMonthYear(r)
	req := aggregate.DepartmentRequest{
		Month:        month,
		Year:         year,
		DepartmentID: optionalParam(r, "department_id"),
	}

	result, err := h.aggregationService.AggregateDepartments(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Grid implements AttendanceHandler.
func (h *attendanceHandlerImpl) Grid(w http.ResponseWriter, r *http.Request) {
	month, year := parseMonthYear(r)
	req := aggregate.DepartmentRequest{
		Month:        month,
		Year:         year,
		DepartmentID: optionalParam(r, "department_id"),
	}

	result, err := h.aggregationService.MonthlyGrid(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
