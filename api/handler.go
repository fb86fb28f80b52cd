package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/possibull/possiblejourney-sub000/config"
	"github.com/possibull/possiblejourney-sub000/models"
	"github.com/possibull/possiblejourney-sub000/repository"
	"github.com/possibull/possiblejourney-sub000/services"
	"github.com/possibull/possiblejourney-sub000/utils"
)

// APIHandler holds all dependencies for API handlers, such as repositories and services.
type APIHandler struct {
	programService    services.ProgramService
	dayService        services.DayService
	evaluationService services.EvaluationService
	templateRepo      repository.TemplateRepository
	metricRepo        repository.MetricRepository
	measurementRepo   repository.MeasurementRepository
	progressRepo      repository.DailyProgressRepository
}

// NewAPIHandler creates a new APIHandler with necessary dependencies.
func NewAPIHandler(
	programService services.ProgramService,
	dayService services.DayService,
	evaluationService services.EvaluationService,
	templateRepo repository.TemplateRepository,
	metricRepo repository.MetricRepository,
	measurementRepo repository.MeasurementRepository,
	progressRepo repository.DailyProgressRepository,
) *APIHandler {
	return &APIHandler{
		programService:    programService,
		dayService:        dayService,
		evaluationService: evaluationService,
		templateRepo:      templateRepo,
		metricRepo:        metricRepo,
		measurementRepo:   measurementRepo,
		progressRepo:      progressRepo,
	}
}

// RegisterRoutes mounts all API routes on the given router group.
func (h *APIHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/templates", h.ListTemplatesHandler)
	r.POST("/templates", h.CreateTemplateHandler)

	r.GET("/program", h.GetProgramHandler)
	r.POST("/program", h.StartProgramHandler)
	r.DELETE("/program", h.ResetProgramHandler)

	r.GET("/day/status", h.DayStatusHandler)
	r.PUT("/day/progress", h.SaveDayProgressHandler)
	r.POST("/day/complete", h.CompleteDayHandler)
	r.POST("/day/acknowledge-missed", h.AcknowledgeMissedDayHandler)
	r.POST("/day/continue-anyway", h.ContinueAnywayHandler)
	r.GET("/day/:appDay/instances", h.ListTaskInstancesHandler)

	r.GET("/metrics", h.ListMetricsHandler)
	r.POST("/metrics", h.CreateMetricHandler)
	r.GET("/metrics/:metricID/measurements", h.ListMeasurementsHandler)
	r.GET("/metrics/:metricID/rolling", h.RollingStatsHandler)
	r.POST("/measurements", h.CreateMeasurementHandler)
	r.PUT("/program/metrics", h.SaveProgramMetricHandler)

	r.POST("/tasks/:taskID/evaluate", h.EvaluateTaskHandler)
}

// ListTemplatesHandler returns the template catalog with tasks.
// GET /api/templates
func (h *APIHandler) ListTemplatesHandler(c *gin.Context) {
	templates, err := h.programService.ListTemplates()
	if err != nil {
		utils.SendJSONError(c, http.StatusInternalServerError, "Failed to list templates.", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "message": "Templates retrieved successfully", "data": templates})
}

// CreateTemplateHandler creates a custom template with its tasks.
// POST /api/templates
func (h *APIHandler) CreateTemplateHandler(c *gin.Context) {
	var template models.ProgramTemplate
	if err := c.ShouldBindJSON(&template); err != nil {
		utils.SendJSONError(c, http.StatusBadRequest, "Invalid request format.", err)
		return
	}
	created, err := h.programService.CreateTemplate(&template)
	if err != nil {
		utils.SendJSONError(c, http.StatusBadRequest, err.Error(), err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"code": 201, "message": "Template created successfully", "data": created})
}

// StartProgramRequest is the payload for starting a new program.
type StartProgramRequest struct {
	TemplateID     string `json:"template_id" binding:"required"`
	StartDate      string `json:"start_date" binding:"required"` // YYYY-MM-DD
	EndOfDayHour   *int   `json:"end_of_day_hour,omitempty"`
	EndOfDayMinute *int   `json:"end_of_day_minute,omitempty"`
	CustomDayCount *int   `json:"custom_day_count,omitempty"`
}

// StartProgramHandler starts a new program from a template, replacing any
// existing one.
// POST /api/program
func (h *APIHandler) StartProgramHandler(c *gin.Context) {
	var req StartProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendJSONError(c, http.StatusBadRequest, "Invalid request format.", err)
		return
	}
	startDate, err := utils.ParseDay(req.StartDate)
	if err != nil {
		utils.SendJSONError(c, http.StatusBadRequest, "Invalid start_date format. Please use YYYY-MM-DD.", err)
		return
	}

	hour, minute := defaultEndOfDay()
	if req.EndOfDayHour != nil {
		hour = *req.EndOfDayHour
	}
	if req.EndOfDayMinute != nil {
		minute = *req.EndOfDayMinute
	}

	program, err := h.programService.StartProgram(req.TemplateID, startDate, hour, minute, req.CustomDayCount)
	if err != nil {
		utils.SendJSONError(c, http.StatusBadRequest, err.Error(), err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"code": 201, "message": "Program started successfully", "data": program})
}

// GetProgramHandler returns the active program.
// GET /api/program
func (h *APIHandler) GetProgramHandler(c *gin.Context) {
	program, err := h.programService.CurrentProgram()
	if err != nil {
		utils.SendJSONError(c, http.StatusInternalServerError, "Failed to load program.", err)
		return
	}
	if program == nil {
		utils.SendJSONError(c, http.StatusNotFound, "No active program.", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "message": "Program retrieved successfully", "data": program})
}

// ResetProgramHandler deletes the active program and its progress history.
// DELETE /api/program
func (h *APIHandler) ResetProgramHandler(c *gin.Context) {
	if err := h.programService.ResetProgram(); err != nil {
		utils.SendJSONError(c, http.StatusInternalServerError, "Failed to reset program.", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "message": "Program reset successfully"})
}

// DayStatusHandler returns the day-machine snapshot. An optional ?now=RFC3339
// query pins the evaluation instant, mainly for clients replaying history.
// GET /api/day/status
func (h *APIHandler) DayStatusHandler(c *gin.Context) {
	now, err := nowFromQuery(c)
	if err != nil {
		utils.SendJSONError(c, http.StatusBadRequest, "Invalid now parameter. Please use RFC3339.", err)
		return
	}
	status, err := h.dayService.DayStatus(now)
	if err != nil {
		if err.Error() == "no active program" {
			utils.SendJSONError(c, http.StatusNotFound, "No active program.", err)
			return
		}
		utils.SendJSONError(c, http.StatusInternalServerError, "Failed to compute day status.", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "message": "Day status computed successfully", "data": status})
}

// SaveDayProgressRequest is the payload for updating the day's checklist.
type SaveDayProgressRequest struct {
	CompletedTaskIDs []string `json:"completed_task_ids"`
}

// SaveDayProgressHandler records the checked-off tasks for the active day.
// PUT /api/day/progress
func (h *APIHandler) SaveDayProgressHandler(c *gin.Context) {
	var req SaveDayProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendJSONError(c, http.StatusBadRequest, "Invalid request format.", err)
		return
	}
	now, err := nowFromQuery(c)
	if err != nil {
		utils.SendJSONError(c, http.StatusBadRequest, "Invalid now parameter. Please use RFC3339.", err)
		return
	}
	status, err := h.dayService.SaveDayProgress(now, req.CompletedTaskIDs)
	if err != nil {
		utils.SendJSONError(c, http.StatusInternalServerError, "Failed to save day progress.", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "message": "Day progress saved successfully", "data": status})
}

// CompleteDayHandler closes out the active day and advances the program.
// POST /api/day/complete
func (h *APIHandler) CompleteDayHandler(c *gin.Context) {
	now, err := nowFromQuery(c)
	if err != nil {
		utils.SendJSONError(c, http.StatusBadRequest, "Invalid now parameter. Please use RFC3339.", err)
		return
	}
	program, err := h.dayService.CompleteDay(now)
	if err != nil {
		utils.SendJSONError(c, http.StatusConflict, err.Error(), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "message": "Day completed successfully", "data": program})
}

// AcknowledgeMissedDayHandler advances past a missed day.
// POST /api/day/acknowledge-missed
func (h *APIHandler) AcknowledgeMissedDayHandler(c *gin.Context) {
	now, err := nowFromQuery(c)
	if err != nil {
		utils.SendJSONError(c, http.StatusBadRequest, "Invalid now parameter. Please use RFC3339.", err)
		return
	}
	program, err := h.dayService.AcknowledgeMissedDay(now)
	if err != nil {
		utils.SendJSONError(c, http.StatusConflict, err.Error(), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "message": "Missed day acknowledged", "data": program})
}

// ContinueAnywayHandler suppresses the missed-day signal for this session.
// POST /api/day/continue-anyway
func (h *APIHandler) ContinueAnywayHandler(c *gin.Context) {
	h.dayService.ContinueAnyway()
	c.JSON(http.StatusOK, gin.H{"code": 200, "message": "Missed-day signal suppressed for this session"})
}

// ListTaskInstancesHandler returns recorded task outcomes for one app day.
// GET /api/day/:appDay/instances
func (h *APIHandler) ListTaskInstancesHandler(c *gin.Context) {
	appDay, err := strconv.Atoi(c.Param("appDay"))
	if err != nil || appDay < 1 {
		utils.SendJSONError(c, http.StatusBadRequest, "Invalid appDay parameter.", err)
		return
	}
	program, err := h.programService.CurrentProgram()
	if err != nil {
		utils.SendJSONError(c, http.StatusInternalServerError, "Failed to load program.", err)
		return
	}
	if program == nil {
		utils.SendJSONError(c, http.StatusNotFound, "No active program.", nil)
		return
	}
	instances, err := h.progressRepo.ListTaskInstances(program.ID, appDay)
	if err != nil {
		utils.SendJSONError(c, http.StatusInternalServerError, "Failed to list task instances.", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "message": "Task instances retrieved successfully", "data": instances})
}

// ListMetricsHandler returns the metric catalog.
// GET /api/metrics?include_archived=true
func (h *APIHandler) ListMetricsHandler(c *gin.Context) {
	includeArchived := c.Query("include_archived") == "true"
	metrics, err := h.metricRepo.List(includeArchived)
	if err != nil {
		utils.SendJSONError(c, http.StatusInternalServerError, "Failed to list metrics.", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "message": "Metrics retrieved successfully", "data": metrics})
}

// CreateMetricHandler adds a metric to the catalog.
// POST /api/metrics
func (h *APIHandler) CreateMetricHandler(c *gin.Context) {
	var metric models.Metric
	if err := c.ShouldBindJSON(&metric); err != nil {
		utils.SendJSONError(c, http.StatusBadRequest, "Invalid request format.", err)
		return
	}
	if metric.Name == "" {
		utils.SendJSONError(c, http.StatusBadRequest, "Metric name is required.", nil)
		return
	}
	if metric.ID == "" {
		metric.ID = utils.NewID()
	}
	if err := h.metricRepo.Create(&metric); err != nil {
		utils.SendJSONError(c, http.StatusInternalServerError, "Failed to create metric.", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"code": 201, "message": "Metric created successfully", "data": metric})
}

// ListMeasurementsHandler returns the measurement history for a metric.
// GET /api/metrics/:metricID/measurements
func (h *APIHandler) ListMeasurementsHandler(c *gin.Context) {
	metricID := c.Param("metricID")
	measurements, err := h.measurementRepo.ListByMetric(metricID)
	if err != nil {
		utils.SendJSONError(c, http.StatusInternalServerError, "Failed to list measurements.", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "message": "Measurements retrieved successfully", "data": measurements})
}

// CreateMeasurementHandler records a measurement.
// POST /api/measurements
func (h *APIHandler) CreateMeasurementHandler(c *gin.Context) {
	var measurement models.Measurement
	if err := c.ShouldBindJSON(&measurement); err != nil {
		utils.SendJSONError(c, http.StatusBadRequest, "Invalid request format.", err)
		return
	}
	if measurement.ID == "" {
		measurement.ID = utils.NewID()
	}
	if measurement.Timestamp.IsZero() {
		measurement.Timestamp = time.Now()
	}
	if measurement.Source == "" {
		measurement.Source = models.MeasurementSourceManual
	}
	if err := h.measurementRepo.Create(&measurement); err != nil {
		utils.SendJSONError(c, http.StatusBadRequest, err.Error(), err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"code": 201, "message": "Measurement recorded successfully", "data": measurement})
}

// RollingStatsHandler returns the rolling sum and average for a metric over a
// trailing window, for progress charts.
// GET /api/metrics/:metricID/rolling?days=7
func (h *APIHandler) RollingStatsHandler(c *gin.Context) {
	metricID := c.Param("metricID")
	days, err := strconv.Atoi(c.DefaultQuery("days", "7"))
	if err != nil || days <= 0 {
		utils.SendJSONError(c, http.StatusBadRequest, "Invalid days parameter.", err)
		return
	}
	now, err := nowFromQuery(c)
	if err != nil {
		utils.SendJSONError(c, http.StatusBadRequest, "Invalid now parameter. Please use RFC3339.", err)
		return
	}

	sum, err := h.measurementRepo.RollingSum(metricID, days, now)
	if err != nil {
		utils.SendJSONError(c, http.StatusInternalServerError, "Failed to compute rolling sum.", err)
		return
	}
	average, err := h.measurementRepo.RollingAverage(metricID, days, now)
	if err != nil {
		utils.SendJSONError(c, http.StatusInternalServerError, "Failed to compute rolling average.", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "message": "Rolling stats computed successfully", "data": gin.H{
		"metric_id": metricID,
		"days":      days,
		"sum":       sum,
		"average":   average,
	}})
}

// SaveProgramMetricRequest is the payload for binding comparison settings to
// the active program.
type SaveProgramMetricRequest struct {
	MetricID       string                `json:"metric_id" binding:"required"`
	Baseline       *float64              `json:"baseline,omitempty"`
	ComparisonMode models.ComparisonMode `json:"comparison_mode"`
	WindowDays     int                   `json:"window_days"`
}

// SaveProgramMetricHandler upserts the comparison settings for one metric on
// the active program.
// PUT /api/program/metrics
func (h *APIHandler) SaveProgramMetricHandler(c *gin.Context) {
	var req SaveProgramMetricRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendJSONError(c, http.StatusBadRequest, "Invalid request format.", err)
		return
	}
	program, err := h.programService.CurrentProgram()
	if err != nil {
		utils.SendJSONError(c, http.StatusInternalServerError, "Failed to load program.", err)
		return
	}
	if program == nil {
		utils.SendJSONError(c, http.StatusNotFound, "No active program.", nil)
		return
	}

	pm, err := h.metricRepo.GetProgramMetric(program.ID, req.MetricID)
	if err != nil {
		utils.SendJSONError(c, http.StatusInternalServerError, "Failed to load program metric.", err)
		return
	}
	if pm == nil {
		pm = &models.ProgramMetric{ID: utils.NewID(), ProgramID: program.ID, MetricID: req.MetricID}
	}
	if req.ComparisonMode != "" {
		pm.ComparisonMode = req.ComparisonMode
	}
	if pm.ComparisonMode == "" {
		pm.ComparisonMode = models.ComparisonModeRelative
	}
	pm.Baseline = req.Baseline
	if req.WindowDays > 0 {
		pm.WindowDays = req.WindowDays
	} else if pm.WindowDays <= 0 {
		pm.WindowDays = 7
	}

	if err := h.metricRepo.SaveProgramMetric(pm); err != nil {
		utils.SendJSONError(c, http.StatusInternalServerError, "Failed to save program metric.", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "message": "Program metric saved successfully", "data": pm})
}

// EvaluateTaskHandler evaluates a task's progress rule against today's
// measurement and records the outcome.
// POST /api/tasks/:taskID/evaluate
func (h *APIHandler) EvaluateTaskHandler(c *gin.Context) {
	taskID := c.Param("taskID")
	now, err := nowFromQuery(c)
	if err != nil {
		utils.SendJSONError(c, http.StatusBadRequest, "Invalid now parameter. Please use RFC3339.", err)
		return
	}

	program, err := h.programService.CurrentProgram()
	if err != nil {
		utils.SendJSONError(c, http.StatusInternalServerError, "Failed to load program.", err)
		return
	}
	if program == nil {
		utils.SendJSONError(c, http.StatusNotFound, "No active program.", nil)
		return
	}
	template, err := h.templateRepo.GetByID(program.TemplateID)
	if err != nil {
		utils.SendJSONError(c, http.StatusInternalServerError, "Failed to load template.", err)
		return
	}
	if template == nil {
		utils.SendJSONError(c, http.StatusInternalServerError, "Template for active program not found.", errors.New("template missing"))
		return
	}

	var task *models.Task
	for i := range template.Tasks {
		if template.Tasks[i].ID == taskID {
			task = &template.Tasks[i]
			break
		}
	}
	if task == nil {
		utils.SendJSONError(c, http.StatusNotFound, "Task not found in active program.", nil)
		return
	}

	instance, err := h.evaluationService.RecordTaskOutcome(program, task, now)
	if err != nil {
		utils.SendJSONError(c, http.StatusInternalServerError, "Failed to evaluate task.", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "message": "Task evaluated successfully", "data": instance})
}

// defaultEndOfDay returns the configured default end-of-day time, falling
// back to 22:00 when no configuration is loaded.
func defaultEndOfDay() (int, int) {
	if hour, minute, err := config.AppConfig.EndOfDayTime(); err == nil {
		return hour, minute
	}
	return 22, 0
}

// nowFromQuery reads an optional ?now=RFC3339 override, defaulting to the
// server clock.
func nowFromQuery(c *gin.Context) (time.Time, error) {
	raw := c.Query("now")
	if raw == "" {
		return time.Now(), nil
	}
	return time.Parse(time.RFC3339, raw)
}
