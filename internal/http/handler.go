package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"homestay-service/internal/compliance"
	"homestay-service/internal/db"
	"homestay-service/internal/http/middleware"
	"homestay-service/internal/lineage"
	"homestay-service/internal/model"
	"homestay-service/internal/service"
	"homestay-service/internal/workflow"
)

type Handler struct {
	applicationService *service.ApplicationService
	lifecycleService   *service.LifecycleService
	database           *gorm.DB
	log                zerolog.Logger
}

func NewHandler(
	applicationService *service.ApplicationService,
	lifecycleService *service.LifecycleService,
	database *gorm.DB,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		applicationService: applicationService,
		lifecycleService:   lifecycleService,
		database:           database,
		log:                log,
	}
}

func (h *Handler) health(c *gin.Context) {
	if err := db.HealthCheck(c.Request.Context(), h.database); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) createApplication(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	var req struct {
		Kind                 string  `json:"kind"`
		Category             string  `json:"category"`
		ServiceContext       *string `json:"service_context"`
		PropertyName         string  `json:"property_name"`
		OwnerName            string  `json:"owner_name"`
		OwnerGender          string  `json:"owner_gender"`
		Address              string  `json:"address"`
		Tehsil               string  `json:"tehsil"`
		Village              string  `json:"village"`
		GSTIN                string  `json:"gstin"`
		DistrictCode         string  `json:"district_code"`
		LocationType         string  `json:"location_type"`
		IsSpecialSubDivision bool    `json:"is_special_sub_division"`
		ValidityYears        int     `json:"validity_years"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	input := service.CreateDraftInput{
		Kind:                 model.ApplicationKind(strings.ToLower(strings.TrimSpace(req.Kind))),
		Category:             model.Category(strings.ToLower(strings.TrimSpace(req.Category))),
		ServiceContext:       req.ServiceContext,
		PropertyName:         req.PropertyName,
		OwnerName:            req.OwnerName,
		OwnerGender:          req.OwnerGender,
		Address:              req.Address,
		Tehsil:               req.Tehsil,
		Village:              req.Village,
		GSTIN:                req.GSTIN,
		DistrictCode:         req.DistrictCode,
		LocationType:         model.LocationType(strings.ToLower(strings.TrimSpace(req.LocationType))),
		IsSpecialSubDivision: req.IsSpecialSubDivision,
		ValidityYears:        req.ValidityYears,
	}

	app, err := h.applicationService.CreateDraft(c.Request.Context(), principal, input)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(app))
}

func (h *Handler) listApplications(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	var opts service.ListOptions
	if statusParam := c.Query("status"); statusParam != "" {
		for _, val := range splitCSV(statusParam) {
			opts.Statuses = append(opts.Statuses, model.ApplicationStatus(strings.ToLower(val)))
		}
	}
	if kindParam := c.Query("kind"); kindParam != "" {
		for _, val := range splitCSV(kindParam) {
			opts.Kinds = append(opts.Kinds, model.ApplicationKind(strings.ToLower(val)))
		}
	}
	if limit := strings.TrimSpace(c.Query("limit")); limit != "" {
		if v, err := strconv.Atoi(limit); err == nil {
			opts.Limit = v
		}
	}
	if offset := strings.TrimSpace(c.Query("offset")); offset != "" {
		if v, err := strconv.Atoi(offset); err == nil {
			opts.Offset = v
		}
	}

	briefs, err := h.applicationService.List(c.Request.Context(), principal, opts)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"items": briefs}))
}

func (h *Handler) getApplication(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	id, err := parseID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid application id"))
		return
	}

	details, err := h.applicationService.GetDetails(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(details))
}

func (h *Handler) updateApplication(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	id, err := parseID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid application id"))
		return
	}

	var req struct {
		PropertyName      *string               `json:"property_name"`
		OwnerName         *string               `json:"owner_name"`
		OwnerGender       *string               `json:"owner_gender"`
		Address           *string               `json:"address"`
		Tehsil            *string               `json:"tehsil"`
		Village           *string               `json:"village"`
		GSTIN             *string               `json:"gstin"`
		Category          *string               `json:"category"`
		ValidityYears     *int                  `json:"validity_years"`
		AttachedWashrooms *int                  `json:"attached_washrooms"`
		SingleBedRooms    *service.RoomRowInput `json:"single_bed_rooms"`
		DoubleBedRooms    *service.RoomRowInput `json:"double_bed_rooms"`
		FamilySuites      *service.RoomRowInput `json:"family_suites"`
		ServiceContext    *string               `json:"service_context"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	input := service.UpdateDraftInput{
		PropertyName:      req.PropertyName,
		OwnerName:         req.OwnerName,
		OwnerGender:       req.OwnerGender,
		Address:           req.Address,
		Tehsil:            req.Tehsil,
		Village:           req.Village,
		GSTIN:             req.GSTIN,
		ValidityYears:     req.ValidityYears,
		AttachedWashrooms: req.AttachedWashrooms,
		SingleBedRooms:    req.SingleBedRooms,
		DoubleBedRooms:    req.DoubleBedRooms,
		FamilySuites:      req.FamilySuites,
		ServiceContext:    req.ServiceContext,
	}
	if req.Category != nil {
		category := model.Category(strings.ToLower(strings.TrimSpace(*req.Category)))
		input.Category = &category
	}

	app, err := h.applicationService.UpdateDraft(c.Request.Context(), principal, id, input)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(app))
}

func (h *Handler) submitApplication(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	id, err := parseID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid application id"))
		return
	}

	app, err := h.lifecycleService.Submit(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(app))
}

func (h *Handler) actOnApplication(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	id, err := parseID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid application id"))
		return
	}

	var req struct {
		Action           string            `json:"action" binding:"required"`
		Remarks          string            `json:"remarks"`
		OTPVerified      bool              `json:"otp_verified"`
		InspectionDate   *time.Time        `json:"inspection_date"`
		AssignTo         *string           `json:"assign_to"`
		PaymentReference string            `json:"payment_reference"`
		Fields           map[string]string `json:"fields"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	input := service.ActionInput{
		Action:           strings.ToLower(strings.TrimSpace(req.Action)),
		Remarks:          req.Remarks,
		OTPVerified:      req.OTPVerified,
		InspectionDate:   req.InspectionDate,
		PaymentReference: req.PaymentReference,
		Fields:           req.Fields,
	}
	if req.AssignTo != nil {
		assignee, err := uuid.Parse(strings.TrimSpace(*req.AssignTo))
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("invalid assign_to"))
			return
		}
		input.AssignTo = &assignee
	}

	app, err := h.lifecycleService.Act(c.Request.Context(), principal, id, input)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(app))
}

func (h *Handler) resubmitApplication(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	id, err := parseID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid application id"))
		return
	}

	var req struct {
		Remarks string `json:"remarks"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	app, err := h.lifecycleService.Resubmit(c.Request.Context(), principal, id, req.Remarks)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(app))
}

func (h *Handler) confirmPayment(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	id, err := parseID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid application id"))
		return
	}

	var req struct {
		PaymentReference string `json:"payment_reference" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	input := service.ActionInput{
		Action:           string(workflow.OpConfirmPayment),
		PaymentReference: req.PaymentReference,
	}
	app, err := h.lifecycleService.Act(c.Request.Context(), principal, id, input)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(app))
}

func (h *Handler) getTimeline(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	id, err := parseID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid application id"))
		return
	}

	actions, err := h.applicationService.Timeline(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"items": actions}))
}

func (h *Handler) addDocument(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	id, err := parseID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid application id"))
		return
	}

	var req struct {
		DocType string `json:"doc_type" binding:"required"`
		FileURL string `json:"file_url" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	doc, err := h.applicationService.AddDocument(c.Request.Context(), principal, id, req.DocType, req.FileURL)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(doc))
}

func (h *Handler) verifyDocument(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	id, err := parseID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid document id"))
		return
	}

	var req struct {
		Verification string `json:"verification" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	verification := model.DocumentVerification(strings.ToLower(strings.TrimSpace(req.Verification)))
	if err := h.applicationService.VerifyDocument(c.Request.Context(), principal, id, verification); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"status": "updated"}))
}

func (h *Handler) completeInspection(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	orderID, err := parseID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid inspection order id"))
		return
	}

	var req struct {
		ActualDate            time.Time `json:"actual_date" binding:"required"`
		Recommendation        string    `json:"recommendation" binding:"required"`
		Remarks               string    `json:"remarks"`
		EarlyOverride         bool      `json:"early_override"`
		OverrideJustification string    `json:"override_justification"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	input := service.CompleteInspectionInput{
		ActualDate:            req.ActualDate,
		Recommendation:        strings.ToLower(strings.TrimSpace(req.Recommendation)),
		Remarks:               req.Remarks,
		EarlyOverride:         req.EarlyOverride,
		OverrideJustification: req.OverrideJustification,
	}
	app, err := h.lifecycleService.CompleteInspection(c.Request.Context(), principal, orderID, input)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(app))
}

func (h *Handler) quoteFee(c *gin.Context) {
	if _, ok := middleware.MustPrincipal(c); !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	var req struct {
		Category             string `json:"category" binding:"required"`
		LocationType         string `json:"location_type" binding:"required"`
		ValidityYears        int    `json:"validity_years" binding:"required"`
		OwnerGender          string `json:"owner_gender"`
		IsSpecialSubDivision bool   `json:"is_special_sub_division"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	input := compliance.FeeInput{
		Category:             model.Category(strings.ToLower(strings.TrimSpace(req.Category))),
		LocationType:         model.LocationType(strings.ToLower(strings.TrimSpace(req.LocationType))),
		ValidityYears:        req.ValidityYears,
		OwnerGender:          strings.ToLower(strings.TrimSpace(req.OwnerGender)),
		IsSpecialSubDivision: req.IsSpecialSubDivision,
	}
	breakdown, err := h.applicationService.QuoteFee(input)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, successResponse(breakdown))
}

func (h *Handler) checkCategory(c *gin.Context) {
	if _, ok := middleware.MustPrincipal(c); !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	var req struct {
		Category    string  `json:"category" binding:"required"`
		TotalRooms  int     `json:"total_rooms"`
		HighestRate float64 `json:"highest_rate"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	result := h.applicationService.CheckCategory(
		model.Category(strings.ToLower(strings.TrimSpace(req.Category))),
		req.TotalRooms,
		req.HighestRate,
	)

	c.JSON(http.StatusOK, successResponse(result))
}

func (h *Handler) handleError(c *gin.Context, err error) {
	var guardErr *workflow.GuardError
	var validationErr *workflow.ValidationError
	var duplicateErr *service.DuplicateActiveError
	var openRequestErr *lineage.OpenRequestError

	switch {
	case errors.Is(err, workflow.ErrOTPRequired):
		c.JSON(http.StatusPreconditionRequired, gin.H{
			"error":        err.Error(),
			"otp_required": true,
		})
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "validation failed",
			"errors": validationErr.Messages,
		})
	case errors.As(err, &guardErr):
		c.JSON(http.StatusBadRequest, errorResponse(guardErr.Msg))
	case errors.As(err, &duplicateErr):
		c.JSON(http.StatusConflict, gin.H{
			"error":                   err.Error(),
			"conflicting_application": duplicateErr.ConflictingID,
			"conflicting_number":      duplicateErr.ConflictingNumber,
		})
	case errors.As(err, &openRequestErr):
		c.JSON(http.StatusConflict, gin.H{
			"error":                   err.Error(),
			"conflicting_application": openRequestErr.ConflictingID,
			"conflicting_number":      openRequestErr.ConflictingNumber,
		})
	case errors.Is(err, workflow.ErrForbidden), errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, errorResponse(err.Error()))
	case errors.Is(err, workflow.ErrInvalidState):
		c.JSON(http.StatusConflict, errorResponse(err.Error()))
	case errors.Is(err, workflow.ErrUnknownOperation), errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, lineage.ErrNoApprovedParent):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse(err.Error()))
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, errorResponse(err.Error()))
	case errors.Is(err, service.ErrInvalidStatus):
		c.JSON(http.StatusConflict, errorResponse(err.Error()))
	default:
		h.log.Error().Err(err).Msg("handler error")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
	}
}

func parseID(c *gin.Context, param string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(c.Param(param)))
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

type responseEnvelope struct {
	Data interface{} `json:"data"`
}

func successResponse(data interface{}) responseEnvelope {
	return responseEnvelope{Data: data}
}

func errorResponse(msg string) gin.H {
	return gin.H{"error": msg}
}
