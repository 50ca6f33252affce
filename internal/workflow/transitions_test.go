package workflow

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homestay-service/internal/model"
)

var (
	testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	ownerID = uuid.New()
	daID    = uuid.New()
	dtdoID  = uuid.New()
)

func ownerPrincipal() model.Principal {
	return model.Principal{UserID: ownerID, Role: model.RoleOwner}
}

func daPrincipal() model.Principal {
	return model.Principal{UserID: daID, Role: model.RoleDealingAssistant, DistrictCode: "KLU"}
}

func dtdoPrincipal() model.Principal {
	return model.Principal{UserID: dtdoID, Role: model.RoleDtdo, DistrictCode: "KLU"}
}

func testApp(status model.ApplicationStatus, kind model.ApplicationKind) model.Application {
	app := model.Application{
		ID:                uuid.New(),
		ApplicationNumber: "HS/KLU/2026/000001",
		UserID:            ownerID,
		DistrictCode:      "KLU",
		Kind:              kind,
		Category:          model.CategorySilver,
		Status:            status,
		LocationType:      model.LocationRural,
		ValidityYears:     1,
		PropertyName:      "Snowline Cottage",
		OwnerName:         "Asha Devi",
		SingleBedRooms:    2,
		SingleBedRoomBeds: 1,
		SingleBedRoomRate: 1200,
		DoubleBedRooms:    1,
		DoubleBedRoomBeds: 2,
		DoubleBedRoomRate: 1800,
		FamilySuiteBeds:   3,
		AttachedWashrooms: 3,
	}
	app.RecomputeTotals()
	return app
}

func decide(t *testing.T, app model.Application, parent *model.Application, order *model.InspectionOrder, req Request, settings Settings) *Decision {
	t.Helper()
	d, err := Decide(app, parent, order, req, settings, testNow)
	require.NoError(t, err)
	require.NotNil(t, d)
	return d
}

func TestDecideGuards(t *testing.T) {
	settings := DefaultSettings()

	t.Run("unknown operation", func(t *testing.T) {
		_, err := Decide(testApp(model.StatusDraft, model.KindNewRegistration), nil, nil,
			Request{Operation: "teleport", Actor: ownerPrincipal()}, settings, testNow)
		assert.ErrorIs(t, err, ErrUnknownOperation)
	})

	t.Run("wrong role", func(t *testing.T) {
		_, err := Decide(testApp(model.StatusDraft, model.KindNewRegistration), nil, nil,
			Request{Operation: OpSubmit, Actor: daPrincipal()}, settings, testNow)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("owner of a different application", func(t *testing.T) {
		stranger := model.Principal{UserID: uuid.New(), Role: model.RoleOwner}
		_, err := Decide(testApp(model.StatusDraft, model.KindNewRegistration), nil, nil,
			Request{Operation: OpSubmit, Actor: stranger}, settings, testNow)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("district mismatch for staff", func(t *testing.T) {
		outsider := model.Principal{UserID: uuid.New(), Role: model.RoleDealingAssistant, DistrictCode: "SML"}
		_, err := Decide(testApp(model.StatusSubmitted, model.KindNewRegistration), nil, nil,
			Request{Operation: OpStartScrutiny, Actor: outsider}, settings, testNow)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("status not in from-list", func(t *testing.T) {
		_, err := Decide(testApp(model.StatusDraft, model.KindNewRegistration), nil, nil,
			Request{Operation: OpStartScrutiny, Actor: daPrincipal()}, settings, testNow)
		assert.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("terminal statuses are immutable", func(t *testing.T) {
		for _, status := range []model.ApplicationStatus{
			model.StatusRejected, model.StatusSuperseded, model.StatusRevoked, model.StatusCertificateCancelled,
		} {
			_, err := Decide(testApp(status, model.KindNewRegistration), nil, nil,
				Request{Operation: OpReject, Actor: dtdoPrincipal(), Remarks: "no"}, settings, testNow)
			assert.ErrorIs(t, err, ErrInvalidState, string(status))
		}
	})
}

func TestSubmit(t *testing.T) {
	settings := DefaultSettings()

	t.Run("moves a valid draft into the review queue", func(t *testing.T) {
		app := testApp(model.StatusDraft, model.KindNewRegistration)
		d := decide(t, app, nil, nil, Request{Operation: OpSubmit, Actor: ownerPrincipal()}, settings)

		assert.Equal(t, model.StatusSubmitted, d.Application.Status)
		assert.Equal(t, StageScrutiny, d.Application.CurrentStage)
		require.NotNil(t, d.Application.SubmittedAt)
		assert.Equal(t, testNow, *d.Application.SubmittedAt)

		assert.Equal(t, "owner_submitted", d.Audit.Action)
		require.NotNil(t, d.Audit.PreviousStatus)
		assert.Equal(t, model.StatusDraft, *d.Audit.PreviousStatus)
		assert.Equal(t, model.StatusSubmitted, d.Audit.NewStatus)

		require.Len(t, d.Events, 1)
		assert.Equal(t, EventApplicationSubmitted, d.Events[0].Name)
		assert.Equal(t, ownerID, d.Events[0].Recipient)
	})

	t.Run("legacy certificates skip clerical intake", func(t *testing.T) {
		app := testApp(model.StatusDraft, model.KindLegacyRC)
		d := decide(t, app, nil, nil, Request{Operation: OpSubmit, Actor: ownerPrincipal()}, settings)
		assert.Equal(t, model.StatusLegacyRCReview, d.Application.Status)
		assert.Equal(t, StageScrutiny, d.Application.CurrentStage)
	})

	t.Run("capacity overage is a hard rejection", func(t *testing.T) {
		app := testApp(model.StatusDraft, model.KindNewRegistration)
		app.SingleBedRooms = 7
		app.AttachedWashrooms = 8

		_, err := Decide(app, nil, nil, Request{Operation: OpSubmit, Actor: ownerPrincipal()}, settings, testNow)
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.NotEmpty(t, validationErr.Messages)
	})

	t.Run("missing washrooms are reported", func(t *testing.T) {
		app := testApp(model.StatusDraft, model.KindNewRegistration)
		app.AttachedWashrooms = 1

		_, err := Decide(app, nil, nil, Request{Operation: OpSubmit, Actor: ownerPrincipal()}, settings, testNow)
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
	})

	t.Run("rate above the band fails without category lock", func(t *testing.T) {
		app := testApp(model.StatusDraft, model.KindNewRegistration)
		app.DoubleBedRoomRate = 5000

		_, err := Decide(app, nil, nil, Request{Operation: OpSubmit, Actor: ownerPrincipal()}, settings, testNow)
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
	})

	t.Run("category lock adjusts to the suggested band", func(t *testing.T) {
		locked := settings
		locked.LockToSuggestedCategory = true

		app := testApp(model.StatusDraft, model.KindNewRegistration)
		app.DoubleBedRoomRate = 5000

		d := decide(t, app, nil, nil, Request{Operation: OpSubmit, Actor: ownerPrincipal()}, locked)
		assert.Equal(t, model.CategoryGold, d.Application.Category)
		require.NotNil(t, d.Audit.Feedback)
		assert.Contains(t, *d.Audit.Feedback, "category adjusted")
	})

	t.Run("rate exactly on the upper bound passes", func(t *testing.T) {
		app := testApp(model.StatusDraft, model.KindNewRegistration)
		app.DoubleBedRoomRate = 3000

		d := decide(t, app, nil, nil, Request{Operation: OpSubmit, Actor: ownerPrincipal()}, settings)
		assert.Equal(t, model.StatusSubmitted, d.Application.Status)
		assert.Equal(t, model.CategorySilver, d.Application.Category)
	})
}

func TestStartScrutiny(t *testing.T) {
	app := testApp(model.StatusSubmitted, model.KindNewRegistration)
	d := decide(t, app, nil, nil, Request{Operation: OpStartScrutiny, Actor: daPrincipal()}, DefaultSettings())

	assert.Equal(t, model.StatusUnderScrutiny, d.Application.Status)
	require.NotNil(t, d.Application.DaID)
	assert.Equal(t, daID, *d.Application.DaID)
	require.NotNil(t, d.Application.DaReviewDate)
	assert.Equal(t, "start_scrutiny", d.Audit.Action)
}

func TestForwardToDtdo(t *testing.T) {
	settings := DefaultSettings()

	t.Run("remarks are required", func(t *testing.T) {
		app := testApp(model.StatusUnderScrutiny, model.KindNewRegistration)
		_, err := Decide(app, nil, nil, Request{Operation: OpForwardToDtdo, Actor: daPrincipal()}, settings, testNow)
		var guardErr *GuardError
		require.ErrorAs(t, err, &guardErr)
	})

	t.Run("pending documents block the forward", func(t *testing.T) {
		app := testApp(model.StatusUnderScrutiny, model.KindNewRegistration)
		_, err := Decide(app, nil, nil,
			Request{Operation: OpForwardToDtdo, Actor: daPrincipal(), Remarks: "checked", PendingDocuments: 2},
			settings, testNow)
		var guardErr *GuardError
		require.ErrorAs(t, err, &guardErr)
		assert.Contains(t, guardErr.Msg, "pending verification")
	})

	t.Run("cancellation requests forward without document checks", func(t *testing.T) {
		app := testApp(model.StatusUnderScrutiny, model.KindCancelCertificate)
		d := decide(t, app, nil, nil,
			Request{Operation: OpForwardToDtdo, Actor: daPrincipal(), Remarks: "checked", PendingDocuments: 2},
			settings)
		assert.Equal(t, model.StatusForwardedToDtdo, d.Application.Status)
	})

	t.Run("stamps the clerical review trail", func(t *testing.T) {
		app := testApp(model.StatusUnderScrutiny, model.KindNewRegistration)
		d := decide(t, app, nil, nil,
			Request{Operation: OpForwardToDtdo, Actor: daPrincipal(), Remarks: "documents verified"}, settings)

		assert.Equal(t, model.StatusForwardedToDtdo, d.Application.Status)
		assert.Equal(t, StageDistrict, d.Application.CurrentStage)
		require.NotNil(t, d.Application.DaRemarks)
		assert.Equal(t, "documents verified", *d.Application.DaRemarks)
		require.NotNil(t, d.Application.DaForwardedDate)
		assert.Equal(t, "forwarded_to_dtdo", d.Audit.Action)
	})
}

func TestRevertEscalation(t *testing.T) {
	settings := DefaultSettings()

	t.Run("first clerical send-back requires otp", func(t *testing.T) {
		app := testApp(model.StatusUnderScrutiny, model.KindNewRegistration)
		_, err := Decide(app, nil, nil,
			Request{Operation: OpSendBack, Actor: daPrincipal(), Remarks: "fix the address"}, settings, testNow)
		assert.ErrorIs(t, err, ErrOTPRequired)
	})

	t.Run("verified otp completes the first send-back", func(t *testing.T) {
		app := testApp(model.StatusUnderScrutiny, model.KindNewRegistration)
		d := decide(t, app, nil, nil,
			Request{Operation: OpSendBack, Actor: daPrincipal(), Remarks: "fix the address", OTPVerified: true}, settings)

		assert.Equal(t, model.StatusRevertedToApplicant, d.Application.Status)
		assert.Equal(t, 1, d.Application.RevertCount)
		require.NotNil(t, d.Application.ClarificationRequested)
		assert.Equal(t, "fix the address", *d.Application.ClarificationRequested)
		assert.Equal(t, "da_revert", d.Audit.Action)
		assert.Equal(t, StageCorrections, d.Application.CurrentStage)
	})

	t.Run("district revert needs no otp", func(t *testing.T) {
		app := testApp(model.StatusDtdoReview, model.KindNewRegistration)
		d := decide(t, app, nil, nil,
			Request{Operation: OpRevert, Actor: dtdoPrincipal(), Remarks: "ownership proof unclear"}, settings)

		assert.Equal(t, model.StatusRevertedByDtdo, d.Application.Status)
		assert.Equal(t, 1, d.Application.RevertCount)
		assert.Equal(t, "dtdo_revert", d.Audit.Action)
	})

	t.Run("second send-back anywhere is conclusive", func(t *testing.T) {
		app := testApp(model.StatusDtdoReview, model.KindNewRegistration)
		app.RevertCount = 1

		d := decide(t, app, nil, nil,
			Request{Operation: OpRevert, Actor: dtdoPrincipal(), Remarks: "still incomplete"}, settings)

		assert.Equal(t, model.StatusRejected, d.Application.Status)
		assert.Equal(t, 2, d.Application.RevertCount)
		require.NotNil(t, d.Application.RejectionReason)
		assert.Contains(t, *d.Application.RejectionReason, "repeated correction requests")
		assert.Contains(t, *d.Application.RejectionReason, "still incomplete")
		assert.Equal(t, "auto_rejected", d.Audit.Action)
	})

	t.Run("escalation ignores the otp gate", func(t *testing.T) {
		app := testApp(model.StatusUnderScrutiny, model.KindNewRegistration)
		app.RevertCount = 1

		d := decide(t, app, nil, nil,
			Request{Operation: OpSendBack, Actor: daPrincipal(), Remarks: "same issue again"}, settings)
		assert.Equal(t, model.StatusRejected, d.Application.Status)
	})

	t.Run("remarks are required", func(t *testing.T) {
		app := testApp(model.StatusUnderScrutiny, model.KindNewRegistration)
		_, err := Decide(app, nil, nil,
			Request{Operation: OpSendBack, Actor: daPrincipal(), OTPVerified: true}, settings, testNow)
		var guardErr *GuardError
		require.ErrorAs(t, err, &guardErr)
	})
}

func TestAcceptAndSchedule(t *testing.T) {
	settings := DefaultSettings()
	inspectionDate := testNow.AddDate(0, 0, 5)
	assignee := uuid.New()

	t.Run("schedules an inspection when date and assignee are given", func(t *testing.T) {
		app := testApp(model.StatusForwardedToDtdo, model.KindNewRegistration)
		d := decide(t, app, nil, nil, Request{
			Operation:      OpAcceptAndSchedule,
			Actor:          dtdoPrincipal(),
			Remarks:        "proceed to site visit",
			InspectionDate: &inspectionDate,
			AssignTo:       &assignee,
		}, settings)

		assert.Equal(t, model.StatusInspectionScheduled, d.Application.Status)
		require.NotNil(t, d.NewOrder)
		assert.Equal(t, assignee, d.NewOrder.AssignedTo)
		assert.Equal(t, dtdoID, d.NewOrder.OrderedBy)
		assert.Equal(t, inspectionDate, d.NewOrder.ScheduledDate)
		assert.Equal(t, model.InspectionOrderScheduled, d.NewOrder.Status)

		// one event for the owner, one for the assignee
		require.Len(t, d.Events, 2)
		assert.Equal(t, ownerID, d.Events[0].Recipient)
		assert.Equal(t, assignee, d.Events[1].Recipient)
	})

	t.Run("holds in district review without scheduling details", func(t *testing.T) {
		app := testApp(model.StatusForwardedToDtdo, model.KindNewRegistration)
		d := decide(t, app, nil, nil,
			Request{Operation: OpAcceptAndSchedule, Actor: dtdoPrincipal(), Remarks: "reviewing"}, settings)

		assert.Equal(t, model.StatusDtdoReview, d.Application.Status)
		assert.Nil(t, d.NewOrder)
	})

	t.Run("room deletions approve without inspection", func(t *testing.T) {
		parent := testApp(model.StatusApproved, model.KindNewRegistration)
		app := testApp(model.StatusForwardedToDtdo, model.KindDeleteRooms)
		app.ParentApplicationID = &parent.ID

		d := decide(t, app, &parent, nil,
			Request{Operation: OpAcceptAndSchedule, Actor: dtdoPrincipal(), Remarks: "reduction noted"}, settings)

		assert.Equal(t, model.StatusApproved, d.Application.Status)
		assert.True(t, d.NeedsCertificateNumber)
		require.NotNil(t, d.Parent)
		assert.Equal(t, model.StatusSuperseded, d.Parent.Status)
	})

	t.Run("cancellation cascades to the parent certificate", func(t *testing.T) {
		parent := testApp(model.StatusApproved, model.KindNewRegistration)
		app := testApp(model.StatusForwardedToDtdo, model.KindCancelCertificate)
		app.ParentApplicationID = &parent.ID

		d := decide(t, app, &parent, nil,
			Request{Operation: OpAcceptAndSchedule, Actor: dtdoPrincipal(), Remarks: "owner requested closure"}, settings)

		assert.Equal(t, model.StatusCertificateCancelled, d.Application.Status)
		require.NotNil(t, d.Parent)
		assert.Equal(t, model.StatusCertificateCancelled, d.Parent.Status)
		require.NotNil(t, d.Parent.CertificateExpiryDate)
		assert.Equal(t, testNow, *d.Parent.CertificateExpiryDate)
	})
}

func TestCompleteInspection(t *testing.T) {
	settings := DefaultSettings()

	newOrder := func(scheduled time.Time) *model.InspectionOrder {
		return &model.InspectionOrder{
			ID:            uuid.New(),
			AssignedTo:    daID,
			Status:        model.InspectionOrderScheduled,
			ScheduledDate: scheduled,
			OrderedBy:     dtdoID,
		}
	}

	base := func() model.Application {
		return testApp(model.StatusInspectionScheduled, model.KindNewRegistration)
	}

	t.Run("requires an inspection order", func(t *testing.T) {
		actual := testNow
		_, err := Decide(base(), nil, nil, Request{
			Operation:            OpCompleteInspection,
			Actor:                daPrincipal(),
			ActualInspectionDate: &actual,
			Recommendation:       model.RecommendationApprove,
		}, settings, testNow)
		var guardErr *GuardError
		require.ErrorAs(t, err, &guardErr)
	})

	t.Run("only the assignee may complete", func(t *testing.T) {
		other := model.Principal{UserID: uuid.New(), Role: model.RoleDealingAssistant, DistrictCode: "KLU"}
		actual := testNow
		_, err := Decide(base(), nil, newOrder(testNow), Request{
			Operation:            OpCompleteInspection,
			Actor:                other,
			ActualInspectionDate: &actual,
			Recommendation:       model.RecommendationApprove,
		}, settings, testNow)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("completed orders stay completed", func(t *testing.T) {
		order := newOrder(testNow)
		order.Status = model.InspectionOrderCompleted
		actual := testNow
		_, err := Decide(base(), nil, order, Request{
			Operation:            OpCompleteInspection,
			Actor:                daPrincipal(),
			ActualInspectionDate: &actual,
			Recommendation:       model.RecommendationApprove,
		}, settings, testNow)
		var guardErr *GuardError
		require.ErrorAs(t, err, &guardErr)
		assert.Contains(t, guardErr.Msg, "already completed")
	})

	t.Run("future dates are rejected", func(t *testing.T) {
		actual := testNow.AddDate(0, 0, 1)
		_, err := Decide(base(), nil, newOrder(testNow), Request{
			Operation:            OpCompleteInspection,
			Actor:                daPrincipal(),
			ActualInspectionDate: &actual,
			Recommendation:       model.RecommendationApprove,
		}, settings, testNow)
		var guardErr *GuardError
		require.ErrorAs(t, err, &guardErr)
	})

	t.Run("early completion needs an override with justification", func(t *testing.T) {
		order := newOrder(testNow.AddDate(0, 0, 3))
		actual := testNow

		_, err := Decide(base(), nil, order, Request{
			Operation:            OpCompleteInspection,
			Actor:                daPrincipal(),
			ActualInspectionDate: &actual,
			Recommendation:       model.RecommendationApprove,
		}, settings, testNow)
		var guardErr *GuardError
		require.ErrorAs(t, err, &guardErr)

		_, err = Decide(base(), nil, order, Request{
			Operation:             OpCompleteInspection,
			Actor:                 daPrincipal(),
			ActualInspectionDate:  &actual,
			Recommendation:        model.RecommendationApprove,
			EarlyOverride:         true,
			OverrideJustification: "too short",
		}, settings, testNow)
		require.ErrorAs(t, err, &guardErr)

		d := decide(t, base(), nil, order, Request{
			Operation:             OpCompleteInspection,
			Actor:                 daPrincipal(),
			ActualInspectionDate:  &actual,
			Recommendation:        model.RecommendationApprove,
			EarlyOverride:         true,
			OverrideJustification: "owner requested an earlier visit",
		}, settings)
		require.NotNil(t, d.Report)
		assert.True(t, d.Report.EarlyOverride)
		require.NotNil(t, d.Report.OverrideJustification)
	})

	t.Run("more than seven days early is refused outright", func(t *testing.T) {
		order := newOrder(testNow.AddDate(0, 0, 10))
		actual := testNow
		_, err := Decide(base(), nil, order, Request{
			Operation:             OpCompleteInspection,
			Actor:                 daPrincipal(),
			ActualInspectionDate:  &actual,
			Recommendation:        model.RecommendationApprove,
			EarlyOverride:         true,
			OverrideJustification: "owner requested an earlier visit",
		}, settings, testNow)
		var guardErr *GuardError
		require.ErrorAs(t, err, &guardErr)
		assert.Contains(t, guardErr.Msg, "7 days")
	})

	t.Run("files the report and maps the recommendation", func(t *testing.T) {
		tests := []struct {
			recommendation string
			outcome        string
		}{
			{model.RecommendationApprove, model.InspectionOutcomeRecommended},
			{model.RecommendationRaiseObjections, model.InspectionOutcomeObjection},
			{"premises look fine", model.InspectionOutcomeCompleted},
		}
		for _, tt := range tests {
			t.Run(tt.recommendation, func(t *testing.T) {
				order := newOrder(testNow.AddDate(0, 0, -1))
				actual := testNow

				d := decide(t, base(), nil, order, Request{
					Operation:            OpCompleteInspection,
					Actor:                daPrincipal(),
					ActualInspectionDate: &actual,
					Recommendation:       tt.recommendation,
					Remarks:              "visited the property",
				}, settings)

				assert.Equal(t, model.StatusInspectionUnderReview, d.Application.Status)
				require.NotNil(t, d.Application.SiteInspectionOutcome)
				assert.Equal(t, tt.outcome, *d.Application.SiteInspectionOutcome)

				require.NotNil(t, d.CompletedOrder)
				assert.Equal(t, model.InspectionOrderCompleted, d.CompletedOrder.Status)
				require.NotNil(t, d.Report)
				assert.Equal(t, order.ID, d.Report.OrderID)
				assert.Equal(t, daID, d.Report.InspectedBy)

				require.Len(t, d.Events, 1)
				assert.Equal(t, EventInspectionCompleted, d.Events[0].Name)
				assert.Equal(t, dtdoID, d.Events[0].Recipient)
			})
		}
	})
}

func TestApproveInspection(t *testing.T) {
	settings := DefaultSettings()

	t.Run("unpaid applications stop at the payment gate", func(t *testing.T) {
		app := testApp(model.StatusInspectionUnderReview, model.KindNewRegistration)
		d := decide(t, app, nil, nil,
			Request{Operation: OpApproveInspection, Actor: dtdoPrincipal(), Remarks: "inspection satisfactory"}, settings)

		assert.Equal(t, model.StatusVerifiedForPayment, d.Application.Status)
		assert.Equal(t, StagePayment, d.Application.CurrentStage)
		assert.False(t, d.NeedsCertificateNumber)
		assert.Equal(t, "verified_for_payment", d.Audit.Action)
	})

	t.Run("paid applications receive the certificate immediately", func(t *testing.T) {
		app := testApp(model.StatusInspectionUnderReview, model.KindNewRegistration)
		app.FeePaid = true

		d := decide(t, app, nil, nil,
			Request{Operation: OpApproveInspection, Actor: dtdoPrincipal(), Remarks: "inspection satisfactory"}, settings)

		assert.Equal(t, model.StatusApproved, d.Application.Status)
		assert.True(t, d.NeedsCertificateNumber)
		require.NotNil(t, d.Application.CertificateIssuedDate)
		require.NotNil(t, d.Application.CertificateExpiryDate)
		assert.Equal(t, testNow.AddDate(1, 0, 0), *d.Application.CertificateExpiryDate)
		require.NotNil(t, d.Application.DtdoID)
		assert.Equal(t, dtdoID, *d.Application.DtdoID)
	})

	t.Run("three year validity extends the certificate", func(t *testing.T) {
		app := testApp(model.StatusInspectionUnderReview, model.KindNewRegistration)
		app.FeePaid = true
		app.ValidityYears = 3

		d := decide(t, app, nil, nil,
			Request{Operation: OpApproveInspection, Actor: dtdoPrincipal(), Remarks: "ok"}, settings)
		assert.Equal(t, testNow.AddDate(3, 0, 0), *d.Application.CertificateExpiryDate)
	})
}

func TestRejectAndObjections(t *testing.T) {
	settings := DefaultSettings()

	t.Run("rejection records the reason", func(t *testing.T) {
		app := testApp(model.StatusDtdoReview, model.KindNewRegistration)
		d := decide(t, app, nil, nil,
			Request{Operation: OpReject, Actor: dtdoPrincipal(), Remarks: "property unsuitable"}, settings)

		assert.Equal(t, model.StatusRejected, d.Application.Status)
		require.NotNil(t, d.Application.RejectionReason)
		assert.Equal(t, "property unsuitable", *d.Application.RejectionReason)
	})

	t.Run("objections return the file to the owner", func(t *testing.T) {
		app := testApp(model.StatusInspectionUnderReview, model.KindNewRegistration)
		d := decide(t, app, nil, nil,
			Request{Operation: OpRaiseObjections, Actor: dtdoPrincipal(), Remarks: "fire exits missing"}, settings)

		assert.Equal(t, model.StatusObjectionRaised, d.Application.Status)
		assert.Equal(t, StageCorrections, d.Application.CurrentStage)
		require.NotNil(t, d.Application.ClarificationRequested)
	})
}

func TestApproveBypass(t *testing.T) {
	settings := DefaultSettings()

	t.Run("refused for kinds that require inspection", func(t *testing.T) {
		app := testApp(model.StatusDtdoReview, model.KindNewRegistration)
		_, err := Decide(app, nil, nil,
			Request{Operation: OpApproveBypass, Actor: dtdoPrincipal(), Remarks: "no visit needed"}, settings, testNow)
		var guardErr *GuardError
		require.ErrorAs(t, err, &guardErr)
	})

	t.Run("legacy onboarding is always eligible", func(t *testing.T) {
		app := testApp(model.StatusLegacyRCReview, model.KindLegacyRC)
		d := decide(t, app, nil, nil,
			Request{Operation: OpApproveBypass, Actor: dtdoPrincipal(), Remarks: "records verified"}, settings)

		assert.Equal(t, model.StatusApproved, d.Application.Status)
		assert.Equal(t, "application_approved_bypass", d.Audit.Action)
	})

	t.Run("configured kinds may bypass", func(t *testing.T) {
		custom := settings
		custom.InspectionOptionalKinds = []model.ApplicationKind{model.KindAddRooms}

		app := testApp(model.StatusDtdoReview, model.KindAddRooms)
		app.FeePaid = true
		d := decide(t, app, nil, nil,
			Request{Operation: OpApproveBypass, Actor: dtdoPrincipal(), Remarks: "minor amendment"}, custom)
		assert.Equal(t, model.StatusApproved, d.Application.Status)
	})
}

func TestConfirmPayment(t *testing.T) {
	settings := DefaultSettings()

	t.Run("requires a payment reference", func(t *testing.T) {
		app := testApp(model.StatusVerifiedForPayment, model.KindNewRegistration)
		_, err := Decide(app, nil, nil,
			Request{Operation: OpConfirmPayment, Actor: ownerPrincipal()}, settings, testNow)
		var guardErr *GuardError
		require.ErrorAs(t, err, &guardErr)
	})

	t.Run("issues the certificate on payment", func(t *testing.T) {
		app := testApp(model.StatusVerifiedForPayment, model.KindNewRegistration)
		d := decide(t, app, nil, nil,
			Request{Operation: OpConfirmPayment, Actor: ownerPrincipal(), PaymentReference: "TXN-2026-0042"}, settings)

		assert.Equal(t, model.StatusApproved, d.Application.Status)
		assert.True(t, d.Application.FeePaid)
		require.NotNil(t, d.Application.PaymentReference)
		assert.Equal(t, "TXN-2026-0042", *d.Application.PaymentReference)
		assert.True(t, d.NeedsCertificateNumber)
		assert.Equal(t, "payment_confirmed", d.Audit.Action)
	})

	t.Run("renewal supersedes the parent on issuance", func(t *testing.T) {
		parent := testApp(model.StatusApproved, model.KindNewRegistration)
		app := testApp(model.StatusVerifiedForPayment, model.KindRenewal)
		app.ParentApplicationID = &parent.ID

		d := decide(t, app, &parent, nil,
			Request{Operation: OpConfirmPayment, Actor: ownerPrincipal(), PaymentReference: "TXN-2026-0043"}, settings)
		require.NotNil(t, d.Parent)
		assert.Equal(t, model.StatusSuperseded, d.Parent.Status)
	})
}

func TestResubmitCorrection(t *testing.T) {
	settings := DefaultSettings()

	t.Run("returns to the configured review stage", func(t *testing.T) {
		app := testApp(model.StatusRevertedToApplicant, model.KindNewRegistration)
		app.RevertCount = 1
		daRemarks := "fix the address"
		app.DaRemarks = &daRemarks
		app.ClarificationRequested = &daRemarks

		d := decide(t, app, nil, nil,
			Request{Operation: OpResubmitCorrection, Actor: ownerPrincipal(), Remarks: "address corrected"}, settings)

		assert.Equal(t, model.StatusUnderScrutiny, d.Application.Status)
		assert.Equal(t, 1, d.Application.CorrectionSubmissionCount)
		assert.Equal(t, 1, d.Application.RevertCount, "resubmission never resets the escalation counter")
		assert.Nil(t, d.Application.DaRemarks)
		assert.Nil(t, d.Application.ClarificationRequested)
		assert.Equal(t, "correction_resubmitted", d.Audit.Action)
	})

	t.Run("notifies the reviewing assistant", func(t *testing.T) {
		app := testApp(model.StatusObjectionRaised, model.KindNewRegistration)
		app.DaID = &daID

		d := decide(t, app, nil, nil,
			Request{Operation: OpResubmitCorrection, Actor: ownerPrincipal()}, settings)
		require.Len(t, d.Events, 1)
		assert.Equal(t, EventCorrectionResubmit, d.Events[0].Name)
		assert.Equal(t, daID, d.Events[0].Recipient)
	})

	t.Run("capacity is rechecked on resubmission", func(t *testing.T) {
		app := testApp(model.StatusRevertedByDtdo, model.KindNewRegistration)
		app.FamilySuites = 4
		app.FamilySuiteRate = 2500

		_, err := Decide(app, nil, nil,
			Request{Operation: OpResubmitCorrection, Actor: ownerPrincipal()}, settings, testNow)
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
	})
}

func TestCorrect(t *testing.T) {
	settings := DefaultSettings()

	t.Run("requires a substantive reason", func(t *testing.T) {
		app := testApp(model.StatusApproved, model.KindNewRegistration)
		_, err := Decide(app, nil, nil, Request{
			Operation: OpCorrect,
			Actor:     dtdoPrincipal(),
			Remarks:   "typo",
			Fields:    map[string]string{"owner_name": "Asha Sharma"},
		}, settings, testNow)
		var guardErr *GuardError
		require.ErrorAs(t, err, &guardErr)
	})

	t.Run("rejects fields outside the allow-list", func(t *testing.T) {
		app := testApp(model.StatusApproved, model.KindNewRegistration)
		_, err := Decide(app, nil, nil, Request{
			Operation: OpCorrect,
			Actor:     dtdoPrincipal(),
			Remarks:   "status should change",
			Fields:    map[string]string{"status": "draft"},
		}, settings, testNow)
		var guardErr *GuardError
		require.ErrorAs(t, err, &guardErr)
	})

	t.Run("applies the correction and records the diff", func(t *testing.T) {
		app := testApp(model.StatusApproved, model.KindNewRegistration)
		d := decide(t, app, nil, nil, Request{
			Operation: OpCorrect,
			Actor:     dtdoPrincipal(),
			Remarks:   "spelling error in the owner name",
			Fields:    map[string]string{"owner_name": "Asha Sharma"},
		}, settings)

		assert.Equal(t, model.StatusApproved, d.Application.Status, "corrections never change status")
		assert.Equal(t, "Asha Sharma", d.Application.OwnerName)
		assert.Equal(t, "record_corrected", d.Audit.Action)
		require.NotNil(t, d.Audit.Feedback)
		assert.Contains(t, *d.Audit.Feedback, "Asha Devi")
		assert.Contains(t, *d.Audit.Feedback, "Asha Sharma")
	})

	t.Run("only approved records are correctable", func(t *testing.T) {
		app := testApp(model.StatusRejected, model.KindNewRegistration)
		_, err := Decide(app, nil, nil, Request{
			Operation: OpCorrect,
			Actor:     dtdoPrincipal(),
			Remarks:   "spelling error in the owner name",
			Fields:    map[string]string{"owner_name": "Asha Sharma"},
		}, settings, testNow)
		assert.ErrorIs(t, err, ErrInvalidState)
	})
}

func TestGuardFailuresHaveNoPartialEffects(t *testing.T) {
	settings := DefaultSettings()
	app := testApp(model.StatusUnderScrutiny, model.KindNewRegistration)

	d, err := Decide(app, nil, nil,
		Request{Operation: OpSendBack, Actor: daPrincipal(), Remarks: "fix it"}, settings, testNow)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOTPRequired))
	assert.Nil(t, d)
}
