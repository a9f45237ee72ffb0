//go:build unit

package api_test

import (
	"net/http"
	"testing"
	"time"

	"rental-settlement/internal/domain/user"
	"rental-settlement/internal/handler/api"
	resdto "rental-settlement/internal/handler/dto/response"
	"rental-settlement/internal/handler/middleware"
	"rental-settlement/internal/pkg/errs"
	"rental-settlement/internal/usecase/commands"
	"rental-settlement/tests/common/builder"
	"rental-settlement/tests/common/httptest"
	"rental-settlement/tests/common/testutil"
	commandsmock "rental-settlement/tests/mock/commands"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

const intentsURL = "/api/payments/intents"

type PaymentIntentHandlerTestSuite struct {
	suite.Suite
	router       *gin.Engine
	mockCtrl     *gomock.Controller
	mockCommands *commandsmock.MockPaymentIntentCommands
	handler      *api.PaymentIntentHandler
	userID       uuid.UUID
}

func (s *PaymentIntentHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	s.mockCtrl = gomock.NewController(s.T())
	s.mockCommands = commandsmock.NewMockPaymentIntentCommands(s.mockCtrl)
	s.handler = api.NewPaymentIntentHandler(s.mockCommands)
	s.userID = uuid.New()

	// Mock authentication middleware for testing
	authMiddleware := func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": gin.H{"message": "Unauthorized"}})
			return
		}
		c.Set("user_id", s.userID)
		c.Set("user_role", user.RoleMember)
		c.Next()
	}

	s.router.POST(intentsURL, middleware.BodyLimit(1024), authMiddleware, s.handler.Create)
	s.router.POST("/no-auth"+intentsURL, s.handler.Create)
}

func (s *PaymentIntentHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestPaymentIntentHandlerSuite(t *testing.T) {
	suite.Run(t, new(PaymentIntentHandlerTestSuite))
}

func (s *PaymentIntentHandlerTestSuite) TestCreate() {
	res := builder.NewReservationBuilder(time.Now())
	reqBody := res.BuildIntentRequestDTO()

	s.Run("success: returns the intent for the caller", func() {
		caller := commands.Caller{UserID: s.userID, Role: user.RoleMember}
		s.mockCommands.EXPECT().Issue(gomock.Any(), caller, res.ID).
			Return(&commands.IssueIntentResult{
				ReservationID:   res.ID,
				PaymentIntentID: "pi_123",
				ClientSecret:    "pi_123_secret_abc",
				Created:         true,
			}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, intentsURL, reqBody, "bearer-token")

		var body resdto.PaymentIntentResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Equal(resdto.PaymentIntentResponse{
			ReservationID:   res.ID.String(),
			PaymentIntentID: "pi_123",
			ClientSecret:    "pi_123_secret_abc",
		}, body)
	})

	s.Run("error: 400 Bad Request on invalid body", func() {
		cases := []struct {
			name   string
			mutate testutil.Mutation
		}{
			{name: "missing field: reservation_id (required)", mutate: testutil.Field("reservation_id", nil)},
			{name: "reservation_id is not a uuid", mutate: testutil.Field("reservation_id", "booking-1")},
			{name: "reservation_id is the nil uuid", mutate: testutil.Field("reservation_id", uuid.Nil.String())},
			{name: "reservation_id has the wrong type", mutate: testutil.Field("reservation_id", 42)},
		}
		for _, tc := range cases {
			s.Run(tc.name, func() {
				requestMap := testutil.DtoMap(s.T(), reqBody, tc.mutate)
				rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, intentsURL, requestMap, "bearer-token")
				httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid request")
			})
		}
	})

	s.Run("error: 413 when the body exceeds the limit", func() {
		huge := map[string]any{"reservation_id": res.ID.String(), "padding": string(make([]byte, 2048))}
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, intentsURL, huge, "bearer-token")
		s.Equal(http.StatusRequestEntityTooLarge, rec.Code)
	})

	s.Run("error: 401 without an authenticated caller", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/no-auth"+intentsURL, reqBody, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusUnauthorized, "Unauthorized")
	})

	s.Run("error: usecase failures map to status codes", func() {
		cases := []struct {
			name       string
			err        error
			expectCode int
			expectMsg  string
		}{
			{name: "not found", err: commands.ErrReservationNotFound, expectCode: http.StatusNotFound, expectMsg: "Reservation not found"},
			{name: "forbidden", err: commands.ErrForbidden, expectCode: http.StatusForbidden, expectMsg: "Forbidden"},
			{name: "not on hold", err: errs.Mark(errs.New("reservation is not on hold"), commands.ErrReservationNotHold), expectCode: http.StatusConflict, expectMsg: "not on hold"},
			{name: "hold expired", err: errs.Wrap(errs.Mark(errs.New("hold expired"), commands.ErrHoldExpired), "issue intent"), expectCode: http.StatusGone, expectMsg: "hold has expired"},
			{name: "invalid amount", err: errs.Mark(errs.New("amount must be positive"), commands.ErrInvalidAmount), expectCode: http.StatusBadRequest, expectMsg: "amount is invalid"},
			{
				name:       "processor failure",
				err:        errs.Mark(errs.New("dial tcp: i/o timeout"), commands.ErrPaymentGateway),
				expectCode: http.StatusBadGateway,
				expectMsg:  "Payment processor unavailable",
			},
			{name: "unexpected", err: errs.New("connection reset"), expectCode: http.StatusInternalServerError, expectMsg: "Internal server error"},
		}
		for _, tc := range cases {
			s.Run(tc.name, func() {
				s.mockCommands.EXPECT().Issue(gomock.Any(), gomock.Any(), res.ID).Return(nil, tc.err).Times(1)

				rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, intentsURL, reqBody, "bearer-token")
				httptest.AssertErrorResponse(s.T(), rec, tc.expectCode, tc.expectMsg)
				s.NotContains(rec.Body.String(), "i/o timeout")
				s.NotContains(rec.Body.String(), "connection reset")
			})
		}
	})
}
