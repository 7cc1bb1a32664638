//go:build unit

package api_test

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"hostdash/internal/domain/entitlement"
	"hostdash/internal/domain/user"
	"hostdash/internal/handler/api"
	resdto "hostdash/internal/handler/dto/response"
	"hostdash/internal/pkg/errs"
	"hostdash/internal/usecase/commands"
	"hostdash/internal/usecase/queries"
	"hostdash/internal/usecase/shared"
	"hostdash/tests/common/builder"
	"hostdash/tests/common/httptest"
	"hostdash/tests/common/testutil"
	commandsmock "hostdash/tests/mock/commands"
	queriesmock "hostdash/tests/mock/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type ServerHandlerTestSuite struct {
	suite.Suite
	router       *gin.Engine
	mockCtrl     *gomock.Controller
	mockCommands *commandsmock.MockProvisioningCommands
	mockQueries  *queriesmock.MockServerQueries
	handler      *api.ServerHandler
	caller       user.Principal
}

func (s *ServerHandlerTestSuite) SetupTest() {
	s.router = newTestRouter()

	s.mockCtrl = gomock.NewController(s.T())
	s.mockCommands = commandsmock.NewMockProvisioningCommands(s.mockCtrl)
	s.mockQueries = queriesmock.NewMockServerQueries(s.mockCtrl)
	s.handler = api.NewServerHandler(s.mockCommands, s.mockQueries)
	s.caller = builder.NewUserBuilder().Principal()

	auth := fakeAuth(s.caller)
	s.router.GET("/servers", auth, s.handler.List)
	s.router.POST("/servers", auth, s.handler.Create)
	s.router.GET("/servers/:id", auth, s.handler.Get)
	s.router.PATCH("/servers/:id", auth, s.handler.Update)
	s.router.DELETE("/servers/:id", auth, s.handler.Delete)
	s.router.POST("/servers/:id/suspend", auth, s.handler.Suspend)
	s.router.POST("/servers/:id/unsuspend", auth, s.handler.Unsuspend)
	s.router.GET("/entitlement", auth, s.handler.Usage)

	// mounted without auth to exercise the missing-principal guard
	s.router.GET("/unguarded/servers", s.handler.List)
}

func (s *ServerHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestServerHandlerSuite(t *testing.T) {
	suite.Run(t, new(ServerHandlerTestSuite))
}

type testCaseServer struct {
	name       string
	mutate     func(m map[string]any)
	expectCode int
}

func limitsField(key string, value any) func(m map[string]any) {
	return func(m map[string]any) {
		limits, _ := m["limits"].(map[string]any)
		testutil.Field(key, value)(limits)
	}
}

// ================================================================================
// TestCreate
// ================================================================================

func (s *ServerHandlerTestSuite) TestCreate() {
	url := "/servers"

	srv := builder.NewServerBuilder().OwnedBy(s.caller.UserID)
	reqBody := srv.BuildCreateRequestDTO()
	created := srv.BuildDomain()

	bound := []testCaseServer{
		{name: "name length OK (191 chars)", mutate: testutil.Field("name", strings.Repeat("a", 191)), expectCode: http.StatusCreated},
		{name: "name length invalid (192 chars)", mutate: testutil.Field("name", strings.Repeat("a", 192)), expectCode: http.StatusBadRequest},
		{name: "zero limit OK", mutate: limitsField("backups", 0), expectCode: http.StatusCreated},
		{name: "negative memory", mutate: limitsField("memoryMb", -1), expectCode: http.StatusBadRequest},
		{name: "negative disk", mutate: limitsField("diskMb", -1), expectCode: http.StatusBadRequest},
	}

	missing := []testCaseServer{
		{name: "missing field: name (required)", mutate: testutil.Field("name", nil), expectCode: http.StatusBadRequest},
		{name: "missing field: eggId (required)", mutate: testutil.Field("eggId", nil), expectCode: http.StatusBadRequest},
		{name: "missing field: locationId (required)", mutate: testutil.Field("locationId", nil), expectCode: http.StatusBadRequest},
	}

	malformed := []testCaseServer{
		{name: "eggId not a uuid", mutate: testutil.Field("eggId", "egg-1"), expectCode: http.StatusBadRequest},
		{name: "memory not a number", mutate: limitsField("memoryMb", "lots"), expectCode: http.StatusBadRequest},
	}

	allValidationTestCases := [][]testCaseServer{bound, missing, malformed}

	s.Run("success: returns 201 Created with the stored server", func() {
		s.mockCommands.EXPECT().
			CreateServer(gomock.Any(), s.caller, commands.CreateServerInput{
				Name:       reqBody.Name,
				EggID:      reqBody.EggID,
				LocationID: reqBody.LocationID,
				Limits:     builder.DefaultLimits(),
			}).
			Return(created, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, userToken)

		var body resdto.ServerResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusCreated, &body)
		s.Equal(created.ID(), body.ID)
		s.Equal(created.RemoteServerID(), body.RemoteServerID)
		s.Equal(builder.DefaultLimits().MemoryMB, body.Limits.MemoryMB)
	})

	s.Run("error: 400 Bad Request on validation errors", func() {
		for _, testCaseGroup := range allValidationTestCases {
			for _, tc := range testCaseGroup {
				s.Run(tc.name, func() {
					requestMap := testutil.DtoMap(s.T(), reqBody, tc.mutate)

					if tc.expectCode == http.StatusCreated {
						s.mockCommands.EXPECT().CreateServer(gomock.Any(), gomock.Any(), gomock.Any()).
							Return(created, nil).Times(1)
					}
					rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, requestMap, userToken)
					if tc.expectCode == http.StatusCreated {
						httptest.AssertSuccessResponse(s.T(), rec, tc.expectCode, nil)
					} else {
						httptest.AssertErrorResponse(s.T(), rec, tc.expectCode, "Invalid request")
					}
				})
			}
		}
	})

	s.Run("error: 401 Unauthorized when unauthenticated", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusUnauthorized, "Unauthorized")
	})

	s.Run("error: 400 with per-dimension detail when quota is exceeded", func() {
		s.mockCommands.EXPECT().CreateServer(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, &commands.QuotaViolationError{
				Violations: entitlement.Violations{
					entitlement.DimMemoryMB:    "requested 1024 MB of memory but only 512 MB remain",
					entitlement.DimServerSlots: "no server slots remain",
				},
				Remaining: entitlement.Remaining{
					Resources:   entitlement.Resources{MemoryMB: 512, DiskMB: 100},
					ServerSlots: 0,
				},
			}).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, userToken)

		var detail struct {
			Violations map[string]string       `json:"violations"`
			Remaining  resdto.EnvelopeResponse `json:"remaining"`
		}
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "quota exceeded")
		httptest.AssertErrorDetail(s.T(), rec, http.StatusBadRequest, &detail)
		s.Len(detail.Violations, 2)
		s.Contains(detail.Violations["memoryMb"], "512 MB")
		s.Contains(detail.Violations, "serverSlots")
		s.Equal(int64(512), detail.Remaining.MemoryMB)
		s.Equal(int64(0), detail.Remaining.ServerSlots)
	})

	s.Run("error: maps usecase errors to proper statuses", func() {
		testCases := []struct {
			name           string
			commandsError  error
			expectedStatus int
			expectedMsg    string
		}{
			{
				name:           "unknown egg",
				commandsError:  commands.ErrEggNotFound,
				expectedStatus: http.StatusNotFound,
				expectedMsg:    "egg not found",
			},
			{
				name:           "plan gated egg",
				commandsError:  commands.ErrPlanRequired,
				expectedStatus: http.StatusForbidden,
				expectedMsg:    "an active plan is required",
			},
			{
				name:           "location full",
				commandsError:  commands.ErrLocationFull,
				expectedStatus: http.StatusConflict,
				expectedMsg:    "location full",
			},
			{
				name:           "panel unavailable",
				commandsError:  shared.ErrRemoteUnavailable,
				expectedStatus: http.StatusBadGateway,
				expectedMsg:    "",
			},
			{
				name:           "panel rejected",
				commandsError:  errs.Wrap(shared.ErrRemoteRejected, "panel returned 422"),
				expectedStatus: http.StatusConflict,
				expectedMsg:    "hosting panel rejected the request",
			},
			{
				name:           "internal server error",
				commandsError:  errors.New("database error"),
				expectedStatus: http.StatusInternalServerError,
				expectedMsg:    "Internal server error",
			},
		}

		for _, tc := range testCases {
			s.Run(tc.name, func() {
				s.mockCommands.EXPECT().CreateServer(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil, tc.commandsError).Times(1)

				rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, userToken)
				httptest.AssertErrorResponse(s.T(), rec, tc.expectedStatus, tc.expectedMsg)
			})
		}
	})
}

// ================================================================================
// TestList / TestGet
// ================================================================================

func (s *ServerHandlerTestSuite) TestList() {
	s.Run("success: returns servers with remote flags", func() {
		healthy := builder.NewServerBuilder().OwnedBy(s.caller.UserID).BuildView()
		down := builder.NewServerBuilder().OwnedBy(s.caller.UserID).BuildView()
		down.Flags.Unreachable = true
		down.RemoteStatus = ""

		s.mockQueries.EXPECT().ListServers(gomock.Any(), s.caller).
			Return([]queries.ServerView{healthy, down}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/servers", nil, userToken)

		var body []resdto.ServerResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Require().Len(body, 2)
		s.Equal("running", body[0].RemoteStatus)
		s.False(body[0].Unreachable)
		s.True(body[1].Unreachable)
	})

	s.Run("success: empty list encodes as an array", func() {
		s.mockQueries.EXPECT().ListServers(gomock.Any(), s.caller).Return(nil, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/servers", nil, userToken)

		s.Equal(http.StatusOK, rec.Code)
		s.JSONEq(`[]`, rec.Body.String())
	})

	s.Run("error: 401 when the route is mounted without auth", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/unguarded/servers", nil, userToken)
		httptest.AssertErrorResponse(s.T(), rec, http.StatusUnauthorized, "Unauthorized")
	})
}

func (s *ServerHandlerTestSuite) TestGet() {
	view := builder.NewServerBuilder().OwnedBy(s.caller.UserID).BuildView()
	url := "/servers/" + view.Server.ID().String()

	s.Run("success: returns the reconciled server", func() {
		s.mockQueries.EXPECT().GetServer(gomock.Any(), s.caller, view.Server.ID()).Return(&view, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, userToken)

		var body resdto.ServerResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Equal(view.Server.ID(), body.ID)
		s.Equal(view.Server.Name(), body.Name)
	})

	s.Run("error: 400 on malformed id", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/servers/not-a-uuid", nil, userToken)
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid id format")
	})

	s.Run("error: maps query errors", func() {
		testCases := []struct {
			name           string
			err            error
			expectedStatus int
		}{
			{name: "not found", err: queries.ErrServerNotFound, expectedStatus: http.StatusNotFound},
			{name: "someone else's server", err: queries.ErrServerAccess, expectedStatus: http.StatusForbidden},
		}
		for _, tc := range testCases {
			s.Run(tc.name, func() {
				s.mockQueries.EXPECT().GetServer(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, tc.err).Times(1)

				rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, userToken)
				httptest.AssertErrorResponse(s.T(), rec, tc.expectedStatus, "")
			})
		}
	})
}

// ================================================================================
// TestUpdate / TestDelete
// ================================================================================

func (s *ServerHandlerTestSuite) TestUpdate() {
	srv := builder.NewServerBuilder().OwnedBy(s.caller.UserID).BuildDomain()
	url := "/servers/" + srv.ID().String()

	s.Run("success: only the sent dimensions are patched", func() {
		memory := int64(2048)
		name := "creative"
		s.mockCommands.EXPECT().
			UpdateServer(gomock.Any(), s.caller, srv.ID(), commands.UpdateServerInput{
				Name:   &name,
				Limits: commands.LimitsPatch{MemoryMB: &memory},
			}).
			Return(srv, nil).Times(1)

		body := map[string]any{"name": "  creative ", "limits": map[string]any{"memoryMb": 2048}}
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPatch, url, body, userToken)

		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, nil)
	})

	s.Run("error: 400 on validation errors", func() {
		testCases := []struct {
			name string
			body map[string]any
		}{
			{name: "empty name", body: map[string]any{"name": ""}},
			{name: "negative cpu", body: map[string]any{"limits": map[string]any{"cpuPercent": -5}}},
		}
		for _, tc := range testCases {
			s.Run(tc.name, func() {
				rec := httptest.PerformRequest(s.T(), s.router, http.MethodPatch, url, tc.body, userToken)
				httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid request")
			})
		}
	})

	s.Run("error: maps usecase errors to proper statuses", func() {
		testCases := []struct {
			name           string
			commandsError  error
			expectedStatus int
			expectedMsg    string
		}{
			{name: "nothing to update", commandsError: commands.ErrNothingToUpdate, expectedStatus: http.StatusBadRequest, expectedMsg: "nothing to update"},
			{name: "not the owner", commandsError: commands.ErrNotServerOwner, expectedStatus: http.StatusForbidden, expectedMsg: "another user"},
			{name: "suspended", commandsError: commands.ErrServerSuspended, expectedStatus: http.StatusForbidden, expectedMsg: "suspended"},
			{name: "installing", commandsError: commands.ErrServerBusy, expectedStatus: http.StatusConflict, expectedMsg: "busy"},
			{name: "unreachable", commandsError: commands.ErrServerUnreachable, expectedStatus: http.StatusConflict, expectedMsg: "unreachable"},
		}
		for _, tc := range testCases {
			s.Run(tc.name, func() {
				s.mockCommands.EXPECT().UpdateServer(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil, tc.commandsError).Times(1)

				rec := httptest.PerformRequest(s.T(), s.router, http.MethodPatch, url, map[string]any{}, userToken)
				httptest.AssertErrorResponse(s.T(), rec, tc.expectedStatus, tc.expectedMsg)
			})
		}
	})
}

func (s *ServerHandlerTestSuite) TestDelete() {
	id := uuid.New()
	url := "/servers/" + id.String()

	s.Run("success: returns 204 No Content", func() {
		s.mockCommands.EXPECT().DeleteServer(gomock.Any(), s.caller, id).Return(nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodDelete, url, nil, userToken)

		s.Equal(http.StatusNoContent, rec.Code)
		s.Empty(rec.Body.String())
	})

	s.Run("error: panel failure leaves the record and returns 502", func() {
		s.mockCommands.EXPECT().DeleteServer(gomock.Any(), s.caller, id).Return(shared.ErrRemoteUnavailable).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodDelete, url, nil, userToken)

		s.Equal(http.StatusBadGateway, rec.Code)
	})
}

func (s *ServerHandlerTestSuite) TestSuspension() {
	id := uuid.New()

	s.Run("success: suspend returns 204", func() {
		s.mockCommands.EXPECT().SetSuspended(gomock.Any(), s.caller, id, true).Return(nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/servers/"+id.String()+"/suspend", nil, userToken)

		s.Equal(http.StatusNoContent, rec.Code)
	})

	s.Run("success: unsuspend returns 204", func() {
		s.mockCommands.EXPECT().SetSuspended(gomock.Any(), s.caller, id, false).Return(nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/servers/"+id.String()+"/unsuspend", nil, userToken)

		s.Equal(http.StatusNoContent, rec.Code)
	})

	s.Run("error: non-admin gets 403", func() {
		s.mockCommands.EXPECT().SetSuspended(gomock.Any(), s.caller, id, true).Return(commands.ErrAdminOnly).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/servers/"+id.String()+"/suspend", nil, userToken)

		s.Equal(http.StatusForbidden, rec.Code)
	})
}

// ================================================================================
// TestUsage
// ================================================================================

func (s *ServerHandlerTestSuite) TestUsage() {
	s.Run("success: returns envelope, usage and remaining", func() {
		usage := &shared.Usage{
			Envelope:  entitlement.Envelope{Resources: entitlement.Resources{MemoryMB: 4096}, ServerSlots: 2},
			Used:      entitlement.Resources{MemoryMB: 1024},
			UsedSlots: 1,
			Remaining: entitlement.Remaining{Resources: entitlement.Resources{MemoryMB: 3072}, ServerSlots: 1},
			Coins:     15,
		}
		s.mockQueries.EXPECT().Usage(gomock.Any(), s.caller).Return(usage, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/entitlement", nil, userToken)

		var body resdto.UsageResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Equal(int64(4096), body.Envelope.MemoryMB)
		s.Equal(int64(3072), body.Remaining.MemoryMB)
		s.Equal(int64(1), body.UsedSlots)
		s.Equal(int64(15), body.Coins)
	})

	s.Run("error: unknown user is 404", func() {
		s.mockQueries.EXPECT().Usage(gomock.Any(), s.caller).Return(nil, queries.ErrUserNotFound).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/entitlement", nil, userToken)
		httptest.AssertErrorResponse(s.T(), rec, http.StatusNotFound, "user not found")
	})
}
