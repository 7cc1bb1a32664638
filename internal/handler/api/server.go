package api

import (
	"net/http"

	reqdto "hostdash/internal/handler/dto/request"
	resdto "hostdash/internal/handler/dto/response"
	"hostdash/internal/handler/httperr"
	"hostdash/internal/usecase/commands"
	"hostdash/internal/usecase/queries"

	"github.com/gin-gonic/gin"
)

type ServerHandler struct {
	cmds commands.ProvisioningCommands
	q    queries.ServerQueries
}

func NewServerHandler(cmds commands.ProvisioningCommands, q queries.ServerQueries) *ServerHandler {
	return &ServerHandler{cmds: cmds, q: q}
}

// @Summary List servers
// @Description List the caller's servers reconciled against the hosting panel
// @Tags servers
// @Produce json
// @Security BearerAuth
// @Success 200 {array} resdto.ServerResponse
// @Failure 401 {object} httperr.Response
// @Router /servers [get]
func (h *ServerHandler) List(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}
	views, err := h.q.ListServers(c.Request.Context(), principal)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromServerViews(views))
}

// @Summary Create server
// @Description Provision a server on the hosting panel within the caller's entitlement
// @Tags servers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body reqdto.CreateServerRequest true "Create server request"
// @Success 201 {object} resdto.ServerResponse
// @Failure 400 {object} httperr.Response
// @Failure 403 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Failure 502 {object} httperr.Response
// @Router /servers [post]
func (h *ServerHandler) Create(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}
	var req reqdto.CreateServerRequest
	if !bindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}

	srv, err := h.cmds.CreateServer(c.Request.Context(), principal, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resdto.FromServer(srv))
}

// @Summary Get server
// @Description Get one server reconciled against the hosting panel
// @Tags servers
// @Produce json
// @Security BearerAuth
// @Param id path string true "Server ID"
// @Success 200 {object} resdto.ServerResponse
// @Failure 400 {object} httperr.Response
// @Failure 403 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /servers/{id} [get]
func (h *ServerHandler) Get(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	view, err := h.q.GetServer(c.Request.Context(), principal, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromServerView(*view))
}

// @Summary Update server
// @Description Resize or rename a server; the panel is updated before local state
// @Tags servers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Server ID"
// @Param request body reqdto.UpdateServerRequest true "Update server request"
// @Success 200 {object} resdto.ServerResponse
// @Failure 400 {object} httperr.Response
// @Failure 403 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Failure 502 {object} httperr.Response
// @Router /servers/{id} [patch]
func (h *ServerHandler) Update(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req reqdto.UpdateServerRequest
	if !bindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}

	srv, err := h.cmds.UpdateServer(c.Request.Context(), principal, id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromServer(srv))
}

// @Summary Delete server
// @Description Delete a server from the panel, then locally
// @Tags servers
// @Security BearerAuth
// @Param id path string true "Server ID"
// @Success 204
// @Failure 403 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 502 {object} httperr.Response
// @Router /servers/{id} [delete]
func (h *ServerHandler) Delete(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.cmds.DeleteServer(c.Request.Context(), principal, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Entitlement usage
// @Description Envelope, consumption and remaining capacity for the caller
// @Tags entitlement
// @Produce json
// @Security BearerAuth
// @Success 200 {object} resdto.UsageResponse
// @Router /entitlement [get]
func (h *ServerHandler) Usage(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}
	usage, err := h.q.Usage(c.Request.Context(), principal)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromUsage(usage))
}

// @Summary Suspend server
// @Description Suspend a server on the hosting panel (admin)
// @Tags servers
// @Security BearerAuth
// @Param id path string true "Server ID"
// @Success 204
// @Failure 403 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 502 {object} httperr.Response
// @Router /servers/{id}/suspend [post]
func (h *ServerHandler) Suspend(c *gin.Context) {
	h.setSuspended(c, true)
}

// @Summary Unsuspend server
// @Description Lift a server suspension on the hosting panel (admin)
// @Tags servers
// @Security BearerAuth
// @Param id path string true "Server ID"
// @Success 204
// @Failure 403 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 502 {object} httperr.Response
// @Router /servers/{id}/unsuspend [post]
func (h *ServerHandler) Unsuspend(c *gin.Context) {
	h.setSuspended(c, false)
}

func (h *ServerHandler) setSuspended(c *gin.Context, suspended bool) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.cmds.SetSuspended(c.Request.Context(), principal, id, suspended); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
