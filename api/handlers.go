package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	errs "github.com/userdeck/userdeck/pkg/errors"
	umetrics "github.com/userdeck/userdeck/pkg/metrics"
	"github.com/userdeck/userdeck/pkg/types"
	"github.com/userdeck/userdeck/pkg/users"
)

// login exchanges form-encoded credentials for a bearer grant
// @Summary Log in
// @Tags auth
// @Accept x-www-form-urlencoded
// @Produce json
// @Router /login [post]
func (s *Server) login(c *gin.Context) {
	var form LoginForm
	if err := c.ShouldBind(&form); err != nil {
		s.respondError(c, errs.NewBadRequest("username and password are required"))
		return
	}

	user, err := s.auth.Authenticate(form.Username, form.Password)
	if err != nil {
		s.respondError(c, err)
		return
	}

	grant, err := s.auth.IssueToken(user)
	if err != nil {
		s.respondError(c, err)
		return
	}

	s.logger.Info("user logged in", map[string]interface{}{
		"username":   user.Username,
		"request_id": c.GetString("request_id"),
	})
	c.JSON(http.StatusOK, types.OK(grant))
}

// logout ends a session. Grants are stateless, so there is nothing to
// revoke server-side; the call exists so clients have a definite endpoint
// to report the logout to.
// @Summary Log out
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Router /logout [post]
func (s *Server) logout(c *gin.Context) {
	if user := currentUser(c); user != nil {
		s.logger.Info("user logged out", map[string]interface{}{
			"username":   user.Username,
			"request_id": c.GetString("request_id"),
		})
	}
	c.JSON(http.StatusOK, types.OKWithMsg[any]("logged out", nil))
}

// listUsers returns one page of accounts
// @Summary List users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Router /users [get]
func (s *Server) listUsers(c *gin.Context) {
	page := s.parseIntParam(c, "page", users.DefaultPage)
	size := s.parseIntParam(c, "size", users.DefaultSize)
	name := c.Query("name")

	result, err := s.users.List(page, size, name)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.OK(result))
}

// createUser adds a new account
// @Summary Create user
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Router /user [post]
func (s *Server) createUser(c *gin.Context) {
	var input types.UserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		s.respondError(c, errs.NewBadRequest("invalid request"))
		return
	}

	user, err := s.users.Create(input)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, types.OKWithMsg("user created", user))
}

// getUser fetches one account by id
// @Summary Get user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Router /user/{id} [get]
func (s *Server) getUser(c *gin.Context) {
	id, ok := s.parseUserID(c)
	if !ok {
		return
	}

	user, err := s.users.Get(id)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.OK(user))
}

// updateUser rewrites an account's writable fields
// @Summary Update user
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Router /user/{id} [put]
func (s *Server) updateUser(c *gin.Context) {
	id, ok := s.parseUserID(c)
	if !ok {
		return
	}

	var input types.UserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		s.respondError(c, errs.NewBadRequest("invalid request"))
		return
	}

	user, err := s.users.Update(id, input)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.OKWithMsg("user updated", user))
}

// deleteUser removes an account
// @Summary Delete user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Router /user/{id} [delete]
func (s *Server) deleteUser(c *gin.Context) {
	id, ok := s.parseUserID(c)
	if !ok {
		return
	}

	result, err := s.users.Delete(id)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.OKWithMsg("user deleted", result))
}

// healthCheck provides a health check endpoint
// @Summary Health Check
// @Tags health
// @Produce json
// @Router /health [get]
func (s *Server) healthCheck(c *gin.Context) {
	checks := map[string]string{"database": "ok"}
	status := "healthy"
	if err := s.health.HealthCheck(c.Request.Context()); err != nil {
		checks["database"] = err.Error()
		status = "degraded"
	}

	if status != "healthy" {
		c.JSON(http.StatusServiceUnavailable, types.Fail(http.StatusServiceUnavailable, "database unreachable"))
		return
	}

	health := HealthStatus{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   Version,
		Uptime:    time.Since(s.startTime).String(),
		Checks:    checks,
	}
	c.JSON(http.StatusOK, types.OK(health))
}

// getMetrics exposes a snapshot of the in-memory request metrics
// @Summary Metrics
// @Tags health
// @Produce json
// @Router /metrics [get]
func (s *Server) getMetrics(c *gin.Context) {
	report := MetricsReport{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(s.startTime).String(),
		Counters:  map[string]float64{},
		Gauges:    map[string]float64{},
		Timers:    map[string]umetrics.TimerStats{},
	}

	if rec, ok := s.metrics.(*umetrics.Recorder); ok {
		snap := rec.Snapshot()
		report.Counters = snap.Counters
		report.Gauges = snap.Gauges
		report.Timers = snap.Timers
	}

	c.JSON(http.StatusOK, types.OK(report))
}

// redirectToDocs redirects root to API documentation
func (s *Server) redirectToDocs(c *gin.Context) {
	c.Redirect(http.StatusTemporaryRedirect, "/docs/index.html")
}

// Helper functions

// respondError maps a failure onto the envelope the clients classify on.
// The envelope code mirrors the HTTP status.
func (s *Server) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	msg := errs.MsgServerError
	if e := errs.AsError(err); e != nil {
		status = statusForCause(e.Cause)
		msg = e.Message
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", err, map[string]interface{}{
			"request_id": c.GetString("request_id"),
			"path":       c.Request.URL.Path,
			"method":     c.Request.Method,
		})
	}

	c.JSON(status, types.Fail(status, msg))
}

// statusForCause maps a taxonomy cause onto its HTTP status
func statusForCause(cause errs.Cause) int {
	switch cause {
	case errs.CauseBadRequest:
		return http.StatusBadRequest
	case errs.CauseUnauthorized:
		return http.StatusUnauthorized
	case errs.CauseForbidden:
		return http.StatusForbidden
	case errs.CauseNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// parseUserID reads the :id route parameter, rejecting anything that is not
// a positive integer.
func (s *Server) parseUserID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		s.respondError(c, errs.NewBadRequest("invalid user id"))
		return 0, false
	}
	return uint(id), true
}

// parseIntParam safely parses integer query parameters
func (s *Server) parseIntParam(c *gin.Context, param string, defaultValue int) int {
	valueStr := c.Query(param)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}
