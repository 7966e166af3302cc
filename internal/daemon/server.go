package daemon

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"splitcmd/internal/apperr"
	"splitcmd/internal/logger"
	"splitcmd/internal/model"

	"go.uber.org/zap"
)

// Server is the HTTP+websocket transport for the command/event facade: a
// dispatch table of routes, one per verb, plus a single /events route the
// UI subscribes to for everything async. There is no separate
// resolve_dir_statuses route: the resolver is started only by
// compare_directory, when its result has pending subdirectories.
type Server struct {
	echo  *echo.Echo
	state *AppState
	hub   *Hub
	port  int
}

func NewServer(state *AppState, hub *Hub, port int) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(loggingMiddleware)

	s := &Server{echo: e, state: state, hub: hub, port: port}
	s.registerRoutes()
	return s
}

// loggingMiddleware is the facade's single point of entry/exit logging
// for every verb call.
func loggingMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		logger.Log.Debug("verb call", zap.String("method", c.Request().Method), zap.String("path", c.Path()))
		err := next(c)
		if err != nil {
			logger.Log.Debug("verb call failed", zap.String("path", c.Path()), zap.Error(err))
		}
		return err
	}
}

func (s *Server) registerRoutes() {
	s.echo.GET("/events", s.hub.ServeWS)

	s.echo.POST("/roots/:side", s.handleSetRoot)

	s.echo.GET("/browse/init", s.handleInitBrowse)
	s.echo.GET("/browse", s.handleListDirectory)

	s.echo.POST("/compare/start", s.handleStartCompare)
	s.echo.POST("/compare/cancel", s.handleCancelCompare)
	s.echo.GET("/compare/diffs", s.handleGetDiffs)
	s.echo.POST("/compare/directory", s.handleCompareDirectory)
	s.echo.POST("/compare/resolve/cancel", s.handleCancelDirResolve)
	s.echo.POST("/compare/resolve/clear-cache", s.handleClearDirResolveCache)

	s.echo.POST("/fileops/copy", s.handleCopyEntry)
	s.echo.POST("/fileops/copy-overwrite", s.handleCopyEntryOverwrite)
	s.echo.POST("/fileops/move", s.handleMoveEntry)
	s.echo.POST("/fileops/delete", s.handleDeleteEntry)
	s.echo.POST("/fileops/mkdir", s.handleCreateDirectory)
	s.echo.POST("/fileops/open", s.handleOpenFile)

	s.echo.POST("/terminal/:side/spawn", s.handleSpawnTerminal)
	s.echo.POST("/terminal/:side/write", s.handleWriteTerminal)
	s.echo.POST("/terminal/:side/resize", s.handleResizeTerminal)
	s.echo.POST("/terminal/:side/kill", s.handleKillTerminal)

	s.echo.POST("/watch", s.handleWatchDirectory)
	s.echo.DELETE("/watch", s.handleUnwatchDirectory)

	s.echo.POST("/export", s.handleExportReport)

	s.echo.GET("/state", s.handleLoadAppState)
	s.echo.POST("/state", s.handleSaveAppState)
}

func (s *Server) Start() {
	go func() {
		addr := "127.0.0.1:" + strconv.Itoa(s.port)
		logger.Log.Info("splitcmd daemon listening", zap.String("addr", addr))
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Error("daemon server error", zap.Error(err))
		}
	}()
}

func (s *Server) Stop(ctx context.Context) error {
	s.state.Shutdown()
	return s.echo.Shutdown(ctx)
}

func errStatus(err error) int {
	switch apperr.KindOf(err) {
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.AlreadyExists:
		return http.StatusConflict
	case apperr.InvalidPath, apperr.NotADirectory, apperr.IsADirectory:
		return http.StatusBadRequest
	case apperr.PermissionDenied:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func jsonErr(c echo.Context, err error) error {
	return c.JSON(errStatus(err), map[string]string{"error": err.Error()})
}

func parseSide(c echo.Context) (model.Side, error) {
	switch c.Param("side") {
	case "left":
		return model.SideLeft, nil
	case "right":
		return model.SideRight, nil
	default:
		return "", apperr.New(apperr.InvalidPath, "invalid side: "+c.Param("side"))
	}
}

// --- roots -------------------------------------------------------------

func (s *Server) handleSetRoot(c echo.Context) error {
	side, err := parseSide(c)
	if err != nil {
		return jsonErr(c, err)
	}

	var req struct {
		Path string `json:"path"`
	}
	if err := c.Bind(&req); err != nil || req.Path == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "path is required"})
	}

	if err := s.state.SetRoot(side, req.Path); err != nil {
		return jsonErr(c, err)
	}
	return c.NoContent(http.StatusOK)
}

// --- browse --------------------------------------------------------------

func (s *Server) handleInitBrowse(c echo.Context) error {
	home, entries, err := s.state.InitBrowse()
	if err != nil {
		return jsonErr(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"home": home, "entries": entries})
}

func (s *Server) handleListDirectory(c echo.Context) error {
	path := c.QueryParam("path")
	entries, err := s.state.ListDirectory(path)
	if err != nil {
		return jsonErr(c, err)
	}
	return c.JSON(http.StatusOK, entries)
}

// --- full compare --------------------------------------------------------

func (s *Server) handleStartCompare(c echo.Context) error {
	var req struct {
		Mode model.CompareMode `json:"mode"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.Mode == "" {
		req.Mode = model.ModeSmart
	}

	if err := s.state.StartCompare(req.Mode); err != nil {
		return jsonErr(c, err)
	}
	return c.NoContent(http.StatusOK)
}

func (s *Server) handleCancelCompare(c echo.Context) error {
	s.state.CancelCompare()
	return c.NoContent(http.StatusOK)
}

func (s *Server) handleGetDiffs(c echo.Context) error {
	diffs, _ := s.state.GetDiffs()
	return c.JSON(http.StatusOK, diffs)
}

// --- on-demand directory compare -----------------------------------------

func (s *Server) handleCompareDirectory(c echo.Context) error {
	var req struct {
		LeftPath  string `json:"leftPath"`
		RightPath string `json:"rightPath"`
	}
	if err := c.Bind(&req); err != nil || req.LeftPath == "" || req.RightPath == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "leftPath and rightPath are required"})
	}

	result, err := s.state.CompareDirectory(req.LeftPath, req.RightPath)
	if err != nil {
		return jsonErr(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) handleCancelDirResolve(c echo.Context) error {
	s.state.CancelDirResolve()
	return c.NoContent(http.StatusOK)
}

func (s *Server) handleClearDirResolveCache(c echo.Context) error {
	s.state.ClearDirResolveCache()
	return c.NoContent(http.StatusOK)
}

// --- fileops ---------------------------------------------------------------

func (s *Server) handleCopyEntry(c echo.Context) error {
	var req struct {
		SourcePath string `json:"sourcePath"`
		DestDir    string `json:"destDir"`
	}
	if err := c.Bind(&req); err != nil || req.SourcePath == "" || req.DestDir == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "sourcePath and destDir are required"})
	}
	dest, err := s.state.CopyEntry(req.SourcePath, req.DestDir)
	if err != nil {
		return jsonErr(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"path": dest})
}

func (s *Server) handleCopyEntryOverwrite(c echo.Context) error {
	var req struct {
		SourcePath string `json:"sourcePath"`
		DestDir    string `json:"destDir"`
	}
	if err := c.Bind(&req); err != nil || req.SourcePath == "" || req.DestDir == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "sourcePath and destDir are required"})
	}
	dest, err := s.state.CopyEntryOverwrite(req.SourcePath, req.DestDir)
	if err != nil {
		return jsonErr(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"path": dest})
}

func (s *Server) handleMoveEntry(c echo.Context) error {
	var req struct {
		SourcePath string `json:"sourcePath"`
		DestDir    string `json:"destDir"`
	}
	if err := c.Bind(&req); err != nil || req.SourcePath == "" || req.DestDir == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "sourcePath and destDir are required"})
	}
	dest, err := s.state.MoveEntry(req.SourcePath, req.DestDir)
	if err != nil {
		return jsonErr(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"path": dest})
}

func (s *Server) handleDeleteEntry(c echo.Context) error {
	var req struct {
		TargetPath string `json:"targetPath"`
	}
	if err := c.Bind(&req); err != nil || req.TargetPath == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "targetPath is required"})
	}
	if err := s.state.DeleteEntry(req.TargetPath); err != nil {
		return jsonErr(c, err)
	}
	return c.NoContent(http.StatusOK)
}

func (s *Server) handleCreateDirectory(c echo.Context) error {
	var req struct {
		ParentPath string `json:"parentPath"`
		Name       string `json:"name"`
	}
	if err := c.Bind(&req); err != nil || req.ParentPath == "" || req.Name == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "parentPath and name are required"})
	}
	dir, err := s.state.CreateDirectory(req.ParentPath, req.Name)
	if err != nil {
		return jsonErr(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]string{"path": dir})
}

func (s *Server) handleOpenFile(c echo.Context) error {
	var req struct {
		Path string `json:"path"`
	}
	if err := c.Bind(&req); err != nil || req.Path == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "path is required"})
	}
	if err := s.state.OpenFile(req.Path); err != nil {
		return jsonErr(c, err)
	}
	return c.NoContent(http.StatusOK)
}

// --- terminal ---------------------------------------------------------------

func (s *Server) handleSpawnTerminal(c echo.Context) error {
	side, err := parseSide(c)
	if err != nil {
		return jsonErr(c, err)
	}

	var req struct {
		Cwd  string `json:"cwd"`
		Rows uint16 `json:"rows"`
		Cols uint16 `json:"cols"`
	}
	if err := c.Bind(&req); err != nil || req.Cwd == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "cwd is required"})
	}

	if err := s.state.SpawnTerminal(side, req.Cwd, req.Rows, req.Cols); err != nil {
		return jsonErr(c, err)
	}
	return c.NoContent(http.StatusOK)
}

func (s *Server) handleWriteTerminal(c echo.Context) error {
	side, err := parseSide(c)
	if err != nil {
		return jsonErr(c, err)
	}

	var req struct {
		Data string `json:"data"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	if err := s.state.WriteTerminal(side, []byte(req.Data)); err != nil {
		return jsonErr(c, err)
	}
	return c.NoContent(http.StatusOK)
}

func (s *Server) handleResizeTerminal(c echo.Context) error {
	side, err := parseSide(c)
	if err != nil {
		return jsonErr(c, err)
	}

	var req struct {
		Rows uint16 `json:"rows"`
		Cols uint16 `json:"cols"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	if err := s.state.ResizeTerminal(side, req.Rows, req.Cols); err != nil {
		return jsonErr(c, err)
	}
	return c.NoContent(http.StatusOK)
}

func (s *Server) handleKillTerminal(c echo.Context) error {
	side, err := parseSide(c)
	if err != nil {
		return jsonErr(c, err)
	}
	if err := s.state.KillTerminal(side); err != nil {
		return jsonErr(c, err)
	}
	return c.NoContent(http.StatusOK)
}

// --- watch -------------------------------------------------------------

func (s *Server) handleWatchDirectory(c echo.Context) error {
	var req struct {
		Path string `json:"path"`
	}
	if err := c.Bind(&req); err != nil || req.Path == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "path is required"})
	}
	if err := s.state.WatchDirectory(req.Path); err != nil {
		return jsonErr(c, err)
	}
	return c.NoContent(http.StatusOK)
}

func (s *Server) handleUnwatchDirectory(c echo.Context) error {
	path := c.QueryParam("path")
	if path == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "path is required"})
	}
	if err := s.state.UnwatchDirectory(path); err != nil {
		return jsonErr(c, err)
	}
	return c.NoContent(http.StatusOK)
}

// --- export / persisted state -------------------------------------------

func (s *Server) handleExportReport(c echo.Context) error {
	var req struct {
		Path string `json:"path"`
	}
	if err := c.Bind(&req); err != nil || req.Path == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "path is required"})
	}
	if err := s.state.ExportReport(req.Path); err != nil {
		return jsonErr(c, err)
	}
	return c.NoContent(http.StatusOK)
}

func (s *Server) handleLoadAppState(c echo.Context) error {
	st, err := s.state.LoadAppState()
	if err != nil {
		return jsonErr(c, err)
	}
	if st == nil {
		return c.JSON(http.StatusOK, nil)
	}
	return c.JSON(http.StatusOK, st)
}

func (s *Server) handleSaveAppState(c echo.Context) error {
	var st model.PersistedState
	if err := c.Bind(&st); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if err := s.state.SaveAppState(st); err != nil {
		return jsonErr(c, err)
	}
	return c.NoContent(http.StatusOK)
}
