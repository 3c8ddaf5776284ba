// Package httpapi exposes the capability registry, the agent and the user
// store over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/genomemcp/genomemcp/internal/core"
	"github.com/genomemcp/genomemcp/internal/health"
	"github.com/genomemcp/genomemcp/internal/store"
	"github.com/genomemcp/genomemcp/internal/tools"
)

// Invoker runs named capabilities.
type Invoker interface {
	Specs() []core.CapabilitySpec
	InvokeJSON(ctx context.Context, name, argsJSON string) tools.Result
}

// Runner answers a free-form question.
type Runner interface {
	Run(ctx context.Context, query string) (string, error)
}

// Store persists per-user history and favorites.
type Store interface {
	AddHistoryAsync(userID, itemType string, content any, query string)
	History(ctx context.Context, userID string, limit int) ([]store.HistoryItem, error)
	ToggleFavorite(ctx context.Context, userID, itemType, itemID string, data any) (bool, error)
	Favorites(ctx context.Context, userID string) ([]store.Favorite, error)
}

// Deps are the collaborators served by the API. Runner, Store and Health
// are optional; their routes answer 503 when absent.
type Deps struct {
	Tools  Invoker
	Runner Runner
	Store  Store
	Health *health.Registry
	Logger *zap.Logger
}

// Server wraps the fiber app.
type Server struct {
	app    *fiber.App
	logger *zap.Logger
}

// New builds the app and registers all routes.
func New(d Deps) *Server {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	app := fiber.New(fiber.Config{
		BodyLimit:             1 * 1024 * 1024,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})
	app.Use(otelfiber.Middleware())

	h := &handler{deps: d, logger: d.Logger.Named("http"), validate: validator.New()}
	app.Get("/health", h.health)
	h.RegisterRoutes(app.Group("/api"))

	return &Server{app: app, logger: d.Logger}
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until ctx is cancelled.
func (s *Server) Listen(ctx context.Context, addr string) error {
	errc := make(chan error, 1)
	go func() { errc <- s.app.Listen(addr) }()
	s.logger.Info("http api listening", zap.String("addr", addr))
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return s.app.Shutdown()
	}
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

type handler struct {
	deps     Deps
	logger   *zap.Logger
	validate *validator.Validate
}

// bind parses the JSON body into dst and checks its validate tags.
func (h *handler) bind(ctx *fiber.Ctx, dst any) error {
	if err := ctx.BodyParser(dst); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fiber.NewError(fiber.StatusBadRequest, verrs[0].Field()+" is "+verrs[0].Tag())
		}
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}

func (h *handler) RegisterRoutes(r fiber.Router) {
	r.Get("/tools", h.listTools)
	r.Post("/tools/:name", h.invokeTool)
	r.Post("/ask", h.ask)
	r.Get("/history/:user", h.history)
	r.Get("/favorites/:user", h.favorites)
	r.Post("/favorites/:user", h.toggleFavorite)
}

func (h *handler) health(ctx *fiber.Ctx) error {
	if h.deps.Health == nil {
		return ctx.JSON(fiber.Map{"status": health.StatusOK})
	}
	report := h.deps.Health.Check()
	if report.Status == health.StatusError {
		ctx.Status(fiber.StatusServiceUnavailable)
	}
	return ctx.JSON(report)
}

func (h *handler) listTools(ctx *fiber.Ctx) error {
	specs := h.deps.Tools.Specs()
	out := make([]fiber.Map, 0, len(specs))
	for _, s := range specs {
		out = append(out, fiber.Map{
			"name":         s.Name,
			"description":  s.Description,
			"input_schema": s.Schema(),
		})
	}
	return ctx.JSON(fiber.Map{"tools": out})
}

func (h *handler) invokeTool(ctx *fiber.Ctx) error {
	name := ctx.Params("name")
	res := h.deps.Tools.InvokeJSON(ctx.UserContext(), name, string(ctx.Body()))
	if res.IsError() {
		h.logger.Debug("tool error", zap.String("tool", name), zap.String("error", res.Err))
		return ctx.Status(fiber.StatusUnprocessableEntity).JSON(res.Payload())
	}
	if s, ok := res.Value.(string); ok {
		return ctx.JSON(fiber.Map{"tool": name, "report": s})
	}
	return ctx.JSON(fiber.Map{"tool": name, "result": res.Value})
}

type askRequest struct {
	Query  string `json:"query" validate:"required"`
	UserID string `json:"user_id"`
}

func (h *handler) ask(ctx *fiber.Ctx) error {
	if h.deps.Runner == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "agent not configured")
	}
	var req askRequest
	if err := h.bind(ctx, &req); err != nil {
		return err
	}
	answer, err := h.deps.Runner.Run(ctx.UserContext(), req.Query)
	if err != nil {
		h.logger.Warn("ask failed", zap.Error(err))
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}
	if h.deps.Store != nil && req.UserID != "" {
		h.deps.Store.AddHistoryAsync(req.UserID, "ask", fiber.Map{"answer": answer}, req.Query)
	}
	return ctx.JSON(fiber.Map{"answer": answer})
}

func (h *handler) history(ctx *fiber.Ctx) error {
	if h.deps.Store == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "store not configured")
	}
	items, err := h.deps.Store.History(ctx.UserContext(), ctx.Params("user"), ctx.QueryInt("limit", store.DefaultHistoryLimit))
	if err != nil {
		return err
	}
	if items == nil {
		items = []store.HistoryItem{}
	}
	return ctx.JSON(fiber.Map{"items": items})
}

func (h *handler) favorites(ctx *fiber.Ctx) error {
	if h.deps.Store == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "store not configured")
	}
	favs, err := h.deps.Store.Favorites(ctx.UserContext(), ctx.Params("user"))
	if err != nil {
		return err
	}
	if favs == nil {
		favs = []store.Favorite{}
	}
	return ctx.JSON(fiber.Map{"items": favs})
}

type favoriteRequest struct {
	ItemType string          `json:"item_type" validate:"required"`
	ItemID   string          `json:"item_id" validate:"required"`
	Data     json.RawMessage `json:"data"`
}

func (h *handler) toggleFavorite(ctx *fiber.Ctx) error {
	if h.deps.Store == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "store not configured")
	}
	var req favoriteRequest
	if err := h.bind(ctx, &req); err != nil {
		return err
	}
	var data any
	if len(req.Data) > 0 {
		data = req.Data
	}
	on, err := h.deps.Store.ToggleFavorite(ctx.UserContext(), ctx.Params("user"), req.ItemType, req.ItemID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{"favorite": on})
}
