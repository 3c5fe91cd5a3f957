package controller

import (
	"io"

	"ai-debate-be/internal/dto"
	"ai-debate-be/internal/pkg/serverutils"
	"ai-debate-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IDebateDocController interface {
	RegisterRoutes(r fiber.Router)
	Upload(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	DeleteOwner(ctx *fiber.Ctx) error
	Retrieve(ctx *fiber.Ctx) error
	Tactic(ctx *fiber.Ctx) error
	Touch(ctx *fiber.Ctx) error
}

type debateDocController struct {
	service service.IRetrievalService
}

func NewDebateDocController(service service.IRetrievalService) IDebateDocController {
	return &debateDocController{service: service}
}

func (c *debateDocController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/debate/v1/:sessionId")
	h.Post("/docs", c.Upload)
	h.Get("/docs", c.List)
	h.Delete("/docs", c.DeleteOwner)
	h.Post("/retrieve", c.Retrieve)
	h.Post("/tactic", c.Tactic)
	h.Post("/touch", c.Touch)
}

func sessionIdParam(ctx *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params("sessionId"))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid session id")
	}
	return id, nil
}

func (c *debateDocController) Upload(ctx *fiber.Ctx) error {
	sessionId, err := sessionIdParam(ctx)
	if err != nil {
		return err
	}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "file is required")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return err
	}

	owner := ctx.FormValue("owner")
	title := ctx.FormValue("title")
	if title == "" {
		title = fileHeader.Filename
	}

	res, err := c.service.AddDocument(ctx.Context(), sessionId, owner, fileHeader.Filename, title, data)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success upload document", res))
}

func (c *debateDocController) List(ctx *fiber.Ctx) error {
	sessionId, err := sessionIdParam(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.ListDocuments(ctx.Context(), sessionId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list documents", res))
}

func (c *debateDocController) DeleteOwner(ctx *fiber.Ctx) error {
	sessionId, err := sessionIdParam(ctx)
	if err != nil {
		return err
	}

	owner := ctx.Query("owner")
	if owner == "" {
		return fiber.NewError(fiber.StatusBadRequest, "owner query parameter is required")
	}

	if err := c.service.DeleteOwnerDocuments(ctx.Context(), sessionId, owner); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete owner documents", nil))
}

func (c *debateDocController) Retrieve(ctx *fiber.Ctx) error {
	sessionId, err := sessionIdParam(ctx)
	if err != nil {
		return err
	}

	var req dto.RetrieveRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Search(ctx.Context(), sessionId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success retrieve context", res))
}

func (c *debateDocController) Tactic(ctx *fiber.Ctx) error {
	sessionId, err := sessionIdParam(ctx)
	if err != nil {
		return err
	}

	var req dto.TacticRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.ResolveTactic(ctx.Context(), sessionId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success resolve tactic", res))
}

func (c *debateDocController) Touch(ctx *fiber.Ctx) error {
	sessionId, err := sessionIdParam(ctx)
	if err != nil {
		return err
	}

	c.service.TouchSession(sessionId)

	return ctx.JSON(serverutils.SuccessResponse[any]("Success touch session", nil))
}
