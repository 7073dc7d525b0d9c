package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/collab46515/accademy-assist-sub006/core/transport"
)

type stopApi struct {
	svc      *transport.StopService
	validate *validator.Validate
}

func registerStopAPI(g *echo.Group, svc *transport.StopService, validate *validator.Validate) {
	api := stopApi{
		svc:      svc,
		validate: validate,
	}

	sg := g.Group("/stops")

	sg.POST("", api.create)
	sg.GET("", api.query)

	dg := sg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.POST("/deactivate", api.deactivate)
}

// Handlers

func (api *stopApi) create(ctx echo.Context) error {
	var data transport.NewStop
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStop")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	stop, err := api.svc.Create(ctx.Request().Context(), schoolID(ctx), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, stop)
}

func (api *stopApi) query(ctx echo.Context) error {
	filter, err := stopFilterFromQuery(ctx)
	if err != nil {
		return err
	}
	stops, err := api.svc.Filter(ctx.Request().Context(), schoolID(ctx), filter)
	if err != nil {
		return errors.Wrap(err, "querying stops")
	}
	return ctx.JSON(http.StatusOK, stops)
}

func (api *stopApi) retrieve(ctx echo.Context) error {
	stop, err := api.svc.Get(ctx.Request().Context(), schoolID(ctx), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, stop)
}

func (api *stopApi) update(ctx echo.Context) error {
	var data transport.UpdateStop
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStop")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	stop, err := api.svc.Update(ctx.Request().Context(), schoolID(ctx), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, stop)
}

func (api *stopApi) deactivate(ctx echo.Context) error {
	stop, err := api.svc.Deactivate(ctx.Request().Context(), schoolID(ctx), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, stop)
}
