package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/collab46515/accademy-assist-sub006/core/transport"
)

type alertApi struct {
	svc      *transport.AlertService
	validate *validator.Validate
}

func registerAlertAPI(g *echo.Group, svc *transport.AlertService, validate *validator.Validate) {
	api := alertApi{
		svc:      svc,
		validate: validate,
	}

	ag := g.Group("/alerts")

	ag.POST("", api.raise)
	ag.GET("", api.query)
	ag.GET("/triage", api.triage)

	dg := ag.Group("/:id")
	dg.GET("", api.retrieve)
	dg.POST("/acknowledge", api.acknowledge)
	dg.POST("/resolve", api.resolve)
}

// Handlers

func (api *alertApi) raise(ctx echo.Context) error {
	var data transport.NewAlert
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAlert")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	alert, err := api.svc.Raise(ctx.Request().Context(), schoolID(ctx), data)
	if err != nil {
		return errors.Wrap(err, "raising alert")
	}
	return ctx.JSON(http.StatusCreated, alert)
}

func (api *alertApi) query(ctx echo.Context) error {
	filter, err := alertFilterFromQuery(ctx)
	if err != nil {
		return err
	}
	alerts, err := api.svc.Filter(ctx.Request().Context(), schoolID(ctx), filter)
	if err != nil {
		return errors.Wrap(err, "querying alerts")
	}
	return ctx.JSON(http.StatusOK, alerts)
}

func (api *alertApi) triage(ctx echo.Context) error {
	report, err := api.svc.Triage(ctx.Request().Context(), schoolID(ctx))
	if err != nil {
		return errors.Wrap(err, "triaging alerts")
	}
	return ctx.JSON(http.StatusOK, report)
}

func (api *alertApi) retrieve(ctx echo.Context) error {
	alert, err := api.svc.Get(ctx.Request().Context(), schoolID(ctx), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, alert)
}

func (api *alertApi) acknowledge(ctx echo.Context) error {
	alert, err := api.svc.Acknowledge(ctx.Request().Context(), schoolID(ctx), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, alert)
}

func (api *alertApi) resolve(ctx echo.Context) error {
	alert, err := api.svc.Resolve(ctx.Request().Context(), schoolID(ctx), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, alert)
}
