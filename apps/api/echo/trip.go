package echoapi

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/collab46515/accademy-assist-sub006/core"
	"github.com/collab46515/accademy-assist-sub006/core/transport"
)

type tripApi struct {
	svc      *transport.TripService
	ledger   *transport.BoardingService
	validate *validator.Validate
}

func registerTripAPI(g *echo.Group, svc *transport.TripService, ledger *transport.BoardingService, validate *validator.Validate) {
	api := tripApi{
		svc:      svc,
		ledger:   ledger,
		validate: validate,
	}

	tg := g.Group("/trips")

	tg.POST("", api.create)
	tg.GET("", api.query)

	// detail endpoints
	dg := tg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.GET("/progress", api.progress)
	dg.POST("/start", api.start)
	dg.POST("/complete", api.complete)
	dg.POST("/delay", api.markDelayed)
	dg.POST("/cancel", api.cancel)
	dg.POST("/boarding", api.recordBoarding)
	dg.GET("/boarding", api.listBoarding)
}

// Handlers

func (api *tripApi) create(ctx echo.Context) error {
	var data transport.NewTripInstance
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTripInstance")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	trip, err := api.svc.Create(ctx.Request().Context(), schoolID(ctx), data)
	if err != nil {
		return errors.Wrap(err, "creating trip instance")
	}
	return ctx.JSON(http.StatusCreated, trip)
}

func (api *tripApi) query(ctx echo.Context) error {
	filter, err := tripFilterFromQuery(ctx)
	if err != nil {
		return err
	}
	trips, err := api.svc.Filter(ctx.Request().Context(), schoolID(ctx), filter)
	if err != nil {
		return errors.Wrap(err, "querying trip instances")
	}
	return ctx.JSON(http.StatusOK, trips)
}

func (api *tripApi) retrieve(ctx echo.Context) error {
	trip, err := api.svc.Get(ctx.Request().Context(), schoolID(ctx), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, trip)
}

func (api *tripApi) progress(ctx echo.Context) error {
	progress, err := api.svc.Progress(ctx.Request().Context(), schoolID(ctx), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, progress)
}

func (api *tripApi) start(ctx echo.Context) error {
	var data StartTripRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StartTripRequest")
	}
	data.clean()

	trip, err := api.svc.Start(ctx.Request().Context(), schoolID(ctx), ctx.Param("id"), data.DriverID, data.VehicleID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, trip)
}

func (api *tripApi) complete(ctx echo.Context) error {
	trip, err := api.svc.Complete(ctx.Request().Context(), schoolID(ctx), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, trip)
}

func (api *tripApi) markDelayed(ctx echo.Context) error {
	var data DelayTripRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to DelayTripRequest")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	var escalate bool
	if data.Escalate != nil {
		escalate = *data.Escalate
	} else {
		trip, err := api.svc.Get(ctx.Request().Context(), schoolID(ctx), ctx.Param("id"))
		if err != nil {
			return err
		}
		escalate = time.Since(trip.ScheduledStart) >= core.Conf.Alerting.DelayEscalation
	}

	trip, err := api.svc.MarkDelayed(ctx.Request().Context(), schoolID(ctx), ctx.Param("id"), data.Reason, escalate)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, trip)
}

func (api *tripApi) cancel(ctx echo.Context) error {
	var data CancelTripRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CancelTripRequest")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	trip, err := api.svc.Cancel(ctx.Request().Context(), schoolID(ctx), ctx.Param("id"), data.Reason)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, trip)
}

func (api *tripApi) recordBoarding(ctx echo.Context) error {
	var data transport.NewBoardingEvent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewBoardingEvent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ev, err := api.ledger.RecordAction(ctx.Request().Context(), schoolID(ctx), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, ev)
}

func (api *tripApi) listBoarding(ctx echo.Context) error {
	evs, err := api.ledger.EventsForTrip(ctx.Request().Context(), schoolID(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying boarding events")
	}
	return ctx.JSON(http.StatusOK, evs)
}
