package main

import (
	"log"
	"os"

	echoapi "github.com/collab46515/accademy-assist-sub006/apps/api/echo"
	"github.com/collab46515/accademy-assist-sub006/core"
	"github.com/collab46515/accademy-assist-sub006/core/transport"
	emailsvc "github.com/collab46515/accademy-assist-sub006/services/email"
	logsvc "github.com/collab46515/accademy-assist-sub006/services/logger"
	"github.com/collab46515/accademy-assist-sub006/storage/database"
	sqlxrepos "github.com/collab46515/accademy-assist-sub006/storage/database/sqlx"
)

// TODO:
// - graceful shutdown on SIGTERM
// - swagger !!
func main() {
	// set up logging
	var logger core.Logger
	if core.Conf.Debug {
		logger = logsvc.NewStdLogger("API : ")
	} else {
		std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
		logger = logsvc.NewRollbarLogger(std, core.Conf)
	}

	// set up DB
	db, err := database.Open(core.Conf)
	if err != nil {
		logger.Fatal("opening database", err)
	}
	defer func() { _ = db.Close() }()

	// apply pending migrations automatically in DEV; deployments run them
	// through the admin CLI
	if core.Conf.Debug {
		if err = database.Migrate(db.DB); err != nil {
			logger.Fatal("migrating database", err)
		}
	}

	// set up services
	var mailSvc core.EmailService
	if core.Conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}

	tripRepo := sqlxrepos.NewTripRepository(db)
	alertSvc := transport.NewAlertService(sqlxrepos.NewAlertRepository(db))
	boardingSvc := transport.NewBoardingService(
		sqlxrepos.NewBoardingRepository(db), tripRepo, alertSvc, mailSvc, core.Conf.Alerting.NoShowRatio)
	tripSvc := transport.NewTripService(tripRepo, boardingSvc, alertSvc)
	stopSvc := transport.NewStopService(sqlxrepos.NewStopRepository(db))

	// start API server
	app := echoapi.NewServer(
		&echoapi.Options{
			Address:     core.Conf.Server.Address(),
			TripSvc:     tripSvc,
			BoardingSvc: boardingSvc,
			StopSvc:     stopSvc,
			AlertSvc:    alertSvc,
			Logger:      logger,
		},
	)
	app.Start()
}
