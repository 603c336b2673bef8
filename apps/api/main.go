package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	echoapi "github.com/trezcool/kazi/apps/api/echo"
	"github.com/trezcool/kazi/core"
	"github.com/trezcool/kazi/core/task"
	"github.com/trezcool/kazi/core/user"
	emailsvc "github.com/trezcool/kazi/services/email"
	logsvc "github.com/trezcool/kazi/services/logger"
	"github.com/trezcool/kazi/storage/database"
	"github.com/trezcool/kazi/storage/jsonfile"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up storage
	usrRepo, tskRepo, closeStore, err := setUpStorage(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up storage: %v", err), err)
	}
	defer closeStore()

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}
	codes := user.NewRecoveryCodeStore(conf.PasswordResetTimeout)
	usrSvc := user.NewService(usrRepo, mailSvc, codes)
	tskSvc := task.NewService(tskRepo)
	reminder := task.NewReminder(tskRepo, usrRepo, mailSvc, logger)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	core.ParseEmailTemplates(logger)

	// =========================================================================
	// Start Reminder Scheduler

	schedCtx, stopSched := context.WithCancel(context.Background())
	defer stopSched()

	scheduler := task.NewScheduler(conf.Reminder, func(now time.Time) {
		res, err := reminder.RunSweep(now)
		if err != nil {
			logger.Error(fmt.Sprintf("reminder sweep failed: %v", err), err)
			return
		}
		logger.Info(fmt.Sprintf(
			"reminder sweep done: %d tasks matched, %d sent, %d failed",
			res.TasksMatched, res.Sent, res.Failed,
		))
	}, logger)
	scheduler.Start(schedCtx)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugAddr, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Logger:     logger,
			UserSvc:    usrSvc,
			TaskSvc:    tskSvc,
			Reminder:   reminder,
			Validate:   validate,
			Translator: translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err := <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))
		stopSched()

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err := server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpStorage(conf *core.Config) (user.Repository, task.Repository, func(), error) {
	switch conf.Storage.Engine {
	case "postgres":
		db, err := database.Open(conf)
		if err != nil {
			return nil, nil, nil, err
		}
		if err = database.Ping(db); err != nil {
			return nil, nil, nil, err
		}
		if err = database.Migrate(db); err != nil {
			return nil, nil, nil, err
		}
		return database.NewUserRepository(db), database.NewTaskRepository(db), func() { _ = db.Close() }, nil

	default: // jsonfile
		db, err := jsonfile.Open(filepath.Join(conf.WorkDir, conf.Storage.Dir))
		if err != nil {
			return nil, nil, nil, err
		}
		return jsonfile.NewUserRepository(db), jsonfile.NewTaskRepository(db), func() {}, nil
	}
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
