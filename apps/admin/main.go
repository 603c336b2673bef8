package main

import (
	"log"
	"os"
	"path/filepath"

	"github.com/trezcool/kazi/core"
	"github.com/trezcool/kazi/core/task"
	"github.com/trezcool/kazi/core/user"
	emailsvc "github.com/trezcool/kazi/services/email"
	logsvc "github.com/trezcool/kazi/services/logger"
	"github.com/trezcool/kazi/storage/database"
	"github.com/trezcool/kazi/storage/jsonfile"
)

var std *log.Logger

func main() {
	defer os.Exit(0)

	std = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(std, conf)
	logger.Enable(!conf.Debug)

	// set up storage
	usrRepo, tskRepo, closeStore, err := setUpStorage(conf)
	errAndDie(err)
	defer closeStore()

	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}

	// start CLI
	cli := commandLine{
		usrRepo:  usrRepo,
		reminder: task.NewReminder(tskRepo, usrRepo, mailSvc, logger),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			std.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func setUpStorage(conf *core.Config) (user.Repository, task.Repository, func(), error) {
	switch conf.Storage.Engine {
	case "postgres":
		db, err := database.Open(conf)
		if err != nil {
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

func errAndDie(err error) {
	if err != nil {
		std.Fatal(err)
	}
}
