package main

import (
	"context"
	"log"
	"os"

	"github.com/chronofactor/timetable/core"
	"github.com/chronofactor/timetable/core/course"
	"github.com/chronofactor/timetable/core/timetable"
	logsvc "github.com/chronofactor/timetable/services/logger"
	"github.com/chronofactor/timetable/storage/database"
	sqlxrepos "github.com/chronofactor/timetable/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	conf := core.NewConfig()
	cli := commandLine{conf: conf, out: os.Stdout}

	// createdb runs before the application database exists
	if len(os.Args) < 2 || os.Args[1] != "createdb" {
		db, err := database.Open(context.Background(), conf)
		errAndDie(err)
		defer db.Close()

		appLogger := logsvc.NewRollbarLogger(logger, conf)
		appLogger.Enable(!conf.Debug)

		translator := core.NewTranslator()
		validate := core.NewValidator(translator)
		course.InitValidators(validate, translator)

		cli.db = db.DB
		cli.courseSvc = course.NewService(sqlxrepos.NewCourseRepository(db), validate)
		cli.timetableSvc = timetable.NewService(sqlxrepos.NewTimetableRepository(db), cli.courseSvc, validate, appLogger)
	}

	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
