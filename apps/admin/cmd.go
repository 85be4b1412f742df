package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"

	"golang.org/x/term"

	"github.com/chronofactor/timetable/core"
	"github.com/chronofactor/timetable/core/course"
	"github.com/chronofactor/timetable/core/timetable"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	conf         *core.Config
	db           *sql.DB
	courseSvc    *course.Service
	timetableSvc *timetable.Service
	out          io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run goose migrations (up, down, status, ...)")
	fmt.Fprintln(cli.out, "  createdb - create the application role and database; the admin password is prompted")
	fmt.Fprintln(cli.out, "  ingest -file PATH [-acadyear YEAR -semester SEM] - load a catalogue (.json or .csv)")
	fmt.Fprintln(cli.out, "  verify [-id ID] - recompute timetables from their sections and report drift")
	fmt.Fprintln(cli.out, "  export -id ID [-out PATH] - write a timetable as CSV")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	ingestCmd := flag.NewFlagSet("ingest", flag.ContinueOnError)
	ingestFile := ingestCmd.String("file", "", "The catalogue file: timetable.json or a CSV of course rows.")
	ingestAcadYear := ingestCmd.Int("acadyear", cli.conf.Semester.AcadYear, "Academic year of CSV catalogues.")
	ingestSemester := ingestCmd.Int("semester", cli.conf.Semester.Semester, "Semester of CSV catalogues.")

	verifyCmd := flag.NewFlagSet("verify", flag.ContinueOnError)
	verifyID := verifyCmd.Int("id", 0, "Only verify this timetable.")

	exportCmd := flag.NewFlagSet("export", flag.ContinueOnError)
	exportID := exportCmd.Int("id", 0, "The timetable to export.")
	exportOut := exportCmd.String("out", "", "Output file. Defaults to stdout.")

	for _, fs := range []*flag.FlagSet{ingestCmd, verifyCmd, exportCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "createdb":
		return cli.createDB()
	case "ingest":
		if err := ingestCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *ingestFile == "" {
			ingestCmd.Usage()
			return errHelp
		}
		return cli.ingest(*ingestFile, *ingestAcadYear, *ingestSemester)
	case "verify":
		if err := verifyCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.verify(*verifyID)
	case "export":
		if err := exportCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *exportID <= 0 {
			exportCmd.Usage()
			return errHelp
		}
		return cli.export(*exportID, *exportOut)
	default:
		cli.printUsage()
		return errHelp
	}
}
