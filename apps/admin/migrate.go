package main

import (
	"context"
	"fmt"
	"syscall"

	"github.com/trezcool/goose"

	"github.com/chronofactor/timetable/fs"
	"github.com/chronofactor/timetable/storage/database"
)

var (
	gooseRunFunc = goose.RunFS               // mockable
	createDBFunc = database.CreateIfNotExist // mockable
)

func (cli *commandLine) migrate(args []string) error {
	arguments := make([]string, 0)
	if len(args) > 1 {
		arguments = append(arguments, args[1:]...)
	}
	return gooseRunFunc(args[0], cli.db, appfs.FS, "migrations", arguments...)
}

// createDB prompts for the admin password when none is configured, then creates the app role and database.
func (cli *commandLine) createDB() error {
	if cli.conf.Database.AdminPassword == "" {
		fmt.Fprint(cli.out, "Enter admin password:")
		pwd, err := readPasswordFunc(int(syscall.Stdin))
		fmt.Fprintln(cli.out)
		if err != nil {
			return err
		}
		cli.conf.Database.AdminPassword = string(pwd)
	}
	if err := createDBFunc(context.Background(), cli.conf); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "database %q ready\n", cli.conf.Database.Name)
	return nil
}
