package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chronofactor/timetable/core"
	"github.com/chronofactor/timetable/core/course"
	"github.com/chronofactor/timetable/core/timetable"
	"github.com/chronofactor/timetable/tests"
)

func setup(t *testing.T) (*commandLine, *testutil.Store, *bytes.Buffer) {
	store := testutil.NewStore(t)
	var out bytes.Buffer
	return &commandLine{
		conf:         &core.Config{Semester: core.SemesterConfig{AcadYear: 2024, Semester: 1}},
		courseSvc:    store.Courses,
		timetableSvc: store.Timetables,
		out:          &out,
	}, store, &out
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func (tt cliTest) check(t *testing.T, err error) {
	t.Helper()
	switch {
	case tt.wantErr != nil:
		if err != tt.wantErr {
			t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
		}
	case tt.wantErrStr != "":
		if err == nil || err.Error() != tt.wantErrStr {
			t.Errorf("cli.run() error = %v, wantErrStr %s", err, tt.wantErrStr)
		}
	case err != nil:
		t.Errorf("cli.run() unexpected error = %v", err)
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _, _ := setup(t)

	defer func(orig func(string, *sql.DB, fs.FS, string, ...string) error) { gooseRunFunc = orig }(gooseRunFunc)
	gooseRunFunc = func(command string, db *sql.DB, fsys fs.FS, dir string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to":
			if len(args) == 0 {
				return fmt.Errorf("up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		case "down-to":
			if len(args) == 0 {
				return fmt.Errorf("down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		if _, err := fs.Stat(fsys, dir+"/00002_timetable.sql"); err != nil {
			return err
		}
		return nil
	}

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "create", args: []string{"migrate", "create", "rooms", "sql"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(args))
		})
	}
}

func Test_commandLine_createDB(t *testing.T) {
	cli, _, out := setup(t)
	cli.conf.Database.Name = "chrono"

	defer func(create func(context.Context, *core.Config) error, read func(int) ([]byte, error)) {
		createDBFunc, readPasswordFunc = create, read
	}(createDBFunc, readPasswordFunc)

	var gotPassword string
	createDBFunc = func(_ context.Context, conf *core.Config) error {
		gotPassword = conf.Database.AdminPassword
		return nil
	}
	readPasswordFunc = func(fd int) ([]byte, error) { return []byte("s3cret"), nil }

	require.NoError(t, cli.run([]string{"admin", "createdb"}))
	assert.Equal(t, "s3cret", gotPassword)
	assert.Contains(t, out.String(), `database "chrono" ready`)

	// a configured password is not prompted for
	readPasswordFunc = func(fd int) ([]byte, error) { t.Fatal("password prompted"); return nil, nil }
	cli.conf.Database.AdminPassword = "configured"
	require.NoError(t, cli.run([]string{"admin", "createdb"}))
	assert.Equal(t, "configured", gotPassword)
}

func Test_commandLine_ingest(t *testing.T) {
	cli, store, out := setup(t)

	dir := t.TempDir()
	csvPath := filepath.Join(dir, "courses.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(
		"code,name,midsem_start,midsem_end,compre_start,compre_end,section,instructors,room,day,hour\n"+
			"PHY F111,Mechanics,,,,,L1,Prof P,F201,M,11\n"+
			"PHY F111,Mechanics,,,,,T1,Prof P,F202,Th,11\n",
	), 0o600))
	badPath := filepath.Join(dir, "courses.txt")
	require.NoError(t, os.WriteFile(badPath, []byte("nope"), 0o600))

	tests := []cliTest{
		{name: "no file", args: []string{"ingest"}, wantErr: errHelp},
		{name: "unsupported file", args: []string{"ingest", "-file", badPath}, wantErrStr: `unsupported catalogue file "courses.txt"`},
		{name: "csv", args: []string{"ingest", "-file", csvPath}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(args))
		})
	}

	assert.Contains(t, out.String(), "ingested 1 courses, 2 sections")
	crs, err := store.Courses.GetByCode(context.Background(), "PHY F111", 2024, 1)
	require.NoError(t, err)
	types, err := store.Courses.RequiredSectionTypes(context.Background(), crs.ID)
	require.NoError(t, err)
	assert.Equal(t, []course.SectionType{course.Lecture, course.Tutorial}, types)
}

func Test_commandLine_verify(t *testing.T) {
	cli, store, out := setup(t)
	ctx := context.Background()

	healthy := store.CreateTimetable(t, "a", "ECON F211-L1")
	broken := store.CreateTimetable(t, "b", "CS F211-L1")

	require.NoError(t, cli.run([]string{"admin", "verify"}))
	assert.Equal(t, "0/2 timetables drifted\n", out.String())

	// lose two timings behind the engine's back
	_, err := store.TimetableRepo.MutateTimetable(ctx, broken.ID, func(tt timetable.Timetable) (timetable.Timetable, error) {
		tt.Timings = tt.Timings[:1]
		return tt, nil
	})
	require.NoError(t, err)

	out.Reset()
	assert.Equal(t, errDrift, cli.run([]string{"admin", "verify"}))
	diff := out.String()
	assert.Contains(t, diff, fmt.Sprintf("--- timetable %d (stored)", broken.ID))
	assert.Contains(t, diff, "+timing CS F211:W9\n")
	assert.Contains(t, diff, "+timing CS F211:F9\n")
	assert.True(t, strings.HasSuffix(diff, "1/2 timetables drifted\n"))

	out.Reset()
	require.NoError(t, cli.run([]string{"admin", "verify", "-id", strconv.Itoa(healthy.ID)}))
	assert.Equal(t, "0/1 timetables drifted\n", out.String())
}

func Test_commandLine_export(t *testing.T) {
	cli, store, out := setup(t)
	tt := store.CreateTimetable(t, "a", "BITS F110-P1")

	tests := []cliTest{
		{name: "no id", args: []string{"export"}, wantErr: errHelp},
		{name: "unknown timetable", args: []string{"export", "-id", "999"}, wantErr: timetable.ErrNotFound},
		{name: "stdout", args: []string{"export", "-id", strconv.Itoa(tt.ID)}},
	}
	for _, tc := range tests {
		args := append([]string{"admin"}, tc.args...)

		t.Run(tc.name, func(t *testing.T) {
			tc.check(t, cli.run(args))
		})
	}
	assert.Contains(t, out.String(), "BITS F110,P1,S,3,F101,Prof BITS F110\n")

	path := filepath.Join(t.TempDir(), "tt.csv")
	require.NoError(t, cli.run([]string{"admin", "export", "-id", strconv.Itoa(tt.ID), "-out", path}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "course,section,day,hour,room,instructors\n"))
}
