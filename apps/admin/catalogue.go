package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/chronofactor/timetable/core/timetable"
	"github.com/chronofactor/timetable/services/catalogue"
)

var errDrift = errors.New("stored timetables drifted from their sections")

func (cli *commandLine) ingest(path string, acadYear, semester int) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	ncs, err := catalogue.Load(f, filepath.Base(path), acadYear, semester)
	if err != nil {
		return err
	}
	summary, err := cli.courseSvc.Ingest(context.Background(), ncs)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "ingested %d courses, %d sections in %v\n", summary.Courses, summary.Sections, summary.Took)
	return nil
}

// verify recomputes every timetable (or only `id`) and prints a unified diff for those that drifted.
func (cli *commandLine) verify(id int) error {
	ctx := context.Background()

	ids := []int{id}
	if id == 0 {
		tts, err := cli.timetableSvc.Query(ctx, timetable.QueryFilter{IncludeArchived: true})
		if err != nil {
			return err
		}
		ids = ids[:0]
		for _, tt := range tts {
			ids = append(ids, tt.ID)
		}
	}

	drifted := 0
	for _, ttID := range ids {
		tt, derived, err := cli.timetableSvc.Verify(ctx, ttID)
		if err != nil {
			return err
		}
		timings, examTimes, warnings := timetable.Drift(tt.State(), derived)
		if !(timings || examTimes || warnings) {
			continue
		}
		drifted++

		diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        projectionLines(tt.State()),
			B:        projectionLines(derived),
			FromFile: fmt.Sprintf("timetable %d (stored)", tt.ID),
			ToFile:   fmt.Sprintf("timetable %d (derived)", tt.ID),
			Context:  1,
		})
		if err != nil {
			return err
		}
		fmt.Fprint(cli.out, diff)
	}

	fmt.Fprintf(cli.out, "%d/%d timetables drifted\n", drifted, len(ids))
	if drifted > 0 {
		return errDrift
	}
	return nil
}

func projectionLines(st timetable.State) []string {
	lines := make([]string, 0, len(st.Timings)+len(st.ExamTimes)+len(st.Warnings))
	for _, tok := range timetable.EncodeTimings(st.Timings) {
		lines = append(lines, "timing "+tok+"\n")
	}
	for _, tok := range timetable.EncodeExamTimes(st.ExamTimes) {
		lines = append(lines, "exam "+tok+"\n")
	}
	for _, tok := range timetable.EncodeWarnings(st.Warnings) {
		lines = append(lines, "warning "+tok+"\n")
	}
	return lines
}

func (cli *commandLine) export(id int, path string) error {
	tt, err := cli.timetableSvc.Get(context.Background(), id)
	if err != nil {
		return err
	}
	if strings.TrimSpace(path) == "" {
		return catalogue.Export(cli.out, tt)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err = catalogue.Export(f, tt); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "timetable %d written to %s\n", id, path)
	return nil
}
