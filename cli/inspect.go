package main

import (
	"fmt"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"io"
	"ncflag"
	"strings"
	"time"
)

const missingTime = "__________________________"

type inspectCommand struct {
	Path       string
	Flag       string
	TimeVar    string
	ExitOnGood bool

	stdout io.Writer
}

func newInspectCommand() *cobra.Command {
	inspector := &inspectCommand{}
	inspectCmd := &cobra.Command{
		Use:   "inspect FILE FLAG",
		Short: "Print the flag meanings set at each index of a one dimensional flag.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			inspector.Path, inspector.Flag = args[0], args[1]
			inspector.stdout = cmd.OutOrStdout()
			return inspector.Run()
		},
	}
	flags := inspectCmd.Flags()
	flags.StringVar(&inspector.TimeVar, "use-time-var", "", "Variable in the dataset to use to display timestamps")
	flags.BoolVar(&inspector.ExitOnGood, "exit-on-good", false, "Report only the *good* meaning for zero values")
	return inspectCmd
}

func (cmd *inspectCommand) Run() error {
	ds, err := openRead(cmd.Path)
	if err != nil {
		return err
	}
	defer ds.Close()

	v, err := ds.Variable(cmd.Flag)
	if err != nil {
		return err
	}
	if len(v.Dimensions()) != 1 {
		return errors.Errorf("%q: multidimensional flags are not supported", cmd.Flag)
	}
	w, err := ncflag.ReadFlag(v, nil)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{"flag": cmd.Flag, "size": w.Len(), "meanings": w.Scheme().Len()}).Info("inspecting flag")

	labels, err := cmd.labels(ds, v, w.Len())
	if err != nil {
		return err
	}

	setAt := w.MeaningsSetAt
	if cmd.ExitOnGood {
		setAt = w.MeaningsSetAtExitOnGood
	}
	for i := 0; i < w.Len(); i++ {
		meanings, err := setAt(i)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.stdout, "%s: [%s]\n", labels[i], strings.Join(meanings, " "))
	}
	return nil
}

// labels returns the index, or the ISO timestamp when a time variable is in
// use, for each of the n flag elements.
func (cmd *inspectCommand) labels(ds *ncflag.Dataset, flag *ncflag.Variable, n int) ([]string, error) {
	labels := make([]string, n)
	if cmd.TimeVar == "" {
		for i := range labels {
			labels[i] = fmt.Sprint(i)
		}
		return labels, nil
	}

	t, err := ds.Variable(cmd.TimeVar)
	if err != nil {
		return nil, err
	}
	if !t.SameDimensions(flag) {
		return nil, errors.Errorf("to print flags by time, %q must share dimensions with %q", cmd.TimeVar, cmd.Flag)
	}
	units, err := t.Attr(ncflag.AttrUnits)
	if errors.Is(err, ncflag.ErrAttrNotFound) || (err == nil && !units.IsText()) {
		return nil, errors.Errorf("did not find units on time variable %q", cmd.TimeVar)
	} else if err != nil {
		return nil, err
	}
	tu, err := ncflag.ParseTimeUnits(units.Text)
	if err != nil {
		return nil, err
	}
	data, present, err := t.Read()
	if err != nil {
		return nil, err
	}
	for i := range labels {
		if present != nil && !present[i] {
			labels[i] = missingTime
			continue
		}
		labels[i] = isoFormat(tu.Time(t.DType().Int(data[i])))
	}
	return labels, nil
}

// isoFormat prints microseconds only when they are not zero.
func isoFormat(t time.Time) string {
	if t.Nanosecond()/1000 == 0 {
		return t.Format("2006-01-02T15:04:05")
	}
	return t.Format("2006-01-02T15:04:05.000000")
}
