package main

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"ncflag"
)

type reduceCommand struct {
	Path        string
	Flag        string
	Out         string
	Axis        int
	ExcludeMask int64
}

func newReduceCommand() *cobra.Command {
	reducer := &reduceCommand{}
	reduceCmd := &cobra.Command{
		Use:   "reduce FILE FLAG OUT",
		Short: "OR-reduce a flag along one axis into a new variable.",
		Long: `
Collapses one axis of FLAG by bitwise OR and stores the result as OUT with the
same meanings, values and masks. Elements intersecting --exclude-mask do not
contribute to the result.
`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			reducer.Path, reducer.Flag, reducer.Out = args[0], args[1], args[2]
			return reducer.Run()
		},
	}
	flags := reduceCmd.Flags()
	flags.IntVar(&reducer.Axis, "axis", -1, "Axis to reduce; negative counts from the last")
	flags.Int64Var(&reducer.ExcludeMask, "exclude-mask", 0, "Drop elements having any of these bits set")
	return reduceCmd
}

func (cmd *reduceCommand) Run() error {
	ds, err := openWrite(cmd.Path, ncflag.CompSnappy)
	if err != nil {
		return err
	}
	defer ds.Close()

	v, err := ds.Variable(cmd.Flag)
	if err != nil {
		return err
	}
	w, err := ncflag.ReadFlag(v, nil)
	if err != nil {
		return err
	}
	reduced, err := w.Reduce(cmd.Axis, w.DType().Coerce(cmd.ExcludeMask))
	if err != nil {
		return err
	}

	axis := cmd.Axis
	if axis < 0 {
		axis += len(v.Dimensions())
	}
	var dims []ncflag.Dimension
	for i, d := range v.Dimensions() {
		if i != axis {
			dims = append(dims, d)
		}
	}
	out, err := ds.CreateVariable(cmd.Out, v.DType(), dims)
	if err != nil {
		return err
	}
	if err := ncflag.WriteSchemeAttrs(out, reduced.Scheme(), reduced.Scheme().HasExplicitMasks()); err != nil {
		return err
	}
	if err := ncflag.WriteFlag(reduced, out); err != nil {
		return err
	}
	log.WithFields(log.Fields{"flag": cmd.Flag, "out": cmd.Out, "axis": cmd.Axis}).Info("flag reduced")
	return nil
}
