package main

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"ncflag"
	"strconv"
)

type setCommand struct {
	Path        string
	Flag        string
	Meaning     string
	Indices     []int
	ZeroIfUnset bool
}

func newSetCommand() *cobra.Command {
	setter := &setCommand{}
	setCmd := &cobra.Command{
		Use:   "set FILE FLAG MEANING INDEX...",
		Short: "Set a flag meaning at the given flat indices.",
		Long: `
Sets MEANING at each INDEX, clearing the bits of its mask first. With
--zero-if-unset the mask bits are cleared at every other index as well, which
resets a field shared by mutually exclusive meanings.
`,
		Args: cobra.MinimumNArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			setter.Path, setter.Flag, setter.Meaning = args[0], args[1], args[2]
			setter.Indices = setter.Indices[:0]
			for _, arg := range args[3:] {
				i, err := strconv.Atoi(arg)
				if err != nil {
					return errors.Errorf("index %q is not an integer", arg)
				}
				setter.Indices = append(setter.Indices, i)
			}
			return setter.Run()
		},
	}
	setCmd.Flags().BoolVar(&setter.ZeroIfUnset, "zero-if-unset", false, "Clear the meaning's bits wherever it is not set")
	return setCmd
}

func (cmd *setCommand) Run() error {
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

	if cmd.ZeroIfUnset {
		should := make([]bool, w.Len())
		for _, i := range cmd.Indices {
			if i < 0 {
				i += w.Len()
			}
			if i < 0 || i >= w.Len() {
				return errors.Wrapf(ncflag.ErrIndexOutOfRange, "index %d", i)
			}
			should[i] = true
		}
		if err := w.SetWhere(cmd.Meaning, should, true); err != nil {
			return err
		}
	} else {
		for _, i := range cmd.Indices {
			if err := w.SetAt(cmd.Meaning, i); err != nil {
				return err
			}
		}
	}

	if err := ncflag.WriteFlag(w, v); err != nil {
		return err
	}
	log.WithFields(log.Fields{"flag": cmd.Flag, "meaning": cmd.Meaning, "indices": cmd.Indices}).Info("flag set")
	return nil
}
