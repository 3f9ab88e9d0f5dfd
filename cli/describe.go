package main

import (
	"fmt"
	"github.com/jedib0t/go-pretty/table"
	"github.com/jedib0t/go-pretty/text"
	"github.com/spf13/cobra"
	"io"
	"ncflag"
	"strings"
)

func newShowFlagsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show-flags FILE",
		Short: "Print the flags this tool can inspect.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := inspectableFlags(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Inspectable flags: %s\n", strings.Join(names, " "))
			return nil
		},
	}
}

// inspectableFlags lists the one dimensional flag variables of a dataset.
func inspectableFlags(path string) ([]string, error) {
	ds, err := openRead(path)
	if err != nil {
		return nil, err
	}
	defer ds.Close()

	names, err := ds.Variables()
	if err != nil {
		return nil, err
	}
	var valid []string
	for _, name := range names {
		v, err := ds.Variable(name)
		if err != nil {
			return nil, err
		}
		ok, err := ncflag.IsFlagVariable(v)
		if err != nil {
			return nil, err
		}
		if ok && len(v.Dimensions()) == 1 {
			valid = append(valid, name)
		}
	}
	return valid, nil
}

func newDescribeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "describe FILE FLAG",
		Short: "Print the meanings, values and masks of a flag variable.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := openRead(args[0])
			if err != nil {
				return err
			}
			defer ds.Close()

			v, err := ds.Variable(args[1])
			if err != nil {
				return err
			}
			s, err := ncflag.SchemeFromVariable(v)
			if err != nil {
				return err
			}
			writeScheme(cmd.OutOrStdout(), v, s)
			return nil
		},
	}
}

func writeScheme(w io.Writer, v *ncflag.Variable, s *ncflag.Scheme) {
	fmt.Fprintf(w, "%s %s (%s)\n", v.Name(), s.DType(), formatDims(v.Dimensions()))

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.Style().Format.Header = text.FormatDefault

	bits := s.DType().Bits()
	t.AppendHeader(table.Row{"meaning", "value", "mask", "bits"})
	meanings, values, masks := s.Meanings(), s.Values(), s.Masks()
	for i, m := range meanings {
		t.AppendRow(table.Row{
			m,
			s.DType().Int(values[i]),
			s.DType().Int(masks[i]),
			bitPattern(values[i], masks[i], bits),
		})
	}
	t.Render()
}

// bitPattern renders value under mask most significant bit first, with
// excluded bits shown as '.'.
func bitPattern(value, mask uint64, bits int) string {
	var b strings.Builder
	for i := bits - 1; i >= 0; i-- {
		bit := uint64(1) << uint(i)
		switch {
		case mask&bit == 0:
			b.WriteByte('.')
		case value&bit != 0:
			b.WriteByte('1')
		default:
			b.WriteByte('0')
		}
	}
	return b.String()
}
