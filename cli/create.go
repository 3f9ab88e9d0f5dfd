package main

import (
	"fmt"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"ncflag"
	"strconv"
	"strings"
)

type createCommand struct {
	Path        string
	Flag        string
	SchemePath  string
	Dims        []string
	Fill        int64
	Compression string
}

func newCreateCommand() *cobra.Command {
	creator := &createCommand{}
	createCmd := &cobra.Command{
		Use:   "create FILE FLAG",
		Short: "Create a flag variable from a YAML scheme definition.",
		Long: `
Creates FLAG in FILE (the file is created if needed) with the dimensions given
by --dim name:size. Without --fill the new variable is unwritten: every element
is missing until set.
`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			creator.Path, creator.Flag = args[0], args[1]
			return creator.Run(cmd.Flags().Changed("fill"))
		},
	}
	flags := createCmd.Flags()
	flags.StringVarP(&creator.SchemePath, "scheme", "s", "", "YAML scheme definition")
	flags.StringArrayVarP(&creator.Dims, "dim", "d", nil, "Dimension as name:size, repeatable")
	flags.Int64Var(&creator.Fill, "fill", 0, "Initialize every element to this value")
	flags.StringVar(&creator.Compression, "compression", ncflag.CompSnappy.String(), "Compression for a new file (snappy, lz4, none)")
	_ = createCmd.MarkFlagRequired("scheme")
	return createCmd
}

func (cmd *createCommand) Run(fill bool) error {
	scheme, err := ncflag.LoadSchemeDefinition(cmd.SchemePath)
	if err != nil {
		return err
	}
	dims, err := parseDims(cmd.Dims)
	if err != nil {
		return err
	}
	compression, err := ncflag.ParseCompression(cmd.Compression)
	if err != nil {
		return err
	}

	ds, err := openWrite(cmd.Path, compression)
	if err != nil {
		return err
	}
	defer ds.Close()

	v, err := ds.CreateVariable(cmd.Flag, scheme.DType(), dims)
	if err != nil {
		return err
	}
	if err := ncflag.WriteSchemeAttrs(v, scheme, scheme.HasExplicitMasks()); err != nil {
		return err
	}
	if fill {
		a, err := ncflag.Full(scheme, v.Shape(), cmd.Fill)
		if err != nil {
			return err
		}
		if err := ncflag.WriteFlag(a, v); err != nil {
			return err
		}
	}
	log.WithFields(log.Fields{"flag": cmd.Flag, "shape": v.Shape(), "filled": fill}).Info("flag created")
	return nil
}

func parseDims(specs []string) ([]ncflag.Dimension, error) {
	dims := make([]ncflag.Dimension, 0, len(specs))
	for _, spec := range specs {
		i := strings.LastIndex(spec, ":")
		if i <= 0 {
			return nil, errors.Errorf("dimension %q: want name:size", spec)
		}
		size, err := strconv.Atoi(spec[i+1:])
		if err != nil || size < 0 {
			return nil, errors.Errorf("dimension %q: invalid size", spec)
		}
		dims = append(dims, ncflag.Dimension{Name: spec[:i], Size: size})
	}
	return dims, nil
}

func formatDims(dims []ncflag.Dimension) string {
	parts := make([]string, len(dims))
	for i, d := range dims {
		parts[i] = fmt.Sprintf("%s:%d", d.Name, d.Size)
	}
	return strings.Join(parts, ",")
}
