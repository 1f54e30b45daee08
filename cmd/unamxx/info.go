package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"unamxx/internal/amx"
	"unamxx/internal/decompile"
)

func newInfoCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "info <plugin.amxx>",
		Short: "Show container, section and image headers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.load(cmd, args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "file:      %s\n", s.path)
			if s.prog.Archive != nil {
				if err := writeArchiveInfo(w, s.prog); err != nil {
					return err
				}
			}
			fmt.Fprintln(w)
			writeImageInfo(w, s.prog.Image)
			fmt.Fprintf(w, "publics:   %d\n", len(s.prog.Publics))
			fmt.Fprintf(w, "natives:   %d\n", len(s.prog.Natives))
			fmt.Fprintf(w, "insts:     %d\n", len(s.prog.Instructions))
			reportDiags(cmd.ErrOrStderr(), &s.prog.Diags)
			return nil
		},
	}
}

func writeArchiveInfo(w io.Writer, p *decompile.Program) error {
	sections, err := p.Archive.Sections().Collect()
	if err != nil {
		return err
	}
	h := p.Archive.Header
	fmt.Fprintf(w, "magic:     0x%08X\n", h.Magic)
	fmt.Fprintf(w, "version:   %d\n", h.Version)
	fmt.Fprintf(w, "sections:  %d\n", h.SectionCount)
	for _, sec := range sections {
		mark := " "
		if sec.Index == p.Section.Index {
			mark = "*"
		}
		fmt.Fprintf(w, "  %s[%d] cellsize=%d disksize=%d imagesize=%d memsize=%d offset=0x%x\n",
			mark, sec.Index, sec.CellSize, sec.DiskSize, sec.ImageSize, sec.MemSize, sec.Offset)
	}
	return nil
}

func writeImageInfo(w io.Writer, img *amx.Image) {
	fmt.Fprintf(w, "amx size:  %d\n", img.Size)
	fmt.Fprintf(w, "amx magic: 0x%04X (file version %d, amx version %d)\n", img.Magic, img.FileVersion, img.AMXVersion)
	fmt.Fprintf(w, "flags:     %s\n", img.Flags)
	fmt.Fprintf(w, "defsize:   %d\n", img.DefSize)
	fmt.Fprintf(w, "cod:       0x%x\n", img.Cod)
	fmt.Fprintf(w, "dat:       0x%x\n", img.Dat)
	fmt.Fprintf(w, "hea:       0x%x\n", img.Hea)
	fmt.Fprintf(w, "stp:       0x%x\n", img.Stp)
	fmt.Fprintf(w, "cip:       0x%x\n", img.Cip)
}
