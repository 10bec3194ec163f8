package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/zmaroti/grups2/genome"
	"github.com/zmaroti/grups2/panel"
	"github.com/zmaroti/grups2/refstore/fstbuild"
)

// parseShardArgs splits each "CHR:VCF" positional argument into one
// fstbuild.Options.
func parseShardArgs(args []string, p *panel.Panel, outPrefix string, computePopAFs bool) ([]fstbuild.Options, error) {
	opts := make([]fstbuild.Options, 0, len(args))
	for _, arg := range args {
		parts := strings.SplitN(arg, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("%q: expected CHR:VCF", arg)
		}
		chr, err := genome.ParseChr(parts[0])
		if err != nil {
			return nil, fmt.Errorf("%q: %w", arg, err)
		}
		opts = append(opts, fstbuild.Options{
			VCFPath:       parts[1],
			Chr:           chr,
			OutPrefix:     fmt.Sprintf("%s.chr%s", outPrefix, strconv.Itoa(chr)),
			ComputePopAFs: computePopAFs,
			Panel:         p,
		})
	}
	return opts, nil
}
