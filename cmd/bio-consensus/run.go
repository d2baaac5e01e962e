// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package main

import (
	"context"
	"runtime"
	"strings"
	"time"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/consensus/consensus"
	"github.com/grailbio/consensus/feature"
	"github.com/grailbio/consensus/output"
	"github.com/grailbio/consensus/pileup"
)

type runArgs struct {
	bamPath, fastaPath, gffPath string
	name                        string

	outDir    string
	outGFFDir string
	outVCFDir string
	bgzipVCF  bool
	depthPath string

	overridePosPath string
	overrideBAMPath string

	flagExclude    int
	fastaLineWidth int
	plotCoverage   bool
	commandLine    string
	opts           consensus.Opts
}

// run ingests the alignments, builds the consensus and writes every
// requested output.
func run(ctx context.Context, args runArgs) error {
	refName, ref, err := pileup.LoadReference(ctx, args.fastaPath)
	if err != nil {
		return err
	}
	idx := pileup.NewIndex(refName, ref)
	if err = pileup.FillFromBAM(ctx, args.bamPath, idx, pileup.FillOpts{FlagExclude: args.flagExclude}); err != nil {
		return err
	}
	if args.overridePosPath != "" {
		positions, err := pileup.ReadOverridePositions(ctx, args.overridePosPath)
		if err != nil {
			return err
		}
		log.Printf("overriding %d position(s) from %s", len(positions), args.overrideBAMPath)
		fillOpts := pileup.FillOpts{FlagExclude: args.flagExclude, Positions: positions}
		if err = pileup.FillFromBAM(ctx, args.overrideBAMPath, idx, fillOpts); err != nil {
			return err
		}
	}
	s := pileup.SummarizeCoverage(idx, args.opts.MinCoverage)
	log.Printf("%s: mean depth %.1f, median %.0f, max %d; %.2f%% of positions at depth >= %d",
		refName, s.Mean, s.Median, s.Max, 100*s.Breadth, args.opts.MinCoverage)
	if args.plotCoverage {
		log.Printf("depth of coverage:\n%s", pileup.PlotCoverage(idx, 80, 10))
	}

	parallelism := args.opts.Parallelism
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}
	if args.depthPath != "" {
		if err = pileup.WriteCoverageFile(ctx, args.depthPath, idx, parallelism); err != nil {
			return err
		}
	}

	gff, err := feature.Read(ctx, args.gffPath)
	if err != nil {
		return err
	}
	res, err := consensus.Build(idx, gff.Features, args.opts)
	if err != nil {
		return err
	}

	seqName := output.SequenceName(args.name, args.opts.MinCoverage)
	if err = output.WriteFASTA(ctx, file.Join(args.outDir, seqName+".fa"), seqName, res.Consensus, args.fastaLineWidth); err != nil {
		return err
	}
	if args.outGFFDir != "" {
		corrected := &feature.File{Header: gff.Header, Features: res.Features}
		if err = feature.Write(ctx, file.Join(args.outGFFDir, seqName+".gff"), corrected); err != nil {
			return err
		}
	}
	if args.outVCFDir != "" {
		path := file.Join(args.outVCFDir, seqName+".vcf")
		if args.bgzipVCF {
			path += ".gz"
		}
		h := output.VCFHeader{
			Contig:    refName,
			ContigLen: len(ref),
			Reference: args.fastaPath,
			Source:    strings.TrimSpace("bio-consensus " + args.commandLine),
			Date:      time.Now(),
		}
		if err = output.WriteVCFFile(ctx, path, h, output.Variants(res.Emissions), parallelism); err != nil {
			return err
		}
	}
	return nil
}
