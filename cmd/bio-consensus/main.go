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

/*
bio-consensus builds a consensus sequence for one sample from its alignments
against a reference, keeping the annotated coding regions translatable.  It
writes the consensus FASTA and, on request, the annotations in consensus
coordinates, a VCF of the differences against the reference and the depth of
coverage per position.
*/

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/consensus/consensus"
)

var (
	name            = flag.String("name", "", "Sample name; output files are named <name>_cov_ge_<min-coverage>.*. Required")
	configPath      = flag.String("config", "", "YAML file overriding the consensus defaults; explicitly set flags take precedence")
	minCoverage     = flag.Int("min-coverage", consensus.DefaultOpts.MinCoverage, "Positions with fewer reads are emitted as N")
	noAmbiguity     = flag.Bool("no-ambiguity", false, "Never emit IUPAC ambiguity codes")
	outDir          = flag.String("output", ".", "Directory the consensus FASTA is written to")
	outGFFDir       = flag.String("output-gff", "", "If set, directory the corrected GFF3 is written to")
	outVCFDir       = flag.String("variants", "", "If set, directory the VCF is written to")
	bgzipVCF        = flag.Bool("bgzip-variants", false, "BGZF-compress the VCF")
	depthPath       = flag.String("depth-of-coverage", "", "If set, path of a pos<TAB>coverage TSV; BGZF-compressed when it ends in .gz")
	overridePosPath = flag.String("index-override-positions", "", "gzip-compressed CSV whose first column lists positions to re-fill from -index-override-bam")
	overrideBAMPath = flag.String("index-override-bam", "", "BAM the -index-override-positions are re-filled from. Use with caution; it replaces the observations at those positions")
	flagExclude     = flag.Int("flag-exclude", 0, "Reads with a FLAG bit intersecting this value are skipped")
	parallelism     = flag.Int("parallelism", 0, "Maximum number of concurrent aggregation and compression workers; 0 = runtime.NumCPU()")
	fastaLineWidth  = flag.Int("fasta-line-width", 0, "Wrap consensus FASTA lines at this many bases; 0 writes one line")
	plotCoverage    = flag.Bool("plot-coverage", false, "Log a text chart of the depth of coverage")
)

func bioConsensusUsage() {
	fmt.Printf("Usage: %s [OPTIONS] bampath fapath gffpath\n", os.Args[0])
	fmt.Printf("Other options:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = bioConsensusUsage
	shutdown := grail.Init()
	defer shutdown()

	positionalArgs := flag.Args()
	if len(positionalArgs) != 3 {
		log.Fatalf("Expected positional arguments bampath, fapath and gffpath; please check flag syntax: '%s'", strings.Join(positionalArgs, " "))
	}
	if *name == "" {
		log.Fatalf("-name is required")
	}
	if (*overridePosPath == "") != (*overrideBAMPath == "") {
		log.Fatalf("-index-override-positions and -index-override-bam must be given together")
	}
	ctx := vcontext.Background()

	opts := consensus.DefaultOpts
	if *configPath != "" {
		if err := consensus.LoadOpts(ctx, *configPath, &opts); err != nil {
			log.Fatalf("%v", err)
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "min-coverage":
			opts.MinCoverage = *minCoverage
		case "no-ambiguity":
			opts.Ambiguity = !*noAmbiguity
		case "parallelism":
			opts.Parallelism = *parallelism
		}
	})

	args := runArgs{
		bamPath:         positionalArgs[0],
		fastaPath:       positionalArgs[1],
		gffPath:         positionalArgs[2],
		name:            *name,
		outDir:          *outDir,
		outGFFDir:       *outGFFDir,
		outVCFDir:       *outVCFDir,
		bgzipVCF:        *bgzipVCF,
		depthPath:       *depthPath,
		overridePosPath: *overridePosPath,
		overrideBAMPath: *overrideBAMPath,
		flagExclude:     *flagExclude,
		fastaLineWidth:  *fastaLineWidth,
		plotCoverage:    *plotCoverage,
		commandLine:     strings.Join(os.Args[1:], " "),
		opts:            opts,
	}
	if err := run(ctx, args); err != nil {
		log.Panicf("%v", err)
	}
	log.Debug.Printf("exiting")
}
