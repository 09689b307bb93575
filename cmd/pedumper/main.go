// Copyright 2021 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	mmap "github.com/edsrzf/mmap-go"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/spf13/cobra"

	"github.com/binlens/pe32plus"
)

type config struct {
	wantDOSHeader bool
	wantNTHeader  bool
	wantSections  bool
	wantExport    bool
	wantImport    bool
	wantReloc     bool
	wantCert      bool
	wantAll       bool
}

var (
	cfg    config
	logger *log.Helper
)

func prettyPrint(v any) string {
	buf, err := json.MarshalIndent(v, "", "\t")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(buf)
}

func isDirectory(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

func dumpExports(view *pe32plus.View) {
	exports, err := view.Exports()
	if err != nil {
		logger.Warnf("no export directory: %s", err)
		return
	}

	var list []pe32plus.Export
	for {
		e, err := exports.Next()
		if err != nil {
			logger.Errorf("reading export entry: %s", err)
			break
		}
		if e == nil {
			break
		}
		list = append(list, *e)
	}
	fmt.Println(prettyPrint(list))
}

func dumpImports(view *pe32plus.View) {
	imports, err := view.Imports()
	if err != nil {
		logger.Warnf("no import directory: %s", err)
		return
	}

	type module struct {
		Name    string
		Imports []pe32plus.Import
	}
	var modules []module
	for {
		m, err := imports.Next()
		if err != nil {
			logger.Errorf("reading import module: %s", err)
			break
		}
		if m == nil {
			break
		}

		name, err := m.Name()
		if err != nil {
			logger.Errorf("reading module name: %s", err)
			continue
		}

		mod := module{Name: name}
		for {
			i, err := m.Next()
			if err != nil {
				logger.Errorf("reading import entry for %s: %s", name, err)
				break
			}
			if i == nil {
				break
			}
			mod.Imports = append(mod.Imports, *i)
		}
		modules = append(modules, mod)
	}
	fmt.Println(prettyPrint(modules))
}

func dumpRelocations(view *pe32plus.View) {
	relocs, err := view.Relocations()
	if err != nil {
		logger.Warnf("no relocation directory: %s", err)
		return
	}

	type block struct {
		PageRVA     uint32
		Relocations []pe32plus.Relocation
	}
	var blocks []block
	for {
		b, err := relocs.Next()
		if err != nil {
			logger.Errorf("reading relocation block: %s", err)
			break
		}
		if b == nil {
			break
		}

		blk := block{PageRVA: b.PageRVA()}
		for {
			r, err := b.Next()
			if err != nil {
				logger.Errorf("reading relocation entry: %s", err)
				break
			}
			if r == nil {
				break
			}
			blk.Relocations = append(blk.Relocations, *r)
		}
		blocks = append(blocks, blk)
	}
	fmt.Println(prettyPrint(blocks))
}

func dumpCertificates(view *pe32plus.View) {
	certs, err := view.Certificates()
	if err != nil {
		logger.Warnf("no certificate directory: %s", err)
		return
	}

	type cert struct {
		Revision uint16
		Type     uint16
		Size     int
	}
	var list []cert
	for {
		c, err := certs.Next()
		if err != nil {
			logger.Errorf("reading certificate: %s", err)
			break
		}
		if c == nil {
			break
		}
		list = append(list, cert{
			Revision: c.Revision(),
			Type:     c.Type(),
			Size:     len(c.Value().Bytes()),
		})
	}
	fmt.Println(prettyPrint(list))
}

func dumpFile(filename string) {
	logger.Infof("processing %s", filename)

	f, err := os.Open(filename)
	if err != nil {
		logger.Errorf("opening %s: %s", filename, err)
		return
	}
	defer f.Close()

	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		logger.Errorf("mapping %s: %s", filename, err)
		return
	}
	defer data.Unmap()

	view, err := pe32plus.Parse(data)
	if err != nil {
		logger.Errorf("parsing %s: %s", filename, err)
		return
	}

	if cfg.wantDOSHeader || cfg.wantAll {
		fmt.Println(prettyPrint(view.DOSHeader()))
	}
	if cfg.wantNTHeader || cfg.wantAll {
		fmt.Println(prettyPrint(view.NTHeader()))
	}
	if cfg.wantSections || cfg.wantAll {
		names := make([]string, 0, len(view.Sections()))
		for _, s := range view.Sections() {
			names = append(names, s.Name())
		}
		fmt.Println(prettyPrint(names))
	}
	if cfg.wantExport || cfg.wantAll {
		dumpExports(view)
	}
	if cfg.wantImport || cfg.wantAll {
		dumpImports(view)
	}
	if cfg.wantReloc || cfg.wantAll {
		dumpRelocations(view)
	}
	if cfg.wantCert || cfg.wantAll {
		dumpCertificates(view)
	}
}

func run(cmd *cobra.Command, args []string) {
	target := args[0]

	if !isDirectory(target) {
		dumpFile(target)
		return
	}

	filepath.Walk(target, func(path string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			dumpFile(path)
		}
		return nil
	})
}

func main() {
	base := log.NewStdLogger(os.Stdout)
	logger = log.NewHelper(log.NewFilter(base, log.FilterLevel(log.LevelError)))

	rootCmd := &cobra.Command{
		Use:   "pedumper",
		Short: "Dumps structures from a PE32+ image",
		Long:  "pedumper is a zero-copy PE32+ parser CLI built for malware-analysis workflows.",
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("pedumper 0.1.0")
		},
	}

	dumpCmd := &cobra.Command{
		Use:   "dump [file or directory]",
		Short: "Dumps interesting structures of a PE32+ image",
		Args:  cobra.ExactArgs(1),
		Run:   run,
	}
	dumpCmd.Flags().BoolVar(&cfg.wantDOSHeader, "dosheader", false, "dump the DOS header")
	dumpCmd.Flags().BoolVar(&cfg.wantNTHeader, "ntheader", false, "dump the NT header")
	dumpCmd.Flags().BoolVar(&cfg.wantSections, "sections", false, "dump section names")
	dumpCmd.Flags().BoolVar(&cfg.wantExport, "export", false, "dump the export table")
	dumpCmd.Flags().BoolVar(&cfg.wantImport, "import", false, "dump the import table")
	dumpCmd.Flags().BoolVar(&cfg.wantReloc, "reloc", false, "dump base relocations")
	dumpCmd.Flags().BoolVar(&cfg.wantCert, "cert", false, "dump the certificate table")
	dumpCmd.Flags().BoolVar(&cfg.wantAll, "all", false, "dump everything")

	rootCmd.AddCommand(versionCmd, dumpCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
