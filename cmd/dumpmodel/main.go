// Command dumpmodel prints the node tree of a YAML model descriptor.
package main

import (
	"flag"
	"fmt"
	"os"

	"tumble/internal/asset"
	"tumble/quarkgl"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	stats := flag.Bool("stats", false, "also print node and triangle counts")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: dumpmodel [-stats] model.yaml...\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		return fmt.Errorf("no model given")
	}

	for _, path := range flag.Args() {
		raw, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		root, err := asset.Parse(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if flag.NArg() > 1 {
			fmt.Printf("%s:\n", path)
		}
		for _, line := range quarkgl.Dump(root) {
			fmt.Println(line)
		}
		if *stats {
			nodes, tris := count(root)
			fmt.Printf("nodes=%d triangles=%d\n", nodes, tris)
		}
	}
	return nil
}

// count includes hidden template nodes, which Walk skips.
func count(n *quarkgl.Node) (nodes, tris int) {
	nodes = 1
	if n.Mesh != nil {
		tris = len(n.Mesh.Indices) / 3
	}
	for _, c := range n.Children() {
		cn, ct := count(c)
		nodes += cn
		tris += ct
	}
	return nodes, tris
}
