// Command lexfreq builds word and lemma frequency tables from a corpus of
// gzip-compressed XML documents.
//
// Usage:
//
//	lexfreq words  --root corpora/OPUS_es --out output_wf
//	lexfreq lemmas --root corpora/OPUS_es --out outputs --workers 4
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
