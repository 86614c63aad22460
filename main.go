package main

import (
	"flag"
	"fmt"
	"os"
	"path"

	"github.com/fatih/color"
	"github.com/manishrjain/keys"
)

var (
	configDir = flag.String("conf", os.Getenv("HOME")+"/.ofxcat",
		"Config directory holding rules.yaml, shortcuts and the database.")
	dbPath    = flag.String("db", "", "Path to the database file. Defaults to ofxcat.db inside the config directory.")
	shortcuts = flag.String("short", "shortcuts.yaml", "Name of shortcuts file.")
	csvOut    = flag.String("csv", "", "If set, export all transactions to this CSV file after the run.")
	recent    = flag.Int("recent", 0, "Show the N most recent transactions after the run.")
	retoken   = flag.Bool("retokenize", false,
		"Recompute token sets for transactions missing them, then exit. Run after changing normalization rules.")
	subBatch = flag.Int("batch", defaultSubBatchSize, "Transactions per unit of work.")
)

func main() {
	flag.Parse()

	checkf(os.MkdirAll(*configDir, 0o755), "Unable to create directory: %v", *configDir)
	if len(*dbPath) == 0 {
		*dbPath = path.Join(*configDir, "ofxcat.db")
	}

	cfg, err := loadRuleConfig(path.Join(*configDir, "rules.yaml"))
	checkf(err, "Unable to load rules config")

	s, err := openStore(*dbPath)
	checkf(err, "Unable to open store at %v", *dbPath)
	defer s.Close()

	tok := newTokenizer(cfg.MinTokenLength, cfg.StopWords)

	if *retoken {
		im := &importer{store: s, tok: tok}
		n, err := im.retokenize()
		checkf(err, "Unable to retokenize")
		color.New(color.BgBlue, color.FgWhite).Printf(" RETOKENIZE ")
		fmt.Printf(" %d transactions updated\n", n)
		return
	}

	if flag.NArg() == 0 {
		oerr("Please pass one or more OFX statement files as arguments")
		return
	}

	stmts, err := loadStatements(flag.Args())
	checkf(err, "Unable to load statements")

	defer saneMode()
	singleCharMode()

	keyfile := path.Join(*configDir, *shortcuts)
	short := keys.ParseConfig(keyfile)
	defer short.Persist(keyfile)

	assertf(*subBatch > 0, "Batch size must be positive: %d", *subBatch)
	im := newImporter(s, newRuleEngine(cfg), newOverlapMatcher(cfg.OverlapThreshold, tok), tok, newKeyChooser(short))
	im.batchSize = *subBatch

	stats, err := im.importStatements(stmts)
	printImportReport(stats)
	checkf(err, "Import stopped")

	if *recent > 0 {
		checkf(printRecent(s, *recent), "Unable to print recent transactions")
	}
	if len(*csvOut) > 0 {
		checkf(exportCSV(s, *csvOut), "Unable to export CSV to %v", *csvOut)
		fmt.Printf("Transactions written to file: %s\n", *csvOut)
	}
}
