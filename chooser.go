package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/manishrjain/keys"
	"github.com/shopspring/decimal"
)

const descLength = 40

// categoryChooser supplies the human decision when neither the keyword rules
// nor the overlap matcher produced a category. A refusal leaves the
// transaction as UNKNOWN.
type categoryChooser interface {
	// chooseCategory picks among ranked candidates; all carries every known
	// category so the chooser can escape the candidate list.
	chooseCategory(t Txn, candidates, all []Category) (string, bool)
	// chooseAnyCategory picks from all existing categories, or names a new one.
	chooseAnyCategory(t Txn, existing []Category) (string, bool)
}

// keyChooser is the terminal implementation: single-keystroke selection over
// persisted shortcuts. It blocks the import until a key is pressed.
type keyChooser struct {
	short *keys.Shortcuts
}

func newKeyChooser(short *keys.Shortcuts) *keyChooser {
	setDefaultMappings(short)
	return &keyChooser{short: short}
}

func setDefaultMappings(ks *keys.Shortcuts) {
	ks.BestEffortAssign('s', ".skip", "default")
	ks.BestEffortAssign('a', ".show all", "default")
	ks.BestEffortAssign('n', ".new", "default")
}

func printTxnSummary(t Txn) {
	color.New(color.BgYellow, color.FgBlack).Printf(" %10s ", t.Date.Format("2006/01/02"))
	desc := t.Desc
	if len(desc) > descLength {
		desc = desc[:descLength]
	}
	color.New(color.BgWhite, color.FgBlack).Printf(" %-40s", desc)
	color.New(color.BgRed, color.FgWhite).Printf(" %10s ", t.Amount.StringFixed(2))
	fmt.Println()
	if len(t.Desc) > descLength {
		color.New(color.BgWhite, color.FgBlack).Printf("%6s %s ", "[DESC]", t.Desc)
		fmt.Println()
	}
}

func readKey() rune {
	r := make([]byte, 1)
	os.Stdin.Read(r)
	return rune(r[0])
}

func (kc *keyChooser) chooseCategory(t Txn, candidates, all []Category) (string, bool) {
	clear()
	printTxnSummary(t)
	fmt.Println()

	var ks keys.Shortcuts
	setDefaultMappings(&ks)
	for _, c := range candidates {
		ks.AutoAssign(c.Name, "default")
	}
	ks.Print("default", false)

	ch := readKey()
	opt, has := ks.MapsTo(ch, "default")
	if !has {
		return "", false
	}
	switch opt {
	case ".skip":
		return "", false
	case ".show all", ".new":
		return kc.chooseAnyCategory(t, all)
	default:
		return opt, true
	}
}

func (kc *keyChooser) chooseAnyCategory(t Txn, existing []Category) (string, bool) {
	clear()
	printTxnSummary(t)
	fmt.Println()

	for _, c := range existing {
		if c.Name == catUnknown || c.Name == catTransfer {
			continue
		}
		kc.short.AutoAssign(c.Name, "default")
	}
	kc.short.Print("default", false)

	ch := readKey()
	opt, has := kc.short.MapsTo(ch, "default")
	if !has {
		return "", false
	}
	switch opt {
	case ".skip", ".show all":
		return "", false
	case ".new":
		name := readLine("New category name: ")
		if len(strings.TrimSpace(name)) == 0 {
			return "", false
		}
		kc.short.AutoAssign(normalizeCategoryName(name), "default")
		return name, true
	default:
		return opt, true
	}
}

// readLine switches the terminal back to line mode for one typed answer.
func readLine(prompt string) string {
	saneMode()
	defer singleCharMode()
	fmt.Print(prompt)
	line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	return strings.TrimSpace(line)
}

// amountColor renders credits and debits distinctly in summaries.
func amountColor(amt decimal.Decimal) *color.Color {
	if amt.Sign() < 0 {
		return color.New(color.FgRed)
	}
	return color.New(color.FgGreen)
}
