// Copyright 2025 dacapoday
// SPDX-License-Identifier: Apache-2.0

// grove-view is a CLI tool for browsing grove index files.
//
// Usage:
//
//	grove-view <filename>            # interactive mode
//	grove-view -l <filename>         # list mode (print all)
//	grove-view -l -n 20 <filename>   # list first 20 entries
//	grove-view -check <filename>     # verify structural invariants
//	grove-view -stats <filename>     # print tree geometry
//
// Interactive mode:
//
//	j/↓    scroll down
//	k/↑    scroll up
//	g      jump to first
//	G      jump to last
//	/      seek to key
//	q/Esc  quit
package main

import (
	"bufio"
	"bytes"
	"flag"
	"fmt"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/term"

	"github.com/dacapoday/grove/block"
	"github.com/dacapoday/grove/bptree"
)

var magicCode = [4]byte{'g', 'r', 'v', '1'}

type fileOption struct {
	pageSize int
}

func (o fileOption) MagicCode() [4]byte { return magicCode }
func (o fileOption) PageSize() int      { return o.pageSize }
func (o fileOption) ReadOnly() bool     { return true }

func main() {
	listFlag := flag.Bool("l", false, "list mode (non-interactive)")
	countFlag := flag.Int("n", 0, "number of entries (0 = all)")
	checkFlag := flag.Bool("check", false, "verify structural invariants and exit")
	statsFlag := flag.Bool("stats", false, "print tree geometry and exit")
	pageFlag := flag.Int("pagesize", 4096, "on-disk page size of the file")
	keyFlag := flag.Int("maxkey", 0, "max key size the tree was created with (0 = default)")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: grove-view [-l] [-n count] [-check] [-stats] <filename>")
		os.Exit(1)
	}

	store, err := block.Open(flag.Arg(0), fileOption{pageSize: *pageFlag})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	tree, err := bptree.Load(store, store.Entry(), bptree.Config{MaxKeySize: *keyFlag})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	switch {
	case *checkFlag:
		runCheck(tree)
	case *statsFlag:
		runStats(tree, store)
	case *listFlag:
		runList(tree, *countFlag)
	default:
		runInteractive(tree)
	}
}

func runCheck(tree *bptree.Tree) {
	if err := tree.Check(); err != nil {
		fmt.Fprintf(os.Stderr, "corrupt: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("ok")
}

func runStats(tree *bptree.Tree, store *block.Store) {
	entries := 0
	cursor := tree.Scan(nil, nil)
	defer cursor.Close()
	for cursor.Next() {
		entries++
	}
	if err := cursor.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("order:     %d\n", tree.Order())
	fmt.Printf("height:    %d\n", tree.Height())
	fmt.Printf("root page: %d\n", tree.Root())
	fmt.Printf("pages:     %d\n", store.PageCount())
	fmt.Printf("entries:   %d\n", entries)
}

func runList(tree *bptree.Tree, count int) {
	cursor := tree.Scan(nil, nil)
	defer cursor.Close()

	n := 0
	for cursor.Next() {
		if count > 0 && n >= count {
			break
		}
		fmt.Printf("%s: %s\n", display(cursor.Key(), 40), display(cursor.Val(), 60))
		n++
	}
	if err := cursor.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func runInteractive(tree *bptree.Tree) {
	oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer term.Restore(int(os.Stdin.Fd()), oldState)

	v := &viewer{tree: tree}
	v.updateSize()
	v.first()

	fmt.Print("\033[?25l\033[2J")             // hide cursor, clear screen once
	defer fmt.Print("\033[?25h\033[2J\033[H") // show cursor, clear screen

	reader := bufio.NewReader(os.Stdin)

	for {
		if v.updateSize() {
			v.reload()
		}
		v.render()

		b, err := reader.ReadByte()
		if err != nil {
			break
		}

		v.status = ""

		switch b {
		case 'q', 3: // q, Ctrl+C
			return
		case 27: // Esc, possibly an arrow sequence
			if reader.Buffered() == 0 {
				return
			}
			b2, _ := reader.ReadByte()
			if b2 != '[' {
				continue
			}
			b3, _ := reader.ReadByte()
			switch b3 {
			case 'A':
				v.up()
			case 'B':
				v.down()
			}
		case 'j':
			v.down()
		case 'k':
			v.up()
		case 'g':
			v.first()
		case 'G':
			v.last()
		case '/':
			v.seek(reader)
		}
	}
}

type item struct {
	key, val []byte
}

// viewer keeps a screenful of entries. The leaf chain only links forward,
// so scrolling up and jumping to the end re-scan from the front.
type viewer struct {
	tree    *bptree.Tree
	items   []item
	width   int
	height  int
	atStart bool
	atEnd   bool
	status  string
}

// updateSize checks terminal size and returns true if changed.
func (v *viewer) updateSize() bool {
	w, h, err := term.GetSize(int(os.Stdin.Fd()))
	if err != nil {
		w, h = 80, 24
	}
	if w == v.width && h == v.height {
		return false
	}
	v.width, v.height = w, h
	return true
}

func (v *viewer) lines() int {
	return v.height - 4 // title + two separators + status
}

func (v *viewer) fail(err error) {
	v.status = fmt.Sprintf("error: %v", err)
}

// loadFrom fills the window with entries starting at the first key not
// less than low.
func (v *viewer) loadFrom(low []byte) {
	v.items = nil
	v.atEnd = false

	cursor := v.tree.Scan(low, nil)
	defer cursor.Close()
	for len(v.items) < v.lines() && cursor.Next() {
		v.items = append(v.items, item{
			key: bytes.Clone(cursor.Key()),
			val: bytes.Clone(cursor.Val()),
		})
	}
	if err := cursor.Err(); err != nil {
		v.fail(err)
		return
	}
	if len(v.items) < v.lines() {
		v.atEnd = true
	}
	v.markStart()
}

// markStart compares the window top against the smallest key in the tree.
func (v *viewer) markStart() {
	v.atStart = false
	cursor := v.tree.Scan(nil, nil)
	defer cursor.Close()
	if !cursor.Next() {
		v.atStart = true
		v.atEnd = true
		return
	}
	if len(v.items) > 0 && bytes.Equal(cursor.Key(), v.items[0].key) {
		v.atStart = true
	}
}

func (v *viewer) reload() {
	if len(v.items) == 0 {
		v.first()
		return
	}
	v.loadFrom(v.items[0].key)
}

func (v *viewer) down() {
	if v.atEnd || len(v.items) == 0 {
		return
	}

	last := v.items[len(v.items)-1].key
	cursor := v.tree.Scan(last, nil)
	defer cursor.Close()
	for cursor.Next() {
		if !bytes.Equal(cursor.Key(), last) {
			v.items = append(v.items[1:], item{
				key: bytes.Clone(cursor.Key()),
				val: bytes.Clone(cursor.Val()),
			})
			v.atStart = false
			return
		}
	}
	if err := cursor.Err(); err != nil {
		v.fail(err)
		return
	}
	v.atEnd = true
}

func (v *viewer) up() {
	if v.atStart || len(v.items) == 0 {
		return
	}

	prev := v.predecessor(v.items[0].key)
	if prev == nil {
		v.atStart = true
		return
	}
	v.items = append([]item{*prev}, v.items...)
	if len(v.items) > v.lines() {
		v.items = v.items[:v.lines()]
		v.atEnd = false
	}
	v.markStart()
}

// predecessor scans from the front for the entry just before key.
func (v *viewer) predecessor(key []byte) *item {
	cursor := v.tree.Scan(nil, nil)
	defer cursor.Close()

	var prev *item
	for cursor.Next() {
		if bytes.Compare(cursor.Key(), key) >= 0 {
			break
		}
		prev = &item{
			key: bytes.Clone(cursor.Key()),
			val: bytes.Clone(cursor.Val()),
		}
	}
	if err := cursor.Err(); err != nil {
		v.fail(err)
		return nil
	}
	return prev
}

func (v *viewer) first() {
	v.loadFrom(nil)
}

// last walks the whole chain keeping the final screenful.
func (v *viewer) last() {
	lines := v.lines()
	cursor := v.tree.Scan(nil, nil)
	defer cursor.Close()

	var tail []item
	for cursor.Next() {
		tail = append(tail, item{
			key: bytes.Clone(cursor.Key()),
			val: bytes.Clone(cursor.Val()),
		})
		if len(tail) > lines {
			tail = tail[1:]
		}
	}
	if err := cursor.Err(); err != nil {
		v.fail(err)
		return
	}
	v.items = tail
	v.atEnd = true
	v.markStart()
}

func (v *viewer) seek(reader *bufio.Reader) {
	fmt.Print("\033[?25h") // show cursor
	fmt.Printf("\033[%d;1H\033[K/", v.height)

	var input []byte
	for {
		b, err := reader.ReadByte()
		if err != nil {
			break
		}
		if b == 27 || b == 3 { // Esc or Ctrl+C
			fmt.Print("\033[?25l")
			return
		}
		if b == 13 || b == 10 { // Enter
			break
		}
		if b == 127 || b == 8 { // Backspace
			if len(input) > 0 {
				input = input[:len(input)-1]
				fmt.Print("\b \b")
			}
			continue
		}
		if b >= 32 && b < 127 {
			input = append(input, b)
			fmt.Print(string(b))
		}
	}
	fmt.Print("\033[?25l")

	if len(input) == 0 {
		return
	}

	v.loadFrom(input)
	if len(v.items) > 0 {
		v.status = fmt.Sprintf("jumped to: %s", display(v.items[0].key, 20))
	} else {
		v.status = "past the end"
	}
}

func (v *viewer) render() {
	var b strings.Builder

	// move to top (no clear)
	b.WriteString("\033[H")

	b.WriteString("[ grove-view ]\033[K\r\n")
	b.WriteString(strings.Repeat("─", v.width))
	b.WriteString("\033[K\r\n")

	keyWidth := 32
	valWidth := v.width - keyWidth - 4
	if valWidth < 20 {
		valWidth = 20
	}

	lines := v.lines()
	for i := range lines {
		if i < len(v.items) {
			it := v.items[i]
			b.WriteString(display(it.key, keyWidth))
			b.WriteString(": ")
			b.WriteString(display(it.val, valWidth))
		} else {
			b.WriteString("~")
		}
		b.WriteString("\033[K\r\n")
	}

	b.WriteString(strings.Repeat("─", v.width))
	b.WriteString("\033[K\r\n")

	pos := ""
	switch {
	case v.atStart && v.atEnd:
		pos = "[all]"
	case v.atStart:
		pos = "[top]"
	case v.atEnd:
		pos = "[end]"
	}

	if v.status != "" {
		b.WriteString(" " + v.status + " " + pos)
	} else {
		b.WriteString(" j/k:scroll g/G:jump /:seek q:quit " + pos)
	}
	b.WriteString("\033[K")

	fmt.Print(b.String())
}

// display formats bytes for output, truncating if needed.
// Printable UTF-8 shows as text, anything else as hex.
func display(b []byte, maxLen int) string {
	if len(b) == 0 {
		return "(empty)"
	}

	if utf8.Valid(b) && isPrintable(b) {
		runes := []rune(string(b))
		if len(runes) > maxLen-3 {
			return string(runes[:maxLen-3]) + "..."
		}
		return string(runes)
	}

	hex := fmt.Sprintf("%x", b)
	if len(hex) > maxLen-3 {
		return hex[:maxLen-3] + "..."
	}
	return hex
}

func isPrintable(b []byte) bool {
	for _, r := range string(b) {
		if !unicode.IsPrint(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}
