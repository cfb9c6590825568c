package treediff

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
)

const (
	colorClose   = "\x1b[0m"
	colorNeutral = "\x1b[37m"
	colorInsert  = "\x1b[32m"
	colorDelete  = "\x1b[31m"
	colorUpdate  = "\x1b[34m"
	colorArray   = "\x1b[36m"
)

// FormatPrettyString is a convenice wrapper that outputs to a string instead of
// an io.Writer
func FormatPrettyString(changes Changes, colorTTY bool) (string, error) {
	buf := &bytes.Buffer{}
	if err := FormatPretty(buf, changes, colorTTY); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// FormatPretty writes a text report to w, one line per change. if colorTTY is
// true it will add
// green "+" for insertions
// red "-" for deletions
// blue "~" for edits
// cyan "A" for array changes, with the wrapped change indented beneath
func FormatPretty(w io.Writer, changes Changes, colorTTY bool) error {
	var colorMap map[Kind]string
	if colorTTY {
		colorMap = map[Kind]string{
			Kind("close"): colorClose,
			KindNew:       colorInsert,
			KindDeleted:   colorDelete,
			KindEdited:    colorUpdate,
			KindArray:     colorArray,
		}
	}
	return formatPretty(w, changes, 0, colorMap)
}

var symbols = map[Kind]string{
	KindNew:     "+",
	KindDeleted: "-",
	KindEdited:  "~",
	KindArray:   "A",
}

func formatPretty(w io.Writer, changes Changes, indent int, colorMap map[Kind]string) error {
	for _, c := range changes {
		path := displayPath(c.Path)

		var dataStr string
		var err error
		switch c.Kind {
		case KindNew:
			dataStr, err = prettyValue(c.RHS)
		case KindDeleted:
			dataStr, err = prettyValue(c.LHS)
		case KindEdited:
			var l, r string
			if l, err = prettyValue(c.LHS); err == nil {
				r, err = prettyValue(c.RHS)
			}
			dataStr = l + " => " + r
		}
		if err != nil {
			return err
		}

		sym, ok := symbols[c.Kind]
		if !ok {
			sym = string(c.Kind)
		}
		if dataStr != "" {
			dataStr = " " + dataStr
		}
		if _, err := fmt.Fprintf(w, "%s%s%s%s:%s%s\n", strings.Repeat("  ", indent), colorMap[c.Kind], sym, path, dataStr, colorMap[Kind("close")]); err != nil {
			return err
		}

		if c.Kind == KindArray && c.Item != nil {
			if err := formatPretty(w, Changes{c.Item.under(c.Index)}, indent+1, colorMap); err != nil {
				return err
			}
		}
	}

	return nil
}

func prettyValue(v interface{}) (string, error) {
	if v == Undefined {
		return "undefined", nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// FormatPrettyStats prints a string of stats info. A nil stats pointer prints
// nothing
func FormatPrettyStats(ds *Stats, colorTTY bool) string {
	var (
		neutralColor, insertColor, deleteColor, updateColor, arrayColor, closeColor string
	)

	if ds == nil {
		return ""
	}

	if colorTTY {
		neutralColor = colorNeutral
		insertColor = colorInsert
		deleteColor = colorDelete
		updateColor = colorUpdate
		arrayColor = colorArray
		closeColor = colorClose
	}

	buf := &bytes.Buffer{}

	elsColor := insertColor
	change := ds.NodeChange()
	sign := "+"
	if change < 0 {
		elsColor = deleteColor
		sign = ""
	} else if change == 0 {
		elsColor = neutralColor
		sign = ""
	}

	fmt.Fprintf(buf, "%s%s%s %s%s%s%s.",
		elsColor, sign, humanize.Comma(int64(change)), closeColor,
		neutralColor, plural(change, "element", "elements"), closeColor,
	)
	fmt.Fprintf(buf, " %s%s %s.%s", insertColor, humanize.Comma(int64(ds.Inserts)), plural(ds.Inserts, "insert", "inserts"), closeColor)
	fmt.Fprintf(buf, " %s%s %s.%s", deleteColor, humanize.Comma(int64(ds.Deletes)), plural(ds.Deletes, "delete", "deletes"), closeColor)
	fmt.Fprintf(buf, " %s%s %s.%s", updateColor, humanize.Comma(int64(ds.Updates)), plural(ds.Updates, "update", "updates"), closeColor)

	if ds.ArrayEdits > 0 {
		fmt.Fprintf(buf, " %s%s %s.%s", arrayColor, humanize.Comma(int64(ds.ArrayEdits)), plural(ds.ArrayEdits, "array edit", "array edits"), closeColor)
	}

	buf.WriteRune('\n')
	return buf.String()
}

func plural(n int, one, many string) string {
	if n == 1 || n == -1 {
		return one
	}
	return many
}
