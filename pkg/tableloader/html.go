package tableloader

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/chazu/utitree/pkg/hierarchy"
)

var (
	identifierCell = regexp.MustCompile(`^([\w.-]+)(?: \((\w+)\))?$`)
	parentToken    = regexp.MustCompile(`[\w.-]+`)
)

// Misspelled parents found in Apple's published table
var parentCorrections = map[string]string{
	"public.mpeg4": "public.mpeg-4",
}

// Metadata keys for the columns after the identifier and its parents
var htmlColumns = []string{"tags", "description"}

// htmlDecoder reads the first table of a saved copy of Apple's
// System-Declared Uniform Type Identifiers page
type htmlDecoder struct{}

func (htmlDecoder) Format() string {
	return FormatHTML
}

func (htmlDecoder) Decode(src *Source) ([]hierarchy.Record, error) {
	doc, err := html.Parse(bytes.NewReader(src.Content))
	if err != nil {
		return nil, &ParseError{Source: src.Name, Err: err}
	}

	table := findElement(doc, atom.Table)
	if table == nil {
		return nil, &ParseError{Source: src.Name, Err: fmt.Errorf("no table found")}
	}

	var records []hierarchy.Record
	for i, row := range tableRows(table) {
		cells, header := rowCells(row)
		if header {
			continue
		}
		if len(cells) < 2 {
			return nil, &ParseError{Source: src.Name, Row: i + 1,
				Err: fmt.Errorf("expected at least 2 columns, got %d", len(cells))}
		}

		record, err := parseRow(cells)
		if err != nil {
			return nil, &ParseError{Source: src.Name, Row: i + 1, Err: err}
		}
		records = append(records, record)
	}
	return records, nil
}

func parseRow(cells []string) (hierarchy.Record, error) {
	m := identifierCell.FindStringSubmatch(cells[0])
	if m == nil {
		return hierarchy.Record{}, fmt.Errorf("cannot parse identifier %q", cells[0])
	}

	record := hierarchy.Record{Identifier: m[1]}
	if m[2] != "" {
		record.Metadata = map[string]string{"constant": m[2]}
	}

	if cells[1] != "-" {
		for _, parent := range parentToken.FindAllString(cells[1], -1) {
			if fixed, ok := parentCorrections[parent]; ok {
				parent = fixed
			}
			record.Parents = append(record.Parents, parent)
		}
	}

	for i, key := range htmlColumns {
		if i+2 >= len(cells) || cells[i+2] == "" {
			continue
		}
		if record.Metadata == nil {
			record.Metadata = make(map[string]string)
		}
		record.Metadata[key] = cells[i+2]
	}
	return record, nil
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

// tableRows returns the rows of table in document order without descending
// into nested tables
func tableRows(table *html.Node) []*html.Node {
	var rows []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.DataAtom {
			case atom.Tr:
				rows = append(rows, c)
			case atom.Table:
			default:
				walk(c)
			}
		}
	}
	walk(table)
	return rows
}

// rowCells returns the cleaned text of each cell and whether the row is a
// header row
func rowCells(row *html.Node) ([]string, bool) {
	var cells []string
	header := row.Parent != nil && row.Parent.DataAtom == atom.Thead
	headerCells := 0
	for c := row.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || (c.DataAtom != atom.Td && c.DataAtom != atom.Th) {
			continue
		}
		if c.DataAtom == atom.Th {
			headerCells++
		}
		cells = append(cells, cleanText(textContent(c)))
	}
	return cells, header || (len(cells) > 0 && headerCells == len(cells))
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			sb.WriteString(n.Data)
		case n.Type == html.ElementNode && n.DataAtom == atom.Br:
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// cleanText turns every kind of space, including the non-breaking spaces in
// Apple's table, into a plain space, drops everything else outside printable
// ASCII and collapses whitespace
func cleanText(s string) string {
	printable := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsSpace(r):
			return ' '
		case r < ' ' || r > '~':
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(printable), " ")
}
