package htmlutil

import (
	"bytes"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

var innerWhitespace = regexp.MustCompile(`\s\s+`)

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) || c == ' ' || c == '\n' {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// CleanText trims a scraped text fragment down to a single line of
// printable characters.
func CleanText(s string) string {
	s = removeNonPrintable(s)
	s = strings.Trim(s, " \t\n")
	return innerWhitespace.ReplaceAllString(s, " ")
}

// DocumentText returns the visible text of an entire rendered document
// with script/style contents stripped, suitable for regex extraction.
func DocumentText(doc *goquery.Document) string {
	clone := doc.Selection.Clone()
	clone.Find("script,style,noscript").Remove()

	var buffer bytes.Buffer
	for _, n := range clone.Nodes {
		getTextRecursive(n, &buffer)
		buffer.WriteString("\n")
	}
	return removeNonPrintable(buffer.String())
}
