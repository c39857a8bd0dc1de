package userconf

import (
	"fmt"
	"strings"
)

// Dump renders v as an indented tree, one node per line:
//
//	`- Record
//	   |- Field "name"
//	   |  `- String "edge"
//	   `- Field "ports"
//	      `- Array
//	         `- String "80"
func Dump(v Value) string {
	var lines []string
	dumpNode(v, "", "", true, &lines)
	return strings.Join(lines, "\n")
}

func dumpNode(v Value, label, prefix string, last bool, lines *[]string) {
	branch, childPrefix := "|- ", prefix+"|  "
	if last {
		branch, childPrefix = "`- ", prefix+"   "
	}
	if label != "" {
		*lines = append(*lines, fmt.Sprintf("%s%sField %q", prefix, branch, label))
		prefix, branch, childPrefix = childPrefix, "`- ", childPrefix+"   "
	}

	switch x := v.(type) {
	case String:
		*lines = append(*lines, fmt.Sprintf("%s%sString %q", prefix, branch, x.Text))
	case *Record:
		*lines = append(*lines, prefix+branch+"Record")
		n := x.Len()
		i := 0
		for k, child := range x.All() {
			i++
			dumpNode(child, k, childPrefix, i == n, lines)
		}
	case *Array:
		*lines = append(*lines, prefix+branch+"Array")
		n := x.Len()
		for i, child := range x.All() {
			dumpNode(child, "", childPrefix, i == n-1, lines)
		}
	}
}
