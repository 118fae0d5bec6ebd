package bytecode

import (
	"fmt"
	"strings"
)

// SplitMember splits "owner/name(params)ret" or "owner/name" into its
// owner class, member name and descriptor.
func SplitMember(ref string) (owner, name, desc string) {
	head := ref
	if i := strings.IndexByte(ref, '('); i >= 0 {
		head, desc = ref[:i], ref[i:]
	}
	if i := strings.LastIndexByte(head, '/'); i >= 0 {
		return head[:i], head[i+1:], desc
	}
	return "", head, desc
}

// MethodDescriptor is a parsed "(params)ret" signature.
type MethodDescriptor struct {
	Params []string
	Return string
}

// ParseMethodDescriptor parses a JVM method descriptor.
func ParseMethodDescriptor(desc string) (MethodDescriptor, error) {
	var md MethodDescriptor
	if !strings.HasPrefix(desc, "(") {
		return md, fmt.Errorf("bytecode: method descriptor %q must start with '('", desc)
	}
	i := 1
	for i < len(desc) && desc[i] != ')' {
		field, next, err := parseFieldDescriptor(desc, i)
		if err != nil {
			return md, err
		}
		md.Params = append(md.Params, field)
		i = next
	}
	if i >= len(desc) {
		return md, fmt.Errorf("bytecode: method descriptor %q lacks ')'", desc)
	}
	ret := desc[i+1:]
	if ret != "V" {
		field, next, err := parseFieldDescriptor(desc, i+1)
		if err != nil {
			return md, err
		}
		if next != len(desc) {
			return md, fmt.Errorf("bytecode: trailing text in method descriptor %q", desc)
		}
		ret = field
	}
	md.Return = ret
	return md, nil
}

func parseFieldDescriptor(s string, i int) (string, int, error) {
	start := i
	for i < len(s) && s[i] == '[' {
		i++
	}
	if i >= len(s) {
		return "", i, fmt.Errorf("bytecode: truncated descriptor %q", s)
	}
	switch s[i] {
	case 'I', 'F', 'Z', 'C', 'B', 'S', 'J', 'D':
		return s[start : i+1], i + 1, nil
	case 'L':
		end := strings.IndexByte(s[i:], ';')
		if end < 0 {
			return "", i, fmt.Errorf("bytecode: unterminated class descriptor in %q", s)
		}
		return s[start : i+end+1], i + end + 1, nil
	}
	return "", i, fmt.Errorf("bytecode: bad descriptor character %q in %q", s[i], s)
}

// SlotSize is the operand stack size of a value with the given descriptor.
// Every supported descriptor occupies one slot; void occupies none.
func SlotSize(desc string) int {
	if desc == "" || desc == "V" {
		return 0
	}
	return 1
}
