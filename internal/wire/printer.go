package wire

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// PrettyPrint renders the response starting at res[offset] as human-readable
// text for a CLI front-end, indenting nested arrays. It returns the number
// of bytes consumed, or 0 if res is truncated at offset.
func PrettyPrint(res []byte, offset int, indent int) (consumed int, text string) {
	if offset >= len(res) {
		return 0, ""
	}

	start := offset
	tag := ResponseTag(res[offset])
	offset++

	pad := strings.Repeat(" ", indent)
	var sb strings.Builder

	switch tag {
	case TagNil:
		sb.WriteString(pad + "(nil)\n")

	case TagErr:
		if len(res)-offset < 8 {
			return 0, ""
		}
		code := binary.LittleEndian.Uint32(res[offset:])
		offset += 4
		msgLen := binary.LittleEndian.Uint32(res[offset:])
		offset += 4
		if len(res)-offset < int(msgLen) {
			return 0, ""
		}
		msg := string(res[offset : offset+int(msgLen)])
		offset += int(msgLen)
		sb.WriteString(fmt.Sprintf("%s(err) code %d: %s\n", pad, code, msg))

	case TagStr:
		if len(res)-offset < 4 {
			return 0, ""
		}
		strLen := binary.LittleEndian.Uint32(res[offset:])
		offset += 4
		if len(res)-offset < int(strLen) {
			return 0, ""
		}
		s := string(res[offset : offset+int(strLen)])
		offset += int(strLen)
		sb.WriteString(fmt.Sprintf("%s%q\n", pad, s))

	case TagInt:
		if len(res)-offset < 8 {
			return 0, ""
		}
		v := int64(binary.LittleEndian.Uint64(res[offset:]))
		offset += 8
		sb.WriteString(fmt.Sprintf("%s(integer) %s\n", pad, strconv.FormatInt(v, 10)))

	case TagArr:
		if len(res)-offset < 4 {
			return 0, ""
		}
		count := binary.LittleEndian.Uint32(res[offset:])
		offset += 4
		sb.WriteString(fmt.Sprintf("%s(arr) %d elements:\n", pad, count))

		for i := uint32(0); i < count; i++ {
			n, childText := PrettyPrint(res, offset, indent+2)
			if n == 0 {
				return 0, ""
			}
			sb.WriteString(childText)
			offset += n
		}

	default:
		return 0, ""
	}

	return offset - start, sb.String()
}
